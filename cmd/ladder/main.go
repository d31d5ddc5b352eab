// Package main is the entry point for the ladder CLI.
//
// ladder evaluates ordered rule sets ("ladders") declared in YAML, runs the
// loop exercises built on the same rules library, and serves evaluations
// over HTTP with an optional SQLite audit trail.
//
// Usage:
//
//	ladder eval high-school-grades 10
//	ladder sum 5 --transform square
//	ladder roll
//	ladder countdown
//	ladder serve --config ladder.yaml
package main

func main() {
	Execute()
}
