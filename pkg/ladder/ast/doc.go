// Package ast defines the syntax tree for ladder definitions.
//
// A ladder is an ordered list of rules plus a default result, written in
// YAML and evaluated first-match-wins. The parser package builds these
// nodes; the engine package compiles them into executable rule sets.
package ast
