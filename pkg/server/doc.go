// Package server exposes ladder evaluation over HTTP.
//
// Routes:
//
//	POST /v1/ladders/{name}/evaluate   {"input": 10} or {"raw": "10"} -> Decision
//	GET  /v1/ladders                   loaded ladders
//	GET  /v1/ladders/{name}            one ladder
//	GET  /healthz                      liveness
//	GET  /readyz                       readiness checks
//	GET  /version                      build information
//	GET  <metrics path>                Prometheus metrics, when enabled
//
// Errors are JSON objects of the form
//
//	{"error": {"message": "...", "type": "not_found", "code": "ladder_not_found"}}
//
// A type mismatch between input and ladder answers 422.
//
// When server.api_keys is set the /v1 routes require a key in an
// "Authorization: Bearer" or X-API-Key header. server.rate_limit throttles
// the same routes per client IP and answers 429 with Retry-After. The
// client IP is the peer address; X-Forwarded-For is read only from peers
// listed in server.rate_limit.trusted_proxies.
// server.tls serves HTTPS from a certificate and key file.
//
// Serve blocks until its context is cancelled and then shuts down
// gracefully within server.shutdown_timeout.
package server
