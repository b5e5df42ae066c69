// Package api defines the JSON types served by the daemon's dashboard API,
// thin service layers over the store for queue and analytics operations, and
// the HTTP client the CLI uses to talk to a running daemon.
package api
