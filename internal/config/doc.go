// Package config loads, normalizes, and validates the TOML configuration that
// drives the reelay daemon and CLI.
//
// Load applies repository defaults, decodes the user's file when present,
// expands filesystem paths, and rejects configurations the daemon could not
// safely run with. The CLI accepts account-less configs; ValidateForDaemon
// enforces the stricter daemon requirements.
package config
