// Package config loads, normalizes, and validates cloudronwatch configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// CLOUDRON_TOKEN and CLOUDRON_DOMAIN. Settings are reloaded fresh on every
// invocation and never mutated during a run.
//
// Validation failures carry services.ErrConfiguration so callers can abort
// before any network call is made.
package config
