// Package main hosts the cloudronwatch CLI entrypoint and command graph.
//
// Running the binary without a subcommand performs one poll of the configured
// Cloudron server and exits; scheduling belongs to cron or a systemd timer.
// Subcommands inspect state without side effects (apps, notifications,
// history, lock status, check) or help with setup (config init, test-notify).
//
// The process exits 1 when a run aborts (configuration error, lock held,
// fetch failure) and 0 otherwise, even if individual deliveries failed.
package main
