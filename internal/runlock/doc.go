// Package runlock prevents overlapping runs with a marker file.
//
// The marker's existence is the lock: a run that finds it aborts without
// touching the API, even when the marker is left over from a crash. An
// advisory flock on the marker settles simultaneous starters and lets Inspect
// tell a live owner from a stale leftover.
package runlock
