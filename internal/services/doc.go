// Package services defines shared utilities consumed by the pipeline and its
// integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, component names, and notification
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper so failures can be
//     classified as fatal (abort the run) or per-item (log and continue).
//
// Use these helpers when wiring new components so error handling and
// observability stay uniform across the run.
package services
