// Package history keeps an optional SQLite audit log of runs and the messages
// each run attempted. It is write-mostly: the pipeline records a run when it
// finishes and the history command reads it back. Delivery decisions never
// consult it.
package history
