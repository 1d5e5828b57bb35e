// Package logging assembles the slog loggers used by cloudronwatch.
//
// It owns the console and JSON handlers, splits output so INFO and DEBUG reach
// stdout while WARN and ERROR reach stderr, and optionally appends everything
// to a log file. Context helpers tag records with the run ID so every line of
// one invocation can be correlated.
package logging
