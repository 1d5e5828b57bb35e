package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Store records runs in SQLite. It is an audit log only; nothing reads it to
// decide what to deliver.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the history database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure history directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database location.
func (s *Store) Path() string {
	return s.path
}

// RecordRun stores a run and its deliveries in one transaction.
func (s *Store) RecordRun(ctx context.Context, run Run) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin record tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	c := run.Counts
	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (
            run_id, started_at, finished_at, outcome, dry_run, error_kind, error_message,
            apps_checked, apps_errored, apps_not_running, apps_sent,
            notifications_checked, notifications_unread, notifications_sent, notifications_acknowledged,
            delivery_failures, acknowledge_failures
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.RunID,
		formatTime(run.StartedAt),
		formatTime(run.FinishedAt),
		run.Outcome,
		boolToInt(run.DryRun),
		nullableString(run.ErrorKind),
		nullableString(run.ErrorMessage),
		c.AppsChecked, c.AppsErrored, c.AppsNotRunning, c.AppsSent,
		c.NotificationsChecked, c.NotificationsUnread, c.NotificationsSent, c.NotificationsAcknowledged,
		c.DeliveryFailures, c.AcknowledgeFailures,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, d := range run.Deliveries {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO deliveries (
                run_id, kind, ref, subject, delivered, acknowledged, error_message, duration_ms
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			run.RunID, d.Kind, d.Ref, nullableString(d.Subject),
			boolToInt(d.Delivered), boolToInt(d.Acknowledged),
			nullableString(d.Error), d.Duration.Milliseconds(),
		)
		if err != nil {
			return fmt.Errorf("insert delivery: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run: %w", err)
	}
	return nil
}

// Recent returns up to limit runs, newest first, without their deliveries.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, started_at, finished_at, outcome, dry_run, error_kind, error_message,
            apps_checked, apps_errored, apps_not_running, apps_sent,
            notifications_checked, notifications_unread, notifications_sent, notifications_acknowledged,
            delivery_failures, acknowledge_failures
        FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// Deliveries returns the delivery attempts recorded for runID in insertion order.
func (s *Store) Deliveries(ctx context.Context, runID string) ([]Delivery, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT kind, ref, subject, delivered, acknowledged, error_message, duration_ms
        FROM deliveries WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("query deliveries: %w", err)
	}
	defer rows.Close()

	var deliveries []Delivery
	for rows.Next() {
		var (
			d            Delivery
			subject      sql.NullString
			errorMessage sql.NullString
			delivered    int
			acknowledged int
			durationMS   int64
		)
		if err := rows.Scan(&d.Kind, &d.Ref, &subject, &delivered, &acknowledged, &errorMessage, &durationMS); err != nil {
			return nil, fmt.Errorf("scan delivery: %w", err)
		}
		d.Subject = subject.String
		d.Error = errorMessage.String
		d.Delivered = delivered != 0
		d.Acknowledged = acknowledged != 0
		d.Duration = time.Duration(durationMS) * time.Millisecond
		deliveries = append(deliveries, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate deliveries: %w", err)
	}
	return deliveries, nil
}

// Prune deletes runs that started before cutoff and returns how many were removed.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM runs WHERE started_at < ?", formatTime(cutoff))
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return removed, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var (
		run          Run
		started      string
		finished     string
		dryRun       int
		errorKind    sql.NullString
		errorMessage sql.NullString
	)
	c := &run.Counts
	err := row.Scan(
		&run.RunID, &started, &finished, &run.Outcome, &dryRun, &errorKind, &errorMessage,
		&c.AppsChecked, &c.AppsErrored, &c.AppsNotRunning, &c.AppsSent,
		&c.NotificationsChecked, &c.NotificationsUnread, &c.NotificationsSent, &c.NotificationsAcknowledged,
		&c.DeliveryFailures, &c.AcknowledgeFailures,
	)
	if err != nil {
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	run.StartedAt = parseTime(started)
	run.FinishedAt = parseTime(finished)
	run.DryRun = dryRun != 0
	run.ErrorKind = errorKind.String
	run.ErrorMessage = errorMessage.String
	return run, nil
}

// timeLayout sorts lexically, which Prune and Recent rely on.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(value string) time.Time {
	t, err := time.Parse(timeLayout, value)
	if err != nil {
		return time.Time{}
	}
	return t
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
