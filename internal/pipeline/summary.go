package pipeline

import (
	"fmt"
	"strings"
	"time"

	"cloudronwatch/internal/history"
)

// Outcome is the terminal state of a run.
type Outcome string

const (
	OutcomeDone    Outcome = history.OutcomeDone
	OutcomeAborted Outcome = history.OutcomeAborted
)

// Summary describes one run.
type Summary struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Outcome    Outcome
	DryRun     bool
	Err        error
	history.Counts
	// Skipped counts messages a dry run rendered but did not send.
	Skipped    int
	Deliveries []history.Delivery
}

// Duration returns the wall-clock length of the run.
func (s Summary) Duration() time.Duration {
	if s.FinishedAt.Before(s.StartedAt) {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}

// Record converts the summary into a history row.
func (s Summary) Record() history.Run {
	run := history.Run{
		RunID:      s.RunID,
		StartedAt:  s.StartedAt,
		FinishedAt: s.FinishedAt,
		Outcome:    string(s.Outcome),
		DryRun:     s.DryRun,
		Counts:     s.Counts,
		Deliveries: s.Deliveries,
	}
	if s.Err != nil {
		run.ErrorKind = errorKind(s.Err)
		run.ErrorMessage = s.Err.Error()
	}
	return run
}

// Lines renders the human-readable end-of-run report.
func (s Summary) Lines() []string {
	if s.Outcome == OutcomeAborted {
		reason := "unknown error"
		if s.Err != nil {
			reason = s.Err.Error()
		}
		return []string{fmt.Sprintf("Run aborted after %s: %s", s.Duration().Round(time.Millisecond), reason)}
	}
	lines := []string{
		fmt.Sprintf("Applications: checked %s, %d with errors, %d not running, %s sent",
			plural(s.AppsChecked, "app", "apps"), s.AppsErrored, s.AppsNotRunning,
			plural(s.AppsSent, "message", "messages")),
		fmt.Sprintf("Notifications: checked %s, %d unread, %d sent, %d acknowledged",
			plural(s.NotificationsChecked, "notification", "notifications"), s.NotificationsUnread,
			s.NotificationsSent, s.NotificationsAcknowledged),
	}
	if s.DeliveryFailures > 0 || s.AcknowledgeFailures > 0 {
		lines = append(lines, fmt.Sprintf("Failures: %s, %s",
			plural(s.DeliveryFailures, "delivery", "deliveries"),
			plural(s.AcknowledgeFailures, "acknowledgement", "acknowledgements")))
	}
	if s.DryRun {
		lines = append(lines, fmt.Sprintf("Dry run: %s rendered, nothing sent or acknowledged",
			plural(s.Skipped, "message", "messages")))
	}
	return lines
}

// String joins Lines with newlines.
func (s Summary) String() string {
	return strings.Join(s.Lines(), "\n")
}

func plural(n int, singular, pluralForm string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, singular)
	}
	return fmt.Sprintf("%d %s", n, pluralForm)
}
