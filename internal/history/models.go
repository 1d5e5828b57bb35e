package history

import "time"

// Outcome values stored for a run.
const (
	OutcomeDone    = "done"
	OutcomeAborted = "aborted"
)

// Counts mirrors the per-run summary counters.
type Counts struct {
	AppsChecked               int `json:"apps_checked"`
	AppsErrored               int `json:"apps_errored"`
	AppsNotRunning            int `json:"apps_not_running"`
	AppsSent                  int `json:"apps_sent"`
	NotificationsChecked      int `json:"notifications_checked"`
	NotificationsUnread       int `json:"notifications_unread"`
	NotificationsSent         int `json:"notifications_sent"`
	NotificationsAcknowledged int `json:"notifications_acknowledged"`
	DeliveryFailures          int `json:"delivery_failures"`
	AcknowledgeFailures       int `json:"acknowledge_failures"`
}

// Run is one recorded invocation.
type Run struct {
	RunID        string
	StartedAt    time.Time
	FinishedAt   time.Time
	Outcome      string
	DryRun       bool
	ErrorKind    string
	ErrorMessage string
	Counts       Counts
	Deliveries   []Delivery
}

// Duration returns the wall-clock length of the run.
func (r Run) Duration() time.Duration {
	if r.FinishedAt.Before(r.StartedAt) {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Delivery is one message attempt within a run.
type Delivery struct {
	Kind         string
	Ref          string
	Subject      string
	Delivered    bool
	Acknowledged bool
	Error        string
	Duration     time.Duration
}
