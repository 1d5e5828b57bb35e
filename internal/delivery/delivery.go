package delivery

import (
	"context"
	"log/slog"
	"time"

	"cloudronwatch/internal/config"
	"cloudronwatch/internal/logging"
)

// Kind identifies what a message describes.
type Kind string

const (
	KindNotification Kind = "notification"
	KindApp          Kind = "app"
	KindTest         Kind = "test"
)

// Message is one rendered message ready for delivery.
type Message struct {
	Kind Kind
	// Ref is the notification ID or app label, used for logging.
	Ref     string
	Subject string
	Body    string
}

// Result reports the outcome of one delivery attempt.
type Result struct {
	Delivered bool
	// Skipped is set when the deliverer intentionally sent nothing (dry run).
	Skipped bool
	// Err carries services.ErrDelivery (and ErrTimeout when the deadline hit)
	// when Delivered is false.
	Err      error
	Output   string
	Duration time.Duration
}

// Deliverer hands a message to the configured channel. Implementations never
// retry; the caller decides what a failure means.
type Deliverer interface {
	Deliver(ctx context.Context, msg Message) Result
}

// NewFromConfig builds the deliverer described by cfg: a shoutrrr sender when
// notification.url is set, otherwise the shell command. Rate limiting wraps the
// result when notification.rate_per_minute is positive, and dryRun replaces
// everything with a logging stub.
func NewFromConfig(cfg *config.Config, logger *slog.Logger, dryRun bool) (Deliverer, error) {
	logger = logging.NewComponentLogger(logger, "delivery")
	if dryRun {
		return NewDryRun(logger), nil
	}

	var base Deliverer
	if cfg.UsesURLDelivery() {
		d, err := NewShoutrrr(cfg.Notification.URL)
		if err != nil {
			return nil, err
		}
		base = d
	} else {
		base = NewCommand(CommandOptions{
			Command:       cfg.Notification.Command,
			Shell:         cfg.Notification.Shell,
			Escape:        cfg.Notification.Escape,
			ResponseCheck: cfg.Notification.ResponseCheck,
			Timeout:       cfg.DeliveryTimeout(),
		})
	}

	if cfg.Notification.RatePerMinute > 0 {
		return NewRateLimited(base, cfg.Notification.RatePerMinute), nil
	}
	return base, nil
}
