package delivery

import (
	"context"
	"log/slog"

	"cloudronwatch/internal/logging"
)

// DryRun logs messages instead of delivering them. Results are marked Skipped
// and never Delivered, so nothing is acknowledged.
type DryRun struct {
	logger *slog.Logger
}

func NewDryRun(logger *slog.Logger) *DryRun {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &DryRun{logger: logger}
}

func (d *DryRun) Deliver(ctx context.Context, msg Message) Result {
	logging.WithContext(ctx, d.logger).Info("dry run: message not sent",
		logging.String("kind", string(msg.Kind)),
		logging.String("ref", msg.Ref),
		logging.String("subject", msg.Subject),
		logging.String("body", msg.Body),
	)
	return Result{Skipped: true}
}
