package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"cloudronwatch/internal/cloudron"
	"cloudronwatch/internal/config"
	"cloudronwatch/internal/delivery"
	"cloudronwatch/internal/history"
	"cloudronwatch/internal/logging"
	"cloudronwatch/internal/render"
	"cloudronwatch/internal/runlock"
	"cloudronwatch/internal/services"
)

// API is the part of the Cloudron client the pipeline needs.
type API interface {
	ListNotifications(ctx context.Context) ([]cloudron.Notification, error)
	ListApps(ctx context.Context) ([]cloudron.App, error)
	Acknowledge(ctx context.Context, id string) error
}

// HistoryStore persists finished runs.
type HistoryStore interface {
	RecordRun(ctx context.Context, run history.Run) error
	Prune(ctx context.Context, cutoff time.Time) (int64, error)
}

// MetricsSink exports the outcome of a run.
type MetricsSink interface {
	Observe(counts history.Counts, success bool, finished time.Time, duration time.Duration)
	WriteTextfile(path string) error
}

// Options configures a Driver.
type Options struct {
	LockPath    string
	Template    string
	Render      render.Options
	AppsEnabled bool
	// IgnoreApps holds lowercased app titles, FQDNs, or IDs to skip.
	IgnoreApps []string
	DryRun     bool

	History          HistoryStore
	HistoryRetention time.Duration
	Metrics          MetricsSink
	MetricsPath      string
}

// OptionsFromConfig maps configuration onto driver options. History and
// metrics sinks are attached by the caller.
func OptionsFromConfig(cfg *config.Config, dryRun bool) Options {
	return Options{
		LockPath: cfg.Paths.LockFile,
		Template: cfg.Notification.Template,
		Render: render.Options{
			Location:  cfg.Location(),
			Instance:  cfg.Cloudron.InstanceName,
			MaxLength: cfg.Notification.MaxLength,
		},
		AppsEnabled:      cfg.Apps.Enabled,
		IgnoreApps:       cfg.Apps.Ignore,
		DryRun:           dryRun,
		HistoryRetention: time.Duration(cfg.History.RetentionDays) * 24 * time.Hour,
		MetricsPath:      cfg.Metrics.TextfilePath,
	}
}

// Driver runs the lock, fetch, render, deliver, acknowledge, unlock sequence.
type Driver struct {
	api       API
	deliverer delivery.Deliverer
	logger    *slog.Logger
	opts      Options
	ignore    map[string]struct{}

	now      func() time.Time
	newRunID func() string
}

// New builds a Driver.
func New(api API, deliverer delivery.Deliverer, logger *slog.Logger, opts Options) *Driver {
	ignore := make(map[string]struct{}, len(opts.IgnoreApps))
	for _, entry := range opts.IgnoreApps {
		if entry = strings.ToLower(strings.TrimSpace(entry)); entry != "" {
			ignore[entry] = struct{}{}
		}
	}
	return &Driver{
		api:       api,
		deliverer: deliverer,
		logger:    logging.NewComponentLogger(logger, "pipeline"),
		opts:      opts,
		ignore:    ignore,
		now:       time.Now,
		newRunID:  uuid.NewString,
	}
}

// Run performs one complete pass. The returned error is non-nil only when the
// run aborted (lock held, fetch failed, or the context ended); per-item
// failures are reported through the Summary counts.
func (d *Driver) Run(ctx context.Context) (Summary, error) {
	summary := Summary{
		RunID:     d.newRunID(),
		StartedAt: d.now(),
		DryRun:    d.opts.DryRun,
	}
	ctx = services.WithRunID(ctx, summary.RunID)
	logger := logging.WithContext(ctx, d.logger)

	err := d.run(ctx, logger, &summary)
	summary.FinishedAt = d.now()
	if err != nil {
		summary.Outcome = OutcomeAborted
		summary.Err = err
		logger.Error("run aborted",
			logging.Error(err),
			logging.String(logging.FieldEventType, "run_aborted"),
			logging.String(logging.FieldErrorHint, abortHint(err)),
		)
	} else {
		summary.Outcome = OutcomeDone
		logger.Info("run complete",
			logging.Int("apps_checked", summary.AppsChecked),
			logging.Int("apps_sent", summary.AppsSent),
			logging.Int("notifications_unread", summary.NotificationsUnread),
			logging.Int("notifications_acknowledged", summary.NotificationsAcknowledged),
			logging.Int("delivery_failures", summary.DeliveryFailures),
			slog.Duration("duration", summary.Duration()),
		)
	}

	// The lock holder owns history and the metrics textfile for this cycle.
	if errors.Is(err, services.ErrLocked) {
		return summary, err
	}
	d.finish(ctx, logger, summary)
	return summary, err
}

func (d *Driver) run(ctx context.Context, logger *slog.Logger, summary *Summary) error {
	lock, err := runlock.Acquire(d.opts.LockPath, summary.RunID)
	if err != nil {
		return err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			logging.WarnEvent(logger, "failed to release run lock", "lock_release_failed",
				"remove the marker with 'cloudronwatch lock clear'",
				logging.String("lock", lock.Path()), logging.Error(err))
		}
	}()
	logger.Debug("run lock acquired", logging.String("lock", lock.Path()))

	var apps []cloudron.App
	if d.opts.AppsEnabled {
		apps, err = d.api.ListApps(ctx)
		if err != nil {
			return err
		}
	}
	notifications, err := d.api.ListNotifications(ctx)
	if err != nil {
		return err
	}
	logger.Debug("fetched state", logging.Int("apps", len(apps)), logging.Int("notifications", len(notifications)))

	for _, app := range apps {
		if err := ctx.Err(); err != nil {
			return interrupted(err)
		}
		d.processApp(ctx, logger, summary, app)
	}

	summary.NotificationsChecked = len(notifications)
	for _, n := range notifications {
		if n.Acknowledged {
			continue
		}
		if err := ctx.Err(); err != nil {
			return interrupted(err)
		}
		d.processNotification(services.WithNotificationID(ctx, n.ID), summary, n)
	}
	return nil
}

func (d *Driver) processApp(ctx context.Context, logger *slog.Logger, summary *Summary, app cloudron.App) {
	summary.AppsChecked++
	if d.ignored(app) {
		logger.Debug("app ignored", logging.String(logging.FieldApp, app.Label()))
		return
	}
	body, ok := render.AppMessage(app, d.opts.Render)
	if !ok {
		return
	}
	if app.Error != nil {
		summary.AppsErrored++
	} else {
		summary.AppsNotRunning++
	}

	msg := delivery.Message{Kind: delivery.KindApp, Ref: app.Label(), Subject: app.Label(), Body: body}
	result := d.deliverer.Deliver(ctx, msg)
	record := history.Delivery{Kind: string(msg.Kind), Ref: msg.Ref, Subject: msg.Subject, Duration: result.Duration}
	appLogger := logger.With(logging.String(logging.FieldApp, app.Label()))

	switch {
	case result.Delivered:
		summary.AppsSent++
		record.Delivered = true
		appLogger.Info("app status sent")
		appLogger.Debug("app message", logging.String("message", body))
	case result.Skipped:
		summary.Skipped++
	default:
		summary.DeliveryFailures++
		record.Error = errorText(result.Err)
		appLogger.Error("app status delivery failed",
			logging.Error(result.Err),
			logging.String(logging.FieldEventType, "delivery_failed"),
			logging.String(logging.FieldErrorHint, "check notification.command"),
		)
	}
	summary.Deliveries = append(summary.Deliveries, record)
}

func (d *Driver) processNotification(ctx context.Context, summary *Summary, n cloudron.Notification) {
	logger := logging.WithContext(ctx, d.logger)
	summary.NotificationsUnread++

	body := render.NotificationMessage(d.opts.Template, n, d.opts.Render)
	msg := delivery.Message{Kind: delivery.KindNotification, Ref: n.ID, Subject: render.Subject(n), Body: body}
	result := d.deliverer.Deliver(ctx, msg)
	record := history.Delivery{Kind: string(msg.Kind), Ref: msg.Ref, Subject: msg.Subject, Duration: result.Duration}
	defer func() { summary.Deliveries = append(summary.Deliveries, record) }()

	switch {
	case result.Skipped:
		summary.Skipped++
		return
	case !result.Delivered:
		summary.DeliveryFailures++
		record.Error = errorText(result.Err)
		logger.Error("notification delivery failed; left unacknowledged",
			logging.String("title", n.Title),
			logging.Error(result.Err),
			logging.String(logging.FieldEventType, "delivery_failed"),
			logging.String(logging.FieldErrorHint, "the notification will be retried on the next run"),
		)
		return
	}

	summary.NotificationsSent++
	record.Delivered = true
	logger.Info("notification sent", logging.String("title", n.Title))
	logger.Debug("notification message", logging.String("message", body))

	if err := d.api.Acknowledge(ctx, n.ID); err != nil {
		summary.AcknowledgeFailures++
		record.Error = errorText(err)
		logging.WarnEvent(logger, "acknowledge failed; notification may be sent again", "acknowledge_failed",
			"check the API token permissions", logging.Error(err))
		return
	}
	summary.NotificationsAcknowledged++
	record.Acknowledged = true
	logger.Debug("notification acknowledged")
}

func (d *Driver) ignored(app cloudron.App) bool {
	if len(d.ignore) == 0 {
		return false
	}
	for _, key := range []string{app.Title, app.FQDN, app.ID} {
		if _, ok := d.ignore[strings.ToLower(strings.TrimSpace(key))]; ok && key != "" {
			return true
		}
	}
	return false
}

// finish writes history and metrics. It runs for aborted runs too and uses a
// fresh context so an interrupted run is still recorded.
func (d *Driver) finish(ctx context.Context, logger *slog.Logger, summary Summary) {
	if d.opts.History != nil {
		writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		if err := d.opts.History.RecordRun(writeCtx, summary.Record()); err != nil {
			logging.WarnEvent(logger, "failed to record run history", "history_write_failed", "", logging.Error(err))
		}
		if d.opts.HistoryRetention > 0 {
			cutoff := summary.FinishedAt.Add(-d.opts.HistoryRetention)
			if removed, err := d.opts.History.Prune(writeCtx, cutoff); err != nil {
				logging.WarnEvent(logger, "failed to prune run history", "history_prune_failed", "", logging.Error(err))
			} else if removed > 0 {
				logger.Debug("pruned run history", slog.Int64("removed", removed))
			}
		}
		cancel()
	}
	if d.opts.Metrics != nil {
		d.opts.Metrics.Observe(summary.Counts, summary.Outcome == OutcomeDone, summary.FinishedAt, summary.Duration())
		if path := strings.TrimSpace(d.opts.MetricsPath); path != "" {
			if err := d.opts.Metrics.WriteTextfile(path); err != nil {
				logging.WarnEvent(logger, "failed to write metrics textfile", "metrics_write_failed", "", logging.Error(err))
			}
		}
	}
}

func interrupted(err error) error {
	return services.Wrap(services.ErrTimeout, "pipeline", "run", "interrupted", err)
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func errorKind(err error) string {
	return services.Kind(err)
}

func abortHint(err error) string {
	switch {
	case errors.Is(err, services.ErrLocked):
		return "another run is active, or a stale marker needs 'cloudronwatch lock clear'"
	case errors.Is(err, services.ErrAuthentication):
		return "check cloudron.token / CLOUDRON_TOKEN"
	case errors.Is(err, services.ErrNetwork), errors.Is(err, services.ErrTimeout):
		return "check that the Cloudron domain is reachable"
	case errors.Is(err, services.ErrProtocol):
		return "the API answered with an unexpected payload"
	default:
		return "check logs for details"
	}
}
