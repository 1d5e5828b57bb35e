package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"cloudronwatch/internal/history"
)

// Metrics holds the gauges describing the most recent run. Each invocation is a
// separate process, so values are exported through the node_exporter textfile
// collector rather than an HTTP endpoint.
type Metrics struct {
	registry *prometheus.Registry

	LastRunTimestamp prometheus.Gauge
	LastRunDuration  prometheus.Gauge
	LastRunSuccess   prometheus.Gauge
	Apps             *prometheus.GaugeVec // labels: state
	Notifications    *prometheus.GaugeVec // labels: state
	Failures         *prometheus.GaugeVec // labels: kind
}

// New registers and returns all run metrics on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		LastRunTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cloudronwatch_last_run_timestamp_seconds",
			Help: "Unix time the last run finished",
		}),
		LastRunDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cloudronwatch_last_run_duration_seconds",
			Help: "Wall-clock duration of the last run",
		}),
		LastRunSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cloudronwatch_last_run_success",
			Help: "1 if the last run completed, 0 if it aborted",
		}),
		Apps: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "cloudronwatch_apps",
			Help: "Applications seen in the last run, by state",
		}, []string{"state"}),
		Notifications: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "cloudronwatch_notifications",
			Help: "Notifications seen in the last run, by state",
		}, []string{"state"}),
		Failures: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "cloudronwatch_failures",
			Help: "Per-item failures in the last run, by kind",
		}, []string{"kind"}),
	}

	m.registry.MustRegister(
		m.LastRunTimestamp,
		m.LastRunDuration,
		m.LastRunSuccess,
		m.Apps,
		m.Notifications,
		m.Failures,
	)
	return m
}

// Registry exposes the underlying registry for tests and callers that gather
// directly.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Observe records the outcome of a run.
func (m *Metrics) Observe(counts history.Counts, success bool, finished time.Time, duration time.Duration) {
	m.LastRunTimestamp.Set(float64(finished.Unix()))
	m.LastRunDuration.Set(duration.Seconds())
	if success {
		m.LastRunSuccess.Set(1)
	} else {
		m.LastRunSuccess.Set(0)
	}

	m.Apps.WithLabelValues("checked").Set(float64(counts.AppsChecked))
	m.Apps.WithLabelValues("errored").Set(float64(counts.AppsErrored))
	m.Apps.WithLabelValues("not_running").Set(float64(counts.AppsNotRunning))
	m.Apps.WithLabelValues("sent").Set(float64(counts.AppsSent))

	m.Notifications.WithLabelValues("checked").Set(float64(counts.NotificationsChecked))
	m.Notifications.WithLabelValues("unread").Set(float64(counts.NotificationsUnread))
	m.Notifications.WithLabelValues("sent").Set(float64(counts.NotificationsSent))
	m.Notifications.WithLabelValues("acknowledged").Set(float64(counts.NotificationsAcknowledged))

	m.Failures.WithLabelValues("delivery").Set(float64(counts.DeliveryFailures))
	m.Failures.WithLabelValues("acknowledge").Set(float64(counts.AcknowledgeFailures))
}

// WriteTextfile writes the registry in the Prometheus text format. The write is
// atomic so the collector never reads a partial file.
func (m *Metrics) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
