package metrics_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"cloudronwatch/internal/history"
	"cloudronwatch/internal/metrics"
)

func TestObserveSetsGauges(t *testing.T) {
	m := metrics.New()
	finished := time.Unix(1_700_000_000, 0)
	m.Observe(history.Counts{
		AppsChecked:               5,
		AppsErrored:               1,
		NotificationsUnread:       3,
		NotificationsAcknowledged: 2,
		DeliveryFailures:          1,
	}, true, finished, 1500*time.Millisecond)

	if got := testutil.ToFloat64(m.LastRunTimestamp); got != 1_700_000_000 {
		t.Fatalf("unexpected timestamp %v", got)
	}
	if got := testutil.ToFloat64(m.LastRunDuration); got != 1.5 {
		t.Fatalf("unexpected duration %v", got)
	}
	if got := testutil.ToFloat64(m.LastRunSuccess); got != 1 {
		t.Fatalf("unexpected success %v", got)
	}
	if got := testutil.ToFloat64(m.Apps.WithLabelValues("checked")); got != 5 {
		t.Fatalf("unexpected apps checked %v", got)
	}
	if got := testutil.ToFloat64(m.Notifications.WithLabelValues("acknowledged")); got != 2 {
		t.Fatalf("unexpected acknowledged %v", got)
	}
	if got := testutil.ToFloat64(m.Failures.WithLabelValues("delivery")); got != 1 {
		t.Fatalf("unexpected delivery failures %v", got)
	}

	m.Observe(history.Counts{}, false, finished, 0)
	if got := testutil.ToFloat64(m.LastRunSuccess); got != 0 {
		t.Fatalf("expected failure gauge, got %v", got)
	}
}

func TestWriteTextfile(t *testing.T) {
	m := metrics.New()
	m.Observe(history.Counts{NotificationsSent: 4}, true, time.Now(), time.Second)

	path := filepath.Join(t.TempDir(), "collector", "cloudronwatch.prom")
	if err := m.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read textfile: %v", err)
	}
	content := string(data)
	for _, want := range []string{
		"# TYPE cloudronwatch_last_run_success gauge",
		`cloudronwatch_notifications{state="sent"} 4`,
	} {
		if !strings.Contains(content, want) {
			t.Fatalf("expected %q in textfile:\n%s", want, content)
		}
	}
	// Gauges only.
	for _, line := range strings.Split(content, "\n") {
		if strings.HasPrefix(line, "# TYPE ") && !strings.HasSuffix(line, " gauge") {
			t.Fatalf("expected only gauge families, got %q", line)
		}
	}
}
