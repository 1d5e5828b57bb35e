package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"cloudronwatch/internal/config"
	"cloudronwatch/internal/testsupport"
)

// fakeCloudron serves the three API endpoints the CLI uses.
type fakeCloudron struct {
	mu            sync.Mutex
	notifications []map[string]any
	apps          []map[string]any
	status        int
	requests      int
	acked         []string
}

func (f *fakeCloudron) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests++

	if f.status != 0 {
		w.WriteHeader(f.status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/api/v1/notifications":
		_ = json.NewEncoder(w).Encode(map[string]any{"notifications": f.notifications})
	case r.Method == http.MethodGet && r.URL.Path == "/api/v1/apps":
		_ = json.NewEncoder(w).Encode(map[string]any{"apps": f.apps})
	case r.Method == http.MethodPost && strings.HasPrefix(r.URL.Path, "/api/v1/notifications/"):
		id := strings.TrimPrefix(r.URL.Path, "/api/v1/notifications/")
		f.acked = append(f.acked, id)
		for _, n := range f.notifications {
			if n["id"] == id {
				n["acknowledged"] = true
			}
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (f *fakeCloudron) setStatus(status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status = status
}

func (f *fakeCloudron) snapshot() (requests int, acked []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests, append([]string(nil), f.acked...)
}

type cliTestEnv struct {
	cfg        *config.Config
	server     *fakeCloudron
	configPath string
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	for _, key := range []string{"CLOUDRON_DOMAIN", "CLOUDRON_TOKEN", "NOTIFICATION_CMD", "NOTIFICATION_TEMPLATE", "NOTIFICATION_URL"} {
		t.Setenv(key, "")
	}
	t.Setenv("HOME", t.TempDir())

	fake := &fakeCloudron{
		notifications: []map[string]any{
			{"id": "2", "title": "Disk", "message": "almost full", "creationTime": "2024-03-02T10:00:00Z", "acknowledged": false},
			{"id": "1", "title": "Backup", "message": "finished", "creationTime": "2024-03-01T10:00:00Z", "acknowledged": false},
			{"id": "0", "title": "Old", "message": "seen", "creationTime": "2024-02-01T10:00:00Z", "acknowledged": true},
		},
		apps: []map[string]any{
			{"id": "a1", "manifest": map[string]any{"title": "Wiki"}, "fqdn": "wiki.example.com", "runState": "running", "health": "healthy"},
			{"id": "a2", "manifest": map[string]any{"title": "Mail"}, "fqdn": "mail.example.com", "runState": "stopped"},
		},
	}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	opts = append([]testsupport.ConfigOption{
		testsupport.WithServer(srv.URL),
		testsupport.WithStubbedBinaries("notify-stub"),
		testsupport.WithCommand("notify-stub {MESSAGE}"),
	}, opts...)
	cfg := testsupport.NewConfig(t, opts...)
	cfg.Notification.Escape = config.EscapeShell
	cfg.Notification.Template = "{title}: {body}"

	configPath := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{cfg: cfg, server: fake, configPath: configPath}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
