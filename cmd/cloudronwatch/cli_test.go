package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cloudronwatch/internal/services"
	"cloudronwatch/internal/testsupport"
)

func TestRunDeliversAndAcknowledges(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, nil, env.configPath)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	requireContains(t, out, "Notifications: checked 3 notifications, 2 unread, 2 sent, 2 acknowledged")
	requireContains(t, out, "Applications: checked 2 apps, 0 with errors, 1 not running, 1 message sent")

	_, acked := env.server.snapshot()
	if strings.Join(acked, ",") != "1,2" {
		t.Fatalf("expected oldest-first acknowledgements, got %v", acked)
	}

	log := testsupport.StubLog(t, env.cfg, "notify-stub")
	lines := strings.Split(strings.TrimSpace(log), "\n")
	want := []string{
		"Application Mail is not running (state: Stopped)",
		"Backup: finished",
		"Disk: almost full",
	}
	if len(lines) != len(want) {
		t.Fatalf("expected %d deliveries, got %q", len(want), log)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Fatalf("delivery %d: got %q want %q", i, lines[i], want[i])
		}
	}
	if _, err := os.Stat(env.cfg.Paths.LockFile); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected lock released, stat err=%v", err)
	}

	// Second run finds nothing new to acknowledge.
	out, _, err = runCLI(t, nil, env.configPath)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	requireContains(t, out, "0 unread")
}

func TestRunRefusesWhenLocked(t *testing.T) {
	env := setupCLITestEnv(t)
	if err := os.WriteFile(env.cfg.Paths.LockFile, []byte("pid=1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, stderr, err := runCLI(t, nil, env.configPath)
	if err == nil {
		t.Fatal("expected run to fail while locked")
	}
	if !errors.Is(err, errRunReported) || !errors.Is(err, services.ErrLocked) {
		t.Fatalf("expected reported lock error, got %v", err)
	}
	requireContains(t, stderr, "run aborted")
	if requests, _ := env.server.snapshot(); requests != 0 {
		t.Fatalf("expected zero API calls while locked, got %d", requests)
	}
}

func TestRunDryRunDoesNotDeliverOrAcknowledge(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"--dry-run"}, env.configPath)
	if err != nil {
		t.Fatalf("dry run: %v", err)
	}
	requireContains(t, out, "Dry run: 3 messages rendered")
	if _, acked := env.server.snapshot(); len(acked) != 0 {
		t.Fatalf("dry run acknowledged %v", acked)
	}
	if log := testsupport.StubLog(t, env.cfg, "notify-stub"); log != "" {
		t.Fatalf("dry run invoked delivery command: %q", log)
	}
}

func TestRunAuthenticationFailureAborts(t *testing.T) {
	env := setupCLITestEnv(t)
	env.server.setStatus(http.StatusUnauthorized)

	_, _, err := runCLI(t, nil, env.configPath)
	if !errors.Is(err, services.ErrAuthentication) {
		t.Fatalf("expected authentication error, got %v", err)
	}
	if log := testsupport.StubLog(t, env.cfg, "notify-stub"); log != "" {
		t.Fatalf("expected no deliveries, got %q", log)
	}
}

func TestRunFailedDeliveryLeavesNotificationUnacknowledged(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithCommand("false {MESSAGE}"))

	out, _, err := runCLI(t, nil, env.configPath)
	if err != nil {
		t.Fatalf("per-item failures must not fail the run: %v", err)
	}
	requireContains(t, out, "Failures: 3 deliveries")
	if _, acked := env.server.snapshot(); len(acked) != 0 {
		t.Fatalf("expected nothing acknowledged, got %v", acked)
	}
}

func TestRunRecordsHistory(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithHistory())

	if _, _, err := runCLI(t, nil, env.configPath); err != nil {
		t.Fatalf("run: %v", err)
	}
	out, _, err := runCLI(t, []string{"history", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	var runs []runView
	if err := json.Unmarshal([]byte(out), &runs); err != nil {
		t.Fatalf("decode history: %v\n%s", err, out)
	}
	if len(runs) != 1 || runs[0].Outcome != "done" || runs[0].Counts.NotificationsAcknowledged != 2 {
		t.Fatalf("unexpected history: %+v", runs)
	}

	out, _, err = runCLI(t, []string{"history", runs[0].RunID}, env.configPath)
	if err != nil {
		t.Fatalf("history run: %v", err)
	}
	requireContains(t, out, "Backup")
}

func TestHistoryDisabled(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := runCLI(t, []string{"history"}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "history is disabled") {
		t.Fatalf("expected disabled history error, got %v", err)
	}
}

func TestAppsCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"apps"}, env.configPath)
	if err != nil {
		t.Fatalf("apps: %v", err)
	}
	requireContains(t, out, "wiki.example.com")
	requireContains(t, out, "not running")

	out, _, err = runCLI(t, []string{"apps", "--problems", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("apps --json: %v", err)
	}
	var apps []appView
	if err := json.Unmarshal([]byte(out), &apps); err != nil {
		t.Fatalf("decode apps: %v", err)
	}
	if len(apps) != 1 || apps[0].Title != "Mail" {
		t.Fatalf("expected only the stopped app, got %+v", apps)
	}
}

func TestNotificationsCommandIsReadOnly(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"notifications"}, env.configPath)
	if err != nil {
		t.Fatalf("notifications: %v", err)
	}
	requireContains(t, out, "Backup")
	requireContains(t, out, "2 of 3 notifications shown")
	if strings.Contains(out, "Old") {
		t.Fatalf("acknowledged notification listed without --all:\n%s", out)
	}

	out, _, err = runCLI(t, []string{"notifications", "--all", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("notifications --all: %v", err)
	}
	var views []notificationView
	if err := json.Unmarshal([]byte(out), &views); err != nil {
		t.Fatalf("decode notifications: %v", err)
	}
	if len(views) != 3 || views[0].ID != "0" {
		t.Fatalf("expected all notifications oldest first, got %+v", views)
	}
	if _, acked := env.server.snapshot(); len(acked) != 0 {
		t.Fatalf("listing must not acknowledge, got %v", acked)
	}
}

func TestTestNotifyCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"test-notify", "--message", "hello there"}, env.configPath)
	if err != nil {
		t.Fatalf("test-notify: %v", err)
	}
	requireContains(t, out, "Test notification sent")
	requireContains(t, testsupport.StubLog(t, env.cfg, "notify-stub"), "cloudronwatch test: hello there")
	if requests, _ := env.server.snapshot(); requests != 0 {
		t.Fatalf("test-notify must not call the API, got %d requests", requests)
	}
}

func TestLockCommands(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"lock", "status"}, env.configPath)
	if err != nil {
		t.Fatalf("lock status: %v", err)
	}
	requireContains(t, out, "[OK] free")

	if err := os.WriteFile(env.cfg.Paths.LockFile, []byte("pid=4242\nrun=abc\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	out, _, err = runCLI(t, []string{"lock", "status"}, env.configPath)
	if err != nil {
		t.Fatalf("lock status: %v", err)
	}
	requireContains(t, out, "stale")
	requireContains(t, out, "4242")

	out, _, err = runCLI(t, []string{"lock", "clear"}, env.configPath)
	if err != nil {
		t.Fatalf("lock clear: %v", err)
	}
	requireContains(t, out, "Removed lock marker")
	if _, err := os.Stat(env.cfg.Paths.LockFile); !errors.Is(err, os.ErrNotExist) {
		t.Fatal("expected marker removed")
	}
}

func TestCheckCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"check"}, env.configPath)
	if err != nil {
		t.Fatalf("check: %v\n%s", err, out)
	}
	requireContains(t, out, "Cloudron API")
	requireContains(t, out, "Reachable (2 unread notifications)")

	env.server.setStatus(http.StatusForbidden)
	out, _, err = runCLI(t, []string{"check"}, env.configPath)
	if err == nil {
		t.Fatalf("expected check to fail with a rejected token:\n%s", out)
	}
	requireContains(t, out, "token rejected")
}

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected refusal to overwrite without --overwrite")
	}
}

func TestMissingConfigurationFails(t *testing.T) {
	setupCLITestEnv(t)
	missing := filepath.Join(t.TempDir(), "absent.toml")

	_, _, err := runCLI(t, nil, missing)
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestVersionSkipsConfig(t *testing.T) {
	out, _, err := runCLI(t, []string{"version"}, filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	requireContains(t, out, "cloudronwatch dev")
}
