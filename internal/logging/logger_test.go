package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cloudronwatch/internal/config"
	"cloudronwatch/internal/logging"
	"cloudronwatch/internal/services"
)

func TestNewRoutesLevelsAndFile(t *testing.T) {
	var stdout, stderr bytes.Buffer
	logPath := filepath.Join(t.TempDir(), "logs", "cloudronwatch.log")

	logger, err := logging.New(logging.Options{
		Level:    "info",
		Format:   "console",
		Stdout:   &stdout,
		Stderr:   &stderr,
		FilePath: logPath,
		Color:    logging.ColorNever,
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Debug("hidden")
	logger.Info("checked notifications")
	logger.Warn("acknowledge failed")

	if strings.Contains(stdout.String(), "hidden") {
		t.Fatalf("debug record should be filtered at info level: %q", stdout.String())
	}
	if !strings.Contains(stdout.String(), "checked notifications") || strings.Contains(stdout.String(), "acknowledge failed") {
		t.Fatalf("unexpected stdout: %q", stdout.String())
	}
	if !strings.Contains(stderr.String(), "acknowledge failed") || strings.Contains(stderr.String(), "checked notifications") {
		t.Fatalf("unexpected stderr: %q", stderr.String())
	}

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	for _, want := range []string{"checked notifications", "acknowledge failed"} {
		if !strings.Contains(string(content), want) {
			t.Fatalf("expected %q in log file, got %q", want, content)
		}
	}
	if strings.Contains(string(content), "\033[") {
		t.Fatalf("log file must not contain colour codes: %q", content)
	}
}

func TestConsoleLoggerCallerOnlyAtDebug(t *testing.T) {
	tests := []struct {
		level      string
		wantCaller bool
	}{
		{"info", false},
		{"debug", true},
	}
	for _, tc := range tests {
		t.Run(tc.level, func(t *testing.T) {
			var stdout bytes.Buffer
			logger, err := logging.New(logging.Options{Level: tc.level, Stdout: &stdout, Stderr: &bytes.Buffer{}})
			if err != nil {
				t.Fatalf("New returned error: %v", err)
			}
			logger.Info("message")
			if got := strings.Contains(stdout.String(), ".go:"); got != tc.wantCaller {
				t.Fatalf("caller present = %v, want %v (%q)", got, tc.wantCaller, stdout.String())
			}
		})
	}
}

func TestNewJSONLogger(t *testing.T) {
	var stdout bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", Stdout: &stdout, Stderr: &bytes.Buffer{}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("json message", "k", "v")

	var record map[string]any
	if err := json.Unmarshal(stdout.Bytes(), &record); err != nil {
		t.Fatalf("decode json record %q: %v", stdout.String(), err)
	}
	if record["msg"] != "json message" || record["level"] != "info" || record["k"] != "v" {
		t.Fatalf("unexpected record: %v", record)
	}
	if _, ok := record["ts"]; !ok {
		t.Fatalf("expected ts key: %v", record)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestNewFromConfigLevelOverride(t *testing.T) {
	cfg := config.Default()
	cfg.Logging.Level = "warn"
	logger, err := logging.NewFromConfig(&cfg, "debug", nil, nil)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	if !logger.Enabled(context.Background(), -4) {
		t.Fatal("expected debug enabled after override")
	}

	logger, err = logging.NewFromConfig(&cfg, "", nil, nil)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	if logger.Enabled(context.Background(), 0) {
		t.Fatal("expected info disabled at warn level")
	}
}

func TestWithContextAddsRunID(t *testing.T) {
	var stdout bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "json", Stdout: &stdout, Stderr: &bytes.Buffer{}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx := services.WithRunID(context.Background(), "run-xyz")
	ctx = services.WithNotificationID(ctx, "17")
	logging.WithContext(ctx, logger).Info("contextual log")

	var record map[string]any
	if err := json.Unmarshal(stdout.Bytes(), &record); err != nil {
		t.Fatalf("decode json record: %v", err)
	}
	if record[logging.FieldRunID] != "run-xyz" {
		t.Fatalf("expected run_id, got %v", record)
	}
	if record[logging.FieldNotificationID] != "17" {
		t.Fatalf("expected notification_id, got %v", record)
	}
}
