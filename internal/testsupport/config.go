package testsupport

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"cloudronwatch/internal/config"
)

// ConfigOption adjusts the config produced by NewConfig.
type ConfigOption func(*fixture)

type fixture struct {
	t    testing.TB
	root string
	cfg  config.Config
}

// NewConfig returns a valid configuration rooted in t.TempDir(). The state
// directory already exists; the lock and history files do not.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	f := &fixture{t: t, root: t.TempDir(), cfg: config.Default()}
	state := filepath.Join(f.root, "state")
	f.cfg.Cloudron.Domain = "box.example.com"
	f.cfg.Cloudron.Token = "test-token"
	f.cfg.Notification.Command = "true {MESSAGE}"
	f.cfg.Notification.Template = "{title}\n{body}"
	f.cfg.Paths.StateDir = state
	f.cfg.Paths.LockFile = filepath.Join(state, "cloudronwatch.lock")
	f.cfg.History.Path = filepath.Join(state, "history.db")
	if err := os.MkdirAll(state, 0o755); err != nil {
		t.Fatalf("create state dir: %v", err)
	}

	for _, opt := range opts {
		opt(f)
	}
	return &f.cfg
}

// WithServer sends API calls to baseURL instead of https://<domain>.
func WithServer(baseURL string) ConfigOption {
	return func(f *fixture) { f.cfg.Cloudron.BaseURL = baseURL }
}

func WithCommand(command string) ConfigOption {
	return func(f *fixture) { f.cfg.Notification.Command = command }
}

func WithHistory() ConfigOption {
	return func(f *fixture) { f.cfg.History.Enabled = true }
}

// WithStubbedBinaries puts fake executables first on PATH. Each one records
// its arguments as a line in bin/<name>.log and succeeds.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(f *fixture) {
		bin := filepath.Join(f.root, "bin")
		if err := os.MkdirAll(bin, 0o755); err != nil {
			f.t.Fatalf("create stub dir: %v", err)
		}
		for _, name := range names {
			exe := filepath.Join(bin, name)
			script := "#!/bin/sh\nprintf '%s\\n' \"$*\" >> '" + exe + ".log'\n"
			if err := os.WriteFile(exe, []byte(script), 0o755); err != nil {
				f.t.Fatalf("write stub %s: %v", name, err)
			}
		}
		f.t.Setenv("PATH", bin+string(os.PathListSeparator)+os.Getenv("PATH"))
	}
}

// BaseDir is the temp directory every generated path lives under.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}

// StubLog returns the invocations recorded by a stub, or "" if it never ran.
func StubLog(t testing.TB, cfg *config.Config, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(BaseDir(cfg), "bin", name+".log"))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("read %s stub log: %v", name, err)
	}
	return string(data)
}
