package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"cloudronwatch/internal/services"
)

//go:embed sample_config.toml
var sampleConfig string

// Cloudron contains connection settings for the Cloudron management API.
type Cloudron struct {
	Domain             string `toml:"domain"`
	Token              string `toml:"token"`
	BaseURL            string `toml:"base_url"`
	RequestTimeout     int    `toml:"request_timeout"`
	InsecureSkipVerify bool   `toml:"insecure_skip_verify"`
	InstanceName       string `toml:"instance_name"`
}

// Notification contains message rendering and delivery settings.
type Notification struct {
	// Command is a shell command containing a {MESSAGE} placeholder.
	Command string `toml:"command"`
	// Template is the message template applied to each notification.
	Template string `toml:"template"`
	// URL is a shoutrrr service URL; when set it replaces Command.
	URL           string `toml:"url"`
	Shell         string `toml:"shell"`
	Escape        string `toml:"escape"`
	ResponseCheck string `toml:"response_check"`
	Timeout       int    `toml:"timeout"`
	RatePerMinute int    `toml:"rate_per_minute"`
	MaxLength     int    `toml:"max_length"`
	Timezone      string `toml:"timezone"`
}

// Apps contains configuration for application status checks.
type Apps struct {
	Enabled bool     `toml:"enabled"`
	Ignore  []string `toml:"ignore"`
}

// Paths contains file locations used across runs.
type Paths struct {
	StateDir string `toml:"state_dir"`
	LockFile string `toml:"lock_file"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
	File   string `toml:"file"`
}

// History contains configuration for the optional run history database.
type History struct {
	Enabled       bool   `toml:"enabled"`
	Path          string `toml:"path"`
	RetentionDays int    `toml:"retention_days"`
}

// Metrics contains configuration for the Prometheus textfile export.
type Metrics struct {
	TextfilePath string `toml:"textfile_path"`
}

// Config encapsulates all configuration values for cloudronwatch.
//
// Configuration sections by subsystem:
//   - Cloudron: API endpoint and credentials
//   - Notification: message template and delivery mechanism
//   - Apps: application status checks
//   - Paths: state directory and run lock marker
//   - Logging: log format, level, and optional file
//   - History: optional SQLite run history
//   - Metrics: optional node_exporter textfile output
type Config struct {
	Cloudron     Cloudron     `toml:"cloudron"`
	Notification Notification `toml:"notification"`
	Apps         Apps         `toml:"apps"`
	Paths        Paths        `toml:"paths"`
	Logging      Logging      `toml:"logging"`
	History      History      `toml:"history"`
	Metrics      Metrics      `toml:"metrics"`
}

// DefaultConfigPath is where config init writes and Load looks first.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load reads the configuration at path, or searches the default locations
// when path is empty, then applies environment fallbacks and validates the
// result. It also reports the file it settled on and whether that file
// existed; a missing file is not an error because the environment alone can
// configure a run.
func Load(path string) (*Config, string, bool, error) {
	resolved, exists, err := locate(path)
	if err != nil {
		return nil, "", false, err
	}

	cfg := Default()
	if exists {
		if err := decodeFile(resolved, &cfg); err != nil {
			return nil, "", false, err
		}
	}
	if err := cfg.normalize(); err != nil {
		return nil, "", false, fmt.Errorf("%w: %w", services.ErrConfiguration, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolved, exists, nil
}

// decodeFile rejects keys the Config does not know so a typo such as
// "notificaton" fails loudly instead of being ignored.
func decodeFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return fmt.Errorf("%w: %s: unknown keys:\n%s", services.ErrConfiguration, path, strict.String())
		}
		return fmt.Errorf("%w: parse %s: %w", services.ErrConfiguration, path, err)
	}
	return nil
}

// locate picks the config file. An explicit path is used as given. Otherwise
// the per-user file wins over ./cloudronwatch.toml, and the per-user path is
// reported when neither exists.
func locate(path string) (string, bool, error) {
	var candidates []string
	if path != "" {
		candidates = []string{path}
	} else {
		candidates = []string{defaultConfigPath, projectConfigName}
	}

	var first string
	for _, candidate := range candidates {
		abs, err := expandPath(candidate)
		if err != nil {
			return "", false, err
		}
		if first == "" {
			first = abs
		}
		info, err := os.Stat(abs)
		switch {
		case err == nil && !info.IsDir():
			return abs, true, nil
		case err != nil && !errors.Is(err, fs.ErrNotExist):
			return "", false, fmt.Errorf("stat config %s: %w", abs, err)
		}
	}
	return first, false, nil
}

// EnsureDirectories creates the parent directories of every file a run may
// write.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.StateDir, filepath.Dir(c.Paths.LockFile)}
	if c.History.Enabled {
		dirs = append(dirs, filepath.Dir(c.History.Path))
	}
	if c.Logging.File != "" {
		dirs = append(dirs, filepath.Dir(c.Logging.File))
	}
	if c.Metrics.TextfilePath != "" {
		dirs = append(dirs, filepath.Dir(c.Metrics.TextfilePath))
	}
	for _, dir := range dirs {
		if dir == "" || dir == "." {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}

// APIBaseURL is cloudron.base_url when set, otherwise https://<domain>.
func (c *Config) APIBaseURL() string {
	if c.Cloudron.BaseURL != "" {
		return strings.TrimRight(c.Cloudron.BaseURL, "/")
	}
	return "https://" + c.Cloudron.Domain
}

func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Cloudron.RequestTimeout) * time.Second
}

func (c *Config) DeliveryTimeout() time.Duration {
	return time.Duration(c.Notification.Timeout) * time.Second
}

// Location is the zone used for {creationTime}. Unknown names fall back to
// the local zone; Validate rejects them earlier.
func (c *Config) Location() *time.Location {
	name := c.Notification.Timezone
	if name == "" || strings.EqualFold(name, "local") {
		return time.Local
	}
	if loc, err := time.LoadLocation(name); err == nil {
		return loc
	}
	return time.Local
}

// UsesURLDelivery reports whether notification.url replaces the command.
func (c *Config) UsesURLDelivery() bool {
	return c.Notification.URL != ""
}

// ExpandPath resolves "~/" against the home directory and makes the result
// absolute.
func ExpandPath(path string) (string, error) {
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve %q: %w", path, err)
	}
	return abs, nil
}

// CreateSample writes the commented sample configuration to path. The file
// is private to the owner because it will hold the API token.
func CreateSample(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o600); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
