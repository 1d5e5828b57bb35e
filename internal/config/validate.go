package config

import (
	"fmt"
	"strings"
	"time"

	"cloudronwatch/internal/services"
)

// Validate ensures the configuration is usable. Every returned error carries the
// services.ErrConfiguration marker.
func (c *Config) Validate() error {
	if err := c.validateCloudron(); err != nil {
		return err
	}
	if err := c.validateNotification(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateHistory(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateCloudron() error {
	if c.Cloudron.Domain == "" && c.Cloudron.BaseURL == "" {
		return invalid("cloudron.domain is required. Set CLOUDRON_DOMAIN or edit %s (create with 'cloudronwatch config init')", configHint())
	}
	if c.Cloudron.Token == "" {
		return invalid("cloudron.token is required. Set CLOUDRON_TOKEN or edit %s", configHint())
	}
	if c.Cloudron.RequestTimeout <= 0 {
		return invalid("cloudron.request_timeout must be positive (seconds)")
	}
	return nil
}

func (c *Config) validateNotification() error {
	n := c.Notification
	if strings.TrimSpace(n.Template) == "" {
		return invalid("notification.template is required (or set NOTIFICATION_TEMPLATE)")
	}
	if n.Command == "" && n.URL == "" {
		return invalid("notification.command or notification.url is required (or set NOTIFICATION_CMD / NOTIFICATION_URL)")
	}
	if n.Command != "" && n.URL == "" && !strings.Contains(n.Command, "{MESSAGE}") {
		return invalid("notification.command must contain the {MESSAGE} placeholder")
	}
	switch n.Escape {
	case EscapeAuto, EscapeURL, EscapeShell, EscapeBacktick, EscapeNone:
	default:
		return invalid("notification.escape must be one of auto, url, shell, backtick, none (got %q)", n.Escape)
	}
	switch n.ResponseCheck {
	case ResponseExitCode, ResponseJSONOK:
	default:
		return invalid("notification.response_check must be %q or %q (got %q)", ResponseExitCode, ResponseJSONOK, n.ResponseCheck)
	}
	if n.Timeout <= 0 {
		return invalid("notification.timeout must be positive (seconds)")
	}
	if n.RatePerMinute < 0 {
		return invalid("notification.rate_per_minute must be >= 0")
	}
	if n.MaxLength < 0 {
		return invalid("notification.max_length must be >= 0")
	}
	if n.Timezone != "" && !strings.EqualFold(n.Timezone, "local") {
		if _, err := time.LoadLocation(n.Timezone); err != nil {
			return invalid("notification.timezone %q is not a valid IANA zone", n.Timezone)
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	if c.Logging.Format != "console" && c.Logging.Format != "json" {
		return invalid("logging.format must be console or json (got %q)", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return invalid("logging.level must be one of debug, info, warn, error (got %q)", c.Logging.Level)
	}
}

func (c *Config) validateHistory() error {
	if c.History.Enabled && strings.TrimSpace(c.History.Path) == "" {
		return invalid("history.path must be set when history.enabled is true")
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", services.ErrConfiguration, fmt.Sprintf(format, args...))
}

func configHint() string {
	path, err := DefaultConfigPath()
	if err != nil {
		return defaultConfigPath
	}
	return path
}
