package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	c.normalizeCloudron()
	c.normalizeNotification()
	c.normalizeApps()
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeLogging(); err != nil {
		return err
	}
	if err := c.normalizeHistory(); err != nil {
		return err
	}
	return c.normalizeMetrics()
}

func (c *Config) normalizeCloudron() {
	c.Cloudron.Domain = strings.TrimSpace(c.Cloudron.Domain)
	if c.Cloudron.Domain == "" {
		if value, ok := os.LookupEnv("CLOUDRON_DOMAIN"); ok {
			c.Cloudron.Domain = strings.TrimSpace(value)
		}
	}
	// Operators often paste the dashboard URL instead of the bare domain.
	c.Cloudron.Domain = strings.TrimPrefix(c.Cloudron.Domain, "https://")
	c.Cloudron.Domain = strings.TrimPrefix(c.Cloudron.Domain, "http://")
	c.Cloudron.Domain = strings.TrimRight(c.Cloudron.Domain, "/")

	c.Cloudron.Token = strings.TrimSpace(c.Cloudron.Token)
	if c.Cloudron.Token == "" {
		if value, ok := os.LookupEnv("CLOUDRON_TOKEN"); ok {
			c.Cloudron.Token = strings.TrimSpace(value)
		}
	}
	c.Cloudron.BaseURL = strings.TrimRight(strings.TrimSpace(c.Cloudron.BaseURL), "/")
	c.Cloudron.InstanceName = strings.TrimSpace(c.Cloudron.InstanceName)
	if c.Cloudron.RequestTimeout == 0 {
		c.Cloudron.RequestTimeout = defaultRequestTimeout
	}
}

func (c *Config) normalizeNotification() {
	n := &c.Notification
	if strings.TrimSpace(n.Command) == "" {
		if value, ok := os.LookupEnv("NOTIFICATION_CMD"); ok {
			n.Command = value
		}
	}
	n.Command = strings.TrimSpace(n.Command)
	if n.Template == "" {
		// TOML strings already decode \n; env values carry it literally.
		if value, ok := os.LookupEnv("NOTIFICATION_TEMPLATE"); ok {
			n.Template = strings.ReplaceAll(value, `\n`, "\n")
		}
	}
	n.URL = strings.TrimSpace(n.URL)
	if n.URL == "" {
		if value, ok := os.LookupEnv("NOTIFICATION_URL"); ok {
			n.URL = strings.TrimSpace(value)
		}
	}
	n.Shell = strings.TrimSpace(n.Shell)
	if n.Shell == "" {
		n.Shell = defaultShell
	}
	n.Escape = strings.ToLower(strings.TrimSpace(n.Escape))
	if n.Escape == "" {
		n.Escape = defaultEscape
	}
	n.ResponseCheck = strings.ToLower(strings.TrimSpace(n.ResponseCheck))
	if n.ResponseCheck == "" {
		n.ResponseCheck = defaultResponseCheck
	}
	if n.Timeout == 0 {
		n.Timeout = defaultDeliveryTimeout
	}
	n.Timezone = strings.TrimSpace(n.Timezone)
}

func (c *Config) normalizeApps() {
	if len(c.Apps.Ignore) == 0 {
		return
	}
	ignore := make([]string, 0, len(c.Apps.Ignore))
	seen := make(map[string]struct{}, len(c.Apps.Ignore))
	for _, entry := range c.Apps.Ignore {
		normalized := strings.ToLower(strings.TrimSpace(entry))
		if normalized == "" {
			continue
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		ignore = append(ignore, normalized)
	}
	c.Apps.Ignore = ignore
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LockFile) == "" {
		c.Paths.LockFile = filepath.Join(c.Paths.StateDir, defaultLockFileName)
	}
	if c.Paths.LockFile, err = expandPath(c.Paths.LockFile); err != nil {
		return fmt.Errorf("paths.lock_file: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() error {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" || c.Logging.Format == "text" {
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	var err error
	if c.Logging.File, err = expandPath(strings.TrimSpace(c.Logging.File)); err != nil {
		return fmt.Errorf("logging.file: %w", err)
	}
	return nil
}

func (c *Config) normalizeHistory() error {
	if strings.TrimSpace(c.History.Path) == "" {
		c.History.Path = filepath.Join(c.Paths.StateDir, defaultHistoryFileName)
	}
	var err error
	if c.History.Path, err = expandPath(c.History.Path); err != nil {
		return fmt.Errorf("history.path: %w", err)
	}
	if c.History.RetentionDays < 0 {
		c.History.RetentionDays = 0
	}
	return nil
}

func (c *Config) normalizeMetrics() error {
	var err error
	if c.Metrics.TextfilePath, err = expandPath(strings.TrimSpace(c.Metrics.TextfilePath)); err != nil {
		return fmt.Errorf("metrics.textfile_path: %w", err)
	}
	return nil
}
