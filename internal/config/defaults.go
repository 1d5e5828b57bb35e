package config

const (
	defaultConfigPath          = "~/.config/cloudronwatch/config.toml"
	projectConfigName          = "cloudronwatch.toml"
	defaultStateDir            = "~/.local/state/cloudronwatch"
	defaultLockFileName        = "cloudronwatch.lock"
	defaultHistoryFileName     = "history.db"
	defaultRequestTimeout      = 30
	defaultDeliveryTimeout     = 60
	defaultShell               = "/bin/sh"
	defaultEscape              = EscapeAuto
	defaultResponseCheck       = ResponseExitCode
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
	defaultHistoryRetentionDay = 90
)

// Escape modes applied to the message before it is substituted into the
// delivery command.
const (
	EscapeAuto     = "auto"
	EscapeURL      = "url"
	EscapeShell    = "shell"
	EscapeBacktick = "backtick"
	EscapeNone     = "none"
)

// Response checks applied to a finished delivery command.
const (
	ResponseExitCode = "exit_code"
	ResponseJSONOK   = "json_ok"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Cloudron: Cloudron{
			RequestTimeout: defaultRequestTimeout,
		},
		Notification: Notification{
			Shell:         defaultShell,
			Escape:        defaultEscape,
			ResponseCheck: defaultResponseCheck,
			Timeout:       defaultDeliveryTimeout,
		},
		Apps: Apps{
			Enabled: true,
		},
		Paths: Paths{
			StateDir: defaultStateDir,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		History: History{
			RetentionDays: defaultHistoryRetentionDay,
		},
	}
}
