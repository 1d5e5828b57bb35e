package delivery

import (
	"net/url"
	"strings"

	"cloudronwatch/internal/config"
)

// ResolveEscape maps the auto mode to a concrete one for command.
func ResolveEscape(mode, command string) string {
	mode = strings.ToLower(strings.TrimSpace(mode))
	if mode == "" || mode == config.EscapeAuto {
		if strings.Contains(command, "curl") {
			return config.EscapeURL
		}
		return config.EscapeBacktick
	}
	return mode
}

// Escape prepares message for substitution into command using mode.
func Escape(mode, command, message string) string {
	switch ResolveEscape(mode, command) {
	case config.EscapeURL:
		return strings.ReplaceAll(url.QueryEscape(message), "+", "%20")
	case config.EscapeShell:
		return ShellQuote(message)
	case config.EscapeBacktick:
		return strings.ReplaceAll(message, "`", "\\`")
	default:
		return message
	}
}

// ShellQuote wraps s in POSIX single quotes.
func ShellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'"'"'`) + "'"
}

// BuildCommand substitutes the escaped message into every {MESSAGE}
// placeholder of command.
func BuildCommand(command, mode, message string) string {
	return strings.ReplaceAll(command, "{MESSAGE}", Escape(mode, command, message))
}
