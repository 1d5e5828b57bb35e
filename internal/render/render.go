package render

import (
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"cloudronwatch/internal/cloudron"
)

// CreationTimeLayout formats {creationTime}, e.g. "05 March 2024, 14:02:11".
const CreationTimeLayout = "02 January 2006, 15:04:05"

// Options controls notification and app message rendering.
type Options struct {
	// Location is used to format creation times; nil means time.Local.
	Location *time.Location
	// Instance, when set, becomes the first line of every message.
	Instance string
	// MaxLength truncates the final message to this many runes; 0 disables.
	MaxLength int
}

// Render substitutes {name} placeholders from fields in a single left-to-right
// pass. Placeholders whose name is not a key of fields, and unmatched braces,
// are copied verbatim. Substituted values are never rescanned.
func Render(template string, fields map[string]string) string {
	if template == "" || len(fields) == 0 || !strings.Contains(template, "{") {
		return template
	}
	var b strings.Builder
	b.Grow(len(template))
	rest := template
	for {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			b.WriteString(rest)
			break
		}
		b.WriteString(rest[:open])
		rest = rest[open:]
		end := strings.IndexByte(rest[1:], '}')
		if end < 0 {
			b.WriteString(rest)
			break
		}
		name := rest[1 : end+1]
		if value, ok := fields[name]; ok && !strings.ContainsRune(name, '{') {
			b.WriteString(value)
			rest = rest[end+2:]
			continue
		}
		b.WriteByte('{')
		rest = rest[1:]
	}
	return b.String()
}

// NotificationFields returns the placeholder values available to notification
// templates.
func NotificationFields(n cloudron.Notification, opts Options) map[string]string {
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	created := n.RawCreationTime
	createdISO := n.RawCreationTime
	if !n.CreationTime.IsZero() {
		created = n.CreationTime.In(loc).Format(CreationTimeLayout)
		createdISO = n.CreationTime.In(loc).Format(time.RFC3339)
	}
	return map[string]string{
		"id":              n.ID,
		"title":           n.Title,
		"body":            n.Message,
		"message":         n.Message,
		"MESSAGE":         n.Message,
		"creationTime":    created,
		"creationTimeISO": createdISO,
		"instance":        opts.Instance,
	}
}

// NotificationMessage renders the template for n and applies the instance
// prefix and length limit.
func NotificationMessage(template string, n cloudron.Notification, opts Options) string {
	return finish(Render(template, NotificationFields(n, opts)), opts)
}

// AppMessage describes an application that needs attention. The boolean is
// false for healthy apps. An error takes precedence over a stopped state so
// each app yields at most one message.
func AppMessage(app cloudron.App, opts Options) (string, bool) {
	label := app.Label()
	switch {
	case app.Error != nil:
		var b strings.Builder
		b.WriteString("Application ")
		b.WriteString(label)
		b.WriteString(" has an error:")
		if msg := strings.TrimSpace(app.Error.Message); msg != "" {
			b.WriteString("\nError: ")
			b.WriteString(msg)
		}
		if reason := strings.TrimSpace(app.Error.Reason); reason != "" {
			b.WriteString("\nReason: ")
			b.WriteString(reason)
		}
		return finish(b.String(), opts), true
	case !app.Running():
		message := "Application " + label + " is not running"
		if state := strings.TrimSpace(app.RunState); state != "" {
			message += " (state: " + titleCase(state) + ")"
		}
		return finish(message, opts), true
	default:
		return "", false
	}
}

// Subject returns a one-line summary suitable as a message title.
func Subject(n cloudron.Notification) string {
	if title := strings.TrimSpace(n.Title); title != "" {
		return title
	}
	return "Cloudron notification " + n.ID
}

// TruncateRunes shortens s to at most limit runes, ending with an ellipsis when
// anything was removed. limit <= 0 returns s unchanged.
func TruncateRunes(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	if limit == 1 {
		return "…"
	}
	runes := []rune(s)
	return string(runes[:limit-1]) + "…"
}

func finish(message string, opts Options) string {
	if instance := strings.TrimSpace(opts.Instance); instance != "" {
		message = instance + "\n" + message
	}
	return TruncateRunes(message, opts.MaxLength)
}

var titleCaser = cases.Title(language.English)

func titleCase(s string) string {
	return titleCaser.String(strings.ReplaceAll(s, "_", " "))
}
