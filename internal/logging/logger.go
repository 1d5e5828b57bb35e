package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-isatty"

	"cloudronwatch/internal/config"
)

// Options describes logger construction parameters.
//
// Records below WARN go to Stdout and WARN or above go to Stderr. When FilePath
// is set, every enabled record is also appended to that file without colour.
type Options struct {
	Level       string
	Format      string
	Stdout      io.Writer
	Stderr      io.Writer
	FilePath    string
	Color       ColorMode
	Development bool
}

// ColorMode controls ANSI level colouring on the console handler.
type ColorMode int

const (
	// ColorAuto colours output only when the destination is a terminal.
	ColorAuto ColorMode = iota
	ColorAlways
	ColorNever
)

// New builds the process logger. Unknown formats are an error; unknown
// levels fall back to info.
func New(opts Options) (*slog.Logger, error) {
	level := new(slog.LevelVar)
	level.Set(parseLevel(opts.Level))
	// Caller locations only help when someone is already debugging.
	withSource := opts.Development || level.Level() <= slog.LevelDebug

	factory, err := handlerFactory(opts.Format, level, withSource)
	if err != nil {
		return nil, err
	}

	stdout, stderr := orDefault(opts.Stdout, os.Stdout), orDefault(opts.Stderr, os.Stderr)
	routes := []route{
		levelBand(factory(stdout, useColor(opts.Color, stdout)), minLevel, slog.LevelWarn),
		levelBand(factory(stderr, useColor(opts.Color, stderr)), slog.LevelWarn, maxLevel),
	}
	if path := strings.TrimSpace(opts.FilePath); path != "" {
		file, err := openLogFile(path)
		if err != nil {
			return nil, err
		}
		routes = append(routes, allLevels(factory(file, false)))
	}
	return slog.New(newRouter(routes...)), nil
}

type handlerFunc func(w io.Writer, color bool) slog.Handler

func handlerFactory(format string, level *slog.LevelVar, withSource bool) (handlerFunc, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "console", "text":
		return func(w io.Writer, color bool) slog.Handler {
			return newConsoleHandler(w, level, withSource, color)
		}, nil
	case "json":
		return func(w io.Writer, _ bool) slog.Handler {
			return newJSONHandler(w, level, withSource)
		}, nil
	default:
		return nil, fmt.Errorf("log format: unsupported value %q", format)
	}
}

func orDefault(w io.Writer, fallback *os.File) io.Writer {
	if w == nil {
		return fallback
	}
	return w
}

// NewFromConfig applies [logging] from cfg. levelOverride comes from
// --log-level or --debug and wins over logging.level. Nil writers mean the
// process stdout and stderr.
func NewFromConfig(cfg *config.Config, levelOverride string, stdout, stderr io.Writer) (*slog.Logger, error) {
	opts := Options{Level: "info", Stdout: stdout, Stderr: stderr}
	if cfg != nil {
		opts.Level = cfg.Logging.Level
		opts.Format = cfg.Logging.Format
		opts.FilePath = cfg.Logging.File
	}
	if override := strings.TrimSpace(levelOverride); override != "" {
		opts.Level = override
	}
	return New(opts)
}

func parseLevel(name string) slog.Level {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "warning" {
		name = "warn"
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func useColor(mode ColorMode, w io.Writer) bool {
	switch mode {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	}
	if _, set := os.LookupEnv("NO_COLOR"); set {
		return false
	}
	f, ok := w.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}

// openLogFile appends to path, creating it and its directory as needed.
func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", path, err)
	}
	return f, nil
}

// newJSONHandler emits {"ts": RFC3339 UTC, "level": "info", ...}.
func newJSONHandler(w io.Writer, level slog.Leveler, withSource bool) slog.Handler {
	return slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       level,
		AddSource:   withSource,
		ReplaceAttr: jsonAttr,
	})
}

func jsonAttr(_ []string, a slog.Attr) slog.Attr {
	switch a.Key {
	case slog.TimeKey:
		a.Key = "ts"
		if a.Value.Kind() == slog.KindTime {
			a.Value = slog.StringValue(a.Value.Time().UTC().Format(time.RFC3339))
		}
	case slog.LevelKey:
		a.Value = slog.StringValue(strings.ToLower(a.Value.String()))
	case slog.SourceKey:
		if src, ok := a.Value.Any().(*slog.Source); ok && src != nil {
			a.Value = slog.StringValue(filepath.Base(src.File) + ":" + strconv.Itoa(src.Line))
		}
	}
	return a
}
