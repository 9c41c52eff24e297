// Package log configures slog for the kharcha binaries and carries request
// scoped loggers through contexts.
package log

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

const (
	FormatText  = "text"
	FormatJSON  = "json"
	FormatHuman = "human"
)

// Logger is a slog.Logger that remembers which component it belongs to.
type Logger struct {
	*slog.Logger
	// base has every attribute except the component.
	base      *slog.Logger
	component string
}

type Config struct {
	Level     slog.Level
	Format    string
	Component string
	// Output defaults to stdout for text and json, stderr for human.
	Output io.Writer
}

func DefaultConfig() Config {
	return Config{
		Level:     slog.LevelInfo,
		Format:    FormatText,
		Component: ComponentApp,
	}
}

// New builds a logger for cfg. Unknown formats fall back to text.
func New(cfg Config) *Logger {
	if cfg.Component == "" {
		cfg.Component = ComponentApp
	}
	base := slog.New(newHandler(cfg))
	return &Logger{
		Logger:    base.With(FieldComponent, cfg.Component),
		base:      base,
		component: cfg.Component,
	}
}

func newHandler(cfg Config) slog.Handler {
	out := cfg.Output
	switch strings.ToLower(cfg.Format) {
	case FormatHuman:
		if out == nil {
			out = os.Stderr
		}
		return tint.NewHandler(out, &tint.Options{
			Level:      cfg.Level,
			TimeFormat: time.Kitchen,
		})
	case FormatJSON:
		if out == nil {
			out = os.Stdout
		}
		return slog.NewJSONHandler(out, &slog.HandlerOptions{Level: cfg.Level})
	default:
		if out == nil {
			out = os.Stdout
		}
		return slog.NewTextHandler(out, &slog.HandlerOptions{Level: cfg.Level})
	}
}

// ParseLevel maps debug, info, warn and error (any case) to slog levels.
// Anything else is info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (l *Logger) With(args ...any) *Logger {
	return &Logger{
		Logger:    l.Logger.With(args...),
		base:      l.root().With(args...),
		component: l.component,
	}
}

// WithComponent keeps the attributes added so far and swaps the component.
func (l *Logger) WithComponent(component string) *Logger {
	base := l.root()
	return &Logger{
		Logger:    base.With(FieldComponent, component),
		base:      base,
		component: component,
	}
}

func (l *Logger) root() *slog.Logger {
	if l.base != nil {
		return l.base
	}
	return l.Logger
}

func (l *Logger) Component() string {
	return l.component
}

// SetDefault installs logger as the process-wide slog default.
func SetDefault(logger *Logger) {
	slog.SetDefault(logger.Logger)
}
