// Package log builds the structured logger shared by the client, the
// retention sweeper and the CLI.
package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger wraps slog.Logger.
type Logger struct {
	*slog.Logger
}

// Config contains logging configuration.
type Config struct {
	// Level is one of debug, info, warn, error. Defaults to info.
	Level string `json:"level" mapstructure:"level"`

	// Format is json or text. Defaults to json.
	Format string `json:"format" mapstructure:"format"`

	// File appends logs to a file instead of stdout when set.
	File string `json:"file,omitempty" mapstructure:"file"`
}

// NewLogger creates a Logger from cfg. A nil cfg yields an info-level JSON
// logger on stdout.
func NewLogger(cfg *Config) (*Logger, error) {
	var out io.Writer = os.Stdout
	if cfg != nil && cfg.File != "" {
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		out = f
	}
	return New(out, cfg), nil
}

// New creates a Logger writing to w.
func New(w io.Writer, cfg *Config) *Logger {
	level := slog.LevelInfo
	if cfg != nil {
		level = ParseLevel(cfg.Level)
	}
	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler = slog.NewJSONHandler(w, opts)
	if cfg != nil && strings.EqualFold(cfg.Format, "text") {
		h = slog.NewTextHandler(w, opts)
	}
	return &Logger{Logger: slog.New(h)}
}

// ParseLevel maps a level name to slog.Level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
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

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}
