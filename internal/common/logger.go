package common

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Attribute keys whose values may carry patient text and are never written to logs.
var redactedKeys = map[string]bool{
	"transcript": true,
	"note":       true,
	"summary":    true,
	"prompt":     true,
	"response":   true,
}

const redacted = "[redacted]"

// ParseLevel maps a config level name to a slog level.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("%w: unknown log level %q", ErrInvalidConfig, level)
	}
}

// SetupLogger configures the global logger with appropriate settings.
func SetupLogger(level slog.Level, format string) error {
	slog.SetDefault(NewLogger(os.Stderr, level, format))
	return nil
}

// NewLogger builds a text or json logger that redacts patient text attributes.
func NewLogger(w io.Writer, level slog.Level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if redactedKeys[a.Key] {
				return slog.String(a.Key, redacted)
			}
			return a
		},
	}

	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	default:
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler)
}
