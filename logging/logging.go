package logging

import (
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"
)

// New creates a text slog.Logger writing to w with the provided level string.
// Unknown levels log at info.
func New(level string, w io.Writer) *slog.Logger {
	lvl, ok := ParseLevel(level)
	if !ok {
		lvl = slog.LevelInfo
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: lvl,
	})
	return slog.New(handler)
}

// WithRun tags every record of the logger with a fresh run id, so runs that
// append to the same files can be told apart in the logs.
func WithRun(logger *slog.Logger) *slog.Logger {
	return logger.With(slog.String("run", uuid.NewString()))
}

func ParseLevel(value string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "error":
		return slog.LevelError, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "info", "":
		return slog.LevelInfo, true
	case "debug":
		return slog.LevelDebug, true
	default:
		return slog.LevelInfo, false
	}
}
