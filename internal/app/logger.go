package app

import (
	"io"
	"log/slog"
)

// newLogger creates a slog.Logger for the given level and format. It does not
// set the global logger, so every App gets an isolated logger.
func newLogger(levelStr, formatStr string, outW io.Writer) *slog.Logger {
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if formatStr == "json" {
		return slog.New(slog.NewJSONHandler(outW, opts))
	}
	return slog.New(slog.NewTextHandler(outW, opts))
}
