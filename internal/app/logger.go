package app

import (
	"io"
	"log/slog"
)

// newLogger builds the run's logger from the validated config values. It is
// returned rather than installed globally so tests can run isolated app
// instances; Run threads it through context via ctxlog.
func newLogger(level, format string, outW io.Writer) *slog.Logger {
	lvl := slog.LevelInfo
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: lvl}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(outW, opts))
	}
	return slog.New(slog.NewTextHandler(outW, opts))
}
