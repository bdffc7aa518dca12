package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/example/ride-sim/internal/sim"
)

// NewLogger builds a JSON logger on stdout for the long-running services.
func NewLogger(level string) *slog.Logger {
	return NewLoggerTo(os.Stdout, level, "json")
}

// NewLoggerTo builds a logger writing to w. format is "json" or "text".
func NewLoggerTo(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:     levelFromString(level),
		AddSource: format != "text",
	}
	var handler slog.Handler
	if strings.EqualFold(format, "text") {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}
	return slog.New(handler)
}

// EventTracer logs every processed event at debug level.
func EventTracer(logger *slog.Logger) sim.Tracer {
	return sim.TracerFunc(func(e sim.Event) {
		logger.Debug("event", "timestamp", e.Timestamp(), "kind", e.Kind(), "event", e.String())
	})
}

func levelFromString(level string) slog.Leveler {
	switch strings.ToLower(strings.TrimSpace(level)) {
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
