package app

import (
	"io"
	"log/slog"
)

// newLogger builds the run-scoped logger: level and format come from the
// CLI, and every record carries the run id so interleaved in-process runs
// stay attributable. The global logger is never touched.
func newLogger(levelStr, formatStr, runID string, outW io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(levelStr)}

	var handler slog.Handler
	switch formatStr {
	case "json":
		handler = slog.NewJSONHandler(outW, opts)
	default:
		handler = slog.NewTextHandler(outW, opts)
	}

	return slog.New(handler).With("run_id", runID)
}

// parseLevel maps the CLI level names onto slog levels, falling back to
// info for anything unrecognized.
func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}
