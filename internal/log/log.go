// Package log provides the logging infrastructure for the handbook agent.
//
// Loggers are plain *slog.Logger values injected through constructors; there
// are no package globals beyond slog's own default. Components add context
// with logger.With("component", ...).
package log

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Options configures logger construction.
type Options struct {
	// Level is the minimum level as a string: "debug", "info", "warn", "error".
	// Unknown or empty values fall back to "info".
	Level string

	// JSON switches output to JSON format. Text format is the default.
	JSON bool

	// AddSource includes source file and line in every record.
	AddSource bool
}

// New creates a logger writing to os.Stderr.
func New(opts Options) *slog.Logger {
	return NewWithWriter(os.Stderr, opts)
}

// NewWithWriter creates a logger writing to w. Tests pass a bytes.Buffer here
// to inspect output.
func NewWithWriter(w io.Writer, opts Options) *slog.Logger {
	ho := &slog.HandlerOptions{
		Level:     ParseLevel(opts.Level),
		AddSource: opts.AddSource,
	}

	var handler slog.Handler
	if opts.JSON {
		handler = slog.NewJSONHandler(w, ho)
	} else {
		handler = slog.NewTextHandler(w, ho)
	}
	return slog.New(handler)
}

// NewNop returns a logger that discards everything. Test-only; production
// code always constructs a real logger via New or NewWithWriter.
func NewNop() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ParseLevel maps a level name to a slog.Level. Case-insensitive; anything
// unrecognized becomes Info so a typo in config never silences errors.
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
