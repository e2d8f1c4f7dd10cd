// Package log provides the logging infrastructure shared by all corvid
// components.
//
// Loggers are plain *slog.Logger values passed in via constructors, never
// package-level globals. Components add context with logger.With(), e.g.
//
//	store := knowledge.New(idx, embedder, logger.With("component", "knowledge"))
//
// Tests use NewNop() or NewWithWriter with a bytes.Buffer to inspect output.
package log

import (
	"io"
	"log/slog"
	"os"
)

// Logger is an alias for *slog.Logger. Components accept log.Logger as a
// dependency; using the stdlib type directly keeps full slog compatibility.
type Logger = *slog.Logger

// Config defines logger options.
type Config struct {
	// Level is the minimum log level. Default: slog.LevelInfo.
	Level slog.Level

	// JSON switches output to JSON format. Default: text.
	JSON bool

	// AddSource includes source file positions in log entries.
	AddSource bool
}

// New creates a logger writing to os.Stderr.
func New(cfg Config) Logger {
	return NewWithWriter(os.Stderr, cfg)
}

// NewWithWriter creates a logger writing to w.
func NewWithWriter(w io.Writer, cfg Config) Logger {
	opts := &slog.HandlerOptions{
		Level:     cfg.Level,
		AddSource: cfg.AddSource,
	}

	var handler slog.Handler
	if cfg.JSON {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler)
}

// NewNop creates a logger that discards everything. Test use only; production
// code should always see its logs.
func NewNop() Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
