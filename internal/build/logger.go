package build

import (
	"context"
	"log/slog"
	"os"

	"github.com/btcsuite/btclog"
	btclogv2 "github.com/btcsuite/btclog/v2"
)

// LoggerConfig controls how the process logger is assembled.
type LoggerConfig struct {
	// LogDir is where the rotating log file lives. Empty disables file
	// logging (console only).
	LogDir string

	// Debug lowers the level to debug.
	Debug bool

	// Quiet drops the console stream, leaving only the file. Used by
	// hook-triggered runs where stderr goes nowhere useful.
	Quiet bool
}

// fanout duplicates each log record to every leaf handler. The level is
// fixed on each leaf at construction time.
type fanout struct {
	handlers []slog.Handler
}

func newFanout(level btclog.Level, leaves ...btclogv2.Handler) *fanout {
	f := &fanout{
		handlers: make([]slog.Handler, len(leaves)),
	}
	for i, leaf := range leaves {
		leaf.SetLevel(level)
		f.handlers[i] = leaf
	}

	return f
}

// Enabled reports true if any leaf would accept the record.
func (f *fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}

	return false
}

// Handle passes the record to every leaf that accepts its level, returning
// the first error encountered.
func (f *fanout) Handle(ctx context.Context, record slog.Record) error {
	var firstErr error
	for _, h := range f.handlers {
		if !h.Enabled(ctx, record.Level) {
			continue
		}
		if err := h.Handle(ctx, record); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}

// WithAttrs derives a fanout whose leaves all carry the given attributes.
func (f *fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make([]slog.Handler, len(f.handlers))
	for i, h := range f.handlers {
		handlers[i] = h.WithAttrs(attrs)
	}

	return &fanout{handlers: handlers}
}

// WithGroup derives a fanout whose leaves all open the given group.
func (f *fanout) WithGroup(name string) slog.Handler {
	handlers := make([]slog.Handler, len(f.handlers))
	for i, h := range f.handlers {
		handlers[i] = h.WithGroup(name)
	}

	return &fanout{handlers: handlers}
}

var _ slog.Handler = (*fanout)(nil)

// NewLogger assembles the process slog.Logger: a console stream on stderr
// plus an optional rotating file stream. The returned cleanup flushes the
// file rotator and must be called on shutdown.
func NewLogger(cfg LoggerConfig) (*slog.Logger, func(), error) {
	level := btclog.LevelInfo
	if cfg.Debug {
		level = btclog.LevelDebug
	}

	var leaves []btclogv2.Handler

	if !cfg.Quiet {
		leaves = append(leaves, btclogv2.NewDefaultHandler(
			os.Stderr,
		))
	}

	cleanup := func() {}
	if cfg.LogDir != "" {
		writer := NewRotatingLogWriter()
		rotCfg := DefaultLogRotatorConfig()
		rotCfg.LogDir = cfg.LogDir

		if err := writer.InitLogRotator(rotCfg); err != nil {
			return nil, nil, err
		}

		leaves = append(leaves, btclogv2.NewDefaultHandler(
			writer,
		))
		cleanup = func() { _ = writer.Close() }
	}

	if len(leaves) == 0 {
		leaves = append(leaves, btclogv2.NewDefaultHandler(
			os.Stderr,
		))
	}

	return slog.New(newFanout(level, leaves...)), cleanup, nil
}
