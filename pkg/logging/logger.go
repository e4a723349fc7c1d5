// Package logging wraps slog.Logger with the fields used across fixedrec.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// Logger wraps slog.Logger with store-specific helpers.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a Logger with the given handler.
// If handler is nil, uses a text handler to stderr at info level.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{Logger: slog.New(handler)}
}

// NewJSONLogger creates a Logger that writes JSON lines to w.
func NewJSONLogger(w io.Writer, level slog.Level) *Logger {
	return &Logger{Logger: slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))}
}

// NewTextLogger creates a Logger that writes human-readable text to w.
func NewTextLogger(w io.Writer, level slog.Level) *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))}
}

// NoopLogger discards all output.
func NoopLogger() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.Level(1000),
	}))}
}

// ParseLevel maps debug, info, warn and error to slog levels.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// New builds a Logger from a level name and a format of text, json or none.
func New(w io.Writer, level, format string) (*Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(format) {
	case "", "text":
		return NewTextLogger(w, lvl), nil
	case "json":
		return NewJSONLogger(w, lvl), nil
	case "none", "off":
		return NoopLogger(), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
}

// WithComponent tags the logger with a component name.
func (l *Logger) WithComponent(name string) *Logger {
	return &Logger{Logger: l.Logger.With("component", name)}
}

// WithID adds an instrument id field.
func (l *Logger) WithID(id int32) *Logger {
	return &Logger{Logger: l.Logger.With("id", id)}
}

// LogOpen logs the result of opening a store.
func (l *Logger) LogOpen(ctx context.Context, path string, records, skipped int, elapsed time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "store open failed",
			"path", path,
			"error", err,
		)
		return
	}
	if skipped > 0 {
		l.WarnContext(ctx, "store opened with unreadable slots",
			"path", path,
			"records", records,
			"skipped", skipped,
			"elapsed", elapsed,
		)
		return
	}
	l.InfoContext(ctx, "store opened",
		"path", path,
		"records", records,
		"elapsed", elapsed,
	)
}

// LogCheckpoint logs a checkpoint operation.
func (l *Logger) LogCheckpoint(ctx context.Context, checkpointID string, records int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "checkpoint failed",
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "checkpoint saved",
		"checkpoint", checkpointID,
		"records", records,
	)
}

// LogRestore logs a restore operation.
func (l *Logger) LogRestore(ctx context.Context, checkpointID string, records int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "restore failed",
			"checkpoint", checkpointID,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "restore completed",
		"checkpoint", checkpointID,
		"records", records,
	)
}

// LogTransfer logs an export or import.
func (l *Logger) LogTransfer(ctx context.Context, op string, records int, err error) {
	if err != nil {
		l.ErrorContext(ctx, op+" failed",
			"records", records,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, op+" completed",
		"records", records,
	)
}
