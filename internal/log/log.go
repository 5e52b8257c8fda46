// Package log provides the leveled, contextual logging wrapper used across
// logpress, following the same shape as ClusterCockpit/cc-backend's logging
// package but backed directly by the standard library's log/slog instead of
// vendoring a separate logger: no pack repository reaches for a heavier
// logger (zap/zerolog) for a batch compression tool, so slog is the honest
// choice here.
package log

import (
	"context"
	"log/slog"
	"os"
)

var logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

// SetLevel adjusts the minimum level emitted by the package logger.
func SetLevel(level slog.Level) {
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// SetHandler replaces the underlying slog handler entirely, e.g. to switch
// to JSON output for machine-readable CLI invocations.
func SetHandler(h slog.Handler) {
	logger = slog.New(h)
}

func Debug(msg string, args ...any) { logger.Debug(msg, args...) }
func Info(msg string, args ...any)  { logger.Info(msg, args...) }
func Warn(msg string, args ...any)  { logger.Warn(msg, args...) }
func Error(msg string, args ...any) { logger.Error(msg, args...) }

func DebugContext(ctx context.Context, msg string, args ...any) { logger.DebugContext(ctx, msg, args...) }
func InfoContext(ctx context.Context, msg string, args ...any)  { logger.InfoContext(ctx, msg, args...) }
func WarnContext(ctx context.Context, msg string, args ...any)  { logger.WarnContext(ctx, msg, args...) }
func ErrorContext(ctx context.Context, msg string, args ...any) { logger.ErrorContext(ctx, msg, args...) }
