// Package logging configures the process-wide slog loggers.
package logging

import (
	"context"
	"log/slog"
	"os"
	"strings"
)

var structuredLogger *slog.Logger

const LevelFatal = slog.Level(12)

var levelNames = map[slog.Leveler]string{
	LevelFatal: "FATAL",
}

// Init initializes the logging system. Structured JSON goes to stdout.
// level accepts debug/info/warn/error (case-insensitive); anything else
// falls back to info.
func Init(level string) {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: ParseLevel(level),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey {
				lvl := a.Value.Any().(slog.Level)
				if label, ok := levelNames[lvl]; ok {
					a.Value = slog.StringValue(label)
				}
			}
			return a
		},
	})
	structuredLogger = slog.New(handler)
	slog.SetDefault(structuredLogger)
}

// ParseLevel converts a level name into a slog.Level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug", "trace":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Structured returns the globally configured structured logger.
// Returns the slog default if Init() has not been called.
func Structured() *slog.Logger {
	if structuredLogger == nil {
		return slog.Default()
	}
	return structuredLogger
}

// ForService creates a new logger instance with the 'service' attribute added.
func ForService(serviceName string) *slog.Logger {
	return Structured().With("service", serviceName)
}

// Debug logs a debug message using the default slog logger.
func Debug(msg string, args ...any) {
	slog.Debug(msg, args...)
}

// Info logs an info message using the default slog logger.
func Info(msg string, args ...any) {
	slog.Info(msg, args...)
}

// Warn logs a warning message using the default slog logger.
func Warn(msg string, args ...any) {
	slog.Warn(msg, args...)
}

// Error logs an error message using the default slog logger.
func Error(msg string, args ...any) {
	slog.Error(msg, args...)
}

// Fatal logs a message at the custom Fatal level and exits.
func Fatal(msg string, args ...any) {
	slog.Log(context.TODO(), LevelFatal, msg, args...)
	os.Exit(1)
}
