// Package logging provides structured logging using Go's slog package.
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

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

const (
	// SessionIDKey is the context key for round-trip session ids.
	SessionIDKey ContextKey = "session_id"
)

var (
	// defaultLogger is the global logger instance.
	defaultLogger *slog.Logger

	// output receives log records. Compiled markup goes to stdout, so logs
	// default to stderr.
	output io.Writer = os.Stderr
)

func init() {
	InitLogger(LevelInfo, FormatText)
}

// Level represents a log level.
type Level int

const (
	// LevelDebug is for debug messages.
	LevelDebug Level = iota
	// LevelInfo is for informational messages.
	LevelInfo
	// LevelWarn is for warning messages.
	LevelWarn
	// LevelError is for error messages.
	LevelError
)

// Format represents a log output format.
type Format int

const (
	// FormatJSON outputs logs in JSON format.
	FormatJSON Format = iota
	// FormatText outputs logs in human-readable text format.
	FormatText
)

// ParseLevel maps a configuration string to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	}
	return LevelInfo, fmt.Errorf("unknown log level %q", s)
}

// ParseFormat maps a configuration string to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	}
	return FormatText, fmt.Errorf("unknown log format %q", s)
}

// SetOutput redirects subsequent InitLogger calls to w.
func SetOutput(w io.Writer) {
	output = w
}

// InitLogger initializes the global logger with the specified level and format.
func InitLogger(level Level, format Format) {
	var slogLevel slog.Level
	switch level {
	case LevelDebug:
		slogLevel = slog.LevelDebug
	case LevelWarn:
		slogLevel = slog.LevelWarn
	case LevelError:
		slogLevel = slog.LevelError
	default:
		slogLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: slogLevel,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.String(slog.TimeKey, a.Value.Time().Format(time.RFC3339))
			}
			return a
		},
	}

	var handler slog.Handler
	if format == FormatJSON {
		handler = slog.NewJSONHandler(output, opts)
	} else {
		handler = slog.NewTextHandler(output, opts)
	}

	defaultLogger = slog.New(handler)
	slog.SetDefault(defaultLogger)
}

// GetLogger returns the global logger instance.
func GetLogger() *slog.Logger {
	return defaultLogger
}

// WithSessionID adds a session ID to the context.
func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, SessionIDKey, id)
}

// GetSessionID retrieves the session ID from the context.
func GetSessionID(ctx context.Context) string {
	if id, ok := ctx.Value(SessionIDKey).(string); ok {
		return id
	}
	return ""
}

// LoggerFromContext returns a logger with context values attached.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	logger := defaultLogger
	if id := GetSessionID(ctx); id != "" {
		logger = logger.With("session_id", id)
	}
	return logger
}

// Debug logs a debug message with optional key-value pairs.
func Debug(msg string, args ...any) {
	defaultLogger.Debug(msg, args...)
}

// Info logs an info message with optional key-value pairs.
func Info(msg string, args ...any) {
	defaultLogger.Info(msg, args...)
}

// Warn logs a warning message with optional key-value pairs.
func Warn(msg string, args ...any) {
	defaultLogger.Warn(msg, args...)
}

// Error logs an error message with optional key-value pairs.
func Error(msg string, args ...any) {
	defaultLogger.Error(msg, args...)
}

// DebugContext logs a debug message with context.
func DebugContext(ctx context.Context, msg string, args ...any) {
	LoggerFromContext(ctx).Debug(msg, args...)
}

// InfoContext logs an info message with context.
func InfoContext(ctx context.Context, msg string, args ...any) {
	LoggerFromContext(ctx).Info(msg, args...)
}

// WarnContext logs a warning message with context.
func WarnContext(ctx context.Context, msg string, args ...any) {
	LoggerFromContext(ctx).Warn(msg, args...)
}

// ErrorContext logs an error message with context.
func ErrorContext(ctx context.Context, msg string, args ...any) {
	LoggerFromContext(ctx).Error(msg, args...)
}

// CompileEvent logs a finished DSL compilation.
func CompileEvent(source string, multiLevel bool, outputBytes int, duration time.Duration, args ...any) {
	allArgs := []any{
		"source", source,
		"multi_level", multiLevel,
		"output_bytes", outputBytes,
		"duration_ms", duration.Milliseconds(),
	}
	allArgs = append(allArgs, args...)
	defaultLogger.Info("compile", allArgs...)
}

// ImportEvent logs a document imported into a session.
func ImportEvent(ctx context.Context, source string, segments int, multiLevel bool, args ...any) {
	allArgs := []any{
		"source", source,
		"segments", segments,
		"multi_level", multiLevel,
	}
	allArgs = append(allArgs, args...)
	LoggerFromContext(ctx).Info("import", allArgs...)
}

// PatchEvent logs the operation counts of an applied edit.
func PatchEvent(ctx context.Context, kept, modified, inserted, deleted int, args ...any) {
	allArgs := []any{
		"kept", kept,
		"modified", modified,
		"inserted", inserted,
		"deleted", deleted,
	}
	allArgs = append(allArgs, args...)
	LoggerFromContext(ctx).Info("patch", allArgs...)
}

// ValidationEvent logs the outcome of one validation request. Failures are
// logged at warn level.
func ValidationEvent(schema string, valid bool, diagnostics int, duration time.Duration, args ...any) {
	allArgs := []any{
		"schema", schema,
		"valid", valid,
		"diagnostics", diagnostics,
		"duration_ms", duration.Milliseconds(),
	}
	allArgs = append(allArgs, args...)
	if valid {
		defaultLogger.Info("validation", allArgs...)
		return
	}
	defaultLogger.Warn("validation", allArgs...)
}

// ValidationFault logs a panic recovered while serving a validation request.
func ValidationFault(schema string, recovered any, args ...any) {
	allArgs := []any{
		"schema", schema,
		"fault", fmt.Sprint(recovered),
	}
	allArgs = append(allArgs, args...)
	defaultLogger.Error("validation_fault", allArgs...)
}
