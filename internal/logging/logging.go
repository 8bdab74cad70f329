package logging

import (
	"log/slog"
	"os"
	"strings"
)

// Fields carries structured log attributes.
type Fields map[string]interface{}

// Logger is a thin fields-style wrapper around slog's JSON handler.
type Logger struct {
	s *slog.Logger
}

// New creates a logger scoped to a component. Level comes from LOG_LEVEL
// (debug|info|warn|error), defaulting to info.
func New(component string) *Logger {
	h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(os.Getenv("LOG_LEVEL")),
	})
	return &Logger{s: slog.New(h).With("component", component)}
}

func parseLevel(lvl string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(lvl)) {
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

func (l *Logger) Debug(msg string, fields ...Fields) { l.s.Debug(msg, args(fields)...) }
func (l *Logger) Info(msg string, fields ...Fields)  { l.s.Info(msg, args(fields)...) }
func (l *Logger) Warn(msg string, fields ...Fields)  { l.s.Warn(msg, args(fields)...) }
func (l *Logger) Error(msg string, fields ...Fields) { l.s.Error(msg, args(fields)...) }

// Fatal logs at error level and exits.
func (l *Logger) Fatal(msg string, fields ...Fields) {
	l.s.Error(msg, args(fields)...)
	os.Exit(1)
}

func args(fields []Fields) []any {
	var out []any
	for _, f := range fields {
		for k, v := range f {
			out = append(out, slog.Any(k, v))
		}
	}
	return out
}
