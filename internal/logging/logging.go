// Package logging provides the structured logger used across the service.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
)

// Fields are key/value pairs attached to a log line.
type Fields map[string]interface{}

// Logger writes JSON log lines tagged with the component that produced them.
type Logger struct {
	component string
	handler   slog.Handler
	slog      *slog.Logger
}

var (
	level            = new(slog.LevelVar)
	output io.Writer = os.Stdout
	std              = New("warehouse")
)

// SetLevel changes the minimum level for every logger. Unknown names keep the
// current level.
func SetLevel(name string) {
	switch strings.ToLower(name) {
	case "debug":
		level.Set(slog.LevelDebug)
	case "info":
		level.Set(slog.LevelInfo)
	case "warn", "warning":
		level.Set(slog.LevelWarn)
	case "error":
		level.Set(slog.LevelError)
	}
}

// SetOutput redirects loggers created afterwards. Tests use it to capture lines.
func SetOutput(w io.Writer) {
	output = w
	std = New("warehouse")
}

// New creates a logger for a component.
func New(component string) *Logger {
	h := slog.NewJSONHandler(output, &slog.HandlerOptions{Level: level})
	return &Logger{
		component: component,
		handler:   h,
		slog:      slog.New(h).With("component", component),
	}
}

// With returns a child logger for a sub-component, e.g. "orders-service.cache".
func (l *Logger) With(component string) *Logger {
	name := l.component + "." + component
	return &Logger{
		component: name,
		handler:   l.handler,
		slog:      slog.New(l.handler).With("component", name),
	}
}

func (l *Logger) Debug(msg string, fields ...Fields) { l.log(slog.LevelDebug, msg, fields) }

func (l *Logger) Info(msg string, fields ...Fields) { l.log(slog.LevelInfo, msg, fields) }

func (l *Logger) Warn(msg string, fields ...Fields) { l.log(slog.LevelWarn, msg, fields) }

func (l *Logger) Error(msg string, fields ...Fields) { l.log(slog.LevelError, msg, fields) }

// Fatal logs at error level and exits the process.
func (l *Logger) Fatal(msg string, fields ...Fields) {
	l.log(slog.LevelError, msg, fields)
	os.Exit(1)
}

func (l *Logger) log(lvl slog.Level, msg string, fields []Fields) {
	ctx := context.Background()
	if !l.slog.Enabled(ctx, lvl) {
		return
	}
	l.slog.Log(ctx, lvl, msg, attrs(fields)...)
}

// attrs flattens fields in key order so output is stable.
func attrs(fields []Fields) []any {
	var out []any
	for _, f := range fields {
		keys := make([]string, 0, len(f))
		for k := range f {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			out = append(out, slog.Any(k, f[k]))
		}
	}
	return out
}

// Infof logs a formatted message on the default logger.
func Infof(format string, args ...interface{}) {
	std.Info(fmt.Sprintf(format, args...))
}

// Info logs on the default logger.
func Info(msg string, fields ...Fields) {
	std.Info(msg, fields...)
}
