// Package logging configures the slog loggers of the command line tools.
package logging

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
)

const (
	LevelTrace = slog.Level(-8)
	LevelFatal = slog.Level(12)
)

var levelNames = map[slog.Level]string{
	LevelTrace: "TRACE",
	LevelFatal: "FATAL",
}

// ParseLevel accepts any prefix of trace, debug, info, warning, error or fatal.
func ParseLevel(s string) (slog.Level, error) {
	lv := strings.ToLower(s)
	switch {
	case lv == "":
		return slog.LevelWarn, nil
	case strings.HasPrefix("trace", lv):
		return LevelTrace, nil
	case strings.HasPrefix("debug", lv):
		return slog.LevelDebug, nil
	case strings.HasPrefix("info", lv):
		return slog.LevelInfo, nil
	case strings.HasPrefix("warning", lv):
		return slog.LevelWarn, nil
	case strings.HasPrefix("error", lv):
		return slog.LevelError, nil
	case strings.HasPrefix("fatal", lv):
		return LevelFatal, nil
	}
	return 0, errors.New(`log level must be a prefix of "trace", "debug", "info", "warning", "error" or "fatal"`)
}

// New returns a text logger writing to w at the given level.
func New(w io.Writer, level slog.Leveler) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey && len(groups) == 0 {
				if lv, ok := a.Value.Any().(slog.Level); ok {
					if name, ok := levelNames[lv]; ok {
						a.Value = slog.StringValue(name)
					}
				}
			}
			return a
		},
	}))
}

// Fatal logs msg at LevelFatal. The caller decides how to exit.
func Fatal(logger *slog.Logger, msg string, args ...any) {
	logger.Log(context.Background(), LevelFatal, msg, args...)
}

// Trace logs msg at LevelTrace.
func Trace(logger *slog.Logger, msg string, args ...any) {
	logger.Log(context.Background(), LevelTrace, msg, args...)
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
