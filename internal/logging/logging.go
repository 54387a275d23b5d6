// Package logging sets up structured logging via log/slog with a console
// handler, the same way plugin/logrotate/index.go configures console-slog
// in the teacher repo.
package logging

import (
	"log/slog"
	"os"

	console "github.com/phsym/console-slog"
)

// New builds a slog.Logger writing to stderr at the given level ("debug",
// "info", "warn", "error"; unrecognised values fall back to "info").
func New(level string) *slog.Logger {
	handler := console.NewHandler(os.Stderr, &console.HandlerOptions{
		Level:      parseLevel(level),
		TimeFormat: "2006-01-02 15:04:05.000",
	})
	return slog.New(handler)
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
