// Package logx configures the process-wide structured logger.
package logx

import (
	"log/slog"
	"os"
)

// Init installs a JSON slog handler at the given level as the default
// logger. Accepts debug, info, warn, error; unknown input means info.
func Init(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)
	return logger
}
