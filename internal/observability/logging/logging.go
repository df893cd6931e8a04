// Package logging builds the process-wide structured logger.
package logging

import (
	"log/slog"
	"os"
)

// Config selects the log level and the attributes stamped on every record.
type Config struct {
	ServiceName string
	Environment string
	Level       string
}

// NewLogger returns a JSON logger on stdout tagged with the service name
// and environment. Unknown level strings fall back to info.
func NewLogger(cfg Config) *slog.Logger {
	level := new(slog.LevelVar)
	level.Set(parseLevel(cfg.Level))

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})

	return slog.New(handler).With(
		slog.String("service", cfg.ServiceName),
		slog.String("env", cfg.Environment),
	)
}

func parseLevel(s string) slog.Level {
	switch s {
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
