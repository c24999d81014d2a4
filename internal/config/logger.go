package config

import (
	"log/slog"
	"os"
)

// NewLogger builds the process logger. Production emits JSON at info level,
// anything else emits text at debug with source locations for local work.
func NewLogger(env string) *slog.Logger {
	var handler slog.Handler
	if env == "production" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level:     slog.LevelDebug,
			AddSource: true,
		})
	}
	return slog.New(handler).With(slog.String("service", "rosto"))
}
