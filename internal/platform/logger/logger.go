package logger

import (
	"log/slog"
	"os"
)

// New returns the root structured logger. Services receive it through
// WithLogger options so tests can pass a silent logger or nil.
func New() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}
