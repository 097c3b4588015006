package logger

import (
	"io"
	"log/slog"
	"os"

	"isolationd/internal/platform/config"
)

// New returns a structured logger: JSON in deployed environments, text during development.
func New(cfg config.Server) *slog.Logger {
	return newWithWriter(os.Stdout, cfg)
}

func newWithWriter(w io.Writer, cfg config.Server) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	var handler slog.Handler
	if cfg.IsDevelopment() {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}
	return slog.New(handler).With("service", "isolationd")
}
