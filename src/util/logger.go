package util

import (
	"io"
	"log/slog"
	"os"
)

// LogConfig holds logger configuration.
type LogConfig struct {
	Verbose bool      // Log at debug level.
	Format  string    // "text" or "json".
	Output  io.Writer // Defaults to stderr.
}

// InitLogger installs the process wide slog logger.
func InitLogger(cfg LogConfig) {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	level := slog.LevelWarn
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	if cfg.Format == "json" {
		h = slog.NewJSONHandler(out, opts)
	} else {
		h = slog.NewTextHandler(out, opts)
	}
	slog.SetDefault(slog.New(h))
}
