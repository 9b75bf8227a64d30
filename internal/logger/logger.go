package logger

import (
	"io"
	"log/slog"
	"os"

	"github.com/mcs-education/starcat/internal/config"
)

// Init installs the default slog logger described by cfg.
func Init(cfg config.LoggingConfig) {
	InitTo(os.Stdout, cfg)
}

// InitTo is Init writing to w.
func InitTo(w io.Writer, cfg config.LoggingConfig) {
	opts := &slog.HandlerOptions{Level: parseLogLevel(cfg.Level)}
	var handler slog.Handler
	if cfg.JSONFormat {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	slog.SetDefault(slog.New(handler))

	logger := slog.With("component", "logger")
	logger.Debug("Logger initialized",
		"level", cfg.Level,
		"json_format", cfg.JSONFormat,
	)
}

func parseLogLevel(levelStr string) slog.Level {
	switch levelStr {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
