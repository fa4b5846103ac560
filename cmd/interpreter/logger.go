package main

import (
	"io"
	"log/slog"
	"strings"

	"github.com/elee1766/interpreter/src/config"
	"github.com/lmittmann/tint"
)

// createCLILogger creates a logger for CLI commands that writes to w
func createCLILogger(w io.Writer, cfg *config.Config, color bool) *slog.Logger {
	level := parseLogLevel(cfg.LogLevel)
	if cfg.DebugMode {
		level = slog.LevelDebug
	}

	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:   level,
		NoColor: !color,
	}))
}

// parseLogLevel converts string log level to slog.Level
func parseLogLevel(levelStr string) slog.Level {
	switch strings.ToLower(levelStr) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}
