package main

import (
	"io"
	"log/slog"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/jpalmerr/risewatch/config"
)

// newLogger builds the CLI logger. Output always goes to w and, when a file
// is configured, also to a size-rotated log file. The file is returned so the
// caller can close it; it is nil when no file is configured.
func newLogger(lc config.LogConfig, w io.Writer) (*slog.Logger, *lumberjack.Logger) {
	var file *lumberjack.Logger
	if lc.File != "" {
		file = &lumberjack.Logger{
			Filename:   lc.File,
			MaxSize:    lc.MaxSizeMB,
			MaxBackups: lc.MaxBackups,
			MaxAge:     lc.MaxAgeDays,
			Compress:   lc.Compress,
		}
		w = io.MultiWriter(w, file)
	}

	opts := &slog.HandlerOptions{Level: parseLevel(lc.Level)}

	var h slog.Handler
	if lc.Format == "json" {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h), file
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
