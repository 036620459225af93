package main

import (
	"log/slog"
	"os"
	"strings"
)

var logLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// setupLogger builds the process logger. Text output is the default since
// bench runs are usually watched from a terminal; json suits captured runs
// that get compared across policies.
func setupLogger(cfg *CLIConfig) *slog.Logger {
	level, ok := logLevels[strings.ToLower(cfg.LogLevel)]
	if !ok {
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	var handler slog.Handler
	if strings.ToLower(cfg.LogFormat) == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	// Every line carries the workload shape so interleaved runs can be
	// told apart when output is collected.
	return slog.New(handler).With(
		"bench", appName,
		"workers", cfg.Workers,
		"keyspace", cfg.Keyspace,
		"pid", os.Getpid(),
	)
}
