package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Setup builds the process logger and installs it as the slog default.
// logFile is "stderr", "stdout" or a path the log is appended to. The
// returned close function releases the file, if any.
func Setup(logLevel string, logFile string) (*slog.Logger, func() error, error) {
	var logWriter io.Writer = os.Stderr
	var handlerOptions = &slog.HandlerOptions{Level: getLogLevel(logLevel)}
	closeFn := func() error { return nil }

	switch strings.ToLower(strings.TrimSpace(logFile)) {
	case "", "stderr":
	case "stdout":
		logWriter = os.Stdout
	default:
		f, err := os.OpenFile(logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		logWriter = f
		closeFn = f.Close
	}

	logger := slog.New(slog.NewTextHandler(logWriter, handlerOptions))
	slog.SetDefault(logger)
	return logger, closeFn, nil
}

func getLogLevel(logLevel string) slog.Level {
	var level slog.Level
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	return level
}
