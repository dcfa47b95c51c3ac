package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

// newLogger builds the process logger. It writes to logFile when set,
// otherwise to stderr; the terminal UI discards stderr logging so records
// never land on the screen.
func newLogger(level, logFile string, stderr io.Writer, tui bool) (*logrus.Logger, io.Closer, error) {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "15:04:05",
	})

	lvl, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		lvl = logrus.WarnLevel
	}
	logger.SetLevel(lvl)

	var closer io.Closer = io.NopCloser(nil)
	switch {
	case logFile != "":
		if err := os.MkdirAll(filepath.Dir(logFile), 0o755); err != nil {
			return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		logger.SetOutput(f)
		closer = f
	case tui:
		logger.SetOutput(io.Discard)
	default:
		logger.SetOutput(stderr)
	}

	if level != "" && err != nil {
		logger.WithField("level", level).Warn("Unknown log level, using warn")
	}
	return logger, closer, nil
}
