package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
)

var (
	log     = zerolog.Nop()
	logFile *os.File
	once    sync.Once
	initErr error
)

// DefaultLogPath returns ~/.poststretch/poststretch.log.
func DefaultLogPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".poststretch", "poststretch.log"), nil
}

// InitLogger initializes the logger. Logs go to path, or to the default log
// file when path is empty. With verbose set they are also printed to stderr.
// Only the first call has an effect.
func InitLogger(path string, verbose bool) error {
	once.Do(func() {
		if path == "" {
			path, initErr = DefaultLogPath()
			if initErr != nil {
				return
			}
		}

		if initErr = os.MkdirAll(filepath.Dir(path), 0755); initErr != nil {
			initErr = fmt.Errorf("failed to create log directory: %w", initErr)
			return
		}
		logFile, initErr = os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0666)
		if initErr != nil {
			initErr = fmt.Errorf("failed to open log file: %w", initErr)
			return
		}

		var w io.Writer = logFile
		level := zerolog.InfoLevel
		if verbose {
			w = zerolog.MultiLevelWriter(logFile, zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
			level = zerolog.DebugLevel
		}
		log = zerolog.New(w).Level(level).With().Timestamp().Logger()
	})
	return initErr
}

// GetLogger returns the logger instance. It discards everything until
// InitLogger succeeded.
func GetLogger() *zerolog.Logger {
	return &log
}

// CloseLogger closes the log file.
func CloseLogger() error {
	if logFile == nil {
		return nil
	}
	return logFile.Close()
}
