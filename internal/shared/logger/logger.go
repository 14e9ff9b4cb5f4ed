package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New initializes the root logger for a binary.
// 'devMode' enables human-readable console logging at debug level.
func New(devMode bool, service string) zerolog.Logger {
	return NewWithWriter(os.Stderr, devMode, service)
}

// NewWithWriter is New with an explicit sink.
func NewWithWriter(w io.Writer, devMode bool, service string) zerolog.Logger {
	level := zerolog.InfoLevel
	if devMode {
		// Human-readable, colorful output for local development
		w = zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: time.RFC3339,
		}
		level = zerolog.DebugLevel
	}

	return zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Str("service", service).
		Logger()
}
