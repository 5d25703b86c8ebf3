package config

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger builds a zerolog logger writing to w (stderr when nil).
func (c LogConfig) Logger(w io.Writer) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}

	var zl zerolog.Logger
	if c.Format == "console" {
		zl = zerolog.New(zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: time.RFC3339,
		})
	} else {
		zl = zerolog.New(w)
	}

	return zl.Level(parseLevel(c.Level)).With().
		Timestamp().
		Str("service", "figharvest").
		Logger()
}

func parseLevel(level string) zerolog.Level {
	switch level {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
