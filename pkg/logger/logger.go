package logger

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ParseLevel maps a configured level name to a zerolog level, defaulting to info
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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

// New builds a logger writing to w in the given format ("json" or "console")
func New(level, format string, w io.Writer) zerolog.Logger {
	if format == "console" {
		w = zerolog.ConsoleWriter{Out: w}
	}
	return zerolog.New(w).Level(ParseLevel(level)).With().Timestamp().Str("component", "s3compat").Logger()
}

// Init initializes the global logger with the specified level and format
func Init(level, format string) {
	zerolog.SetGlobalLevel(ParseLevel(level))
	log.Logger = New(level, format, os.Stderr)
}

// Get returns a reference to the global logger
func Get() *zerolog.Logger {
	return &log.Logger
}
