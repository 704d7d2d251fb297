package cliconfig

import (
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/bft-labs/airship/pkg/log"
)

var logger zerolog.Logger

func init() {
	logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()
}

// Logger returns the command logger.
func Logger() zerolog.Logger {
	return logger
}

// SetLogLevel applies the named level to the command logger and returns it.
func SetLogLevel(name string) zerolog.Logger {
	logger = logger.Level(log.ParseLevel(name))
	return logger
}
