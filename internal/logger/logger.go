// Package logger builds the service's root zerolog logger.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// New returns a logger writing to w. DEV gets a human readable console writer,
// every other environment gets JSON lines.
func New(w io.Writer, level zerolog.Level, dev bool) zerolog.Logger {
	if dev {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

// Init builds the logger for stdout and installs it as the global zerolog logger
// used by the handlers.
func Init(level zerolog.Level, dev bool) zerolog.Logger {
	l := New(os.Stdout, level, dev)
	log.Logger = l
	zerolog.SetGlobalLevel(level)
	return l
}
