package logging

import (
	"io"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup configures the global logger. Log output goes to w so stdout stays
// reserved for reports; verbose raises the level to debug.
func Setup(w io.Writer, verbose bool) {
	zerolog.TimeFieldFormat = "2006-01-02T15:04:05.000"

	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}

	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: w}).Level(level).With().Timestamp().Logger()
}
