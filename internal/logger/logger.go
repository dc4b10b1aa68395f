package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/term"
)

// Setup initializes the global zerolog logger.
//   - level: log level string (trace, debug, info, warn, error, fatal, panic)
//   - format: "json", "pretty", or empty to pick pretty only when stderr is a terminal
//
// Logs go to stderr; stdout belongs to the terminal quiz.
func Setup(level, format string) zerolog.Logger {
	return New(os.Stderr, level, format, term.IsTerminal(int(os.Stderr.Fd())))
}

// New builds a logger writing to w. interactive decides the empty format.
func New(w io.Writer, level, format string, interactive bool) zerolog.Logger {
	if format == "" && interactive {
		format = "pretty"
	}

	writer := w
	if format == "pretty" {
		writer = zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: time.RFC3339,
		}
	}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	zerolog.SetGlobalLevel(lvl)

	return zerolog.New(writer).
		With().
		Timestamp().
		Logger()
}
