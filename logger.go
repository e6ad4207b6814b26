// logger.go - Structured logging for the wallet core.

package wallet

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

var logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}).
	With().Timestamp().Str("component", "wallet-core").Logger()

// Logger returns the package logger.
func Logger() zerolog.Logger {
	return logger
}

// SetOutput redirects the package logger to w.
func SetOutput(w io.Writer) {
	logger = logger.Output(w)
}

// Disable turns off all logging from the package.
func Disable() {
	logger = zerolog.Nop()
}
