package table

import (
	"os"

	"github.com/rs/zerolog"
)

// logger emits the soft warnings a table raises for recoverable spec
// drift, such as redefining a predeclared column with different
// settings. Callers that want the warnings elsewhere can swap it.
var logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().
	Timestamp().
	Str("component", "table").
	Logger()

// SetLogger replaces the package logger.
func SetLogger(l zerolog.Logger) { logger = l }
