// Package logging constructs the process logger. The logger is created once
// in the CLI and passed down explicitly; nothing in this codebase logs
// through a global.
package logging

import (
	"io"

	"github.com/rs/zerolog"
)

// New returns a console logger writing to w. Verbose lowers the level to
// debug; the default level keeps result output clean and surfaces only
// per-file warnings and errors.
func New(w io.Writer, verbose bool) zerolog.Logger {
	level := zerolog.WarnLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	cw := zerolog.ConsoleWriter{Out: w}
	return zerolog.New(cw).Level(level).With().Timestamp().Logger()
}
