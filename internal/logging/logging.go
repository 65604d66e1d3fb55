// Package logging builds the zerolog loggers used by the countdown host.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/diode"
	"github.com/rs/zerolog/pkgerrors"
)

func init() {
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
}

// AppName tags every record written by a logger from Setup.
const AppName = "countdown"

// terminalTime is the console timestamp layout.
const terminalTime = "15:04:05.000"

// Setup returns a logger writing to output with app=countdown on every record. The
// "terminal" format is human readable, coloured when forced or when output is itself a
// terminal; anything else writes JSON.
func Setup(
	output io.Writer,
	level zerolog.Level,
	format string,
	forceColor bool,
) zerolog.Logger {
	o := output
	if format == "terminal" {
		o = zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: terminalTime,
			NoColor:    !forceColor && !isTerminal(output),
		}
	}

	z := zerolog.New(o).With().Timestamp().Str("app", AppName)

	if level <= zerolog.DebugLevel {
		z = z.Caller().Stack()
	}

	return z.Logger().Level(level)
}

// isTerminal reports whether w is a file descriptor attached to a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(interface{ Fd() uintptr })
	if !ok {
		return false
	}

	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Output opens f for appending behind a non-blocking diode writer. Records the diode has
// to drop are reported on stderr.
func Output(f string) (io.WriteCloser, error) {
	out, err := os.OpenFile(filepath.Clean(f), os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o600) // nolint:gosec
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open log file, %q", f)
	}

	return diode.NewWriter(out, 1000, 0, func(missed int) {
		_, _ = fmt.Fprintf(os.Stderr, "%s: log file %q dropped %d records\n", AppName, f, missed)
	}), nil
}

// ParseLevel accepts zerolog level names; empty means info.
func ParseLevel(s string) (zerolog.Level, error) {
	if s == "" {
		return zerolog.InfoLevel, nil
	}

	l, err := zerolog.ParseLevel(strings.ToLower(s))
	if err != nil {
		return zerolog.NoLevel, errors.Wrapf(err, "invalid log level, %q", s)
	}
	return l, nil
}

// New builds a logger from level/format/file settings. With an empty file the logger
// writes to fallback. The returned closer flushes the file output and is never nil.
func New(level, format, file string, fallback io.Writer, forceColor bool) (zerolog.Logger, io.Closer, error) {
	l, err := ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), nopCloser{}, err
	}

	if file == "" {
		return Setup(fallback, l, format, forceColor), nopCloser{}, nil
	}

	out, err := Output(file)
	if err != nil {
		return zerolog.Nop(), nopCloser{}, err
	}

	// files never get colour codes
	return Setup(out, l, format, false), out, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
