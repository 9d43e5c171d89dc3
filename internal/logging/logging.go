// Package logging builds the zerolog logger used by the CLI.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// EnvLevel names the environment variable read when no level flag is given.
const EnvLevel = "SITESTACK_LOG"

// DefaultLevel applies when neither the flag nor the environment sets one.
const DefaultLevel = zerolog.InfoLevel

// Options configures New.
type Options struct {
	// Level is a zerolog level name; empty falls back to SITESTACK_LOG
	Level string
	// JSON switches from the console writer to JSON lines
	JSON bool
	// Out defaults to stderr
	Out io.Writer
}

// New returns a logger writing to stderr with a console writer unless JSON
// output is requested.
func New(opts Options) (zerolog.Logger, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return zerolog.Nop(), err
	}

	out := opts.Out
	if out == nil {
		out = os.Stderr
	}
	if !opts.JSON {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.TimeOnly}
	}

	return zerolog.New(out).Level(level).With().Timestamp().Logger(), nil
}

// ParseLevel resolves a level from the given name or SITESTACK_LOG.
func ParseLevel(name string) (zerolog.Level, error) {
	if name == "" {
		name = os.Getenv(EnvLevel)
	}
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return DefaultLevel, nil
	}
	return zerolog.ParseLevel(name)
}
