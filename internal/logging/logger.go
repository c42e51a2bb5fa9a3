// Package logging provides structured logging for the cold storage CLI and workers.
package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger wraps zerolog with a console writer suitable for CLI and cron output.
type Logger struct {
	zlog   zerolog.Logger
	output io.Writer
}

// New creates a logger writing to the given component name.
func New(component string) *Logger {
	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: "15:04:05",
	}
	zlog := zerolog.New(output).With().Timestamp().Str("component", component).Logger()
	return &Logger{zlog: zlog, output: output}
}

// NewDefaultCLILogger creates the default logger used by the cold CLI.
func NewDefaultCLILogger() *Logger {
	return New("cold")
}

// Info returns an info level event.
func (l *Logger) Info() *zerolog.Event { return l.zlog.Info() }

// Error returns an error level event.
func (l *Logger) Error() *zerolog.Event { return l.zlog.Error() }

// Debug returns a debug level event.
func (l *Logger) Debug() *zerolog.Event { return l.zlog.Debug() }

// Warn returns a warn level event.
func (l *Logger) Warn() *zerolog.Event { return l.zlog.Warn() }

// Fatal returns a fatal level event.
func (l *Logger) Fatal() *zerolog.Event { return l.zlog.Fatal() }

// With creates a child logger with additional context.
func (l *Logger) With() zerolog.Context { return l.zlog.With() }

// Output returns the current output writer.
func (l *Logger) Output() io.Writer { return l.output }

// Zerolog returns the underlying zerolog.Logger, for collaborators
// (manager, worker) that take one directly rather than this wrapper.
func (l *Logger) Zerolog() *zerolog.Logger { return &l.zlog }

// SetGlobalLevel sets the global log level.
func SetGlobalLevel(level zerolog.Level) {
	zerolog.SetGlobalLevel(level)
}

func init() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: "15:04:05",
	})
}
