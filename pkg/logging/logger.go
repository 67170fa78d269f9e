package logging

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger is an interface for logging
type Logger interface {
	Info(ctx context.Context, msg string, fields map[string]interface{})
	Warn(ctx context.Context, msg string, fields map[string]interface{})
	Error(ctx context.Context, msg string, fields map[string]interface{})
	Debug(ctx context.Context, msg string, fields map[string]interface{})
}

type contextKey string

const runIDKey contextKey = "run_id"

// WithRunID returns a context carrying the pipeline run ID
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

// RunID returns the run ID stored in ctx, if any
func RunID(ctx context.Context) (string, bool) {
	runID, ok := ctx.Value(runIDKey).(string)
	return runID, ok && runID != ""
}

// ZeroLogger implements Logger using zerolog
type ZeroLogger struct {
	logger zerolog.Logger
}

// Option configures a ZeroLogger
type Option func(*ZeroLogger)

// New creates a new ZeroLogger writing to stdout
func New(options ...Option) *ZeroLogger {
	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	l := &ZeroLogger{logger: zerolog.New(output).With().Timestamp().Logger()}
	for _, option := range options {
		option(l)
	}
	return l
}

// WithOutput writes JSON lines to w instead of the console
func WithOutput(w io.Writer) Option {
	return func(l *ZeroLogger) {
		l.logger = l.logger.Output(w)
	}
}

// WithLevel sets the minimum level
func WithLevel(level string) Option {
	return func(l *ZeroLogger) {
		switch level {
		case "debug":
			l.logger = l.logger.Level(zerolog.DebugLevel)
		case "info":
			l.logger = l.logger.Level(zerolog.InfoLevel)
		case "warn":
			l.logger = l.logger.Level(zerolog.WarnLevel)
		case "error":
			l.logger = l.logger.Level(zerolog.ErrorLevel)
		case "disabled":
			l.logger = l.logger.Level(zerolog.Disabled)
		default:
			l.logger = l.logger.Level(zerolog.InfoLevel)
		}
	}
}

// Nop returns a logger that discards everything
func Nop() *ZeroLogger {
	return &ZeroLogger{logger: zerolog.Nop()}
}

// Info logs an info message
func (l *ZeroLogger) Info(ctx context.Context, msg string, fields map[string]interface{}) {
	l.write(ctx, l.logger.Info(), msg, fields)
}

// Warn logs a warning message
func (l *ZeroLogger) Warn(ctx context.Context, msg string, fields map[string]interface{}) {
	l.write(ctx, l.logger.Warn(), msg, fields)
}

// Error logs an error message
func (l *ZeroLogger) Error(ctx context.Context, msg string, fields map[string]interface{}) {
	l.write(ctx, l.logger.Error(), msg, fields)
}

// Debug logs a debug message
func (l *ZeroLogger) Debug(ctx context.Context, msg string, fields map[string]interface{}) {
	l.write(ctx, l.logger.Debug(), msg, fields)
}

func (l *ZeroLogger) write(ctx context.Context, event *zerolog.Event, msg string, fields map[string]interface{}) {
	// Disabled levels hand back a nil event
	if event == nil {
		return
	}

	if ctx != nil {
		if runID, ok := RunID(ctx); ok {
			event = event.Str("run_id", runID)
		}
	}

	for k, v := range fields {
		event = event.Interface(k, v)
	}

	event.Msg(msg)
}
