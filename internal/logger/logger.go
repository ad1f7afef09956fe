// Package logger configures the process-wide zerolog logger.
package logger

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger is the process-wide logger. Init replaces it.
var Logger = log.Logger

// Config controls level, encoding and destination of log output.
type Config struct {
	Level        string    `json:"level"`
	Format       string    `json:"format"` // "json" or "pretty"
	TimeFormat   string    `json:"time_format"`
	ReportCaller bool      `json:"report_caller"`
	Output       io.Writer `json:"-"`
}

// New builds a logger from config without touching global state.
func New(config Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(config.Level)
	if err != nil || config.Level == "" {
		level = zerolog.InfoLevel
	}

	var output io.Writer = os.Stderr
	if config.Output != nil {
		output = config.Output
	}
	if config.Format == "pretty" {
		output = zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: config.TimeFormat,
		}
	}

	builder := zerolog.New(output).Level(level).With().Timestamp()
	if config.ReportCaller {
		builder = builder.Caller()
	}
	return builder.Logger()
}

// Init installs a logger built from config as the global logger.
func Init(config Config) {
	level, err := zerolog.ParseLevel(config.Level)
	if err != nil || config.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if config.TimeFormat == "" {
		zerolog.TimeFieldFormat = time.RFC3339
	} else {
		zerolog.TimeFieldFormat = config.TimeFormat
	}

	Logger = New(config)
	log.Logger = Logger
}

// Debug starts a debug level event.
func Debug() *zerolog.Event {
	return Logger.Debug()
}

// Info starts an info level event.
func Info() *zerolog.Event {
	return Logger.Info()
}

// Warn starts a warn level event.
func Warn() *zerolog.Event {
	return Logger.Warn()
}

// Error starts an error level event.
func Error() *zerolog.Event {
	return Logger.Error()
}

// Fatal starts a fatal event; the process exits after it is written.
func Fatal() *zerolog.Event {
	return Logger.Fatal()
}

// Ctx returns the logger attached to ctx, or the global logger.
func Ctx(ctx context.Context) *zerolog.Logger {
	l := zerolog.Ctx(ctx)
	if l.GetLevel() == zerolog.Disabled {
		return &Logger
	}
	return l
}

// WithContext attaches the global logger to ctx.
func WithContext(ctx context.Context) context.Context {
	return Logger.WithContext(ctx)
}
