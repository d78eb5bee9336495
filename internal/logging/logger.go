/**
 * @description
 * Structured logging for the registry service, built on zerolog. Components derive
 * sub-loggers with a "component" field, mirroring the key=value style used across the
 * services.
 *
 * @dependencies
 * - github.com/rs/zerolog: Zero-allocation JSON logger.
 */
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger aliases zerolog.Logger so callers depend on this package only.
type Logger = zerolog.Logger

// New constructs a logger writing JSON to stdout, or a console writer in development.
func New(appEnv string) Logger {
	return NewWithWriter(appEnv, os.Stdout)
}

// NewWithWriter is New with an explicit destination.
func NewWithWriter(appEnv string, out io.Writer) Logger {
	dev := isDevelopment(appEnv)

	level := zerolog.InfoLevel
	if dev {
		level = zerolog.DebugLevel
	}

	logger := zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Logger()

	if dev {
		logger = logger.Output(zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339})
	}
	return logger
}

// Nop returns a disabled logger, handy for tests.
func Nop() Logger {
	return zerolog.Nop()
}

// Component derives a sub-logger tagged with the component name.
func Component(logger Logger, name string) Logger {
	return logger.With().Str("component", name).Logger()
}

// CronAdapter satisfies the cron package's Logger interface on top of zerolog.
type CronAdapter struct {
	logger Logger
}

// NewCronAdapter wraps logger for use with cron.WithLogger and cron.Recover.
func NewCronAdapter(logger Logger) CronAdapter {
	return CronAdapter{logger: Component(logger, "scheduler")}
}

// Info logs routine scheduler messages at debug level.
func (a CronAdapter) Info(msg string, keysAndValues ...interface{}) {
	a.logger.Debug().Fields(fields(keysAndValues)).Msg(msg)
}

// Error logs scheduler failures, including recovered job panics.
func (a CronAdapter) Error(err error, msg string, keysAndValues ...interface{}) {
	a.logger.Error().Err(err).Fields(fields(keysAndValues)).Msg(msg)
}

func fields(keysAndValues []interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		out[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	return out
}

func isDevelopment(appEnv string) bool {
	switch strings.ToLower(strings.TrimSpace(appEnv)) {
	case "development", "dev", "local":
		return true
	default:
		return false
	}
}
