package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	// envLogLevel is the environment variable holding the log level
	envLogLevel = "EVOTE_LOG_LEVEL"

	// envLogFormatJSON switches the output to plain JSON when not empty
	envLogFormatJSON = "EVOTE_LOG_FORMAT_JSON"
)

// NewLogger instantiate zerolog configuration writing to stderr.
// Stdout is left to commands printing their results
func NewLogger() *zerolog.Logger {
	return NewLoggerTo(os.Stderr)
}

// NewLoggerTo instantiate zerolog configuration writing to the provided writer
func NewLoggerTo(out io.Writer) *zerolog.Logger {
	zerolog.SetGlobalLevel(levelFromEnv())

	var logger zerolog.Logger
	if strings.TrimSpace(os.Getenv(envLogFormatJSON)) == "" {
		output := zerolog.ConsoleWriter{Out: out, NoColor: true, TimeFormat: time.RFC3339}
		output.FormatLevel = func(i any) string {
			return strings.ToUpper(fmt.Sprintf("| %s |", i))
		}
		output.FormatMessage = func(i any) string {
			return fmt.Sprintf("%s", i)
		}
		logger = zerolog.New(output).With().Timestamp().Logger()
	} else {
		logger = zerolog.New(out).With().Timestamp().Logger()
	}
	return &logger
}

// levelFromEnv returns the level configured with EVOTE_LOG_LEVEL.
// Unknown or empty values fall back to warn so that command output stays readable
func levelFromEnv() zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(envLogLevel))) {
	case "panic":
		return zerolog.PanicLevel
	case "fatal":
		return zerolog.FatalLevel
	case "error":
		return zerolog.ErrorLevel
	case "info":
		return zerolog.InfoLevel
	case "debug":
		return zerolog.DebugLevel
	case "trace":
		return zerolog.TraceLevel
	}
	return zerolog.WarnLevel
}
