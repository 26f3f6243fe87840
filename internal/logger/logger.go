package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"codeberg.org/mutker/ddcctl/internal/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sys/unix"
)

var log = zerolog.Nop()

type LogEvent struct {
	*zerolog.Event
}

func (e *LogEvent) Msg(msg string) {
	e.Event.Msg(msg)
}

func (e *LogEvent) Send() {
	e.Event.Send()
}

var levels = map[string]zerolog.Level{
	"debug":   zerolog.DebugLevel,
	"info":    zerolog.InfoLevel,
	"warning": zerolog.WarnLevel,
	"warn":    zerolog.WarnLevel,
	"error":   zerolog.ErrorLevel,
}

// InitWriter initializes the logger writing to out at the given level
func InitWriter(out io.Writer, level string, isService bool) error {
	output := zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.RFC3339,
		NoColor:    isService,
	}

	if isService {
		output.TimeFormat = ""
		output.FormatTimestamp = func(_ interface{}) string {
			return ""
		}
	}

	log = zerolog.New(output).With().Timestamp().Logger()

	return SetLevel(level)
}

// SetLevel sets the global log level by name
func SetLevel(level string) error {
	lvl, ok := levels[strings.ToLower(level)]
	if !ok {
		return errors.New().WithData(errors.ErrInvalidLogLevel, level)
	}
	zerolog.SetGlobalLevel(lvl)

	return nil
}

// IsService checks if the application is running as a service
func IsService() bool {
	if _, err := os.Stdin.Stat(); err != nil {
		return true
	}
	if os.Getenv("SERVICE_NAME") != "" || os.Getenv("INVOCATION_ID") != "" {
		return true
	}
	if os.Getppid() == 1 {
		return true
	}

	return unix.Getpgrp() == unix.Getpid()
}

// Debug logs a debug message
func Debug() *LogEvent {
	return &LogEvent{log.Debug()}
}

// Info logs an info message
func Info() *LogEvent {
	return &LogEvent{log.Info()}
}

// Warn logs a warning message
func Warn() *LogEvent {
	return &LogEvent{log.Warn()}
}

// Error logs an error message
func Error() *LogEvent {
	return &LogEvent{log.Error()}
}

// ErrorWithCode logs an error message with its error code
func ErrorWithCode(err errors.Error) *LogEvent {
	return &LogEvent{log.Error().
		Str("error_code", string(err.Code())).
		Str("error_message", err.Error()).
		AnErr("error", err.Unwrap())}
}

type globalLogger struct{}

// Default returns a Logger backed by the package-level logger
func Default() Logger {
	return globalLogger{}
}

func (globalLogger) Debug() *LogEvent { return Debug() }
func (globalLogger) Info() *LogEvent  { return Info() }
func (globalLogger) Warn() *LogEvent  { return Warn() }
func (globalLogger) Error() *LogEvent { return Error() }

func (globalLogger) ErrorWithCode(err errors.Error) *LogEvent {
	return ErrorWithCode(err)
}
