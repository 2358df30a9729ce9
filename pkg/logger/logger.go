// Package logger provides a level-based logger with optional file output,
// backed by zerolog.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// LogLevel represents the severity level of a log message.
type LogLevel = zerolog.Level

const (
	// LevelDebug is for detailed diagnostic information.
	LevelDebug = zerolog.DebugLevel
	// LevelInfo is for general informational messages.
	LevelInfo = zerolog.InfoLevel
	// LevelWarning is for warning messages that may require attention.
	LevelWarning = zerolog.WarnLevel
	// LevelError is for error messages indicating problems.
	LevelError = zerolog.ErrorLevel
)

// Logger writes human-readable lines to the console and, when a log file is
// configured, JSON lines to that file.
type Logger struct {
	zl   zerolog.Logger
	file *os.File
}

// ParseLogLevel converts a string to a LogLevel.
// Accepts: "DEBUG", "INFO", "WARNING"/"WARN", "ERROR"
// Defaults to LevelInfo if the input is invalid.
func ParseLogLevel(level string) LogLevel {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return LevelDebug
	case "INFO":
		return LevelInfo
	case "WARNING", "WARN":
		return LevelWarning
	case "ERROR":
		return LevelError
	default:
		return LevelInfo
	}
}

// New creates a logger writing to console (usually stderr) and, if logFile is
// set, appending to that file. A file that cannot be opened is reported on the
// console and skipped.
func New(console io.Writer, logFile string, level LogLevel) *Logger {
	if console == nil {
		console = os.Stderr
	}
	var writer io.Writer = zerolog.ConsoleWriter{
		Out:        console,
		TimeFormat: time.RFC3339,
		NoColor:    true,
	}
	var file *os.File
	if strings.TrimSpace(logFile) != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err == nil {
			file = f
			writer = zerolog.MultiLevelWriter(writer, file)
		} else {
			fmt.Fprintf(console, "failed to open log file %s: %v\n", logFile, err)
		}
	}
	return &Logger{zl: zerolog.New(writer).Level(level).With().Timestamp().Logger(), file: file}
}

// With returns a child logger that tags every line with key=value. The child
// shares the parent's log file; only the parent should be closed.
func (l *Logger) With(key, value string) *Logger {
	if l == nil {
		return nil
	}
	return &Logger{zl: l.zl.With().Str(key, value).Logger()}
}

// Close closes the log file, if one was opened.
func (l *Logger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// Debugf logs a debug message with formatting.
func (l *Logger) Debugf(format string, args ...interface{}) {
	if l == nil {
		return
	}
	l.zl.Debug().Msgf(format, args...)
}

// Infof logs an info message with formatting.
func (l *Logger) Infof(format string, args ...interface{}) {
	if l == nil {
		return
	}
	l.zl.Info().Msgf(format, args...)
}

// Warnf logs a warning message with formatting.
func (l *Logger) Warnf(format string, args ...interface{}) {
	if l == nil {
		return
	}
	l.zl.Warn().Msgf(format, args...)
}

// Errorf logs an error message with formatting.
func (l *Logger) Errorf(format string, args ...interface{}) {
	if l == nil {
		return
	}
	l.zl.Error().Msgf(format, args...)
}
