package logging

import (
	"context"
	"fmt"
	"io"
	"strings"

	log "github.com/sirupsen/logrus"
)

// LogLevel represents the logging level
type LogLevel int

const (
	// LogLevelError represents error level logging
	LogLevelError LogLevel = iota
	// LogLevelWarn represents warning level logging
	LogLevelWarn
	// LogLevelInfo represents info level logging
	LogLevelInfo
	// LogLevelDebug represents debug level logging
	LogLevelDebug
)

// Logger wraps a logrus.Logger
type Logger struct {
	logger *log.Logger
}

type contextKey struct{}

var (
	// Default logger instance
	defaultLogger *Logger
)

func init() {
	defaultLogger = NewLogger(LogLevelInfo)
}

// NewLogger creates a new logger with the specified level
func NewLogger(level LogLevel) *Logger {
	logger := log.New()
	logger.SetLevel(logrusLevelFromLogLevel(level))
	logger.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	return &Logger{
		logger: logger,
	}
}

func logrusLevelFromLogLevel(level LogLevel) log.Level {
	switch level {
	case LogLevelDebug:
		return log.DebugLevel
	case LogLevelInfo:
		return log.InfoLevel
	case LogLevelWarn:
		return log.WarnLevel
	case LogLevelError:
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

// SetLogLevel sets the log level for the default logger
func SetLogLevel(level LogLevel) {
	defaultLogger.logger.SetLevel(logrusLevelFromLogLevel(level))
}

// SetLogLevelFromString sets the log level from a string
func SetLogLevelFromString(levelStr string) error {
	var level LogLevel
	switch strings.ToLower(levelStr) {
	case "debug":
		level = LogLevelDebug
	case "info":
		level = LogLevelInfo
	case "warn", "warning":
		level = LogLevelWarn
	case "error":
		level = LogLevelError
	default:
		return fmt.Errorf("invalid log level: %s", levelStr)
	}
	SetLogLevel(level)
	return nil
}

// SetFormat switches the default logger between "text" and "json" output
func SetFormat(format string) error {
	switch strings.ToLower(format) {
	case "", "text":
		defaultLogger.logger.SetFormatter(&log.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	case "json":
		defaultLogger.logger.SetFormatter(&log.JSONFormatter{})
	default:
		return fmt.Errorf("invalid log format: %s", format)
	}
	return nil
}

// Debug logs a debug message
func Debug(format string, args ...interface{}) {
	defaultLogger.logger.Debugf(format, args...)
}

// Info logs an info message
func Info(format string, args ...interface{}) {
	defaultLogger.logger.Infof(format, args...)
}

// Warn logs a warning message
func Warn(format string, args ...interface{}) {
	defaultLogger.logger.Warnf(format, args...)
}

// Error logs an error message
func Error(format string, args ...interface{}) {
	defaultLogger.logger.Errorf(format, args...)
}

// IsDebugEnabled returns true if debug logging is enabled
func IsDebugEnabled() bool {
	return defaultLogger.logger.GetLevel() >= log.DebugLevel
}

// SetOutput sets the output for the default logger
func SetOutput(output io.Writer) {
	defaultLogger.logger.SetOutput(output)
}

// Output returns the writer of the default logger
func Output() io.Writer {
	return defaultLogger.logger.Out
}

// WithField adds a field to the logger
func WithField(key string, value interface{}) *log.Entry {
	return defaultLogger.logger.WithField(key, value)
}

// WithFields adds multiple fields to the logger
func WithFields(fields log.Fields) *log.Entry {
	return defaultLogger.logger.WithFields(fields)
}

// WithError adds an error field to the logger
func WithError(err error) *log.Entry {
	return defaultLogger.logger.WithError(err)
}

// NewContext returns a copy of ctx carrying entry
func NewContext(ctx context.Context, entry *log.Entry) context.Context {
	return context.WithValue(ctx, contextKey{}, entry)
}

// FromContext returns the entry stored in ctx, or a bare entry of the
// default logger when there is none.
func FromContext(ctx context.Context) *log.Entry {
	if ctx != nil {
		if entry, ok := ctx.Value(contextKey{}).(*log.Entry); ok {
			return entry
		}
	}
	return log.NewEntry(defaultLogger.logger)
}
