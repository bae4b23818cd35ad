package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"
)

// Level is a logging threshold
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// ParseLevel maps a LOG_LEVEL value to a Level, defaulting to info
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Logger is a wrapper around the standard library logger.
// It writes to stderr; stdout is reserved for the run status line.
type Logger struct {
	*log.Logger
	channel string
	level   Level
}

// New creates a new logger tagged with the given channel
func New(channel string) *Logger {
	return NewWithWriter(channel, os.Stderr)
}

// NewWithWriter creates a logger writing to w
func NewWithWriter(channel string, w io.Writer) *Logger {
	return &Logger{
		Logger:  log.New(w, "", 0),
		channel: channel,
		level:   Global.levelOrDefault(),
	}
}

func (l *Logger) levelOrDefault() Level {
	if l == nil {
		return LevelInfo
	}
	return l.level
}

// SetLevel changes the threshold of this logger
func (l *Logger) SetLevel(level Level) {
	l.level = level
}

// formatMessage formats a log message with timestamp and channel
func (l *Logger) formatMessage(level, format string, v ...interface{}) string {
	timestamp := time.Now().Format(time.RFC3339)
	message := fmt.Sprintf(format, v...)

	if l.channel != "" {
		return fmt.Sprintf("[%s] [%s] [%s] %s", timestamp, level, l.channel, message)
	}

	return fmt.Sprintf("[%s] [%s] %s", timestamp, level, message)
}

func (l *Logger) emit(level Level, name, format string, v ...interface{}) {
	if level < l.level {
		return
	}
	l.Logger.Println(l.formatMessage(name, format, v...))
}

// Info logs an info message
func (l *Logger) Info(format string, v ...interface{}) {
	l.emit(LevelInfo, "INFO", format, v...)
}

// Error logs an error message
func (l *Logger) Error(format string, v ...interface{}) {
	l.emit(LevelError, "ERROR", format, v...)
}

// Debug logs a debug message
func (l *Logger) Debug(format string, v ...interface{}) {
	l.emit(LevelDebug, "DEBUG", format, v...)
}

// Warn logs a warning message
func (l *Logger) Warn(format string, v ...interface{}) {
	l.emit(LevelWarn, "WARN", format, v...)
}

// Global logger instance for application-wide logging
var Global = &Logger{Logger: log.New(os.Stderr, "", 0), level: LevelInfo}
