package logger

import (
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

// LogType represents the type of log message
type LogType string

const (
	UserLog LogType = "user"
	OpLog   LogType = "op"
)

// Field represents a key-value pair for structured logging
type Field struct {
	Key   string
	Value interface{}
}

// UnifiedLogger wraps the logrus logger shared by the User and Op streams.
type UnifiedLogger struct {
	mu     sync.RWMutex
	logger *logrus.Logger
}

var (
	unifiedLog *UnifiedLogger
	once       sync.Once
)

// GetLogger returns the global logger instance, initializing it if necessary
func GetLogger() *UnifiedLogger {
	once.Do(func() {
		logger := logrus.New()
		logger.SetOutput(os.Stdout)
		logger.SetLevel(logrus.InfoLevel)
		logger.SetFormatter(&CLIFormatter{
			DisableTimestamp: true,
			DisableLevel:     true,
		})
		unifiedLog = &UnifiedLogger{logger: logger}
	})
	return unifiedLog
}

// WithTask creates a field naming the task a message belongs to
func WithTask(name string) Field {
	return Field{Key: "task", Value: name}
}

// WithStage creates a field naming the stage a message belongs to
func WithStage(name string) Field {
	return Field{Key: "stage", Value: name}
}

func (l *UnifiedLogger) entry(fields ...Field) *logrus.Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	logFields := make(logrus.Fields, len(fields)+1)
	logFields["log_type"] = string(OpLog)
	for _, field := range fields {
		logFields[field.Key] = field.Value
	}

	return l.logger.WithFields(logFields)
}

// Error logs an error message
func (l *UnifiedLogger) Error(msg string, fields ...Field) {
	l.entry(fields...).Error(msg)
}

// Warn logs a warning message
func (l *UnifiedLogger) Warn(msg string, fields ...Field) {
	l.entry(fields...).Warn(msg)
}

// Debug logs a debug message
func (l *UnifiedLogger) Debug(msg string, fields ...Field) {
	l.entry(fields...).Debug(msg)
}

// GetInternalLogger returns the underlying logrus logger (use with caution)
func (l *UnifiedLogger) GetInternalLogger() *logrus.Logger {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.logger
}

