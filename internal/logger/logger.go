// Package logger provides leveled logging with support for debug, info, warn, and error levels.
// It wraps a zap sugared logger behind a small printf-style API so call sites stay terse.
package logger

import (
	"fmt"
	"log"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level represents a logging level
type Level int

const (
	// DebugLevel logs are typically voluminous, and are usually disabled in production.
	DebugLevel Level = iota
	// InfoLevel is the default logging priority.
	InfoLevel
	// WarnLevel logs are more important than Info, but don't need individual human review.
	WarnLevel
	// ErrorLevel logs are high-priority. If an application is running smoothly, it shouldn't generate any error-level logs.
	ErrorLevel
)

// Logger provides leveled logging
type Logger struct {
	level Level
	sugar *zap.SugaredLogger
}

var (
	// Global logger instance
	defaultLogger *Logger
)

// ParseLevel maps a level name to a Level, defaulting to InfoLevel.
func ParseLevel(level string) Level {
	switch strings.ToLower(level) {
	case "debug":
		return DebugLevel
	case "info":
		return InfoLevel
	case "warn":
		return WarnLevel
	case "error":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

func (l Level) zapLevel() zapcore.Level {
	switch l {
	case DebugLevel:
		return zapcore.DebugLevel
	case WarnLevel:
		return zapcore.WarnLevel
	case ErrorLevel:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// New builds a Logger. Format "text" selects the console encoder, anything
// else the JSON production encoder.
func New(level string, format string) (*Logger, error) {
	l := ParseLevel(level)

	var cfg zap.Config
	if strings.ToLower(format) == "text" {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(l.zapLevel())
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.DisableStacktrace = true

	// Skip the package-level wrappers so the caller field points at the call site.
	z, err := cfg.Build(zap.AddCallerSkip(2))
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	return &Logger{level: l, sugar: z.Sugar()}, nil
}

// Init initializes the default logger with the specified level and format
func Init(level string, format string) {
	l, err := New(level, format)
	if err != nil {
		log.Printf("[WARN] falling back to no-op logger: %v", err)
		l = &Logger{level: ParseLevel(level), sugar: zap.NewNop().Sugar()}
	}
	defaultLogger = l
}

// Sync flushes any buffered log entries.
func Sync() {
	if defaultLogger != nil {
		_ = defaultLogger.sugar.Sync()
	}
}

// Enabled reports whether messages at level would be written.
func Enabled(level Level) bool {
	return defaultLogger != nil && defaultLogger.level <= level
}

func (l *Logger) logf(level Level, format string, args ...interface{}) {
	if l.level > level {
		return
	}
	switch level {
	case DebugLevel:
		l.sugar.Debugf(format, args...)
	case InfoLevel:
		l.sugar.Infof(format, args...)
	case WarnLevel:
		l.sugar.Warnf(format, args...)
	default:
		l.sugar.Errorf(format, args...)
	}
}

// Debug logs a message at DebugLevel
func Debug(format string, args ...interface{}) {
	if defaultLogger != nil {
		defaultLogger.logf(DebugLevel, format, args...)
	}
}

// Info logs a message at InfoLevel
func Info(format string, args ...interface{}) {
	if defaultLogger != nil {
		defaultLogger.logf(InfoLevel, format, args...)
	}
}

// Warn logs a message at WarnLevel
func Warn(format string, args ...interface{}) {
	if defaultLogger != nil {
		defaultLogger.logf(WarnLevel, format, args...)
	}
}

// Error logs a message at ErrorLevel
func Error(format string, args ...interface{}) {
	if defaultLogger != nil {
		defaultLogger.logf(ErrorLevel, format, args...)
	}
}

// Fatal logs a message at ErrorLevel and exits
func Fatal(format string, args ...interface{}) {
	if defaultLogger != nil {
		defaultLogger.logf(ErrorLevel, "[FATAL] "+format, args...)
		Sync()
	} else {
		log.Printf("[FATAL] "+format, args...)
	}
	os.Exit(1)
}
