package logger

import (
	"context"
	"io"
	"os"
	"strings"

	"car-listing/internal/shared/contextkeys"
)

// Constants for configuration
const (
	// Log formats
	logFormatJSON = "json"
	logFormatText = "text"

	// Backends
	BackendLogrus = "logrus"
	BackendZap    = "zap"

	// Environment types
	envProduction = "production"
	envProd       = "prod"

	// Timestamp format
	timestampFormat = "2006-01-02T15:04:05.000Z07:00"
	textTimestamp   = "2006-01-02 15:04:05"
)

// Logger defines the interface for structured logging operations
type Logger interface {
	Debug(args ...interface{})
	Info(args ...interface{})
	Warn(args ...interface{})
	Error(args ...interface{})
	Fatal(args ...interface{})
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Fatalf(format string, args ...interface{})
	WithFields(fields map[string]interface{}) Logger
	WithContext(ctx context.Context) Logger
	WithComponent(component string) Logger
}

// Config selects the backend and output shape of a Logger.
type Config struct {
	Level       string
	Format      string
	Backend     string
	Environment string
	Output      io.Writer
}

// ConfigFromEnv reads LOG_LEVEL, LOG_FORMAT, LOG_BACKEND and ENVIRONMENT.
func ConfigFromEnv() Config {
	return Config{
		Level:       os.Getenv("LOG_LEVEL"),
		Format:      os.Getenv("LOG_FORMAT"),
		Backend:     os.Getenv("LOG_BACKEND"),
		Environment: os.Getenv("ENVIRONMENT"),
	}
}

func (c Config) json() bool {
	env := strings.ToLower(c.Environment)
	return strings.ToLower(c.Format) == logFormatJSON || env == envProduction || env == envProd
}

func (c Config) output() io.Writer {
	if c.Output == nil {
		return os.Stdout
	}
	return c.Output
}

// NewLogger creates a new logger instance configured from the environment
func NewLogger() Logger {
	return New(ConfigFromEnv())
}

// NewLoggerWithConfig creates a logrus logger with an explicit level and format
func NewLoggerWithConfig(level string, format string) Logger {
	return New(Config{Level: level, Format: format})
}

// New builds a Logger for cfg. Unknown backends fall back to logrus.
func New(cfg Config) Logger {
	if strings.ToLower(cfg.Backend) == BackendZap {
		return newZapLogger(cfg)
	}
	return newLogrusLogger(cfg)
}

// contextFields returns the request-scoped values carried by ctx, keyed by
// their log field names.
func contextFields(ctx context.Context) map[string]interface{} {
	fields := map[string]interface{}{}
	if ctx == nil {
		return fields
	}
	addContextField(ctx, contextkeys.UserIDKey, "user_id", fields)
	addContextField(ctx, contextkeys.RequestIDKey, "request_id", fields)
	addContextField(ctx, contextkeys.ComponentKey, "component", fields)
	addContextField(ctx, contextkeys.OperationKey, "operation", fields)
	return fields
}

func addContextField(ctx context.Context, key interface{}, fieldName string, fields map[string]interface{}) {
	if val := ctx.Value(key); val != nil {
		if strVal, ok := val.(string); ok && strVal != "" {
			fields[fieldName] = strVal
		}
	}
}

// Global logger instance
var defaultLogger Logger

func init() {
	defaultLogger = NewLogger()
}

// SetDefault replaces the package-level logger.
func SetDefault(l Logger) {
	if l != nil {
		defaultLogger = l
	}
}

// Default returns the package-level logger.
func Default() Logger {
	return defaultLogger
}

// Package-level convenience functions

func Debug(args ...interface{}) { defaultLogger.Debug(args...) }

func Info(args ...interface{}) { defaultLogger.Info(args...) }

func Warn(args ...interface{}) { defaultLogger.Warn(args...) }

func Error(args ...interface{}) { defaultLogger.Error(args...) }

func Fatal(args ...interface{}) { defaultLogger.Fatal(args...) }

func Debugf(format string, args ...interface{}) { defaultLogger.Debugf(format, args...) }

func Infof(format string, args ...interface{}) { defaultLogger.Infof(format, args...) }

func Warnf(format string, args ...interface{}) { defaultLogger.Warnf(format, args...) }

func Errorf(format string, args ...interface{}) { defaultLogger.Errorf(format, args...) }

func Fatalf(format string, args ...interface{}) { defaultLogger.Fatalf(format, args...) }

// WithContext creates a logger with context information
func WithContext(ctx context.Context) Logger {
	return defaultLogger.WithContext(ctx)
}

// WithComponent creates a logger with component information
func WithComponent(component string) Logger {
	return defaultLogger.WithComponent(component)
}

// WithFields creates a logger with custom fields
func WithFields(fields map[string]interface{}) Logger {
	return defaultLogger.WithFields(fields)
}
