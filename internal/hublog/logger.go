// Package hublog provides structured logging with trace/integration/monitor
// context propagation for the hub daemon.
package hublog

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ContextKey is the type for context keys carried by this package.
type ContextKey string

const (
	TraceIDKey       ContextKey = "trace_id"
	IntegrationIDKey ContextKey = "integration_id"
	MonitorIDKey     ContextKey = "monitor_id"
)

// Logger wraps logrus.Logger with hub-specific structured helpers.
type Logger struct {
	*logrus.Logger
	service string
}

// New creates a Logger for the named service ("hubd", "monitor:hass", ...).
func New(service, level, format string) *Logger {
	logger := logrus.New()

	logLevel, err := logrus.ParseLevel(level)
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	if format == "text" {
		logger.SetFormatter(&logrus.TextFormatter{
			TimestampFormat: time.RFC3339,
			FullTimestamp:   true,
		})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
			},
		})
	}

	logger.SetOutput(os.Stdout)

	return &Logger{Logger: logger, service: service}
}

// NewFromEnv builds a logger from HUB_LOG_LEVEL / HUB_LOG_FORMAT, defaulting
// to "info" / "json".
func NewFromEnv(service string) *Logger {
	level := strings.TrimSpace(os.Getenv("HUB_LOG_LEVEL"))
	if level == "" {
		level = "info"
	}
	format := strings.TrimSpace(os.Getenv("HUB_LOG_FORMAT"))
	if format == "" {
		format = "json"
	}
	return New(service, level, format)
}

// WithContext returns an entry enriched with trace/integration/monitor ids
// carried in ctx.
func (l *Logger) WithContext(ctx context.Context) *logrus.Entry {
	entry := l.Logger.WithField("service", l.service)
	if v := ctx.Value(TraceIDKey); v != nil {
		entry = entry.WithField("trace_id", v)
	}
	if v := ctx.Value(IntegrationIDKey); v != nil {
		entry = entry.WithField("integration_id", v)
	}
	if v := ctx.Value(MonitorIDKey); v != nil {
		entry = entry.WithField("monitor_id", v)
	}
	return entry
}

// WithFields returns an entry with custom fields plus the service tag.
func (l *Logger) WithFields(fields map[string]any) *logrus.Entry {
	if fields == nil {
		fields = map[string]any{}
	}
	fields["service"] = l.service
	return l.Logger.WithFields(fields)
}

// WithError returns an entry annotated with err.
func (l *Logger) WithError(err error) *logrus.Entry {
	return l.Logger.WithFields(logrus.Fields{"service": l.service, "error": err.Error()})
}

// Context helpers.

func NewTraceID() string { return uuid.New().String() }

func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, TraceIDKey, traceID)
}

func WithIntegrationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, IntegrationIDKey, id)
}

func WithMonitorID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, MonitorIDKey, id)
}

// Domain-specific structured helpers.

// LogMonitorCycle logs the outcome of one monitor do_work cycle.
func (l *Logger) LogMonitorCycle(ctx context.Context, monitorID string, duration time.Duration, err error) {
	entry := l.WithContext(ctx).WithFields(logrus.Fields{
		"monitor_id":  monitorID,
		"duration_ms": duration.Milliseconds(),
	})
	if err != nil {
		entry.WithError(err).Warn("monitor cycle failed")
	} else {
		entry.Debug("monitor cycle completed")
	}
}

// LogSync logs the result of a sync engine pass.
func (l *Logger) LogSync(ctx context.Context, integrationID string, created, updated, removed, failed int) {
	l.WithContext(ctx).WithFields(logrus.Fields{
		"integration_id": integrationID,
		"created":        created,
		"updated":        updated,
		"removed":        removed,
		"failed":         failed,
	}).Info("sync pass complete")
}

// LogControl logs a controller dispatch attempt.
func (l *Logger) LogControl(ctx context.Context, integrationKey, controlValue string, ok bool, errs []string) {
	entry := l.WithContext(ctx).WithFields(logrus.Fields{
		"integration_key": integrationKey,
		"control_value":   controlValue,
		"ok":              ok,
	})
	if len(errs) > 0 {
		entry.WithField("errors", errs).Warn("control dispatch failed")
		return
	}
	entry.Info("control dispatched")
}

// LogAPISourceCall logs a single remote API call's outcome, feeding the
// monitor's ApiSourceHealth bookkeeping upstream.
func (l *Logger) LogAPISourceCall(ctx context.Context, sourceID string, duration time.Duration, err error) {
	entry := l.WithContext(ctx).WithFields(logrus.Fields{
		"api_source":  sourceID,
		"duration_ms": duration.Milliseconds(),
	})
	if err != nil {
		entry.WithError(err).Debug("api source call failed")
		return
	}
	entry.Debug("api source call succeeded")
}

// Global default logger.

var defaultLogger *Logger

func InitDefault(service, level, format string) { defaultLogger = New(service, level, format) }

func Default() *Logger {
	if defaultLogger == nil {
		defaultLogger = NewFromEnv("hub")
	}
	return defaultLogger
}
