package services

import (
	"context"
	"log/slog"
	"time"
)

// ServiceLogger tags every line with the service name and classifies
// operation outcomes by error kind.
type ServiceLogger struct {
	logger *slog.Logger
}

func NewServiceLogger(logger *slog.Logger, service string) *ServiceLogger {
	return &ServiceLogger{logger: logger.With("service", service)}
}

func (l *ServiceLogger) Logger() *slog.Logger {
	return l.logger
}

// LogOperation writes one line per finished operation. Expected failures
// (validation, permission, not found, state conflicts) are logged below error.
func (l *ServiceLogger) LogOperation(ctx context.Context, operation, userID string, resourceID uint, duration time.Duration, err error) {
	level, status := classify(err)

	attrs := []slog.Attr{
		slog.String("operation", operation),
		slog.String("user_id", userID),
		slog.Uint64("resource_id", uint64(resourceID)),
		slog.String("status", status),
		slog.Duration("duration", duration),
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}

	l.logger.LogAttrs(ctx, level, "Service operation", attrs...)
}

// Operation is started by Begin and closed by End.
type Operation struct {
	l          *ServiceLogger
	ctx        context.Context
	name       string
	userID     string
	resourceID uint
	start      time.Time
}

func (l *ServiceLogger) Begin(ctx context.Context, operation, userID string, resourceID uint) *Operation {
	return &Operation{l: l, ctx: ctx, name: operation, userID: userID, resourceID: resourceID, start: time.Now()}
}

// End logs the outcome. resourceID replaces the one given to Begin when
// non-zero, e.g. the id of a created attempt.
func (o *Operation) End(resourceID uint, err error) {
	if resourceID != 0 {
		o.resourceID = resourceID
	}
	o.l.LogOperation(o.ctx, o.name, o.userID, o.resourceID, time.Since(o.start), err)
}

func classify(err error) (slog.Level, string) {
	switch {
	case err == nil:
		return slog.LevelInfo, "success"
	case IsValidation(err) || IsBusinessRule(err):
		return slog.LevelWarn, "validation_error"
	case IsUnauthorized(err):
		return slog.LevelWarn, "unauthorized"
	case IsNotFound(err):
		return slog.LevelInfo, "not_found"
	case IsConflict(err):
		return slog.LevelWarn, "conflict"
	default:
		return slog.LevelError, "error"
	}
}
