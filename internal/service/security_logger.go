package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/polrydian/polrydian-api/internal/models"
	"github.com/polrydian/polrydian-api/internal/repository"
)

const (
	defaultEventLimit = 100
	maxEventLimit     = 500
)

// SecurityLogger appends audit records. Log never fails the caller: store
// errors and panics are only reported through slog.
type SecurityLogger interface {
	Log(ctx context.Context, action string, details models.SecurityDetails, severity string)
	Recent(ctx context.Context, severity string, limit int) ([]*models.SecurityEvent, error)
}

type securityLogger struct {
	se repository.SecurityEventRepository
}

func NewSecurityLogger(se repository.SecurityEventRepository) SecurityLogger {
	return &securityLogger{se: se}
}

func (l *securityLogger) Log(ctx context.Context, action string, details models.SecurityDetails, severity string) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("security event logging panicked", "action", action, "panic", fmt.Sprint(r))
		}
	}()

	actor := ActorFrom(ctx)
	event := &models.SecurityEvent{
		UserID:    actor.UserID,
		Action:    action,
		Details:   details,
		Severity:  severity,
		IPAddress: actor.IPAddress,
	}

	// The audit record must survive a cancelled request.
	if _, err := l.se.Create(context.WithoutCancel(ctx), event); err != nil {
		slog.Error("failed to write security event", "action", action, "severity", severity, "error", err)
	}
}

func (l *securityLogger) Recent(ctx context.Context, severity string, limit int) ([]*models.SecurityEvent, error) {
	switch severity {
	case "", models.SeverityLow, models.SeverityMedium, models.SeverityHigh, models.SeverityCritical:
	default:
		return nil, fmt.Errorf("%w: unknown severity %q", ErrInvalidRequest, severity)
	}

	if limit <= 0 {
		limit = defaultEventLimit
	}
	if limit > maxEventLimit {
		limit = maxEventLimit
	}

	events, err := l.se.ListRecent(ctx, severity, limit)
	if err != nil {
		return nil, err
	}
	return events, nil
}
