package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/polrydian/polrydian-api/internal/models"
)

type SecurityEventRepository interface {
	Create(ctx context.Context, e *models.SecurityEvent) (int64, error)
	ListRecent(ctx context.Context, severity string, limit int) ([]*models.SecurityEvent, error)
}

type securityEventRepository struct {
	db *sql.DB
}

func NewSecurityEventRepository(db *sql.DB) SecurityEventRepository {
	return &securityEventRepository{db: db}
}

func (r *securityEventRepository) Create(ctx context.Context, e *models.SecurityEvent) (int64, error) {
	query := `
		INSERT INTO security_audit_logs (user_id, action, details, severity, ip_address)
		VALUES (NULLIF($1, '')::uuid, $2, $3, $4, $5)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query, e.UserID, e.Action, e.Details, e.Severity, e.IPAddress).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

// ListRecent returns the newest events first. An empty severity matches all.
func (r *securityEventRepository) ListRecent(ctx context.Context, severity string, limit int) ([]*models.SecurityEvent, error) {
	query := `
		SELECT id, COALESCE(user_id::text, ''), action, details, severity, ip_address, created_at
		FROM security_audit_logs
		WHERE ($1 = '' OR severity = $1)
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, severity, limit)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var events []*models.SecurityEvent
	for rows.Next() {
		var e models.SecurityEvent
		err := rows.Scan(&e.ID, &e.UserID, &e.Action, &e.Details, &e.Severity, &e.IPAddress, &e.CreatedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		events = append(events, &e)
	}

	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return events, nil
}
