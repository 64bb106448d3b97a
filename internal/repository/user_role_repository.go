package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/polrydian/polrydian-api/internal/models"
)

type UserRoleRepository interface {
	HasRole(ctx context.Context, userID, role string) (bool, error)
	GetByUserID(ctx context.Context, userID string) ([]*models.UserRole, error)
	Grant(ctx context.Context, userID, role string) error
}

type userRoleRepository struct {
	db *sql.DB
}

func NewUserRoleRepository(db *sql.DB) UserRoleRepository {
	return &userRoleRepository{db: db}
}

func (r *userRoleRepository) HasRole(ctx context.Context, userID, role string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM user_roles WHERE user_id = $1 AND role = $2)`

	var exists bool
	err := r.db.QueryRowContext(ctx, query, userID, role).Scan(&exists)
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}
	return exists, nil
}

func (r *userRoleRepository) GetByUserID(ctx context.Context, userID string) ([]*models.UserRole, error) {
	query := `SELECT id, user_id, role, created_at FROM user_roles WHERE user_id = $1 ORDER BY role`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var roles []*models.UserRole
	for rows.Next() {
		var ur models.UserRole
		if err := rows.Scan(&ur.ID, &ur.UserID, &ur.Role, &ur.CreatedAt); err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		roles = append(roles, &ur)
	}

	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return roles, nil
}

func (r *userRoleRepository) Grant(ctx context.Context, userID, role string) error {
	query := `INSERT INTO user_roles (user_id, role) VALUES ($1, $2) ON CONFLICT (user_id, role) DO NOTHING`
	_, err := r.db.ExecContext(ctx, query, userID, role)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
