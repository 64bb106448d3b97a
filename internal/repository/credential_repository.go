package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/polrydian/polrydian-api/internal/models"
)

type CredentialRepository interface {
	Create(ctx context.Context, tx *sql.Tx, c *models.Credential) (int64, error)
	Replace(ctx context.Context, c *models.Credential) (int64, error)
	GetActive(ctx context.Context, userID, platform string) (*models.Credential, error)
	ListActiveByUserID(ctx context.Context, userID string) ([]*models.Credential, error)
	ListActiveExpiringBefore(ctx context.Context, before time.Time) ([]*models.Credential, error)
	Deactivate(ctx context.Context, id int64) error
	DeactivateByPlatform(ctx context.Context, tx *sql.Tx, userID, platform string) (int64, error)
}

type credentialRepository struct {
	db *sql.DB
}

func NewCredentialRepository(db *sql.DB) CredentialRepository {
	return &credentialRepository{db: db}
}

const credentialColumns = `id, user_id, platform, platform_user_id, access_token_encrypted,
	profile_data, expires_at, is_active, created_at, updated_at`

func (r *credentialRepository) Create(ctx context.Context, tx *sql.Tx, c *models.Credential) (int64, error) {
	var err error
	var id int64

	insertQuery := `
		INSERT INTO social_credentials(
			user_id,
			platform,
			platform_user_id,
			access_token_encrypted,
			profile_data,
			expires_at,
			is_active
		)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE)
		RETURNING id
	`

	args := []interface{}{
		c.UserID,
		c.Platform,
		c.PlatformUserID,
		c.AccessTokenEncrypted,
		c.ProfileData,
		c.ExpiresAt,
	}

	if tx != nil {
		err = tx.QueryRowContext(ctx, insertQuery, args...).Scan(&id)
	} else {
		err = r.db.QueryRowContext(ctx, insertQuery, args...).Scan(&id)
	}

	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

// Replace deactivates every active credential for the same user and platform
// and inserts c in one transaction.
func (r *credentialRepository) Replace(ctx context.Context, c *models.Credential) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	defer tx.Rollback()

	if _, err := r.DeactivateByPlatform(ctx, tx, c.UserID, c.Platform); err != nil {
		return 0, err
	}

	id, err := r.Create(ctx, tx, c)
	if err != nil {
		return 0, err
	}

	if err = tx.Commit(); err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return id, nil
}

// GetActive returns the most recently created active credential, or nil when
// the user has not connected the platform.
func (r *credentialRepository) GetActive(ctx context.Context, userID, platform string) (*models.Credential, error) {
	query := `SELECT ` + credentialColumns + `
		FROM social_credentials
		WHERE user_id = $1 AND platform = $2 AND is_active = TRUE
		ORDER BY created_at DESC
		LIMIT 1`

	c, err := scanCredential(r.db.QueryRowContext(ctx, query, userID, platform))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return c, nil
}

func (r *credentialRepository) ListActiveByUserID(ctx context.Context, userID string) ([]*models.Credential, error) {
	query := `SELECT DISTINCT ON (platform) ` + credentialColumns + `
		FROM social_credentials
		WHERE user_id = $1 AND is_active = TRUE
		ORDER BY platform, created_at DESC`

	return r.list(ctx, query, userID)
}

func (r *credentialRepository) ListActiveExpiringBefore(ctx context.Context, before time.Time) ([]*models.Credential, error) {
	query := `SELECT ` + credentialColumns + `
		FROM social_credentials
		WHERE is_active = TRUE AND expires_at < $1
		ORDER BY expires_at`

	return r.list(ctx, query, before)
}

func (r *credentialRepository) list(ctx context.Context, query string, args ...interface{}) ([]*models.Credential, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var credentials []*models.Credential
	for rows.Next() {
		c, err := scanCredential(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		credentials = append(credentials, c)
	}

	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return credentials, nil
}

func (r *credentialRepository) Deactivate(ctx context.Context, id int64) error {
	query := `UPDATE social_credentials SET is_active = FALSE, updated_at = CURRENT_TIMESTAMP WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *credentialRepository) DeactivateByPlatform(ctx context.Context, tx *sql.Tx, userID, platform string) (int64, error) {
	query := `
		UPDATE social_credentials
		SET is_active = FALSE, updated_at = CURRENT_TIMESTAMP
		WHERE user_id = $1 AND platform = $2 AND is_active = TRUE`

	var result sql.Result
	var err error
	if tx != nil {
		result, err = tx.ExecContext(ctx, query, userID, platform)
	} else {
		result, err = r.db.ExecContext(ctx, query, userID, platform)
	}
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return affected, nil
}

func scanCredential(row rowScanner) (*models.Credential, error) {
	var c models.Credential
	err := row.Scan(&c.ID, &c.UserID, &c.Platform, &c.PlatformUserID, &c.AccessTokenEncrypted,
		&c.ProfileData, &c.ExpiresAt, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
