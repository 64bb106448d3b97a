package repository

import (
	"context"
	"database/sql"
	"log/slog"
)

// TokenCryptoRepository calls the database-side token encryption functions.
type TokenCryptoRepository interface {
	EncryptToken(ctx context.Context, plaintext string) (string, error)
	DecryptToken(ctx context.Context, ciphertext string) (string, error)
}

type tokenCryptoRepository struct {
	db *sql.DB
}

func NewTokenCryptoRepository(db *sql.DB) TokenCryptoRepository {
	return &tokenCryptoRepository{db: db}
}

func (r *tokenCryptoRepository) EncryptToken(ctx context.Context, plaintext string) (string, error) {
	var ciphertext string
	err := r.db.QueryRowContext(ctx, `SELECT encrypt_token($1)`, plaintext).Scan(&ciphertext)
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}
	return ciphertext, nil
}

func (r *tokenCryptoRepository) DecryptToken(ctx context.Context, ciphertext string) (string, error) {
	var plaintext sql.NullString
	err := r.db.QueryRowContext(ctx, `SELECT decrypt_token($1)`, ciphertext).Scan(&plaintext)
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}
	return plaintext.String, nil
}
