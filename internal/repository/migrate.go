package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/pressly/goose/v3"

	"github.com/polrydian/polrydian-api/internal/migrations"
)

var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// Migrate applies the embedded schema migrations.
func Migrate(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("postgres"); err != nil {
		slog.Info(err.Error())
		return err
	}

	if err := gooseUpContext(ctx, db, "."); err != nil {
		slog.Error("failed to apply migrations", "error", err)
		return err
	}
	return nil
}
