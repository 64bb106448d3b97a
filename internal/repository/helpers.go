package repository

import (
	"database/sql"
	"log/slog"
	"time"
)

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func nullBool(b *bool) sql.NullBool {
	if b == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *b, Valid: true}
}

// expectOneRow reports sql.ErrNoRows when an update matched nothing.
func expectOneRow(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
