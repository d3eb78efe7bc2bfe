package persistence

import (
	"context"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ignatzorin/skillswap-backend/internal/pkg/apperror"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// withTransaction выполняет fn в транзакции. Ошибка fn или panic откатывают транзакцию.
func withTransaction(ctx context.Context, db *sqlx.DB, fn func(*sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return apperror.Persistence(err, "не удалось начать транзакцию")
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return apperror.Persistence(err, "не удалось зафиксировать транзакцию")
	}
	return nil
}

func pqCode(err error) (string, string) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code), pqErr.Constraint
	}
	return "", ""
}

func isUniqueViolation(err error, constraint string) bool {
	code, c := pqCode(err)
	return code == pgUniqueViolation && (constraint == "" || c == constraint)
}

func isForeignKeyViolation(err error) bool {
	code, _ := pqCode(err)
	return code == pgForeignKeyViolation
}
