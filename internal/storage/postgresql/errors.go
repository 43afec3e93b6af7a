package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/magabrotheeeer/techblog/internal/lib/slug"
	"github.com/magabrotheeeer/techblog/internal/storage"
)

const slugConstraint = "posts_slug_key"

// uniqueViolation возвращает имя нарушенного ограничения уникальности.
func uniqueViolation(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return pgErr.ConstraintName, true
	}
	return "", false
}

// wrapErr переводит ошибку драйвера в таксономию storage.
//
// Ошибки сервера, не связанные с соединением (нарушение CHECK, синтаксис),
// не считаются недоступностью: переключение на память их не исправит.
func wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}
	if errors.Is(err, slug.ErrExhausted) {
		return fmt.Errorf("%s: %w: %w", op, storage.ErrConflict, err)
	}
	if _, ok := uniqueViolation(err); ok {
		return fmt.Errorf("%s: %w: %w", op, storage.ErrConflict, err)
	}
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s: %w", op, err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) &&
		!pgerrcode.IsConnectionException(pgErr.Code) &&
		!pgerrcode.IsOperatorIntervention(pgErr.Code) &&
		!pgerrcode.IsInsufficientResources(pgErr.Code) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return storage.Unavailable(op, err)
}
