package postgresql

import (
	"context"
	"database/sql"
	"time"

	"github.com/magabrotheeeer/techblog/internal/models"
	"github.com/magabrotheeeer/techblog/internal/storage"
)

// SessionStore хранит сессии в таблице sessions.
type SessionStore struct {
	db  *sql.DB
	now func() time.Time
}

var _ storage.SessionStore = (*SessionStore)(nil)

// Get возвращает действующую сессию.
func (s *SessionStore) Get(ctx context.Context, id string) (*models.Session, error) {
	const op = "storage.postgresql.SessionStore.Get"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}
	var sess models.Session
	err := s.db.QueryRowContext(ctx,
		"SELECT sid, user_id, expire FROM sessions WHERE sid = $1 AND expire > $2",
		id, s.now().UTC(),
	).Scan(&sess.ID, &sess.UserID, &sess.ExpiresAt)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	return &sess, nil
}

// Set создаёт или продлевает сессию.
func (s *SessionStore) Set(ctx context.Context, sess models.Session) error {
	const op = "storage.postgresql.SessionStore.Set"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (sid, user_id, expire) VALUES ($1, $2, $3)
		ON CONFLICT (sid) DO UPDATE SET user_id = EXCLUDED.user_id, expire = EXCLUDED.expire`,
		sess.ID, sess.UserID, sess.ExpiresAt.UTC())
	return wrapErr(op, err)
}

// Destroy удаляет сессию. Отсутствие сессии ошибкой не считается.
func (s *SessionStore) Destroy(ctx context.Context, id string) error {
	const op = "storage.postgresql.SessionStore.Destroy"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE sid = $1", id)
	return wrapErr(op, err)
}

// Prune удаляет истёкшие сессии.
func (s *SessionStore) Prune(ctx context.Context) (int, error) {
	const op = "storage.postgresql.SessionStore.Prune"
	if err := checkCtx(ctx, op); err != nil {
		return 0, err
	}
	res, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE expire <= $1", s.now().UTC())
	if err != nil {
		return 0, wrapErr(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, wrapErr(op, err)
	}
	return int(n), nil
}
