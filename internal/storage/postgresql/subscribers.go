package postgresql

import (
	"context"
	"strings"

	"github.com/magabrotheeeer/techblog/internal/models"
)

func scanSubscriber(row rowScanner) (*models.Subscriber, error) {
	var sub models.Subscriber
	if err := row.Scan(&sub.ID, &sub.Email, &sub.CreatedAt); err != nil {
		return nil, err
	}
	return &sub, nil
}

// GetSubscriber возвращает подписчика по id.
func (s *Storage) GetSubscriber(ctx context.Context, id int64) (*models.Subscriber, error) {
	const op = "storage.postgresql.GetSubscriber"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}
	sub, err := scanSubscriber(s.DB.QueryRowContext(ctx,
		"SELECT id, email, created_at FROM subscribers WHERE id = $1", id))
	if err != nil {
		return nil, wrapErr(op, err)
	}
	return sub, nil
}

// GetSubscriberByEmail ищет подписчика без учёта регистра.
func (s *Storage) GetSubscriberByEmail(ctx context.Context, email string) (*models.Subscriber, error) {
	const op = "storage.postgresql.GetSubscriberByEmail"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}
	sub, err := scanSubscriber(s.DB.QueryRowContext(ctx,
		"SELECT id, email, created_at FROM subscribers WHERE lower(email) = lower($1)", strings.TrimSpace(email)))
	if err != nil {
		return nil, wrapErr(op, err)
	}
	return sub, nil
}

// CreateSubscriber добавляет подписчика. Повторный email даёт storage.ErrConflict.
func (s *Storage) CreateSubscriber(ctx context.Context, ns models.NewSubscriber) (*models.Subscriber, error) {
	const op = "storage.postgresql.CreateSubscriber"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}
	sub := models.Subscriber{Email: strings.TrimSpace(ns.Email), CreatedAt: s.now().UTC()}
	err := s.DB.QueryRowContext(ctx,
		"INSERT INTO subscribers (email, created_at) VALUES ($1, $2) RETURNING id",
		sub.Email, sub.CreatedAt,
	).Scan(&sub.ID)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	return &sub, nil
}

// GetAllSubscribers возвращает подписчиков в порядке регистрации.
func (s *Storage) GetAllSubscribers(ctx context.Context) ([]models.Subscriber, error) {
	const op = "storage.postgresql.GetAllSubscribers"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}
	rows, err := s.DB.QueryContext(ctx, "SELECT id, email, created_at FROM subscribers ORDER BY id")
	if err != nil {
		return nil, wrapErr(op, err)
	}
	defer rows.Close()

	subs := make([]models.Subscriber, 0)
	for rows.Next() {
		sub, err := scanSubscriber(rows)
		if err != nil {
			return nil, wrapErr(op, err)
		}
		subs = append(subs, *sub)
	}
	if err = rows.Err(); err != nil {
		return nil, wrapErr(op, err)
	}
	return subs, nil
}
