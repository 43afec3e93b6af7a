package postgresql

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/techblog/internal/models"
	"github.com/magabrotheeeer/techblog/internal/storage"
)

const userColumns = "id, username, password, display_name, profile_image, is_admin"

func scanUser(row rowScanner) (*models.User, error) {
	var u models.User
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.DisplayName, &u.ProfileImage, &u.IsAdmin); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUser возвращает пользователя по id.
func (s *Storage) GetUser(ctx context.Context, id int64) (*models.User, error) {
	const op = "storage.postgresql.GetUser"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}
	u, err := scanUser(s.DB.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id = $1", id))
	if err != nil {
		return nil, wrapErr(op, err)
	}
	return u, nil
}

// GetUserByUsername ищет пользователя без учёта регистра.
func (s *Storage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	const op = "storage.postgresql.GetUserByUsername"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}
	u, err := scanUser(s.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE lower(username) = lower($1)", username))
	if err != nil {
		return nil, wrapErr(op, err)
	}
	return u, nil
}

// CreateUser создаёт пользователя. Занятое имя даёт storage.ErrConflict.
func (s *Storage) CreateUser(ctx context.Context, nu models.NewUser) (*models.User, error) {
	const op = "storage.postgresql.CreateUser"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}
	u := nu.Build(0)
	err := s.DB.QueryRowContext(ctx,
		`INSERT INTO users (username, password, display_name, profile_image, is_admin)
		VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		u.Username, u.PasswordHash, u.DisplayName, u.ProfileImage, u.IsAdmin,
	).Scan(&u.ID)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	return &u, nil
}

// UpdateUser меняет отображаемое имя, аватар или пароль.
func (s *Storage) UpdateUser(ctx context.Context, id int64, update models.UserUpdate) (*models.User, error) {
	const op = "storage.postgresql.UpdateUser"

	u, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	update.Apply(u)

	res, err := s.DB.ExecContext(ctx,
		"UPDATE users SET display_name = $2, profile_image = $3, password = $4 WHERE id = $1",
		id, u.DisplayName, u.ProfileImage, u.PasswordHash)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}
	return u, nil
}
