// Package auth содержит логику входа администраторов, серверных сессий и профилей.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/techblog/internal/lib/jwt"
	"github.com/magabrotheeeer/techblog/internal/lib/password"
	"github.com/magabrotheeeer/techblog/internal/models"
	"github.com/magabrotheeeer/techblog/internal/storage"
	"github.com/magabrotheeeer/techblog/internal/supervisor"
)

var (
	// ErrInvalidCredentials возвращается при неверном имени пользователя или пароле.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnauthenticated возвращается, если токен недействителен или сессия завершена.
	ErrUnauthenticated = errors.New("not authenticated")
	// ErrUserExists возвращается, если имя пользователя занято.
	ErrUserExists = errors.New("username already taken")
)

// Service отвечает за вход, выход и проверку сессий.
type Service struct {
	backend supervisor.Runner
	tokens  jwt.Maker
	ttl     time.Duration
	log     *slog.Logger
	timeout time.Duration
	now     func() time.Time
}

// New создает новый экземпляр Service. ttl задаёт время жизни сессии.
func New(backend supervisor.Runner, tokens jwt.Maker, ttl time.Duration, log *slog.Logger, timeout time.Duration) *Service {
	return &Service{
		backend: backend,
		tokens:  tokens,
		ttl:     ttl,
		log:     log,
		timeout: timeout,
		now:     time.Now,
	}
}

// Login проверяет пароль, создаёт серверную сессию и возвращает подписанный токен.
func (s *Service) Login(ctx context.Context, username, rawPassword string) (string, *models.User, time.Time, error) {
	const op = "services.auth.Login"

	user, err := supervisor.Data(ctx, s.backend, s.timeout, func(ctx context.Context, st storage.Storage) (*models.User, error) {
		return st.GetUserByUsername(ctx, strings.TrimSpace(username))
	})
	if errors.Is(err, storage.ErrNotFound) {
		return "", nil, time.Time{}, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}
	if err != nil {
		return "", nil, time.Time{}, fmt.Errorf("%s: %w", op, err)
	}
	if err = password.CompareHash(user.PasswordHash, rawPassword); err != nil {
		return "", nil, time.Time{}, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	session := models.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		ExpiresAt: s.now().Add(s.ttl),
	}
	_, err = supervisor.Session(ctx, s.backend, s.timeout, func(ctx context.Context, st storage.SessionStore) (struct{}, error) {
		return struct{}{}, st.Set(ctx, session)
	})
	if err != nil {
		return "", nil, time.Time{}, fmt.Errorf("%s: %w", op, err)
	}

	token, err := s.tokens.GenerateToken(session.ID, user.ID)
	if err != nil {
		return "", nil, time.Time{}, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("user logged in", slog.Int64("user_id", user.ID))
	return token, user, session.ExpiresAt, nil
}

// Logout завершает сессию. Недействительный токен ошибкой не считается.
func (s *Service) Logout(ctx context.Context, token string) error {
	const op = "services.auth.Logout"
	claims, err := s.tokens.ParseToken(token)
	if err != nil {
		return nil
	}
	_, err = supervisor.Session(ctx, s.backend, s.timeout, func(ctx context.Context, st storage.SessionStore) (struct{}, error) {
		return struct{}{}, st.Destroy(ctx, claims.SessionID)
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Authenticate возвращает пользователя по токену действующей сессии.
func (s *Service) Authenticate(ctx context.Context, token string) (*models.User, error) {
	const op = "services.auth.Authenticate"
	claims, err := s.tokens.ParseToken(token)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrUnauthenticated, err)
	}

	session, err := supervisor.Session(ctx, s.backend, s.timeout, func(ctx context.Context, st storage.SessionStore) (*models.Session, error) {
		return st.Get(ctx, claims.SessionID)
	})
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, ErrUnauthenticated)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if session.UserID != claims.UserID {
		return nil, fmt.Errorf("%s: %w", op, ErrUnauthenticated)
	}

	user, err := supervisor.Data(ctx, s.backend, s.timeout, func(ctx context.Context, st storage.Storage) (*models.User, error) {
		return st.GetUser(ctx, session.UserID)
	})
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, ErrUnauthenticated)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return user, nil
}

// Register создаёт пользователя с хэшированием пароля.
func (s *Service) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	const op = "services.auth.Register"
	hashed, err := password.GetHash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	nu := models.NewUser{
		Username:     strings.TrimSpace(req.Username),
		PasswordHash: hashed,
		DisplayName:  req.DisplayName,
		ProfileImage: req.ProfileImage,
		IsAdmin:      req.IsAdmin,
	}
	user, err := supervisor.Data(ctx, s.backend, s.timeout, func(ctx context.Context, st storage.Storage) (*models.User, error) {
		return st.CreateUser(ctx, nu)
	})
	if errors.Is(err, storage.ErrConflict) {
		return nil, fmt.Errorf("%s: %w", op, ErrUserExists)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("user registered", slog.Int64("user_id", user.ID), slog.Bool("is_admin", user.IsAdmin))
	return user, nil
}

// UpdateProfile меняет отображаемое имя, аватар или пароль пользователя.
func (s *Service) UpdateProfile(ctx context.Context, userID int64, req models.ProfileRequest) (*models.User, error) {
	const op = "services.auth.UpdateProfile"
	update := models.UserUpdate{DisplayName: req.DisplayName, ProfileImage: req.ProfileImage}
	if req.Password != nil {
		hashed, err := password.GetHash(*req.Password)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		update.PasswordHash = &hashed
	}
	user, err := supervisor.Data(ctx, s.backend, s.timeout, func(ctx context.Context, st storage.Storage) (*models.User, error) {
		return st.UpdateUser(ctx, userID, update)
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return user, nil
}

// PruneSessions удаляет истёкшие сессии активного хранилища сессий.
func (s *Service) PruneSessions(ctx context.Context) (int, error) {
	const op = "services.auth.PruneSessions"
	n, err := supervisor.Session(ctx, s.backend, s.timeout, func(ctx context.Context, st storage.SessionStore) (int, error) {
		return st.Prune(ctx)
	})
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}
