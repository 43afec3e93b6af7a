// Package memory реализует хранилище блога в памяти процесса.
//
// Используется по умолчанию и как аварийный бэкенд: при каждом переключении
// супервизор создаёт новый экземпляр через NewSeeded, и все данные прежнего
// бэкенда теряются.
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/magabrotheeeer/techblog/internal/models"
	"github.com/magabrotheeeer/techblog/internal/storage"
)

// seedSpacing разводит даты демонстрационных постов.
const seedSpacing = 3 * 24 * time.Hour

// Storage хранит пользователей, посты и подписчиков в map с счётчиками id.
type Storage struct {
	mu          sync.RWMutex
	users       map[int64]models.User
	posts       map[int64]models.Post
	subscribers map[int64]models.Subscriber

	nextUserID       int64
	nextPostID       int64
	nextSubscriberID int64

	sessions *SessionStore
	now      func() time.Time
}

var _ storage.Storage = (*Storage)(nil)

// New возвращает пустое хранилище.
func New() *Storage {
	return &Storage{
		users:            make(map[int64]models.User),
		posts:            make(map[int64]models.Post),
		subscribers:      make(map[int64]models.Subscriber),
		nextUserID:       1,
		nextPostID:       1,
		nextSubscriberID: 1,
		sessions:         NewSessionStore(),
		now:              time.Now,
	}
}

// NewSeeded возвращает хранилище с администратором и демонстрационными постами.
func NewSeeded(ctx context.Context, admin storage.Admin) (*Storage, error) {
	const op = "memory.NewSeeded"
	s := New()

	user, err := storage.EnsureAdmin(ctx, s, admin)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	base := s.now()
	for i, np := range storage.SamplePosts(user.ID) {
		at := base.Add(-time.Duration(i) * seedSpacing)
		if _, err := s.createPost(ctx, np, at); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}
	return s, nil
}

// Kind возвращает вид бэкенда.
func (s *Storage) Kind() storage.Kind {
	return storage.KindMemory
}

// Sessions возвращает хранилище сессий процесса.
func (s *Storage) Sessions() storage.SessionStore {
	return s.sessions
}

// Ping всегда успешен.
func (s *Storage) Ping(context.Context) error {
	return nil
}

// Ready всегда true: память не теряет соединение.
func (s *Storage) Ready() bool {
	return true
}

// Close ничего не освобождает.
func (s *Storage) Close(context.Context) error {
	return nil
}

func checkCtx(ctx context.Context, op string) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
		return nil
	}
}

// ===== USERS =====

// GetUser возвращает пользователя по id.
func (s *Storage) GetUser(ctx context.Context, id int64) (*models.User, error) {
	const op = "memory.GetUser"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}
	return &u, nil
}

// GetUserByUsername ищет пользователя без учёта регистра.
func (s *Storage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	const op = "memory.GetUserByUsername"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	if u, ok := s.findUser(username); ok {
		return &u, nil
	}
	return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
}

func (s *Storage) findUser(username string) (models.User, bool) {
	for _, u := range s.users {
		if strings.EqualFold(u.Username, username) {
			return u, true
		}
	}
	return models.User{}, false
}

// CreateUser создаёт пользователя; занятое имя даёт ErrConflict.
func (s *Storage) CreateUser(ctx context.Context, nu models.NewUser) (*models.User, error) {
	const op = "memory.CreateUser"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.findUser(nu.Username); taken {
		return nil, fmt.Errorf("%s: username %q: %w", op, nu.Username, storage.ErrConflict)
	}
	u := nu.Build(s.nextUserID)
	s.nextUserID++
	s.users[u.ID] = u
	return &u, nil
}

// UpdateUser частично обновляет профиль.
func (s *Storage) UpdateUser(ctx context.Context, id int64, update models.UserUpdate) (*models.User, error) {
	const op = "memory.UpdateUser"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}
	update.Apply(&u)
	s.users[id] = u
	return &u, nil
}

// ===== SUBSCRIBERS =====

// GetSubscriber возвращает подписчика по id.
func (s *Storage) GetSubscriber(ctx context.Context, id int64) (*models.Subscriber, error) {
	const op = "memory.GetSubscriber"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	sub, ok := s.subscribers[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}
	return &sub, nil
}

// GetSubscriberByEmail ищет подписчика по email без учёта регистра.
func (s *Storage) GetSubscriberByEmail(ctx context.Context, email string) (*models.Subscriber, error) {
	const op = "memory.GetSubscriberByEmail"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	if sub, ok := s.findSubscriber(email); ok {
		return &sub, nil
	}
	return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
}

func (s *Storage) findSubscriber(email string) (models.Subscriber, bool) {
	for _, sub := range s.subscribers {
		if strings.EqualFold(sub.Email, email) {
			return sub, true
		}
	}
	return models.Subscriber{}, false
}

// CreateSubscriber добавляет подписчика; повторный email даёт ErrConflict.
func (s *Storage) CreateSubscriber(ctx context.Context, ns models.NewSubscriber) (*models.Subscriber, error) {
	const op = "memory.CreateSubscriber"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.findSubscriber(ns.Email); taken {
		return nil, fmt.Errorf("%s: email %q: %w", op, ns.Email, storage.ErrConflict)
	}
	sub := models.Subscriber{
		ID:        s.nextSubscriberID,
		Email:     ns.Email,
		CreatedAt: s.now(),
	}
	s.nextSubscriberID++
	s.subscribers[sub.ID] = sub
	return &sub, nil
}

// GetAllSubscribers возвращает подписчиков по возрастанию id.
func (s *Storage) GetAllSubscribers(ctx context.Context) ([]models.Subscriber, error) {
	const op = "memory.GetAllSubscribers"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]models.Subscriber, 0, len(s.subscribers))
	for id := int64(1); id < s.nextSubscriberID; id++ {
		if sub, ok := s.subscribers[id]; ok {
			result = append(result, sub)
		}
	}
	return result, nil
}

