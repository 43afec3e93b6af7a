package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/magabrotheeeer/techblog/internal/models"
	"github.com/magabrotheeeer/techblog/internal/storage"
)

// SessionStore хранит сессии в памяти процесса. Истёкшие записи удаляются
// при чтении и периодическим вызовом Prune.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]models.Session
	now      func() time.Time
}

var _ storage.SessionStore = (*SessionStore)(nil)

// NewSessionStore создаёт пустое хранилище сессий.
func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]models.Session),
		now:      time.Now,
	}
}

// Get возвращает активную сессию.
func (s *SessionStore) Get(ctx context.Context, id string) (*models.Session, error) {
	const op = "memory.SessionStore.Get"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}
	if sess.Expired(s.now()) {
		delete(s.sessions, id)
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}
	return &sess, nil
}

// Set сохраняет или заменяет сессию.
func (s *SessionStore) Set(ctx context.Context, session models.Session) error {
	const op = "memory.SessionStore.Set"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[session.ID] = session
	return nil
}

// Destroy удаляет сессию. Отсутствующая сессия не считается ошибкой.
func (s *SessionStore) Destroy(ctx context.Context, id string) error {
	const op = "memory.SessionStore.Destroy"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, id)
	return nil
}

// Prune удаляет истёкшие сессии.
func (s *SessionStore) Prune(ctx context.Context) (int, error) {
	const op = "memory.SessionStore.Prune"
	if err := checkCtx(ctx, op); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for id, sess := range s.sessions {
		if sess.Expired(now) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed, nil
}
