// Package storage описывает контракт хранилища блога, общий для всех бэкендов
// (в памяти, документного и реляционного), а также чистые функции фильтрации,
// сортировки и пагинации, которые бэкенды разделяют между собой.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/techblog/internal/models"
)

// Kind — вид бэкенда хранилища.
type Kind string

const (
	KindMemory   Kind = "memory"
	KindMongo    Kind = "mongodb"
	KindPostgres Kind = "postgres"
)

var (
	// ErrNotFound возвращается, если запрошенной сущности нет.
	ErrNotFound = errors.New("not found")
	// ErrConflict возвращается при нарушении уникальности имени пользователя, email или slug.
	ErrConflict = errors.New("already exists")
	// ErrUnavailable означает, что бэкенд недоступен и супервизору пора переключиться на память.
	ErrUnavailable = errors.New("storage unavailable")
)

// Unavailable помечает ошибку драйвера как недоступность хранилища.
func Unavailable(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrUnavailable) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
}

// DefaultPopularLimit используется, если размер выборки популярных постов не задан.
const DefaultPopularLimit = 5

// ListOptions задаёт фильтр по статусу и пагинацию. Limit <= 0 означает "без ограничения".
type ListOptions struct {
	Status string
	Limit  int
	Offset int
}

// CountOptions повторяет фильтры списочных операций, чтобы total совпадал с выдачей.
type CountOptions struct {
	Status   string
	Category string
	Query    string
}

// Storage — операции над пользователями, постами и подписчиками.
//
// Методы Get* возвращают ErrNotFound, если сущности нет. Любая ошибка связи
// с бэкендом оборачивает ErrUnavailable.
type Storage interface {
	Kind() Kind

	GetUser(ctx context.Context, id int64) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	CreateUser(ctx context.Context, user models.NewUser) (*models.User, error)
	UpdateUser(ctx context.Context, id int64, update models.UserUpdate) (*models.User, error)

	GetPost(ctx context.Context, id int64) (*models.Post, error)
	GetPostBySlug(ctx context.Context, slug string) (*models.Post, error)
	GetAllPosts(ctx context.Context, opts ListOptions) ([]models.Post, error)
	GetPostsByCategory(ctx context.Context, category string, opts ListOptions) ([]models.Post, error)
	CreatePost(ctx context.Context, post models.NewPost) (*models.Post, error)
	UpdatePost(ctx context.Context, id int64, update models.PostUpdate) (*models.Post, error)
	DeletePost(ctx context.Context, id int64) (bool, error)
	SearchPosts(ctx context.Context, query string, opts ListOptions) ([]models.Post, error)
	GetFeaturedPost(ctx context.Context) (*models.Post, error)
	GetPopularPosts(ctx context.Context, limit int) ([]models.Post, error)
	GetPostCount(ctx context.Context, opts CountOptions) (int, error)

	GetSubscriber(ctx context.Context, id int64) (*models.Subscriber, error)
	GetSubscriberByEmail(ctx context.Context, email string) (*models.Subscriber, error)
	CreateSubscriber(ctx context.Context, sub models.NewSubscriber) (*models.Subscriber, error)
	GetAllSubscribers(ctx context.Context) ([]models.Subscriber, error)

	// Sessions возвращает хранилище сессий, привязанное к этому бэкенду.
	Sessions() SessionStore

	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// SessionStore хранит серверные сессии администраторов.
type SessionStore interface {
	// Get возвращает ErrNotFound для отсутствующей или истёкшей сессии.
	Get(ctx context.Context, id string) (*models.Session, error)
	Set(ctx context.Context, session models.Session) error
	Destroy(ctx context.Context, id string) error
	// Prune удаляет истёкшие сессии и возвращает их количество.
	Prune(ctx context.Context) (int, error)
}

// ConnectionListener получает события о потере и восстановлении связи с бэкендом.
type ConnectionListener interface {
	Disconnected(err error)
	Reconnected()
}
