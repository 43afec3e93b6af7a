// Package blog содержит бизнес-логику блога: публичные списки и поиск постов,
// управление постами администратором, подписку на рассылку и сводку для панели.
package blog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/magabrotheeeer/techblog/internal/lib/sl"
	"github.com/magabrotheeeer/techblog/internal/models"
	"github.com/magabrotheeeer/techblog/internal/storage"
	"github.com/magabrotheeeer/techblog/internal/supervisor"
)

const (
	// DefaultPageSize используется, если limit не задан.
	DefaultPageSize = 10
	// MaxPageSize ограничивает limit в запросах.
	MaxPageSize = 100
	// MinQueryLength ограничивает длину поискового запроса снизу.
	MinQueryLength = 2
)

var (
	// ErrAlreadySubscribed возвращается, если email уже есть среди подписчиков.
	ErrAlreadySubscribed = errors.New("already subscribed")
	// ErrQueryTooShort возвращается для поискового запроса короче MinQueryLength.
	ErrQueryTooShort = errors.New("search query is too short")
)

const (
	keyFeatured      = "posts:featured"
	keyPopularPrefix = "posts:popular:"
	keyPosts         = "posts:"
)

// Cache описывает методы для кэширования данных.
type Cache interface {
	// Get пытается получить значение из кеша по ключу.
	Get(ctx context.Context, key string, result any) (bool, error)
	// Set сохраняет значение в кеш с временем жизни.
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	// InvalidatePrefix удаляет все значения с префиксом.
	InvalidatePrefix(ctx context.Context, prefix string) error
}

// Publisher отправляет события о новых подписчиках.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, message any) error
}

// SubscriberEvent — сообщение о новой подписке.
type SubscriberEvent struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// Service реализует операции блога поверх активного хранилища супервизора.
type Service struct {
	backend    supervisor.Runner
	cache      Cache
	events     Publisher
	routingKey string
	log        *slog.Logger
	timeout    time.Duration
}

// Option настраивает Service.
type Option func(*Service)

// WithCache включает кэш избранного и популярных постов.
func WithCache(c Cache) Option {
	return func(s *Service) { s.cache = c }
}

// WithEvents включает публикацию событий о подписке.
func WithEvents(p Publisher, routingKey string) Option {
	return func(s *Service) {
		s.events = p
		s.routingKey = routingKey
	}
}

// New создает новый экземпляр Service. timeout ограничивает каждую операцию хранилища.
func New(backend supervisor.Runner, log *slog.Logger, timeout time.Duration, opts ...Option) *Service {
	s := &Service{
		backend: backend,
		log:     log,
		timeout: timeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PostQuery — параметры списка постов.
type PostQuery struct {
	Page     int
	Limit    int
	Category string
	Status   string
}

// Normalize подставляет значения по умолчанию для страницы и размера.
func (q PostQuery) Normalize() PostQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = DefaultPageSize
	}
	if q.Limit > MaxPageSize {
		q.Limit = MaxPageSize
	}
	return q
}

// Pagination — сведения о странице в ответе списка.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// PostPage — страница постов.
type PostPage struct {
	Posts      []models.Post `json:"posts"`
	Pagination Pagination    `json:"pagination"`
}

// ListPosts возвращает страницу постов и общее количество по тому же фильтру.
func (s *Service) ListPosts(ctx context.Context, q PostQuery) (*PostPage, error) {
	const op = "services.blog.ListPosts"
	q = q.Normalize()
	opts := storage.ListOptions{Status: q.Status, Limit: q.Limit, Offset: storage.Offset(q.Page, q.Limit)}

	page, err := supervisor.Data(ctx, s.backend, s.timeout, func(ctx context.Context, st storage.Storage) (*PostPage, error) {
		var (
			posts []models.Post
			err   error
		)
		if q.Category != "" {
			posts, err = st.GetPostsByCategory(ctx, q.Category, opts)
		} else {
			posts, err = st.GetAllPosts(ctx, opts)
		}
		if err != nil {
			return nil, err
		}
		total, err := st.GetPostCount(ctx, storage.CountOptions{Status: q.Status, Category: q.Category})
		if err != nil {
			return nil, err
		}
		return &PostPage{
			Posts: posts,
			Pagination: Pagination{
				Page:       q.Page,
				Limit:      q.Limit,
				Total:      total,
				TotalPages: storage.TotalPages(total, q.Limit),
			},
		}, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return page, nil
}

// EmptyPage возвращает пустую страницу для деградации публичных списков.
func EmptyPage(q PostQuery) *PostPage {
	q = q.Normalize()
	return &PostPage{
		Posts:      []models.Post{},
		Pagination: Pagination{Page: q.Page, Limit: q.Limit},
	}
}

// GetPostBySlug возвращает пост по slug. Черновик виден только при includeDrafts.
func (s *Service) GetPostBySlug(ctx context.Context, slug string, includeDrafts bool) (*models.Post, error) {
	const op = "services.blog.GetPostBySlug"
	p, err := supervisor.Data(ctx, s.backend, s.timeout, func(ctx context.Context, st storage.Storage) (*models.Post, error) {
		return st.GetPostBySlug(ctx, slug)
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !p.IsPublished() && !includeDrafts {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}
	return p, nil
}

// GetPost возвращает пост по id.
func (s *Service) GetPost(ctx context.Context, id int64) (*models.Post, error) {
	const op = "services.blog.GetPost"
	p, err := supervisor.Data(ctx, s.backend, s.timeout, func(ctx context.Context, st storage.Storage) (*models.Post, error) {
		return st.GetPost(ctx, id)
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

// FeaturedPost возвращает самый свежий опубликованный пост, используя кеш.
func (s *Service) FeaturedPost(ctx context.Context) (*models.Post, error) {
	const op = "services.blog.FeaturedPost"

	var cached models.Post
	if s.cacheGet(ctx, keyFeatured, &cached) {
		return &cached, nil
	}
	p, err := supervisor.Data(ctx, s.backend, s.timeout, func(ctx context.Context, st storage.Storage) (*models.Post, error) {
		return st.GetFeaturedPost(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.cacheSet(ctx, keyFeatured, p)
	return p, nil
}

// PopularPosts возвращает последние опубликованные посты, используя кеш.
func (s *Service) PopularPosts(ctx context.Context, limit int) ([]models.Post, error) {
	const op = "services.blog.PopularPosts"
	limit = storage.PopularLimit(limit)
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	key := fmt.Sprintf("%s%d", keyPopularPrefix, limit)

	var cached []models.Post
	if s.cacheGet(ctx, key, &cached) {
		return cached, nil
	}
	posts, err := supervisor.Data(ctx, s.backend, s.timeout, func(ctx context.Context, st storage.Storage) ([]models.Post, error) {
		return st.GetPopularPosts(ctx, limit)
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.cacheSet(ctx, key, posts)
	return posts, nil
}

// Search ищет среди опубликованных постов.
func (s *Service) Search(ctx context.Context, query string, page, limit int) ([]models.Post, error) {
	const op = "services.blog.Search"
	query = strings.TrimSpace(query)
	if len([]rune(query)) < MinQueryLength {
		return nil, fmt.Errorf("%s: %w", op, ErrQueryTooShort)
	}
	q := PostQuery{Page: page, Limit: limit}.Normalize()
	opts := storage.ListOptions{Status: models.StatusPublished, Limit: q.Limit, Offset: storage.Offset(q.Page, q.Limit)}

	posts, err := supervisor.Data(ctx, s.backend, s.timeout, func(ctx context.Context, st storage.Storage) ([]models.Post, error) {
		return st.SearchPosts(ctx, query, opts)
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return posts, nil
}

// CreatePost создаёт пост и сбрасывает кеш списков.
func (s *Service) CreatePost(ctx context.Context, np models.NewPost) (*models.Post, error) {
	const op = "services.blog.CreatePost"
	p, err := supervisor.Data(ctx, s.backend, s.timeout, func(ctx context.Context, st storage.Storage) (*models.Post, error) {
		return st.CreatePost(ctx, np)
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("post created", slog.Int64("id", p.ID), slog.String("slug", p.Slug))
	s.FlushCache(ctx)
	return p, nil
}

// UpdatePost обновляет пост и сбрасывает кеш списков.
func (s *Service) UpdatePost(ctx context.Context, id int64, update models.PostUpdate) (*models.Post, error) {
	const op = "services.blog.UpdatePost"
	p, err := supervisor.Data(ctx, s.backend, s.timeout, func(ctx context.Context, st storage.Storage) (*models.Post, error) {
		return st.UpdatePost(ctx, id, update)
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("post updated", slog.Int64("id", p.ID))
	s.FlushCache(ctx)
	return p, nil
}

// DeletePost удаляет пост. Отсутствие поста даёт storage.ErrNotFound.
func (s *Service) DeletePost(ctx context.Context, id int64) error {
	const op = "services.blog.DeletePost"
	deleted, err := supervisor.Data(ctx, s.backend, s.timeout, func(ctx context.Context, st storage.Storage) (bool, error) {
		return st.DeletePost(ctx, id)
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !deleted {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}
	s.log.Info("post deleted", slog.Int64("id", id))
	s.FlushCache(ctx)
	return nil
}

// FlushCache сбрасывает кеш постов. Вызывается при записи и при смене бэкенда.
func (s *Service) FlushCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidatePrefix(ctx, keyPosts); err != nil {
		s.log.Warn("failed to invalidate cache", slog.String("prefix", keyPosts), sl.Err(err))
	}
}

func (s *Service) cacheGet(ctx context.Context, key string, result any) bool {
	if s.cache == nil {
		return false
	}
	found, err := s.cache.Get(ctx, key, result)
	if err != nil {
		s.log.Warn("failed to read cache", slog.String("key", key), sl.Err(err))
		return false
	}
	return found
}

func (s *Service) cacheSet(ctx context.Context, key string, value any) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value, 0); err != nil {
		s.log.Warn("failed to add to cache", slog.String("key", key), sl.Err(err))
	}
}
