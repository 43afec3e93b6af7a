package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/magabrotheeeer/techblog/internal/lib/slug"
	"github.com/magabrotheeeer/techblog/internal/models"
	"github.com/magabrotheeeer/techblog/internal/storage"
)

// GetPost возвращает пост по id.
func (s *Storage) GetPost(ctx context.Context, id int64) (*models.Post, error) {
	const op = "memory.GetPost"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.posts[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}
	return &p, nil
}

// GetPostBySlug возвращает пост по slug.
func (s *Storage) GetPostBySlug(ctx context.Context, slugValue string) (*models.Post, error) {
	const op = "memory.GetPostBySlug"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.posts {
		if p.Slug == slugValue {
			return &p, nil
		}
	}
	return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
}

// GetAllPosts возвращает посты с фильтром по статусу в каноничном порядке.
func (s *Storage) GetAllPosts(ctx context.Context, opts storage.ListOptions) ([]models.Post, error) {
	const op = "memory.GetAllPosts"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}
	return s.list(storage.PostFilter{Status: opts.Status}, opts), nil
}

// GetPostsByCategory возвращает посты категории.
func (s *Storage) GetPostsByCategory(ctx context.Context, category string, opts storage.ListOptions) ([]models.Post, error) {
	const op = "memory.GetPostsByCategory"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}
	return s.list(storage.PostFilter{Status: opts.Status, Category: category}, opts), nil
}

// SearchPosts ищет подстроку в заголовке, анонсе и тексте; совпадения по заголовку идут первыми.
func (s *Storage) SearchPosts(ctx context.Context, query string, opts storage.ListOptions) ([]models.Post, error) {
	const op = "memory.SearchPosts"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}
	return s.list(storage.PostFilter{Status: opts.Status, Query: query}, opts), nil
}

// GetFeaturedPost возвращает самый свежий опубликованный пост.
func (s *Storage) GetFeaturedPost(ctx context.Context) (*models.Post, error) {
	const op = "memory.GetFeaturedPost"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}
	posts := s.list(storage.PostFilter{Status: models.StatusPublished}, storage.ListOptions{Limit: 1})
	if len(posts) == 0 {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}
	return &posts[0], nil
}

// GetPopularPosts возвращает последние опубликованные посты.
func (s *Storage) GetPopularPosts(ctx context.Context, limit int) ([]models.Post, error) {
	const op = "memory.GetPopularPosts"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}
	return s.list(storage.PostFilter{Status: models.StatusPublished},
		storage.ListOptions{Limit: storage.PopularLimit(limit)}), nil
}

// GetPostCount считает посты тем же фильтром, что и списочные операции.
func (s *Storage) GetPostCount(ctx context.Context, opts storage.CountOptions) (int, error) {
	const op = "memory.GetPostCount"
	if err := checkCtx(ctx, op); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	filter := opts.Filter()
	count := 0
	for _, p := range s.posts {
		if filter.Match(&p) {
			count++
		}
	}
	return count, nil
}

func (s *Storage) list(filter storage.PostFilter, opts storage.ListOptions) []models.Post {
	s.mu.RLock()
	matched := make([]models.Post, 0, len(s.posts))
	for _, p := range s.posts {
		if filter.Match(&p) {
			matched = append(matched, p)
		}
	}
	s.mu.RUnlock()

	storage.SortPosts(matched, filter.Query)
	return storage.Paginate(matched, opts.Limit, opts.Offset)
}

// CreatePost создаёт пост с уникальным slug.
func (s *Storage) CreatePost(ctx context.Context, np models.NewPost) (*models.Post, error) {
	const op = "memory.CreatePost"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}
	p, err := s.createPost(ctx, np, s.now())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

func (s *Storage) createPost(ctx context.Context, np models.NewPost, now time.Time) (*models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	slugValue, err := slug.Unique(ctx, slug.Make(storage.NewPostSlugSource(np)), s.slugTaken(0))
	if err != nil {
		return nil, err
	}

	p := np.Build(s.nextPostID, slugValue, now)
	s.nextPostID++
	s.posts[p.ID] = p
	return &p, nil
}

// slugTaken проверяет занятость slug под уже взятой блокировкой.
func (s *Storage) slugTaken(exceptID int64) slug.ExistsFunc {
	return func(_ context.Context, candidate string) (bool, error) {
		for id, p := range s.posts {
			if id != exceptID && p.Slug == candidate {
				return true, nil
			}
		}
		return false, nil
	}
}

// UpdatePost частично обновляет пост. Явный slug нормализуется и
// делается уникальным; смена заголовка без явного slug перегенерирует его.
func (s *Storage) UpdatePost(ctx context.Context, id int64, update models.PostUpdate) (*models.Post, error) {
	const op = "memory.UpdatePost"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	base, regenerate := storage.SlugSource(&p, update)
	update.Apply(&p, s.now())
	if regenerate {
		slugValue, err := slug.Unique(ctx, slug.Make(base), s.slugTaken(id))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		p.Slug = slugValue
	}
	s.posts[id] = p
	return &p, nil
}

// DeletePost удаляет пост и сообщает, существовал ли он.
func (s *Storage) DeletePost(ctx context.Context, id int64) (bool, error) {
	const op = "memory.DeletePost"
	if err := checkCtx(ctx, op); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.posts[id]; !ok {
		return false, nil
	}
	delete(s.posts, id)
	return true, nil
}
