package postgresql

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/magabrotheeeer/techblog/internal/lib/slug"
	"github.com/magabrotheeeer/techblog/internal/models"
	"github.com/magabrotheeeer/techblog/internal/storage"
)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (*models.Post, error) {
	var (
		p           models.Post
		readTime    sql.NullInt64
		authorID    sql.NullInt64
		publishedAt sql.NullTime
	)
	err := row.Scan(&p.ID, &p.Title, &p.Slug, &p.Excerpt, &p.Content, &p.FeaturedImage,
		&p.Category, &p.Status, &readTime, &authorID, &p.CreatedAt, &p.UpdatedAt, &publishedAt)
	if err != nil {
		return nil, err
	}
	if readTime.Valid {
		rt := int(readTime.Int64)
		p.ReadTime = &rt
	}
	if authorID.Valid {
		id := authorID.Int64
		p.AuthorID = &id
	}
	if publishedAt.Valid {
		t := publishedAt.Time
		p.PublishedAt = &t
	}
	return &p, nil
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func (s *Storage) queryPosts(ctx context.Context, op string, f storage.PostFilter, opts storage.ListOptions) ([]models.Post, error) {
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}
	query, args := listQuery(f, opts)
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	defer rows.Close()

	posts := make([]models.Post, 0)
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, wrapErr(op, err)
		}
		posts = append(posts, *p)
	}
	if err = rows.Err(); err != nil {
		return nil, wrapErr(op, err)
	}
	return posts, nil
}

// GetPost возвращает пост по id.
func (s *Storage) GetPost(ctx context.Context, id int64) (*models.Post, error) {
	const op = "storage.postgresql.GetPost"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}
	row := s.DB.QueryRowContext(ctx, "SELECT "+postColumns+" FROM posts WHERE id = $1", id)
	p, err := scanPost(row)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	return p, nil
}

// GetPostBySlug возвращает пост по slug.
func (s *Storage) GetPostBySlug(ctx context.Context, slugValue string) (*models.Post, error) {
	const op = "storage.postgresql.GetPostBySlug"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}
	row := s.DB.QueryRowContext(ctx, "SELECT "+postColumns+" FROM posts WHERE slug = $1", slugValue)
	p, err := scanPost(row)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	return p, nil
}

// GetAllPosts возвращает посты с фильтром по статусу в каноничном порядке.
func (s *Storage) GetAllPosts(ctx context.Context, opts storage.ListOptions) ([]models.Post, error) {
	return s.queryPosts(ctx, "storage.postgresql.GetAllPosts", storage.PostFilter{Status: opts.Status}, opts)
}

// GetPostsByCategory возвращает посты категории.
func (s *Storage) GetPostsByCategory(ctx context.Context, category string, opts storage.ListOptions) ([]models.Post, error) {
	return s.queryPosts(ctx, "storage.postgresql.GetPostsByCategory",
		storage.PostFilter{Status: opts.Status, Category: category}, opts)
}

// SearchPosts ищет подстроку через ILIKE; совпадения по заголовку идут первыми.
func (s *Storage) SearchPosts(ctx context.Context, query string, opts storage.ListOptions) ([]models.Post, error) {
	return s.queryPosts(ctx, "storage.postgresql.SearchPosts",
		storage.PostFilter{Status: opts.Status, Query: query}, opts)
}

// GetFeaturedPost возвращает самый свежий опубликованный пост.
func (s *Storage) GetFeaturedPost(ctx context.Context) (*models.Post, error) {
	const op = "storage.postgresql.GetFeaturedPost"
	posts, err := s.queryPosts(ctx, op, storage.PostFilter{Status: models.StatusPublished}, storage.ListOptions{Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(posts) == 0 {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}
	return &posts[0], nil
}

// GetPopularPosts возвращает последние опубликованные посты.
func (s *Storage) GetPopularPosts(ctx context.Context, limit int) ([]models.Post, error) {
	return s.queryPosts(ctx, "storage.postgresql.GetPopularPosts",
		storage.PostFilter{Status: models.StatusPublished},
		storage.ListOptions{Limit: storage.PopularLimit(limit)})
}

// GetPostCount считает посты тем же WHERE, что и списки.
func (s *Storage) GetPostCount(ctx context.Context, opts storage.CountOptions) (int, error) {
	const op = "storage.postgresql.GetPostCount"
	if err := checkCtx(ctx, op); err != nil {
		return 0, err
	}
	query, args := countQuery(opts.Filter())
	var count int
	if err := s.DB.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, wrapErr(op, err)
	}
	return count, nil
}

// slugTaken возвращает проверку занятости slug, исключая пост exceptID.
func (s *Storage) slugTaken(exceptID int64) slug.ExistsFunc {
	return func(ctx context.Context, candidate string) (bool, error) {
		var exists bool
		err := s.DB.QueryRowContext(ctx,
			"SELECT EXISTS (SELECT 1 FROM posts WHERE slug = $1 AND id <> $2)",
			candidate, exceptID).Scan(&exists)
		return exists, err
	}
}

const insertPost = `INSERT INTO posts (title, slug, excerpt, content, featured_image, category, status,
	read_time, author_id, created_at, updated_at, published_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	RETURNING id`

// CreatePost вставляет пост. Если параллельная вставка заняла тот же slug,
// slug подбирается заново.
func (s *Storage) CreatePost(ctx context.Context, np models.NewPost) (*models.Post, error) {
	const op = "storage.postgresql.CreatePost"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	base := slug.Make(storage.NewPostSlugSource(np))
	var lastErr error
	for attempt := 0; attempt < storage.MaxSlugRetries; attempt++ {
		slugValue, err := slug.Unique(ctx, base, s.slugTaken(0))
		if err != nil {
			return nil, wrapErr(op, err)
		}
		p := np.Build(0, slugValue, s.now().UTC())

		err = s.DB.QueryRowContext(ctx, insertPost,
			p.Title, p.Slug, p.Excerpt, p.Content, p.FeaturedImage, p.Category, p.Status,
			nullInt(p.ReadTime), nullInt64(p.AuthorID), p.CreatedAt, p.UpdatedAt, p.PublishedAt,
		).Scan(&p.ID)
		if constraint, ok := uniqueViolation(err); ok && constraint == slugConstraint {
			lastErr = err
			continue
		}
		if err != nil {
			return nil, wrapErr(op, err)
		}
		return &p, nil
	}
	return nil, wrapErr(op, lastErr)
}

const updatePost = `UPDATE posts SET title = $2, slug = $3, excerpt = $4, content = $5,
	featured_image = $6, category = $7, status = $8, read_time = $9, author_id = $10,
	updated_at = $11, published_at = $12
	WHERE id = $1`

// UpdatePost применяет частичное обновление. Slug пересчитывается только при
// смене заголовка или явном новом slug.
func (s *Storage) UpdatePost(ctx context.Context, id int64, update models.PostUpdate) (*models.Post, error) {
	const op = "storage.postgresql.UpdatePost"

	current, err := s.GetPost(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	source, regenerate := storage.SlugSource(current, update)
	for attempt := 0; attempt < storage.MaxSlugRetries; attempt++ {
		p := *current
		update.Apply(&p, s.now().UTC())
		if regenerate {
			p.Slug, err = slug.Unique(ctx, slug.Make(source), s.slugTaken(id))
			if err != nil {
				return nil, wrapErr(op, err)
			}
		}

		res, err := s.DB.ExecContext(ctx, updatePost, id,
			p.Title, p.Slug, p.Excerpt, p.Content, p.FeaturedImage, p.Category, p.Status,
			nullInt(p.ReadTime), nullInt64(p.AuthorID), p.UpdatedAt, p.PublishedAt)
		if constraint, ok := uniqueViolation(err); ok && constraint == slugConstraint && regenerate {
			continue
		}
		if err != nil {
			return nil, wrapErr(op, err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}
		return &p, nil
	}
	return nil, fmt.Errorf("%s: %w", op, storage.ErrConflict)
}

// DeletePost удаляет пост и сообщает, существовал ли он.
func (s *Storage) DeletePost(ctx context.Context, id int64) (bool, error) {
	const op = "storage.postgresql.DeletePost"
	if err := checkCtx(ctx, op); err != nil {
		return false, err
	}
	res, err := s.DB.ExecContext(ctx, "DELETE FROM posts WHERE id = $1", id)
	if err != nil {
		return false, wrapErr(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, wrapErr(op, err)
	}
	return n > 0, nil
}
