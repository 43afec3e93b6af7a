package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/magabrotheeeer/techblog/internal/lib/slug"
	"github.com/magabrotheeeer/techblog/internal/models"
	"github.com/magabrotheeeer/techblog/internal/storage"
)

// GetPost возвращает пост по id.
func (s *Storage) GetPost(ctx context.Context, id int64) (*models.Post, error) {
	const op = "storage.mongodb.GetPost"
	return s.findPost(ctx, op, bson.M{"_id": id})
}

// GetPostBySlug возвращает пост по slug.
func (s *Storage) GetPostBySlug(ctx context.Context, slugValue string) (*models.Post, error) {
	const op = "storage.mongodb.GetPostBySlug"
	return s.findPost(ctx, op, bson.M{"slug": slugValue})
}

func (s *Storage) findPost(ctx context.Context, op string, filter bson.M) (*models.Post, error) {
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}
	var p models.Post
	if err := s.posts.FindOne(ctx, filter).Decode(&p); err != nil {
		return nil, wrapErr(op, err)
	}
	return &p, nil
}

// GetAllPosts возвращает посты с фильтром по статусу в каноничном порядке.
func (s *Storage) GetAllPosts(ctx context.Context, opts storage.ListOptions) ([]models.Post, error) {
	return s.list(ctx, "storage.mongodb.GetAllPosts", storage.PostFilter{Status: opts.Status}, opts)
}

// GetPostsByCategory возвращает посты категории.
func (s *Storage) GetPostsByCategory(ctx context.Context, category string, opts storage.ListOptions) ([]models.Post, error) {
	return s.list(ctx, "storage.mongodb.GetPostsByCategory",
		storage.PostFilter{Status: opts.Status, Category: category}, opts)
}

// SearchPosts ищет подстроку регулярным выражением; совпадения по заголовку идут первыми.
func (s *Storage) SearchPosts(ctx context.Context, query string, opts storage.ListOptions) ([]models.Post, error) {
	return s.list(ctx, "storage.mongodb.SearchPosts",
		storage.PostFilter{Status: opts.Status, Query: query}, opts)
}

// GetFeaturedPost возвращает самый свежий опубликованный пост.
func (s *Storage) GetFeaturedPost(ctx context.Context) (*models.Post, error) {
	const op = "storage.mongodb.GetFeaturedPost"
	posts, err := s.list(ctx, op, storage.PostFilter{Status: models.StatusPublished}, storage.ListOptions{Limit: 1})
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
	return s.list(ctx, "storage.mongodb.GetPopularPosts",
		storage.PostFilter{Status: models.StatusPublished},
		storage.ListOptions{Limit: storage.PopularLimit(limit)})
}

// GetPostCount считает посты тем же фильтром, что и списки.
func (s *Storage) GetPostCount(ctx context.Context, opts storage.CountOptions) (int, error) {
	const op = "storage.mongodb.GetPostCount"
	if err := checkCtx(ctx, op); err != nil {
		return 0, err
	}
	n, err := s.posts.CountDocuments(ctx, postFilter(opts.Filter()))
	if err != nil {
		return 0, wrapErr(op, err)
	}
	return int(n), nil
}

func (s *Storage) list(ctx context.Context, op string, f storage.PostFilter, opts storage.ListOptions) ([]models.Post, error) {
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	var (
		cur *mongo.Cursor
		err error
	)
	if f.Query != "" {
		cur, err = s.posts.Aggregate(ctx, searchPipeline(f, opts))
	} else {
		findOpts := options.Find().SetSort(canonicalSort)
		if opts.Offset > 0 {
			findOpts.SetSkip(int64(opts.Offset))
		}
		if opts.Limit > 0 {
			findOpts.SetLimit(int64(opts.Limit))
		}
		cur, err = s.posts.Find(ctx, postFilter(f), findOpts)
	}
	if err != nil {
		return nil, wrapErr(op, err)
	}

	posts := make([]models.Post, 0)
	if err = cur.All(ctx, &posts); err != nil {
		return nil, wrapErr(op, err)
	}
	return posts, nil
}

func (s *Storage) slugTaken(exceptID int64) slug.ExistsFunc {
	return func(ctx context.Context, candidate string) (bool, error) {
		n, err := s.posts.CountDocuments(ctx,
			bson.M{"slug": candidate, "_id": bson.M{"$ne": exceptID}},
			options.Count().SetLimit(1))
		return n > 0, err
	}
}

// timestamp округляет время до миллисекунд, с которыми BSON хранит даты.
func (s *Storage) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}

// CreatePost вставляет пост. Если параллельная вставка заняла тот же slug,
// slug подбирается заново.
func (s *Storage) CreatePost(ctx context.Context, np models.NewPost) (*models.Post, error) {
	const op = "storage.mongodb.CreatePost"
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
		id, err := s.nextID(ctx, collPosts)
		if err != nil {
			return nil, wrapErr(op, err)
		}
		p := np.Build(id, slugValue, s.timestamp())
		_, err = s.posts.InsertOne(ctx, p)
		if mongo.IsDuplicateKeyError(err) {
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

// UpdatePost применяет частичное обновление и заменяет документ целиком.
func (s *Storage) UpdatePost(ctx context.Context, id int64, update models.PostUpdate) (*models.Post, error) {
	const op = "storage.mongodb.UpdatePost"

	current, err := s.GetPost(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	source, regenerate := storage.SlugSource(current, update)
	for attempt := 0; attempt < storage.MaxSlugRetries; attempt++ {
		p := *current
		update.Apply(&p, s.timestamp())
		if regenerate {
			p.Slug, err = slug.Unique(ctx, slug.Make(source), s.slugTaken(id))
			if err != nil {
				return nil, wrapErr(op, err)
			}
		}

		res, err := s.posts.ReplaceOne(ctx, bson.M{"_id": id}, p)
		if mongo.IsDuplicateKeyError(err) && regenerate {
			continue
		}
		if err != nil {
			return nil, wrapErr(op, err)
		}
		if res.MatchedCount == 0 {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}
		return &p, nil
	}
	return nil, fmt.Errorf("%s: %w", op, storage.ErrConflict)
}

// DeletePost удаляет пост и сообщает, существовал ли он.
func (s *Storage) DeletePost(ctx context.Context, id int64) (bool, error) {
	const op = "storage.mongodb.DeletePost"
	if err := checkCtx(ctx, op); err != nil {
		return false, err
	}
	res, err := s.posts.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, wrapErr(op, err)
	}
	return res.DeletedCount > 0, nil
}
