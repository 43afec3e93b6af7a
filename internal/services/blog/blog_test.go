package blog

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/techblog/internal/models"
	"github.com/magabrotheeeer/techblog/internal/storage"
	"github.com/magabrotheeeer/techblog/internal/storage/memory"
	"github.com/magabrotheeeer/techblog/internal/supervisor"
)

type staticRunner struct {
	st       storage.Storage
	failures []error
}

func (r *staticRunner) Current() storage.Storage       { return r.st }
func (r *staticRunner) Sessions() storage.SessionStore { return r.st.Sessions() }

func (r *staticRunner) ReportFailure(_ supervisor.Capability, err error) bool {
	r.failures = append(r.failures, err)
	return supervisor.IsStorageError(err)
}

type CacheMock struct{ mock.Mock }

func (m *CacheMock) Get(ctx context.Context, key string, result any) (bool, error) {
	args := m.Called(ctx, key, result)
	return args.Bool(0), args.Error(1)
}

func (m *CacheMock) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	return m.Called(ctx, key, value, expiration).Error(0)
}

func (m *CacheMock) InvalidatePrefix(ctx context.Context, prefix string) error {
	return m.Called(ctx, prefix).Error(0)
}

type PublisherMock struct{ mock.Mock }

func (m *PublisherMock) Publish(ctx context.Context, routingKey string, message any) error {
	return m.Called(ctx, routingKey, message).Error(0)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newSeededService(t *testing.T, opts ...Option) (*Service, storage.Storage) {
	t.Helper()
	st, err := memory.NewSeeded(context.Background(), storage.Admin{})
	require.NoError(t, err)
	return New(&staticRunner{st: st}, discardLogger(), time.Second, opts...), st
}

func TestPostQuery_Normalize(t *testing.T) {
	assert.Equal(t, PostQuery{Page: 1, Limit: DefaultPageSize}, PostQuery{}.Normalize())
	assert.Equal(t, PostQuery{Page: 3, Limit: MaxPageSize}, PostQuery{Page: 3, Limit: 1000}.Normalize())
}

func TestListPosts_PaginationMatchesCount(t *testing.T) {
	svc, _ := newSeededService(t)
	ctx := context.Background()

	page, err := svc.ListPosts(ctx, PostQuery{Page: 1, Limit: 3, Status: models.StatusPublished})
	require.NoError(t, err)
	assert.Len(t, page.Posts, 3)
	assert.Equal(t, Pagination{Page: 1, Limit: 3, Total: 4, TotalPages: 2}, page.Pagination)

	page, err = svc.ListPosts(ctx, PostQuery{Page: 2, Limit: 3, Status: models.StatusPublished})
	require.NoError(t, err)
	assert.Len(t, page.Posts, 1)

	page, err = svc.ListPosts(ctx, PostQuery{Category: "Career Development", Status: models.StatusPublished})
	require.NoError(t, err)
	assert.Len(t, page.Posts, 2)
	assert.Equal(t, 2, page.Pagination.Total)
	assert.Equal(t, 1, page.Pagination.TotalPages)
}

func TestGetPostBySlug_HidesDrafts(t *testing.T) {
	svc, _ := newSeededService(t)
	ctx := context.Background()

	draft, err := svc.CreatePost(ctx, models.NewPost{Title: "Work in progress", Excerpt: "e", Content: "c", Category: "Go"})
	require.NoError(t, err)

	_, err = svc.GetPostBySlug(ctx, draft.Slug, false)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	got, err := svc.GetPostBySlug(ctx, draft.Slug, true)
	require.NoError(t, err)
	assert.Equal(t, draft.ID, got.ID)
}

func TestFeaturedPost_UsesCache(t *testing.T) {
	cache := new(CacheMock)
	svc, _ := newSeededService(t, WithCache(cache))
	ctx := context.Background()

	cache.On("Get", ctx, keyFeatured, mock.Anything).Return(false, nil).Once()
	cache.On("Set", ctx, keyFeatured, mock.AnythingOfType("*models.Post"), time.Duration(0)).Return(nil).Once()

	p, err := svc.FeaturedPost(ctx)
	require.NoError(t, err)
	assert.Equal(t, "The Future of AI in Tech Career Development", p.Title)

	cache.On("Get", ctx, keyFeatured, mock.Anything).Return(true, nil).Once()
	_, err = svc.FeaturedPost(ctx)
	require.NoError(t, err)

	cache.AssertExpectations(t)
}

func TestFeaturedPost_CacheErrorFallsThrough(t *testing.T) {
	cache := new(CacheMock)
	svc, _ := newSeededService(t, WithCache(cache))
	ctx := context.Background()

	cache.On("Get", ctx, keyFeatured, mock.Anything).Return(false, errors.New("redis down"))
	cache.On("Set", ctx, keyFeatured, mock.Anything, time.Duration(0)).Return(errors.New("redis down"))

	p, err := svc.FeaturedPost(ctx)
	require.NoError(t, err)
	assert.NotNil(t, p)
}

func TestPopularPosts(t *testing.T) {
	svc, _ := newSeededService(t)

	posts, err := svc.PopularPosts(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, posts, 4)

	posts, err = svc.PopularPosts(context.Background(), 2)
	require.NoError(t, err)
	assert.Len(t, posts, 2)
}

func TestSearch(t *testing.T) {
	svc, _ := newSeededService(t)
	ctx := context.Background()

	_, err := svc.Search(ctx, " a ", 1, 10)
	assert.ErrorIs(t, err, ErrQueryTooShort)

	posts, err := svc.Search(ctx, "machine", 1, 10)
	require.NoError(t, err)
	require.NotEmpty(t, posts)
	assert.Contains(t, posts[0].Title, "Machine")
}

func TestWritesInvalidateCache(t *testing.T) {
	cache := new(CacheMock)
	svc, _ := newSeededService(t, WithCache(cache))
	ctx := context.Background()
	cache.On("InvalidatePrefix", ctx, keyPosts).Return(nil).Times(3)

	p, err := svc.CreatePost(ctx, models.NewPost{Title: "Cache me", Excerpt: "e", Content: "c", Category: "Go", PublishNow: true})
	require.NoError(t, err)

	title := "Cache me again"
	updated, err := svc.UpdatePost(ctx, p.ID, models.PostUpdate{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "cache-me-again", updated.Slug)

	require.NoError(t, svc.DeletePost(ctx, p.ID))
	assert.ErrorIs(t, svc.DeletePost(ctx, p.ID), storage.ErrNotFound)

	cache.AssertExpectations(t)
}

func TestSubscribe(t *testing.T) {
	events := new(PublisherMock)
	svc, st := newSeededService(t, WithEvents(events, "subscriber.created"))
	ctx := context.Background()

	events.On("Publish", ctx, "subscriber.created", mock.AnythingOfType("blog.SubscriberEvent")).Return(nil).Once()

	sub, err := svc.Subscribe(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", sub.Email)

	_, err = svc.Subscribe(ctx, "A@X.com")
	assert.ErrorIs(t, err, ErrAlreadySubscribed)

	subs, err := st.GetAllSubscribers(ctx)
	require.NoError(t, err)
	assert.Len(t, subs, 1)
	events.AssertExpectations(t)
}

func TestSubscribe_PublishFailureIsNotFatal(t *testing.T) {
	events := new(PublisherMock)
	svc, _ := newSeededService(t, WithEvents(events, "subscriber.created"))
	events.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("amqp closed"))

	_, err := svc.Subscribe(context.Background(), "b@x.com")
	assert.NoError(t, err)
}

func TestDashboard(t *testing.T) {
	svc, _ := newSeededService(t)
	ctx := context.Background()

	_, err := svc.CreatePost(ctx, models.NewPost{Title: "Draft", Excerpt: "e", Content: "c", Category: "Go"})
	require.NoError(t, err)
	_, err = svc.Subscribe(ctx, "c@x.com")
	require.NoError(t, err)

	d, err := svc.Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, &Dashboard{TotalPosts: 5, PublishedPosts: 4, DraftPosts: 1, Subscribers: 1, Backend: storage.KindMemory}, d)
}

type brokenPrimary struct {
	*memory.Storage
}

func (brokenPrimary) Kind() storage.Kind { return storage.KindMongo }
func (brokenPrimary) Ready() bool        { return true }

func (brokenPrimary) GetFeaturedPost(context.Context) (*models.Post, error) {
	return nil, storage.Unavailable("mongodb.GetFeaturedPost", errors.New("server selection timeout"))
}

func TestFeaturedPost_FallsBackToMemory(t *testing.T) {
	sup := supervisor.New(supervisor.Config{URL: "mongodb://db/blog", ConnectAttempts: 1}, discardLogger(),
		supervisor.WithConnector(storage.KindMongo,
			func(context.Context, string, storage.ConnectionListener) (supervisor.Primary, error) {
				return brokenPrimary{Storage: memory.New()}, nil
			}))
	require.NoError(t, sup.Start(context.Background()))

	svc := New(sup, discardLogger(), time.Second)
	p, err := svc.FeaturedPost(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, p.Title)
	assert.Equal(t, supervisor.StateMemoryActive, sup.State())
}
