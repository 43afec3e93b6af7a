package storage

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/techblog/internal/models"
)

func at(day int) *time.Time {
	t := time.Date(2024, 1, day, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestPostFilter_Match(t *testing.T) {
	p := &models.Post{
		Title:    "Go Concurrency Patterns",
		Excerpt:  "channels and select",
		Content:  "<p>Worker pools</p>",
		Category: "Backend",
		Status:   models.StatusPublished,
	}

	tests := []struct {
		name   string
		filter PostFilter
		want   bool
	}{
		{name: "empty filter", filter: PostFilter{}, want: true},
		{name: "status match", filter: PostFilter{Status: models.StatusPublished}, want: true},
		{name: "status mismatch", filter: PostFilter{Status: models.StatusDraft}, want: false},
		{name: "category mismatch", filter: PostFilter{Category: "Frontend"}, want: false},
		{name: "title query case insensitive", filter: PostFilter{Query: "CONCURRENCY"}, want: true},
		{name: "excerpt query", filter: PostFilter{Query: "select"}, want: true},
		{name: "content query", filter: PostFilter{Query: "worker"}, want: true},
		{name: "query miss", filter: PostFilter{Query: "rust"}, want: false},
		{name: "query and category", filter: PostFilter{Query: "go", Category: "Backend"}, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Match(p))
		})
	}
}

func TestSortPosts_CanonicalOrder(t *testing.T) {
	posts := []models.Post{
		{ID: 1, Title: "old published", PublishedAt: at(1), CreatedAt: *at(1)},
		{ID: 2, Title: "draft newer", CreatedAt: *at(20)},
		{ID: 3, Title: "new published", PublishedAt: at(10), CreatedAt: *at(2)},
		{ID: 4, Title: "draft older", CreatedAt: *at(5)},
		{ID: 5, Title: "same date as 3", PublishedAt: at(10), CreatedAt: *at(2)},
	}

	SortPosts(posts, "")

	var ids []int64
	for _, p := range posts {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []int64{5, 3, 1, 2, 4}, ids)
}

func TestSortPosts_TitleMatchesFirst(t *testing.T) {
	posts := []models.Post{
		{ID: 1, Title: "Recent", Content: "testing everywhere", PublishedAt: at(9)},
		{ID: 2, Title: "Intro to Testing", PublishedAt: at(1)},
		{ID: 3, Title: "Another", Excerpt: "testing", PublishedAt: at(5)},
	}

	SortPosts(posts, "testing")

	assert.Equal(t, int64(2), posts[0].ID)
	assert.Equal(t, int64(1), posts[1].ID)
	assert.Equal(t, int64(3), posts[2].ID)
}

func TestPaginate(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	assert.Equal(t, []int{1, 2, 3, 4, 5}, Paginate(items, 0, 0))
	assert.Equal(t, []int{1, 2}, Paginate(items, 2, 0))
	assert.Equal(t, []int{5}, Paginate(items, 2, 4))
	assert.Empty(t, Paginate(items, 2, 10))
	assert.Equal(t, []int{3, 4, 5}, Paginate(items, 10, 2))
}

func TestPaginationMath(t *testing.T) {
	assert.Equal(t, 0, Offset(1, 10))
	assert.Equal(t, 20, Offset(3, 10))
	assert.Equal(t, 0, Offset(0, 10))
	assert.Equal(t, MaxOffset, Offset(math.MaxInt, 10))
	assert.Equal(t, MaxOffset, Offset(math.MaxInt/2, 100))
	assert.Empty(t, Paginate([]int{1, 2, 3}, 10, Offset(math.MaxInt, 10)))

	assert.Equal(t, 0, TotalPages(0, 10))
	assert.Equal(t, 1, TotalPages(10, 10))
	assert.Equal(t, 2, TotalPages(11, 10))

	assert.Equal(t, DefaultPopularLimit, PopularLimit(0))
	assert.Equal(t, 3, PopularLimit(3))
}

func TestUnavailable(t *testing.T) {
	driverErr := errors.New("connection refused")

	err := Unavailable("op", driverErr)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorIs(t, err, driverErr)

	wrapped := Unavailable("outer", err)
	assert.ErrorIs(t, wrapped, ErrUnavailable)

	assert.NoError(t, Unavailable("op", nil))
}
