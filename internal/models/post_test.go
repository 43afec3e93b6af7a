package models

import (
	"testing"
	"time"

	"github.com/go-playground/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestNewPost_Build(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	t.Run("draft by default", func(t *testing.T) {
		p := NewPost{Title: "T", Excerpt: "e", Content: "c", Category: "Go"}.Build(1, "t", now)
		assert.Equal(t, StatusDraft, p.Status)
		assert.Nil(t, p.PublishedAt)
		require.NotNil(t, p.ReadTime)
		assert.Equal(t, DefaultReadTime, *p.ReadTime)
		assert.Equal(t, now, p.CreatedAt)
		assert.Equal(t, now, p.UpdatedAt)
	})

	t.Run("publish now", func(t *testing.T) {
		p := NewPost{Title: "T", PublishNow: true, ReadTime: ptr(9)}.Build(2, "t", now)
		assert.Equal(t, StatusPublished, p.Status)
		require.NotNil(t, p.PublishedAt)
		assert.Equal(t, now, *p.PublishedAt)
		assert.Equal(t, 9, *p.ReadTime)
	})

	t.Run("published status without flag leaves date unset", func(t *testing.T) {
		p := NewPost{Title: "T", Status: StatusPublished}.Build(3, "t", now)
		assert.Equal(t, StatusPublished, p.Status)
		assert.Nil(t, p.PublishedAt)
	})
}

func TestPostUpdate_Apply(t *testing.T) {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	published := created.Add(time.Hour)
	later := created.Add(48 * time.Hour)

	t.Run("publish keeps first publication date", func(t *testing.T) {
		p := Post{Status: StatusPublished, PublishedAt: &published}
		PostUpdate{PublishNow: true}.Apply(&p, later)
		assert.Equal(t, published, *p.PublishedAt)
		assert.Equal(t, later, p.UpdatedAt)
	})

	t.Run("publish draft sets date", func(t *testing.T) {
		p := Post{Status: StatusDraft}
		PostUpdate{PublishNow: true, Status: ptr(StatusDraft)}.Apply(&p, later)
		assert.Equal(t, StatusPublished, p.Status)
		require.NotNil(t, p.PublishedAt)
		assert.Equal(t, later, *p.PublishedAt)
	})

	t.Run("unpublish keeps date", func(t *testing.T) {
		p := Post{Status: StatusPublished, PublishedAt: &published}
		PostUpdate{Status: ptr(StatusDraft)}.Apply(&p, later)
		assert.Equal(t, StatusDraft, p.Status)
		assert.Equal(t, published, *p.PublishedAt)
	})

	t.Run("partial fields", func(t *testing.T) {
		p := Post{Title: "Old", Excerpt: "keep", Category: "Go"}
		u := PostUpdate{Title: ptr("New"), ReadTime: ptr(3)}
		assert.True(t, u.TitleChanged(&p))
		u.Apply(&p, later)
		assert.Equal(t, "New", p.Title)
		assert.Equal(t, "keep", p.Excerpt)
		assert.Equal(t, 3, *p.ReadTime)
		assert.False(t, u.TitleChanged(&p))
	})
}

func TestNewPost_Validation(t *testing.T) {
	validate := validator.New()

	valid := NewPost{Title: "Title", Excerpt: "e", Content: "c", Category: "Go"}
	assert.NoError(t, validate.Struct(valid))

	long := valid
	long.Title = string(make([]byte, 201))
	assert.Error(t, validate.Struct(long))

	badStatus := valid
	badStatus.Status = "archived"
	assert.Error(t, validate.Struct(badStatus))

	badImage := valid
	badImage.FeaturedImage = "not a url"
	assert.Error(t, validate.Struct(badImage))

	assert.Error(t, validate.Struct(NewSubscriber{Email: "nope"}))
	assert.NoError(t, validate.Struct(NewSubscriber{Email: "a@x.com"}))
}

func TestNewUser_Build(t *testing.T) {
	u := NewUser{Username: "editor"}.Build(4)
	assert.Equal(t, "editor", u.DisplayName)
	assert.False(t, u.IsAdmin)

	name := "Editor"
	UserUpdate{DisplayName: &name}.Apply(&u)
	assert.Equal(t, "Editor", u.DisplayName)
}
