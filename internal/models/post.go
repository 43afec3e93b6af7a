package models

import "time"

// Статусы поста.
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
)

// DefaultReadTime подставляется, если время чтения не указано.
const DefaultReadTime = 5

// Post представляет статью блога.
type Post struct {
	ID            int64      `json:"id" bson:"_id"`
	Title         string     `json:"title" bson:"title"`
	Slug          string     `json:"slug" bson:"slug"`
	Excerpt       string     `json:"excerpt" bson:"excerpt"`
	Content       string     `json:"content" bson:"content"`
	FeaturedImage string     `json:"featuredImage,omitempty" bson:"featuredImage,omitempty"`
	Category      string     `json:"category" bson:"category"`
	Status        string     `json:"status" bson:"status"`
	ReadTime      *int       `json:"readTime,omitempty" bson:"readTime,omitempty"`
	AuthorID      *int64     `json:"authorId,omitempty" bson:"authorId,omitempty"`
	CreatedAt     time.Time  `json:"createdAt" bson:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt" bson:"updatedAt"`
	PublishedAt   *time.Time `json:"publishedAt,omitempty" bson:"publishedAt,omitempty"`
}

// IsPublished сообщает, виден ли пост публично.
func (p *Post) IsPublished() bool {
	return p.Status == StatusPublished
}

// NewPost — данные для создания поста.
type NewPost struct {
	Title         string `json:"title" validate:"required,min=1,max=200"`
	Slug          string `json:"slug,omitempty" validate:"omitempty,max=220"`
	Excerpt       string `json:"excerpt" validate:"required,max=500"`
	Content       string `json:"content" validate:"required"`
	FeaturedImage string `json:"featuredImage,omitempty" validate:"omitempty,url"`
	Category      string `json:"category" validate:"required,max=100"`
	Status        string `json:"status,omitempty" validate:"omitempty,oneof=draft published"`
	ReadTime      *int   `json:"readTime,omitempty" validate:"omitempty,min=1,max=600"`
	AuthorID      *int64 `json:"-"` // всегда пользователь сессии
	PublishNow    bool   `json:"publishNow,omitempty"`
}

// Build собирает пост с уже вычисленным уникальным slug.
//
// Без флага PublishNow publishedAt не выставляется, даже если передан статус published.
func (n NewPost) Build(id int64, slug string, now time.Time) Post {
	status := n.Status
	if status == "" {
		status = StatusDraft
	}
	readTime := DefaultReadTime
	if n.ReadTime != nil {
		readTime = *n.ReadTime
	}
	p := Post{
		ID:            id,
		Title:         n.Title,
		Slug:          slug,
		Excerpt:       n.Excerpt,
		Content:       n.Content,
		FeaturedImage: n.FeaturedImage,
		Category:      n.Category,
		Status:        status,
		ReadTime:      &readTime,
		AuthorID:      n.AuthorID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if n.PublishNow {
		p.Status = StatusPublished
		published := now
		p.PublishedAt = &published
	}
	return p
}

// PostUpdate — частичное обновление поста. nil означает "не менять".
type PostUpdate struct {
	Title         *string `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Slug          *string `json:"slug,omitempty" validate:"omitempty,max=220"`
	Excerpt       *string `json:"excerpt,omitempty" validate:"omitempty,max=500"`
	Content       *string `json:"content,omitempty" validate:"omitempty,min=1"`
	FeaturedImage *string `json:"featuredImage,omitempty" validate:"omitempty,url"`
	Category      *string `json:"category,omitempty" validate:"omitempty,min=1,max=100"`
	Status        *string `json:"status,omitempty" validate:"omitempty,oneof=draft published"`
	ReadTime      *int    `json:"readTime,omitempty" validate:"omitempty,min=1,max=600"`
	PublishNow    bool    `json:"publishNow,omitempty"`
}

// TitleChanged сообщает, меняет ли обновление заголовок поста p.
func (u PostUpdate) TitleChanged(p *Post) bool {
	return u.Title != nil && *u.Title != p.Title
}

// Apply применяет обновление к посту, не трогая slug.
//
// publishedAt выставляется только при PublishNow и не сбрасывается при
// последующих правках, в том числе при возврате в черновик.
func (u PostUpdate) Apply(p *Post, now time.Time) {
	if u.Title != nil {
		p.Title = *u.Title
	}
	if u.Excerpt != nil {
		p.Excerpt = *u.Excerpt
	}
	if u.Content != nil {
		p.Content = *u.Content
	}
	if u.FeaturedImage != nil {
		p.FeaturedImage = *u.FeaturedImage
	}
	if u.Category != nil {
		p.Category = *u.Category
	}
	if u.Status != nil {
		p.Status = *u.Status
	}
	if u.ReadTime != nil {
		rt := *u.ReadTime
		p.ReadTime = &rt
	}
	if u.PublishNow {
		if !p.IsPublished() || p.PublishedAt == nil {
			published := now
			p.PublishedAt = &published
		}
		p.Status = StatusPublished
	}
	p.UpdatedAt = now
}
