package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/techblog/internal/lib/password"
	"github.com/magabrotheeeer/techblog/internal/models"
)

// Admin — учётные данные администратора, создаваемого при первом запуске бэкенда.
type Admin struct {
	Username string
	Password string
}

// DefaultAdmin используется, когда учётные данные не заданы в конфиге.
var DefaultAdmin = Admin{Username: "admin", Password: "admin123"}

// OrDefault подставляет DefaultAdmin вместо пустых полей.
func (a Admin) OrDefault() Admin {
	if a.Username == "" {
		a.Username = DefaultAdmin.Username
	}
	if a.Password == "" {
		a.Password = DefaultAdmin.Password
	}
	return a
}

// NewUser хеширует пароль и возвращает данные для создания администратора.
func (a Admin) NewUser() (models.NewUser, error) {
	hash, err := password.GetHash(a.Password)
	if err != nil {
		return models.NewUser{}, err
	}
	return models.NewUser{
		Username:     a.Username,
		PasswordHash: hash,
		DisplayName:  "Admin",
		IsAdmin:      true,
	}, nil
}

// UserStore — часть Storage, нужная для начальной загрузки.
type UserStore interface {
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	CreateUser(ctx context.Context, user models.NewUser) (*models.User, error)
}

// EnsureAdmin создаёт администратора, если его ещё нет. Повторный вызов ничего не меняет.
func EnsureAdmin(ctx context.Context, users UserStore, admin Admin) (*models.User, error) {
	const op = "storage.EnsureAdmin"
	admin = admin.OrDefault()

	existing, err := users.GetUserByUsername(ctx, admin.Username)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	nu, err := admin.NewUser()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	created, err := users.CreateUser(ctx, nu)
	if errors.Is(err, ErrConflict) {
		// админа создал параллельный запуск
		return users.GetUserByUsername(ctx, admin.Username)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return created, nil
}

func intPtr(v int) *int { return &v }

// SamplePosts возвращает демонстрационные статьи для свежего хранилища в памяти.
func SamplePosts(authorID int64) []models.NewPost {
	author := authorID
	return []models.NewPost{
		{
			Title:         "The Future of AI in Tech Career Development",
			Excerpt:       "How artificial intelligence is reshaping the skills engineers need and the paths their careers take.",
			Content:       "<p>Artificial intelligence is changing how teams hire, how engineers learn and which roles grow fastest.</p><p>Staying relevant means pairing fundamentals with a working knowledge of AI tooling.</p>",
			FeaturedImage: "https://images.unsplash.com/photo-1677442136019-21780ecad995",
			Category:      "Career Development",
			ReadTime:      intPtr(8),
			AuthorID:      &author,
			PublishNow:    true,
		},
		{
			Title:         "How to Prepare for Technical Interviews in 2024",
			Excerpt:       "A practical plan for algorithm practice, system design and behavioural rounds.",
			Content:       "<p>Start with data structures, move on to system design and rehearse your stories for behavioural interviews.</p>",
			FeaturedImage: "https://images.unsplash.com/photo-1573164713988-8665fc963095",
			Category:      "Career Development",
			ReadTime:      intPtr(6),
			AuthorID:      &author,
			PublishNow:    true,
		},
		{
			Title:         "The Complete Guide to Modern Frontend Frameworks",
			Excerpt:       "Comparing the component models, rendering strategies and ecosystems of today's frontend frameworks.",
			Content:       "<p>Frameworks differ in reactivity, server rendering support and tooling. Pick the one whose trade-offs match your product.</p>",
			FeaturedImage: "https://images.unsplash.com/photo-1633356122544-f134324a6cee",
			Category:      "Web Development",
			ReadTime:      intPtr(10),
			AuthorID:      &author,
			PublishNow:    true,
		},
		{
			Title:         "Getting Started with Machine Learning: A Beginner's Guide",
			Excerpt:       "The math, tools and first projects that make machine learning approachable.",
			Content:       "<p>Learn enough linear algebra and statistics, pick up a notebook environment and train your first model on a small dataset.</p>",
			FeaturedImage: "https://images.unsplash.com/photo-1555949963-aa79dcee981c",
			Category:      "Machine Learning",
			ReadTime:      intPtr(7),
			AuthorID:      &author,
			PublishNow:    true,
		},
	}
}
