package storage

import (
	"math"
	"sort"
	"strings"

	"github.com/magabrotheeeer/techblog/internal/models"
)

// PostFilter — общий фильтр для списков, поиска и подсчёта постов.
// Пустое поле не ограничивает выборку.
type PostFilter struct {
	Status   string
	Category string
	Query    string
}

// Filter превращает параметры подсчёта в фильтр.
func (o CountOptions) Filter() PostFilter {
	return PostFilter{Status: o.Status, Category: o.Category, Query: o.Query}
}

// Match сообщает, проходит ли пост фильтр. Поиск ищет подстроку без учёта
// регистра в заголовке, анонсе или тексте.
func (f PostFilter) Match(p *models.Post) bool {
	if f.Status != "" && p.Status != f.Status {
		return false
	}
	if f.Category != "" && p.Category != f.Category {
		return false
	}
	if f.Query == "" {
		return true
	}
	q := strings.ToLower(f.Query)
	return strings.Contains(strings.ToLower(p.Title), q) ||
		strings.Contains(strings.ToLower(p.Excerpt), q) ||
		strings.Contains(strings.ToLower(p.Content), q)
}

// TitleMatches сообщает, содержит ли заголовок поста строку запроса.
func TitleMatches(p *models.Post, query string) bool {
	return query != "" && strings.Contains(strings.ToLower(p.Title), strings.ToLower(query))
}

// Less задаёт каноничный порядок постов: сначала посты с датой публикации
// по её убыванию, затем посты без неё по убыванию даты создания, при
// равенстве по убыванию id.
func Less(a, b *models.Post) bool {
	switch {
	case a.PublishedAt != nil && b.PublishedAt != nil:
		if !a.PublishedAt.Equal(*b.PublishedAt) {
			return a.PublishedAt.After(*b.PublishedAt)
		}
	case a.PublishedAt != nil:
		return true
	case b.PublishedAt != nil:
		return false
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}

// SortPosts сортирует посты каноничным порядком. Если задан query,
// посты с совпадением в заголовке идут первыми.
func SortPosts(posts []models.Post, query string) {
	sort.SliceStable(posts, func(i, j int) bool {
		if query != "" {
			ti, tj := TitleMatches(&posts[i], query), TitleMatches(&posts[j], query)
			if ti != tj {
				return ti
			}
		}
		return Less(&posts[i], &posts[j])
	})
}

// Paginate возвращает срез items[offset:offset+limit]. При limit <= 0 срез не ограничивается.
func Paginate[T any](items []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

// MaxOffset ограничивает смещение: страницы дальше заведомо пусты.
const MaxOffset = math.MaxInt32

// Offset переводит номер страницы (с 1) в смещение. Слишком большой номер
// даёт MaxOffset, а не переполнение.
func Offset(page, limit int) int {
	if page < 1 || limit < 1 {
		return 0
	}
	if page-1 > MaxOffset/limit {
		return MaxOffset
	}
	return (page - 1) * limit
}

// TotalPages возвращает ceil(total/limit).
func TotalPages(total, limit int) int {
	if limit < 1 {
		return 1
	}
	return (total + limit - 1) / limit
}

// PopularLimit нормализует размер выборки популярных постов.
func PopularLimit(limit int) int {
	if limit <= 0 {
		return DefaultPopularLimit
	}
	return limit
}
