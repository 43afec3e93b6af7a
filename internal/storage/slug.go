package storage

import "github.com/magabrotheeeer/techblog/internal/models"

// MaxSlugRetries ограничивает повторы вставки при гонке за один slug.
const MaxSlugRetries = 5

// SlugSource решает, нужно ли пересчитать slug при обновлении поста, и из чего.
// Явный slug имеет приоритет; без него slug меняется только вместе с заголовком.
func SlugSource(p *models.Post, update models.PostUpdate) (string, bool) {
	if update.Slug != nil && *update.Slug != "" {
		return *update.Slug, true
	}
	if update.TitleChanged(p) {
		return *update.Title, true
	}
	return "", false
}

// NewPostSlugSource возвращает строку, из которой строится slug нового поста.
func NewPostSlugSource(np models.NewPost) string {
	if np.Slug != "" {
		return np.Slug
	}
	return np.Title
}
