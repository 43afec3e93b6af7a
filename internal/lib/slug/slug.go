// Package slug формирует URL-идентификаторы постов из заголовков.
package slug

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// MaxAttempts ограничивает число суффиксов, перебираемых Unique.
const MaxAttempts = 1000

// Fallback используется, если из заголовка не осталось ни одного допустимого символа.
const Fallback = "post"

// ErrExhausted возвращается, когда все суффиксы заняты.
var ErrExhausted = errors.New("no free slug left")

var (
	spaces   = regexp.MustCompile(`\s+`)
	nonWord  = regexp.MustCompile(`[^\w-]+`)
	dashes   = regexp.MustCompile(`-{2,}`)
	ampRepls = strings.NewReplacer("&", "-and-")
)

// Make переводит произвольную строку в slug: нижний регистр, пробелы в дефисы,
// "&" в "-and-", всё кроме [a-z0-9_-] удаляется, повторные дефисы схлопываются.
func Make(text string) string {
	s := strings.TrimSpace(strings.ToLower(text))
	s = spaces.ReplaceAllString(s, "-")
	s = ampRepls.Replace(s)
	s = nonWord.ReplaceAllString(s, "")
	s = dashes.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// ExistsFunc сообщает, занят ли slug другим постом.
type ExistsFunc func(ctx context.Context, slug string) (bool, error)

// Unique возвращает первый свободный вариант из base, base-1, base-2 и так далее.
func Unique(ctx context.Context, base string, exists ExistsFunc) (string, error) {
	const op = "slug.Unique"

	if base == "" {
		base = Fallback
	}
	for i := 0; i < MaxAttempts; i++ {
		candidate := base
		if i > 0 {
			candidate = base + "-" + strconv.Itoa(i)
		}
		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("%s: %w", op, err)
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%s: %w", op, ErrExhausted)
}
