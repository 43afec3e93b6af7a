package postgresql

import (
	"fmt"
	"strings"

	"github.com/magabrotheeeer/techblog/internal/storage"
)

const postColumns = `id, title, slug, excerpt, content, featured_image, category, status,
	read_time, author_id, created_at, updated_at, published_at`

const canonicalOrder = `(published_at IS NULL), published_at DESC, created_at DESC, id DESC`

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// whereClause строит WHERE для списков и подсчёта одним и тем же кодом.
// Возвращает также номер параметра с шаблоном поиска (0, если поиска нет).
func whereClause(f storage.PostFilter) (string, []any, int) {
	var conds []string
	var args []any
	queryArg := 0

	if f.Status != "" {
		args = append(args, f.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if f.Category != "" {
		args = append(args, f.Category)
		conds = append(conds, fmt.Sprintf("category = $%d", len(args)))
	}
	if f.Query != "" {
		args = append(args, "%"+likeEscaper.Replace(f.Query)+"%")
		queryArg = len(args)
		conds = append(conds, fmt.Sprintf("(title ILIKE $%[1]d OR excerpt ILIKE $%[1]d OR content ILIKE $%[1]d)", queryArg))
	}

	if len(conds) == 0 {
		return "", args, queryArg
	}
	return " WHERE " + strings.Join(conds, " AND "), args, queryArg
}

// listQuery возвращает SELECT постов с фильтром, порядком и пагинацией.
func listQuery(f storage.PostFilter, opts storage.ListOptions) (string, []any) {
	where, args, queryArg := whereClause(f)

	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(postColumns)
	b.WriteString(" FROM posts")
	b.WriteString(where)
	b.WriteString(" ORDER BY ")
	if queryArg > 0 {
		fmt.Fprintf(&b, "CASE WHEN title ILIKE $%d THEN 0 ELSE 1 END, ", queryArg)
	}
	b.WriteString(canonicalOrder)

	if opts.Limit > 0 {
		args = append(args, opts.Limit)
		fmt.Fprintf(&b, " LIMIT $%d", len(args))
	}
	if opts.Offset > 0 {
		args = append(args, opts.Offset)
		fmt.Fprintf(&b, " OFFSET $%d", len(args))
	}
	return b.String(), args
}

// countQuery возвращает count(*) с тем же WHERE, что и listQuery.
func countQuery(f storage.PostFilter) (string, []any) {
	where, args, _ := whereClause(f)
	return "SELECT count(*) FROM posts" + where, args
}
