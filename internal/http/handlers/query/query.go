// Package query разбирает общие параметры запросов: пагинацию и идентификаторы.
package query

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

	"github.com/magabrotheeeer/techblog/internal/services/blog"
)

// Int читает целый параметр name из строки запроса. Отсутствующее или
// некорректное значение заменяется на def.
func Int(r *http.Request, name string, def int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil {
		return def
	}
	return v
}

// Posts собирает параметры списка постов из page, limit и category.
func Posts(r *http.Request) blog.PostQuery {
	q := r.URL.Query()
	return blog.PostQuery{
		Page:     Int(r, "page", 1),
		Limit:    Int(r, "limit", blog.DefaultPageSize),
		Category: q.Get("category"),
	}.Normalize()
}

// ID читает положительный идентификатор из параметра пути "id".
func ID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, err
	}
	if id <= 0 {
		return 0, strconv.ErrRange
	}
	return id, nil
}
