// Package list реализует HTTP-обработчик публичного списка постов.
//
// Handler отдаёт страницу опубликованных постов с пагинацией. Категория берётся
// из параметра пути {category} или из строки запроса. Если хранилище недоступно,
// клиент получает пустую страницу вместо ошибки.
package list

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/techblog/internal/http/handlers/query"
	"github.com/magabrotheeeer/techblog/internal/lib/sl"
	"github.com/magabrotheeeer/techblog/internal/models"
	"github.com/magabrotheeeer/techblog/internal/services/blog"
)

// Handler обрабатывает запросы на список опубликованных постов.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики списка постов.
type Service interface {
	ListPosts(ctx context.Context, q blog.PostQuery) (*blog.PostPage, error)
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Список постов
// @Description Возвращает страницу опубликованных постов, новые первыми.
// @Tags Posts
// @Produce json
// @Param page query int false "Номер страницы" default(1)
// @Param limit query int false "Размер страницы" default(10)
// @Param category query string false "Категория"
// @Success 200 {object} blog.PostPage
// @Router /posts [get]
// @Router /categories/{category}/posts [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.posts.list"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	q := query.Posts(r)
	if category := chi.URLParam(r, "category"); category != "" {
		q.Category = category
	}
	q.Status = models.StatusPublished

	page, err := h.service.ListPosts(r.Context(), q)
	if err != nil {
		log.Error("failed to list posts, serving empty page", sl.Err(err))
		render.JSON(w, r, blog.EmptyPage(q))
		return
	}

	log.Debug("posts listed", slog.Int("count", len(page.Posts)), slog.Int("total", page.Pagination.Total))
	render.JSON(w, r, page)
}
