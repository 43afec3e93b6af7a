// Package list реализует список постов для панели администратора.
//
// В отличие от публичного списка здесь видны черновики, а ошибка хранилища
// возвращается клиенту как 500.
package list

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/techblog/internal/http/handlers/query"
	"github.com/magabrotheeeer/techblog/internal/http/response"
	"github.com/magabrotheeeer/techblog/internal/lib/sl"
	"github.com/magabrotheeeer/techblog/internal/services/blog"
)

// Filter — необязательный фильтр по статусу.
type Filter struct {
	Status string `validate:"omitempty,oneof=draft published"`
}

type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

type Service interface {
	ListPosts(ctx context.Context, q blog.PostQuery) (*blog.PostPage, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Все посты
// @Tags Admin
// @Produce json
// @Param page query int false "Номер страницы" default(1)
// @Param limit query int false "Размер страницы" default(10)
// @Param status query string false "draft или published"
// @Param category query string false "Категория"
// @Success 200 {object} blog.PostPage
// @Failure 400 {object} response.ErrorResponse "Некорректный статус"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /admin/posts [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.posts.list"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	filter := Filter{Status: r.URL.Query().Get("status")}
	if err := h.validate.Struct(filter); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	q := query.Posts(r)
	q.Status = filter.Status
	page, err := h.service.ListPosts(r.Context(), q)
	if err != nil {
		log.Error("failed to list posts", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to fetch posts"))
		return
	}
	render.JSON(w, r, page)
}
