// Package search реализует HTTP-обработчик поиска по опубликованным постам.
//
// Запрос проверяется валидатором до обращения к хранилищу: короче двух или
// длиннее пятидесяти символов он отклоняется с кодом 400.
package search

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/techblog/internal/http/handlers/query"
	"github.com/magabrotheeeer/techblog/internal/http/response"
	"github.com/magabrotheeeer/techblog/internal/lib/sl"
	"github.com/magabrotheeeer/techblog/internal/models"
	"github.com/magabrotheeeer/techblog/internal/services/blog"
)

// Request — параметры поиска.
type Request struct {
	Query string `validate:"required,min=2,max=50"`
	Page  int    `validate:"min=1"`
	Limit int    `validate:"min=1,max=100"`
}

// Handler обрабатывает поисковые запросы.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики поиска.
type Service interface {
	Search(ctx context.Context, query string, page, limit int) ([]models.Post, error)
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Поиск постов
// @Description Ищет подстроку в заголовке, анонсе и тексте опубликованных постов. Совпадения в заголовке идут первыми.
// @Tags Posts
// @Produce json
// @Param query query string true "Строка поиска, 2-50 символов"
// @Param page query int false "Номер страницы" default(1)
// @Param limit query int false "Размер страницы" default(10)
// @Success 200 {array} models.Post
// @Failure 400 {object} response.ErrorResponse "Некорректный запрос"
// @Router /search [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.posts.search"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	req := Request{
		Query: strings.TrimSpace(r.URL.Query().Get("query")),
		Page:  query.Int(r, "page", 1),
		Limit: query.Int(r, "limit", blog.DefaultPageSize),
	}
	if err := h.validate.Struct(req); err != nil {
		log.Info("invalid search query", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	posts, err := h.service.Search(r.Context(), req.Query, req.Page, req.Limit)
	if err != nil {
		log.Error("failed to search posts, serving empty result", sl.Err(err))
		posts = []models.Post{}
	}
	if posts == nil {
		posts = []models.Post{}
	}
	log.Debug("search done", slog.String("query", req.Query), slog.Int("count", len(posts)))
	render.JSON(w, r, posts)
}
