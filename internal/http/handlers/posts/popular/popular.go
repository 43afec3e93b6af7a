// Package popular отдаёт последние опубликованные посты для блока "популярное".
package popular

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/techblog/internal/http/handlers/query"
	"github.com/magabrotheeeer/techblog/internal/lib/sl"
	"github.com/magabrotheeeer/techblog/internal/models"
)

type Handler struct {
	log     *slog.Logger
	service Service
}

type Service interface {
	PopularPosts(ctx context.Context, limit int) ([]models.Post, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Популярные посты
// @Tags Posts
// @Produce json
// @Param limit query int false "Количество" default(5)
// @Success 200 {array} models.Post
// @Router /popular-posts [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.posts.popular"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	posts, err := h.service.PopularPosts(r.Context(), query.Int(r, "limit", 0))
	if err != nil {
		log.Error("failed to get popular posts, serving empty list", sl.Err(err))
		posts = []models.Post{}
	}
	if posts == nil {
		posts = []models.Post{}
	}
	render.JSON(w, r, posts)
}
