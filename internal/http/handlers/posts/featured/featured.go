// Package featured отдаёт самый свежий опубликованный пост.
package featured

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/techblog/internal/http/response"
	"github.com/magabrotheeeer/techblog/internal/lib/sl"
	"github.com/magabrotheeeer/techblog/internal/models"
	"github.com/magabrotheeeer/techblog/internal/storage"
)

type Handler struct {
	log     *slog.Logger
	service Service
}

type Service interface {
	FeaturedPost(ctx context.Context) (*models.Post, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Избранный пост
// @Tags Posts
// @Produce json
// @Success 200 {object} models.Post
// @Failure 404 {object} response.ErrorResponse "Опубликованных постов нет"
// @Router /featured-post [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.posts.featured"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	post, err := h.service.FeaturedPost(r.Context())
	if errors.Is(err, storage.ErrNotFound) {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error("no featured post found"))
		return
	}
	if err != nil {
		log.Error("failed to get featured post", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to fetch featured post"))
		return
	}
	render.JSON(w, r, post)
}
