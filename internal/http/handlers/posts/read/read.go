// Package read реализует HTTP-обработчик получения поста по slug.
//
// Черновик отдаётся только администратору; для остальных он неотличим от
// отсутствующего поста.
package read

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/techblog/internal/http/middlewarectx"
	"github.com/magabrotheeeer/techblog/internal/http/response"
	"github.com/magabrotheeeer/techblog/internal/lib/sl"
	"github.com/magabrotheeeer/techblog/internal/models"
	"github.com/magabrotheeeer/techblog/internal/storage"
)

// Handler обрабатывает запросы на чтение поста по slug.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики чтения поста.
type Service interface {
	GetPostBySlug(ctx context.Context, slug string, includeDrafts bool) (*models.Post, error)
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Пост по slug
// @Tags Posts
// @Produce json
// @Param slug path string true "Slug поста"
// @Success 200 {object} models.Post
// @Failure 404 {object} response.ErrorResponse "Пост не найден"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /posts/{slug} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.posts.read"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	slug := chi.URLParam(r, "slug")
	user, _ := middlewarectx.UserFromContext(r.Context())
	includeDrafts := user != nil && user.IsAdmin

	post, err := h.service.GetPostBySlug(r.Context(), slug, includeDrafts)
	if errors.Is(err, storage.ErrNotFound) {
		log.Info("post not found", slog.String("slug", slug))
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error("post not found"))
		return
	}
	if err != nil {
		log.Error("failed to read post", slog.String("slug", slug), sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to fetch post"))
		return
	}

	render.JSON(w, r, post)
}
