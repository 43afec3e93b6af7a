// Package create реализует HTTP-обработчик создания поста.
//
// Handler принимает JSON с данными поста, валидирует его и передаёт сервису.
// Если автор не указан, им становится текущий пользователь. Slug вычисляется
// из заголовка, когда не задан явно.
package create

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/techblog/internal/http/middlewarectx"
	"github.com/magabrotheeeer/techblog/internal/http/response"
	"github.com/magabrotheeeer/techblog/internal/lib/sl"
	"github.com/magabrotheeeer/techblog/internal/models"
	"github.com/magabrotheeeer/techblog/internal/storage"
)

// Handler управляет HTTP-запросами на создание постов.
type Handler struct {
	log      *slog.Logger        // Логгер для записи информации и ошибок
	service  Service             // Сервис бизнес-логики постов
	validate *validator.Validate // Валидатор структуры входящих данных
}

// Service описывает интерфейс бизнес-логики создания поста.
type Service interface {
	CreatePost(ctx context.Context, np models.NewPost) (*models.Post, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Создать пост
// @Description Создаёт пост. Без publishNow пост остаётся без даты публикации.
// @Tags Admin
// @Accept json
// @Produce json
// @Param request body models.NewPost true "Данные нового поста"
// @Success 201 {object} models.Post
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON или ошибка валидации"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера при создании поста"
// @Router /admin/posts [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.posts.create"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.NewPost
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Info("validation failed", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	user, ok := middlewarectx.UserFromContext(r.Context())
	if !ok {
		log.Error("user not found in context")
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("not authenticated"))
		return
	}
	author := user.ID
	req.AuthorID = &author

	post, err := h.service.CreatePost(r.Context(), req)
	if errors.Is(err, storage.ErrConflict) {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("post with this slug already exists"))
		return
	}
	if err != nil {
		log.Error("failed to create post", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to create post"))
		return
	}

	log.Info("post created", slog.Int64("id", post.ID), slog.String("slug", post.Slug))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, post)
}
