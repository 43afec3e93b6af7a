// Package logout завершает сессию текущего пользователя.
package logout

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/techblog/internal/http/middlewarectx"
	"github.com/magabrotheeeer/techblog/internal/http/response"
	"github.com/magabrotheeeer/techblog/internal/lib/sl"
)

type Handler struct {
	log     *slog.Logger
	service Service
	cookie  middlewarectx.SessionCookie
}

type Service interface {
	Logout(ctx context.Context, token string) error
}

func New(log *slog.Logger, service Service, cookie middlewarectx.SessionCookie) *Handler {
	return &Handler{
		log:     log,
		service: service,
		cookie:  cookie,
	}
}

// ServeHTTP godoc
// @Summary Выход
// @Description Удаляет серверную сессию и cookie. Запрос без сессии тоже успешен.
// @Tags Auth
// @Produce json
// @Success 200 {object} response.Response
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /logout [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.logout"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	h.cookie.Clear(w)
	token := middlewarectx.TokenFromRequest(r, h.cookie.Name)
	if token == "" {
		render.JSON(w, r, response.Message("logged out"))
		return
	}

	if err := h.service.Logout(r.Context(), token); err != nil {
		log.Error("failed to destroy session", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to log out"))
		return
	}
	render.JSON(w, r, response.Message("logged out"))
}
