// Package dashboard отдаёт сводку для главной страницы панели администратора.
package dashboard

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/techblog/internal/http/response"
	"github.com/magabrotheeeer/techblog/internal/lib/sl"
	"github.com/magabrotheeeer/techblog/internal/services/blog"
)

type Handler struct {
	log     *slog.Logger
	service Service
}

type Service interface {
	Dashboard(ctx context.Context) (*blog.Dashboard, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Сводка
// @Description Количество постов по статусам и число подписчиков.
// @Tags Admin
// @Produce json
// @Success 200 {object} blog.Dashboard
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /admin/dashboard [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.dashboard"

	d, err := h.service.Dashboard(r.Context())
	if err != nil {
		h.log.Error("failed to build dashboard",
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			sl.Err(err),
		)
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to build dashboard"))
		return
	}
	render.JSON(w, r, d)
}
