// Package subscribers отдаёт список подписчиков рассылки администратору.
//
// По умолчанию ответ отдаётся JSON-массивом; с ?format=csv список выгружается файлом
// subscribers.csv с колонками id, email, createdAt.
package subscribers

import (
	"context"
	"encoding/csv"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/techblog/internal/http/response"
	"github.com/magabrotheeeer/techblog/internal/lib/sl"
	"github.com/magabrotheeeer/techblog/internal/models"
)

const formatCSV = "csv"

type Handler struct {
	log     *slog.Logger
	service Service
}

type Service interface {
	Subscribers(ctx context.Context) ([]models.Subscriber, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Подписчики
// @Tags Admin
// @Produce json
// @Produce text/csv
// @Param format query string false "csv для выгрузки файлом"
// @Success 200 {array} models.Subscriber
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /admin/subscribers [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.subscribers"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	subs, err := h.service.Subscribers(r.Context())
	if err != nil {
		log.Error("failed to list subscribers", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to fetch subscribers"))
		return
	}
	if subs == nil {
		subs = []models.Subscriber{}
	}

	if r.URL.Query().Get("format") != formatCSV {
		render.JSON(w, r, subs)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="subscribers.csv"`)
	cw := csv.NewWriter(w)
	records := make([][]string, 0, len(subs)+1)
	records = append(records, []string{"id", "email", "createdAt"})
	for _, s := range subs {
		records = append(records, []string{
			strconv.FormatInt(s.ID, 10),
			s.Email,
			s.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	if err := cw.WriteAll(records); err != nil {
		log.Error("failed to write csv", sl.Err(err))
	}
}
