// Package status отдаёт снимок состояния хранилища для страницы "Система".
package status

import (
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/techblog/internal/supervisor"
)

// Reporter возвращает текущее состояние супервизора хранилища.
type Reporter interface {
	Status() supervisor.Status
}

type Handler struct {
	reporter Reporter
}

func New(reporter Reporter) *Handler {
	return &Handler{reporter: reporter}
}

// ServeHTTP godoc
// @Summary Состояние системы
// @Description Вид активного хранилища, состояние соединения, аптайм процесса и расход памяти.
// @Tags Admin
// @Produce json
// @Success 200 {object} supervisor.Status
// @Router /admin/system/status [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.reporter.Status())
}
