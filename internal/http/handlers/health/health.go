// Package health отвечает на проверки живости процесса.
package health

import (
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/techblog/internal/supervisor"
)

// Probe сообщает состояние хранилища.
type Probe interface {
	State() supervisor.State
}

// Result — тело ответа /healthz.
type Result struct {
	Status  string           `json:"status"`
	Storage supervisor.State `json:"storage"`
}

type Handler struct {
	probe Probe
}

func New(probe Probe) *Handler {
	return &Handler{probe: probe}
}

// ServeHTTP godoc
// @Summary Проверка живости
// @Description Процесс жив, пока отвечает; работа на памяти не считается отказом.
// @Tags Ops
// @Produce json
// @Success 200 {object} Result
// @Router /healthz [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, Result{Status: "ok", Storage: h.probe.State()})
}
