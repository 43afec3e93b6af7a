package middlewarectx

import (
	"log/slog"
	"net/http"

	"github.com/magabrotheeeer/techblog/internal/supervisor"
)

// HeaderStorageState сообщает клиенту состояние хранилища на момент запроса.
const HeaderStorageState = "X-Storage-State"

// HealthChecker сверяет готовность основного хранилища.
type HealthChecker interface {
	Check() supervisor.State
}

// StorageHealth вызывает Check перед каждым запросом, чтобы переключение на
// память произошло до обращения обработчика к хранилищу.
func StorageHealth(log *slog.Logger, checker HealthChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			state := checker.Check()
			if state == supervisor.StateProbing {
				log.Debug("storage probe still running", slog.String("path", r.URL.Path))
			}
			w.Header().Set(HeaderStorageState, string(state))
			next.ServeHTTP(w, r)
		})
	}
}
