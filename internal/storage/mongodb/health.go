package mongodb

import (
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo/description"

	"github.com/magabrotheeeer/techblog/internal/lib/sl"
)

// ErrNoWritableServer — в топологии не осталось сервера, принимающего запись.
var ErrNoWritableServer = errors.New("no writable server in topology")

// writable ищет в топологии сервер, на который драйвер может отправить запись.
// Отказ отдельного члена набора реплик готовность не снимает.
func writable(topo description.Topology) (bool, error) {
	var lastErr error
	for _, srv := range topo.Servers {
		switch srv.Kind {
		case description.Standalone, description.RSPrimary, description.Mongos, description.LoadBalancer:
			return true, nil
		}
		if srv.LastError != nil {
			lastErr = fmt.Errorf("%s: %w", srv.Addr, srv.LastError)
		}
	}
	if lastErr == nil {
		return false, ErrNoWritableServer
	}
	return false, fmt.Errorf("%w: %w", ErrNoWritableServer, lastErr)
}

// observe вызывается драйвером под блокировкой топологии, поэтому только
// обновляет состояние и будит watch. До окончания New события игнорируются.
func (s *Storage) observe(topo description.Topology) {
	if !s.started.Load() {
		return
	}
	ready, err := writable(topo)
	s.healthMu.Lock()
	s.healthErr = err
	s.healthMu.Unlock()
	s.ready.Store(ready)

	select {
	case s.changed <- struct{}{}:
	default:
	}
}

// watch передаёт смены готовности слушателю по одной, в порядке их наблюдения.
func (s *Storage) watch() {
	for {
		select {
		case <-s.done:
			return
		case <-s.changed:
			s.dispatch()
		}
	}
}

// dispatch сообщает слушателю, если готовность изменилась с прошлого сообщения.
func (s *Storage) dispatch() {
	ready := s.ready.Load()
	if ready == s.reported {
		return
	}
	s.reported = ready

	if !ready {
		s.healthMu.Lock()
		err := s.healthErr
		s.healthMu.Unlock()
		s.log.Warn("mongodb has no writable server", sl.Err(err))
		if s.listener != nil {
			s.listener.Disconnected(err)
		}
		return
	}
	s.log.Info("mongodb connection restored")
	if s.listener != nil {
		s.listener.Reconnected()
	}
}
