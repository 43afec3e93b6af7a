package supervisor

import (
	"runtime"
	"time"

	"github.com/magabrotheeeer/techblog/internal/storage"
)

// MemoryStats — срез runtime.MemStats для страницы состояния.
type MemoryStats struct {
	Alloc      uint64 `json:"alloc"`
	TotalAlloc uint64 `json:"totalAlloc"`
	Sys        uint64 `json:"sys"`
	HeapInuse  uint64 `json:"heapInuse"`
	NumGC      uint32 `json:"numGC"`
	Goroutines int    `json:"goroutines"`
}

// Status — снимок состояния хранилища для администратора.
type Status struct {
	Backend       storage.Kind         `json:"backend"`
	Configured    storage.Kind         `json:"configured,omitempty"`
	State         State                `json:"state"`
	Capabilities  map[Capability]State `json:"capabilities"`
	Connection    string               `json:"connection"`
	Switches      int                  `json:"switches"`
	LastError     string               `json:"lastError,omitempty"`
	LastErrorAt   *time.Time           `json:"lastErrorAt,omitempty"`
	StartedAt     time.Time            `json:"startedAt"`
	Uptime        string               `json:"uptime"`
	UptimeSeconds float64              `json:"uptimeSeconds"`
	Memory        MemoryStats          `json:"memory"`
}

// Состояния соединения с основным хранилищем.
const (
	ConnectionConnected     = "connected"
	ConnectionDisconnected  = "disconnected"
	ConnectionNotConfigured = "not configured"
)

// Status возвращает снимок состояния.
func (s *Supervisor) Status() Status {
	s.mu.RLock()
	st := Status{
		Configured:   s.configured,
		State:        s.states[CapabilityData],
		Capabilities: make(map[Capability]State, len(s.states)),
		Switches:     s.switchCount,
		StartedAt:    s.startedAt,
	}
	for c, state := range s.states {
		st.Capabilities[c] = state
	}
	if s.data != nil {
		st.Backend = s.data.Kind()
	}
	switch {
	case s.primary == nil:
		st.Connection = ConnectionNotConfigured
	case s.connected:
		st.Connection = ConnectionConnected
	default:
		st.Connection = ConnectionDisconnected
	}
	if s.lastErr != nil {
		st.LastError = s.lastErr.Error()
		at := s.lastErrAt
		st.LastErrorAt = &at
	}
	s.mu.RUnlock()

	if !st.StartedAt.IsZero() {
		uptime := s.now().Sub(st.StartedAt).Round(time.Second)
		st.Uptime = uptime.String()
		st.UptimeSeconds = uptime.Seconds()
	}

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	st.Memory = MemoryStats{
		Alloc:      ms.Alloc,
		TotalAlloc: ms.TotalAlloc,
		Sys:        ms.Sys,
		HeapInuse:  ms.HeapInuse,
		NumGC:      ms.NumGC,
		Goroutines: runtime.NumGoroutine(),
	}
	return st
}
