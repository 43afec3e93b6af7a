package supervisor

import "github.com/prometheus/client_golang/prometheus"

// Metrics — метрики переключений хранилища.
type Metrics struct {
	Switches *prometheus.CounterVec
	Active   *prometheus.GaugeVec
}

// NewMetrics создаёт и регистрирует метрики в reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Switches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "techblog_storage_switches_total",
				Help: "Number of storage backend switches",
			},
			[]string{"capability", "from", "to"},
		),
		Active: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "techblog_storage_active_backend",
				Help: "Active storage backend per capability (1 for the active one)",
			},
			[]string{"capability", "backend"},
		),
	}
	reg.MustRegister(m.Switches, m.Active)
	return m
}

func (m *Metrics) recordSwitch(c Capability, from, to string) {
	if m == nil {
		return
	}
	m.Switches.WithLabelValues(string(c), from, to).Inc()
	m.setActive(c, to)
}

func (m *Metrics) setActive(c Capability, backend string) {
	if m == nil {
		return
	}
	for _, k := range []string{kindMemory, kindMongo, kindPostgres} {
		v := 0.0
		if k == backend {
			v = 1
		}
		m.Active.WithLabelValues(string(c), k).Set(v)
	}
}
