package engine

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the loop's Prometheus instruments. A nil *Metrics records
// nothing.
type Metrics struct {
	Days        prometheus.Counter
	Deaths      prometheus.Counter
	Successions prometheus.Counter
	Events      *prometheus.CounterVec
	Elections   prometheus.Counter
	Collapses   prometheus.Counter
	Lifecycle   *prometheus.CounterVec
	Living      prometheus.Gauge
	Parties     prometheus.Gauge
}

// NewMetrics creates the instruments and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Days: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "assembly", Name: "days_total", Help: "Simulated days advanced.",
		}),
		Deaths: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "assembly", Name: "deaths_total", Help: "Politicians who died.",
		}),
		Successions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "assembly", Name: "successors_total", Help: "Successor politicians spawned.",
		}),
		Events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "assembly", Name: "events_total", Help: "World events surfaced, by kind.",
		}, []string{"kind"}),
		Elections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "assembly", Name: "elections_total", Help: "General elections held.",
		}),
		Collapses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "assembly", Name: "government_collapses_total", Help: "Governments that fell.",
		}),
		Lifecycle: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "assembly", Name: "party_restructures_total", Help: "Party lifecycle operations, by kind.",
		}, []string{"op"}),
		Living: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "assembly", Name: "living_characters", Help: "Living politicians.",
		}),
		Parties: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "assembly", Name: "parties", Help: "Registered parties.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Days, m.Deaths, m.Successions, m.Events, m.Elections,
			m.Collapses, m.Lifecycle, m.Living, m.Parties)
	}
	return m
}

func (m *Metrics) day(s *Simulation) {
	if m == nil {
		return
	}
	m.Days.Inc()
	m.Living.Set(float64(s.Living()))
	m.Parties.Set(float64(len(s.Parties)))
}

func (m *Metrics) died(n int) {
	if m == nil || n == 0 {
		return
	}
	m.Deaths.Add(float64(n))
	m.Successions.Add(float64(n))
}

func (m *Metrics) event(kind string) {
	if m != nil {
		m.Events.WithLabelValues(kind).Inc()
	}
}

func (m *Metrics) election() {
	if m != nil {
		m.Elections.Inc()
	}
}

func (m *Metrics) collapse() {
	if m != nil {
		m.Collapses.Inc()
	}
}

func (m *Metrics) restructure(op string) {
	if m != nil {
		m.Lifecycle.WithLabelValues(op).Inc()
	}
}
