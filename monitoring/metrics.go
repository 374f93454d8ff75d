package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors for the app. Each instance owns its
// registry so tests can build as many as they like.
type Metrics struct {
	Registry *prometheus.Registry

	RegistryCommands    *prometheus.CounterVec
	PersistenceFailures *prometheus.CounterVec
	People              prometheus.Gauge
	AvatarReadDuration  *prometheus.HistogramVec
	WSConnections       prometheus.Gauge
}

// NewMetrics creates and registers all collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		Registry: reg,
		RegistryCommands: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "namerecall_registry_commands_total",
				Help: "Registry commands by command and result",
			},
			[]string{"command", "result"},
		),
		PersistenceFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "namerecall_persistence_failures_total",
				Help: "Failed loads and saves of the people collection",
			},
			[]string{"op"},
		),
		People: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "namerecall_people",
			Help: "Number of people in the registry",
		}),
		AvatarReadDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "namerecall_avatar_read_seconds",
				Help:    "Time to turn an uploaded photo into an avatar",
				Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5},
			},
			[]string{"result"},
		),
		WSConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "namerecall_ws_connections",
			Help: "Open change-feed websocket connections",
		}),
	}
	reg.MustRegister(
		m.RegistryCommands,
		m.PersistenceFailures,
		m.People,
		m.AvatarReadDuration,
		m.WSConnections,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// RecordCommand counts a registry command outcome. Nil-safe.
func (m *Metrics) RecordCommand(command, result string) {
	if m == nil {
		return
	}
	m.RegistryCommands.WithLabelValues(command, result).Inc()
}

// RecordPersistenceFailure counts a failed load or save. Nil-safe.
func (m *Metrics) RecordPersistenceFailure(op string) {
	if m == nil {
		return
	}
	m.PersistenceFailures.WithLabelValues(op).Inc()
}

// SetPeople records the registry size. Nil-safe.
func (m *Metrics) SetPeople(n int) {
	if m == nil {
		return
	}
	m.People.Set(float64(n))
}

// ObserveAvatarRead records how long an avatar read took. Nil-safe.
func (m *Metrics) ObserveAvatarRead(result string, d time.Duration) {
	if m == nil {
		return
	}
	m.AvatarReadDuration.WithLabelValues(result).Observe(d.Seconds())
}

// AddWSConnections moves the websocket gauge by delta. Nil-safe.
func (m *Metrics) AddWSConnections(delta float64) {
	if m == nil {
		return
	}
	m.WSConnections.Add(delta)
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}
