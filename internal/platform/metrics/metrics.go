package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Seek kinds recorded by IncSeeks.
const (
	SeekPreview = "preview"
	SeekCommit  = "commit"
	SeekSkip    = "skip"
	SeekJump    = "jump"
)

// Metrics holds Prometheus counters and gauges for the playback controller
// service. All recording methods are safe to call on a nil *Metrics.
type Metrics struct {
	registry            *prometheus.Registry
	requestsTotal       prometheus.Counter
	errorsTotal         prometheus.Counter
	seeksTotal          *prometheus.CounterVec
	songChangesTotal    prometheus.Counter
	autoSkipsTotal      prometheus.Counter
	volumeWritesTotal   prometheus.Counter
	adapterErrorsTotal  *prometheus.CounterVec
	catalogReloadsTotal prometheus.Counter
	activeSessions      prometheus.Gauge
}

// New creates and registers Prometheus metrics for the service.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	requestsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "playback_requests_total",
		Help: "Total number of HTTP requests received",
	})
	errorsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "playback_errors_total",
		Help: "Total number of HTTP responses with error status (4xx or 5xx)",
	})
	seeksTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "playback_seeks_total",
		Help: "Seek commands issued to the player, by kind",
	}, []string{"kind"})
	songChangesTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "playback_song_changes_total",
		Help: "Song changes triggered by seeks and skips",
	})
	autoSkipsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "playback_auto_skips_total",
		Help: "Corrective seeks out of gaps between songs",
	})
	volumeWritesTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "playback_volume_writes_total",
		Help: "Debounced volume writes issued to the player",
	})
	adapterErrorsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "playback_adapter_errors_total",
		Help: "Player adapter calls that returned an error, by operation",
	}, []string{"op"})
	catalogReloadsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "playback_catalog_reloads_total",
		Help: "Catalog reloads pushed to live sessions",
	})
	activeSessions := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "playback_active_sessions",
		Help: "Number of live controller sessions",
	})

	registry.MustRegister(
		requestsTotal,
		errorsTotal,
		seeksTotal,
		songChangesTotal,
		autoSkipsTotal,
		volumeWritesTotal,
		adapterErrorsTotal,
		catalogReloadsTotal,
		activeSessions,
	)

	return &Metrics{
		registry:            registry,
		requestsTotal:       requestsTotal,
		errorsTotal:         errorsTotal,
		seeksTotal:          seeksTotal,
		songChangesTotal:    songChangesTotal,
		autoSkipsTotal:      autoSkipsTotal,
		volumeWritesTotal:   volumeWritesTotal,
		adapterErrorsTotal:  adapterErrorsTotal,
		catalogReloadsTotal: catalogReloadsTotal,
		activeSessions:      activeSessions,
	}
}

// IncRequests increments the total request counter.
func (m *Metrics) IncRequests() {
	if m == nil {
		return
	}
	m.requestsTotal.Inc()
}

// IncErrors increments the errors counter.
func (m *Metrics) IncErrors() {
	if m == nil {
		return
	}
	m.errorsTotal.Inc()
}

// IncSeeks counts one seek of the given kind.
func (m *Metrics) IncSeeks(kind string) {
	if m == nil {
		return
	}
	m.seeksTotal.WithLabelValues(kind).Inc()
}

// IncSongChanges increments the song change counter.
func (m *Metrics) IncSongChanges() {
	if m == nil {
		return
	}
	m.songChangesTotal.Inc()
}

// IncAutoSkips increments the auto skip counter.
func (m *Metrics) IncAutoSkips() {
	if m == nil {
		return
	}
	m.autoSkipsTotal.Inc()
}

// IncVolumeWrites increments the volume write counter.
func (m *Metrics) IncVolumeWrites() {
	if m == nil {
		return
	}
	m.volumeWritesTotal.Inc()
}

// IncAdapterErrors counts a failed adapter call.
func (m *Metrics) IncAdapterErrors(op string) {
	if m == nil {
		return
	}
	m.adapterErrorsTotal.WithLabelValues(op).Inc()
}

// IncCatalogReloads increments the catalog reload counter.
func (m *Metrics) IncCatalogReloads() {
	if m == nil {
		return
	}
	m.catalogReloadsTotal.Inc()
}

// SetActiveSessions sets the active sessions gauge.
func (m *Metrics) SetActiveSessions(n int) {
	if m == nil {
		return
	}
	m.activeSessions.Set(float64(n))
}

// Handler returns an http.Handler that serves Prometheus metrics.
// updateGauges is called before each scrape to refresh gauge values (e.g. active sessions).
func (m *Metrics) Handler(updateGauges func()) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if updateGauges != nil {
			updateGauges()
		}
		promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}).ServeHTTP(w, r)
	})
}
