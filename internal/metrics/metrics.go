// Package metrics exposes engine activity as Prometheus metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vadiminshakov/tickboard/internal/domain"
)

// Registry holds all tickboard metrics. A nil *Registry is valid and records nothing.
type Registry struct {
	registry *prometheus.Registry

	TicksTotal      *prometheus.CounterVec
	TickDuration    *prometheus.HistogramVec
	SkippedTicks    *prometheus.CounterVec
	Flashes         *prometheus.CounterVec
	DroppedMessages *prometheus.CounterVec
	PortfolioValue  *prometheus.GaugeVec
	StreamClients   prometheus.Gauge
}

// NewRegistry creates a registry with all metrics registered.
func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),

		TicksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tickboard_ticks_total",
				Help: "Total number of published ticks by widget",
			},
			[]string{"widget"},
		),

		TickDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tickboard_tick_duration_seconds",
				Help:    "Time to compute and publish one tick",
				Buckets: []float64{0.00001, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
			},
			[]string{"widget"},
		),

		SkippedTicks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tickboard_skipped_ticks_total",
				Help: "Ticks dropped without publishing, by widget and reason",
			},
			[]string{"widget", "reason"},
		),

		Flashes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tickboard_flashes_total",
				Help: "Flash states started, by widget and direction",
			},
			[]string{"widget", "direction"},
		),

		DroppedMessages: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tickboard_dropped_messages_total",
				Help: "Rendered boards not delivered to slow stream consumers",
			},
			[]string{"widget"},
		),

		PortfolioValue: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "tickboard_portfolio_value",
				Help: "Latest aggregated portfolio value by widget",
			},
			[]string{"widget"},
		),

		StreamClients: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "tickboard_stream_clients",
				Help: "Connected SSE and websocket clients",
			},
		),
	}

	r.registry.MustRegister(
		r.TicksTotal,
		r.TickDuration,
		r.SkippedTicks,
		r.Flashes,
		r.DroppedMessages,
		r.PortfolioValue,
		r.StreamClients,
	)

	return r
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// ObserveTick records a published tick.
func (r *Registry) ObserveTick(widget string, took time.Duration) {
	if r == nil {
		return
	}
	r.TicksTotal.WithLabelValues(widget).Inc()
	r.TickDuration.WithLabelValues(widget).Observe(took.Seconds())
}

// ObserveSkippedTick records a tick dropped before publishing.
func (r *Registry) ObserveSkippedTick(widget, reason string) {
	if r == nil {
		return
	}
	r.SkippedTicks.WithLabelValues(widget, reason).Inc()
}

// ObserveFlash records a started flash.
func (r *Registry) ObserveFlash(widget string, dir domain.Direction) {
	if r == nil {
		return
	}
	r.Flashes.WithLabelValues(widget, dir.String()).Inc()
}

// ObserveDropped records boards dropped for slow consumers.
func (r *Registry) ObserveDropped(widget string, n int) {
	if r == nil || n <= 0 {
		return
	}
	r.DroppedMessages.WithLabelValues(widget).Add(float64(n))
}

// SetPortfolioValue records the latest aggregated value.
func (r *Registry) SetPortfolioValue(widget string, value float64) {
	if r == nil {
		return
	}
	r.PortfolioValue.WithLabelValues(widget).Set(value)
}

// ClientConnected increments the stream client gauge, the returned func decrements it.
func (r *Registry) ClientConnected() func() {
	if r == nil {
		return func() {}
	}
	r.StreamClients.Inc()
	return r.StreamClients.Dec
}
