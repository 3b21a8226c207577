// Package metrics exposes session and stream statistics to Prometheus.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smazurov/livecast/internal/events"
)

const namespace = "livecast"

// Metrics holds the event-driven counters. Point-in-time values (state,
// bitrate, fps) are read at scrape time by Collector.
type Metrics struct {
	sessionsStarted prometheus.Counter
	sessionsStopped prometheus.Counter
	sessionUptime   prometheus.Histogram
	encoderExits    *prometheus.CounterVec
}

// New registers the counters with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		sessionsStarted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "started_total",
			Help:      "Sessions started successfully",
		}),
		sessionsStopped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "stopped_total",
			Help:      "Sessions stopped successfully",
		}),
		sessionUptime: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "duration_seconds",
			Help:      "Duration of stopped sessions",
			Buckets:   []float64{10, 60, 300, 900, 1800, 3600, 7200, 14400},
		}),
		encoderExits: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "encoder",
			Name:      "unexpected_exits_total",
			Help:      "Encoder exits not requested by a stop",
		}, []string{"exit_code"}),
	}
}

// Subscribe feeds the counters from bus. Returns the unsubscribe function.
func (m *Metrics) Subscribe(bus *events.Bus) func() {
	unsubs := []func(){
		bus.Subscribe(func(events.SessionStartedEvent) {
			m.sessionsStarted.Inc()
		}),
		bus.Subscribe(func(e events.SessionStoppedEvent) {
			m.sessionsStopped.Inc()
			m.sessionUptime.Observe(e.UptimeSeconds)
		}),
		bus.Subscribe(func(e events.EncoderExitedEvent) {
			m.encoderExits.WithLabelValues(strconv.Itoa(e.ExitCode)).Inc()
		}),
	}
	return func() {
		for _, unsub := range unsubs {
			unsub()
		}
	}
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
