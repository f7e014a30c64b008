package telemetry

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"quiz-arena-service/internal/domain"
	"quiz-arena-service/internal/event"
)

const namespace = "quiz_arena"

// Metrics holds the service's Prometheus collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	SessionsStarted  *prometheus.CounterVec
	SessionsFinished *prometheus.CounterVec
	MatchesCreated   prometheus.Counter
	MatchesFinished  *prometheus.CounterVec
	PowerUpsUsed     *prometheus.CounterVec
	CoinsSpent       prometheus.Counter
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		SessionsStarted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_started_total",
			Help:      "Solo sessions started, by mode.",
		}, []string{"mode"}),
		SessionsFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_finished_total",
			Help:      "Runs that reached results, by mode.",
		}, []string{"mode"}),
		MatchesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "matches_created_total",
			Help:      "Multiplayer rooms created.",
		}),
		MatchesFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "matches_finished_total",
			Help:      "Multiplayer rooms finished, by outcome.",
		}, []string{"outcome"}),
		PowerUpsUsed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "powerups_used_total",
			Help:      "Power-ups bought, by kind.",
		}, []string{"kind"}),
		CoinsSpent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "coins_spent_total",
			Help:      "Coins debited by power-up purchases.",
		}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.SessionsStarted,
		m.SessionsFinished,
		m.MatchesCreated,
		m.MatchesFinished,
		m.PowerUpsUsed,
		m.CoinsSpent,
	)
	return m
}

// Gauge registers a gauge sampled from fn at scrape time.
func (m *Metrics) Gauge(name, help string, fn func() float64) {
	m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      name,
		Help:      help,
	}, fn))
}

// Subscribe keeps the counters in sync with bus events.
func (m *Metrics) Subscribe(bus *event.Bus) {
	bus.Subscribe(domain.EventNameSessionStarted, func(_ context.Context, e event.Event) error {
		ev := e.(domain.EventSessionStarted)
		m.SessionsStarted.WithLabelValues(string(ev.Mode)).Inc()
		return nil
	})
	bus.Subscribe(domain.EventNameSessionCompleted, func(_ context.Context, e event.Event) error {
		ev := e.(domain.EventSessionCompleted)
		m.SessionsFinished.WithLabelValues(string(ev.Completion.Mode)).Inc()
		return nil
	})
	bus.Subscribe(domain.EventNameMatchCreated, func(context.Context, event.Event) error {
		m.MatchesCreated.Inc()
		return nil
	})
	bus.Subscribe(domain.EventNameMatchFinished, func(_ context.Context, e event.Event) error {
		ev := e.(domain.EventMatchFinished)
		outcome := "win"
		switch {
		case ev.Disconnected:
			outcome = "disconnect"
		case ev.Tie:
			outcome = "tie"
		}
		m.MatchesFinished.WithLabelValues(outcome).Inc()
		return nil
	})
	bus.Subscribe(domain.EventNamePowerUpUsed, func(_ context.Context, e event.Event) error {
		ev := e.(domain.EventPowerUpUsed)
		m.PowerUpsUsed.WithLabelValues(ev.Kind).Inc()
		m.CoinsSpent.Add(float64(ev.Cost))
		return nil
	})
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
