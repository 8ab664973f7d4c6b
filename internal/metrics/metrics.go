// Package metrics holds the Prometheus collectors for the bot.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Guess outcomes.
const (
	OutcomeAccepted = "accepted"
	OutcomeIllegal  = "illegal"
	OutcomeStale    = "stale"
	OutcomeOver     = "over"
	OutcomeError    = "error"
)

// Metrics bundles the collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	GamesStarted  prometheus.Counter
	Guesses       *prometheus.CounterVec // label: outcome
	GamesFinished *prometheus.CounterVec // label: result (won|lost)
	StoreErrors   *prometheus.CounterVec // label: op
}

// New registers every collector plus the Go runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		GamesStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wordle",
			Name:      "games_started_total",
			Help:      "Rounds started across all chats.",
		}),
		Guesses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wordle",
			Name:      "guesses_total",
			Help:      "Guess submissions by outcome.",
		}, []string{"outcome"}),
		GamesFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wordle",
			Name:      "games_finished_total",
			Help:      "Rounds that ended, by result.",
		}, []string{"result"}),
		StoreErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wordle",
			Name:      "store_errors_total",
			Help:      "Session store failures by operation.",
		}, []string{"op"}),
	}
	m.registry.MustRegister(
		m.GamesStarted,
		m.Guesses,
		m.GamesFinished,
		m.StoreErrors,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
