// Package metrics exports per-turn measurements to Prometheus.
package metrics

import (
	"context"
	"net/http"

	"github.com/pixil98/go-gridgame/internal/scheduler"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// TurnBuckets are the histogram buckets for turn processing time: 1.0s to
// 5.0s in steps of 0.1s.
func TurnBuckets() []float64 {
	b := make([]float64, 0, 41)
	for i := 10; i <= 50; i++ {
		b = append(b, float64(i)/10)
	}
	return b
}

// Recorder is a scheduler.MetricsSink backed by its own registry.
type Recorder struct {
	gameID   string
	registry *prometheus.Registry

	turnSeconds *prometheus.HistogramVec
	actions     *prometheus.CounterVec
	reconciled  *prometheus.CounterVec
	rosterFails *prometheus.CounterVec
	players     *prometheus.GaugeVec
}

func NewRecorder(gameID string) *Recorder {
	r := &Recorder{
		gameID:   gameID,
		registry: prometheus.NewRegistry(),
		turnSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gridgame_turn_processing_seconds",
			Help:    "Time taken to run one full turn.",
			Buckets: TurnBuckets(),
		}, []string{"game_id"}),
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gridgame_actions_total",
			Help: "Actions applied or rejected, by result.",
		}, []string{"game_id", "result"}),
		reconciled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gridgame_workers_reconciled_total",
			Help: "Worker lifecycle changes made while reconciling the roster.",
		}, []string{"game_id", "change"}),
		rosterFails: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gridgame_roster_fetch_failures_total",
			Help: "Ticks on which the roster could not be fetched.",
		}, []string{"game_id"}),
		players: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "gridgame_players",
			Help: "Avatars in the world after the last turn.",
		}, []string{"game_id"}),
	}

	r.registry.MustRegister(r.turnSeconds, r.actions, r.reconciled, r.rosterFails, r.players)
	return r
}

// Registry exposes the underlying registry, mostly for tests.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the recorder's metrics in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

func (r *Recorder) ObserveTurn(_ context.Context, st scheduler.TurnStats) error {
	r.turnSeconds.WithLabelValues(r.gameID).Observe(st.Duration.Seconds())
	r.players.WithLabelValues(r.gameID).Set(float64(st.Players))

	for _, o := range st.Outcomes {
		result := "applied"
		if !o.Applied {
			result = o.Reason
		}
		r.actions.WithLabelValues(r.gameID, result).Inc()
	}

	changes := map[string]int{
		"added":     len(st.Reconcile.Added),
		"removed":   len(st.Reconcile.Removed),
		"updated":   len(st.Reconcile.Updated),
		"restarted": len(st.Reconcile.Restarted),
		"failed":    len(st.Reconcile.Failed),
	}
	for change, n := range changes {
		if n > 0 {
			r.reconciled.WithLabelValues(r.gameID, change).Add(float64(n))
		}
	}

	if st.RosterErr != nil {
		r.rosterFails.WithLabelValues(r.gameID).Inc()
	}
	return nil
}
