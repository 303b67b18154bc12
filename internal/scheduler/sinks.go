package scheduler

import (
	"context"
	"time"

	"github.com/pixil98/go-gridgame/internal/pool"
	"github.com/pixil98/go-gridgame/internal/world"
)

// Publisher receives every published snapshot.
type Publisher interface {
	Publish(ctx context.Context, s *world.Snapshot) error
}

// LogSink receives the participants' logs after each turn.
type LogSink interface {
	PublishLogs(ctx context.Context, turn uint64, logs map[int]string) error
}

// MetricsSink is told about every completed tick.
type MetricsSink interface {
	ObserveTurn(ctx context.Context, st TurnStats) error
}

// TurnStats describes one completed tick.
type TurnStats struct {
	Turn      uint64
	Started   time.Time
	Duration  time.Duration
	Players   int
	Outcomes  []world.Outcome
	Reconcile pool.ReconcileResult
	RosterErr error
}
