package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/pixil98/go-gridgame/internal/gate"
	"github.com/pixil98/go-gridgame/internal/pool"
	"github.com/pixil98/go-gridgame/internal/roster"
	"github.com/pixil98/go-gridgame/internal/worker"
	"github.com/pixil98/go-gridgame/internal/world"
)

const (
	DefaultTickInterval  = time.Second * 2
	DefaultWorkerTimeout = time.Second
)

// Scheduler runs the turn loop: reconcile the roster, collect actions,
// apply them, publish the result.
type Scheduler struct {
	gate    *gate.Gate
	source  roster.Source
	pool    *pool.Pool
	avatars *gateAvatars

	interval      time.Duration
	workerTimeout time.Duration
	maxFaults     int
	publishers    []Publisher
	logSink       LogSink
	metrics       []MetricsSink

	phase atomic.Int32
}

func New(g *gate.Gate, source roster.Source, backend worker.Backend, opts ...SchedulerOpt) *Scheduler {
	s := &Scheduler{
		gate:          g,
		source:        source,
		avatars:       &gateAvatars{gate: g},
		interval:      DefaultTickInterval,
		workerTimeout: DefaultWorkerTimeout,
		maxFaults:     pool.DefaultMaxFaults,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.pool = pool.New(backend, s.avatars, pool.WithMaxFaults(s.maxFaults))
	return s
}

// Phase reports what the scheduler is doing right now.
func (s *Scheduler) Phase() Phase {
	return Phase(s.phase.Load())
}

// Pool exposes the worker pool for inspection.
func (s *Scheduler) Pool() *pool.Pool {
	return s.pool
}

// Start runs ticks at a fixed cadence until ctx is cancelled. A tick that
// overruns the interval is followed immediately by the next; ticks never
// overlap. Only gate failures stop the loop with an error.
func (s *Scheduler) Start(ctx context.Context) error {
	defer s.pool.Shutdown(context.WithoutCancel(ctx))

	slog.InfoContext(ctx, "turn scheduler started", "interval", s.interval)

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
		}

		next := time.Now().Add(s.interval)
		err := s.Tick(ctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}

		wait := time.Until(next)
		if wait < 0 {
			slog.WarnContext(ctx, "tick overran interval", "overrun", -wait)
			wait = 0
		}
		timer.Reset(wait)
	}
}

// Tick runs one full cycle. If ctx is cancelled before Applying the tick
// stops and ctx's error is returned; once Applying has begun the tick always
// publishes. A non-nil error other than cancellation is fatal.
func (s *Scheduler) Tick(ctx context.Context) error {
	started := time.Now()
	defer s.setPhase(PhaseIdle)

	s.setPhase(PhaseReconciling)
	res, rosterErr := s.reconcile(ctx)
	if err := s.avatars.takeFatal(); err != nil {
		return fmt.Errorf("reconciling: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.setPhase(PhaseCollecting)
	s.pool.ClearLogs()
	view := s.gate.Capture()
	// Collection runs to completion even if a stop is requested meanwhile.
	actions := s.pool.CollectActions(context.WithoutCancel(ctx), s.workerTimeout, func(p roster.Participant) worker.View {
		return worker.NewView(view, p)
	})
	if err := ctx.Err(); err != nil {
		return err
	}

	s.setPhase(PhaseApplying)
	var outcomes []world.Outcome
	err := s.gate.WithExclusiveWrite(func(w *world.World) error {
		outcomes = w.ApplyBatch(actions)
		w.AdvanceTurn()
		return nil
	})
	if err != nil {
		return fmt.Errorf("applying turn: %w", err)
	}

	s.setPhase(PhasePublishing)
	s.publish(context.WithoutCancel(ctx), TurnStats{
		Started:   started,
		Outcomes:  outcomes,
		Reconcile: res,
		RosterErr: rosterErr,
	})
	return nil
}

func (s *Scheduler) reconcile(ctx context.Context) (pool.ReconcileResult, error) {
	r, err := s.source.Fetch(ctx)
	if err != nil {
		var fe *roster.FetchError
		if !errors.As(err, &fe) {
			err = &roster.FetchError{Source: "roster", Err: err}
		}
		slog.WarnContext(ctx, "roster unavailable, keeping current workers", "error", err)
		return s.pool.RetryFaulted(ctx), err
	}

	res := s.pool.Reconcile(ctx, roster.Compute(s.pool.Participants(), r.Participants))
	if len(res.Added)+len(res.Removed)+len(res.Updated)+len(res.Restarted)+len(res.Failed) > 0 {
		slog.InfoContext(ctx, "reconciled workers",
			"added", res.Added,
			"removed", res.Removed,
			"updated", res.Updated,
			"restarted", res.Restarted,
			"failed", len(res.Failed))
	}

	ids := s.pool.IDs()
	err = s.avatars.write(func(w *world.World) error {
		w.SetMainAvatar(r.MainAvatar)
		if orphans := w.RetainAvatars(ids); len(orphans) > 0 {
			slog.InfoContext(ctx, "removed avatars without workers", "players", orphans)
		}
		return nil
	})
	if err != nil && !isFatal(err) {
		slog.WarnContext(ctx, "updating avatars after reconcile", "error", err)
	}
	return res, nil
}

func (s *Scheduler) publish(ctx context.Context, st TurnStats) {
	snap := s.gate.Publish()

	for _, p := range s.publishers {
		if err := p.Publish(ctx, snap); err != nil {
			slog.WarnContext(ctx, "publishing snapshot", "turn", snap.Turn, "error", err)
		}
	}
	if s.logSink != nil {
		if err := s.logSink.PublishLogs(ctx, snap.Turn, s.pool.Logs()); err != nil {
			slog.WarnContext(ctx, "publishing logs", "turn", snap.Turn, "error", err)
		}
	}

	st.Turn = snap.Turn
	st.Players = len(snap.Players)
	st.Duration = time.Since(st.Started)
	for _, m := range s.metrics {
		if err := m.ObserveTurn(ctx, st); err != nil {
			slog.WarnContext(ctx, "recording turn", "turn", snap.Turn, "error", err)
		}
	}
}

func (s *Scheduler) setPhase(p Phase) {
	s.phase.Store(int32(p))
}
