package scheduler

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pixil98/go-gridgame/internal/gate"
	"github.com/pixil98/go-gridgame/internal/roster"
	"github.com/pixil98/go-gridgame/internal/worker"
	"github.com/pixil98/go-gridgame/internal/worker/workertest"
	"github.com/pixil98/go-gridgame/internal/world"
	"github.com/pixil98/go-testutil"
)

type fakeSource struct {
	mu     sync.Mutex
	roster roster.Roster
	err    error
}

func (f *fakeSource) Fetch(context.Context) (roster.Roster, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return roster.Roster{}, f.err
	}
	r := roster.Roster{MainAvatar: f.roster.MainAvatar}
	r.Participants = append(r.Participants, f.roster.Participants...)
	return r, nil
}

func (f *fakeSource) set(ps ...roster.Participant) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.roster.Participants = ps
}

type recordingSinks struct {
	mu        sync.Mutex
	snapshots []*world.Snapshot
	logs      []map[int]string
	stats     []TurnStats
	inFlight  atomic.Int32
	overlap   atomic.Bool
	delay     time.Duration
}

func (r *recordingSinks) Publish(_ context.Context, s *world.Snapshot) error {
	if r.inFlight.Add(1) > 1 {
		r.overlap.Store(true)
	}
	defer r.inFlight.Add(-1)
	time.Sleep(r.delay)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshots = append(r.snapshots, s)
	return nil
}

func (r *recordingSinks) PublishLogs(_ context.Context, _ uint64, logs map[int]string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logs = append(r.logs, logs)
	return nil
}

func (r *recordingSinks) ObserveTurn(_ context.Context, st TurnStats) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats = append(r.stats, st)
	return nil
}

func (r *recordingSinks) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.stats)
}

type harness struct {
	gate    *gate.Gate
	source  *fakeSource
	backend *workertest.Backend
	sinks   *recordingSinks
	sched   *Scheduler
}

func newHarness(t *testing.T, opts ...SchedulerOpt) *harness {
	t.Helper()
	spec := &world.MapSpec{Width: 11, Height: 11}
	g, err := spec.Build()
	if err != nil {
		t.Fatalf("building grid: %v", err)
	}
	h := &harness{
		gate:    gate.New(world.New(g)),
		source:  &fakeSource{},
		backend: workertest.NewBackend(),
		sinks:   &recordingSinks{},
	}
	opts = append([]SchedulerOpt{
		WithWorkerTimeout(100 * time.Millisecond),
		WithPublishers(h.sinks),
		WithLogSink(h.sinks),
		WithMetricsSinks(h.sinks),
	}, opts...)
	h.sched = New(h.gate, h.source, h.backend, opts...)
	return h
}

func (h *harness) tick(t *testing.T) {
	t.Helper()
	if err := h.sched.Tick(context.Background()); err != nil {
		t.Fatalf("tick: %v", err)
	}
}

func (h *harness) avatarIDs() []int {
	return h.gate.ReadSnapshot().PlayerIDs()
}

func TestScheduler_RosterLifecycle(t *testing.T) {
	h := newHarness(t)
	h.source.set(
		roster.Participant{ID: 0, Code: "A"},
		roster.Participant{ID: 1, Code: "B"},
		roster.Participant{ID: 2, Code: "C"},
	)

	h.tick(t)
	if ids := h.sched.Pool().IDs(); !reflect.DeepEqual(ids, []int{0, 1, 2}) {
		t.Errorf("workers after first tick: %v", ids)
	}
	if ids := h.avatarIDs(); !reflect.DeepEqual(ids, []int{0, 1, 2}) {
		t.Errorf("avatars after first tick: %v", ids)
	}

	h.source.set(
		roster.Participant{ID: 0, Code: "A"},
		roster.Participant{ID: 2, Code: "C"},
	)
	h.tick(t)
	if ids := h.sched.Pool().IDs(); !reflect.DeepEqual(ids, []int{0, 2}) {
		t.Errorf("workers after removal: %v", ids)
	}
	if ids := h.avatarIDs(); !reflect.DeepEqual(ids, []int{0, 2}) {
		t.Errorf("avatars after removal: %v", ids)
	}

	before := h.gate.ReadSnapshot().Players[0]
	h.source.set(
		roster.Participant{ID: 0, Code: "A2"},
		roster.Participant{ID: 2, Code: "C"},
	)
	h.tick(t)
	w, _ := h.sched.Pool().Worker(0)
	testutil.AssertEqual(t, "new code", w.Code(), "A2")
	after := h.gate.ReadSnapshot().Players[0]
	testutil.AssertEqual(t, "position", [2]int{after.X, after.Y}, [2]int{before.X, before.Y})
	testutil.AssertEqual(t, "score", after.Score, before.Score)
	testutil.AssertEqual(t, "spawned once", h.backend.Spawned(0), 1)
}

func TestScheduler_TickAppliesAndPublishes(t *testing.T) {
	h := newHarness(t)
	h.source.set(roster.Participant{ID: 1, Code: "north"})
	h.backend.SetAct(1, func(context.Context, string, worker.View) (worker.Turn, error) {
		return worker.Turn{Action: world.Move(world.North), Log: "moving"}, nil
	})

	h.tick(t)
	h.tick(t)

	s := h.gate.ReadSnapshot()
	testutil.AssertEqual(t, "turn", s.Turn, uint64(2))
	testutil.AssertEqual(t, "y", s.Players[1].Y, 2)
	testutil.AssertEqual(t, "snapshots", len(h.sinks.snapshots), 2)
	testutil.AssertEqual(t, "published is current", h.sinks.snapshots[1], s)
	testutil.AssertEqual(t, "stats", len(h.sinks.stats), 2)
	testutil.AssertEqual(t, "stats turn", h.sinks.stats[1].Turn, uint64(2))
	testutil.AssertEqual(t, "phase", h.sched.Phase(), PhaseIdle)

	// Each turn's log holds only that turn's output.
	testutil.AssertEqual(t, "log", h.sinks.logs[1][1], "moving\n")
}

func TestScheduler_RosterFetchFailure(t *testing.T) {
	h := newHarness(t)
	h.source.set(roster.Participant{ID: 1, Code: "a"}, roster.Participant{ID: 2, Code: "b"})
	h.tick(t)

	h.source.err = errors.New("connection refused")
	h.tick(t)

	if ids := h.sched.Pool().IDs(); !reflect.DeepEqual(ids, []int{1, 2}) {
		t.Errorf("workers kept: %v", ids)
	}
	testutil.AssertEqual(t, "turn advanced", h.gate.ReadSnapshot().Turn, uint64(2))
	var fe *roster.FetchError
	testutil.AssertEqual(t, "roster error recorded", errors.As(h.sinks.stats[1].RosterErr, &fe), true)
}

func TestScheduler_SlowWorkerDoesNotBlockTurn(t *testing.T) {
	h := newHarness(t)
	h.source.set(roster.Participant{ID: 1, Code: "slow"}, roster.Participant{ID: 2, Code: "fast"})
	h.backend.SetAct(1, func(ctx context.Context, _ string, _ worker.View) (worker.Turn, error) {
		<-ctx.Done()
		return worker.Turn{}, ctx.Err()
	})
	h.backend.SetAct(2, func(context.Context, string, worker.View) (worker.Turn, error) {
		return worker.Turn{Action: world.Move(world.South)}, nil
	})
	h.tick(t)
	before := h.gate.ReadSnapshot()

	h.tick(t)

	after := h.gate.ReadSnapshot()
	testutil.AssertEqual(t, "turn", after.Turn, before.Turn+1)
	testutil.AssertEqual(t, "slow unmoved", after.Players[1], before.Players[1])
	testutil.AssertEqual(t, "fast moved", after.Players[2].Y, before.Players[2].Y-1)
	w, _ := h.sched.Pool().Worker(1)
	testutil.AssertEqual(t, "faulted", w.Status(), worker.StatusFaulted)
}

func TestScheduler_StopBeforeApplying(t *testing.T) {
	h := newHarness(t)
	h.source.set(roster.Participant{ID: 1, Code: "a"})
	h.tick(t)

	ctx, cancel := context.WithCancel(context.Background())
	h.backend.SetAct(1, func(context.Context, string, worker.View) (worker.Turn, error) {
		cancel()
		return worker.Turn{Action: world.Move(world.East)}, nil
	})

	err := h.sched.Tick(ctx)

	testutil.AssertEqual(t, "canceled", errors.Is(err, context.Canceled), true)
	testutil.AssertEqual(t, "turn unchanged", h.gate.Capture().Turn, uint64(1))
	testutil.AssertEqual(t, "nothing published", len(h.sinks.snapshots), 1)
	testutil.AssertEqual(t, "idle", h.sched.Phase(), PhaseIdle)
}

func TestScheduler_GateConflictIsFatal(t *testing.T) {
	h := newHarness(t)
	h.source.set(roster.Participant{ID: 1, Code: "a"})

	entered := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = h.gate.WithExclusiveWrite(func(*world.World) error {
			close(entered)
			<-release
			return nil
		})
	}()
	<-entered
	defer close(release)

	err := h.sched.Tick(context.Background())

	testutil.AssertEqual(t, "fatal", errors.Is(err, gate.ErrAcquisition), true)
	testutil.AssertEqual(t, "nothing published", len(h.sinks.snapshots), 0)
}

func TestScheduler_PrunesOrphansAndAdoptsRestored(t *testing.T) {
	h := newHarness(t)
	err := h.gate.WithExclusiveWrite(func(w *world.World) error {
		if err := w.AddAvatar(5, world.Location{X: 3, Y: 3}); err != nil {
			return err
		}
		return w.AddAvatar(9, world.Location{X: -3, Y: -3})
	})
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	main := 5
	h.source.roster.MainAvatar = &main
	h.source.set(roster.Participant{ID: 5, Code: "a"})

	h.tick(t)

	s := h.gate.ReadSnapshot()
	if ids := s.PlayerIDs(); !reflect.DeepEqual(ids, []int{5}) {
		t.Errorf("avatars: %v", ids)
	}
	testutil.AssertEqual(t, "restored position", [2]int{s.Players[5].X, s.Players[5].Y}, [2]int{3, 3})
	testutil.AssertEqual(t, "main avatar", *s.MainAvatar, 5)
}

func TestScheduler_StartRunsTicksWithoutOverlap(t *testing.T) {
	h := newHarness(t, WithTickInterval(5*time.Millisecond))
	h.sinks.delay = 10 * time.Millisecond
	h.source.set(roster.Participant{ID: 1, Code: "a"})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.sched.Start(ctx) }()

	deadline := time.After(5 * time.Second)
	for h.sinks.count() < 3 {
		select {
		case <-deadline:
			t.Fatal("ticks did not run")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()

	testutil.AssertEqual(t, "start err", <-done, nil)
	testutil.AssertEqual(t, "overlap", h.sinks.overlap.Load(), false)
	testutil.AssertEqual(t, "workers shut down", len(h.sched.Pool().IDs()), 0)
	testutil.AssertEqual(t, "runner terminated", h.backend.Terminated(1), 1)
}
