package turnlog

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/pixil98/go-gridgame/internal/pool"
	"github.com/pixil98/go-gridgame/internal/scheduler"
	"github.com/pixil98/go-gridgame/internal/world"
	"github.com/pixil98/go-testutil"
)

func openTestLog(t *testing.T) *Log {
	t.Helper()
	l, err := Open(filepath.Join(t.TempDir(), "db", "turns.sqlite"))
	if err != nil {
		t.Fatalf("opening turn log: %v", err)
	}
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func stats(turn uint64, outcomes ...world.Outcome) scheduler.TurnStats {
	return scheduler.TurnStats{
		Turn:     turn,
		Started:  time.Date(2024, 5, 1, 12, 0, int(turn), 0, time.UTC),
		Duration: 1500 * time.Millisecond,
		Players:  len(outcomes),
		Outcomes: outcomes,
	}
}

func TestLog_WriteAndQuery(t *testing.T) {
	l := openTestLog(t)
	ctx := context.Background()

	first := stats(1,
		world.Outcome{PlayerID: 1, Action: world.Move(world.North), Applied: true},
		world.Outcome{PlayerID: 2, Action: world.Attack(world.West), Reason: world.ReasonNoTarget},
	)
	first.Reconcile = pool.ReconcileResult{Added: []int{1, 2}}
	second := stats(2, world.Outcome{PlayerID: 1, Action: world.Wait(), Applied: true})
	second.RosterErr = errors.New("roster down")

	testutil.AssertEqual(t, "write 1", l.write(ctx, first), nil)
	testutil.AssertEqual(t, "write 2", l.write(ctx, second), nil)

	turns, err := l.Turns(ctx, 0, 10)
	testutil.AssertEqual(t, "turns err", err, nil)
	want := []TurnRecord{
		{Turn: 1, StartedAt: first.Started, Duration: first.Duration, Players: 2, Added: 2},
		{Turn: 2, StartedAt: second.Started, Duration: second.Duration, Players: 1, RosterErr: "roster down"},
	}
	if !reflect.DeepEqual(turns, want) {
		t.Errorf("turns:\n got %+v\nwant %+v", turns, want)
	}

	outcomes, err := l.PlayerOutcomes(ctx, 1, 10)
	testutil.AssertEqual(t, "outcomes err", err, nil)
	wantOutcomes := []OutcomeRecord{
		{Turn: 2, PlayerID: 1, Action: "wait", Applied: true},
		{Turn: 1, PlayerID: 1, Action: "move north", Applied: true},
	}
	if !reflect.DeepEqual(outcomes, wantOutcomes) {
		t.Errorf("outcomes:\n got %+v\nwant %+v", outcomes, wantOutcomes)
	}

	outcomes, err = l.PlayerOutcomes(ctx, 2, 10)
	testutil.AssertEqual(t, "outcomes err", err, nil)
	testutil.AssertEqual(t, "rejected", len(outcomes), 1)
	testutil.AssertEqual(t, "reason", outcomes[0].Reason, world.ReasonNoTarget)
	testutil.AssertEqual(t, "applied", outcomes[0].Applied, false)
}

func TestLog_StartFlushesOnStop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "turns.sqlite")
	l, err := Open(path)
	if err != nil {
		t.Fatalf("opening turn log: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	for turn := uint64(1); turn <= 3; turn++ {
		_ = l.ObserveTurn(ctx, stats(turn))
	}
	cancel()
	testutil.AssertEqual(t, "start err", l.Start(ctx), nil)

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopening turn log: %v", err)
	}
	defer reopened.Close()

	turns, err := reopened.Turns(context.Background(), 0, 10)
	testutil.AssertEqual(t, "turns err", err, nil)
	testutil.AssertEqual(t, "flushed", len(turns), 3)
}

func TestOpen_EmptyPath(t *testing.T) {
	_, err := Open("")
	testutil.AssertErrorContains(t, err, "empty db path")
}
