package remote_test

import (
	"context"
	"testing"
	"time"

	"github.com/pixil98/go-gridgame/internal/messaging"
	"github.com/pixil98/go-gridgame/internal/roster"
	"github.com/pixil98/go-gridgame/internal/worker"
	"github.com/pixil98/go-gridgame/internal/worker/local"
	"github.com/pixil98/go-gridgame/internal/worker/remote"
	"github.com/pixil98/go-gridgame/internal/world"
	"github.com/pixil98/go-testutil"
)

func startBus(t *testing.T) *messaging.NatsServer {
	t.Helper()
	s, err := messaging.NewNatsServer(messaging.WithPort(-1))
	if err != nil {
		t.Fatalf("creating server: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	select {
	case <-s.Ready():
	case err := <-done:
		t.Fatalf("server exited: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("server not ready")
	}
	return s
}

func startHost(t *testing.T, bus *messaging.NatsServer) *remote.Host {
	t.Helper()
	h := remote.NewHost(bus, "test", local.New())
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	if err := h.Listen(ctx); err != nil {
		t.Fatalf("listening: %v", err)
	}
	return h
}

func TestRemote_RoundTrip(t *testing.T) {
	bus := startBus(t)
	host := startHost(t, bus)
	b := remote.New(bus, "test")
	ctx := context.Background()

	r, err := b.Spawn(ctx, roster.Participant{ID: 1, Code: `{{ log "hello" .PlayerID }}move {{ "east" }}`})
	if err != nil {
		t.Fatalf("spawning: %v", err)
	}
	testutil.AssertEqual(t, "instances", host.Instances(), 1)

	turn, err := r.NextAction(ctx, worker.View{PlayerID: 1, World: &world.Snapshot{}})
	testutil.AssertEqual(t, "err", err, nil)
	testutil.AssertEqual(t, "action", turn.Action, world.Move(world.East))
	testutil.AssertEqual(t, "log", turn.Log, "hello 1\n")

	testutil.AssertEqual(t, "update", r.UpdateCode(ctx, "wait"), nil)
	turn, err = r.NextAction(ctx, worker.View{PlayerID: 1, World: &world.Snapshot{}})
	testutil.AssertEqual(t, "err", err, nil)
	testutil.AssertEqual(t, "updated action", turn.Action, world.Wait())

	err = r.UpdateCode(ctx, "{{ broken")
	testutil.AssertErrorContains(t, err, "parsing template")

	testutil.AssertEqual(t, "terminate", r.Terminate(ctx), nil)
	testutil.AssertEqual(t, "instances after", host.Instances(), 0)

	_, err = r.NextAction(ctx, worker.View{PlayerID: 1})
	testutil.AssertErrorContains(t, err, "no gridworker host")
}

func TestRemote_SpawnErrors(t *testing.T) {
	bus := startBus(t)
	b := remote.New(bus, "test")
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := b.Spawn(ctx, roster.Participant{ID: 1, Code: "wait"})
	testutil.AssertErrorContains(t, err, "no gridworker host")

	startHost(t, bus)
	_, err = b.Spawn(ctx, roster.Participant{ID: 1, Code: "{{ if }}"})
	testutil.AssertErrorContains(t, err, "parsing template")
}

func TestRemote_BusNotReady(t *testing.T) {
	bus, err := messaging.NewNatsServer(messaging.WithPort(-1))
	if err != nil {
		t.Fatalf("creating server: %v", err)
	}

	_, err = remote.New(bus, "").Spawn(context.Background(), roster.Participant{ID: 1})
	testutil.AssertErrorContains(t, err, "not started")
}

func TestRemote_ThroughWorker(t *testing.T) {
	bus := startBus(t)
	startHost(t, bus)

	w, err := worker.Spawn(context.Background(), remote.New(bus, "test"), roster.Participant{ID: 2, Code: "move north"})
	if err != nil {
		t.Fatalf("spawning: %v", err)
	}
	turn, err := w.Call(context.Background(), 2*time.Second, worker.View{PlayerID: 2, World: &world.Snapshot{}})
	testutil.AssertEqual(t, "err", err, nil)
	testutil.AssertEqual(t, "action", turn.Action, world.Move(world.North))
}

func TestRemote_SeveralHosts(t *testing.T) {
	bus := startBus(t)
	a := startHost(t, bus)
	c := startHost(t, bus)
	b := remote.New(bus, "test")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	dirs := []world.Direction{world.North, world.East, world.South, world.West}
	var runners []worker.Runner
	for i := range 8 {
		d := dirs[i%len(dirs)]
		r, err := b.Spawn(ctx, roster.Participant{ID: i, Code: "move " + string(d)})
		if err != nil {
			t.Fatalf("spawning %d: %v", i, err)
		}
		runners = append(runners, r)
	}
	testutil.AssertEqual(t, "instances", a.Instances()+c.Instances(), 8)

	for i, r := range runners {
		turn, err := r.NextAction(ctx, worker.View{PlayerID: i, World: &world.Snapshot{}})
		testutil.AssertEqual(t, "err", err, nil)
		testutil.AssertEqual(t, "action", turn.Action, world.Move(dirs[i%len(dirs)]))
	}

	for _, r := range runners {
		testutil.AssertEqual(t, "terminate", r.Terminate(ctx), nil)
	}
	testutil.AssertEqual(t, "instances after", a.Instances()+c.Instances(), 0)
}

func TestHost_StartTerminatesOnShutdown(t *testing.T) {
	bus := startBus(t)
	h := remote.NewHost(bus, "test", local.New())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.Start(ctx) }()

	b := remote.New(bus, "test")
	var err error
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		_, err = b.Spawn(context.Background(), roster.Participant{ID: 1, Code: "wait"})
		if err == nil {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	testutil.AssertEqual(t, "spawn", err, nil)
	testutil.AssertEqual(t, "instances", h.Instances(), 1)

	cancel()
	testutil.AssertEqual(t, "start", <-done, nil)
	testutil.AssertEqual(t, "instances after", h.Instances(), 0)
}
