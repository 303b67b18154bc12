// Package workertest provides a scripted worker backend for tests.
package workertest

import (
	"context"
	"errors"
	"sync"

	"github.com/pixil98/go-gridgame/internal/roster"
	"github.com/pixil98/go-gridgame/internal/worker"
	"github.com/pixil98/go-gridgame/internal/world"
)

// ActFunc decides a runner's turn. The code is the participant's current code.
type ActFunc func(ctx context.Context, code string, v worker.View) (worker.Turn, error)

// Backend spawns in-memory runners whose behaviour is set per player.
type Backend struct {
	mu         sync.Mutex
	acts       map[int]ActFunc
	spawnErrs  map[int]error
	updateErrs map[int]error
	spawned    map[int]int
	terminated map[int]int
}

func NewBackend() *Backend {
	return &Backend{
		acts:       map[int]ActFunc{},
		spawnErrs:  map[int]error{},
		updateErrs: map[int]error{},
		spawned:    map[int]int{},
		terminated: map[int]int{},
	}
}

// SetAct scripts the player's runner. Unscripted players wait.
func (b *Backend) SetAct(id int, fn ActFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.acts[id] = fn
}

// FailSpawn makes spawning the player fail until cleared with a nil error.
func (b *Backend) FailSpawn(id int, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.spawnErrs[id] = err
}

// FailUpdate makes code updates for the player fail.
func (b *Backend) FailUpdate(id int, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.updateErrs[id] = err
}

func (b *Backend) Spawned(id int) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.spawned[id]
}

func (b *Backend) Terminated(id int) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.terminated[id]
}

func (b *Backend) Spawn(_ context.Context, p roster.Participant) (worker.Runner, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.spawnErrs[p.ID]; err != nil {
		return nil, err
	}
	b.spawned[p.ID]++
	return &runner{backend: b, id: p.ID, code: p.Code}, nil
}

type runner struct {
	backend *Backend
	id      int

	mu   sync.Mutex
	code string
	dead bool
}

func (r *runner) NextAction(ctx context.Context, v worker.View) (worker.Turn, error) {
	r.mu.Lock()
	code, dead := r.code, r.dead
	r.mu.Unlock()
	if dead {
		return worker.Turn{}, errors.New("runner terminated")
	}

	r.backend.mu.Lock()
	fn := r.backend.acts[r.id]
	r.backend.mu.Unlock()

	if fn == nil {
		return worker.Turn{Action: world.Wait()}, nil
	}
	return fn(ctx, code, v)
}

func (r *runner) UpdateCode(_ context.Context, code string) error {
	r.backend.mu.Lock()
	err := r.backend.updateErrs[r.id]
	r.backend.mu.Unlock()
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.code = code
	return nil
}

func (r *runner) Terminate(context.Context) error {
	r.mu.Lock()
	r.dead = true
	r.mu.Unlock()

	r.backend.mu.Lock()
	defer r.backend.mu.Unlock()
	r.backend.terminated[r.id]++
	return nil
}
