package gate

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/pixil98/go-gridgame/internal/world"
)

var (
	// ErrAcquisition is returned when a writer could not take exclusive
	// access because another write is in progress.
	ErrAcquisition = errors.New("gate: exclusive write already held")
	// ErrTornWrite is returned when a write section panicked part way
	// through, leaving the world in an unknown state.
	ErrTornWrite = errors.New("gate: write section aborted")
)

// Gate serialises access to a world. One writer at a time may mutate it;
// readers get the last published snapshot and never see a partial write.
type Gate struct {
	mu        sync.RWMutex
	writing   atomic.Bool
	world     *world.World
	published atomic.Pointer[world.Snapshot]
}

// New wraps w and publishes its initial state.
func New(w *world.World) *Gate {
	g := &Gate{world: w}
	g.published.Store(w.Snapshot())
	return g
}

// WithExclusiveWrite runs fn with sole access to the world. A concurrent
// second writer fails immediately with ErrAcquisition. The lock is released
// on every path, including a panic in fn which is reported as ErrTornWrite.
func (g *Gate) WithExclusiveWrite(fn func(*world.World) error) (err error) {
	if !g.writing.CompareAndSwap(false, true) {
		return ErrAcquisition
	}
	defer g.writing.Store(false)

	g.mu.Lock()
	defer g.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrTornWrite, r)
		}
	}()

	return fn(g.world)
}

// ReadSnapshot returns the last published snapshot. It only waits while a
// write section is running.
func (g *Gate) ReadSnapshot() *world.Snapshot {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.published.Load()
}

// Capture builds a snapshot of the current state without publishing it.
func (g *Gate) Capture() *world.Snapshot {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.world.Snapshot()
}

// Publish snapshots the current state and makes it the one readers see.
func (g *Gate) Publish() *world.Snapshot {
	g.mu.RLock()
	s := g.world.Snapshot()
	g.mu.RUnlock()

	g.published.Store(s)
	return s
}
