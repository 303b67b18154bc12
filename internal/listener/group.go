package listener

import (
	"context"
	"sync"
	"sync/atomic"
)

// sessionGroup ties a listener's sessions to one context so shutdown can end
// them together and wait for them.
type sessionGroup struct {
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	active atomic.Int32
}

// newSessionGroup detaches from parent's cancellation; sessions end on stop.
func newSessionGroup(parent context.Context) *sessionGroup {
	ctx, cancel := context.WithCancel(context.WithoutCancel(parent))
	return &sessionGroup{ctx: ctx, cancel: cancel}
}

// run calls fn with the group's context and blocks until it returns.
func (g *sessionGroup) run(fn func(ctx context.Context)) {
	g.wg.Add(1)
	g.active.Add(1)
	defer func() {
		g.active.Add(-1)
		g.wg.Done()
	}()
	fn(g.ctx)
}

// spawn is run on a new goroutine.
func (g *sessionGroup) spawn(fn func(ctx context.Context)) {
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		g.run(fn)
	}()
}

func (g *sessionGroup) sessions() int {
	return int(g.active.Load())
}

func (g *sessionGroup) stop() {
	g.cancel()
	g.wg.Wait()
}
