package pool

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/pixil98/go-gridgame/internal/roster"
	"github.com/pixil98/go-gridgame/internal/worker"
	"github.com/pixil98/go-gridgame/internal/world"
)

const DefaultMaxFaults = 3

// Avatars is the pool's view of the world: every live worker has exactly
// one avatar.
type Avatars interface {
	Add(ctx context.Context, p roster.Participant) error
	Remove(ctx context.Context, playerID int) error
}

// ReconcileResult summarises one reconciliation. Ids are ascending.
type ReconcileResult struct {
	Added     []int
	Removed   []int
	Updated   []int
	Restarted []int
	Failed    map[int]error
}

func (r *ReconcileResult) fail(id int, err error) {
	if r.Failed == nil {
		r.Failed = map[int]error{}
	}
	r.Failed[id] = err
}

// Pool owns the workers of a game. It is driven from a single goroutine;
// only CollectActions fans out.
type Pool struct {
	backend   worker.Backend
	avatars   Avatars
	maxFaults int

	workers map[int]*worker.Worker
}

type Opt func(*Pool)

// WithMaxFaults sets how many consecutive faults a worker may have before
// it is recycled.
func WithMaxFaults(n int) Opt {
	return func(p *Pool) {
		if n > 0 {
			p.maxFaults = n
		}
	}
}

func New(backend worker.Backend, avatars Avatars, opts ...Opt) *Pool {
	p := &Pool{
		backend:   backend,
		avatars:   avatars,
		maxFaults: DefaultMaxFaults,
		workers:   map[int]*worker.Worker{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Reconcile applies a roster diff: removals, then code changes, then
// additions, then faulted workers are retried or recycled.
func (p *Pool) Reconcile(ctx context.Context, d roster.Diff) ReconcileResult {
	var res ReconcileResult

	for _, id := range d.Removed {
		if p.remove(ctx, id) {
			res.Removed = append(res.Removed, id)
		}
	}

	for _, part := range d.Changed {
		w, ok := p.workers[part.ID]
		if !ok {
			p.add(ctx, part, &res)
			continue
		}
		if err := w.UpdateCode(ctx, part); err != nil {
			slog.WarnContext(ctx, "updating worker code", "player", part.ID, "error", err)
			res.fail(part.ID, err)
			continue
		}
		res.Updated = append(res.Updated, part.ID)
	}

	for _, part := range d.Added {
		p.add(ctx, part, &res)
	}

	p.retryFaulted(ctx, &res)

	sort.Ints(res.Added)
	sort.Ints(res.Updated)
	sort.Ints(res.Restarted)
	return res
}

// RetryFaulted runs only the fault handling step of Reconcile, for ticks
// where no roster was available.
func (p *Pool) RetryFaulted(ctx context.Context) ReconcileResult {
	var res ReconcileResult
	p.retryFaulted(ctx, &res)
	return res
}

func (p *Pool) add(ctx context.Context, part roster.Participant, res *ReconcileResult) {
	if _, exists := p.workers[part.ID]; exists {
		return
	}

	w, err := worker.Spawn(ctx, p.backend, part)
	if err != nil {
		slog.WarnContext(ctx, "spawning worker", "player", part.ID, "error", err)
		res.fail(part.ID, err)
		return
	}

	if err := p.avatars.Add(ctx, part); err != nil {
		slog.WarnContext(ctx, "placing avatar", "player", part.ID, "error", err)
		if terr := w.Terminate(ctx); terr != nil {
			slog.WarnContext(ctx, "terminating unplaced worker", "player", part.ID, "error", terr)
		}
		res.fail(part.ID, err)
		return
	}

	p.workers[part.ID] = w
	res.Added = append(res.Added, part.ID)
}

// remove drops the worker and its avatar together. Failures are logged but
// never leave one without the other.
func (p *Pool) remove(ctx context.Context, id int) bool {
	w, ok := p.workers[id]
	if !ok {
		return false
	}
	delete(p.workers, id)

	if err := w.Terminate(ctx); err != nil {
		slog.WarnContext(ctx, "terminating worker", "player", id, "error", err)
	}
	if err := p.avatars.Remove(ctx, id); err != nil {
		slog.WarnContext(ctx, "removing avatar", "player", id, "error", err)
	}
	return true
}

func (p *Pool) retryFaulted(ctx context.Context, res *ReconcileResult) {
	for _, id := range p.IDs() {
		w := p.workers[id]
		if w.Status() != worker.StatusFaulted {
			continue
		}

		if w.Faults() < p.maxFaults {
			w.Retry()
			continue
		}

		slog.InfoContext(ctx, "recycling worker", "player", id, "faults", w.Faults(), "last_error", w.LastError())
		if err := w.Respawn(ctx, p.backend); err != nil {
			slog.WarnContext(ctx, "respawning worker", "player", id, "error", err)
			p.remove(ctx, id)
			res.fail(id, err)
			continue
		}
		res.Restarted = append(res.Restarted, id)
	}
}

// ViewFunc builds the view handed to a participant's code.
type ViewFunc func(p roster.Participant) worker.View

// CollectActions asks every ready worker for its action in parallel, each
// bounded by timeout. Workers that time out or fail contribute nothing and
// are marked faulted.
func (p *Pool) CollectActions(ctx context.Context, timeout time.Duration, view ViewFunc) map[int]world.Action {
	type result struct {
		w    *worker.Worker
		turn worker.Turn
		err  error
	}

	var ready []*worker.Worker
	for _, id := range p.IDs() {
		if w := p.workers[id]; w.Status() == worker.StatusReady {
			ready = append(ready, w)
		}
	}

	results := make([]result, len(ready))
	var wg sync.WaitGroup
	for i, w := range ready {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					results[i] = result{w: w, err: &worker.RuntimeError{PlayerID: w.PlayerID(), Err: panicError{r}}}
				}
			}()
			t, err := w.Call(ctx, timeout, view(w.Participant()))
			results[i] = result{w: w, turn: t, err: err}
		}()
	}
	wg.Wait()

	actions := make(map[int]world.Action, len(results))
	for _, r := range results {
		r.w.AppendLog(r.turn.Log)
		if r.err != nil {
			slog.WarnContext(ctx, "collecting action", "player", r.w.PlayerID(), "error", r.err)
			r.w.Faulted(r.err)
			continue
		}
		r.w.Succeeded()
		actions[r.w.PlayerID()] = r.turn.Action
	}
	return actions
}

// ClearLogs empties every worker's log.
func (p *Pool) ClearLogs() {
	for _, w := range p.workers {
		w.ClearLog()
	}
}

// Logs returns each worker's current log.
func (p *Pool) Logs() map[int]string {
	logs := make(map[int]string, len(p.workers))
	for id, w := range p.workers {
		logs[id] = w.Log()
	}
	return logs
}

// Participants returns what each live worker is running, ordered by id.
func (p *Pool) Participants() []roster.Participant {
	out := make([]roster.Participant, 0, len(p.workers))
	for _, id := range p.IDs() {
		out = append(out, p.workers[id].Participant())
	}
	return out
}

func (p *Pool) IDs() []int {
	ids := make([]int, 0, len(p.workers))
	for id := range p.workers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

func (p *Pool) Worker(id int) (*worker.Worker, bool) {
	w, ok := p.workers[id]
	return w, ok
}

// Shutdown terminates every worker. Avatars are left in place.
func (p *Pool) Shutdown(ctx context.Context) {
	for _, id := range p.IDs() {
		if err := p.workers[id].Terminate(ctx); err != nil {
			slog.WarnContext(ctx, "terminating worker", "player", id, "error", err)
		}
		delete(p.workers, id)
	}
}
