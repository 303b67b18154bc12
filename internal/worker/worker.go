package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/pixil98/go-gridgame/internal/roster"
	"github.com/pixil98/go-gridgame/internal/world"
)

type Status string

const (
	StatusStarting   Status = "starting"
	StatusReady      Status = "ready"
	StatusFaulted    Status = "faulted"
	StatusTerminated Status = "terminated"
)

// Worker is the pool's handle on one participant's runner. Its bookkeeping
// is owned by the goroutine driving the pool; only Call may run
// concurrently with other workers' calls.
type Worker struct {
	participant roster.Participant
	instanceID  uuid.UUID
	runner      Runner

	log     strings.Builder
	status  Status
	faults  int
	lastErr error

	// Set while a runner call is executing, including one abandoned after
	// its deadline.
	inFlight atomic.Bool
}

// Spawn starts a runner for the participant. Failures are *SpawnError.
func Spawn(ctx context.Context, b Backend, p roster.Participant) (*Worker, error) {
	w := &Worker{
		participant: p,
		instanceID:  uuid.New(),
		status:      StatusStarting,
	}

	r, err := b.Spawn(ctx, p)
	if err != nil {
		return nil, &SpawnError{PlayerID: p.ID, Err: err}
	}
	w.runner = r
	w.status = StatusReady

	return w, nil
}

func (w *Worker) PlayerID() int                   { return w.participant.ID }
func (w *Worker) InstanceID() uuid.UUID           { return w.instanceID }
func (w *Worker) Participant() roster.Participant { return w.participant }
func (w *Worker) Code() string                    { return w.participant.Code }
func (w *Worker) Status() Status                  { return w.status }
func (w *Worker) Faults() int                     { return w.faults }
func (w *Worker) LastError() error                { return w.lastErr }
func (w *Worker) Log() string                     { return w.log.String() }
func (w *Worker) Busy() bool                      { return w.inFlight.Load() }

// ClearLog drops everything logged so far.
func (w *Worker) ClearLog() {
	w.log.Reset()
}

// AppendLog adds runner output to the log.
func (w *Worker) AppendLog(s string) {
	if s == "" {
		return
	}
	w.log.WriteString(s)
	if !strings.HasSuffix(s, "\n") {
		w.log.WriteByte('\n')
	}
}

// Call asks the runner for its next action, bounded by timeout. A panic in
// the runner is recovered. It does not touch the worker's bookkeeping; the
// caller records the result with Succeeded or Faulted.
//
// A runner that ignores its deadline keeps running after Call returns. Until
// it finishes, further calls are refused with ErrTimeout, so a worker never
// has more than one call executing.
func (w *Worker) Call(ctx context.Context, timeout time.Duration, v View) (Turn, error) {
	if !w.inFlight.CompareAndSwap(false, true) {
		return Turn{}, fmt.Errorf("previous call still running: %w", ErrTimeout)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// The goroutine may outlive Call, so it gets its own copies.
	r, id := w.runner, w.PlayerID()
	done := make(chan callResult, 1)
	go func() {
		res := runNext(ctx, r, id, v)
		// Cleared before the send so the caller's next Call is never refused
		// for a call that already returned.
		w.inFlight.Store(false)
		done <- res
	}()

	select {
	case <-ctx.Done():
		return Turn{}, ErrTimeout
	case res := <-done:
		if res.err != nil {
			if errors.Is(res.err, context.DeadlineExceeded) {
				return res.turn, ErrTimeout
			}
			var re *RuntimeError
			if !errors.As(res.err, &re) {
				res.err = &RuntimeError{PlayerID: w.PlayerID(), Err: res.err}
			}
			return res.turn, res.err
		}
		if err := res.turn.Action.Validate(); err != nil {
			return res.turn, &RuntimeError{PlayerID: w.PlayerID(), Err: err}
		}
		return res.turn, nil
	}
}

type callResult struct {
	turn Turn
	err  error
}

func runNext(ctx context.Context, r Runner, id int, v View) (res callResult) {
	defer func() {
		if p := recover(); p != nil {
			res = callResult{err: &RuntimeError{PlayerID: id, Err: fmt.Errorf("panic: %v", p)}}
		}
	}()
	t, err := r.NextAction(ctx, v)
	return callResult{turn: t, err: err}
}

// Succeeded resets the consecutive fault count.
func (w *Worker) Succeeded() {
	w.faults = 0
	w.lastErr = nil
	w.status = StatusReady
}

// Faulted records a failed call.
func (w *Worker) Faulted(err error) {
	w.faults++
	w.lastErr = err
	w.status = StatusFaulted
}

// Retry puts a faulted worker back in service for the next collection. The
// fault count is kept so repeated failures still lead to a recycle.
func (w *Worker) Retry() {
	if w.status == StatusFaulted {
		w.status = StatusReady
	}
}

// UpdateCode swaps the participant's code. On failure the old code stays
// active and the worker is marked faulted.
func (w *Worker) UpdateCode(ctx context.Context, p roster.Participant) error {
	if err := w.runner.UpdateCode(ctx, p.Code); err != nil {
		err = &RuntimeError{PlayerID: w.PlayerID(), Err: fmt.Errorf("updating code: %w", err)}
		w.Faulted(err)
		return err
	}
	w.participant = p
	return nil
}

// Terminate stops the runner. The worker is terminated even if the runner
// reports an error.
func (w *Worker) Terminate(ctx context.Context) error {
	if w.status == StatusTerminated {
		return nil
	}
	w.status = StatusTerminated
	if err := w.runner.Terminate(ctx); err != nil {
		return fmt.Errorf("terminating worker for player %d: %w", w.PlayerID(), err)
	}
	return nil
}

// Respawn replaces the runner with a fresh one running the same code.
func (w *Worker) Respawn(ctx context.Context, b Backend) error {
	if err := w.Terminate(ctx); err != nil {
		slog.WarnContext(ctx, "terminating runner before respawn", "player", w.PlayerID(), "error", err)
	}

	r, err := b.Spawn(ctx, w.participant)
	if err != nil {
		return &SpawnError{PlayerID: w.PlayerID(), Err: err}
	}
	w.runner = r
	w.instanceID = uuid.New()
	w.faults = 0
	w.lastErr = nil
	w.status = StatusReady
	return nil
}

// NewView builds the view a worker gets from a snapshot.
func NewView(s *world.Snapshot, p roster.Participant) View {
	return View{
		PlayerID:   p.ID,
		Avatar:     s.Players[p.ID],
		World:      s,
		Parameters: p.Parameters,
	}
}
