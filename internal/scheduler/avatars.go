package scheduler

import (
	"context"
	"errors"
	"sync"

	"github.com/pixil98/go-gridgame/internal/gate"
	"github.com/pixil98/go-gridgame/internal/roster"
	"github.com/pixil98/go-gridgame/internal/world"
)

// gateAvatars places and removes avatars through the gate on behalf of the
// pool. Gate failures are remembered so the tick can stop on them.
type gateAvatars struct {
	gate *gate.Gate

	mu    sync.Mutex
	fatal error
}

func (a *gateAvatars) Add(_ context.Context, p roster.Participant) error {
	return a.write(func(w *world.World) error {
		// Avatars restored from a checkpoint are adopted as they are.
		if _, ok := w.Avatar(p.ID); ok {
			return nil
		}
		loc, err := w.SpawnLocation()
		if err != nil {
			return err
		}
		return w.AddAvatar(p.ID, loc)
	})
}

func (a *gateAvatars) Remove(_ context.Context, playerID int) error {
	return a.write(func(w *world.World) error {
		return w.RemoveAvatar(playerID)
	})
}

func (a *gateAvatars) write(fn func(*world.World) error) error {
	err := a.gate.WithExclusiveWrite(fn)
	if isFatal(err) {
		a.mu.Lock()
		if a.fatal == nil {
			a.fatal = err
		}
		a.mu.Unlock()
	}
	return err
}

func (a *gateAvatars) takeFatal() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	err := a.fatal
	a.fatal = nil
	return err
}

func isFatal(err error) bool {
	return errors.Is(err, gate.ErrAcquisition) || errors.Is(err, gate.ErrTornWrite)
}
