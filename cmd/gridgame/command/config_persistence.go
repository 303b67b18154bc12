package command

import (
	"fmt"

	"github.com/pixil98/go-errors"
	"github.com/pixil98/go-gridgame/internal/persistence/checkpoint"
	"github.com/pixil98/go-gridgame/internal/persistence/turnlog"
	"github.com/pixil98/go-gridgame/internal/world"
)

// PersistenceConfig turns on checkpoints and the turn log. Both are off
// when their paths are empty.
type PersistenceConfig struct {
	CheckpointDir   string `json:"checkpoint_dir"`
	CheckpointEvery int    `json:"checkpoint_every"`
	Resume          bool   `json:"resume"`
	TurnLog         string `json:"turn_log"`
}

func (c *PersistenceConfig) validate() error {
	el := errors.NewErrorList()

	if c.CheckpointEvery < 0 {
		el.Add(fmt.Errorf("persistence: checkpoint_every must not be negative"))
	}
	if c.Resume && c.CheckpointDir == "" {
		el.Add(fmt.Errorf("persistence: resume needs checkpoint_dir"))
	}

	return el.Err()
}

// resume returns the checkpointed world, or nil when there is nothing to
// resume from.
func (c *PersistenceConfig) resume(gameID string) (*world.World, error) {
	if !c.Resume {
		return nil, nil
	}
	w, ok, err := checkpoint.Resume(c.CheckpointDir, gameID)
	if err != nil {
		return nil, fmt.Errorf("resuming game %s: %w", gameID, err)
	}
	if !ok {
		return nil, nil
	}
	return w, nil
}

func (c *PersistenceConfig) buildCheckpointer(gameID string) *checkpoint.Checkpointer {
	if c.CheckpointDir == "" {
		return nil
	}
	return checkpoint.New(c.CheckpointDir, gameID, c.CheckpointEvery)
}

func (c *PersistenceConfig) buildTurnLog() (*turnlog.Log, error) {
	if c.TurnLog == "" {
		return nil, nil
	}
	return turnlog.Open(c.TurnLog)
}
