package worker

import (
	"context"

	"github.com/pixil98/go-gridgame/internal/roster"
	"github.com/pixil98/go-gridgame/internal/world"
)

// View is what a participant's code sees when choosing an action.
type View struct {
	PlayerID   int               `json:"player_id"`
	Avatar     world.PlayerView  `json:"avatar"`
	World      *world.Snapshot   `json:"world"`
	Parameters map[string]string `json:"parameters,omitempty"`
}

// Turn is a runner's answer: the chosen action and anything the code logged.
type Turn struct {
	Action world.Action `json:"action"`
	Log    string       `json:"log,omitempty"`
}

// Runner executes one participant's code.
type Runner interface {
	NextAction(ctx context.Context, v View) (Turn, error)
	UpdateCode(ctx context.Context, code string) error
	Terminate(ctx context.Context) error
}

// Backend starts runners.
type Backend interface {
	Spawn(ctx context.Context, p roster.Participant) (Runner, error)
}
