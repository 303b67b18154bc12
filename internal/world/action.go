package world

import (
	"fmt"
	"strings"
)

type ActionKind string

const (
	ActionWait   ActionKind = "wait"
	ActionMove   ActionKind = "move"
	ActionAttack ActionKind = "attack"
)

// Action is one avatar's intent for a turn.
type Action struct {
	Kind      ActionKind `json:"type"`
	Direction Direction  `json:"direction,omitempty"`
}

func Wait() Action              { return Action{Kind: ActionWait} }
func Move(d Direction) Action   { return Action{Kind: ActionMove, Direction: d} }
func Attack(d Direction) Action { return Action{Kind: ActionAttack, Direction: d} }

// ParseAction reads the textual form of an action: "wait", "move north",
// "attack w". An empty string is a wait.
func ParseAction(s string) (Action, error) {
	fields := strings.Fields(strings.ToLower(s))
	if len(fields) == 0 {
		return Wait(), nil
	}

	switch ActionKind(fields[0]) {
	case ActionWait:
		if len(fields) != 1 {
			return Action{}, fmt.Errorf("%w: wait takes no arguments", ErrInvalidAction)
		}
		return Wait(), nil
	case ActionMove, ActionAttack:
		if len(fields) != 2 {
			return Action{}, fmt.Errorf("%w: %s requires a direction", ErrInvalidAction, fields[0])
		}
		d, err := ParseDirection(fields[1])
		if err != nil {
			return Action{}, fmt.Errorf("%w: %w", ErrInvalidAction, err)
		}
		return Action{Kind: ActionKind(fields[0]), Direction: d}, nil
	default:
		return Action{}, fmt.Errorf("%w: unknown action %q", ErrInvalidAction, fields[0])
	}
}

func (a Action) Validate() error {
	switch a.Kind {
	case ActionWait:
		return nil
	case ActionMove, ActionAttack:
		if !a.Direction.valid() {
			return fmt.Errorf("%w: bad direction %q", ErrInvalidAction, a.Direction)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown action %q", ErrInvalidAction, a.Kind)
	}
}

func (a Action) String() string {
	if a.Kind == ActionWait || a.Direction == "" {
		return string(a.Kind)
	}
	return string(a.Kind) + " " + string(a.Direction)
}

// Reasons an action was not applied.
const (
	ReasonNoAvatar = "no avatar"
	ReasonInvalid  = "invalid"
	ReasonBlocked  = "blocked"
	ReasonConflict = "conflict"
	ReasonSwap     = "swap"
	ReasonOccupied = "occupied"
	ReasonNoTarget = "no target"
)

// Outcome records what happened to one action in a batch.
type Outcome struct {
	PlayerID int
	Action   Action
	Applied  bool
	Reason   string
}
