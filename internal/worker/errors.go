package worker

import (
	"errors"
	"fmt"
)

// ErrTimeout is returned when a runner does not produce an action in time.
var ErrTimeout = errors.New("worker timed out")

// SpawnError means a runner could not be started for a participant.
type SpawnError struct {
	PlayerID int
	Err      error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("spawning worker for player %d: %v", e.PlayerID, e.Err)
}

func (e *SpawnError) Unwrap() error {
	return e.Err
}

// RuntimeError covers a runner that failed, panicked or returned an
// unusable action.
type RuntimeError struct {
	PlayerID int
	Err      error
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("worker for player %d: %v", e.PlayerID, e.Err)
}

func (e *RuntimeError) Unwrap() error {
	return e.Err
}
