package roster

import (
	"context"
	"fmt"
	"maps"
	"sort"
)

// Participant is a registered player and the code controlling their avatar.
type Participant struct {
	ID         int               `json:"id"`
	Code       string            `json:"code"`
	Parameters map[string]string `json:"parameters,omitempty"`
}

// Equal reports whether two participants would run identically.
func (p Participant) Equal(o Participant) bool {
	return p.ID == o.ID && p.Code == o.Code && maps.Equal(p.Parameters, o.Parameters)
}

// Roster is the authoritative list of participants for a game.
type Roster struct {
	Participants []Participant
	MainAvatar   *int
}

// IDs returns the participant ids in ascending order.
func (r Roster) IDs() []int {
	ids := make([]int, 0, len(r.Participants))
	for _, p := range r.Participants {
		ids = append(ids, p.ID)
	}
	sort.Ints(ids)
	return ids
}

// Source produces the current roster, usually from a remote system.
type Source interface {
	Fetch(ctx context.Context) (Roster, error)
}

// FetchError wraps any failure to obtain a roster. The scheduler keeps the
// current pool when it sees one.
type FetchError struct {
	Source string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetching roster from %s: %v", e.Source, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
