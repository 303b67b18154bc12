package filesource

import (
	"context"
	"fmt"
	"sort"

	"github.com/pixil98/go-errors"
	"github.com/pixil98/go-gridgame/internal/roster"
	"github.com/pixil98/go-gridgame/internal/storage"
)

// ParticipantSpec is a participant stored as an asset file.
type ParticipantSpec struct {
	PlayerID   int               `json:"player_id" yaml:"player_id"`
	Code       string            `json:"code" yaml:"code"`
	Parameters map[string]string `json:"parameters,omitempty" yaml:"parameters,omitempty"`
	Main       bool              `json:"main,omitempty" yaml:"main,omitempty"`
}

func (p *ParticipantSpec) Validate() error {
	el := errors.NewErrorList()

	if p.PlayerID < 0 {
		el.Add(fmt.Errorf("player_id must not be negative"))
	}

	return el.Err()
}

// Source serves the participants found in an asset directory. The
// directory is reread on every fetch so edits are picked up on the next tick.
type Source struct {
	path  string
	store *storage.FileStore[*ParticipantSpec]
}

func New(path string) (*Source, error) {
	st, err := storage.NewFileStore[*ParticipantSpec](path)
	if err != nil {
		return nil, fmt.Errorf("loading participants: %w", err)
	}
	return &Source{path: path, store: st}, nil
}

func (s *Source) Fetch(ctx context.Context) (roster.Roster, error) {
	if err := s.store.Reload(); err != nil {
		return roster.Roster{}, &roster.FetchError{Source: "file:" + s.path, Err: err}
	}

	specs := s.store.GetAll()
	keys := make([]string, 0, len(specs))
	for k := range specs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var r roster.Roster
	for _, k := range keys {
		p := specs[k]
		r.Participants = append(r.Participants, roster.Participant{
			ID:         p.PlayerID,
			Code:       p.Code,
			Parameters: p.Parameters,
		})
		if p.Main && r.MainAvatar == nil {
			id := p.PlayerID
			r.MainAvatar = &id
		}
	}
	return r, nil
}
