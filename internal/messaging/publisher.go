package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/pixil98/go-gridgame/internal/world"
)

type publisher interface {
	Publish(subject string, data []byte) error
}

// NatsPublisher puts snapshots and per-player logs on the bus.
type NatsPublisher struct {
	server   publisher
	subjects Subjects
}

func NewNatsPublisher(server publisher, subjects Subjects) *NatsPublisher {
	return &NatsPublisher{server: server, subjects: subjects}
}

// LogMessage is the payload on a player's log subject.
type LogMessage struct {
	Turn     uint64 `json:"turn"`
	PlayerID int    `json:"player_id"`
	Log      string `json:"log"`
}

func (p *NatsPublisher) Publish(_ context.Context, s *world.Snapshot) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshalling snapshot: %w", err)
	}
	return p.server.Publish(p.subjects.Snapshot(), data)
}

// PublishLogs sends each non-empty log to its player's subject.
func (p *NatsPublisher) PublishLogs(_ context.Context, turn uint64, logs map[int]string) error {
	ids := make([]int, 0, len(logs))
	for id := range logs {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	var errs []error
	for _, id := range ids {
		if logs[id] == "" {
			continue
		}
		data, err := json.Marshal(LogMessage{Turn: turn, PlayerID: id, Log: logs[id]})
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := p.server.Publish(p.subjects.Logs(id), data); err != nil {
			errs = append(errs, fmt.Errorf("player %d: %w", id, err))
		}
	}
	return errors.Join(errs...)
}
