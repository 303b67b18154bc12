package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/pixil98/go-gridgame/internal/world"
	"github.com/pixil98/go-testutil"
)

type recordingPublisher struct {
	subjects []string
	payloads [][]byte
	err      error
}

func (r *recordingPublisher) Publish(subject string, data []byte) error {
	if r.err != nil {
		return r.err
	}
	r.subjects = append(r.subjects, subject)
	r.payloads = append(r.payloads, data)
	return nil
}

func TestNatsPublisher_PublishLogs(t *testing.T) {
	rec := &recordingPublisher{}
	p := NewNatsPublisher(rec, Subjects{Prefix: "grid", GameID: "g1"})

	err := p.PublishLogs(context.Background(), 7, map[int]string{2: "b\n", 1: "a\n", 3: ""})

	testutil.AssertEqual(t, "err", err, nil)
	testutil.AssertEqual(t, "published", len(rec.subjects), 2)
	testutil.AssertEqual(t, "first subject", rec.subjects[0], "grid.g1.logs.1")
	testutil.AssertEqual(t, "second subject", rec.subjects[1], "grid.g1.logs.2")

	var msg LogMessage
	if err := json.Unmarshal(rec.payloads[1], &msg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	testutil.AssertEqual(t, "message", msg, LogMessage{Turn: 7, PlayerID: 2, Log: "b\n"})
}

func TestNatsPublisher_Publish(t *testing.T) {
	rec := &recordingPublisher{}
	p := NewNatsPublisher(rec, Subjects{Prefix: "grid", GameID: "g1"})

	err := p.Publish(context.Background(), &world.Snapshot{Turn: 3, Width: 1, Height: 1})

	testutil.AssertEqual(t, "err", err, nil)
	testutil.AssertEqual(t, "subject", rec.subjects[0], "grid.g1.snapshot")

	rec.err = errors.New("down")
	err = p.PublishLogs(context.Background(), 1, map[int]string{1: "x"})
	testutil.AssertErrorContains(t, err, "player 1: down")
}
