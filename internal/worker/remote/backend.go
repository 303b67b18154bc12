// Package remote runs participant code in a separate gridworker process
// reached over NATS request/reply.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/pixil98/go-gridgame/internal/messaging"
	"github.com/pixil98/go-gridgame/internal/roster"
	"github.com/pixil98/go-gridgame/internal/worker"
)

type Backend struct {
	conn   messaging.Connector
	prefix string
}

func New(conn messaging.Connector, prefix string) *Backend {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Backend{conn: conn, prefix: prefix}
}

func (b *Backend) Spawn(ctx context.Context, p roster.Participant) (worker.Runner, error) {
	var reply spawnReply
	err := request(ctx, b.conn, spawnSubject(b.prefix), spawnRequest{
		PlayerID:   p.ID,
		Code:       p.Code,
		Parameters: p.Parameters,
	}, &reply)
	if err != nil {
		return nil, err
	}
	if err := errorOf(reply.Error); err != nil {
		return nil, err
	}
	return &Runner{conn: b.conn, prefix: b.prefix, instance: reply.Instance}, nil
}

// Runner proxies one spawned instance on the host.
type Runner struct {
	conn     messaging.Connector
	prefix   string
	instance string
}

func (r *Runner) NextAction(ctx context.Context, v worker.View) (worker.Turn, error) {
	var reply turnReply
	if err := request(ctx, r.conn, instanceSubject(r.prefix, r.instance, "turn"), v, &reply); err != nil {
		return worker.Turn{}, err
	}
	return reply.Turn, errorOf(reply.Error)
}

func (r *Runner) UpdateCode(ctx context.Context, code string) error {
	var reply ackReply
	if err := request(ctx, r.conn, instanceSubject(r.prefix, r.instance, "code"), codeRequest{Code: code}, &reply); err != nil {
		return err
	}
	return errorOf(reply.Error)
}

func (r *Runner) Terminate(ctx context.Context) error {
	var reply ackReply
	if err := request(ctx, r.conn, instanceSubject(r.prefix, r.instance, "terminate"), struct{}{}, &reply); err != nil {
		return err
	}
	return errorOf(reply.Error)
}

func request(ctx context.Context, c messaging.Connector, subject string, req, reply any) error {
	nc, err := c.Conn()
	if err != nil {
		return err
	}
	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshalling %s: %w", subject, err)
	}

	msg, err := nc.RequestWithContext(ctx, subject, data)
	if err != nil {
		if errors.Is(err, nats.ErrNoResponders) {
			return fmt.Errorf("no gridworker host on %s: %w", subject, err)
		}
		return fmt.Errorf("requesting %s: %w", subject, err)
	}

	if err := json.Unmarshal(msg.Data, reply); err != nil {
		return fmt.Errorf("unmarshalling %s reply: %w", subject, err)
	}
	return nil
}
