package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/pixil98/go-gridgame/internal/messaging"
	"github.com/pixil98/go-gridgame/internal/roster"
	"github.com/pixil98/go-gridgame/internal/worker"
)

// HostQueue is the queue group spawn requests are balanced across, so each
// participant lands on exactly one host.
const HostQueue = "gridworker-hosts"

type instance struct {
	runner worker.Runner
	sub    *nats.Subscription
}

// Host serves spawn and turn requests by running them on a local backend.
// Each spawned runner gets its own subjects, so several hosts can share one
// bus.
type Host struct {
	conn    messaging.Connector
	prefix  string
	backend worker.Backend

	mu        sync.Mutex
	nc        *nats.Conn
	instances map[string]*instance
	spawnSub  *nats.Subscription
}

func NewHost(conn messaging.Connector, prefix string, backend worker.Backend) *Host {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Host{
		conn:      conn,
		prefix:    prefix,
		backend:   backend,
		instances: map[string]*instance{},
	}
}

// Listen subscribes to spawn requests. It returns once subscribed.
func (h *Host) Listen(ctx context.Context) error {
	nc, err := h.conn.Conn()
	if err != nil {
		return err
	}
	h.mu.Lock()
	h.nc = nc
	h.mu.Unlock()

	sub, err := nc.QueueSubscribe(spawnSubject(h.prefix), HostQueue, func(m *nats.Msg) {
		h.handleSpawn(ctx, m)
	})
	if err != nil {
		return fmt.Errorf("subscribing to %s: %w", spawnSubject(h.prefix), err)
	}

	h.mu.Lock()
	h.spawnSub = sub
	h.mu.Unlock()

	return nc.Flush()
}

// Start satisfies service.Worker: it listens until ctx is cancelled and then
// terminates every runner it spawned.
func (h *Host) Start(ctx context.Context) error {
	if err := h.Listen(ctx); err != nil {
		return err
	}
	slog.InfoContext(ctx, "gridworker host listening", "prefix", h.prefix)

	<-ctx.Done()

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.spawnSub != nil {
		_ = h.spawnSub.Unsubscribe()
		h.spawnSub = nil
	}
	for id, inst := range h.instances {
		_ = inst.sub.Unsubscribe()
		if err := inst.runner.Terminate(context.WithoutCancel(ctx)); err != nil {
			slog.Warn("terminating runner", "instance", id, "error", err)
		}
		delete(h.instances, id)
	}
	return nil
}

// Instances returns how many runners are live.
func (h *Host) Instances() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.instances)
}

func (h *Host) handleSpawn(ctx context.Context, m *nats.Msg) {
	var req spawnRequest
	if err := json.Unmarshal(m.Data, &req); err != nil {
		respond(m, spawnReply{Error: fmt.Sprintf("bad request: %v", err)})
		return
	}

	r, err := h.backend.Spawn(ctx, roster.Participant{ID: req.PlayerID, Code: req.Code, Parameters: req.Parameters})
	if err != nil {
		respond(m, spawnReply{Error: err.Error()})
		return
	}

	id := uuid.NewString()
	h.mu.Lock()
	sub, err := h.nc.Subscribe(instanceSubject(h.prefix, id, "*"), func(m *nats.Msg) {
		h.handleInstance(ctx, id, m)
	})
	if err == nil {
		h.instances[id] = &instance{runner: r, sub: sub}
	}
	h.mu.Unlock()

	if err != nil {
		_ = r.Terminate(ctx)
		respond(m, spawnReply{Error: fmt.Sprintf("subscribing instance: %v", err)})
		return
	}

	slog.DebugContext(ctx, "spawned runner", "player", req.PlayerID, "instance", id)
	respond(m, spawnReply{Instance: id})
}

func (h *Host) handleInstance(ctx context.Context, id string, m *nats.Msg) {
	switch opOf(m.Subject) {
	case "turn":
		// Turns run concurrently; one slow participant must not hold up
		// the rest.
		go h.handleTurn(ctx, id, m)
	case "code":
		h.handleCode(ctx, id, m)
	case "terminate":
		h.handleTerminate(ctx, id, m)
	default:
		respond(m, ackReply{Error: fmt.Sprintf("unknown operation %q", opOf(m.Subject))})
	}
}

func (h *Host) handleTurn(ctx context.Context, id string, m *nats.Msg) {
	r, ok := h.runner(id)
	if !ok {
		respond(m, turnReply{Error: "unknown instance"})
		return
	}

	var v worker.View
	if err := json.Unmarshal(m.Data, &v); err != nil {
		respond(m, turnReply{Error: fmt.Sprintf("bad request: %v", err)})
		return
	}

	turn, err := r.NextAction(ctx, v)
	respond(m, turnReply{Turn: turn, Error: errorString(err)})
}

func (h *Host) handleCode(ctx context.Context, id string, m *nats.Msg) {
	r, ok := h.runner(id)
	if !ok {
		respond(m, ackReply{Error: "unknown instance"})
		return
	}

	var req codeRequest
	if err := json.Unmarshal(m.Data, &req); err != nil {
		respond(m, ackReply{Error: fmt.Sprintf("bad request: %v", err)})
		return
	}
	respond(m, ackReply{Error: errorString(r.UpdateCode(ctx, req.Code))})
}

func (h *Host) handleTerminate(ctx context.Context, id string, m *nats.Msg) {
	h.mu.Lock()
	inst, ok := h.instances[id]
	delete(h.instances, id)
	h.mu.Unlock()

	if !ok {
		respond(m, ackReply{})
		return
	}
	// The reply is sent before unsubscribing so it is not lost.
	respond(m, ackReply{Error: errorString(inst.runner.Terminate(ctx))})
	_ = inst.sub.Unsubscribe()
}

func (h *Host) runner(id string) (worker.Runner, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	inst, ok := h.instances[id]
	if !ok {
		return nil, false
	}
	return inst.runner, true
}

// opOf extracts the operation from <prefix>.<instance>.<op>.
func opOf(subject string) string {
	return subject[strings.LastIndex(subject, ".")+1:]
}

func respond(m *nats.Msg, reply any) {
	data, err := json.Marshal(reply)
	if err != nil {
		slog.Error("marshalling reply", "subject", m.Subject, "error", err)
		return
	}
	if err := m.Respond(data); err != nil {
		slog.Warn("responding", "subject", m.Subject, "error", err)
	}
}
