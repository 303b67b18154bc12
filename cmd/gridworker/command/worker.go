package command

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"
	"github.com/pixil98/go-gridgame/internal/messaging"
	"github.com/pixil98/go-gridgame/internal/worker/local"
	"github.com/pixil98/go-gridgame/internal/worker/remote"
	"github.com/pixil98/go-service"
)

func BuildWorkers(config interface{}) (service.WorkerList, error) {
	cfg, ok := config.(*Config)
	if !ok {
		return nil, fmt.Errorf("unable to cast config")
	}

	nc, err := nats.Connect(cfg.NatsURL,
		nats.Name(cfg.name()),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", cfg.NatsURL, err)
	}

	conn := messaging.ConnFunc(func() (*nats.Conn, error) { return nc, nil })
	host := remote.NewHost(conn, cfg.Prefix, local.New())

	return service.WorkerList{
		"host": &hostWorker{host: host, nc: nc},
	}, nil
}

// hostWorker drains the connection once the host stops, so in-flight
// replies still go out.
type hostWorker struct {
	host *remote.Host
	nc   *nats.Conn
}

func (w *hostWorker) Start(ctx context.Context) error {
	err := w.host.Start(ctx)
	if derr := w.nc.Drain(); derr != nil {
		slog.Warn("draining nats connection", "error", derr)
	}
	return err
}
