package command

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pixil98/go-gridgame/internal/gate"
	"github.com/pixil98/go-gridgame/internal/messaging"
	"github.com/pixil98/go-gridgame/internal/metrics"
	"github.com/pixil98/go-gridgame/internal/observer"
	"github.com/pixil98/go-gridgame/internal/scheduler"
	"github.com/pixil98/go-service"
)

func BuildWorkers(config interface{}) (service.WorkerList, error) {
	cfg, ok := config.(*Config)
	if !ok {
		return nil, fmt.Errorf("unable to cast config")
	}
	gameID := cfg.gameID()
	ctx := context.Background()

	// The embedded bus carries snapshots, player logs and, for the remote
	// backend, participant code.
	bus, err := cfg.Nats.buildNatsServer()
	if err != nil {
		return nil, fmt.Errorf("creating nats server: %w", err)
	}

	w, err := cfg.Persistence.resume(gameID)
	if err != nil {
		return nil, err
	}
	if w != nil {
		slog.Info("resuming game from checkpoint", "game", gameID, "turn", w.Turn())
	} else {
		w, err = cfg.World.buildWorld()
		if err != nil {
			return nil, fmt.Errorf("building world: %w", err)
		}
	}
	g := gate.New(w)

	source, err := cfg.Roster.buildSource(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("creating roster source: %w", err)
	}
	backend := cfg.Backend.buildBackend(bus)

	natsPub := messaging.NewNatsPublisher(bus, cfg.Nats.subjects(gameID))
	recorder := metrics.NewRecorder(gameID)

	publishers := []scheduler.Publisher{natsPub}
	metricsSinks := []scheduler.MetricsSink{recorder}
	workers := service.WorkerList{
		"nats": bus,
	}

	feed := observer.NewFeed(g)
	if cfg.Observer.enabled() {
		hub := observer.NewHub(feed)
		publishers = append(publishers, hub)
		workers["observer"] = cfg.Observer.buildServer(feed, hub, recorder)
	}

	if cp := cfg.Persistence.buildCheckpointer(gameID); cp != nil {
		publishers = append(publishers, cp)
	}

	turnLog, err := cfg.Persistence.buildTurnLog()
	if err != nil {
		return nil, fmt.Errorf("opening turn log: %w", err)
	}
	if turnLog != nil {
		metricsSinks = append(metricsSinks, turnLog)
		workers["turnlog"] = turnLog
	}

	if len(cfg.Listeners) > 0 {
		listeners := make(service.WorkerList, len(cfg.Listeners))
		for i, l := range cfg.Listeners {
			lw, err := l.BuildListener(feed)
			if err != nil {
				return nil, fmt.Errorf("creating listener %d: %w", i, err)
			}
			listeners[fmt.Sprintf("listener-%d", i)] = lw
		}
		workers["listeners"] = &listeners
	}

	opts, err := cfg.schedulerOpts()
	if err != nil {
		return nil, err
	}
	opts = append(opts,
		scheduler.WithPublishers(publishers...),
		scheduler.WithLogSink(natsPub),
		scheduler.WithMetricsSinks(metricsSinks...),
	)
	workers["scheduler"] = scheduler.New(g, source, backend, opts...)

	return workers, nil
}
