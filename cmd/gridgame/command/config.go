package command

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pixil98/go-errors"
	"github.com/pixil98/go-gridgame/internal/scheduler"
)

type Config struct {
	GameID          string            `json:"game_id"`
	TickInterval    string            `json:"tick_interval"`
	WorkerTimeout   string            `json:"worker_timeout"`
	MaxWorkerFaults int               `json:"max_worker_faults"`
	World           WorldConfig       `json:"world"`
	Roster          RosterConfig      `json:"roster"`
	Backend         BackendConfig     `json:"backend"`
	Nats            NatsConfig        `json:"nats"`
	Observer        ObserverConfig    `json:"observer"`
	Listeners       []ListenerConfig  `json:"listeners"`
	Persistence     PersistenceConfig `json:"persistence"`
}

func (c *Config) Validate() error {
	el := errors.NewErrorList()

	tick, err := parseDuration(c.TickInterval, scheduler.DefaultTickInterval)
	if err != nil {
		el.Add(fmt.Errorf("parsing tick_interval: %w", err))
	} else if tick < 100*time.Millisecond {
		el.Add(fmt.Errorf("tick_interval must be at least 100ms"))
	}

	timeout, err := parseDuration(c.WorkerTimeout, scheduler.DefaultWorkerTimeout)
	if err != nil {
		el.Add(fmt.Errorf("parsing worker_timeout: %w", err))
	} else if timeout <= 0 {
		el.Add(fmt.Errorf("worker_timeout must be positive"))
	} else if tick > 0 && timeout >= tick {
		el.Add(fmt.Errorf("worker_timeout must be shorter than tick_interval"))
	}

	if c.MaxWorkerFaults < 0 {
		el.Add(fmt.Errorf("max_worker_faults must not be negative"))
	}

	for i, l := range c.Listeners {
		err := l.validate()
		if err != nil {
			el.Add(fmt.Errorf("listener %d: %w", i, err))
		}
	}

	el.Add(c.World.validate())
	el.Add(c.Roster.validate())
	el.Add(c.Backend.validate())
	el.Add(c.Nats.validate())
	el.Add(c.Observer.validate())
	el.Add(c.Persistence.validate())

	return el.Err()
}

// gameID returns the configured id, or a fresh one for a throwaway game.
func (c *Config) gameID() string {
	if c.GameID == "" {
		c.GameID = uuid.NewString()
	}
	return c.GameID
}

func (c *Config) schedulerOpts() ([]scheduler.SchedulerOpt, error) {
	tick, err := parseDuration(c.TickInterval, scheduler.DefaultTickInterval)
	if err != nil {
		return nil, fmt.Errorf("parsing tick_interval: %w", err)
	}
	timeout, err := parseDuration(c.WorkerTimeout, scheduler.DefaultWorkerTimeout)
	if err != nil {
		return nil, fmt.Errorf("parsing worker_timeout: %w", err)
	}

	opts := []scheduler.SchedulerOpt{
		scheduler.WithTickInterval(tick),
		scheduler.WithWorkerTimeout(timeout),
	}
	if c.MaxWorkerFaults > 0 {
		opts = append(opts, scheduler.WithMaxWorkerFaults(c.MaxWorkerFaults))
	}
	return opts, nil
}

func parseDuration(s string, def time.Duration) (time.Duration, error) {
	if s == "" {
		return def, nil
	}
	return time.ParseDuration(s)
}
