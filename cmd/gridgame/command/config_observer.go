package command

import (
	"fmt"

	"github.com/pixil98/go-errors"
	"github.com/pixil98/go-gridgame/internal/metrics"
	"github.com/pixil98/go-gridgame/internal/observer"
)

// ObserverConfig enables the HTTP/websocket feed. A zero port disables it.
type ObserverConfig struct {
	Port    uint16 `json:"port"`
	Metrics bool   `json:"metrics"`
}

func (c *ObserverConfig) validate() error {
	el := errors.NewErrorList()

	if c.Metrics && c.Port == 0 {
		el.Add(fmt.Errorf("observer: metrics needs a port to be served on"))
	}

	return el.Err()
}

func (c *ObserverConfig) enabled() bool {
	return c.Port != 0
}

func (c *ObserverConfig) buildServer(feed *observer.Feed, hub *observer.Hub, rec *metrics.Recorder) *observer.Server {
	var opts []observer.ServerOpt
	if c.Metrics && rec != nil {
		opts = append(opts, observer.WithMetricsHandler(rec.Handler()))
	}
	return observer.NewServer(c.Port, feed, hub, opts...)
}
