package command

import (
	"fmt"

	"github.com/pixil98/go-errors"
	"github.com/pixil98/go-gridgame/internal/messaging"
	"github.com/pixil98/go-gridgame/internal/worker"
	"github.com/pixil98/go-gridgame/internal/worker/local"
	"github.com/pixil98/go-gridgame/internal/worker/remote"
)

type BackendType int

const (
	BackendTypeLocal BackendType = iota
	BackendTypeRemote
)

func (bt *BackendType) UnmarshalText(text []byte) error {
	switch string(text) {
	case "local":
		*bt = BackendTypeLocal
	case "remote":
		*bt = BackendTypeRemote
	default:
		return fmt.Errorf("unknown backend type: %s", text)
	}
	return nil
}

// BackendConfig says where participant code runs: in process, or on
// gridworker hosts reached over the bus.
type BackendConfig struct {
	Type   BackendType `json:"type"`
	Prefix string      `json:"prefix,omitempty"`
}

func (c *BackendConfig) validate() error {
	el := errors.NewErrorList()

	if c.Type == BackendTypeLocal && c.Prefix != "" {
		el.Add(fmt.Errorf("backend: prefix only applies to remote"))
	}

	return el.Err()
}

func (c *BackendConfig) buildBackend(bus messaging.Connector) worker.Backend {
	switch c.Type {
	case BackendTypeRemote:
		prefix := c.Prefix
		if prefix == "" {
			prefix = remote.DefaultPrefix
		}
		return remote.New(bus, prefix)
	default:
		return local.New()
	}
}
