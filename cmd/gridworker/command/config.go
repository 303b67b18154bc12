package command

import (
	"fmt"
	"strings"

	"github.com/pixil98/go-errors"
)

// Config for a gridworker host. It joins the game server's bus and runs
// participant code spawned by the remote backend.
type Config struct {
	NatsURL string `json:"nats_url"`
	Prefix  string `json:"prefix"`
	Name    string `json:"name,omitempty"`
}

func (c *Config) Validate() error {
	el := errors.NewErrorList()

	if c.NatsURL == "" {
		el.Add(fmt.Errorf("nats_url is required"))
	}
	if strings.ContainsAny(c.Prefix, " *>") {
		el.Add(fmt.Errorf("prefix must not contain spaces or wildcards"))
	}

	return el.Err()
}

func (c *Config) name() string {
	if c.Name == "" {
		return "gridworker"
	}
	return c.Name
}
