package command

import (
	"fmt"
	"strings"
	"time"

	"github.com/pixil98/go-errors"
	"github.com/pixil98/go-gridgame/internal/messaging"
)

const defaultSubjectPrefix = "gridgame"

// NatsConfig configures the embedded bus. Snapshots and player logs are
// published under <subject_prefix>.<game_id>.
type NatsConfig struct {
	Host          string `json:"host"`
	Port          int    `json:"port"`
	StartTimeout  string `json:"start_timeout"`
	SubjectPrefix string `json:"subject_prefix"`
}

func (n *NatsConfig) validate() error {
	el := errors.NewErrorList()

	if n.StartTimeout != "" {
		_, err := time.ParseDuration(n.StartTimeout)
		if err != nil {
			el.Add(fmt.Errorf("parsing start_timeout: %w", err))
		}
	}
	if strings.ContainsAny(n.SubjectPrefix, " *>") {
		el.Add(fmt.Errorf("subject_prefix must not contain spaces or wildcards"))
	}

	return el.Err()
}

func (n *NatsConfig) buildNatsServer() (*messaging.NatsServer, error) {
	var opts []messaging.NatsServerOpt
	if n.StartTimeout != "" {
		d, err := time.ParseDuration(n.StartTimeout)
		if err != nil {
			return nil, fmt.Errorf("parsing start_timeout: %w", err)
		}
		opts = append(opts, messaging.WithStartTimeout(d))
	}
	if n.Host != "" {
		opts = append(opts, messaging.WithHost(n.Host))
	}
	if n.Port != 0 {
		opts = append(opts, messaging.WithPort(n.Port))
	}

	return messaging.NewNatsServer(opts...)
}

func (n *NatsConfig) subjects(gameID string) messaging.Subjects {
	prefix := n.SubjectPrefix
	if prefix == "" {
		prefix = defaultSubjectPrefix
	}
	return messaging.Subjects{Prefix: prefix, GameID: gameID}
}
