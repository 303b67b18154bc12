package command

import (
	"context"
	"fmt"
	"os"

	"github.com/pixil98/go-errors"
	"github.com/pixil98/go-gridgame/internal/roster"
	"github.com/pixil98/go-gridgame/internal/roster/dbsource"
	"github.com/pixil98/go-gridgame/internal/roster/filesource"
	"github.com/pixil98/go-gridgame/internal/roster/httpsource"
)

type RosterType int

const (
	RosterTypeHTTP RosterType = iota
	RosterTypePostgres
	RosterTypeFile
)

func (rt *RosterType) UnmarshalText(text []byte) error {
	switch string(text) {
	case "http":
		*rt = RosterTypeHTTP
	case "postgres":
		*rt = RosterTypePostgres
	case "file":
		*rt = RosterTypeFile
	default:
		return fmt.Errorf("unknown roster type: %s", text)
	}
	return nil
}

// RosterConfig says where the list of participants comes from.
type RosterConfig struct {
	Type    RosterType `json:"type"`
	URL     string     `json:"url,omitempty"`
	Timeout string     `json:"timeout,omitempty"`
	DSN     string     `json:"dsn,omitempty"`
	Migrate bool       `json:"migrate,omitempty"`
	Path    string     `json:"path,omitempty"`
}

func (c *RosterConfig) validate() error {
	el := errors.NewErrorList()

	switch c.Type {
	case RosterTypeHTTP:
		if c.URL == "" {
			el.Add(fmt.Errorf("roster: url is required for http"))
		}
		if _, err := parseDuration(c.Timeout, httpsource.DefaultTimeout); err != nil {
			el.Add(fmt.Errorf("roster: parsing timeout: %w", err))
		}
	case RosterTypePostgres:
		if c.DSN == "" {
			el.Add(fmt.Errorf("roster: dsn is required for postgres"))
		}
	case RosterTypeFile:
		if c.Path == "" {
			el.Add(fmt.Errorf("roster: path is required for file"))
		} else if _, err := os.Stat(c.Path); err != nil {
			el.Add(fmt.Errorf("roster: invalid path %q: %w", c.Path, err))
		}
	}

	return el.Err()
}

func (c *RosterConfig) buildSource(ctx context.Context, gameID string) (roster.Source, error) {
	switch c.Type {
	case RosterTypeHTTP:
		timeout, err := parseDuration(c.Timeout, httpsource.DefaultTimeout)
		if err != nil {
			return nil, fmt.Errorf("parsing timeout: %w", err)
		}
		src, err := httpsource.New(c.URL, httpsource.WithTimeout(timeout))
		if err != nil {
			return nil, err
		}
		return src, nil
	case RosterTypePostgres:
		db, err := dbsource.OpenPostgres(c.DSN)
		if err != nil {
			return nil, err
		}
		src := dbsource.New(db, gameID)
		if c.Migrate {
			if err := src.Migrate(ctx); err != nil {
				return nil, fmt.Errorf("migrating roster tables: %w", err)
			}
		}
		return src, nil
	case RosterTypeFile:
		src, err := filesource.New(c.Path)
		if err != nil {
			return nil, err
		}
		return src, nil
	default:
		return nil, fmt.Errorf("unknown roster type: %v", c.Type)
	}
}
