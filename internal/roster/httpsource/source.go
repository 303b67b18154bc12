package httpsource

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/cloudwego/hertz/pkg/app/client"
	"github.com/pixil98/go-gridgame/internal/roster"
)

const DefaultTimeout = 5 * time.Second

type payload struct {
	Main struct {
		Parameters []parameter `json:"parameters"`
		MainAvatar *int        `json:"main_avatar"`
		Users      []user      `json:"users"`
	} `json:"main"`
}

type parameter struct {
	Name  string          `json:"name"`
	Value json.RawMessage `json:"value"`
}

type user struct {
	ID   int    `json:"id"`
	Code string `json:"code"`
}

// Source fetches the roster of a game from the game metadata endpoint.
type Source struct {
	url    string
	client *client.Client
}

type Opt func(*sourceConfig)

type sourceConfig struct {
	timeout time.Duration
}

// WithTimeout bounds connecting and reading the response.
func WithTimeout(d time.Duration) Opt {
	return func(c *sourceConfig) {
		c.timeout = d
	}
}

func New(url string, opts ...Opt) (*Source, error) {
	cfg := sourceConfig{timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(&cfg)
	}

	c, err := client.NewClient(
		client.WithDialTimeout(cfg.timeout),
		client.WithClientReadTimeout(cfg.timeout),
	)
	if err != nil {
		return nil, fmt.Errorf("creating http client: %w", err)
	}

	return &Source{url: url, client: c}, nil
}

func (s *Source) Fetch(ctx context.Context) (roster.Roster, error) {
	r, err := s.fetch(ctx)
	if err != nil {
		return roster.Roster{}, &roster.FetchError{Source: s.url, Err: err}
	}
	return r, nil
}

func (s *Source) fetch(ctx context.Context) (roster.Roster, error) {
	status, body, err := s.client.Get(ctx, nil, s.url)
	if err != nil {
		return roster.Roster{}, fmt.Errorf("requesting: %w", err)
	}
	if status != http.StatusOK {
		return roster.Roster{}, fmt.Errorf("unexpected status %d", status)
	}
	return Decode(body)
}

// Decode validates and converts a game metadata document.
func Decode(body []byte) (roster.Roster, error) {
	var doc any
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return roster.Roster{}, fmt.Errorf("decoding: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return roster.Roster{}, fmt.Errorf("validating: %w", err)
	}

	var p payload
	if err := json.Unmarshal(body, &p); err != nil {
		return roster.Roster{}, fmt.Errorf("unmarshalling: %w", err)
	}

	params := make(map[string]string, len(p.Main.Parameters))
	for _, prm := range p.Main.Parameters {
		params[prm.Name] = parameterValue(prm.Value)
	}

	r := roster.Roster{MainAvatar: p.Main.MainAvatar}
	for _, u := range p.Main.Users {
		part := roster.Participant{ID: u.ID, Code: u.Code}
		if len(params) > 0 {
			part.Parameters = params
		}
		r.Participants = append(r.Participants, part)
	}
	return r, nil
}

// parameterValue flattens a parameter to text. Strings lose their quotes;
// anything else keeps its JSON form.
func parameterValue(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(bytes.TrimSpace(raw))
}
