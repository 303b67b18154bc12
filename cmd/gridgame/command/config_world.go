package command

import (
	"fmt"
	"os"

	"github.com/pixil98/go-errors"
	"github.com/pixil98/go-gridgame/internal/storage"
	"github.com/pixil98/go-gridgame/internal/world"
)

// WorldConfig picks the map: either a named asset from a map directory or
// one generated from noise.
type WorldConfig struct {
	Maps     string          `json:"maps"`
	Map      string          `json:"map"`
	Generate *GenerateConfig `json:"generate,omitempty"`
}

type GenerateConfig struct {
	Width     int     `json:"width"`
	Height    int     `json:"height"`
	Seed      int64   `json:"seed"`
	Threshold float64 `json:"threshold"`
	Scale     float64 `json:"scale"`
	Scores    int     `json:"score_locations"`
	Pickups   int     `json:"pickups"`
}

func (c *WorldConfig) validate() error {
	el := errors.NewErrorList()

	switch {
	case c.Generate != nil && c.Maps != "":
		el.Add(fmt.Errorf("world: set either maps or generate, not both"))
	case c.Generate != nil:
		if c.Generate.Width <= 0 || c.Generate.Height <= 0 {
			el.Add(fmt.Errorf("world.generate: width and height must be positive"))
		}
		if c.Generate.Threshold < -1 || c.Generate.Threshold > 1 {
			el.Add(fmt.Errorf("world.generate: threshold must be between -1 and 1"))
		}
	case c.Maps != "":
		if c.Map == "" {
			el.Add(fmt.Errorf("world: map is required with maps"))
		}
		if _, err := os.Stat(c.Maps); err != nil {
			el.Add(fmt.Errorf("world: invalid maps path %q: %w", c.Maps, err))
		}
	default:
		el.Add(fmt.Errorf("world: one of maps or generate is required"))
	}

	return el.Err()
}

func (c *WorldConfig) mapSpec() (*world.MapSpec, error) {
	if c.Generate != nil {
		g := c.Generate
		return world.Generate(world.GenerateOptions{
			Width:     g.Width,
			Height:    g.Height,
			Seed:      g.Seed,
			Threshold: g.Threshold,
			Scale:     g.Scale,
			Scores:    g.Scores,
			Pickups:   g.Pickups,
		}), nil
	}

	maps, err := storage.NewFileStore[*world.MapSpec](c.Maps)
	if err != nil {
		return nil, fmt.Errorf("loading maps: %w", err)
	}
	spec := maps.Get(c.Map)
	if spec == nil {
		return nil, fmt.Errorf("map %q not found in %s", c.Map, c.Maps)
	}
	return spec, nil
}

func (c *WorldConfig) buildWorld() (*world.World, error) {
	spec, err := c.mapSpec()
	if err != nil {
		return nil, err
	}
	g, err := spec.Build()
	if err != nil {
		return nil, err
	}
	return world.New(g), nil
}
