package world

import (
	"fmt"

	"github.com/pixil98/go-errors"
)

// MapSpec describes a world layout. Maps are stored as assets and centred on
// the origin: a width of 5 spans x in [-2, 2].
type MapSpec struct {
	Width          int          `json:"width" yaml:"width"`
	Height         int          `json:"height" yaml:"height"`
	Obstacles      []Coord      `json:"obstacles,omitempty" yaml:"obstacles,omitempty"`
	ScoreLocations []Coord      `json:"score_locations,omitempty" yaml:"score_locations,omitempty"`
	Pickups        []PickupSpec `json:"pickups,omitempty" yaml:"pickups,omitempty"`
}

type PickupSpec struct {
	Location Coord      `json:"location" yaml:"location"`
	Kind     PickupKind `json:"type" yaml:"type"`
	Value    int        `json:"value" yaml:"value"`
}

// Validate satisfies storage.ValidatingSpec.
func (m *MapSpec) Validate() error {
	el := errors.NewErrorList()

	if m.Width <= 0 {
		el.Add(fmt.Errorf("width must be positive"))
	}
	if m.Height <= 0 {
		el.Add(fmt.Errorf("height must be positive"))
	}
	if m.Width <= 0 || m.Height <= 0 {
		return el.Err()
	}

	minX, minY, maxX, maxY := m.bounds()
	inside := func(c Coord) bool {
		return c[0] >= minX && c[0] <= maxX && c[1] >= minY && c[1] <= maxY
	}

	obstacles := make(map[Coord]bool, len(m.Obstacles))
	for _, c := range m.Obstacles {
		if !inside(c) {
			el.Add(fmt.Errorf("obstacle %v is outside the map", c))
		}
		obstacles[c] = true
	}
	for _, c := range m.ScoreLocations {
		if !inside(c) {
			el.Add(fmt.Errorf("score location %v is outside the map", c))
		}
		if obstacles[c] {
			el.Add(fmt.Errorf("score location %v is an obstacle", c))
		}
	}
	for _, p := range m.Pickups {
		if !inside(p.Location) {
			el.Add(fmt.Errorf("pickup %v is outside the map", p.Location))
		}
		if obstacles[p.Location] {
			el.Add(fmt.Errorf("pickup %v is on an obstacle", p.Location))
		}
		if p.Kind != PickupHealth {
			el.Add(fmt.Errorf("pickup %v: unknown type %q", p.Location, p.Kind))
		}
		if p.Value <= 0 {
			el.Add(fmt.Errorf("pickup %v: value must be positive", p.Location))
		}
	}

	return el.Err()
}

// Build turns the spec into a grid.
func (m *MapSpec) Build() (*Grid, error) {
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("invalid map: %w", err)
	}

	g := NewGrid(m.bounds())
	for _, c := range m.Obstacles {
		g.cells[c.Location()].Habitable = false
	}
	for _, c := range m.ScoreLocations {
		g.cells[c.Location()].GeneratesScore = true
	}
	for _, p := range m.Pickups {
		g.cells[p.Location.Location()].Pickup = &Pickup{Kind: p.Kind, Value: p.Value}
	}
	return g, nil
}

func (m *MapSpec) bounds() (minX, minY, maxX, maxY int) {
	minX = -(m.Width / 2)
	minY = -(m.Height / 2)
	return minX, minY, minX + m.Width - 1, minY + m.Height - 1
}
