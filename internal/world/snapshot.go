package world

import (
	"fmt"
	"sort"
)

// Snapshot is an immutable view of the world at a turn boundary.
type Snapshot struct {
	Turn           uint64                   `json:"turn"`
	Players        map[int]PlayerView       `json:"players"`
	Layout         map[int]map[int]CellType `json:"layout"`
	Pickups        []PickupView             `json:"pickups"`
	ScoreLocations []Coord                  `json:"score_locations"`
	MapChanged     bool                     `json:"map_changed"`
	MainAvatar     *int                     `json:"main_avatar"`
	Width          int                      `json:"width"`
	Height         int                      `json:"height"`
	MinX           int                      `json:"minX"`
	MinY           int                      `json:"minY"`
	MaxX           int                      `json:"maxX"`
	MaxY           int                      `json:"maxY"`
}

// PlayerView is the public state of one avatar.
type PlayerView struct {
	ID       int     `json:"id"`
	X        int     `json:"x"`
	Y        int     `json:"y"`
	Health   int     `json:"health"`
	Score    int     `json:"score"`
	Rotation int     `json:"rotation"`
	Colours  Colours `json:"colours"`
}

// Colours are the render hints for an avatar.
type Colours struct {
	BodyStroke string `json:"bodyStroke"`
	BodyFill   string `json:"bodyFill"`
	EyeStroke  string `json:"eyeStroke"`
	EyeFill    string `json:"eyeFill"`
}

// PickupView is an unconsumed pickup on the grid.
type PickupView struct {
	Kind     PickupKind `json:"type"`
	Value    int        `json:"value"`
	Location Coord      `json:"location"`
}

func coloursFor(playerID int) Colours {
	return Colours{
		BodyStroke: "#0ff",
		BodyFill:   fmt.Sprintf("#%06x", (playerID*4999)&0xffffff),
		EyeStroke:  "#aff",
		EyeFill:    "#eff",
	}
}

// Snapshot materialises the current state. The result shares nothing with
// the world.
func (w *World) Snapshot() *Snapshot {
	g := w.grid
	s := &Snapshot{
		Turn:    w.turn,
		Players: make(map[int]PlayerView, len(w.avatars)),
		Layout:  make(map[int]map[int]CellType, g.Width()),
		// Observers iterate these, so an empty map is [] rather than null.
		Pickups:        make([]PickupView, 0),
		ScoreLocations: make([]Coord, 0),
		MapChanged:     true,
		Width:          g.Width(),
		Height:         g.Height(),
		MinX:           g.MinX(),
		MinY:           g.MinY(),
		MaxX:           g.MaxX(),
		MaxY:           g.MaxY(),
	}
	if w.mainAvatar != nil {
		id := *w.mainAvatar
		s.MainAvatar = &id
	}

	for id, av := range w.avatars {
		s.Players[id] = PlayerView{
			ID:       id,
			X:        av.Location.X,
			Y:        av.Location.Y,
			Health:   av.Health,
			Score:    av.Score,
			Rotation: av.Orientation.Rotation(),
			Colours:  coloursFor(id),
		}
	}

	for _, l := range g.Locations() {
		c, _ := g.Cell(l)
		col, ok := s.Layout[l.X]
		if !ok {
			col = make(map[int]CellType, g.Height())
			s.Layout[l.X] = col
		}
		col[l.Y] = c.Type()
		if c.GeneratesScore {
			s.ScoreLocations = append(s.ScoreLocations, l.Coord())
		}
		if c.Pickup != nil {
			s.Pickups = append(s.Pickups, PickupView{Kind: c.Pickup.Kind, Value: c.Pickup.Value, Location: l.Coord()})
		}
	}

	return s
}

// PlayerIDs returns the ids of the players in the snapshot in ascending order.
func (s *Snapshot) PlayerIDs() []int {
	ids := make([]int, 0, len(s.Players))
	for id := range s.Players {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// CellAt returns the cell type at x,y. Locations outside the grid are obstacles.
func (s *Snapshot) CellAt(x, y int) CellType {
	col, ok := s.Layout[x]
	if !ok {
		return CellObstacle
	}
	t, ok := col[y]
	if !ok {
		return CellObstacle
	}
	return t
}

// FromSnapshot rebuilds a world from a snapshot, as used when resuming
// from a checkpoint.
func FromSnapshot(s *Snapshot) (*World, error) {
	if s.Width <= 0 || s.Height <= 0 {
		return nil, fmt.Errorf("snapshot has invalid dimensions %dx%d", s.Width, s.Height)
	}

	g := NewGrid(s.MinX, s.MinY, s.MaxX, s.MaxY)
	for _, l := range g.Locations() {
		c, _ := g.Cell(l)
		switch s.CellAt(l.X, l.Y) {
		case CellObstacle:
			c.Habitable = false
		case CellScore:
			c.GeneratesScore = true
		}
	}
	for _, p := range s.Pickups {
		c, ok := g.Cell(p.Location.Location())
		if !ok {
			return nil, fmt.Errorf("pickup at %v outside grid", p.Location)
		}
		c.Pickup = &Pickup{Kind: p.Kind, Value: p.Value}
	}

	w := New(g)
	w.turn = s.Turn
	w.SetMainAvatar(s.MainAvatar)
	for _, id := range s.PlayerIDs() {
		p := s.Players[id]
		if err := w.AddAvatar(id, Location{X: p.X, Y: p.Y}); err != nil {
			return nil, fmt.Errorf("restoring avatar %d: %w", id, err)
		}
		av := w.avatars[id]
		av.Health = p.Health
		av.Score = p.Score
		av.Orientation = directionFromRotation(p.Rotation)
	}
	return w, nil
}
