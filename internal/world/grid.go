package world

import "sort"

// Grid is the rectangular cell layout of the world. Its shape never changes
// after construction; only pickups are consumed.
type Grid struct {
	cells map[Location]*Cell

	minX, minY int
	maxX, maxY int
}

// NewGrid creates a grid of open, habitable cells covering the inclusive bounds.
func NewGrid(minX, minY, maxX, maxY int) *Grid {
	g := &Grid{
		cells: make(map[Location]*Cell, (maxX-minX+1)*(maxY-minY+1)),
		minX:  minX,
		minY:  minY,
		maxX:  maxX,
		maxY:  maxY,
	}
	for x := minX; x <= maxX; x++ {
		for y := minY; y <= maxY; y++ {
			l := Location{X: x, Y: y}
			g.cells[l] = &Cell{Location: l, Habitable: true}
		}
	}
	return g
}

// Cell returns the cell at l, if it is inside the grid.
func (g *Grid) Cell(l Location) (*Cell, bool) {
	c, ok := g.cells[l]
	return c, ok
}

func (g *Grid) MinX() int   { return g.minX }
func (g *Grid) MinY() int   { return g.minY }
func (g *Grid) MaxX() int   { return g.maxX }
func (g *Grid) MaxY() int   { return g.maxY }
func (g *Grid) Width() int  { return g.maxX - g.minX + 1 }
func (g *Grid) Height() int { return g.maxY - g.minY + 1 }

// Locations returns every location ordered by x then y.
func (g *Grid) Locations() []Location {
	locs := make([]Location, 0, len(g.cells))
	for l := range g.cells {
		locs = append(locs, l)
	}
	sort.Slice(locs, func(i, j int) bool {
		if locs[i].X != locs[j].X {
			return locs[i].X < locs[j].X
		}
		return locs[i].Y < locs[j].Y
	})
	return locs
}

// spawnOrder lists the locations an avatar may be placed on, nearest to the
// origin first. Ties are broken by x then y so placement is deterministic.
func (g *Grid) spawnOrder() []Location {
	var out []Location
	for _, l := range g.Locations() {
		c := g.cells[l]
		if c.Habitable && !c.GeneratesScore {
			out = append(out, l)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].distance() < out[j].distance()
	})
	return out
}
