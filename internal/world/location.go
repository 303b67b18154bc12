package world

import "fmt"

// Location is a cell position on the grid. North is +Y.
type Location struct {
	X int
	Y int
}

// Step returns the location one cell away in direction d.
func (l Location) Step(d Direction) Location {
	dx, dy := d.Delta()
	return Location{X: l.X + dx, Y: l.Y + dy}
}

// Coord returns the wire form of the location.
func (l Location) Coord() Coord {
	return Coord{l.X, l.Y}
}

func (l Location) String() string {
	return fmt.Sprintf("(%d,%d)", l.X, l.Y)
}

func (l Location) distance() int {
	return abs(l.X) + abs(l.Y)
}

// Coord is an [x, y] pair as it appears in snapshots and map assets.
type Coord [2]int

// Location converts the coord back into a grid location.
func (c Coord) Location() Location {
	return Location{X: c[0], Y: c[1]}
}

type Direction string

const (
	North Direction = "north"
	East  Direction = "east"
	South Direction = "south"
	West  Direction = "west"
)

// Directions lists the four compass directions in a fixed order.
var Directions = []Direction{North, East, South, West}

// ParseDirection accepts a full direction name or its first letter.
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "north", "n":
		return North, nil
	case "east", "e":
		return East, nil
	case "south", "s":
		return South, nil
	case "west", "w":
		return West, nil
	default:
		return "", fmt.Errorf("unknown direction %q", s)
	}
}

// Delta returns the x and y offset for one step in the direction.
func (d Direction) Delta() (int, int) {
	switch d {
	case North:
		return 0, 1
	case East:
		return 1, 0
	case South:
		return 0, -1
	case West:
		return -1, 0
	default:
		return 0, 0
	}
}

// Rotation returns the facing in degrees clockwise from north.
func (d Direction) Rotation() int {
	switch d {
	case East:
		return 90
	case South:
		return 180
	case West:
		return 270
	default:
		return 0
	}
}

func (d Direction) valid() bool {
	switch d {
	case North, East, South, West:
		return true
	}
	return false
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func directionFromRotation(deg int) Direction {
	for _, d := range Directions {
		if d.Rotation() == deg {
			return d
		}
	}
	return North
}
