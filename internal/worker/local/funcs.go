package local

import (
	"github.com/pixil98/go-gridgame/internal/world"
)

// toward names the direction that closes the larger gap between two points,
// or "" when they coincide.
func toward(fromX, fromY, toX, toY int) string {
	dx, dy := toX-fromX, toY-fromY
	if dx == 0 && dy == 0 {
		return ""
	}
	if abs(dx) >= abs(dy) {
		if dx > 0 {
			return string(world.East)
		}
		return string(world.West)
	}
	if dy > 0 {
		return string(world.North)
	}
	return string(world.South)
}

// nearestScore returns the closest score cell as [x y], or nil.
func nearestScore(s *world.Snapshot, x, y int) []int {
	var best []int
	bestDist := -1
	for _, c := range s.ScoreLocations {
		d := abs(c[0]-x) + abs(c[1]-y)
		if bestDist < 0 || d < bestDist {
			best, bestDist = []int{c[0], c[1]}, d
		}
	}
	return best
}

// free reports whether an avatar could step onto x,y right now.
func free(s *world.Snapshot, x, y int) bool {
	if s.CellAt(x, y) == world.CellObstacle {
		return false
	}
	for _, p := range s.Players {
		if p.X == x && p.Y == y {
			return false
		}
	}
	return true
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
