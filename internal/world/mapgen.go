package world

import (
	"math/rand"

	"github.com/aquilax/go-perlin"
)

const (
	DefaultObstacleThreshold = 0.25
	DefaultNoiseScale        = 0.15
	DefaultPickupValue       = 3
)

type GenerateOptions struct {
	Width     int
	Height    int
	Seed      int64
	Threshold float64 // noise above this becomes an obstacle
	Scale     float64
	Scores    int
	Pickups   int
}

// Generate builds a map spec from Perlin noise. The same options always
// produce the same map. The origin and its neighbours are kept clear so
// there is always somewhere to spawn.
func Generate(opts GenerateOptions) *MapSpec {
	if opts.Threshold == 0 {
		opts.Threshold = DefaultObstacleThreshold
	}
	if opts.Scale == 0 {
		opts.Scale = DefaultNoiseScale
	}

	spec := &MapSpec{Width: opts.Width, Height: opts.Height}
	if opts.Width <= 0 || opts.Height <= 0 {
		return spec
	}
	minX, minY, maxX, maxY := spec.bounds()

	noise := perlin.NewPerlin(2, 2, 3, opts.Seed)
	var free []Coord
	for x := minX; x <= maxX; x++ {
		for y := minY; y <= maxY; y++ {
			c := Coord{x, y}
			if abs(x)+abs(y) > 1 && noise.Noise2D(float64(x)*opts.Scale, float64(y)*opts.Scale) > opts.Threshold {
				spec.Obstacles = append(spec.Obstacles, c)
				continue
			}
			if x != 0 || y != 0 {
				free = append(free, c)
			}
		}
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	perm := rng.Perm(len(free))
	next := 0
	for i := 0; i < opts.Scores && next < len(perm); i++ {
		spec.ScoreLocations = append(spec.ScoreLocations, free[perm[next]])
		next++
	}
	for i := 0; i < opts.Pickups && next < len(perm); i++ {
		spec.Pickups = append(spec.Pickups, PickupSpec{
			Location: free[perm[next]],
			Kind:     PickupHealth,
			Value:    DefaultPickupValue,
		})
		next++
	}

	return spec
}
