package world

import (
	"reflect"
	"testing"

	"github.com/pixil98/go-testutil"
)

func TestGenerate(t *testing.T) {
	opts := GenerateOptions{Width: 15, Height: 11, Seed: 42, Scores: 3, Pickups: 2}

	a := Generate(opts)
	b := Generate(opts)

	if !reflect.DeepEqual(a, b) {
		t.Error("same options produced different maps")
	}
	testutil.AssertEqual(t, "valid", a.Validate(), nil)
	testutil.AssertEqual(t, "scores", len(a.ScoreLocations), 3)
	testutil.AssertEqual(t, "pickups", len(a.Pickups), 2)
	for _, c := range a.Obstacles {
		if c.Location().distance() <= 1 {
			t.Errorf("obstacle %v too close to origin", c)
		}
	}
}
