package checkpoint

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/pixil98/go-gridgame/internal/world"
	"github.com/pixil98/go-testutil"
)

func testSnapshot(t *testing.T, turns int) *world.Snapshot {
	t.Helper()
	spec := &world.MapSpec{
		Width:          7,
		Height:         5,
		Obstacles:      []world.Coord{{1, 1}},
		ScoreLocations: []world.Coord{{-2, 0}},
		Pickups:        []world.PickupSpec{{Location: world.Coord{2, 2}, Kind: world.PickupHealth, Value: 3}},
	}
	g, err := spec.Build()
	if err != nil {
		t.Fatalf("building grid: %v", err)
	}
	w := world.New(g)
	if err := w.AddAvatar(3, world.Location{X: 0, Y: 0}); err != nil {
		t.Fatalf("adding avatar: %v", err)
	}
	if err := w.AddAvatar(8, world.Location{X: -2, Y: 0}); err != nil {
		t.Fatalf("adding avatar: %v", err)
	}
	main := 8
	w.SetMainAvatar(&main)
	for range turns {
		w.ApplyBatch(map[int]world.Action{3: world.Move(world.East)})
		w.AdvanceTurn()
	}
	return w.Snapshot()
}

func TestWriteRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "game.ckpt.zst")
	want := testSnapshot(t, 2)

	err := Write(path, "g1", want)
	testutil.AssertEqual(t, "write err", err, nil)

	h, got, err := Read(path)
	testutil.AssertEqual(t, "read err", err, nil)
	testutil.AssertEqual(t, "header", h, Header{Version: Version, GameID: "g1", Turn: 2})
	if !reflect.DeepEqual(got, want) {
		t.Errorf("snapshot mismatch:\n got %+v\nwant %+v", got, want)
	}
}

func TestRead_Errors(t *testing.T) {
	dir := t.TempDir()
	garbage := filepath.Join(dir, "garbage")
	if err := os.WriteFile(garbage, []byte("not zstd"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := map[string]struct {
		path string
	}{
		"missing":   {path: filepath.Join(dir, "nope")},
		"corrupted": {path: garbage},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, s, err := Read(tt.path)
			testutil.AssertEqual(t, "failed", err != nil, true)
			testutil.AssertEqual(t, "no snapshot", s == nil, true)
		})
	}
}

func TestCheckpointer_EveryNTurns(t *testing.T) {
	dir := t.TempDir()
	c := New(dir, "g1", 2)

	err := c.Publish(context.Background(), testSnapshot(t, 1))
	testutil.AssertEqual(t, "publish err", err, nil)
	_, err = os.Stat(Path(dir, "g1"))
	testutil.AssertEqual(t, "skipped odd turn", os.IsNotExist(err), true)

	want := testSnapshot(t, 2)
	err = c.Publish(context.Background(), want)
	testutil.AssertEqual(t, "publish err", err, nil)

	w, ok, err := Resume(dir, "g1")
	testutil.AssertEqual(t, "resume err", err, nil)
	testutil.AssertEqual(t, "found", ok, true)
	if got := w.Snapshot(); !reflect.DeepEqual(got, want) {
		t.Errorf("resumed world mismatch:\n got %+v\nwant %+v", got, want)
	}
}

func TestResume(t *testing.T) {
	dir := t.TempDir()

	w, ok, err := Resume(dir, "g1")
	testutil.AssertEqual(t, "err", err, nil)
	testutil.AssertEqual(t, "found", ok, false)
	testutil.AssertEqual(t, "world", w == nil, true)

	if err := Write(Path(dir, "g1"), "other", testSnapshot(t, 0)); err != nil {
		t.Fatal(err)
	}
	_, _, err = Resume(dir, "g1")
	testutil.AssertErrorContains(t, err, `belongs to game "other"`)
}
