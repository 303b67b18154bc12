package filesource

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/pixil98/go-gridgame/internal/roster"
	"github.com/pixil98/go-testutil"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

func TestSource_Fetch(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "alice.yaml"), "version: 1\nid: alice\nspec:\n  player_id: 1\n  code: move north\n  main: true\n")
	writeFile(t, filepath.Join(dir, "bob.json"), `{"version":1,"id":"bob","spec":{"player_id":2,"code":"wait"}}`)

	s, err := New(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	r, err := s.Fetch(context.Background())
	testutil.AssertEqual(t, "err", err, nil)
	testutil.AssertEqual(t, "count", len(r.Participants), 2)
	testutil.AssertEqual(t, "first code", r.Participants[0].Code, "move north")
	testutil.AssertEqual(t, "main", *r.MainAvatar, 1)

	// Edits show up on the next fetch.
	writeFile(t, filepath.Join(dir, "carol.json"), `{"version":1,"id":"carol","spec":{"player_id":3,"code":"wait"}}`)
	r, err = s.Fetch(context.Background())
	testutil.AssertEqual(t, "err", err, nil)
	testutil.AssertEqual(t, "count after edit", len(r.Participants), 3)
}

func TestSource_FetchBrokenAsset(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	writeFile(t, filepath.Join(dir, "bad.json"), `{"version":1,"id":"bad","spec":{"player_id":-1}}`)
	_, err = s.Fetch(context.Background())

	var fe *roster.FetchError
	testutil.AssertEqual(t, "fetch error", errors.As(err, &fe), true)
	testutil.AssertErrorContains(t, err, "player_id must not be negative")
}
