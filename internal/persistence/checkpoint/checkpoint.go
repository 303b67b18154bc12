// Package checkpoint saves world snapshots to disk and restores them.
//
// A checkpoint file is zstd-compressed: one JSON header line followed by the
// snapshot as JSON.
package checkpoint

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
	"github.com/pixil98/go-gridgame/internal/storage"
	"github.com/pixil98/go-gridgame/internal/world"
)

const Version = 1

type Header struct {
	Version int    `json:"version"`
	GameID  string `json:"game_id"`
	Turn    uint64 `json:"turn"`
}

// Write stores s at path, replacing any previous checkpoint atomically.
func Write(path string, gameID string, s *world.Snapshot) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	var buf bytes.Buffer
	enc, err := zstd.NewWriter(&buf, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}

	hb, err := json.Marshal(Header{Version: Version, GameID: gameID, Turn: s.Turn})
	if err != nil {
		return err
	}
	if _, err := enc.Write(append(hb, '\n')); err != nil {
		return err
	}
	if err := json.NewEncoder(enc).Encode(s); err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	if err := enc.Close(); err != nil {
		return err
	}

	return storage.AtomicWrite(path, buf.Bytes(), 0o644)
}

// Read loads the checkpoint at path.
func Read(path string) (Header, *world.Snapshot, error) {
	var h Header
	f, err := os.Open(path)
	if err != nil {
		return h, nil, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return h, nil, err
	}
	defer dec.Close()

	br := bufio.NewReader(dec)
	line, err := br.ReadBytes('\n')
	if err != nil {
		return h, nil, fmt.Errorf("reading header: %w", err)
	}
	if err := json.Unmarshal(line, &h); err != nil {
		return h, nil, fmt.Errorf("decoding header: %w", err)
	}
	if h.Version != Version {
		return h, nil, fmt.Errorf("unsupported checkpoint version %d", h.Version)
	}

	s := &world.Snapshot{}
	if err := json.NewDecoder(br).Decode(s); err != nil {
		return h, nil, fmt.Errorf("decoding snapshot: %w", err)
	}
	return h, s, nil
}

// Checkpointer writes the published snapshot every few turns. It is a
// scheduler publisher.
type Checkpointer struct {
	path   string
	gameID string
	every  uint64
}

// New checkpoints into dir every n turns. n below 1 means every turn.
func New(dir string, gameID string, every int) *Checkpointer {
	if every < 1 {
		every = 1
	}
	return &Checkpointer{
		path:   Path(dir, gameID),
		gameID: gameID,
		every:  uint64(every),
	}
}

// Path is where the checkpoint for gameID lives inside dir.
func Path(dir string, gameID string) string {
	return filepath.Join(dir, gameID+".ckpt.zst")
}

func (c *Checkpointer) Publish(_ context.Context, s *world.Snapshot) error {
	if s.Turn%c.every != 0 {
		return nil
	}
	if err := Write(c.path, c.gameID, s); err != nil {
		return fmt.Errorf("writing checkpoint for turn %d: %w", s.Turn, err)
	}
	return nil
}

// Resume rebuilds the world from the game's checkpoint in dir. It reports
// false if there is no checkpoint yet.
func Resume(dir string, gameID string) (*world.World, bool, error) {
	h, s, err := Read(Path(dir, gameID))
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if h.GameID != gameID {
		return nil, false, fmt.Errorf("checkpoint belongs to game %q", h.GameID)
	}

	w, err := world.FromSnapshot(s)
	if err != nil {
		return nil, false, fmt.Errorf("restoring world: %w", err)
	}
	return w, true, nil
}
