// Package observer serves world snapshots to spectators over HTTP and
// websockets.
package observer

import "github.com/pixil98/go-gridgame/internal/world"

type snapshotReader interface {
	ReadSnapshot() *world.Snapshot
}

// Feed is what a browser or terminal client sees of the world. The initial
// state and every update have the same shape; the whole world is sent each
// time.
type Feed struct {
	reader snapshotReader
}

func NewFeed(r snapshotReader) *Feed {
	return &Feed{reader: r}
}

func (f *Feed) GetInit() *world.Snapshot {
	return f.reader.ReadSnapshot()
}

func (f *Feed) GetUpdate() *world.Snapshot {
	return f.reader.ReadSnapshot()
}
