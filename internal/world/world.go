package world

import (
	"fmt"
	"sort"
)

// World is the mutable game state: grid, avatars and the turn counter.
// It is not safe for concurrent use; callers serialise access through a gate.
type World struct {
	grid       *Grid
	spawns     []Location
	avatars    map[int]*Avatar
	turn       uint64
	mainAvatar *int
}

// New creates an empty world on the given grid.
func New(grid *Grid) *World {
	return &World{
		grid:    grid,
		spawns:  grid.spawnOrder(),
		avatars: make(map[int]*Avatar),
	}
}

// Turn returns the number of completed turns.
func (w *World) Turn() uint64 {
	return w.turn
}

// Avatar returns a copy of the player's avatar.
func (w *World) Avatar(playerID int) (Avatar, bool) {
	a, ok := w.avatars[playerID]
	if !ok {
		return Avatar{}, false
	}
	return *a, true
}

// AvatarIDs returns the ids of all avatars in ascending order.
func (w *World) AvatarIDs() []int {
	ids := make([]int, 0, len(w.avatars))
	for id := range w.avatars {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// SetMainAvatar records which avatar spectators should follow. Nil clears it.
func (w *World) SetMainAvatar(playerID *int) {
	if playerID == nil {
		w.mainAvatar = nil
		return
	}
	id := *playerID
	w.mainAvatar = &id
}

// SpawnLocation returns the free habitable cell nearest the origin.
func (w *World) SpawnLocation() (Location, error) {
	occupied := w.occupancy()
	for _, l := range w.spawns {
		if _, taken := occupied[l]; !taken {
			return l, nil
		}
	}
	return Location{}, ErrNoSpawnLocation
}

// AddAvatar places a new avatar for the player at loc.
func (w *World) AddAvatar(playerID int, loc Location) error {
	if _, exists := w.avatars[playerID]; exists {
		return ErrAvatarExists
	}
	c, ok := w.grid.Cell(loc)
	if !ok || !c.Habitable {
		return fmt.Errorf("placing avatar %d at %s: %w", playerID, loc, ErrLocationBlocked)
	}
	if _, taken := w.occupancy()[loc]; taken {
		return fmt.Errorf("placing avatar %d at %s: %w", playerID, loc, ErrLocationOccupied)
	}

	w.avatars[playerID] = newAvatar(playerID, loc)
	return nil
}

// RemoveAvatar deletes the player's avatar.
func (w *World) RemoveAvatar(playerID int) error {
	if _, exists := w.avatars[playerID]; !exists {
		return ErrAvatarNotFound
	}
	delete(w.avatars, playerID)
	return nil
}

// RetainAvatars removes every avatar whose id is not in ids and returns the
// removed ids in ascending order.
func (w *World) RetainAvatars(ids []int) []int {
	keep := make(map[int]bool, len(ids))
	for _, id := range ids {
		keep[id] = true
	}

	var removed []int
	for _, id := range w.AvatarIDs() {
		if !keep[id] {
			delete(w.avatars, id)
			removed = append(removed, id)
		}
	}
	return removed
}

// ApplyAction applies a single action as a batch of one.
func (w *World) ApplyAction(playerID int, a Action) Outcome {
	return w.ApplyBatch(map[int]Action{playerID: a})[0]
}

// ApplyBatch applies one turn's actions. Actions are processed in ascending
// player id so the same state and batch always produce the same result.
// Moves are committed first, then pickups, then attacks against the
// post-move positions, then respawns.
func (w *World) ApplyBatch(actions map[int]Action) []Outcome {
	ids := make([]int, 0, len(actions))
	for id := range actions {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	outcomes := make(map[int]*Outcome, len(ids))
	targets := make(map[int]Location)
	var attackers []int

	for _, id := range ids {
		a := actions[id]
		o := &Outcome{PlayerID: id, Action: a}
		outcomes[id] = o

		av, ok := w.avatars[id]
		if !ok {
			o.Reason = ReasonNoAvatar
			continue
		}
		if err := a.Validate(); err != nil {
			o.Reason = ReasonInvalid
			continue
		}

		switch a.Kind {
		case ActionWait:
			o.Applied = true
		case ActionMove:
			t := av.Location.Step(a.Direction)
			c, ok := w.grid.Cell(t)
			if !ok || !c.Habitable {
				o.Reason = ReasonBlocked
				continue
			}
			targets[id] = t
		case ActionAttack:
			attackers = append(attackers, id)
		}
	}

	rejected := w.resolveMoves(ids, targets)
	for _, id := range ids {
		t, ok := targets[id]
		if !ok {
			continue
		}
		if reason, no := rejected[id]; no {
			outcomes[id].Reason = reason
			continue
		}
		av := w.avatars[id]
		av.Location = t
		av.Orientation = actions[id].Direction
		outcomes[id].Applied = true

		if c, _ := w.grid.Cell(t); c.Pickup != nil {
			av.heal(c.Pickup.Value)
			c.Pickup = nil
		}
	}

	occupied := w.occupancy()
	for _, id := range attackers {
		av := w.avatars[id]
		d := actions[id].Direction
		av.Orientation = d
		victim, ok := occupied[av.Location.Step(d)]
		if !ok {
			outcomes[id].Reason = ReasonNoTarget
			continue
		}
		w.avatars[victim].Health -= AttackDamage
		outcomes[id].Applied = true
	}
	w.respawnDead()

	out := make([]Outcome, 0, len(ids))
	for _, id := range ids {
		out = append(out, *outcomes[id])
	}
	return out
}

// AdvanceTurn awards score to avatars standing on score cells and moves the
// turn counter on.
func (w *World) AdvanceTurn() {
	for _, id := range w.AvatarIDs() {
		av := w.avatars[id]
		if c, ok := w.grid.Cell(av.Location); ok && c.GeneratesScore {
			av.Score++
		}
	}
	w.turn++
}

func (w *World) respawnDead() {
	for _, id := range w.AvatarIDs() {
		av := w.avatars[id]
		if av.Health > 0 {
			continue
		}
		if loc, err := w.SpawnLocation(); err == nil {
			av.Location = loc
		}
		av.Health = DefaultHealth
	}
}

func (w *World) occupancy() map[Location]int {
	occ := make(map[Location]int, len(w.avatars))
	for id, av := range w.avatars {
		occ[av.Location] = id
	}
	return occ
}
