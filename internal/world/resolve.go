package world

// resolveMoves decides which candidate moves survive. ids must be in
// ascending order. The returned map holds the rejection reason for every
// move that may not be committed.
//
// Rules, applied in order:
//   - several movers targeting one cell: the lowest id keeps its claim
//   - two avatars swapping cells: both rejected
//   - a move into a cell whose occupant stays put is rejected, repeated
//     until nothing changes so blocked chains collapse
func (w *World) resolveMoves(ids []int, targets map[int]Location) map[int]string {
	rejected := make(map[int]string)

	claimed := make(map[Location]int, len(targets))
	for _, id := range ids {
		t, ok := targets[id]
		if !ok {
			continue
		}
		if _, taken := claimed[t]; taken {
			rejected[id] = ReasonConflict
			continue
		}
		claimed[t] = id
	}

	occupant := w.occupancy()
	moving := func(id int) bool {
		if _, ok := targets[id]; !ok {
			return false
		}
		_, no := rejected[id]
		return !no
	}

	for _, id := range ids {
		if !moving(id) {
			continue
		}
		other, occupied := occupant[targets[id]]
		if !occupied || other == id || !moving(other) {
			continue
		}
		if targets[other] == w.avatars[id].Location {
			rejected[id] = ReasonSwap
			rejected[other] = ReasonSwap
		}
	}

	for changed := true; changed; {
		changed = false
		for _, id := range ids {
			if !moving(id) {
				continue
			}
			other, occupied := occupant[targets[id]]
			if !occupied || other == id || moving(other) {
				continue
			}
			rejected[id] = ReasonOccupied
			changed = true
		}
	}

	return rejected
}
