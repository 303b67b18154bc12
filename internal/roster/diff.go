package roster

import "sort"

// Diff is the set of changes needed to move from one participant set to
// another. All slices are ordered by id.
type Diff struct {
	Added   []Participant
	Removed []int
	Changed []Participant
}

// Empty reports whether the diff holds no changes.
func (d Diff) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Changed) == 0
}

// Compute compares the current participants with a freshly fetched list.
// When the fetched list repeats an id, the first entry wins.
func Compute(current, fetched []Participant) Diff {
	have := make(map[int]Participant, len(current))
	for _, p := range current {
		have[p.ID] = p
	}

	var d Diff
	seen := make(map[int]bool, len(fetched))
	for _, p := range fetched {
		if seen[p.ID] {
			continue
		}
		seen[p.ID] = true

		old, ok := have[p.ID]
		switch {
		case !ok:
			d.Added = append(d.Added, p)
		case !old.Equal(p):
			d.Changed = append(d.Changed, p)
		}
	}
	for id := range have {
		if !seen[id] {
			d.Removed = append(d.Removed, id)
		}
	}

	sortParticipants(d.Added)
	sortParticipants(d.Changed)
	sort.Ints(d.Removed)
	return d
}

func sortParticipants(ps []Participant) {
	sort.Slice(ps, func(i, j int) bool { return ps[i].ID < ps[j].ID })
}
