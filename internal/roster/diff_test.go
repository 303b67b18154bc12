package roster

import (
	"reflect"
	"testing"

	"github.com/pixil98/go-testutil"
)

func participants(codes map[int]string) []Participant {
	var ps []Participant
	for id, code := range codes {
		ps = append(ps, Participant{ID: id, Code: code})
	}
	return ps
}

func ids(ps []Participant) []int {
	var out []int
	for _, p := range ps {
		out = append(out, p.ID)
	}
	return out
}

func TestCompute(t *testing.T) {
	tests := map[string]struct {
		current    []Participant
		fetched    []Participant
		expAdded   []int
		expRemoved []int
		expChanged []int
	}{
		"empty to three": {
			fetched:  participants(map[int]string{3: "c", 1: "a", 2: "b"}),
			expAdded: []int{1, 2, 3},
		},
		"unchanged": {
			current: participants(map[int]string{1: "a", 2: "b"}),
			fetched: participants(map[int]string{1: "a", 2: "b"}),
		},
		"code changed": {
			current:    participants(map[int]string{1: "a", 2: "b"}),
			fetched:    participants(map[int]string{1: "a", 2: "new"}),
			expChanged: []int{2},
		},
		"parameters changed": {
			current:    []Participant{{ID: 1, Code: "a"}},
			fetched:    []Participant{{ID: 1, Code: "a", Parameters: map[string]string{"k": "v"}}},
			expChanged: []int{1},
		},
		"removed": {
			current:    participants(map[int]string{1: "a", 2: "b", 3: "c"}),
			fetched:    participants(map[int]string{1: "a", 3: "c"}),
			expRemoved: []int{2},
		},
		"everything at once": {
			current:    participants(map[int]string{1: "a", 2: "b", 3: "c"}),
			fetched:    participants(map[int]string{1: "x", 3: "c", 4: "d"}),
			expAdded:   []int{4},
			expRemoved: []int{2},
			expChanged: []int{1},
		},
		"duplicate id first wins": {
			fetched:  []Participant{{ID: 1, Code: "first"}, {ID: 1, Code: "second"}},
			expAdded: []int{1},
		},
		"all removed": {
			current:    participants(map[int]string{1: "a"}),
			expRemoved: []int{1},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			d := Compute(tt.current, tt.fetched)

			if !reflect.DeepEqual(ids(d.Added), tt.expAdded) {
				t.Errorf("added: got %v, expected %v", ids(d.Added), tt.expAdded)
			}
			if !reflect.DeepEqual(d.Removed, tt.expRemoved) {
				t.Errorf("removed: got %v, expected %v", d.Removed, tt.expRemoved)
			}
			if !reflect.DeepEqual(ids(d.Changed), tt.expChanged) {
				t.Errorf("changed: got %v, expected %v", ids(d.Changed), tt.expChanged)
			}
			testutil.AssertEqual(t, "empty", d.Empty(), tt.expAdded == nil && tt.expRemoved == nil && tt.expChanged == nil)
		})
	}
}

func TestCompute_DuplicateKeepsFirst(t *testing.T) {
	d := Compute(nil, []Participant{{ID: 1, Code: "first"}, {ID: 1, Code: "second"}})

	testutil.AssertEqual(t, "code", d.Added[0].Code, "first")
}

func TestCompute_Idempotent(t *testing.T) {
	fetched := participants(map[int]string{1: "a", 2: "b"})

	first := Compute(nil, fetched)
	second := Compute(first.Added, fetched)

	testutil.AssertEqual(t, "second diff empty", second.Empty(), true)
}
