package world

// CellType is the display code of a cell in a snapshot layout.
type CellType int

const (
	CellOpen     CellType = 0
	CellObstacle CellType = 1
	CellScore    CellType = 2
)

type PickupKind string

const (
	PickupHealth PickupKind = "health"
)

// Pickup is an item lying on a cell, consumed by the first avatar to enter it.
type Pickup struct {
	Kind  PickupKind `json:"type" yaml:"type"`
	Value int        `json:"value" yaml:"value"`
}

type Cell struct {
	Location       Location
	Habitable      bool
	GeneratesScore bool
	Pickup         *Pickup
}

// Type maps the cell to its layout code.
func (c *Cell) Type() CellType {
	if !c.Habitable {
		return CellObstacle
	}
	if c.GeneratesScore {
		return CellScore
	}
	return CellOpen
}
