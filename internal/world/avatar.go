package world

const (
	DefaultHealth = 5
	MaxHealth     = 10
	AttackDamage  = 1
)

// Avatar is a participant's in-world body.
type Avatar struct {
	PlayerID    int
	Location    Location
	Health      int
	Score       int
	Orientation Direction
}

func newAvatar(playerID int, loc Location) *Avatar {
	return &Avatar{
		PlayerID:    playerID,
		Location:    loc,
		Health:      DefaultHealth,
		Orientation: North,
	}
}

func (a *Avatar) heal(amount int) {
	a.Health += amount
	if a.Health > MaxHealth {
		a.Health = MaxHealth
	}
}
