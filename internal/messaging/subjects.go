package messaging

import "fmt"

// Subjects builds the bus subjects of one game.
type Subjects struct {
	Prefix string
	GameID string
}

// Snapshot carries every published snapshot.
func (s Subjects) Snapshot() string {
	return fmt.Sprintf("%s.%s.snapshot", s.Prefix, s.GameID)
}

// Logs carries one player's log after each turn.
func (s Subjects) Logs(playerID int) string {
	return fmt.Sprintf("%s.%s.logs.%d", s.Prefix, s.GameID, playerID)
}

// AllLogs matches every player's log subject.
func (s Subjects) AllLogs() string {
	return fmt.Sprintf("%s.%s.logs.*", s.Prefix, s.GameID)
}
