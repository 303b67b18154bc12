// Package display draws world snapshots as plain text for terminal
// spectators.
package display

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pixil98/go-gridgame/internal/world"
)

const (
	glyphOpen     = '.'
	glyphObstacle = '#'
	glyphScore    = '*'
	glyphPickup   = '+'
)

const playerGlyphs = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// PlayerGlyph is the character that marks the player's avatar on the map.
func PlayerGlyph(id int) byte {
	if id < 0 {
		id = -id
	}
	return playerGlyphs[id%len(playerGlyphs)]
}

// Map draws the grid with north at the top.
func Map(s *world.Snapshot) []string {
	pickups := make(map[world.Coord]bool, len(s.Pickups))
	for _, p := range s.Pickups {
		pickups[p.Location] = true
	}
	avatars := make(map[world.Coord]int, len(s.Players))
	for id, p := range s.Players {
		avatars[world.Coord{p.X, p.Y}] = id
	}

	lines := make([]string, 0, s.Height+2)
	border := "+" + strings.Repeat("-", s.Width) + "+"
	lines = append(lines, border)
	for y := s.MaxY; y >= s.MinY; y-- {
		var b strings.Builder
		b.WriteByte('|')
		for x := s.MinX; x <= s.MaxX; x++ {
			c := world.Coord{x, y}
			if id, ok := avatars[c]; ok {
				b.WriteByte(PlayerGlyph(id))
				continue
			}
			if pickups[c] {
				b.WriteByte(glyphPickup)
				continue
			}
			switch s.CellAt(x, y) {
			case world.CellObstacle:
				b.WriteByte(glyphObstacle)
			case world.CellScore:
				b.WriteByte(glyphScore)
			default:
				b.WriteByte(glyphOpen)
			}
		}
		b.WriteByte('|')
		lines = append(lines, b.String())
	}
	lines = append(lines, border)
	return lines
}

// Scoreboard lists players by score, highest first. Ties go to the lower id.
func Scoreboard(s *world.Snapshot) []string {
	ids := s.PlayerIDs()
	sort.SliceStable(ids, func(i, j int) bool {
		return s.Players[ids[i]].Score > s.Players[ids[j]].Score
	})

	lines := make([]string, 0, len(ids))
	for _, id := range ids {
		p := s.Players[id]
		marker := " "
		if s.MainAvatar != nil && *s.MainAvatar == id {
			marker = ">"
		}
		lines = append(lines, fmt.Sprintf("%s%c player %-4d score %-4d health %d", marker, PlayerGlyph(id), id, p.Score, p.Health))
	}
	return lines
}

// Legend explains the map glyphs, wrapped to width.
func Legend(width int) string {
	entries := []string{
		fmt.Sprintf("%c %s", glyphOpen, Title("open")),
		fmt.Sprintf("%c %s", glyphObstacle, Title("obstacle")),
		fmt.Sprintf("%c %s", glyphScore, Title("score cell")),
		fmt.Sprintf("%c %s", glyphPickup, Title(string(world.PickupHealth)+" pickup")),
	}
	return Wrap(strings.Join(entries, "   "), width)
}

// Frame is a full screen: header, map, scoreboard and legend, each line
// clipped to width.
func Frame(s *world.Snapshot, width int) string {
	if width < 1 {
		width = DefaultWidth
	}

	var lines []string
	lines = append(lines, fmt.Sprintf("Turn %d  players %d", s.Turn, len(s.Players)))
	lines = append(lines, Map(s)...)
	lines = append(lines, "")
	lines = append(lines, Scoreboard(s)...)
	lines = append(lines, "")
	lines = append(lines, strings.Split(Legend(width), "\n")...)

	for i, l := range lines {
		lines[i] = Clip(l, width)
	}
	return strings.Join(lines, "\n") + "\n"
}
