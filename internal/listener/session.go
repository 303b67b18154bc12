package listener

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/pixil98/go-gridgame/internal/display"
	"github.com/pixil98/go-gridgame/internal/world"
)

const DefaultRefresh = 250 * time.Millisecond

type snapshotSource interface {
	GetUpdate() *world.Snapshot
}

// SessionManager runs spectator sessions: each connection gets the map
// redrawn whenever a new turn is published.
type SessionManager struct {
	feed    snapshotSource
	refresh time.Duration
}

func NewSessionManager(feed snapshotSource, refresh time.Duration) *SessionManager {
	if refresh <= 0 {
		refresh = DefaultRefresh
	}
	return &SessionManager{feed: feed, refresh: refresh}
}

func (m *SessionManager) AcceptConnection(ctx context.Context, conn io.ReadWriter, width int) {
	if err := m.RunSession(ctx, conn, width); err != nil {
		slog.WarnContext(ctx, "spectator session", "error", err)
	}
}

const helpText = `Commands:
  width <n>   set the screen width
  redraw      draw the current turn again
  help        show this text
  quit        leave
`

// RunSession serves one spectator until they quit, disconnect or ctx ends.
func (m *SessionManager) RunSession(ctx context.Context, conn io.ReadWriter, width int) error {
	term := newTerminal(conn)
	if width < 1 {
		width = display.DefaultWidth
	}

	if err := term.writeString("Welcome, spectator. Type help for commands.\n"); err != nil {
		return err
	}

	input := make(chan string)
	readErr := make(chan error, 1)
	done := make(chan struct{})
	defer close(done)
	go func() { readErr <- term.lines(input, done) }()

	ticker := time.NewTicker(m.refresh)
	defer ticker.Stop()

	var lastTurn uint64
	drawn := false
	draw := func() error {
		s := m.feed.GetUpdate()
		if s == nil {
			return nil
		}
		lastTurn, drawn = s.Turn, true
		return term.redraw(display.Frame(s, width))
	}

	if err := draw(); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if s := m.feed.GetUpdate(); s != nil && (!drawn || s.Turn != lastTurn) {
				if err := draw(); err != nil {
					return err
				}
			}
		case line, ok := <-input:
			if !ok {
				return <-readErr
			}
			quit, err := m.command(term, line, &width, draw)
			if err != nil || quit {
				return err
			}
		}
	}
}

func (m *SessionManager) command(term *terminal, line string, width *int, draw func() error) (bool, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}

	switch strings.ToLower(fields[0]) {
	case "quit", "q", "exit":
		return true, term.writeString("Goodbye.\n")
	case "help", "?":
		return false, term.writeString(helpText)
	case "redraw":
		return false, draw()
	case "width":
		if len(fields) != 2 {
			return false, term.writeString("usage: width <n>\n")
		}
		n, err := strconv.Atoi(fields[1])
		if err != nil || n < 10 {
			return false, term.writeString("width must be a number of at least 10\n")
		}
		*width = n
		return false, draw()
	default:
		return false, term.writeString(fmt.Sprintf("unknown command %q, type help\n", fields[0]))
	}
}
