package listener

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"syscall"

	"github.com/iammegalith/telnet"
	"github.com/pixil98/go-gridgame/internal/display"
)

// TelnetListener serves spectator sessions over telnet. Telnet has no window
// size negotiation here, so sessions start at the default width.
type TelnetListener struct {
	port     uint16
	sessions *SessionManager
}

func NewTelnetListener(port uint16, sessions *SessionManager) *TelnetListener {
	return &TelnetListener{port: port, sessions: sessions}
}

func (l *TelnetListener) Start(ctx context.Context) error {
	h := &telnetHandler{sessions: l.sessions, group: newSessionGroup(ctx)}
	svr := telnet.NewServer(fmt.Sprintf(":%d", l.port), h)

	returned := make(chan struct{})
	defer close(returned)
	go func() {
		select {
		case <-ctx.Done():
			svr.Stop()
			h.group.stop()
		case <-returned:
		}
	}()

	slog.InfoContext(ctx, "listening for telnet spectators", "port", l.port)

	switch err := svr.ListenAndServe(); {
	case err == nil:
		return nil
	case errors.Is(err, syscall.EADDRINUSE):
		return fmt.Errorf("port %d is already in use (another server running?)", l.port)
	default:
		return fmt.Errorf("serving telnet on port %d: %w", l.port, err)
	}
}

type telnetHandler struct {
	sessions *SessionManager
	group    *sessionGroup
}

func (h *telnetHandler) HandleTelnet(conn *telnet.Connection) {
	h.group.run(func(ctx context.Context) {
		slog.InfoContext(ctx, "telnet spectator connected", "sessions", h.group.sessions())
		h.sessions.AcceptConnection(ctx, conn, display.DefaultWidth)
		if err := conn.Close(); err != nil {
			slog.WarnContext(ctx, "closing telnet connection", "error", err)
		}
	})
}
