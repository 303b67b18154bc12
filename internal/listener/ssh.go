package listener

import (
	"context"
	"fmt"
	"log/slog"
	"net"

	"github.com/pixil98/go-gridgame/internal/display"
	"golang.org/x/crypto/ssh"
)

// SshListener serves spectator sessions over ssh without authentication.
// The board is drawn at the width the client's pty reports.
type SshListener struct {
	port     uint16
	sessions *SessionManager
	config   *ssh.ServerConfig
}

func NewSshListener(port uint16, sessions *SessionManager, hostKey ssh.Signer) *SshListener {
	config := &ssh.ServerConfig{NoClientAuth: true}
	config.AddHostKey(hostKey)
	return &SshListener{port: port, sessions: sessions, config: config}
}

func (l *SshListener) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", l.port))
	if err != nil {
		return fmt.Errorf("listening on port %d: %w", l.port, err)
	}
	slog.InfoContext(ctx, "listening for ssh spectators", "port", l.port)

	group := newSessionGroup(ctx)
	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				group.stop()
				return nil
			}
			slog.WarnContext(ctx, "accepting ssh connection", "error", err)
			continue
		}
		group.spawn(func(ctx context.Context) {
			l.serveConn(ctx, conn)
		})
	}
}

func (l *SshListener) serveConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	sshConn, chans, reqs, err := ssh.NewServerConn(conn, l.config)
	if err != nil {
		slog.WarnContext(ctx, "ssh handshake", "remote", conn.RemoteAddr(), "error", err)
		return
	}
	defer sshConn.Close()
	slog.InfoContext(ctx, "ssh spectator connected", "remote", conn.RemoteAddr())

	// Closing the connection ends the channel loop below.
	stop := context.AfterFunc(ctx, func() { sshConn.Close() })
	defer stop()

	go ssh.DiscardRequests(reqs)

	for newChan := range chans {
		if newChan.ChannelType() != "session" {
			newChan.Reject(ssh.UnknownChannelType, "spectators only open sessions")
			continue
		}
		ch, requests, err := newChan.Accept()
		if err != nil {
			slog.WarnContext(ctx, "accepting ssh channel", "error", err)
			continue
		}

		if width, ok := awaitShell(ctx, requests); ok {
			l.sessions.AcceptConnection(ctx, ch, width)
		}
		ch.Close()
	}
}

// ptyRequest is the payload of a "pty-req" channel request (RFC 4254 6.2).
type ptyRequest struct {
	Term    string
	Columns uint32
	Rows    uint32
	Width   uint32
	Height  uint32
	Modes   string
}

// awaitShell answers channel requests until the client asks for a shell and
// returns the terminal width from its pty request, if any. Clients forward
// nothing before the shell reply. Later requests are still answered.
func awaitShell(ctx context.Context, in <-chan *ssh.Request) (int, bool) {
	ready := make(chan int, 1)
	go func() {
		width := display.DefaultWidth
		for req := range in {
			switch req.Type {
			case "pty-req":
				var pty ptyRequest
				if err := ssh.Unmarshal(req.Payload, &pty); err == nil && pty.Columns > 0 {
					width = int(pty.Columns)
				}
				req.Reply(true, nil)
			case "shell":
				req.Reply(true, nil)
				select {
				case ready <- width:
				default:
				}
			default:
				req.Reply(false, nil)
			}
		}
	}()

	select {
	case width := <-ready:
		return width, true
	case <-ctx.Done():
		return 0, false
	}
}
