package observer

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pixil98/go-gridgame/internal/world"
)

const (
	writeWait  = 5 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	sendBuffer = 8
)

type frame struct {
	kind int
	data []byte
}

type client struct {
	conn   *websocket.Conn
	remote string
	format Format
	send   chan frame
	once   sync.Once
}

func (c *client) close() {
	c.once.Do(func() { close(c.send) })
}

// Hub pushes every published snapshot to connected websocket clients. A
// client that cannot keep up is disconnected rather than slowing the others.
type Hub struct {
	feed     *Feed
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
}

func NewHub(feed *Feed) *Hub {
	return &Hub{
		feed: feed,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients: map[*client]struct{}{},
	}
}

// Clients reports how many websockets are connected.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) Publish(ctx context.Context, s *world.Snapshot) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	encoded := map[Format]frame{}
	for c := range h.clients {
		f, ok := encoded[c.format]
		if !ok {
			data, kind, err := Encode(c.format, Message{Type: MessageUpdate, World: s})
			if err != nil {
				return err
			}
			f = frame{kind: kind, data: data}
			encoded[c.format] = f
		}

		select {
		case c.send <- f:
		default:
			slog.WarnContext(ctx, "observer too slow, disconnecting", "remote", c.remote)
			delete(h.clients, c)
			c.close()
		}
	}
	return nil
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		c.close()
	}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		c.close()
	}
}

// ServeHTTP upgrades the request and streams snapshots until the client goes
// away. The format query parameter selects json (default) or msgpack.
func (h *Hub) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	format, err := ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		http.Error(rw, err.Error(), http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(rw, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	c := &client{conn: conn, remote: r.RemoteAddr, format: format, send: make(chan frame, sendBuffer)}

	data, kind, err := Encode(format, Message{Type: MessageInit, World: h.feed.GetInit()})
	if err != nil {
		slog.ErrorContext(r.Context(), "encoding initial state", "error", err)
		return
	}
	c.send <- frame{kind: kind, data: data}
	h.register(c)
	defer h.unregister(c)

	slog.InfoContext(r.Context(), "observer connected", "remote", c.remote, "format", format)

	writeDone := make(chan struct{})
	go func() {
		defer close(writeDone)
		h.writeLoop(c)
	}()

	// Nothing is expected from the client; reading keeps pongs and close
	// frames flowing.
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.unregister(c)
	select {
	case <-writeDone:
	case <-time.After(500 * time.Millisecond):
	}
}

func (h *Hub) writeLoop(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case f, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"))
				_ = c.conn.Close()
				return
			}
			if err := c.conn.WriteMessage(f.kind, f.data); err != nil {
				_ = c.conn.Close()
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				_ = c.conn.Close()
				return
			}
		}
	}
}
