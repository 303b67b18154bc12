package main

import (
	"context"
	"fmt"
	"net/url"

	"github.com/gorilla/websocket"
	"github.com/pixil98/go-gridgame/internal/observer"
	"github.com/pixil98/go-gridgame/internal/world"
)

func streamURL(addr string, f observer.Format) string {
	u := url.URL{Scheme: "ws", Host: addr, Path: "/ws"}
	if f != observer.FormatJSON {
		u.RawQuery = url.Values{"format": {string(f)}}.Encode()
	}
	return u.String()
}

// stream dials the observer and hands every snapshot to fn until ctx is
// cancelled or the server goes away.
func stream(ctx context.Context, target string, f observer.Format, fn func(*world.Snapshot)) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, target, nil)
	if err != nil {
		return fmt.Errorf("dialing %s: %w", target, err)
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		_ = conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("reading: %w", err)
		}

		m, err := observer.Decode(f, data)
		if err != nil {
			return fmt.Errorf("decoding %s frame: %w", f, err)
		}
		if m.World != nil {
			fn(m.World)
		}
	}
}
