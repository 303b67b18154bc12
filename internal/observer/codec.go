package observer

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/gorilla/websocket"
	"github.com/pixil98/go-gridgame/internal/world"
	"github.com/vmihailenco/msgpack/v5"
)

type Format string

const (
	FormatJSON    Format = "json"
	FormatMsgpack Format = "msgpack"
)

func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "", FormatJSON:
		return FormatJSON, nil
	case FormatMsgpack:
		return FormatMsgpack, nil
	default:
		return "", fmt.Errorf("unknown format %q", s)
	}
}

const (
	MessageInit   = "init"
	MessageUpdate = "update"
)

// Message is one frame on the websocket.
type Message struct {
	Type  string          `json:"type"`
	World *world.Snapshot `json:"world"`
}

// Encode returns the frame and the websocket message type to send it as.
// Msgpack frames reuse the json field names.
func Encode(f Format, m Message) ([]byte, int, error) {
	switch f {
	case FormatMsgpack:
		var buf bytes.Buffer
		enc := msgpack.NewEncoder(&buf)
		enc.SetCustomStructTag("json")
		if err := enc.Encode(&m); err != nil {
			return nil, 0, err
		}
		return buf.Bytes(), websocket.BinaryMessage, nil
	default:
		data, err := json.Marshal(m)
		return data, websocket.TextMessage, err
	}
}

func Decode(f Format, data []byte) (Message, error) {
	var m Message
	switch f {
	case FormatMsgpack:
		dec := msgpack.NewDecoder(bytes.NewReader(data))
		dec.SetCustomStructTag("json")
		if err := dec.Decode(&m); err != nil {
			return m, err
		}
	default:
		if err := json.Unmarshal(data, &m); err != nil {
			return m, err
		}
	}
	return m, nil
}
