package remote

import (
	"errors"
	"fmt"

	"github.com/pixil98/go-gridgame/internal/worker"
)

const DefaultPrefix = "gridworker"

type spawnRequest struct {
	PlayerID   int               `json:"player_id"`
	Code       string            `json:"code"`
	Parameters map[string]string `json:"parameters,omitempty"`
}

type spawnReply struct {
	Instance string `json:"instance,omitempty"`
	Error    string `json:"error,omitempty"`
}

type codeRequest struct {
	Code string `json:"code"`
}

type turnReply struct {
	Turn  worker.Turn `json:"turn"`
	Error string      `json:"error,omitempty"`
}

type ackReply struct {
	Error string `json:"error,omitempty"`
}

// errorOf turns a reply error string back into an error.
func errorOf(s string) error {
	if s == "" {
		return nil
	}
	return errors.New(s)
}

func errorString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func spawnSubject(prefix string) string {
	return prefix + ".spawn"
}

func instanceSubject(prefix, instance, op string) string {
	return fmt.Sprintf("%s.%s.%s", prefix, instance, op)
}
