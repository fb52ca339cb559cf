package ws

import (
	"encoding/json"

	"darts/game"
)

type IncomingMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type JoinQueuePayload struct {
	Settings game.Settings `json:"settings"`
}

type ThrowPayload struct {
	GameID string     `json:"gameId"`
	Visit  game.Visit `json:"visit"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
