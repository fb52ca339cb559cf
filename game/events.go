package game

// Event types pushed to clients.
const (
	EventQueueJoined        = "queue_joined"
	EventQueueLeft          = "queue_left"
	EventGameCreated        = "game_created"
	EventGameState          = "game_state"
	EventLegComplete        = "leg_complete"
	EventSetComplete        = "set_complete"
	EventGameFinished       = "game_finished"
	EventOpponentConnection = "opponent_connection"
)

// Event is an outbound message produced by the engine.
type Event struct {
	Type    string      `json:"type"`
	GameID  string      `json:"gameId,omitempty"`
	Payload interface{} `json:"payload"`
}

// Broadcast addresses an event to a player. The transport resolves the
// player's current connection at send time; events never carry connection
// ids, which would be stale by the time they are delivered.
type Broadcast struct {
	PlayerID string
	Event    Event
}

type QueueJoinedPayload struct {
	Settings Settings `json:"settings"`
	Position int      `json:"position"`
}

type GameCreatedPayload struct {
	Game *GameState `json:"game"`
}

type GameStatePayload struct {
	Game      *GameState `json:"game"`
	LastThrow *Throw     `json:"lastThrow,omitempty"`
}

type LegCompletePayload struct {
	WinnerID string `json:"winnerId"`
	Set      int    `json:"set"`
	Leg      int    `json:"leg"`
}

type SetCompletePayload struct {
	WinnerID string `json:"winnerId"`
	Set      int    `json:"set"`
}

type GameFinishedPayload struct {
	WinnerID string `json:"winnerId"`
}

type OpponentConnectionPayload struct {
	PlayerID  string `json:"playerId"`
	Connected bool   `json:"connected"`
}
