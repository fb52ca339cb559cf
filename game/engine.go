package game

import (
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"darts/store"
)

var (
	ErrInvalidSettings = errors.New("sets, legs and starting score must be valid")
	ErrNotYourTurn     = errors.New("not your turn")
	ErrGameNotFound    = errors.New("game not found")
	ErrGameFinished    = errors.New("game already finished")
	ErrGameNotStarted  = errors.New("game not started")
	ErrAlreadyQueued   = errors.New("already waiting in the queue")
	ErrInvalidThrow    = errors.New("throw value out of range")
	ErrPlayerNotInGame = errors.New("player is not in this game")
)

// ErrorCode maps an engine error to the stable code sent to clients.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrInvalidSettings):
		return "invalid_settings"
	case errors.Is(err, ErrNotYourTurn):
		return "not_your_turn"
	case errors.Is(err, ErrGameNotFound):
		return "game_not_found"
	case errors.Is(err, ErrGameFinished):
		return "game_already_finished"
	case errors.Is(err, ErrGameNotStarted):
		return "game_not_started"
	case errors.Is(err, ErrAlreadyQueued):
		return "duplicate_queue_entry"
	case errors.Is(err, ErrInvalidThrow):
		return "invalid_throw"
	case errors.Is(err, ErrPlayerNotInGame):
		return "not_in_game"
	default:
		return "internal"
	}
}

// Engine is the match orchestrator: it sequences the queue, the scoring
// rules and the state machine per inbound event, persists every accepted
// transition, and returns the broadcasts the transport should deliver. It
// holds the live copy of each game; the store is a mirror, never the
// authority for in-flight decisions.
type Engine struct {
	store store.Store
	queue *Queue
	log   zerolog.Logger

	mu    sync.Mutex
	games map[string]*gameSlot
}

// gameSlot serializes all transitions for one game. Combined with the
// versioned store write this gives at-most-one successful transition per
// game at a time.
type gameSlot struct {
	mu    sync.Mutex
	state *GameState
}

func NewEngine(st store.Store, queue *Queue, logger zerolog.Logger) *Engine {
	return &Engine{
		store: st,
		queue: queue,
		log:   logger,
		games: make(map[string]*gameSlot),
	}
}

func (e *Engine) slot(gameID string) *gameSlot {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.games[gameID]
	if !ok {
		s = &gameSlot{}
		e.games[gameID] = s
	}
	return s
}

// loadLocked returns the live state for a slot, reading through to the
// store on a cold cache. Caller holds the slot lock.
func (e *Engine) loadLocked(s *gameSlot, gameID string) (*GameState, error) {
	if s.state != nil {
		return s.state, nil
	}
	rec, err := e.store.GetGame(gameID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, ErrGameNotFound
	}
	throws, err := e.store.ListThrows(gameID)
	if err != nil {
		return nil, err
	}
	s.state = stateFromRecord(rec, throws)
	return s.state, nil
}

// JoinQueue binds the player into matchmaking. If an opponent with equal
// settings is waiting, the game starts immediately and both players are
// told; otherwise only the joiner hears back.
func (e *Engine) JoinQueue(playerID string, s Settings) ([]Broadcast, error) {
	g, position, err := e.queue.Join(playerID, s)
	if err != nil {
		return nil, err
	}

	if g == nil {
		return []Broadcast{{
			PlayerID: playerID,
			Event:    Event{Type: EventQueueJoined, Payload: QueueJoinedPayload{Settings: s, Position: position}},
		}}, nil
	}

	slot := e.slot(g.ID)
	slot.mu.Lock()
	slot.state = g
	slot.mu.Unlock()

	broadcasts := make([]Broadcast, 0, 2)
	for _, p := range g.Players {
		broadcasts = append(broadcasts, Broadcast{
			PlayerID: p.PlayerID,
			Event:    Event{Type: EventGameCreated, GameID: g.ID, Payload: GameCreatedPayload{Game: g}},
		})
	}
	return broadcasts, nil
}

// LeaveQueue removes the player's pending entry, if any.
func (e *Engine) LeaveQueue(playerID string) ([]Broadcast, error) {
	left, err := e.queue.Leave(playerID)
	if err != nil {
		return nil, err
	}
	if !left {
		return nil, nil
	}
	return []Broadcast{{PlayerID: playerID, Event: Event{Type: EventQueueLeft}}}, nil
}

// Throw validates and applies one visit. The transition is evaluated on a
// copy and persisted with compare-and-swap before the live state advances,
// so a failed write leaves neither memory nor store half-applied.
func (e *Engine) Throw(gameID, playerID string, v Visit) ([]Broadcast, error) {
	slot := e.slot(gameID)
	slot.mu.Lock()
	defer slot.mu.Unlock()

	current, err := e.loadLocked(slot, gameID)
	if err != nil {
		return nil, err
	}

	next := current.Clone()
	outcome, err := next.ApplyVisit(playerID, v)
	if err != nil {
		return nil, err
	}

	lastThrow := next.History[len(next.History)-1]
	if err := e.store.UpdateGame(recordFromState(next), recordFromThrow(gameID, lastThrow), current.Version); err != nil {
		return nil, err
	}
	next.Version = current.Version + 1
	slot.state = next

	scored := current.Player(playerID).Remaining - next.Player(playerID).Remaining
	if outcome.Result.Checkout {
		scored = current.Player(playerID).Remaining
	}
	e.updateAverage(playerID, scored)

	e.log.Debug().
		Str("game_id", gameID).
		Str("player_id", playerID).
		Int("score", v.Score).
		Bool("bust", outcome.Result.Bust).
		Bool("checkout", outcome.Result.Checkout).
		Msg("visit applied")

	return e.throwBroadcasts(next, outcome, lastThrow), nil
}

func (e *Engine) throwBroadcasts(g *GameState, outcome *VisitOutcome, lastThrow Throw) []Broadcast {
	var broadcasts []Broadcast
	for _, p := range g.Players {
		broadcasts = append(broadcasts, Broadcast{
			PlayerID: p.PlayerID,
			Event: Event{
				Type:    EventGameState,
				GameID:  g.ID,
				Payload: GameStatePayload{Game: g, LastThrow: &lastThrow},
			},
		})
	}

	var extra *Event
	switch outcome.Marker {
	case StatusLegComplete:
		extra = &Event{Type: EventLegComplete, GameID: g.ID, Payload: LegCompletePayload{
			WinnerID: outcome.LegWinnerID, Set: lastThrow.Set, Leg: lastThrow.Leg,
		}}
	case StatusSetComplete:
		extra = &Event{Type: EventSetComplete, GameID: g.ID, Payload: SetCompletePayload{
			WinnerID: outcome.LegWinnerID, Set: lastThrow.Set,
		}}
	case StatusFinished:
		extra = &Event{Type: EventGameFinished, GameID: g.ID, Payload: GameFinishedPayload{
			WinnerID: g.WinnerID,
		}}
	}
	if extra != nil {
		for _, p := range g.Players {
			broadcasts = append(broadcasts, Broadcast{PlayerID: p.PlayerID, Event: *extra})
		}
	}
	return broadcasts
}

// updateAverage folds one visit's effective score into the player's running
// three-dart average. Best effort: a failed write never rejects the throw.
func (e *Engine) updateAverage(playerID string, scored int) {
	user, err := e.store.GetUserByID(playerID)
	if err != nil || user == nil {
		e.log.Warn().Err(err).Str("player_id", playerID).Msg("failed to load user for average")
		return
	}
	visits := user.VisitCount + 1
	average := (user.AverageScore*float64(user.VisitCount) + float64(scored)) / float64(visits)
	if err := e.store.UpdateUserAverage(playerID, average, visits); err != nil {
		e.log.Warn().Err(err).Str("player_id", playerID).Msg("failed to update average")
	}
}

// Disconnect reacts to a transport-level connection loss. Game state is
// connection-agnostic so nothing is forfeited or deleted; opponents in
// active games are notified so the UI can show the empty chair.
func (e *Engine) Disconnect(playerID string) ([]Broadcast, error) {
	return e.connectionBroadcasts(playerID, false)
}

// Reconnect pushes the player's active games to the fresh connection so a
// new device catches up, and tells opponents the player is back.
func (e *Engine) Reconnect(playerID string) ([]Broadcast, error) {
	broadcasts, err := e.connectionBroadcasts(playerID, true)
	if err != nil {
		return nil, err
	}

	ids, err := e.store.ListActiveGameIDsForPlayer(playerID)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		g, err := e.Snapshot(id)
		if err != nil {
			e.log.Warn().Err(err).Str("game_id", id).Msg("failed to snapshot game for resync")
			continue
		}
		broadcasts = append(broadcasts, Broadcast{
			PlayerID: playerID,
			Event:    Event{Type: EventGameState, GameID: g.ID, Payload: GameStatePayload{Game: g}},
		})
	}
	return broadcasts, nil
}

func (e *Engine) connectionBroadcasts(playerID string, connected bool) ([]Broadcast, error) {
	ids, err := e.store.ListActiveGameIDsForPlayer(playerID)
	if err != nil {
		return nil, err
	}

	var broadcasts []Broadcast
	for _, id := range ids {
		g, err := e.Snapshot(id)
		if err != nil {
			continue
		}
		opponent := g.Opponent(playerID)
		if opponent == nil {
			continue
		}
		broadcasts = append(broadcasts, Broadcast{
			PlayerID: opponent.PlayerID,
			Event: Event{
				Type:    EventOpponentConnection,
				GameID:  g.ID,
				Payload: OpponentConnectionPayload{PlayerID: playerID, Connected: connected},
			},
		})
	}
	return broadcasts, nil
}

// Snapshot returns an isolated copy of a game's current state.
func (e *Engine) Snapshot(gameID string) (*GameState, error) {
	slot := e.slot(gameID)
	slot.mu.Lock()
	defer slot.mu.Unlock()

	g, err := e.loadLocked(slot, gameID)
	if err != nil {
		return nil, err
	}
	return g.Clone(), nil
}
