package game

import "time"

const (
	StatusWaitingForPlayers = "waiting_for_players"
	StatusInProgress        = "in_progress"
	StatusLegComplete       = "leg_complete"
	StatusSetComplete       = "set_complete"
	StatusFinished          = "finished"
)

// Throw is one recorded visit. Append-only; never mutated once recorded.
type Throw struct {
	PlayerID        string    `json:"playerId"`
	Score           int       `json:"score"`
	Darts           int       `json:"darts"`
	FirstDartDouble bool      `json:"firstDartDouble"`
	LastDartDouble  bool      `json:"lastDartDouble"`
	Set             int       `json:"set"`
	Leg             int       `json:"leg"`
	Sequence        int       `json:"sequence"`
	Bust            bool      `json:"bust"`
	CreatedAt       time.Time `json:"createdAt"`
}

// PlayerState is one player's tally within a game. Players are identified by
// permanent id only; transport identity lives in the connection registry.
type PlayerState struct {
	PlayerID  string `json:"playerId"`
	Remaining int    `json:"remaining"`
	LegsWon   int    `json:"legsWon"`
	SetsWon   int    `json:"setsWon"`
	Opened    bool   `json:"opened"`
}

// GameState is the authoritative record of one X01 game. Seat 0 is the
// first-queued player, who throws first in the opening leg.
type GameState struct {
	ID               string          `json:"id"`
	Settings         Settings        `json:"settings"`
	Status           string          `json:"status"`
	Players          [2]*PlayerState `json:"players"`
	CurrentSet       int             `json:"currentSet"`
	CurrentLeg       int             `json:"currentLeg"`
	ThrowingPlayerID string          `json:"throwingPlayerId"`
	WinnerID         string          `json:"winnerId,omitempty"`
	History          []Throw         `json:"-"`
	Version          int64           `json:"-"`
	CreatedAt        time.Time       `json:"createdAt"`
}

// VisitOutcome reports what an accepted visit did beyond the raw scoring
// result. Marker is the lifecycle stage the visit reached
// (leg_complete/set_complete/finished), or empty for a plain turn.
type VisitOutcome struct {
	Result      VisitResult
	Marker      string
	LegWinnerID string
}

func NewGameState(id string, settings Settings, firstPlayerID, secondPlayerID string) *GameState {
	return &GameState{
		ID:       id,
		Settings: settings,
		Status:   StatusInProgress,
		Players: [2]*PlayerState{
			{PlayerID: firstPlayerID, Remaining: settings.StartingScore},
			{PlayerID: secondPlayerID, Remaining: settings.StartingScore},
		},
		ThrowingPlayerID: firstPlayerID,
		CreatedAt:        time.Now().UTC(),
	}
}

func (g *GameState) Player(playerID string) *PlayerState {
	for _, p := range g.Players {
		if p.PlayerID == playerID {
			return p
		}
	}
	return nil
}

func (g *GameState) Opponent(playerID string) *PlayerState {
	for _, p := range g.Players {
		if p.PlayerID != playerID {
			return p
		}
	}
	return nil
}

// Clone deep-copies the state so a transition can be evaluated and persisted
// before it replaces the live copy. History shares the backing array up to
// len; appends in the clone never reach the original.
func (g *GameState) Clone() *GameState {
	next := *g
	for i, p := range g.Players {
		cp := *p
		next.Players[i] = &cp
	}
	next.History = g.History[:len(g.History):len(g.History)]
	return &next
}

// ApplyVisit validates and applies one visit. On any error the state is
// unchanged. The history entry is appended before any tally is touched so
// the record stays reconstructable independent of the derived counters.
func (g *GameState) ApplyVisit(playerID string, v Visit) (*VisitOutcome, error) {
	switch g.Status {
	case StatusFinished:
		return nil, ErrGameFinished
	case StatusWaitingForPlayers:
		return nil, ErrGameNotStarted
	}

	p := g.Player(playerID)
	if p == nil {
		return nil, ErrPlayerNotInGame
	}
	if playerID != g.ThrowingPlayerID {
		return nil, ErrNotYourTurn
	}

	res, err := ScoreVisit(LegState{Remaining: p.Remaining, Opened: p.Opened}, v, g.Settings)
	if err != nil {
		return nil, err
	}

	g.History = append(g.History, Throw{
		PlayerID:        playerID,
		Score:           v.Score,
		Darts:           v.Darts,
		FirstDartDouble: v.FirstDartDouble,
		LastDartDouble:  v.LastDartDouble,
		Set:             g.CurrentSet,
		Leg:             g.CurrentLeg,
		Sequence:        len(g.History),
		Bust:            res.Bust,
		CreatedAt:       time.Now().UTC(),
	})

	p.Remaining = res.Remaining
	p.Opened = res.Opened

	outcome := &VisitOutcome{Result: res}
	if !res.Checkout {
		g.ThrowingPlayerID = g.Opponent(playerID).PlayerID
		return outcome, nil
	}

	// Checkout: the leg is won. The loser throws first in the next leg.
	outcome.LegWinnerID = playerID
	loserID := g.Opponent(playerID).PlayerID

	p.LegsWon++
	if p.LegsWon < g.Settings.Legs {
		outcome.Marker = StatusLegComplete
		g.startNextLeg(loserID, false)
		return outcome, nil
	}

	p.SetsWon++
	if p.SetsWon == g.Settings.Sets {
		outcome.Marker = StatusFinished
		g.Status = StatusFinished
		g.WinnerID = playerID
		return outcome, nil
	}

	outcome.Marker = StatusSetComplete
	g.startNextLeg(loserID, true)
	return outcome, nil
}

// startNextLeg resets per-leg state and advances the leg/set counters. The
// stored status goes straight back to in_progress; the completed-leg marker
// travels in the VisitOutcome, never in persisted state, so no later event
// has to restart a leg.
func (g *GameState) startNextLeg(firstThrowerID string, newSet bool) {
	if newSet {
		g.CurrentSet++
		g.CurrentLeg = 0
		for _, p := range g.Players {
			p.LegsWon = 0
		}
	} else {
		g.CurrentLeg++
	}
	for _, p := range g.Players {
		p.Remaining = g.Settings.StartingScore
		p.Opened = false
	}
	g.Status = StatusInProgress
	g.ThrowingPlayerID = firstThrowerID
}
