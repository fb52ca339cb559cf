package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSettings() Settings {
	return Settings{Sets: 3, Legs: 3, StartingScore: 501, DoubleOut: true}
}

func newTestGame(settings Settings) *GameState {
	return NewGameState("game-1", settings, "alice", "bob")
}

// winLeg drives the throwing player to a checkout from wherever they are.
func winLeg(t *testing.T, g *GameState, winner string) *VisitOutcome {
	t.Helper()
	loser := g.Opponent(winner).PlayerID
	for {
		if g.ThrowingPlayerID == loser {
			_, err := g.ApplyVisit(loser, Visit{Score: 0, Darts: 3})
			require.NoError(t, err)
			continue
		}
		remaining := g.Player(winner).Remaining
		if remaining > 170 {
			_, err := g.ApplyVisit(winner, Visit{Score: 140, Darts: 3})
			require.NoError(t, err)
			continue
		}
		outcome, err := g.ApplyVisit(winner, Visit{Score: remaining, Darts: 3, LastDartDouble: true})
		require.NoError(t, err)
		return outcome
	}
}

func TestNewGameState(t *testing.T) {
	g := newTestGame(testSettings())

	assert.Equal(t, StatusInProgress, g.Status)
	assert.Equal(t, "alice", g.ThrowingPlayerID, "first-queued player throws first")
	assert.Equal(t, 501, g.Player("alice").Remaining)
	assert.Equal(t, 501, g.Player("bob").Remaining)
	assert.Empty(t, g.WinnerID)
}

func TestApplyVisitRejectsOutOfTurn(t *testing.T) {
	g := newTestGame(testSettings())

	_, err := g.ApplyVisit("bob", Visit{Score: 100, Darts: 3})
	assert.ErrorIs(t, err, ErrNotYourTurn)
	assert.Equal(t, 501, g.Player("bob").Remaining, "rejected throw must not mutate state")
	assert.Empty(t, g.History)
}

func TestApplyVisitRejectsUnknownPlayer(t *testing.T) {
	g := newTestGame(testSettings())

	_, err := g.ApplyVisit("mallory", Visit{Score: 100, Darts: 3})
	assert.ErrorIs(t, err, ErrPlayerNotInGame)
}

func TestApplyVisitRejectsFinishedGame(t *testing.T) {
	g := newTestGame(Settings{Sets: 1, Legs: 1, StartingScore: 301, DoubleOut: true})
	winLeg(t, g, "alice")
	require.Equal(t, StatusFinished, g.Status)

	_, err := g.ApplyVisit("bob", Visit{Score: 60, Darts: 3})
	assert.ErrorIs(t, err, ErrGameFinished)
}

func TestApplyVisitRejectsWaitingGame(t *testing.T) {
	g := newTestGame(testSettings())
	g.Status = StatusWaitingForPlayers

	_, err := g.ApplyVisit("alice", Visit{Score: 60, Darts: 3})
	assert.ErrorIs(t, err, ErrGameNotStarted)
}

func TestApplyVisitAlternatesTurn(t *testing.T) {
	g := newTestGame(testSettings())

	_, err := g.ApplyVisit("alice", Visit{Score: 60, Darts: 3})
	require.NoError(t, err)
	assert.Equal(t, "bob", g.ThrowingPlayerID)
	assert.Equal(t, 441, g.Player("alice").Remaining)

	_, err = g.ApplyVisit("bob", Visit{Score: 45, Darts: 3})
	require.NoError(t, err)
	assert.Equal(t, "alice", g.ThrowingPlayerID)
}

func TestApplyVisitBustPassesTurnUnchanged(t *testing.T) {
	g := newTestGame(testSettings())
	g.Player("alice").Remaining = 32

	outcome, err := g.ApplyVisit("alice", Visit{Score: 45, Darts: 3})
	require.NoError(t, err)
	assert.True(t, outcome.Result.Bust)
	assert.Equal(t, 32, g.Player("alice").Remaining)
	assert.Equal(t, "bob", g.ThrowingPlayerID)
}

func TestApplyVisitAppendsHistoryBeforeTallies(t *testing.T) {
	g := newTestGame(testSettings())

	_, err := g.ApplyVisit("alice", Visit{Score: 180, Darts: 3})
	require.NoError(t, err)

	require.Len(t, g.History, 1)
	throw := g.History[0]
	assert.Equal(t, "alice", throw.PlayerID)
	assert.Equal(t, 180, throw.Score)
	assert.Equal(t, 0, throw.Sequence)
	assert.Equal(t, 0, throw.Set)
	assert.Equal(t, 0, throw.Leg)
	assert.False(t, throw.Bust)
}

func TestCheckoutWinsLegAndLoserStarts(t *testing.T) {
	g := newTestGame(testSettings())
	g.Player("alice").Remaining = 40

	outcome, err := g.ApplyVisit("alice", Visit{Score: 40, Darts: 1, LastDartDouble: true})
	require.NoError(t, err)

	assert.True(t, outcome.Result.Checkout)
	assert.Equal(t, StatusLegComplete, outcome.Marker)
	assert.Equal(t, "alice", outcome.LegWinnerID)
	assert.Equal(t, 1, g.Player("alice").LegsWon)

	// Next leg: scores reset, loser throws first.
	assert.Equal(t, StatusInProgress, g.Status)
	assert.Equal(t, 1, g.CurrentLeg)
	assert.Equal(t, 501, g.Player("alice").Remaining)
	assert.Equal(t, 501, g.Player("bob").Remaining)
	assert.Equal(t, "bob", g.ThrowingPlayerID)
}

func TestThreeHundredOneCheckoutScenario(t *testing.T) {
	g := NewGameState("g", Settings{Sets: 3, Legs: 3, StartingScore: 301, DoubleOut: true}, "alice", "bob")
	g.Player("alice").Remaining = 40

	outcome, err := g.ApplyVisit("alice", Visit{Score: 40, Darts: 2, LastDartDouble: true})
	require.NoError(t, err)
	assert.True(t, outcome.Result.Checkout)
	assert.Equal(t, 1, g.Player("alice").LegsWon)
}

func TestSetCompletion(t *testing.T) {
	g := newTestGame(Settings{Sets: 3, Legs: 2, StartingScore: 301, DoubleOut: true})

	outcome := winLeg(t, g, "alice")
	assert.Equal(t, StatusLegComplete, outcome.Marker)

	outcome = winLeg(t, g, "alice")
	assert.Equal(t, StatusSetComplete, outcome.Marker)
	assert.Equal(t, 1, g.Player("alice").SetsWon)
	assert.Equal(t, 0, g.Player("alice").LegsWon, "leg tally resets with the new set")
	assert.Equal(t, 1, g.CurrentSet)
	assert.Equal(t, 0, g.CurrentLeg)
	assert.Equal(t, StatusInProgress, g.Status)
}

func TestGameFinishes(t *testing.T) {
	g := newTestGame(Settings{Sets: 2, Legs: 1, StartingScore: 301, DoubleOut: true})

	outcome := winLeg(t, g, "bob")
	assert.Equal(t, StatusSetComplete, outcome.Marker)

	outcome = winLeg(t, g, "bob")
	assert.Equal(t, StatusFinished, outcome.Marker)
	assert.Equal(t, StatusFinished, g.Status)
	assert.Equal(t, "bob", g.WinnerID)
	assert.Equal(t, 2, g.Player("bob").SetsWon)
}

func TestWinnerSetIffFinished(t *testing.T) {
	g := newTestGame(Settings{Sets: 2, Legs: 2, StartingScore: 301, DoubleOut: true})

	for g.Status != StatusFinished {
		assert.Empty(t, g.WinnerID, "winner must be unset while the game runs")
		winners := 0
		for _, p := range g.Players {
			if p.SetsWon == g.Settings.Sets {
				winners++
			}
		}
		assert.Zero(t, winners)
		winLeg(t, g, "alice")
	}

	assert.Equal(t, "alice", g.WinnerID)
	assert.Equal(t, g.Settings.Sets, g.Player("alice").SetsWon)
}

func TestCloneIsolatesMutation(t *testing.T) {
	g := newTestGame(testSettings())
	_, err := g.ApplyVisit("alice", Visit{Score: 60, Darts: 3})
	require.NoError(t, err)

	clone := g.Clone()
	_, err = clone.ApplyVisit("bob", Visit{Score: 100, Darts: 3})
	require.NoError(t, err)

	assert.Equal(t, 501, g.Player("bob").Remaining)
	assert.Len(t, g.History, 1)
	assert.Len(t, clone.History, 2)
	assert.Equal(t, "bob", g.ThrowingPlayerID)
}
