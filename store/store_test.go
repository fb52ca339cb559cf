package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	st, err := NewSQLiteStore(filepath.Join(t.TempDir(), "darts.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func testGameRecord(id string) *GameRecord {
	return &GameRecord{
		ID:             id,
		Status:         "in_progress",
		Sets:           3,
		Legs:           3,
		StartingScore:  501,
		DoubleOut:      true,
		ThrowingPlayer: "alice",
		Players: [2]GamePlayerRecord{
			{PlayerID: "alice", Seat: 0, Remaining: 501},
			{PlayerID: "bob", Seat: 1, Remaining: 501},
		},
	}
}

func TestUserLifecycle(t *testing.T) {
	st := newTestStore(t)

	user, err := st.GetUserByUsername("alice")
	require.NoError(t, err)
	assert.Nil(t, user, "missing user is nil, not an error")

	require.NoError(t, st.CreateUser(&User{ID: "u1", Username: "alice", PasswordHash: "hash"}))

	user, err = st.GetUserByUsername("alice")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "u1", user.ID)
	assert.Equal(t, 0, user.VisitCount)
	assert.Zero(t, user.AverageScore)

	err = st.CreateUser(&User{ID: "u2", Username: "alice", PasswordHash: "hash"})
	assert.Error(t, err, "usernames are unique")

	require.NoError(t, st.UpdateUserAverage("u1", 52.5, 4))
	user, err = st.GetUserByID("u1")
	require.NoError(t, err)
	assert.InDelta(t, 52.5, user.AverageScore, 0.001)
	assert.Equal(t, 4, user.VisitCount)
}

func TestQueueEntryRoundTrip(t *testing.T) {
	st := newTestStore(t)

	first := &QueueEntry{
		PlayerID: "alice", SettingsKey: "3x3x501:in=false:out=true",
		Sets: 3, Legs: 3, StartingScore: 501, DoubleOut: true,
		JoinedAt: time.Now().UTC().Add(-time.Minute),
	}
	second := &QueueEntry{
		PlayerID: "bob", SettingsKey: "3x3x501:in=false:out=true",
		Sets: 3, Legs: 3, StartingScore: 501, DoubleOut: true,
		JoinedAt: time.Now().UTC(),
	}
	// Insert newest first; listing must come back oldest first regardless.
	require.NoError(t, st.CreateQueueEntry(second))
	require.NoError(t, st.CreateQueueEntry(first))

	entries, err := st.ListQueueEntries()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "alice", entries[0].PlayerID)
	assert.Equal(t, "bob", entries[1].PlayerID)
	assert.True(t, entries[0].DoubleOut)
	assert.False(t, entries[0].DoubleIn)
	assert.Equal(t, first.JoinedAt.UnixNano(), entries[0].JoinedAt.UnixNano())

	require.NoError(t, st.DeleteQueueEntry("alice"))
	entries, err = st.ListQueueEntries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "bob", entries[0].PlayerID)

	// Deleting an absent entry is fine.
	require.NoError(t, st.DeleteQueueEntry("alice"))
}

func TestCreateMatchedGameConsumesQueueEntries(t *testing.T) {
	st := newTestStore(t)

	for _, p := range []string{"alice", "bob"} {
		require.NoError(t, st.CreateQueueEntry(&QueueEntry{
			PlayerID: p, SettingsKey: "k", Sets: 3, Legs: 3, StartingScore: 501,
			JoinedAt: time.Now().UTC(),
		}))
	}

	require.NoError(t, st.CreateMatchedGame(testGameRecord("g1")))

	entries, err := st.ListQueueEntries()
	require.NoError(t, err)
	assert.Empty(t, entries, "matching removes both entries in the same transaction")

	g, err := st.GetGame("g1")
	require.NoError(t, err)
	require.NotNil(t, g)
	assert.Equal(t, "in_progress", g.Status)
	assert.EqualValues(t, 0, g.Version)
	assert.Equal(t, "alice", g.Players[0].PlayerID)
	assert.Equal(t, "bob", g.Players[1].PlayerID)
	assert.Equal(t, 501, g.Players[1].Remaining)
}

func TestGetGameMissing(t *testing.T) {
	st := newTestStore(t)

	g, err := st.GetGame("nope")
	require.NoError(t, err)
	assert.Nil(t, g)
}

func TestUpdateGameVersionGuard(t *testing.T) {
	st := newTestStore(t)
	require.NoError(t, st.CreateMatchedGame(testGameRecord("g1")))

	g, err := st.GetGame("g1")
	require.NoError(t, err)

	g.Players[0].Remaining = 441
	g.ThrowingPlayer = "bob"
	throw := &ThrowRecord{
		GameID: "g1", PlayerID: "alice", Score: 60, Darts: 3,
		Sequence: 0, CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, st.UpdateGame(g, throw, 0))
	assert.EqualValues(t, 1, g.Version, "successful write advances the in-memory version")

	// A second writer holding the old version loses.
	stale, err := st.GetGame("g1")
	require.NoError(t, err)
	err = st.UpdateGame(stale, nil, 0)
	assert.ErrorIs(t, err, ErrVersionConflict)

	// The losing write changed nothing.
	fresh, err := st.GetGame("g1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, fresh.Version)
	assert.Equal(t, 441, fresh.Players[0].Remaining)
	assert.Equal(t, "bob", fresh.ThrowingPlayer)

	throws, err := st.ListThrows("g1")
	require.NoError(t, err)
	require.Len(t, throws, 1)
	assert.Equal(t, "alice", throws[0].PlayerID)
	assert.Equal(t, 60, throws[0].Score)
}

func TestListThrowsOrderedBySequence(t *testing.T) {
	st := newTestStore(t)
	require.NoError(t, st.CreateMatchedGame(testGameRecord("g1")))

	scores := []int{60, 100, 140}
	for i, score := range scores {
		g, err := st.GetGame("g1")
		require.NoError(t, err)
		throw := &ThrowRecord{
			GameID: "g1", PlayerID: "alice", Score: score, Darts: 3,
			Sequence: i, Bust: i == 1, CreatedAt: time.Now().UTC(),
		}
		require.NoError(t, st.UpdateGame(g, throw, g.Version))
	}

	throws, err := st.ListThrows("g1")
	require.NoError(t, err)
	require.Len(t, throws, 3)
	for i, throw := range throws {
		assert.Equal(t, i, throw.Sequence)
		assert.Equal(t, scores[i], throw.Score)
	}
	assert.False(t, throws[0].Bust)
	assert.True(t, throws[1].Bust)
}

func TestListActiveGameIDsForPlayer(t *testing.T) {
	st := newTestStore(t)

	active := testGameRecord("g1")
	require.NoError(t, st.CreateMatchedGame(active))

	finished := testGameRecord("g2")
	finished.Status = "finished"
	finished.Winner = "alice"
	require.NoError(t, st.CreateMatchedGame(finished))

	other := testGameRecord("g3")
	other.Players[0].PlayerID = "carol"
	other.Players[1].PlayerID = "dave"
	require.NoError(t, st.CreateMatchedGame(other))

	ids, err := st.ListActiveGameIDsForPlayer("alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"g1"}, ids)

	ids, err = st.ListActiveGameIDsForPlayer("nobody")
	require.NoError(t, err)
	assert.Empty(t, ids)
}
