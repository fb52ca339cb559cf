package game

import (
	"time"

	"darts/store"
)

// Explicit per-field mappings between domain state and store records. Kept
// by hand so the persisted shape is a declared contract, not whatever
// reflection happens to produce.

func recordFromState(g *GameState) *store.GameRecord {
	rec := &store.GameRecord{
		ID:             g.ID,
		Status:         g.Status,
		Sets:           g.Settings.Sets,
		Legs:           g.Settings.Legs,
		StartingScore:  g.Settings.StartingScore,
		DoubleIn:       g.Settings.DoubleIn,
		DoubleOut:      g.Settings.DoubleOut,
		CurrentSet:     g.CurrentSet,
		CurrentLeg:     g.CurrentLeg,
		ThrowingPlayer: g.ThrowingPlayerID,
		Winner:         g.WinnerID,
		Version:        g.Version,
	}
	for i, p := range g.Players {
		rec.Players[i] = store.GamePlayerRecord{
			PlayerID:  p.PlayerID,
			Seat:      i,
			Remaining: p.Remaining,
			LegsWon:   p.LegsWon,
			SetsWon:   p.SetsWon,
			Opened:    p.Opened,
		}
	}
	return rec
}

func stateFromRecord(rec *store.GameRecord, throws []*store.ThrowRecord) *GameState {
	g := &GameState{
		ID: rec.ID,
		Settings: Settings{
			Sets:          rec.Sets,
			Legs:          rec.Legs,
			StartingScore: rec.StartingScore,
			DoubleIn:      rec.DoubleIn,
			DoubleOut:     rec.DoubleOut,
		},
		Status:           rec.Status,
		CurrentSet:       rec.CurrentSet,
		CurrentLeg:       rec.CurrentLeg,
		ThrowingPlayerID: rec.ThrowingPlayer,
		WinnerID:         rec.Winner,
		Version:          rec.Version,
	}
	// Depending on how the row was scanned the timestamp arrives either as
	// RFC 3339 or as sqlite's plain DATETIME text.
	for _, layout := range []string{time.RFC3339Nano, time.DateTime} {
		if created, err := time.Parse(layout, rec.CreatedAt); err == nil {
			g.CreatedAt = created.UTC()
			break
		}
	}
	for i := range rec.Players {
		p := rec.Players[i]
		g.Players[i] = &PlayerState{
			PlayerID:  p.PlayerID,
			Remaining: p.Remaining,
			LegsWon:   p.LegsWon,
			SetsWon:   p.SetsWon,
			Opened:    p.Opened,
		}
	}
	g.History = make([]Throw, 0, len(throws))
	for _, t := range throws {
		g.History = append(g.History, Throw{
			PlayerID:        t.PlayerID,
			Score:           t.Score,
			Darts:           t.Darts,
			FirstDartDouble: t.FirstDartDouble,
			LastDartDouble:  t.LastDartDouble,
			Set:             t.SetIndex,
			Leg:             t.LegIndex,
			Sequence:        t.Sequence,
			Bust:            t.Bust,
			CreatedAt:       t.CreatedAt,
		})
	}
	return g
}

func recordFromThrow(gameID string, t Throw) *store.ThrowRecord {
	return &store.ThrowRecord{
		GameID:          gameID,
		PlayerID:        t.PlayerID,
		Score:           t.Score,
		Darts:           t.Darts,
		FirstDartDouble: t.FirstDartDouble,
		LastDartDouble:  t.LastDartDouble,
		SetIndex:        t.Set,
		LegIndex:        t.Leg,
		Sequence:        t.Sequence,
		Bust:            t.Bust,
		CreatedAt:       t.CreatedAt,
	}
}

func queueRecordFromEntry(e *QueueEntry) *store.QueueEntry {
	return &store.QueueEntry{
		PlayerID:      e.PlayerID,
		SettingsKey:   e.Settings.Key(),
		Sets:          e.Settings.Sets,
		Legs:          e.Settings.Legs,
		StartingScore: e.Settings.StartingScore,
		DoubleIn:      e.Settings.DoubleIn,
		DoubleOut:     e.Settings.DoubleOut,
		JoinedAt:      e.JoinedAt,
	}
}

func entryFromQueueRecord(rec *store.QueueEntry) *QueueEntry {
	return &QueueEntry{
		PlayerID: rec.PlayerID,
		Settings: Settings{
			Sets:          rec.Sets,
			Legs:          rec.Legs,
			StartingScore: rec.StartingScore,
			DoubleIn:      rec.DoubleIn,
			DoubleOut:     rec.DoubleOut,
		},
		JoinedAt: rec.JoinedAt,
	}
}
