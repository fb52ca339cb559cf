package game

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"darts/store"
)

// QueueEntry is a player waiting to be matched. It exists from join until
// the moment it is matched or the player leaves, never longer.
type QueueEntry struct {
	PlayerID string    `json:"playerId"`
	Settings Settings  `json:"settings"`
	JoinedAt time.Time `json:"joinedAt"`
}

// Queue pairs waiting players with structurally equal settings, oldest
// first. Buckets are keyed by the canonical settings key; order within a
// bucket is strictly FIFO so nobody is skipped. The in-memory buckets are
// the authority; the store mirrors them so a restart can rebuild the queue.
type Queue struct {
	store store.Store
	log   zerolog.Logger

	mu       sync.Mutex
	buckets  map[string][]*QueueEntry
	byPlayer map[string]*QueueEntry
}

func NewQueue(st store.Store, logger zerolog.Logger) (*Queue, error) {
	q := &Queue{
		store:    st,
		log:      logger,
		buckets:  make(map[string][]*QueueEntry),
		byPlayer: make(map[string]*QueueEntry),
	}

	recs, err := st.ListQueueEntries()
	if err != nil {
		return nil, err
	}
	for _, rec := range recs {
		e := entryFromQueueRecord(rec)
		key := e.Settings.Key()
		q.buckets[key] = append(q.buckets[key], e)
		q.byPlayer[e.PlayerID] = e
	}
	if len(recs) > 0 {
		q.log.Info().Int("entries", len(recs)).Msg("restored queue from store")
	}
	return q, nil
}

// Join enqueues the player or, when a compatible opponent is already
// waiting, creates a game between the oldest waiter and the newcomer. The
// waiter's entry is removed from the queue atomically with game creation.
// Returns the created game (nil if queued) and the queue position.
func (q *Queue) Join(playerID string, s Settings) (*GameState, int, error) {
	if err := s.Validate(); err != nil {
		return nil, 0, err
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if _, queued := q.byPlayer[playerID]; queued {
		return nil, 0, ErrAlreadyQueued
	}

	key := s.Key()
	bucket := q.buckets[key]
	if len(bucket) == 0 {
		entry := &QueueEntry{PlayerID: playerID, Settings: s, JoinedAt: time.Now().UTC()}
		if err := q.store.CreateQueueEntry(queueRecordFromEntry(entry)); err != nil {
			return nil, 0, err
		}
		q.buckets[key] = append(bucket, entry)
		q.byPlayer[playerID] = entry
		return nil, len(q.buckets[key]), nil
	}

	// The oldest waiter throws first, standard arrival-order convention.
	head := bucket[0]
	g := NewGameState(uuid.NewString(), s, head.PlayerID, playerID)
	if err := q.store.CreateMatchedGame(recordFromState(g)); err != nil {
		return nil, 0, err
	}
	q.buckets[key] = bucket[1:]
	delete(q.byPlayer, head.PlayerID)

	q.log.Info().
		Str("game_id", g.ID).
		Str("first", head.PlayerID).
		Str("second", playerID).
		Msg("players matched")
	return g, 0, nil
}

// Leave removes the player's entry if it is still unmatched. Leaving after
// being matched is a no-op, not an error: matching and leaving race, and
// the matched outcome wins.
func (q *Queue) Leave(playerID string) (bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	entry, queued := q.byPlayer[playerID]
	if !queued {
		return false, nil
	}

	if err := q.store.DeleteQueueEntry(playerID); err != nil {
		return false, err
	}

	key := entry.Settings.Key()
	bucket := q.buckets[key]
	for i, e := range bucket {
		if e.PlayerID == playerID {
			q.buckets[key] = append(bucket[:i], bucket[i+1:]...)
			break
		}
	}
	delete(q.byPlayer, playerID)
	return true, nil
}

// Waiting reports the player's current entry, if any.
func (q *Queue) Waiting(playerID string) (*QueueEntry, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	e, ok := q.byPlayer[playerID]
	return e, ok
}
