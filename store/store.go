package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// ErrVersionConflict means a game write lost a compare-and-swap race: some
// other transition was persisted first. The caller reloads and retries or
// rejects its event; it never half-applies.
var ErrVersionConflict = errors.New("game version conflict")

// Store is the narrow repository boundary the engine persists through. The
// durable copy mirrors every accepted transition but is never the authority
// for in-flight decisions.
type Store interface {
	CreateUser(u *User) error
	GetUserByUsername(username string) (*User, error)
	GetUserByID(id string) (*User, error)
	UpdateUserAverage(id string, average float64, visits int) error

	CreateQueueEntry(e *QueueEntry) error
	DeleteQueueEntry(playerID string) error
	ListQueueEntries() ([]*QueueEntry, error)

	CreateMatchedGame(g *GameRecord) error
	GetGame(gameID string) (*GameRecord, error)
	UpdateGame(g *GameRecord, t *ThrowRecord, expectedVersion int64) error
	ListThrows(gameID string) ([]*ThrowRecord, error)
	ListActiveGameIDsForPlayer(playerID string) ([]string, error)

	Close() error
}

type User struct {
	ID           string
	Username     string
	PasswordHash string
	AverageScore float64
	VisitCount   int
	CreatedAt    string
}

type QueueEntry struct {
	PlayerID      string
	SettingsKey   string
	Sets          int
	Legs          int
	StartingScore int
	DoubleIn      bool
	DoubleOut     bool
	JoinedAt      time.Time
}

type GamePlayerRecord struct {
	PlayerID  string
	Seat      int
	Remaining int
	LegsWon   int
	SetsWon   int
	Opened    bool
}

type GameRecord struct {
	ID             string
	Status         string
	Sets           int
	Legs           int
	StartingScore  int
	DoubleIn       bool
	DoubleOut      bool
	CurrentSet     int
	CurrentLeg     int
	ThrowingPlayer string
	Winner         string
	Version        int64
	CreatedAt      string
	Players        [2]GamePlayerRecord
}

type ThrowRecord struct {
	GameID          string
	PlayerID        string
	Score           int
	Darts           int
	FirstDartDouble bool
	LastDartDouble  bool
	SetIndex        int
	LegIndex        int
	Sequence        int
	Bust            bool
	CreatedAt       time.Time
}

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) CreateUser(u *User) error {
	_, err := s.db.Exec(
		"INSERT INTO users (id, username, password_hash) VALUES (?, ?, ?)",
		u.ID, u.Username, u.PasswordHash,
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetUserByUsername(username string) (*User, error) {
	return s.getUser("SELECT id, username, password_hash, average_score, visit_count, created_at FROM users WHERE username = ?", username)
}

func (s *SQLiteStore) GetUserByID(id string) (*User, error) {
	return s.getUser("SELECT id, username, password_hash, average_score, visit_count, created_at FROM users WHERE id = ?", id)
}

func (s *SQLiteStore) getUser(query, arg string) (*User, error) {
	user := &User{}
	err := s.db.QueryRow(query, arg).Scan(
		&user.ID, &user.Username, &user.PasswordHash, &user.AverageScore, &user.VisitCount, &user.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (s *SQLiteStore) UpdateUserAverage(id string, average float64, visits int) error {
	_, err := s.db.Exec(
		"UPDATE users SET average_score = ?, visit_count = ? WHERE id = ?",
		average, visits, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update user average: %w", err)
	}
	return nil
}

func (s *SQLiteStore) CreateQueueEntry(e *QueueEntry) error {
	_, err := s.db.Exec(`
		INSERT INTO queue_entries (player_id, settings_key, sets, legs, starting_score, double_in, double_out, joined_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.PlayerID, e.SettingsKey, e.Sets, e.Legs, e.StartingScore,
		boolToInt(e.DoubleIn), boolToInt(e.DoubleOut), e.JoinedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to create queue entry: %w", err)
	}
	return nil
}

func (s *SQLiteStore) DeleteQueueEntry(playerID string) error {
	if _, err := s.db.Exec("DELETE FROM queue_entries WHERE player_id = ?", playerID); err != nil {
		return fmt.Errorf("failed to delete queue entry: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListQueueEntries() ([]*QueueEntry, error) {
	rows, err := s.db.Query(`
		SELECT player_id, settings_key, sets, legs, starting_score, double_in, double_out, joined_at
		FROM queue_entries ORDER BY joined_at`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list queue entries: %w", err)
	}
	defer rows.Close()

	var entries []*QueueEntry
	for rows.Next() {
		e := &QueueEntry{}
		var doubleIn, doubleOut int
		var joinedAt int64
		if err := rows.Scan(&e.PlayerID, &e.SettingsKey, &e.Sets, &e.Legs, &e.StartingScore, &doubleIn, &doubleOut, &joinedAt); err != nil {
			return nil, fmt.Errorf("failed to scan queue entry: %w", err)
		}
		e.DoubleIn = doubleIn == 1
		e.DoubleOut = doubleOut == 1
		e.JoinedAt = time.Unix(0, joinedAt).UTC()
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// CreateMatchedGame removes both players' queue entries and creates the game
// in one transaction, so an entry can never be matched twice.
func (s *SQLiteStore) CreateMatchedGame(g *GameRecord) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, p := range g.Players {
		if _, err := tx.Exec("DELETE FROM queue_entries WHERE player_id = ?", p.PlayerID); err != nil {
			return fmt.Errorf("failed to remove queue entry: %w", err)
		}
	}

	if _, err := tx.Exec(`
		INSERT INTO games (id, status, sets, legs, starting_score, double_in, double_out,
			current_set, current_leg, throwing_player, winner, version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.Status, g.Sets, g.Legs, g.StartingScore,
		boolToInt(g.DoubleIn), boolToInt(g.DoubleOut),
		g.CurrentSet, g.CurrentLeg, g.ThrowingPlayer, g.Winner, g.Version,
	); err != nil {
		return fmt.Errorf("failed to create game: %w", err)
	}

	for _, p := range g.Players {
		if _, err := tx.Exec(`
			INSERT INTO game_players (game_id, player_id, seat, remaining, legs_won, sets_won, opened)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			g.ID, p.PlayerID, p.Seat, p.Remaining, p.LegsWon, p.SetsWon, boolToInt(p.Opened),
		); err != nil {
			return fmt.Errorf("failed to create game player: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetGame(gameID string) (*GameRecord, error) {
	g := &GameRecord{}
	var doubleIn, doubleOut int
	err := s.db.QueryRow(`
		SELECT id, status, sets, legs, starting_score, double_in, double_out,
			current_set, current_leg, throwing_player, winner, version, created_at
		FROM games WHERE id = ?`, gameID,
	).Scan(&g.ID, &g.Status, &g.Sets, &g.Legs, &g.StartingScore, &doubleIn, &doubleOut,
		&g.CurrentSet, &g.CurrentLeg, &g.ThrowingPlayer, &g.Winner, &g.Version, &g.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}
	g.DoubleIn = doubleIn == 1
	g.DoubleOut = doubleOut == 1

	rows, err := s.db.Query(`
		SELECT player_id, seat, remaining, legs_won, sets_won, opened
		FROM game_players WHERE game_id = ? ORDER BY seat`, gameID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get game players: %w", err)
	}
	defer rows.Close()

	i := 0
	for rows.Next() {
		if i >= len(g.Players) {
			return nil, fmt.Errorf("game %s has more than two players", gameID)
		}
		p := &g.Players[i]
		var opened int
		if err := rows.Scan(&p.PlayerID, &p.Seat, &p.Remaining, &p.LegsWon, &p.SetsWon, &opened); err != nil {
			return nil, fmt.Errorf("failed to scan game player: %w", err)
		}
		p.Opened = opened == 1
		i++
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if i != 2 {
		return nil, fmt.Errorf("game %s has %d players", gameID, i)
	}
	return g, nil
}

// UpdateGame persists a full accepted transition: the game row (guarded by a
// compare-and-swap on version), both player tallies, and the throw that
// caused it, all in one transaction. On success g.Version is advanced.
func (s *SQLiteStore) UpdateGame(g *GameRecord, t *ThrowRecord, expectedVersion int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
		UPDATE games SET status = ?, current_set = ?, current_leg = ?,
			throwing_player = ?, winner = ?, version = version + 1
		WHERE id = ? AND version = ?`,
		g.Status, g.CurrentSet, g.CurrentLeg, g.ThrowingPlayer, g.Winner,
		g.ID, expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("failed to update game: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update: %w", err)
	}
	if affected == 0 {
		return ErrVersionConflict
	}

	for _, p := range g.Players {
		if _, err := tx.Exec(`
			UPDATE game_players SET remaining = ?, legs_won = ?, sets_won = ?, opened = ?
			WHERE game_id = ? AND player_id = ?`,
			p.Remaining, p.LegsWon, p.SetsWon, boolToInt(p.Opened), g.ID, p.PlayerID,
		); err != nil {
			return fmt.Errorf("failed to update game player: %w", err)
		}
	}

	if t != nil {
		if _, err := tx.Exec(`
			INSERT INTO throws (game_id, player_id, score, darts, first_dart_double, last_dart_double,
				set_index, leg_index, sequence, bust, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			t.GameID, t.PlayerID, t.Score, t.Darts,
			boolToInt(t.FirstDartDouble), boolToInt(t.LastDartDouble),
			t.SetIndex, t.LegIndex, t.Sequence, boolToInt(t.Bust), t.CreatedAt,
		); err != nil {
			return fmt.Errorf("failed to append throw: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	g.Version = expectedVersion + 1
	return nil
}

func (s *SQLiteStore) ListThrows(gameID string) ([]*ThrowRecord, error) {
	rows, err := s.db.Query(`
		SELECT game_id, player_id, score, darts, first_dart_double, last_dart_double,
			set_index, leg_index, sequence, bust, created_at
		FROM throws WHERE game_id = ? ORDER BY sequence`, gameID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list throws: %w", err)
	}
	defer rows.Close()

	var throws []*ThrowRecord
	for rows.Next() {
		t := &ThrowRecord{}
		var first, last, bust int
		if err := rows.Scan(&t.GameID, &t.PlayerID, &t.Score, &t.Darts, &first, &last,
			&t.SetIndex, &t.LegIndex, &t.Sequence, &bust, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan throw: %w", err)
		}
		t.FirstDartDouble = first == 1
		t.LastDartDouble = last == 1
		t.Bust = bust == 1
		throws = append(throws, t)
	}
	return throws, rows.Err()
}

func (s *SQLiteStore) ListActiveGameIDsForPlayer(playerID string) ([]string, error) {
	rows, err := s.db.Query(`
		SELECT g.id FROM games g
		JOIN game_players gp ON gp.game_id = g.id
		WHERE gp.player_id = ? AND g.status != ?
		ORDER BY g.created_at`, playerID, "finished",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list active games: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan game id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
