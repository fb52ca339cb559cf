package store

const schema = `
CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,
    username TEXT UNIQUE NOT NULL,
    password_hash TEXT NOT NULL,
    average_score REAL NOT NULL DEFAULT 0,
    visit_count INTEGER NOT NULL DEFAULT 0,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS games (
    id TEXT PRIMARY KEY,
    status TEXT NOT NULL,
    sets INTEGER NOT NULL,
    legs INTEGER NOT NULL,
    starting_score INTEGER NOT NULL,
    double_in INTEGER NOT NULL DEFAULT 0,
    double_out INTEGER NOT NULL DEFAULT 0,
    current_set INTEGER NOT NULL DEFAULT 0,
    current_leg INTEGER NOT NULL DEFAULT 0,
    throwing_player TEXT NOT NULL,
    winner TEXT NOT NULL DEFAULT '',
    version INTEGER NOT NULL DEFAULT 0,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS game_players (
    game_id TEXT NOT NULL,
    player_id TEXT NOT NULL,
    seat INTEGER NOT NULL,
    remaining INTEGER NOT NULL,
    legs_won INTEGER NOT NULL DEFAULT 0,
    sets_won INTEGER NOT NULL DEFAULT 0,
    opened INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (game_id, player_id),
    FOREIGN KEY (game_id) REFERENCES games(id),
    FOREIGN KEY (player_id) REFERENCES users(id)
);

CREATE TABLE IF NOT EXISTS queue_entries (
    player_id TEXT PRIMARY KEY,
    settings_key TEXT NOT NULL,
    sets INTEGER NOT NULL,
    legs INTEGER NOT NULL,
    starting_score INTEGER NOT NULL,
    double_in INTEGER NOT NULL DEFAULT 0,
    double_out INTEGER NOT NULL DEFAULT 0,
    joined_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS throws (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    game_id TEXT NOT NULL,
    player_id TEXT NOT NULL,
    score INTEGER NOT NULL,
    darts INTEGER NOT NULL,
    first_dart_double INTEGER NOT NULL DEFAULT 0,
    last_dart_double INTEGER NOT NULL DEFAULT 0,
    set_index INTEGER NOT NULL,
    leg_index INTEGER NOT NULL,
    sequence INTEGER NOT NULL,
    bust INTEGER NOT NULL DEFAULT 0,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY (game_id) REFERENCES games(id)
);

CREATE INDEX IF NOT EXISTS idx_games_status ON games(status);
CREATE INDEX IF NOT EXISTS idx_game_players_player ON game_players(player_id);
CREATE INDEX IF NOT EXISTS idx_queue_settings ON queue_entries(settings_key, joined_at);
CREATE INDEX IF NOT EXISTS idx_throws_game ON throws(game_id, sequence);
`
