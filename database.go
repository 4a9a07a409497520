package main

import (
	"database/sql"
	"log"
	"time"

	_ "modernc.org/sqlite"
)

// DB wraps the SQLite database connection
type DB struct {
	conn *sql.DB
}

// MatchRow represents a completed match
type MatchRow struct {
	ID        int64
	SessionID string
	Name      string
	AITier    int // -1 for PvP
	Winner    int
	Wins0     int
	Wins1     int
	EndTick   uint64
	Duration  float64
	CreatedAt time.Time
}

// OpenDB opens (or creates) the SQLite database
func OpenDB(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, err
	}
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates tables if they don't exist
func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS matches (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		name TEXT NOT NULL DEFAULT '',
		ai_tier INTEGER NOT NULL DEFAULT -1,
		winner INTEGER NOT NULL DEFAULT -1,
		wins0 INTEGER NOT NULL DEFAULT 0,
		wins1 INTEGER NOT NULL DEFAULT 0,
		end_tick INTEGER NOT NULL DEFAULT 0,
		duration REAL NOT NULL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS replays (
		match_id INTEGER PRIMARY KEY REFERENCES matches(id),
		version TEXT NOT NULL,
		data BLOB NOT NULL
	);

	CREATE TABLE IF NOT EXISTS analytics_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		event_type TEXT NOT NULL,
		session_id TEXT,
		actor INTEGER,
		tick INTEGER,
		data TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_matches_session ON matches(session_id);
	CREATE INDEX IF NOT EXISTS idx_analytics_type ON analytics_events(event_type, created_at);
	`
	_, err := db.conn.Exec(schema)
	if err != nil {
		log.Printf("DB migration error: %v", err)
	}
	return err
}

// RecordMatch stores a finished match and returns its row ID
func (db *DB) RecordMatch(sessionID, name string, aiTier, winner, wins0, wins1 int, endTick uint64, duration float64) (int64, error) {
	res, err := db.conn.Exec(
		`INSERT INTO matches (session_id, name, ai_tier, winner, wins0, wins1, end_tick, duration)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		sessionID, name, aiTier, winner, wins0, wins1, endTick, duration,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// SaveReplay stores the encoded replay log for a match
func (db *DB) SaveReplay(matchID int64, version string, data []byte) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO replays (match_id, version, data) VALUES (?, ?, ?)",
		matchID, version, data,
	)
	return err
}

// GetReplay loads a stored replay log. Returns nil when none exists.
func (db *DB) GetReplay(matchID int64) ([]byte, error) {
	var data []byte
	err := db.conn.QueryRow("SELECT data FROM replays WHERE match_id = ?", matchID).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return data, err
}

// RecentMatches returns the latest finished matches
func (db *DB) RecentMatches(limit int) ([]MatchRow, error) {
	rows, err := db.conn.Query(`
		SELECT id, session_id, name, ai_tier, winner, wins0, wins1, end_tick, duration, created_at
		FROM matches ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []MatchRow
	for rows.Next() {
		var m MatchRow
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Name, &m.AITier, &m.Winner,
			&m.Wins0, &m.Wins1, &m.EndTick, &m.Duration, &m.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, m)
	}
	return result, rows.Err()
}

// GetSetting reads a settings value, empty string when missing
func (db *DB) GetSetting(key string) string {
	var v string
	err := db.conn.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&v)
	if err != nil {
		return ""
	}
	return v
}

// SetSetting writes a settings value
func (db *DB) SetSetting(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO settings (key, value) VALUES (?, ?)", key, value,
	)
	return err
}
