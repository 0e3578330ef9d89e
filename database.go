package main

import (
	"database/sql"
	"math"
	"time"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

// DB is the persistence layer, a thin wrapper over one SQLite handle
type DB struct {
	conn *sql.DB
}

// PlayerRow is one account, registered or guest
type PlayerRow struct {
	ID        int64
	Username  string
	Email     string
	PassHash  string
	CreatedAt time.Time
}

// StatsRow carries a player's lifetime totals across all matches
type StatsRow struct {
	PlayerID     int64
	Kills        int64
	Deaths       int64
	Headshots    int64
	WavesCleared int64
	Wins         int64
	Losses       int64
	Playtime     float64 // seconds
	XP           int64
	Level        int
}

// MatchRow is one finished match
type MatchRow struct {
	ID        int64
	Mode      int
	Duration  float64
	Winner    string
	Reason    string
	CreatedAt time.Time
}

// MatchPlayerRow is one player's line in a finished match
type MatchPlayerRow struct {
	MatchID   int64
	PlayerID  int64
	Mode      int
	Kills     int
	Deaths    int
	Headshots int
	XPEarned  int
	PlayedAt  string
}

// schemaDDL holds one statement per element, tables before indexes.
// Everything is idempotent so migrate runs unconditionally at startup.
var schemaDDL = []string{
	`CREATE TABLE IF NOT EXISTS players (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		email TEXT NOT NULL DEFAULT '',
		pass_hash TEXT NOT NULL DEFAULT '',
		is_guest INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS stats (
		player_id INTEGER PRIMARY KEY REFERENCES players(id),
		kills INTEGER NOT NULL DEFAULT 0,
		deaths INTEGER NOT NULL DEFAULT 0,
		headshots INTEGER NOT NULL DEFAULT 0,
		waves_cleared INTEGER NOT NULL DEFAULT 0,
		wins INTEGER NOT NULL DEFAULT 0,
		losses INTEGER NOT NULL DEFAULT 0,
		playtime REAL NOT NULL DEFAULT 0,
		xp INTEGER NOT NULL DEFAULT 0,
		level INTEGER NOT NULL DEFAULT 1
	)`,
	`CREATE TABLE IF NOT EXISTS matches (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		mode INTEGER NOT NULL DEFAULT 0,
		duration REAL NOT NULL DEFAULT 0,
		winner TEXT NOT NULL DEFAULT '',
		reason TEXT NOT NULL DEFAULT '',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS match_players (
		match_id INTEGER NOT NULL REFERENCES matches(id),
		player_id INTEGER NOT NULL REFERENCES players(id),
		kills INTEGER NOT NULL DEFAULT 0,
		deaths INTEGER NOT NULL DEFAULT 0,
		headshots INTEGER NOT NULL DEFAULT 0,
		xp_earned INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (match_id, player_id)
	)`,
	`CREATE TABLE IF NOT EXISTS achievements (
		player_id INTEGER NOT NULL REFERENCES players(id),
		achievement_id TEXT NOT NULL,
		unlocked_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (player_id, achievement_id)
	)`,
	`CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS analytics_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		event_type TEXT NOT NULL,
		player_id INTEGER,
		session_id TEXT,
		data TEXT,
		created_at DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_match_players_player ON match_players(player_id)`,
	`CREATE INDEX IF NOT EXISTS idx_players_username ON players(username)`,
	`CREATE INDEX IF NOT EXISTS idx_analytics_created ON analytics_events(created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_analytics_type ON analytics_events(event_type)`,
}

// OpenDB opens or creates the SQLite file and brings the schema up to date
func OpenDB(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// WAL for concurrent readers; busy_timeout so brief write contention
	// waits instead of erroring out
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return nil, err
		}
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

// Close releases the underlying connection pool
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	for _, stmt := range schemaDDL {
		if _, err := db.conn.Exec(stmt); err != nil {
			logrus.WithError(err).Error("schema statement failed")
			return err
		}
	}
	return nil
}

// GetSetting returns a settings value, or "" when the key is absent
func (db *DB) GetSetting(key string) string {
	var value string
	err := db.conn.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if err != nil {
		return ""
	}
	return value
}

// SetSetting inserts or replaces a settings value
func (db *DB) SetSetting(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	return err
}

// CreatePlayer creates a registered account and returns its id
func (db *DB) CreatePlayer(username, email, passHash string) (int64, error) {
	return db.insertPlayer(username, email, passHash, false)
}

// CreateGuest creates a throwaway account with no credentials. Guests keep
// stats for the visit but never rank on the leaderboard.
func (db *DB) CreateGuest(username string) (int64, error) {
	return db.insertPlayer(username, "", "", true)
}

// insertPlayer writes the account row and seeds its stats row.
func (db *DB) insertPlayer(username, email, passHash string, guest bool) (int64, error) {
	g := 0
	if guest {
		g = 1
	}
	res, err := db.conn.Exec(
		"INSERT INTO players (username, email, pass_hash, is_guest) VALUES (?, ?, ?, ?)",
		username, email, passHash, g,
	)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	_, err = db.conn.Exec("INSERT INTO stats (player_id) VALUES (?)", id)
	return id, err
}

// GetPlayerByUsername returns a player row, or nil when unknown
func (db *DB) GetPlayerByUsername(username string) (*PlayerRow, error) {
	return scanPlayerRow(db.conn.QueryRow(
		"SELECT id, username, email, pass_hash, created_at FROM players WHERE username = ?",
		username,
	))
}

// GetPlayerByID returns a player row, or nil when unknown
func (db *DB) GetPlayerByID(id int64) (*PlayerRow, error) {
	return scanPlayerRow(db.conn.QueryRow(
		"SELECT id, username, email, pass_hash, created_at FROM players WHERE id = ?",
		id,
	))
}

func scanPlayerRow(row *sql.Row) (*PlayerRow, error) {
	p := &PlayerRow{}
	err := row.Scan(&p.ID, &p.Username, &p.Email, &p.PassHash, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return p, err
}

// GetStats returns a player's lifetime totals, or nil when unknown
func (db *DB) GetStats(playerID int64) (*StatsRow, error) {
	row := db.conn.QueryRow(
		`SELECT player_id, kills, deaths, headshots, waves_cleared, wins, losses, playtime, xp, level
		 FROM stats WHERE player_id = ?`,
		playerID,
	)
	s := &StatsRow{}
	err := row.Scan(&s.PlayerID, &s.Kills, &s.Deaths, &s.Headshots, &s.WavesCleared,
		&s.Wins, &s.Losses, &s.Playtime, &s.XP, &s.Level)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return s, err
}

// XPForLevel returns the total XP a level starts at. Level 1 starts at 0,
// level 2 at 100, and each step up costs 100 * level^1.5 more.
func XPForLevel(level int) int {
	need := 0.0
	for l := 1; l < level; l++ {
		need += 100 * math.Pow(float64(l), 1.5)
	}
	return int(need)
}

// XPToNextLevel returns the XP gap between a level and the next one
func XPToNextLevel(level int) int {
	return XPForLevel(level+1) - XPForLevel(level)
}

// CalculateLevel returns the level a total XP amount lands on, capped at 100
func CalculateLevel(totalXP int) int {
	need := 0.0
	for level := 1; level < 100; level++ {
		need += 100.0 * math.Pow(float64(level), 1.5)
		if totalXP < int(need) {
			return level
		}
	}
	return 100
}

// UpdateStatsAfterMatch folds one match into a player's lifetime stats.
// Returns (newXP, newLevel) for client notification.
func (db *DB) UpdateStatsAfterMatch(playerID int64, kills, deaths, headshots, wavesCleared int, won bool, duration float64, xpEarned int) (int, int, error) {
	wins, losses := 0, 0
	if won {
		wins = 1
	} else {
		losses = 1
	}

	_, err := db.conn.Exec(`
		UPDATE stats SET
			kills = kills + ?,
			deaths = deaths + ?,
			headshots = headshots + ?,
			waves_cleared = waves_cleared + ?,
			wins = wins + ?,
			losses = losses + ?,
			playtime = playtime + ?,
			xp = xp + ?
		WHERE player_id = ?`,
		kills, deaths, headshots, wavesCleared, wins, losses, duration, xpEarned, playerID,
	)
	if err != nil {
		return 0, 0, err
	}

	// Level is derived from the new XP total, not incremented
	var totalXP int
	err = db.conn.QueryRow("SELECT xp FROM stats WHERE player_id = ?", playerID).Scan(&totalXP)
	if err != nil {
		return 0, 0, err
	}
	newLevel := CalculateLevel(totalXP)

	_, err = db.conn.Exec("UPDATE stats SET level = ? WHERE player_id = ?", newLevel, playerID)
	return totalXP, newLevel, err
}

// GetLeaderboard returns the top non-guest players by the given column
func (db *DB) GetLeaderboard(orderBy string, limit int) ([]LeaderboardEntry, error) {
	// orderBy is interpolated into the query, so it must come from this table
	validCols := map[string]string{
		"kills": "s.kills", "wins": "s.wins", "level": "s.level",
		"xp": "s.xp", "headshots": "s.headshots", "waves": "s.waves_cleared",
		"kd": "CASE WHEN s.deaths > 0 THEN CAST(s.kills AS REAL)/s.deaths ELSE s.kills END",
	}
	col, ok := validCols[orderBy]
	if !ok {
		col = "s.xp"
	}

	rows, err := db.conn.Query(
		`SELECT p.username, s.level, s.xp, s.kills, s.deaths, s.headshots, s.waves_cleared, s.wins, s.losses
		 FROM stats s JOIN players p ON p.id = s.player_id
		 WHERE p.is_guest = 0
		 ORDER BY `+col+` DESC LIMIT ?`,
		limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var board []LeaderboardEntry
	for rows.Next() {
		var e LeaderboardEntry
		if err := rows.Scan(&e.Username, &e.Level, &e.XP, &e.Kills, &e.Deaths,
			&e.Headshots, &e.Waves, &e.Wins, &e.Losses); err != nil {
			return nil, err
		}
		e.Rank = len(board) + 1
		board = append(board, e)
	}
	return board, rows.Err()
}

// LeaderboardEntry is one ranked row served to clients
type LeaderboardEntry struct {
	Rank      int    `json:"rank"`
	Username  string `json:"username"`
	Level     int    `json:"level"`
	XP        int    `json:"xp"`
	Kills     int    `json:"kills"`
	Deaths    int    `json:"deaths"`
	Headshots int    `json:"headshots"`
	Waves     int    `json:"waves"`
	Wins      int    `json:"wins"`
	Losses    int    `json:"losses"`
}

// RecordMatch records a completed match and returns its ID. Winner is the
// in-session player id for competitive modes, "" for co-op or no winner.
func (db *DB) RecordMatch(mode int, duration float64, winner, reason string) (int64, error) {
	res, err := db.conn.Exec(
		"INSERT INTO matches (mode, duration, winner, reason) VALUES (?, ?, ?, ?)",
		mode, duration, winner, reason,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// RecordMatchPlayer writes one player's line for a recorded match
func (db *DB) RecordMatchPlayer(matchID, playerID int64, kills, deaths, headshots, xpEarned int) error {
	_, err := db.conn.Exec(
		`INSERT INTO match_players (match_id, player_id, kills, deaths, headshots, xp_earned)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		matchID, playerID, kills, deaths, headshots, xpEarned,
	)
	return err
}

// GetMatchHistory returns a player's most recent match lines, newest first
func (db *DB) GetMatchHistory(playerID int64, limit int) ([]MatchPlayerRow, error) {
	rows, err := db.conn.Query(
		`SELECT mp.match_id, mp.player_id, m.mode, mp.kills, mp.deaths, mp.headshots, mp.xp_earned, m.created_at
		 FROM match_players mp JOIN matches m ON m.id = mp.match_id
		 WHERE mp.player_id = ?
		 ORDER BY m.created_at DESC LIMIT ?`,
		playerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []MatchPlayerRow
	for rows.Next() {
		var r MatchPlayerRow
		if err := rows.Scan(&r.MatchID, &r.PlayerID, &r.Mode, &r.Kills, &r.Deaths,
			&r.Headshots, &r.XPEarned, &r.PlayedAt); err != nil {
			return nil, err
		}
		history = append(history, r)
	}
	return history, rows.Err()
}

// GetAchievements returns the achievement ids a player has unlocked
func (db *DB) GetAchievements(playerID int64) ([]string, error) {
	rows, err := db.conn.Query(
		"SELECT achievement_id FROM achievements WHERE player_id = ?", playerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// UnlockAchievement records an unlock. Returns true only on the first
// unlock, so callers can skip duplicate notifications.
func (db *DB) UnlockAchievement(playerID int64, achievementID string) (bool, error) {
	res, err := db.conn.Exec(
		"INSERT OR IGNORE INTO achievements (player_id, achievement_id) VALUES (?, ?)",
		playerID, achievementID,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// UsernameExists reports whether any account, guest included, holds the name
func (db *DB) UsernameExists(username string) (bool, error) {
	var count int
	err := db.conn.QueryRow("SELECT COUNT(*) FROM players WHERE username = ?", username).Scan(&count)
	return count > 0, err
}
