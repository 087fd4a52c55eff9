package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// SessionRow represents a session in the database.
type SessionRow struct {
	Code      string
	GameType  string
	Status    string // "waiting", "playing", "finished"
	HostID    string
	Players   []string
	CreatedAt time.Time
}

// Store handles SQLite persistence.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the database and runs migrations.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// Every connection to ":memory:" is a separate database, and SQLite
	// serializes writers anyway.
	db.SetMaxOpenConns(1)
	// WAL mode for better concurrent reads
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS sessions (
			code       TEXT PRIMARY KEY,
			game_type  TEXT NOT NULL,
			status     TEXT NOT NULL DEFAULT 'waiting',
			host_id    TEXT NOT NULL DEFAULT '',
			players    TEXT NOT NULL DEFAULT '[]',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE TABLE IF NOT EXISTS match_state (
			session_code TEXT PRIMARY KEY REFERENCES sessions(code),
			state_json   TEXT NOT NULL,
			updated_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE TABLE IF NOT EXISTS high_scores (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			game_type   TEXT NOT NULL,
			player_id   TEXT NOT NULL,
			score       INTEGER NOT NULL,
			achieved_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS high_scores_game ON high_scores (game_type, score DESC);
	`)
	return err
}

// CreateSession inserts a new session.
func (s *Store) CreateSession(ctx context.Context, code, gameType string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO sessions (code, game_type, status) VALUES (?, ?, 'waiting')",
		code, gameType,
	)
	return err
}

const sessionColumns = "code, game_type, status, host_id, players, created_at"

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(sc scanner) (SessionRow, error) {
	var sr SessionRow
	var players string
	if err := sc.Scan(&sr.Code, &sr.GameType, &sr.Status, &sr.HostID, &players, &sr.CreatedAt); err != nil {
		return sr, err
	}
	if err := json.Unmarshal([]byte(players), &sr.Players); err != nil {
		return sr, fmt.Errorf("decode players of session %s: %w", sr.Code, err)
	}
	return sr, nil
}

// GetSession retrieves a session by code.
func (s *Store) GetSession(ctx context.Context, code string) (*SessionRow, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+sessionColumns+" FROM sessions WHERE code = ?", code)
	sr, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("session %s: %w", code, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &sr, nil
}

// UpdateSessionStatus changes a session's status.
func (s *Store) UpdateSessionStatus(ctx context.Context, code, status string) error {
	_, err := s.db.ExecContext(ctx, "UPDATE sessions SET status = ? WHERE code = ?", status, code)
	return err
}

// UpdateSessionPlayers records who is seated in a session so the roster
// survives a restart.
func (s *Store) UpdateSessionPlayers(ctx context.Context, code, hostID string, players []string) error {
	if players == nil {
		players = []string{}
	}
	data, err := json.Marshal(players)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, "UPDATE sessions SET host_id = ?, players = ? WHERE code = ?", hostID, string(data), code)
	return err
}

// ListSessions returns all sessions with the given status (or all if status is empty).
func (s *Store) ListSessions(ctx context.Context, status string) ([]SessionRow, error) {
	var rows *sql.Rows
	var err error
	if status == "" {
		rows, err = s.db.QueryContext(ctx, "SELECT "+sessionColumns+" FROM sessions ORDER BY created_at DESC")
	} else {
		rows, err = s.db.QueryContext(ctx, "SELECT "+sessionColumns+" FROM sessions WHERE status = ? ORDER BY created_at DESC", status)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []SessionRow
	for rows.Next() {
		sr, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, sr)
	}
	return result, rows.Err()
}

// SaveMatchState upserts match state JSON.
func (s *Store) SaveMatchState(ctx context.Context, sessionCode, stateJSON string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO match_state (session_code, state_json, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(session_code) DO UPDATE SET state_json = excluded.state_json, updated_at = excluded.updated_at
	`, sessionCode, stateJSON)
	return err
}

// GetMatchState retrieves match state JSON.
func (s *Store) GetMatchState(ctx context.Context, sessionCode string) (string, error) {
	var stateJSON string
	err := s.db.QueryRowContext(ctx, "SELECT state_json FROM match_state WHERE session_code = ?", sessionCode).Scan(&stateJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("match state %s: %w", sessionCode, ErrNotFound)
	}
	return stateJSON, err
}

// DeleteSession removes a session and its match state.
func (s *Store) DeleteSession(ctx context.Context, code string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, "DELETE FROM match_state WHERE session_code = ?", code); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM sessions WHERE code = ?", code); err != nil {
		return err
	}
	return tx.Commit()
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
