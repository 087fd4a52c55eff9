package storage

import (
	"context"
	"database/sql"
	"time"
)

// ScoreRow is one entry on a game's score board.
type ScoreRow struct {
	GameType   string    `json:"gameType"`
	PlayerID   string    `json:"playerId"`
	Score      int       `json:"score"`
	AchievedAt time.Time `json:"achievedAt"`
}

// RecordScore appends a finished game's score.
func (s *Store) RecordScore(ctx context.Context, gameType, playerID string, score int) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO high_scores (game_type, player_id, score) VALUES (?, ?, ?)",
		gameType, playerID, score,
	)
	return err
}

// HighScore returns the best score recorded for gameType, or 0 if none.
func (s *Store) HighScore(ctx context.Context, gameType string) (int, error) {
	var best sql.NullInt64
	err := s.db.QueryRowContext(ctx, "SELECT MAX(score) FROM high_scores WHERE game_type = ?", gameType).Scan(&best)
	if err != nil {
		return 0, err
	}
	return int(best.Int64), nil
}

// TopScores returns up to limit scores for gameType, best first. Ties go to
// whoever got there first.
func (s *Store) TopScores(ctx context.Context, gameType string, limit int) ([]ScoreRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT game_type, player_id, score, achieved_at
		FROM high_scores
		WHERE game_type = ?
		ORDER BY score DESC, achieved_at ASC, id ASC
		LIMIT ?
	`, gameType, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	result := []ScoreRow{}
	for rows.Next() {
		var sr ScoreRow
		if err := rows.Scan(&sr.GameType, &sr.PlayerID, &sr.Score, &sr.AchievedAt); err != nil {
			return nil, err
		}
		result = append(result, sr)
	}
	return result, rows.Err()
}
