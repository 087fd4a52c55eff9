package game

import (
	"encoding/json"
	"errors"
	"time"
)

var (
	// ErrGameOver is returned when an action arrives after the match ended.
	ErrGameOver = errors.New("game is over")
	// ErrUnknownAction is returned for action types a match does not handle.
	ErrUnknownAction = errors.New("unknown action type")
	// ErrNotYourMatch is returned when a non-participant sends an action.
	ErrNotYourMatch = errors.New("player is not in this match")
)

// GameInfo describes a game type for the lobby.
type GameInfo struct {
	Name       string `json:"name"`
	Title      string `json:"title"`
	MinPlayers int    `json:"minPlayers"`
	MaxPlayers int    `json:"maxPlayers"`
	Realtime   bool   `json:"realtime"`   // advanced by a server-side ticker
	HighScores bool   `json:"highScores"` // results are recorded on the score board
}

// MatchConfig holds settings for creating a new match.
type MatchConfig struct {
	PlayerIDs []string
	// Seed drives the match's random source. Zero picks a random seed.
	Seed int64
}

// Action represents a move a player can make.
type Action struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// PlayerResult holds the outcome for one player.
type PlayerResult struct {
	PlayerID string `json:"playerId"`
	Rank     int    `json:"rank"` // 1 = first place
	Score    int    `json:"score"`
}

// Game describes a game type (solitaire, snake, etc.)
type Game interface {
	Info() GameInfo
	NewMatch(config MatchConfig) Match
}

// Match is one in-progress game session.
type Match interface {
	State(playerID string) any
	ValidActions(playerID string) []Action
	ApplyAction(playerID string, action Action) error
	IsOver() bool
	Results() []PlayerResult
	// MarshalJSON / UnmarshalJSON support for persistence
	MarshalJSON() ([]byte, error)
	UnmarshalJSON(data []byte) error
}

// Ticker is implemented by realtime matches. Tick advances the match by one
// step and reports whether anything changed. Interval is the current delay
// between ticks; it may shrink as the match progresses.
type Ticker interface {
	Tick() bool
	Interval() time.Duration
	Running() bool
}

// NewAction builds an Action with a JSON-encoded payload. A nil payload
// produces an action without one.
func NewAction(actionType string, payload any) Action {
	if payload == nil {
		return Action{Type: actionType}
	}
	data, _ := json.Marshal(payload)
	return Action{Type: actionType, Payload: data}
}
