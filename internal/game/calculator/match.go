package calculator

import (
	"encoding/json"
	"fmt"

	"demoapps/internal/game"
)

// Action types understood by Match.
const (
	ActionDigit        = "digit"
	ActionDecimal      = "decimal"
	ActionOperation    = "operation"
	ActionEquals       = "equals"
	ActionClear        = "clear"
	ActionClearEntry   = "clear_entry"
	ActionClearHistory = "clear_history"
)

// Game implements game.Game for the calculator app.
type Game struct{}

func (Game) Info() game.GameInfo {
	return game.GameInfo{Name: "calculator", Title: "Calculator", MinPlayers: 1, MaxPlayers: 1}
}

func (Game) NewMatch(config game.MatchConfig) game.Match {
	m := &Match{Calc: New()}
	if len(config.PlayerIDs) > 0 {
		m.Player = config.PlayerIDs[0]
	}
	return m
}

// Match never ends; it is a tool, not a contest.
type Match struct {
	Player string      `json:"player"`
	Calc   *Calculator `json:"calculator"`
}

func (m *Match) State(playerID string) any { return *m.Calc }

type valuePayload struct {
	Value string `json:"value"`
}

func (m *Match) ValidActions(playerID string) []game.Action {
	if playerID != m.Player {
		return nil
	}
	return []game.Action{
		{Type: ActionDigit}, {Type: ActionDecimal}, {Type: ActionOperation},
		{Type: ActionEquals}, {Type: ActionClear}, {Type: ActionClearEntry}, {Type: ActionClearHistory},
	}
}

func (m *Match) ApplyAction(playerID string, action game.Action) error {
	if playerID != m.Player {
		return game.ErrNotYourMatch
	}
	switch action.Type {
	case ActionDigit, ActionOperation:
		var p valuePayload
		if err := json.Unmarshal(action.Payload, &p); err != nil {
			return fmt.Errorf("invalid %s payload: %w", action.Type, err)
		}
		if action.Type == ActionDigit {
			return m.Calc.InputDigit(p.Value)
		}
		op, err := ParseOperator(p.Value)
		if err != nil {
			return err
		}
		m.Calc.InputOperation(op)
	case ActionDecimal:
		m.Calc.InputDecimal()
	case ActionEquals:
		m.Calc.Equals()
	case ActionClear:
		m.Calc.ClearAll()
	case ActionClearEntry:
		m.Calc.ClearEntry()
	case ActionClearHistory:
		m.Calc.ClearHistory()
	default:
		return fmt.Errorf("%w: %s", game.ErrUnknownAction, action.Type)
	}
	return nil
}

func (m *Match) IsOver() bool { return false }

func (m *Match) Results() []game.PlayerResult { return nil }

func (m *Match) MarshalJSON() ([]byte, error) {
	type alias Match
	return json.Marshal((*alias)(m))
}

func (m *Match) UnmarshalJSON(data []byte) error {
	type alias Match
	return json.Unmarshal(data, (*alias)(m))
}
