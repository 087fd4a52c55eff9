package solitaire

import (
	"encoding/json"
	"fmt"

	"demoapps/internal/game"
)

// Action types understood by Match.
const (
	ActionSelect  = "select"
	ActionMove    = "move"
	ActionDraw    = "draw"
	ActionNewGame = "new"
)

// Solitaire implements game.Game.
type Solitaire struct{}

func (Solitaire) Info() game.GameInfo {
	return game.GameInfo{
		Name:       "solitaire",
		Title:      "Solitaire",
		MinPlayers: 1,
		MaxPlayers: 1,
	}
}

func (Solitaire) NewMatch(config game.MatchConfig) game.Match {
	m := &Match{Engine: New(NewRand(config.Seed))}
	if len(config.PlayerIDs) > 0 {
		m.Player = config.PlayerIDs[0]
	}
	return m
}

// Match implements game.Match around a single Engine.
type Match struct {
	Player string
	Engine *Engine
	Last   MoveResult
}

type stateView struct {
	Foundations [FoundationCount]Pile `json:"foundations"`
	Tableau     [TableauColumns]Pile  `json:"tableau"`
	StockCount  int                   `json:"stockCount"`
	Discard     Pile                  `json:"discard"`
	Moves       int                   `json:"moves"`
	Status      Status                `json:"status"`
	Won         bool                  `json:"won"`
	Selection   *Position             `json:"selection,omitempty"`
	Last        MoveResult            `json:"last"`
}

// State hides the order of the face-down stock.
func (m *Match) State(playerID string) any {
	v := m.Engine.Snapshot()
	return stateView{
		Foundations: v.Foundations,
		Tableau:     v.Tableau,
		StockCount:  len(v.Stock),
		Discard:     v.Discard,
		Moves:       v.Moves,
		Status:      v.Status,
		Won:         v.Won,
		Selection:   v.Selection,
		Last:        m.Last,
	}
}

type selectPayload struct {
	Pile  PileRef `json:"pile"`
	Index int     `json:"index"`
}

type movePayload struct {
	From Position `json:"from"`
	To   PileRef  `json:"to"`
}

func (m *Match) ValidActions(playerID string) []game.Action {
	if playerID != m.Player {
		return nil
	}
	actions := []game.Action{game.NewAction(ActionNewGame, nil)}
	if m.Engine.Won() {
		return actions
	}
	if m.Engine.CanDraw() {
		actions = append(actions, game.NewAction(ActionDraw, nil))
	}
	for _, mv := range m.Engine.ValidMoves() {
		actions = append(actions, game.NewAction(ActionMove, movePayload{From: mv.From, To: mv.To}))
	}
	return actions
}

// ApplyAction dispatches to the engine. Illegal card moves are not errors:
// the engine leaves the board untouched and the outcome is reported in the
// state's "last" field.
func (m *Match) ApplyAction(playerID string, action game.Action) error {
	if playerID != m.Player {
		return game.ErrNotYourMatch
	}
	switch action.Type {
	case ActionNewGame:
		m.Engine.NewGame()
		m.Last = MoveResult{Outcome: OutcomeNoop}
		return nil
	case ActionDraw:
		m.Last = m.Engine.DrawOrRecycle()
		return nil
	case ActionSelect:
		var p selectPayload
		if err := json.Unmarshal(action.Payload, &p); err != nil {
			return fmt.Errorf("invalid select payload: %w", err)
		}
		m.Last = m.Engine.SelectOrMove(p.Pile, p.Index)
		return nil
	case ActionMove:
		var p movePayload
		if err := json.Unmarshal(action.Payload, &p); err != nil {
			return fmt.Errorf("invalid move payload: %w", err)
		}
		m.Engine.ClearSelection()
		m.Last = m.Engine.MoveCard(p.From, p.To)
		return nil
	}
	return fmt.Errorf("%w: %s", game.ErrUnknownAction, action.Type)
}

func (m *Match) IsOver() bool {
	return m.Engine.Won()
}

// Results scores a won game by the number of moves it took; fewer is better.
func (m *Match) Results() []game.PlayerResult {
	if !m.Engine.Won() {
		return nil
	}
	return []game.PlayerResult{{PlayerID: m.Player, Rank: 1, Score: m.Engine.Moves()}}
}

type matchJSON struct {
	Player string     `json:"player"`
	Engine *Engine    `json:"engine"`
	Last   MoveResult `json:"last"`
}

func (m *Match) MarshalJSON() ([]byte, error) {
	return json.Marshal(matchJSON{Player: m.Player, Engine: m.Engine, Last: m.Last})
}

func (m *Match) UnmarshalJSON(data []byte) error {
	mj := matchJSON{Engine: &Engine{}}
	if err := json.Unmarshal(data, &mj); err != nil {
		return err
	}
	m.Player = mj.Player
	m.Engine = mj.Engine
	m.Last = mj.Last
	return nil
}
