package snake

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"demoapps/internal/game"
)

// Action types understood by Match.
const (
	ActionStart = "start"
	ActionPause = "pause"
	ActionReset = "reset"
	ActionTurn  = "turn"
)

// GameName is the registry name of the snake game.
const GameName = "snake"

// ScoreStore supplies the best recorded score for a game.
type ScoreStore interface {
	HighScore(ctx context.Context, gameType string) (int, error)
}

// Snake implements game.Game. Scores, when set, seeds every new match with
// the stored high score.
type Snake struct {
	Scores ScoreStore
	// InitialSpeed overrides the default starting tick interval.
	InitialSpeed time.Duration
}

func (Snake) Info() game.GameInfo {
	return game.GameInfo{
		Name:       GameName,
		Title:      "Snake",
		MinPlayers: 1,
		MaxPlayers: 1,
		Realtime:   true,
		HighScores: true,
	}
}

func (s Snake) NewMatch(config game.MatchConfig) game.Match {
	e := &Engine{rng: newRand(config.Seed), StartSpeed: s.InitialSpeed}
	e.Reset()
	m := &Match{Engine: e}
	if len(config.PlayerIDs) > 0 {
		m.Player = config.PlayerIDs[0]
	}
	if s.Scores != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if best, err := s.Scores.HighScore(ctx, GameName); err == nil {
			m.Engine.HighScore = best
		}
	}
	return m
}

// Match implements game.Match and game.Ticker.
type Match struct {
	Player string  `json:"player"`
	Engine *Engine `json:"engine"`
}

type stateView struct {
	Grid      int       `json:"grid"`
	Snake     []Point   `json:"snake"`
	Food      Point     `json:"food"`
	Direction Direction `json:"direction"`
	Score     int       `json:"score"`
	HighScore int       `json:"highScore"`
	Length    int       `json:"length"`
	SpeedMS   int64     `json:"speedMs"`
	Status    Status    `json:"status"`
}

func (m *Match) State(playerID string) any {
	e := m.Engine
	return stateView{
		Grid:      GridSize,
		Snake:     append([]Point(nil), e.Snake...),
		Food:      e.Food,
		Direction: e.Dir,
		Score:     e.Score,
		HighScore: e.HighScore,
		Length:    len(e.Snake),
		SpeedMS:   e.Speed.Milliseconds(),
		Status:    e.Status,
	}
}

type turnPayload struct {
	Direction string `json:"direction"`
}

func (m *Match) ValidActions(playerID string) []game.Action {
	if playerID != m.Player {
		return nil
	}
	switch m.Engine.Status {
	case StatusPlaying:
		actions := []game.Action{game.NewAction(ActionPause, nil), game.NewAction(ActionReset, nil)}
		for _, d := range []Direction{Up, Down, Left, Right} {
			if d != m.Engine.Dir.Opposite() {
				actions = append(actions, game.NewAction(ActionTurn, turnPayload{Direction: string(d)}))
			}
		}
		return actions
	default:
		return []game.Action{game.NewAction(ActionStart, nil), game.NewAction(ActionReset, nil)}
	}
}

func (m *Match) ApplyAction(playerID string, action game.Action) error {
	if playerID != m.Player {
		return game.ErrNotYourMatch
	}
	if m.IsOver() && (action.Type == ActionPause || action.Type == ActionTurn) {
		return game.ErrGameOver
	}
	switch action.Type {
	case ActionStart:
		m.Engine.Start()
	case ActionPause:
		m.Engine.Pause()
	case ActionReset:
		m.Engine.Reset()
	case ActionTurn:
		var p turnPayload
		if err := json.Unmarshal(action.Payload, &p); err != nil {
			return fmt.Errorf("invalid turn payload: %w", err)
		}
		d, err := ParseDirection(p.Direction)
		if err != nil {
			return err
		}
		m.Engine.Turn(d)
	default:
		return fmt.Errorf("%w: %s", game.ErrUnknownAction, action.Type)
	}
	return nil
}

func (m *Match) IsOver() bool { return m.Engine.Status == StatusOver }

func (m *Match) Results() []game.PlayerResult {
	if !m.IsOver() {
		return nil
	}
	return []game.PlayerResult{{PlayerID: m.Player, Rank: 1, Score: m.Engine.Score}}
}

func (m *Match) Tick() bool { return m.Engine.Tick().Moved || m.IsOver() }

func (m *Match) Interval() time.Duration { return m.Engine.Speed }

func (m *Match) Running() bool { return m.Engine.Status == StatusPlaying }

func (m *Match) MarshalJSON() ([]byte, error) {
	type alias Match
	return json.Marshal((*alias)(m))
}

func (m *Match) UnmarshalJSON(data []byte) error {
	type alias Match
	a := (*alias)(m)
	if a.Engine == nil {
		a.Engine = &Engine{}
	}
	return json.Unmarshal(data, a)
}
