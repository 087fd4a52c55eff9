package snake

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"demoapps/internal/game"
)

func playing(t *testing.T) *Engine {
	t.Helper()
	e := NewEngine(newRand(9))
	e.Start()
	require.Equal(t, StatusPlaying, e.Status)
	return e
}

func TestInitialBoard(t *testing.T) {
	e := NewEngine(newRand(1))
	assert.Equal(t, []Point{{10, 10}}, e.Snake)
	assert.Equal(t, Point{15, 10}, e.Food)
	assert.Equal(t, Right, e.Dir)
	assert.Equal(t, InitialSpeed, e.Speed)
	assert.Equal(t, StatusReady, e.Status)
}

func TestTickIgnoredUnlessPlaying(t *testing.T) {
	e := NewEngine(newRand(1))
	assert.Equal(t, TickResult{}, e.Tick())
	assert.Equal(t, []Point{{10, 10}}, e.Snake)

	e.Start()
	e.Pause()
	assert.Equal(t, TickResult{}, e.Tick())
	assert.Equal(t, 0, e.Ticks)
}

func TestMoveAndEat(t *testing.T) {
	e := playing(t)
	for i := 0; i < 4; i++ {
		res := e.Tick()
		require.True(t, res.Moved)
		require.False(t, res.Ate)
	}
	assert.Equal(t, []Point{{14, 10}}, e.Snake)

	res := e.Tick()
	assert.True(t, res.Ate)
	assert.Equal(t, []Point{{15, 10}, {14, 10}}, e.Snake)
	assert.Equal(t, FoodScore, e.Score)
	assert.Equal(t, FoodScore, e.HighScore)
	assert.Equal(t, InitialSpeed-SpeedStep, e.Speed)
	assert.NotContains(t, e.Snake, e.Food)
}

func TestSpeedFloor(t *testing.T) {
	e := playing(t)
	e.Speed = MinSpeed + 2
	e.Snake = []Point{{14, 10}}
	e.Tick()
	assert.Equal(t, MinSpeed, e.Speed)
}

func TestWallCollision(t *testing.T) {
	e := playing(t)
	e.Snake = []Point{{GridSize - 1, 3}}
	res := e.Tick()
	assert.True(t, res.Crashed)
	assert.Equal(t, StatusOver, e.Status)
	assert.Equal(t, []Point{{GridSize - 1, 3}}, e.Snake, "snake is left as it was")

	e.Start()
	assert.Equal(t, StatusPlaying, e.Status)
	assert.Equal(t, []Point{{10, 10}}, e.Snake, "starting a finished game resets it")
}

func TestSelfCollision(t *testing.T) {
	e := playing(t)
	e.Snake = []Point{{5, 5}, {6, 5}, {6, 6}, {5, 6}, {4, 6}}
	e.Dir = Down
	res := e.Tick()
	assert.True(t, res.Crashed)
	assert.Equal(t, StatusOver, e.Status)
}

func TestTurnRejectsReversal(t *testing.T) {
	e := playing(t)
	assert.False(t, e.Turn(Left))
	assert.Equal(t, Right, e.Dir)
	assert.True(t, e.Turn(Up))
	assert.False(t, e.Turn(Down))
	assert.Equal(t, Up, e.Dir)

	e.Pause()
	assert.False(t, e.Turn(Left))
}

func TestHighScoreSurvivesReset(t *testing.T) {
	e := playing(t)
	e.HighScore = 120
	e.Score = 40
	e.Reset()
	assert.Equal(t, 0, e.Score)
	assert.Equal(t, 120, e.HighScore)
}

func TestFoodNeverOnSnake(t *testing.T) {
	e := playing(t)
	e.Snake = nil
	for y := 0; y < GridSize; y++ {
		for x := 0; x < GridSize; x++ {
			if x != 7 || y != 7 {
				e.Snake = append(e.Snake, Point{x, y})
			}
		}
	}
	p, ok := e.freeCell()
	require.True(t, ok)
	assert.Equal(t, Point{7, 7}, p)

	e.Snake = append(e.Snake, Point{7, 7})
	_, ok = e.freeCell()
	assert.False(t, ok)
}

func TestParseDirection(t *testing.T) {
	for in, want := range map[string]Direction{"ArrowUp": Up, "s": Down, "A": Left, "right": Right} {
		got, err := ParseDirection(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseDirection("north")
	assert.Error(t, err)
}

type fixedScores int

func (f fixedScores) HighScore(context.Context, string) (int, error) { return int(f), nil }

type failingScores struct{}

func (failingScores) HighScore(context.Context, string) (int, error) {
	return 0, errors.New("db down")
}

func TestNewMatchSeedsHighScore(t *testing.T) {
	m := Snake{Scores: fixedScores(90)}.NewMatch(game.MatchConfig{PlayerIDs: []string{"alice"}}).(*Match)
	assert.Equal(t, 90, m.Engine.HighScore)

	m = Snake{Scores: failingScores{}}.NewMatch(game.MatchConfig{PlayerIDs: []string{"alice"}}).(*Match)
	assert.Equal(t, 0, m.Engine.HighScore)
}

func TestMatchActions(t *testing.T) {
	m := Snake{}.NewMatch(game.MatchConfig{PlayerIDs: []string{"alice"}, Seed: 3}).(*Match)
	assert.False(t, m.Running())

	require.NoError(t, m.ApplyAction("alice", game.NewAction(ActionStart, nil)))
	assert.True(t, m.Running())
	assert.Equal(t, InitialSpeed, m.Interval())

	require.NoError(t, m.ApplyAction("alice", game.NewAction(ActionTurn, turnPayload{Direction: "up"})))
	assert.Equal(t, Up, m.Engine.Dir)

	assert.True(t, m.Tick())
	assert.Equal(t, []Point{{10, 9}}, m.Engine.Snake)

	require.NoError(t, m.ApplyAction("alice", game.NewAction(ActionPause, nil)))
	assert.False(t, m.Running())

	assert.ErrorIs(t, m.ApplyAction("bob", game.NewAction(ActionStart, nil)), game.ErrNotYourMatch)
	assert.ErrorIs(t, m.ApplyAction("alice", game.NewAction("jump", nil)), game.ErrUnknownAction)
	assert.Error(t, m.ApplyAction("alice", game.NewAction(ActionTurn, turnPayload{Direction: "north"})))
}

func TestMatchResults(t *testing.T) {
	m := Snake{}.NewMatch(game.MatchConfig{PlayerIDs: []string{"alice"}, Seed: 3}).(*Match)
	assert.Nil(t, m.Results())

	m.Engine.Start()
	m.Engine.Score = 30
	m.Engine.Snake = []Point{{0, 0}}
	m.Engine.Dir = Left
	assert.True(t, m.Tick())
	require.True(t, m.IsOver())
	assert.Equal(t, []game.PlayerResult{{PlayerID: "alice", Rank: 1, Score: 30}}, m.Results())
}

func TestRestoredMatchComesBackPaused(t *testing.T) {
	m := Snake{}.NewMatch(game.MatchConfig{PlayerIDs: []string{"alice"}, Seed: 3}).(*Match)
	m.Engine.Start()
	m.Tick()
	data, err := json.Marshal(m)
	require.NoError(t, err)

	restored := Snake{}.NewMatch(game.MatchConfig{PlayerIDs: []string{"_"}}).(*Match)
	require.NoError(t, restored.UnmarshalJSON(data))
	assert.Equal(t, "alice", restored.Player)
	assert.Equal(t, StatusPaused, restored.Engine.Status)
	assert.Equal(t, m.Engine.Snake, restored.Engine.Snake)
	assert.Equal(t, m.Engine.Speed, restored.Engine.Speed)
}

func TestActionsAfterGameOver(t *testing.T) {
	m := Snake{}.NewMatch(game.MatchConfig{PlayerIDs: []string{"alice"}, Seed: 5}).(*Match)
	m.Engine.Start()
	m.Engine.Snake = []Point{{GridSize - 1, 4}}
	m.Tick()
	require.True(t, m.IsOver())

	assert.ErrorIs(t, m.ApplyAction("alice", game.NewAction(ActionPause, nil)), game.ErrGameOver)
	assert.ErrorIs(t, m.ApplyAction("alice", game.NewAction(ActionTurn, turnPayload{Direction: "up"})), game.ErrGameOver)

	// Start deals a fresh board.
	require.NoError(t, m.ApplyAction("alice", game.NewAction(ActionStart, nil)))
	assert.False(t, m.IsOver())
	assert.True(t, m.Running())
	assert.Equal(t, []Point{{10, 10}}, m.Engine.Snake)
}

func TestConfiguredInitialSpeed(t *testing.T) {
	g := Snake{InitialSpeed: 150 * time.Millisecond}
	m := g.NewMatch(game.MatchConfig{PlayerIDs: []string{"alice"}, Seed: 2}).(*Match)
	assert.Equal(t, 150*time.Millisecond, m.Interval())

	m.Engine.Start()
	m.Engine.Food = Point{11, 10}
	m.Tick()
	assert.Equal(t, 145*time.Millisecond, m.Interval())

	m.Engine.Reset()
	assert.Equal(t, 150*time.Millisecond, m.Engine.Speed)
}
