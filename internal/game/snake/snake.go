package snake

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"time"
)

const (
	GridSize     = 20
	FoodScore    = 10
	InitialSpeed = 200 * time.Millisecond
	MinSpeed     = 100 * time.Millisecond
	SpeedStep    = 5 * time.Millisecond
)

// Point is a grid cell.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (p Point) inBounds() bool {
	return p.X >= 0 && p.X < GridSize && p.Y >= 0 && p.Y < GridSize
}

// Direction is a heading on the grid.
type Direction string

const (
	Up    Direction = "up"
	Down  Direction = "down"
	Left  Direction = "left"
	Right Direction = "right"
)

// Opposite returns the reverse heading.
func (d Direction) Opposite() Direction {
	switch d {
	case Up:
		return Down
	case Down:
		return Up
	case Left:
		return Right
	case Right:
		return Left
	}
	return ""
}

func (d Direction) delta() Point {
	switch d {
	case Up:
		return Point{0, -1}
	case Down:
		return Point{0, 1}
	case Left:
		return Point{-1, 0}
	case Right:
		return Point{1, 0}
	}
	return Point{}
}

// ParseDirection accepts the four headings plus arrow-key and WASD names.
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "up", "UP", "ArrowUp", "w", "W":
		return Up, nil
	case "down", "DOWN", "ArrowDown", "s", "S":
		return Down, nil
	case "left", "LEFT", "ArrowLeft", "a", "A":
		return Left, nil
	case "right", "RIGHT", "ArrowRight", "d", "D":
		return Right, nil
	}
	return "", fmt.Errorf("invalid direction %q", s)
}

// Status is the snake game's lifecycle state.
type Status string

const (
	StatusReady   Status = "ready"
	StatusPlaying Status = "playing"
	StatusPaused  Status = "paused"
	StatusOver    Status = "over"
)

// TickResult describes what one tick did.
type TickResult struct {
	Moved   bool
	Ate     bool
	Crashed bool
}

// Engine is the snake game state.
type Engine struct {
	Snake     []Point       `json:"snake"` // head first
	Food      Point         `json:"food"`
	Dir       Direction     `json:"direction"`
	Score     int           `json:"score"`
	HighScore int           `json:"highScore"`
	Speed     time.Duration `json:"speed"`
	Status    Status        `json:"status"`
	Ticks     int           `json:"ticks"`

	// StartSpeed is the tick interval a reset board begins with.
	StartSpeed time.Duration `json:"startSpeed,omitempty"`

	rng *rand.Rand
}

// NewEngine creates a game in the ready state.
func NewEngine(rng *rand.Rand) *Engine {
	e := &Engine{rng: rng}
	e.Reset()
	return e
}

// Reset restores the initial board. The high score is kept.
func (e *Engine) Reset() {
	e.Snake = []Point{{10, 10}}
	e.Food = Point{15, 10}
	e.Dir = Right
	e.Score = 0
	e.Speed = e.StartSpeed
	if e.Speed <= 0 {
		e.Speed = InitialSpeed
	}
	e.Status = StatusReady
	e.Ticks = 0
}

// Start begins or resumes play; a finished game is reset first.
func (e *Engine) Start() {
	if e.Status == StatusOver {
		e.Reset()
	}
	e.Status = StatusPlaying
}

// Pause suspends play. It has no effect unless playing.
func (e *Engine) Pause() {
	if e.Status == StatusPlaying {
		e.Status = StatusPaused
	}
}

// Turn changes heading. Reversing onto the body and turning while not
// playing are ignored.
func (e *Engine) Turn(d Direction) bool {
	if e.Status != StatusPlaying || d.delta() == (Point{}) {
		return false
	}
	if d == e.Dir.Opposite() {
		return false
	}
	e.Dir = d
	return true
}

// Tick advances the snake one cell.
func (e *Engine) Tick() TickResult {
	if e.Status != StatusPlaying {
		return TickResult{}
	}
	e.Ticks++
	d := e.Dir.delta()
	head := Point{e.Snake[0].X + d.X, e.Snake[0].Y + d.Y}

	if !head.inBounds() || e.occupied(head) {
		e.Status = StatusOver
		return TickResult{Crashed: true}
	}

	e.Snake = append([]Point{head}, e.Snake...)
	if head != e.Food {
		e.Snake = e.Snake[:len(e.Snake)-1]
		return TickResult{Moved: true}
	}

	e.Score += FoodScore
	if e.Score > e.HighScore {
		e.HighScore = e.Score
	}
	e.Speed = max(MinSpeed, e.Speed-SpeedStep)
	food, ok := e.freeCell()
	if !ok {
		// The snake fills the board.
		e.Status = StatusOver
		return TickResult{Moved: true, Ate: true}
	}
	e.Food = food
	return TickResult{Moved: true, Ate: true}
}

func (e *Engine) occupied(p Point) bool {
	for _, s := range e.Snake {
		if s == p {
			return true
		}
	}
	return false
}

// freeCell picks a uniformly random cell not covered by the snake.
func (e *Engine) freeCell() (Point, bool) {
	free := GridSize*GridSize - len(e.Snake)
	if free <= 0 {
		return Point{}, false
	}
	if e.rng == nil {
		e.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	n := e.rng.IntN(free)
	for y := 0; y < GridSize; y++ {
		for x := 0; x < GridSize; x++ {
			p := Point{x, y}
			if e.occupied(p) {
				continue
			}
			if n == 0 {
				return p, true
			}
			n--
		}
	}
	return Point{}, false
}

// UnmarshalJSON restores persisted state and rejects boards that cannot be
// played. A game persisted mid-play comes back paused: no loop is driving it.
func (e *Engine) UnmarshalJSON(data []byte) error {
	type alias Engine
	if err := json.Unmarshal(data, (*alias)(e)); err != nil {
		return err
	}
	if len(e.Snake) == 0 {
		return fmt.Errorf("snake has no segments")
	}
	if e.Speed <= 0 {
		e.Speed = InitialSpeed
	}
	if e.Status == StatusPlaying {
		e.Status = StatusPaused
	}
	return nil
}

func newRand(seed int64) *rand.Rand {
	if seed == 0 {
		return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return rand.New(rand.NewPCG(uint64(seed), uint64(seed)<<1|1))
}
