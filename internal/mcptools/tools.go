// Package mcptools exposes solitaire games as MCP tools, so a model can play
// through the same match API the web server uses.
package mcptools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"demoapps/internal/game"
	"demoapps/internal/game/solitaire"
)

// player is the single seat every MCP game is dealt to.
const player = "mcp"

// MaxGames bounds the number of games kept in memory.
const MaxGames = 32

// Tools holds the games started through MCP, keyed by game id.
type Tools struct {
	mu    sync.Mutex
	games map[string]*solitaire.Match
	order []string // oldest first, for eviction
	log   *zap.Logger
}

// New creates an empty tool set.
func New(log *zap.Logger) *Tools {
	if log == nil {
		log = zap.NewNop()
	}
	return &Tools{games: map[string]*solitaire.Match{}, log: log}
}

// Register adds every solitaire tool to s.
func (t *Tools) Register(s *server.MCPServer) {
	s.AddTool(newGameTool(), t.handleNewGame)
	s.AddTool(getStateTool(), t.handleGetState)
	s.AddTool(drawTool(), t.handleDraw)
	s.AddTool(moveTool(), t.handleMove)
	s.AddTool(selectTool(), t.handleSelect)
	s.AddTool(hintsTool(), t.handleHints)
	s.AddTool(restartTool(), t.handleRestart)
	s.AddTool(endGameTool(), t.handleEndGame)
}

// --- Tool definitions ---

const pileHelp = "Pile name: tableau0..tableau6, foundation0..foundation3, discard (alias waste) or stock"

func gameIDArg() mcp.ToolOption {
	return mcp.WithString("game_id", mcp.Required(), mcp.Description("Id returned by new_game"))
}

func newGameTool() mcp.Tool {
	return mcp.NewTool("new_game",
		mcp.WithDescription("Deal a new Klondike solitaire game (draw one). Returns the game id and the board. "+
			"All tableau cards are visible; the stock is reported as a count. Only the top card of a pile can move."),
		mcp.WithNumber("seed", mcp.Description("Optional shuffle seed; the same seed deals the same game")),
	)
}

func getStateTool() mcp.Tool {
	return mcp.NewTool("get_state",
		mcp.WithDescription("Get the current board of a game without changing it. Read-only."),
		gameIDArg(),
	)
}

func drawTool() mcp.Tool {
	return mcp.NewTool("draw",
		mcp.WithDescription("Turn the next stock card onto the discard pile, or turn the discard pile over into a new stock when the stock is empty."),
		gameIDArg(),
	)
}

func moveTool() mcp.Tool {
	return mcp.NewTool("move",
		mcp.WithDescription("Move the top card of a pile onto another pile. Sources are the discard pile or a tableau column; "+
			"targets are a foundation or a tableau column. Illegal moves leave the board unchanged and report why in state.last."),
		gameIDArg(),
		mcp.WithString("from", mcp.Required(), mcp.Description(pileHelp)),
		mcp.WithString("to", mcp.Required(), mcp.Description(pileHelp)),
	)
}

func selectTool() mcp.Tool {
	return mcp.NewTool("select",
		mcp.WithDescription("Click a card. With nothing selected this selects the card; with a selection it moves the "+
			"selected card to this pile, or deselects when the same pile is clicked again."),
		gameIDArg(),
		mcp.WithString("pile", mcp.Required(), mcp.Description(pileHelp)),
		mcp.WithNumber("index", mcp.Required(), mcp.Description("0-based card index within the pile (the top card is the last)")),
	)
}

func hintsTool() mcp.Tool {
	return mcp.NewTool("hints",
		mcp.WithDescription("List every legal move from the current board, foundation moves first."),
		gameIDArg(),
	)
}

func restartTool() mcp.Tool {
	return mcp.NewTool("restart",
		mcp.WithDescription("Throw the current board away and deal a fresh game under the same id."),
		gameIDArg(),
	)
}

func endGameTool() mcp.Tool {
	return mcp.NewTool("end_game",
		mcp.WithDescription("Forget a game and free its id."),
		gameIDArg(),
	)
}

// --- Responses ---

type response struct {
	GameID string `json:"gameId"`
	State  any    `json:"state,omitempty"`
	Ended  bool   `json:"ended,omitempty"`
}

func respondJSON(resp response) *mcp.CallToolResult {
	data, err := json.Marshal(resp)
	if err != nil {
		return mcp.NewToolResultErrorf("marshal error: %v", err)
	}
	return mcp.NewToolResultText(string(data))
}

var errNoGame = errors.New("no such game; use new_game first")

func (t *Tools) lookup(request mcp.CallToolRequest) (string, *solitaire.Match, error) {
	id := request.GetString("game_id", "")
	if id == "" {
		return "", nil, errors.New("game_id is required")
	}
	m, ok := t.games[id]
	if !ok {
		return id, nil, fmt.Errorf("%w: %s", errNoGame, id)
	}
	return id, m, nil
}

// apply runs one action against a game and returns the resulting board.
func (t *Tools) apply(request mcp.CallToolRequest, build func(m *solitaire.Match) (game.Action, error)) (*mcp.CallToolResult, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	id, m, err := t.lookup(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	action, err := build(m)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := m.ApplyAction(player, action); err != nil {
		return mcp.NewToolResultErrorf("%s failed: %v", action.Type, err), nil
	}
	t.log.Debug("applied action", zap.String("game", id), zap.String("action", action.Type),
		zap.String("outcome", string(m.Last.Outcome)))
	return respondJSON(response{GameID: id, State: m.State(player)}), nil
}

// --- Tool handlers ---

func (t *Tools) handleNewGame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	seed := int64(request.GetInt("seed", 0))
	m := solitaire.Solitaire{}.NewMatch(game.MatchConfig{PlayerIDs: []string{player}, Seed: seed}).(*solitaire.Match)
	id := uuid.NewString()

	t.mu.Lock()
	t.games[id] = m
	t.order = append(t.order, id)
	for len(t.order) > MaxGames {
		oldest := t.order[0]
		t.order = t.order[1:]
		delete(t.games, oldest)
		t.log.Info("evicted game", zap.String("game", oldest))
	}
	state := m.State(player)
	t.mu.Unlock()

	t.log.Info("new game", zap.String("game", id), zap.Int64("seed", seed))
	return respondJSON(response{GameID: id, State: state}), nil
}

func (t *Tools) handleGetState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	id, m, err := t.lookup(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return respondJSON(response{GameID: id, State: m.State(player)}), nil
}

func (t *Tools) handleDraw(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return t.apply(request, func(*solitaire.Match) (game.Action, error) {
		return game.NewAction(solitaire.ActionDraw, nil), nil
	})
}

func (t *Tools) handleMove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return t.apply(request, func(m *solitaire.Match) (game.Action, error) {
		from, err := solitaire.ParsePileRef(request.GetString("from", ""))
		if err != nil {
			return game.Action{}, fmt.Errorf("from: %w", err)
		}
		to, err := solitaire.ParsePileRef(request.GetString("to", ""))
		if err != nil {
			return game.Action{}, fmt.Errorf("to: %w", err)
		}
		return game.NewAction(solitaire.ActionMove, solitaire.Move{
			From: solitaire.Position{Pile: from, Index: topIndex(m, from)},
			To:   to,
		}), nil
	})
}

func (t *Tools) handleSelect(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return t.apply(request, func(*solitaire.Match) (game.Action, error) {
		pile, err := solitaire.ParsePileRef(request.GetString("pile", ""))
		if err != nil {
			return game.Action{}, err
		}
		return game.NewAction(solitaire.ActionSelect, solitaire.Position{
			Pile:  pile,
			Index: request.GetInt("index", -1),
		}), nil
	})
}

func (t *Tools) handleRestart(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return t.apply(request, func(*solitaire.Match) (game.Action, error) {
		return game.NewAction(solitaire.ActionNewGame, nil), nil
	})
}

func (t *Tools) handleHints(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	id, m, err := t.lookup(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	moves := m.Engine.ValidMoves()
	if moves == nil {
		moves = []solitaire.Move{}
	}
	data, err := json.Marshal(struct {
		GameID  string           `json:"gameId"`
		Moves   []solitaire.Move `json:"moves"`
		CanDraw bool             `json:"canDraw"`
	}{id, moves, m.Engine.CanDraw()})
	if err != nil {
		return mcp.NewToolResultErrorf("marshal error: %v", err), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (t *Tools) handleEndGame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	id, _, err := t.lookup(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	delete(t.games, id)
	for i, g := range t.order {
		if g == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
	return respondJSON(response{GameID: id, Ended: true}), nil
}

// topIndex is the index of the top card of ref, or -1 when it is empty.
func topIndex(m *solitaire.Match, ref solitaire.PileRef) int {
	v := m.Engine.Snapshot()
	switch ref.Kind {
	case solitaire.Tableau:
		return v.Tableau[ref.Index].TopIndex()
	case solitaire.Foundation:
		return v.Foundations[ref.Index].TopIndex()
	case solitaire.Discard:
		return v.Discard.TopIndex()
	case solitaire.Stock:
		return v.Stock.TopIndex()
	}
	return -1
}
