package solitaire

import (
	"encoding/json"
	"errors"
	"testing"

	"demoapps/internal/game"
)

func newTestMatch() *Match {
	return Solitaire{}.NewMatch(game.MatchConfig{PlayerIDs: []string{"alice"}, Seed: 5}).(*Match)
}

func TestMatchInfo(t *testing.T) {
	info := Solitaire{}.Info()
	if info.Name != "solitaire" || info.MinPlayers != 1 || info.MaxPlayers != 1 {
		t.Fatalf("unexpected info: %+v", info)
	}
}

func TestMatchStateHidesStock(t *testing.T) {
	m := newTestMatch()
	data, err := json.Marshal(m.State("alice"))
	if err != nil {
		t.Fatalf("marshal state: %v", err)
	}
	var view map[string]any
	if err := json.Unmarshal(data, &view); err != nil {
		t.Fatalf("unmarshal state: %v", err)
	}
	if _, ok := view["stock"]; ok {
		t.Fatal("stock contents should not be exposed")
	}
	if view["stockCount"] != float64(24) {
		t.Fatalf("expected stockCount 24, got %v", view["stockCount"])
	}
	tableau := view["tableau"].([]any)
	last := tableau[6].([]any)
	top := last[6].(map[string]any)
	if top["id"] == "" || top["color"] == "" {
		t.Fatalf("expected card id and color in view, got %v", top)
	}
}

func TestMatchDrawAction(t *testing.T) {
	m := newTestMatch()
	if err := m.ApplyAction("alice", game.NewAction(ActionDraw, nil)); err != nil {
		t.Fatalf("draw: %v", err)
	}
	state := m.State("alice").(stateView)
	if state.StockCount != 23 || len(state.Discard) != 1 || state.Moves != 1 {
		t.Fatalf("unexpected state after draw: stock=%d discard=%d moves=%d",
			state.StockCount, len(state.Discard), state.Moves)
	}
	if state.Last.Outcome != OutcomeDrawn {
		t.Fatalf("expected drawn outcome, got %s", state.Last.Outcome)
	}
}

func TestMatchSelectPayloadUsesPileNames(t *testing.T) {
	m := newTestMatch()
	payload := json.RawMessage(`{"pile":"tableau3","index":3}`)
	if err := m.ApplyAction("alice", game.Action{Type: ActionSelect, Payload: payload}); err != nil {
		t.Fatalf("select: %v", err)
	}
	sel, ok := m.Engine.Selection()
	if !ok || sel.Pile != TableauPile(3) || sel.Index != 3 {
		t.Fatalf("expected tableau3[3] selected, got %v %v", sel, ok)
	}

	bad := json.RawMessage(`{"pile":"tableau9","index":0}`)
	if err := m.ApplyAction("alice", game.Action{Type: ActionSelect, Payload: bad}); err == nil {
		t.Fatal("expected error for unknown pile name")
	}
}

func TestMatchIllegalMoveIsNotAnError(t *testing.T) {
	m := newTestMatch()
	before := m.Engine.Snapshot()
	act := game.NewAction(ActionMove, movePayload{
		From: Position{Pile: TableauPile(0), Index: 0},
		To:   StockPile,
	})
	if err := m.ApplyAction("alice", act); err != nil {
		t.Fatalf("illegal move should not error: %v", err)
	}
	if m.Last.Outcome != OutcomeRejected {
		t.Fatalf("expected rejected outcome, got %s", m.Last.Outcome)
	}
	if m.Engine.Moves() != before.Moves {
		t.Fatal("move counter changed on illegal move")
	}
}

func TestMatchValidActionsAreLegal(t *testing.T) {
	m := newTestMatch()
	for i := 0; i < 30; i++ {
		actions := m.ValidActions("alice")
		var moves []game.Action
		for _, a := range actions {
			if a.Type == ActionMove {
				moves = append(moves, a)
			}
		}
		if len(moves) == 0 {
			m.ApplyAction("alice", game.NewAction(ActionDraw, nil))
			continue
		}
		before := m.Engine.Moves()
		if err := m.ApplyAction("alice", moves[0]); err != nil {
			t.Fatalf("apply %s: %v", moves[0].Payload, err)
		}
		if m.Engine.Moves() != before+1 {
			t.Fatalf("advertised move %s was rejected: %s", moves[0].Payload, m.Last.Reason)
		}
	}
	if got := m.ValidActions("bob"); got != nil {
		t.Fatalf("expected no actions for a stranger, got %d", len(got))
	}
}

func TestMatchRejectsStrangersAndUnknownActions(t *testing.T) {
	m := newTestMatch()
	if err := m.ApplyAction("bob", game.NewAction(ActionDraw, nil)); !errors.Is(err, game.ErrNotYourMatch) {
		t.Fatalf("expected ErrNotYourMatch, got %v", err)
	}
	if err := m.ApplyAction("alice", game.NewAction("shuffle", nil)); !errors.Is(err, game.ErrUnknownAction) {
		t.Fatalf("expected ErrUnknownAction, got %v", err)
	}
}

func TestMatchNewGameResets(t *testing.T) {
	m := newTestMatch()
	m.ApplyAction("alice", game.NewAction(ActionDraw, nil))
	m.ApplyAction("alice", game.NewAction(ActionNewGame, nil))
	if m.Engine.Moves() != 0 || len(m.Engine.Snapshot().Stock) != 24 {
		t.Fatal("expected fresh deal after new game")
	}
}

func TestMatchPersistence(t *testing.T) {
	m := newTestMatch()
	m.ApplyAction("alice", game.NewAction(ActionDraw, nil))
	m.ApplyAction("alice", game.NewAction(ActionDraw, nil))
	m.Engine.SelectOrMove(DiscardPile, 1)

	data, err := m.MarshalJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	restored := Solitaire{}.NewMatch(game.MatchConfig{PlayerIDs: []string{"_"}}).(*Match)
	if err := restored.UnmarshalJSON(data); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if restored.Player != "alice" {
		t.Fatalf("expected player alice, got %s", restored.Player)
	}
	want, got := m.Engine.Snapshot(), restored.Engine.Snapshot()
	if want.Moves != got.Moves || len(got.Discard) != 2 || len(got.Stock) != 22 {
		t.Fatalf("restored state differs: moves %d/%d discard %d stock %d",
			want.Moves, got.Moves, len(got.Discard), len(got.Stock))
	}
	for i := range want.Tableau {
		for j := range want.Tableau[i] {
			if want.Tableau[i][j] != got.Tableau[i][j] {
				t.Fatalf("tableau %d card %d: want %s got %s", i, j, want.Tableau[i][j], got.Tableau[i][j])
			}
		}
	}
	if got.Selection == nil || *got.Selection != (Position{Pile: DiscardPile, Index: 1}) {
		t.Fatalf("expected selection to survive, got %v", got.Selection)
	}

	// A restored engine can still deal.
	restored.Engine.NewGame()
	if len(restored.Engine.Snapshot().Stock) != 24 {
		t.Fatal("restored engine failed to deal a new game")
	}
}

func TestParsePileRef(t *testing.T) {
	cases := map[string]PileRef{
		"foundation0": FoundationPile(0),
		"foundation3": FoundationPile(3),
		"tableau6":    TableauPile(6),
		"stock":       StockPile,
		"discard":     DiscardPile,
		"waste":       DiscardPile,
	}
	for in, want := range cases {
		got, err := ParsePileRef(in)
		if err != nil {
			t.Fatalf("ParsePileRef(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("ParsePileRef(%q) = %v, want %v", in, got, want)
		}
		if in != "waste" && got.String() != in {
			t.Fatalf("String() = %q, want %q", got.String(), in)
		}
	}
	for _, in := range []string{"", "foundation4", "tableau7", "tableau-1", "tableauX", "hand"} {
		if _, err := ParsePileRef(in); err == nil {
			t.Fatalf("ParsePileRef(%q): expected error", in)
		}
	}
}
