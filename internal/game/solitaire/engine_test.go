package solitaire

import (
	"encoding/json"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func card(s Suit, r Rank) Card { return Card{Suit: s, Rank: r} }

func sortedIDs(cards ...[]Card) []string {
	var ids []string
	for _, cs := range cards {
		for _, c := range cs {
			ids = append(ids, c.ID())
		}
	}
	sort.Strings(ids)
	return ids
}

// deckWith returns a full deck with the given cards moved to the given
// positions.
func deckWith(t *testing.T, placed map[int]Card) Deck {
	t.Helper()
	d := NewDeck()
	idxs := make([]int, 0, len(placed))
	for i := range placed {
		idxs = append(idxs, i)
	}
	sort.Ints(idxs)
	for _, i := range idxs {
		want := placed[i]
		j := -1
		for k, c := range d {
			if c == want {
				j = k
				break
			}
		}
		require.NotEqual(t, -1, j, "card %s not in deck", want)
		d[i], d[j] = d[j], d[i]
	}
	return d
}

// inProgress builds an engine with an empty board ready for hand-placed piles.
func inProgress() *Engine {
	return &Engine{status: StatusInProgress, rng: NewRand(1)}
}

func TestNewDeckIsUniverse(t *testing.T) {
	d := NewDeck()
	require.Len(t, d, DeckSize)
	seen := map[string]bool{}
	for _, c := range d {
		assert.False(t, seen[c.ID()], "duplicate %s", c)
		seen[c.ID()] = true
		assert.True(t, c.Suit.Valid())
		assert.True(t, c.Rank.Valid())
	}
}

func TestShuffleIsPermutation(t *testing.T) {
	want := sortedIDs(NewDeck())
	for seed := int64(1); seed <= 20; seed++ {
		d := NewShuffledDeck(NewRand(seed))
		if diff := cmp.Diff(want, sortedIDs(d)); diff != "" {
			t.Fatalf("seed %d: shuffled deck is not a permutation (-want +got):\n%s", seed, diff)
		}
	}
}

func TestShuffleSeedIsDeterministic(t *testing.T) {
	a := NewShuffledDeck(NewRand(42))
	b := NewShuffledDeck(NewRand(42))
	assert.Equal(t, a, b)
	assert.NotEqual(t, NewDeck(), a)
}

func TestDealLayout(t *testing.T) {
	for seed := int64(1); seed <= 10; seed++ {
		deck := NewShuffledDeck(NewRand(seed))
		tableau, stock := Deal(deck)
		for k, col := range tableau {
			assert.Len(t, col, k+1, "column %d", k)
		}
		assert.Len(t, stock, 24)

		all := [][]Card{stock}
		for _, col := range tableau {
			all = append(all, col)
		}
		assert.Empty(t, cmp.Diff(sortedIDs(deck), sortedIDs(all...)))
	}
}

func TestDealOrder(t *testing.T) {
	deck := NewDeck()
	tableau, stock := Deal(deck)
	assert.Equal(t, Pile{deck[0]}, tableau[0])
	assert.Equal(t, Pile{deck[1], deck[2]}, tableau[1])
	assert.Equal(t, deck[21], tableau[6][0])
	assert.Equal(t, Pile(deck[28:]), stock)
}

func TestCanPlaceOnFoundation(t *testing.T) {
	tests := []struct {
		name       string
		card       Card
		foundation Pile
		want       bool
	}{
		{"ace on empty", card(Hearts, Ace), nil, true},
		{"non-ace on empty", card(Hearts, 2), nil, false},
		{"two of spades on ace of spades", card(Spades, 2), Pile{card(Spades, Ace)}, true},
		{"two of hearts on ace of spades", card(Hearts, 2), Pile{card(Spades, Ace)}, false},
		{"king on queen same suit", card(Clubs, King), Pile{card(Clubs, Jack), card(Clubs, Queen)}, true},
		{"skip a rank", card(Clubs, 3), Pile{card(Clubs, Ace)}, false},
		{"same rank", card(Clubs, Ace), Pile{card(Clubs, Ace)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanPlaceOnFoundation(tt.card, tt.foundation))
		})
	}
}

func TestCanPlaceOnTableau(t *testing.T) {
	tests := []struct {
		name    string
		card    Card
		tableau Pile
		want    bool
	}{
		{"king on empty", card(Spades, King), nil, true},
		{"queen on empty", card(Hearts, Queen), nil, false},
		{"red queen on black king", card(Hearts, Queen), Pile{card(Spades, King)}, true},
		{"black jack on black king", card(Clubs, Jack), Pile{card(Spades, King)}, false},
		{"red ten on black king", card(Diamonds, 10), Pile{card(Clubs, King)}, false},
		{"black queen on black king", card(Clubs, Queen), Pile{card(Spades, King)}, false},
		{"ace on red two", card(Spades, Ace), Pile{card(Hearts, 2)}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanPlaceOnTableau(tt.card, tt.tableau))
		})
	}
}

func TestCheckWin(t *testing.T) {
	var foundations [FoundationCount]Pile
	assert.False(t, CheckWin(foundations))

	for i, suit := range Suits {
		for r := Ace; r <= King; r++ {
			foundations[i] = append(foundations[i], card(suit, r))
		}
	}
	assert.True(t, CheckWin(foundations))

	foundations[3] = foundations[3][:12]
	assert.False(t, CheckWin(foundations))
}

func TestNewGameState(t *testing.T) {
	e := New(NewRand(7))
	v := e.Snapshot()
	assert.Equal(t, StatusInProgress, v.Status)
	assert.Equal(t, 0, v.Moves)
	assert.False(t, v.Won)
	assert.Nil(t, v.Selection)
	assert.Len(t, v.Stock, 24)
	assert.Empty(t, v.Discard)
	assert.False(t, CheckWin(v.Foundations))
}

func TestMoveDiscardToFoundation(t *testing.T) {
	e := inProgress()
	e.discard = Pile{card(Clubs, 9), card(Spades, 2)}
	e.foundations[1] = Pile{card(Spades, Ace)}
	e.tableau[3] = Pile{card(Hearts, 5)}
	e.stock = Pile{card(Diamonds, King)}
	before := e.Snapshot()

	res := e.MoveCard(Position{Pile: DiscardPile, Index: 1}, FoundationPile(1))
	require.True(t, res.OK(), "move rejected: %s", res.Reason)

	after := e.Snapshot()
	assert.Equal(t, Pile{card(Clubs, 9)}, after.Discard)
	assert.Equal(t, Pile{card(Spades, Ace), card(Spades, 2)}, after.Foundations[1])
	assert.Equal(t, before.Moves+1, after.Moves)
	assert.Equal(t, before.Tableau, after.Tableau)
	assert.Equal(t, before.Stock, after.Stock)
	for _, i := range []int{0, 2, 3} {
		assert.Equal(t, before.Foundations[i], after.Foundations[i])
	}
}

func TestIllegalMoveLeavesStateUnchanged(t *testing.T) {
	e := inProgress()
	e.discard = Pile{card(Hearts, 2)}
	e.foundations[0] = Pile{card(Spades, Ace)}
	e.tableau[0] = Pile{card(Spades, King)}
	before := e.Snapshot()

	res := e.MoveCard(Position{Pile: DiscardPile, Index: 0}, FoundationPile(0))
	assert.False(t, res.OK())
	assert.Equal(t, OutcomeRejected, res.Outcome)
	assert.Equal(t, ReasonFoundation, res.Reason)

	res = e.MoveCard(Position{Pile: DiscardPile, Index: 0}, TableauPile(0))
	assert.Equal(t, ReasonTableau, res.Reason)

	assert.Equal(t, before, e.Snapshot())
}

func TestMoveTableauToTableauRemovesFromSource(t *testing.T) {
	e := inProgress()
	e.tableau[1] = Pile{card(Clubs, 4), card(Hearts, Queen)}
	e.tableau[5] = Pile{card(Spades, King)}

	res := e.MoveCard(Position{Pile: TableauPile(1), Index: 1}, TableauPile(5))
	require.True(t, res.OK())

	assert.Equal(t, Pile{card(Clubs, 4)}, e.tableau[1])
	assert.Equal(t, Pile{card(Spades, King), card(Hearts, Queen)}, e.tableau[5])
	assert.Equal(t, 1, e.Moves())
}

func TestMoveKingToEmptyColumn(t *testing.T) {
	e := inProgress()
	e.tableau[0] = Pile{card(Diamonds, 3), card(Hearts, King)}

	res := e.MoveCard(Position{Pile: TableauPile(0), Index: 1}, TableauPile(4))
	require.True(t, res.OK())
	assert.Equal(t, Pile{card(Hearts, King)}, e.tableau[4])
}

func TestMoveSourceResolution(t *testing.T) {
	tests := []struct {
		name   string
		from   Position
		to     PileRef
		reason string
	}{
		{"mid-pile card", Position{Pile: TableauPile(2), Index: 0}, FoundationPile(0), ReasonNoSourceCard},
		{"index past top", Position{Pile: TableauPile(2), Index: 5}, FoundationPile(0), ReasonNoSourceCard},
		{"negative index", Position{Pile: DiscardPile, Index: -1}, FoundationPile(0), ReasonNoSourceCard},
		{"empty discard", Position{Pile: DiscardPile, Index: 0}, FoundationPile(0), ReasonNoSourceCard},
		{"column out of range", Position{Pile: TableauPile(9), Index: 0}, FoundationPile(0), ReasonNoSourceCard},
		{"from stock", Position{Pile: StockPile, Index: 0}, FoundationPile(0), ReasonBadSourcePile},
		{"from foundation", Position{Pile: FoundationPile(0), Index: 0}, TableauPile(0), ReasonBadSourcePile},
		{"onto stock", Position{Pile: TableauPile(2), Index: 1}, StockPile, ReasonBadTarget},
		{"onto discard", Position{Pile: TableauPile(2), Index: 1}, DiscardPile, ReasonBadTarget},
		{"onto missing foundation", Position{Pile: TableauPile(2), Index: 1}, FoundationPile(4), ReasonBadTarget},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := inProgress()
			e.tableau[2] = Pile{card(Clubs, 7), card(Hearts, Ace)}
			e.foundations[0] = Pile{card(Spades, Ace)}
			e.stock = Pile{card(Diamonds, Ace)}
			before := e.Snapshot()

			res := e.MoveCard(tt.from, tt.to)
			assert.Equal(t, OutcomeRejected, res.Outcome)
			assert.Equal(t, tt.reason, res.Reason)
			assert.Equal(t, before, e.Snapshot())
		})
	}
}

func TestDrawOrRecycle(t *testing.T) {
	e := inProgress()
	e.stock = Pile{card(Spades, 3), card(Hearts, 4), card(Clubs, 5)}

	res := e.DrawOrRecycle()
	assert.Equal(t, OutcomeDrawn, res.Outcome)
	assert.Equal(t, Pile{card(Hearts, 4), card(Clubs, 5)}, e.stock)
	assert.Equal(t, Pile{card(Spades, 3)}, e.discard)

	e.DrawOrRecycle()
	e.DrawOrRecycle()
	assert.Empty(t, e.stock)
	assert.Equal(t, Pile{card(Spades, 3), card(Hearts, 4), card(Clubs, 5)}, e.discard)
	assert.Equal(t, 3, e.Moves())

	res = e.DrawOrRecycle()
	assert.Equal(t, OutcomeRecycled, res.Outcome)
	assert.Equal(t, Pile{card(Clubs, 5), card(Hearts, 4), card(Spades, 3)}, e.stock)
	assert.Empty(t, e.discard)
	assert.Equal(t, 4, e.Moves())
}

func TestDrawWithBothPilesEmpty(t *testing.T) {
	e := inProgress()
	res := e.DrawOrRecycle()
	assert.Equal(t, OutcomeNoop, res.Outcome)
	assert.False(t, res.OK())
	assert.Equal(t, 0, e.Moves())
	assert.False(t, e.CanDraw())
}

func TestDrawFromFreshDeal(t *testing.T) {
	e := New(NewRand(3))
	for n := 24; n > 0; n-- {
		require.Len(t, e.stock, n)
		e.DrawOrRecycle()
		assert.Len(t, e.discard, 25-n)
	}
	e.DrawOrRecycle()
	assert.Len(t, e.stock, 24)
	assert.Empty(t, e.discard)
}

func TestSelectOrMove(t *testing.T) {
	e := inProgress()
	e.discard = Pile{card(Hearts, Ace)}
	e.tableau[0] = Pile{card(Clubs, 2), card(Spades, 9)}

	// Non-top cards are not selectable.
	res := e.SelectOrMove(TableauPile(0), 0)
	assert.Equal(t, OutcomeNoop, res.Outcome)
	_, ok := e.Selection()
	assert.False(t, ok)

	// Clicking the selected pile again deselects.
	res = e.SelectOrMove(TableauPile(0), 1)
	assert.Equal(t, OutcomeSelected, res.Outcome)
	res = e.SelectOrMove(TableauPile(0), 1)
	assert.Equal(t, OutcomeDeselected, res.Outcome)
	assert.Equal(t, 0, e.Moves())

	// A failed move clears the selection.
	e.SelectOrMove(TableauPile(0), 1)
	res = e.SelectOrMove(FoundationPile(0), 0)
	assert.Equal(t, OutcomeRejected, res.Outcome)
	_, ok = e.Selection()
	assert.False(t, ok)

	// A legal move goes through.
	e.SelectOrMove(DiscardPile, 0)
	sel, ok := e.Selection()
	require.True(t, ok)
	assert.Equal(t, Position{Pile: DiscardPile, Index: 0}, sel)
	res = e.SelectOrMove(FoundationPile(2), 0)
	assert.Equal(t, OutcomeMoved, res.Outcome)
	assert.Equal(t, Pile{card(Hearts, Ace)}, e.foundations[2])
	assert.Empty(t, e.discard)
}

func TestDrawClearsSelection(t *testing.T) {
	e := inProgress()
	e.discard = Pile{card(Hearts, Ace)}
	e.stock = Pile{card(Clubs, 4)}
	e.SelectOrMove(DiscardPile, 0)

	e.DrawOrRecycle()
	_, ok := e.Selection()
	assert.False(t, ok)
}

func TestWinIsStickyUntilNewGame(t *testing.T) {
	e := inProgress()
	for i, suit := range Suits {
		for r := Ace; r <= King; r++ {
			e.foundations[i] = append(e.foundations[i], card(suit, r))
		}
	}
	king := e.foundations[3][12]
	e.foundations[3] = e.foundations[3][:12]
	e.discard = Pile{king}

	res := e.MoveCard(Position{Pile: DiscardPile, Index: 0}, FoundationPile(3))
	require.True(t, res.OK())
	assert.True(t, e.Won())
	assert.Equal(t, StatusWon, e.Status())
	assert.Equal(t, DeckSize, e.FoundationCards())

	assert.Equal(t, ReasonGameWon, e.DrawOrRecycle().Reason)
	assert.Equal(t, ReasonGameWon, e.SelectOrMove(FoundationPile(0), 12).Reason)
	assert.Nil(t, e.ValidMoves())
	assert.True(t, e.Won())

	e.NewGame()
	assert.False(t, e.Won())
	assert.Equal(t, StatusInProgress, e.Status())
	assert.Equal(t, 0, e.Moves())
	assert.Equal(t, 0, e.FoundationCards())
}

func TestNewGameThenDrawAceToFoundation(t *testing.T) {
	ace := card(Diamonds, Ace)
	e := &Engine{}
	e.NewGameFromDeck(deckWith(t, map[int]Card{28: ace}))

	res := e.DrawOrRecycle()
	require.Equal(t, OutcomeDrawn, res.Outcome)
	top, ok := e.discard.Top()
	require.True(t, ok)
	require.Equal(t, ace, top)

	e.SelectOrMove(DiscardPile, e.discard.TopIndex())
	res = e.SelectOrMove(FoundationPile(1), 0)
	require.True(t, res.OK(), res.Reason)

	v := e.Snapshot()
	assert.False(t, CheckWin(v.Foundations))
	assert.Equal(t, 2, v.Moves)
	assert.Equal(t, Pile{ace}, v.Foundations[1])
}

func TestValidMoves(t *testing.T) {
	e := inProgress()
	e.discard = Pile{card(Hearts, Ace)}
	e.tableau[0] = Pile{card(Spades, King)}
	e.tableau[1] = Pile{card(Diamonds, Queen)}

	moves := e.ValidMoves()
	want := []Move{
		{From: Position{Pile: DiscardPile, Index: 0}, To: FoundationPile(0)},
		{From: Position{Pile: DiscardPile, Index: 0}, To: FoundationPile(1)},
		{From: Position{Pile: DiscardPile, Index: 0}, To: FoundationPile(2)},
		{From: Position{Pile: DiscardPile, Index: 0}, To: FoundationPile(3)},
		{From: Position{Pile: TableauPile(0), Index: 0}, To: TableauPile(2)},
		{From: Position{Pile: TableauPile(0), Index: 0}, To: TableauPile(3)},
		{From: Position{Pile: TableauPile(0), Index: 0}, To: TableauPile(4)},
		{From: Position{Pile: TableauPile(0), Index: 0}, To: TableauPile(5)},
		{From: Position{Pile: TableauPile(0), Index: 0}, To: TableauPile(6)},
		{From: Position{Pile: TableauPile(1), Index: 0}, To: TableauPile(0)},
	}
	if diff := cmp.Diff(want, moves); diff != "" {
		t.Fatalf("ValidMoves mismatch (-want +got):\n%s", diff)
	}
	for _, mv := range moves {
		c := e.Snapshot()
		probe := &Engine{status: StatusInProgress}
		probe.foundations, probe.tableau, probe.discard = c.Foundations, c.Tableau, c.Discard
		assert.True(t, probe.MoveCard(mv.From, mv.To).OK(), mv.String())
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	e := New(NewRand(11))
	v := e.Snapshot()
	original := v.Tableau[6][0]
	v.Tableau[6][0] = Card{}
	v.Stock = v.Stock[:0]
	assert.Len(t, e.Snapshot().Stock, 24)
	assert.Equal(t, original, e.Snapshot().Tableau[6][0])
}

func TestUnmarshalRejectsBrokenBoards(t *testing.T) {
	base := New(NewRand(5)).Snapshot()

	tests := []struct {
		name   string
		mutate func(v *View)
		want   string
	}{
		{"duplicate card", func(v *View) { v.Stock[0] = v.Tableau[0][0] }, "duplicate card"},
		{"missing card", func(v *View) { v.Stock = v.Stock[1:] }, "51 cards"},
		{"extra card", func(v *View) { v.Discard = Pile{v.Stock[0]} }, "duplicate card"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := New(NewRand(5)).Snapshot()
			tt.mutate(&v)
			data, err := json.Marshal(v)
			require.NoError(t, err)
			var e Engine
			assert.ErrorContains(t, e.UnmarshalJSON(data), tt.want)
		})
	}

	data, err := json.Marshal(base)
	require.NoError(t, err)
	var e Engine
	require.NoError(t, e.UnmarshalJSON(data))
	assert.Equal(t, base, e.Snapshot())
}

func TestUnmarshalDropsStaleSelection(t *testing.T) {
	tests := []struct {
		name string
		sel  Position
		keep bool
	}{
		{"top of column", Position{Pile: TableauPile(3), Index: 3}, true},
		{"buried card", Position{Pile: TableauPile(3), Index: 0}, false},
		{"empty discard", Position{Pile: DiscardPile, Index: 0}, false},
		{"stock", Position{Pile: StockPile, Index: 23}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := New(NewRand(8)).Snapshot()
			sel := tt.sel
			v.Selection = &sel
			data, err := json.Marshal(v)
			require.NoError(t, err)

			var e Engine
			require.NoError(t, e.UnmarshalJSON(data))
			got, ok := e.Selection()
			assert.Equal(t, tt.keep, ok)
			if tt.keep {
				assert.Equal(t, tt.sel, got)
			}
		})
	}
}
