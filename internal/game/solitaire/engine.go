package solitaire

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
)

// Status is the engine's lifecycle state.
type Status string

const (
	StatusDealing    Status = "dealing"
	StatusInProgress Status = "in_progress"
	StatusWon        Status = "won"
)

// Outcome classifies what an engine operation did.
type Outcome string

const (
	OutcomeMoved      Outcome = "moved"
	OutcomeDrawn      Outcome = "drawn"
	OutcomeRecycled   Outcome = "recycled"
	OutcomeSelected   Outcome = "selected"
	OutcomeDeselected Outcome = "deselected"
	OutcomeRejected   Outcome = "rejected"
	OutcomeNoop       Outcome = "noop"
)

// Rejection reasons reported in MoveResult.Reason.
const (
	ReasonNoSourceCard  = "no movable card at source"
	ReasonBadSourcePile = "cards can only be moved from the discard pile or a tableau column"
	ReasonBadTarget     = "cards can only be moved to a foundation or a tableau column"
	ReasonFoundation    = "card does not continue the foundation"
	ReasonTableau       = "card does not continue the tableau column"
	ReasonGameWon       = "game already won"
	ReasonPilesEmpty    = "stock and discard are both empty"
)

// MoveResult reports the effect of an operation. Illegal moves are results,
// never errors: the state is left untouched.
type MoveResult struct {
	Outcome Outcome `json:"outcome"`
	Reason  string  `json:"reason,omitempty"`
}

// OK reports whether the operation mutated the piles.
func (r MoveResult) OK() bool {
	switch r.Outcome {
	case OutcomeMoved, OutcomeDrawn, OutcomeRecycled:
		return true
	}
	return false
}

func rejected(reason string) MoveResult {
	return MoveResult{Outcome: OutcomeRejected, Reason: reason}
}

// Engine owns the full Klondike game state. It is not safe for concurrent
// use; callers serialize access (the session lock does this on the server).
type Engine struct {
	foundations [FoundationCount]Pile
	tableau     [TableauColumns]Pile
	stock       Pile
	discard     Pile
	moves       int
	status      Status
	selection   *Position
	rng         *rand.Rand
}

// New creates an engine and deals a first game from rng.
func New(rng *rand.Rand) *Engine {
	e := &Engine{rng: rng}
	e.NewGame()
	return e
}

// NewGame discards the current state and deals a freshly shuffled deck.
func (e *Engine) NewGame() {
	if e.rng == nil {
		e.rng = NewRand(0)
	}
	e.NewGameFromDeck(NewShuffledDeck(e.rng))
}

// NewGameFromDeck discards the current state and deals deck as given.
func (e *Engine) NewGameFromDeck(deck Deck) {
	e.status = StatusDealing
	e.foundations = [FoundationCount]Pile{}
	e.discard = nil
	e.selection = nil
	e.moves = 0
	e.tableau, e.stock = Deal(deck)
	e.status = StatusInProgress
}

// Moves is the number of successful mutations since the deal.
func (e *Engine) Moves() int { return e.moves }

// Status returns the lifecycle state.
func (e *Engine) Status() Status { return e.status }

// Won reports whether the game reached its terminal state.
func (e *Engine) Won() bool { return e.status == StatusWon }

// Selection returns the pending selection, if any.
func (e *Engine) Selection() (Position, bool) {
	if e.selection == nil {
		return Position{}, false
	}
	return *e.selection, true
}

func (e *Engine) pile(ref PileRef) *Pile {
	if !ref.Valid() {
		return nil
	}
	switch ref.Kind {
	case Foundation:
		return &e.foundations[ref.Index]
	case Tableau:
		return &e.tableau[ref.Index]
	case Stock:
		return &e.stock
	case Discard:
		return &e.discard
	}
	return nil
}

// sourceCard resolves a legal move source: the top card of the discard pile
// or of a tableau column.
func (e *Engine) sourceCard(from Position) (Card, MoveResult, bool) {
	switch from.Pile.Kind {
	case Discard, Tableau:
	default:
		return Card{}, rejected(ReasonBadSourcePile), false
	}
	p := e.pile(from.Pile)
	if p == nil || len(*p) == 0 || from.Index != p.TopIndex() {
		return Card{}, rejected(ReasonNoSourceCard), false
	}
	return (*p)[from.Index], MoveResult{}, true
}

// MoveCard moves the card at from onto the pile to, if the placement rules
// allow it.
func (e *Engine) MoveCard(from Position, to PileRef) MoveResult {
	if e.status == StatusWon {
		return rejected(ReasonGameWon)
	}
	card, res, ok := e.sourceCard(from)
	if !ok {
		return res
	}
	dst := e.pile(to)
	if dst == nil {
		return rejected(ReasonBadTarget)
	}
	if from.Pile == to {
		return rejected(ReasonBadTarget)
	}
	switch to.Kind {
	case Foundation:
		if !CanPlaceOnFoundation(card, *dst) {
			return rejected(ReasonFoundation)
		}
	case Tableau:
		if !CanPlaceOnTableau(card, *dst) {
			return rejected(ReasonTableau)
		}
	default:
		return rejected(ReasonBadTarget)
	}

	src := e.pile(from.Pile)
	*dst = append(*dst, card)
	*src = (*src)[:len(*src)-1]
	e.moves++
	e.checkWin()
	return MoveResult{Outcome: OutcomeMoved}
}

// SelectOrMove is the click handler: with nothing selected it selects the
// top card at (pile, index); with a selection it either deselects (same
// pile) or attempts the move, clearing the selection either way.
func (e *Engine) SelectOrMove(ref PileRef, index int) MoveResult {
	if e.status == StatusWon {
		e.selection = nil
		return rejected(ReasonGameWon)
	}
	if e.selection == nil {
		pos := Position{Pile: ref, Index: index}
		if _, _, ok := e.sourceCard(pos); !ok {
			return MoveResult{Outcome: OutcomeNoop}
		}
		e.selection = &pos
		return MoveResult{Outcome: OutcomeSelected}
	}

	from := *e.selection
	e.selection = nil
	if from.Pile == ref {
		return MoveResult{Outcome: OutcomeDeselected}
	}
	return e.MoveCard(from, ref)
}

// ClearSelection drops any pending selection.
func (e *Engine) ClearSelection() { e.selection = nil }

// DrawOrRecycle turns one card from the stock onto the discard pile, or,
// when the stock is exhausted, turns the discard pile over to form a new
// stock.
func (e *Engine) DrawOrRecycle() MoveResult {
	if e.status == StatusWon {
		return rejected(ReasonGameWon)
	}
	e.selection = nil
	switch {
	case len(e.stock) > 0:
		e.discard = append(e.discard, e.stock[0])
		e.stock = e.stock[1:]
		e.moves++
		return MoveResult{Outcome: OutcomeDrawn}
	case len(e.discard) > 0:
		stock := make(Pile, len(e.discard))
		for i, c := range e.discard {
			stock[len(e.discard)-1-i] = c
		}
		e.stock = stock
		e.discard = nil
		e.moves++
		return MoveResult{Outcome: OutcomeRecycled}
	}
	return MoveResult{Outcome: OutcomeNoop, Reason: ReasonPilesEmpty}
}

func (e *Engine) checkWin() {
	if CheckWin(e.foundations) {
		e.status = StatusWon
	}
}

// FoundationCards is the number of cards on the foundations.
func (e *Engine) FoundationCards() int {
	n := 0
	for _, f := range e.foundations {
		n += len(f)
	}
	return n
}

// Move is a legal single-card move.
type Move struct {
	From Position `json:"from"`
	To   PileRef  `json:"to"`
}

func (m Move) String() string { return fmt.Sprintf("%s -> %s", m.From, m.To) }

// ValidMoves lists every legal move from the current state, foundations
// first.
func (e *Engine) ValidMoves() []Move {
	if e.status != StatusInProgress {
		return nil
	}
	sources := make([]Position, 0, TableauColumns+1)
	if len(e.discard) > 0 {
		sources = append(sources, Position{Pile: DiscardPile, Index: e.discard.TopIndex()})
	}
	for i, col := range e.tableau {
		if len(col) > 0 {
			sources = append(sources, Position{Pile: TableauPile(i), Index: col.TopIndex()})
		}
	}

	var moves []Move
	for _, from := range sources {
		card := (*e.pile(from.Pile))[from.Index]
		for i, f := range e.foundations {
			if CanPlaceOnFoundation(card, f) {
				moves = append(moves, Move{From: from, To: FoundationPile(i)})
			}
		}
	}
	for _, from := range sources {
		card := (*e.pile(from.Pile))[from.Index]
		for i, col := range e.tableau {
			to := TableauPile(i)
			if to == from.Pile {
				continue
			}
			if CanPlaceOnTableau(card, col) {
				moves = append(moves, Move{From: from, To: to})
			}
		}
	}
	return moves
}

// CanDraw reports whether DrawOrRecycle would change anything.
func (e *Engine) CanDraw() bool {
	return e.status == StatusInProgress && (len(e.stock) > 0 || len(e.discard) > 0)
}

// View is a read-only copy of the engine state.
type View struct {
	Foundations [FoundationCount]Pile `json:"foundations"`
	Tableau     [TableauColumns]Pile  `json:"tableau"`
	Stock       Pile                  `json:"stock"`
	Discard     Pile                  `json:"discard"`
	Moves       int                   `json:"moves"`
	Status      Status                `json:"status"`
	Won         bool                  `json:"won"`
	Selection   *Position             `json:"selection,omitempty"`
}

// Snapshot copies the current state; mutating it does not affect the engine.
func (e *Engine) Snapshot() View {
	v := View{
		Stock:   e.stock.clone(),
		Discard: e.discard.clone(),
		Moves:   e.moves,
		Status:  e.status,
		Won:     e.status == StatusWon,
	}
	for i, f := range e.foundations {
		v.Foundations[i] = f.clone()
	}
	for i, col := range e.tableau {
		v.Tableau[i] = col.clone()
	}
	if e.selection != nil {
		sel := *e.selection
		v.Selection = &sel
	}
	return v
}

// MarshalJSON persists the full state. The random source is not persisted;
// a restored engine reseeds on its next NewGame.
func (e *Engine) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.Snapshot())
}

// UnmarshalJSON restores a persisted state. The piles must hold each card of
// the deck exactly once; a selection that no longer names a movable card is
// dropped.
func (e *Engine) UnmarshalJSON(data []byte) error {
	var v View
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch v.Status {
	case StatusInProgress, StatusWon:
	default:
		return fmt.Errorf("invalid engine status %q", v.Status)
	}
	if err := v.checkCards(); err != nil {
		return err
	}
	e.foundations = v.Foundations
	e.tableau = v.Tableau
	e.stock = v.Stock
	e.discard = v.Discard
	e.moves = v.Moves
	e.status = v.Status
	e.selection = v.Selection
	if e.selection != nil {
		if _, _, ok := e.sourceCard(*e.selection); !ok || e.status == StatusWon {
			e.selection = nil
		}
	}
	return nil
}

// checkCards requires the piles of v to hold the 52-card deck, each card once.
func (v View) checkCards() error {
	seen := make(map[Card]bool, DeckSize)
	add := func(p Pile) error {
		for _, c := range p {
			if !c.Suit.Valid() || !c.Rank.Valid() {
				return fmt.Errorf("invalid card %s", c)
			}
			if seen[c] {
				return fmt.Errorf("duplicate card %s", c)
			}
			seen[c] = true
		}
		return nil
	}
	piles := []Pile{v.Stock, v.Discard}
	piles = append(piles, v.Foundations[:]...)
	piles = append(piles, v.Tableau[:]...)
	for _, p := range piles {
		if err := add(p); err != nil {
			return err
		}
	}
	if len(seen) != DeckSize {
		return fmt.Errorf("board holds %d cards, want %d", len(seen), DeckSize)
	}
	return nil
}
