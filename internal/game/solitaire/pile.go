package solitaire

import (
	"fmt"
	"strconv"
	"strings"
)

// PileKind distinguishes the four kinds of pile on the board.
type PileKind uint8

const (
	Foundation PileKind = iota + 1
	Tableau
	Stock
	Discard
)

// FoundationCount is the number of foundation piles.
const FoundationCount = 4

func (k PileKind) String() string {
	switch k {
	case Foundation:
		return "foundation"
	case Tableau:
		return "tableau"
	case Stock:
		return "stock"
	case Discard:
		return "discard"
	}
	return "unknown"
}

// PileRef addresses a single pile. Index is meaningful for Foundation
// (0..3) and Tableau (0..6) only.
type PileRef struct {
	Kind  PileKind
	Index int
}

// FoundationPile addresses foundation i.
func FoundationPile(i int) PileRef { return PileRef{Kind: Foundation, Index: i} }

// TableauPile addresses tableau column i.
func TableauPile(i int) PileRef { return PileRef{Kind: Tableau, Index: i} }

var (
	StockPile   = PileRef{Kind: Stock}
	DiscardPile = PileRef{Kind: Discard}
)

// Valid reports whether the reference names an existing pile.
func (p PileRef) Valid() bool {
	switch p.Kind {
	case Foundation:
		return p.Index >= 0 && p.Index < FoundationCount
	case Tableau:
		return p.Index >= 0 && p.Index < TableauColumns
	case Stock, Discard:
		return true
	}
	return false
}

func (p PileRef) String() string {
	switch p.Kind {
	case Foundation, Tableau:
		return p.Kind.String() + strconv.Itoa(p.Index)
	case Stock, Discard:
		return p.Kind.String()
	}
	return "unknown"
}

// ParsePileRef reads the wire form produced by String: "foundation0",
// "tableau6", "stock", "discard". "waste" is accepted as an alias of discard.
func ParsePileRef(s string) (PileRef, error) {
	switch s {
	case "stock":
		return StockPile, nil
	case "discard", "waste":
		return DiscardPile, nil
	}
	for _, kind := range []PileKind{Foundation, Tableau} {
		prefix := kind.String()
		if !strings.HasPrefix(s, prefix) {
			continue
		}
		i, err := strconv.Atoi(s[len(prefix):])
		if err != nil {
			return PileRef{}, fmt.Errorf("invalid pile %q", s)
		}
		ref := PileRef{Kind: kind, Index: i}
		if !ref.Valid() {
			return PileRef{}, fmt.Errorf("pile %q out of range", s)
		}
		return ref, nil
	}
	return PileRef{}, fmt.Errorf("invalid pile %q", s)
}

func (p PileRef) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("invalid pile reference %+v", p)
	}
	return []byte(p.String()), nil
}

func (p *PileRef) UnmarshalText(text []byte) error {
	ref, err := ParsePileRef(string(text))
	if err != nil {
		return err
	}
	*p = ref
	return nil
}

// Position is a card location: a pile plus an index into it.
type Position struct {
	Pile  PileRef `json:"pile"`
	Index int     `json:"index"`
}

func (p Position) String() string { return fmt.Sprintf("%s[%d]", p.Pile, p.Index) }

// Pile is an ordered sequence of cards; the last element is the top.
type Pile []Card

// Top returns the top card, if any.
func (p Pile) Top() (Card, bool) {
	if len(p) == 0 {
		return Card{}, false
	}
	return p[len(p)-1], true
}

// TopIndex is the index of the top card, or -1 for an empty pile.
func (p Pile) TopIndex() int { return len(p) - 1 }

func (p Pile) clone() Pile {
	if p == nil {
		return Pile{}
	}
	return append(Pile{}, p...)
}
