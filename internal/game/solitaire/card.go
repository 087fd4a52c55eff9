package solitaire

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Suit is one of the four card suits.
type Suit string

const (
	Spades   Suit = "♠"
	Hearts   Suit = "♥"
	Diamonds Suit = "♦"
	Clubs    Suit = "♣"
)

// Suits lists the suits in deck-building order.
var Suits = [4]Suit{Spades, Hearts, Diamonds, Clubs}

// Valid reports whether s is one of the four suits.
func (s Suit) Valid() bool {
	switch s {
	case Spades, Hearts, Diamonds, Clubs:
		return true
	}
	return false
}

// Color is the derived color of a suit.
type Color string

const (
	Red   Color = "red"
	Black Color = "black"
)

// Rank is a card rank, Ace=1 through King=13.
type Rank int

const (
	Ace   Rank = 1
	Jack  Rank = 11
	Queen Rank = 12
	King  Rank = 13
)

func (r Rank) String() string {
	switch r {
	case Ace:
		return "A"
	case Jack:
		return "J"
	case Queen:
		return "Q"
	case King:
		return "K"
	}
	return strconv.Itoa(int(r))
}

// Valid reports whether r is within Ace..King.
func (r Rank) Valid() bool { return r >= Ace && r <= King }

func (r Rank) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("invalid rank %d", int(r))
	}
	return []byte(r.String()), nil
}

func (r *Rank) UnmarshalText(text []byte) error {
	parsed, err := ParseRank(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// ParseRank parses "A", "2".."10", "J", "Q" or "K".
func ParseRank(s string) (Rank, error) {
	switch s {
	case "A":
		return Ace, nil
	case "J":
		return Jack, nil
	case "Q":
		return Queen, nil
	case "K":
		return King, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 2 || n > 10 {
		return 0, fmt.Errorf("invalid rank %q", s)
	}
	return Rank(n), nil
}

// Card is an immutable playing card.
type Card struct {
	Suit Suit
	Rank Rank
}

// Color derives red for hearts and diamonds, black otherwise.
func (c Card) Color() Color {
	if c.Suit == Hearts || c.Suit == Diamonds {
		return Red
	}
	return Black
}

// ID is unique across the 52-card universe.
func (c Card) ID() string { return string(c.Suit) + c.Rank.String() }

func (c Card) String() string { return c.ID() }

type cardJSON struct {
	Suit  Suit   `json:"suit"`
	Rank  Rank   `json:"rank"`
	Color Color  `json:"color,omitempty"`
	ID    string `json:"id,omitempty"`
}

func (c Card) MarshalJSON() ([]byte, error) {
	return json.Marshal(cardJSON{Suit: c.Suit, Rank: c.Rank, Color: c.Color(), ID: c.ID()})
}

func (c *Card) UnmarshalJSON(data []byte) error {
	var cj cardJSON
	if err := json.Unmarshal(data, &cj); err != nil {
		return err
	}
	if !cj.Suit.Valid() {
		return fmt.Errorf("invalid suit %q", cj.Suit)
	}
	c.Suit = cj.Suit
	c.Rank = cj.Rank
	return nil
}
