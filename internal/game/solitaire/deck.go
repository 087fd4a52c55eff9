package solitaire

import "math/rand/v2"

// DeckSize is the number of cards in a full deck.
const DeckSize = 52

// Deck is an ordered sequence of cards.
type Deck []Card

// NewDeck returns the 52-card universe in suit-major order.
func NewDeck() Deck {
	deck := make(Deck, 0, DeckSize)
	for _, suit := range Suits {
		for rank := Ace; rank <= King; rank++ {
			deck = append(deck, Card{Suit: suit, Rank: rank})
		}
	}
	return deck
}

// Shuffle applies a Fisher–Yates permutation in place.
func (d Deck) Shuffle(rng *rand.Rand) {
	for i := len(d) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		d[i], d[j] = d[j], d[i]
	}
}

// NewShuffledDeck builds a full deck and shuffles it with rng.
func NewShuffledDeck(rng *rand.Rand) Deck {
	d := NewDeck()
	d.Shuffle(rng)
	return d
}

// NewRand returns a seeded random source. A zero seed draws one from the
// runtime's entropy.
func NewRand(seed int64) *rand.Rand {
	if seed == 0 {
		return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15))
}

// TableauColumns is the number of tableau piles.
const TableauColumns = 7

// Deal lays a deck out triangularly: column k takes k+1 cards from the front
// of the deck. Whatever remains becomes the stock, in deck order.
func Deal(deck Deck) (tableau [TableauColumns]Pile, stock Pile) {
	next := 0
	for col := 0; col < TableauColumns; col++ {
		for row := 0; row <= col && next < len(deck); row++ {
			tableau[col] = append(tableau[col], deck[next])
			next++
		}
	}
	stock = append(Pile{}, deck[next:]...)
	return tableau, stock
}
