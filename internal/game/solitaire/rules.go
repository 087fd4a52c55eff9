package solitaire

// CanPlaceOnFoundation reports whether card may land on the foundation:
// an Ace on an empty pile, otherwise the next rank of the same suit.
func CanPlaceOnFoundation(card Card, foundation Pile) bool {
	top, ok := foundation.Top()
	if !ok {
		return card.Rank == Ace
	}
	return card.Suit == top.Suit && card.Rank == top.Rank+1
}

// CanPlaceOnTableau reports whether card may land on the tableau column:
// a King on an empty column, otherwise one rank lower in the opposite color.
func CanPlaceOnTableau(card Card, tableau Pile) bool {
	top, ok := tableau.Top()
	if !ok {
		return card.Rank == King
	}
	return card.Color() != top.Color() && card.Rank == top.Rank-1
}

// CheckWin reports whether every card has reached the foundations.
func CheckWin(foundations [FoundationCount]Pile) bool {
	total := 0
	for _, f := range foundations {
		total += len(f)
	}
	return total == DeckSize
}
