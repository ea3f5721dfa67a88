package game

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lox/homegame/poker"
)

// stackedDeck deals tokens first, then the rest of the 52 cards in order.
func stackedDeck(t *testing.T, tokens string) *poker.Deck {
	t.Helper()
	top, err := poker.ParseCards(tokens)
	require.NoError(t, err)

	used := poker.NewHand(top...)
	cards := append([]poker.Card(nil), top...)
	for suit := range uint8(4) {
		for rank := range uint8(13) {
			c := poker.NewCard(rank, suit)
			if !used.HasCard(c) {
				cards = append(cards, c)
			}
		}
	}
	deck, err := poker.NewStackedDeck(cards...)
	require.NoError(t, err)
	return deck
}

// threeHanded seats Alice, Bob and Carol at 1, 3 and 5 with 100 chips each.
// With no previous dealer Alice deals, Bob posts the small blind, Carol the
// big blind, and hole cards go Bob, Carol, Alice, Bob, Carol, Alice.
func threeHanded() map[int]Occupant {
	return map[int]Occupant{
		1: {ID: "alice", Name: "Alice", Stack: 100},
		3: {ID: "bob", Name: "Bob", Stack: 100},
		5: {ID: "carol", Name: "Carol", Stack: 100},
	}
}

func startHand(t *testing.T, seats map[int]Occupant, tokens string, opts ...StartOption) *Hand {
	t.Helper()
	opts = append([]StartOption{WithDeck(stackedDeck(t, tokens)), WithHandID("hand-1")}, opts...)
	h, err := Start(nil, seats, opts...)
	require.NoError(t, err)
	require.NoError(t, h.Validate())
	return h
}

// play applies each step in order, checking invariants after every one.
func play(t *testing.T, h *Hand, steps ...step) *Hand {
	t.Helper()
	for _, s := range steps {
		next, err := Apply(h, s.id, s.action)
		require.NoError(t, err, "%s %s on the %s", s.id, s.action, h.Street)
		require.NoError(t, next.Validate())
		require.Equal(t, h.StartingChips, chipsInPlay(next))
		h = next
	}
	return h
}

type step struct {
	id     string
	action Action
}

func fold(id string) step          { return step{id, Action{Kind: Fold}} }
func check(id string) step         { return step{id, Action{Kind: Check}} }
func call(id string) step          { return step{id, Action{Kind: Call}} }
func raise(id string, to int) step { return step{id, RaiseTo(to)} }
func shove(id string) step         { return step{id, Action{Kind: AllIn}} }

func chipsInPlay(h *Hand) int {
	total := h.Pot
	for _, p := range h.Players {
		total += p.Stack
	}
	return total
}
