package poker

import (
	"encoding/json"
	"errors"
	"fmt"
	rand "math/rand/v2"
)

// ErrDeckExhausted is returned when a draw is attempted on an empty deck.
var ErrDeckExhausted = errors.New("deck exhausted")

// Deck is the ordered remainder of a 52-card deck. Cards are drawn from the front.
type Deck struct {
	cards []Card
}

// NewDeck creates a full deck shuffled with rng.
func NewDeck(rng *rand.Rand) *Deck {
	d := &Deck{cards: make([]Card, 0, 52)}
	for suit := range uint8(4) {
		for rank := range uint8(13) {
			d.cards = append(d.cards, NewCard(rank, suit))
		}
	}
	d.Shuffle(rng)
	return d
}

// NewStackedDeck returns a deck that deals cards in exactly the given order.
// Intended for deterministic tests and replays.
func NewStackedDeck(cards ...Card) (*Deck, error) {
	if !Distinct(cards...) {
		return nil, fmt.Errorf("%w: stacked deck repeats a card", ErrInvalidCard)
	}
	for _, c := range cards {
		if !c.Valid() {
			return nil, fmt.Errorf("%w: stacked deck holds %#x", ErrInvalidCard, uint64(c))
		}
	}
	return &Deck{cards: append([]Card(nil), cards...)}, nil
}

// Shuffle shuffles the remaining cards using Fisher-Yates
func (d *Deck) Shuffle(rng *rand.Rand) {
	for i := len(d.cards) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	}
}

// Draw removes and returns the next card.
func (d *Deck) Draw() (Card, error) {
	if len(d.cards) == 0 {
		return 0, ErrDeckExhausted
	}
	c := d.cards[0]
	d.cards = d.cards[1:]
	return c, nil
}

// Deal draws n cards. Nothing is consumed when fewer than n remain.
func (d *Deck) Deal(n int) ([]Card, error) {
	if n > len(d.cards) {
		return nil, fmt.Errorf("%w: need %d, have %d", ErrDeckExhausted, n, len(d.cards))
	}
	out := append([]Card(nil), d.cards[:n]...)
	d.cards = d.cards[n:]
	return out, nil
}

// Remove takes the given cards out of the deck wherever they are.
func (d *Deck) Remove(cards ...Card) {
	drop := NewHand(cards...)
	kept := d.cards[:0]
	for _, c := range d.cards {
		if !drop.HasCard(c) {
			kept = append(kept, c)
		}
	}
	d.cards = kept
}

// Return puts cards back at the bottom of the deck.
func (d *Deck) Return(cards ...Card) {
	d.cards = append(d.cards, cards...)
}

// Contains reports whether c is still in the deck.
func (d *Deck) Contains(c Card) bool {
	for _, dc := range d.cards {
		if dc == c {
			return true
		}
	}
	return false
}

// Remaining returns the number of cards left in the deck
func (d *Deck) Remaining() int {
	return len(d.cards)
}

// Clone returns an independent copy of the deck.
func (d *Deck) Clone() *Deck {
	if d == nil {
		return nil
	}
	return &Deck{cards: append([]Card(nil), d.cards...)}
}

// MarshalJSON encodes the remaining cards as tokens in deal order.
func (d *Deck) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.cards)
}

// UnmarshalJSON restores a deck previously written by MarshalJSON.
func (d *Deck) UnmarshalJSON(data []byte) error {
	var cards []Card
	if err := json.Unmarshal(data, &cards); err != nil {
		return err
	}
	d.cards = cards
	return nil
}
