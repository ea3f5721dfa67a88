package game

import (
	"github.com/lox/homegame/poker"
)

// StartOption configures a hand during Start.
type StartOption func(*startConfig)

type startConfig struct {
	smallBlind     int
	bigBlind       int
	previousDealer int         // 0 when no hand has been dealt at this table
	number         int         // Default: 1
	deck           *poker.Deck // If provided, used instead of shuffling a new deck
	id             string
}

func defaultStartConfig() startConfig {
	return startConfig{
		smallBlind: 1,
		bigBlind:   2,
		number:     1,
	}
}

// WithBlinds sets the blind amounts. Default is 1/2.
func WithBlinds(small, big int) StartOption {
	return func(c *startConfig) {
		c.smallBlind = small
		c.bigBlind = big
	}
}

// WithPreviousDealer rotates the button on from the given seat. Without it the
// lowest occupied seat deals.
func WithPreviousDealer(seat int) StartOption {
	return func(c *startConfig) {
		c.previousDealer = seat
	}
}

// WithHandNumber sets the table's running hand number.
func WithHandNumber(n int) StartOption {
	return func(c *startConfig) {
		c.number = n
	}
}

// WithDeck deals from a pre-arranged deck instead of shuffling a fresh one.
// The deck is consumed by the hand.
func WithDeck(deck *poker.Deck) StartOption {
	return func(c *startConfig) {
		c.deck = deck
	}
}

// WithHandID sets the hand identifier instead of generating a random one.
func WithHandID(id string) StartOption {
	return func(c *startConfig) {
		c.id = id
	}
}
