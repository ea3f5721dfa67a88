package poker

import (
	"errors"
	"fmt"
	"math/bits"
	"strings"
)

// ErrInvalidCard is returned for any token that is not a rank followed by a suit.
var ErrInvalidCard = errors.New("invalid card")

// Card represents a single card as a bit position in a uint64.
// Layout: [13 spades][13 hearts][13 diamonds][13 clubs]
type Card uint64

// Hand is a set of cards, one bit per card.
type Hand uint64

// Suit constants
const (
	Clubs    uint8 = 0
	Diamonds uint8 = 1
	Hearts   uint8 = 2
	Spades   uint8 = 3
)

// Rank constants (0-12 for 2-A)
const (
	Two   uint8 = 0
	Three uint8 = 1
	Four  uint8 = 2
	Five  uint8 = 3
	Six   uint8 = 4
	Seven uint8 = 5
	Eight uint8 = 6
	Nine  uint8 = 7
	Ten   uint8 = 8
	Jack  uint8 = 9
	Queen uint8 = 10
	King  uint8 = 11
	Ace   uint8 = 12
)

const (
	rankChars = "23456789TJQKA"
	suitChars = "CDHS"
)

// NewCard creates a card from rank and suit.
func NewCard(rank, suit uint8) Card {
	return Card(1) << (suit*13 + rank)
}

// Valid reports whether c holds exactly one of the 52 card bits.
func (c Card) Valid() bool {
	return c != 0 && bits.OnesCount64(uint64(c)) == 1 && bits.TrailingZeros64(uint64(c)) < 52
}

func (c Card) position() uint8 {
	if !c.Valid() {
		return 255
	}
	return uint8(bits.TrailingZeros64(uint64(c)))
}

// Rank returns the rank of the card (0-12), or 255 for an invalid card.
func (c Card) Rank() uint8 {
	pos := c.position()
	if pos == 255 {
		return 255
	}
	return pos % 13
}

// Suit returns the suit of the card (0-3), or 255 for an invalid card.
func (c Card) Suit() uint8 {
	pos := c.position()
	if pos == 255 {
		return 255
	}
	return pos / 13
}

// String returns the canonical token, e.g. "AS" or "TD".
func (c Card) String() string {
	if !c.Valid() {
		return "??"
	}
	return string(rankChars[c.Rank()]) + string(suitChars[c.Suit()])
}

// MarshalText encodes the card as its token.
func (c Card) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("%w: bit pattern %#x", ErrInvalidCard, uint64(c))
	}
	return []byte(c.String()), nil
}

// UnmarshalText decodes a card token.
func (c *Card) UnmarshalText(text []byte) error {
	parsed, err := ParseCard(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseCard parses a token like "AS" into a Card. Surrounding whitespace and
// lower-case input are accepted; the rank must come first.
func ParseCard(s string) (Card, error) {
	token := strings.ToUpper(strings.TrimSpace(s))
	if len(token) != 2 {
		return 0, fmt.Errorf("%w: %q must be 2 characters", ErrInvalidCard, s)
	}

	rank := strings.IndexByte(rankChars, token[0])
	if rank < 0 {
		return 0, fmt.Errorf("%w: invalid rank %q", ErrInvalidCard, token[0])
	}
	suit := strings.IndexByte(suitChars, token[1])
	if suit < 0 {
		return 0, fmt.Errorf("%w: invalid suit %q", ErrInvalidCard, token[1])
	}

	return NewCard(uint8(rank), uint8(suit)), nil
}

// ParseCards parses a whitespace separated list of tokens such as "AS KD QH".
func ParseCards(s string) ([]Card, error) {
	return ParseTokens(strings.Fields(s))
}

// ParseTokens parses each token in order.
func ParseTokens(tokens []string) ([]Card, error) {
	cards := make([]Card, 0, len(tokens))
	for _, tok := range tokens {
		c, err := ParseCard(tok)
		if err != nil {
			return nil, err
		}
		cards = append(cards, c)
	}
	return cards, nil
}

// Tokens returns the canonical token for each card.
func Tokens(cards []Card) []string {
	out := make([]string, len(cards))
	for i, c := range cards {
		out[i] = c.String()
	}
	return out
}

// FormatCards joins the canonical tokens with single spaces.
func FormatCards(cards []Card) string {
	return strings.Join(Tokens(cards), " ")
}

// NewHand creates a hand from multiple cards
func NewHand(cards ...Card) Hand {
	var h Hand
	for _, c := range cards {
		h |= Hand(c)
	}
	return h
}

// AddCard adds a card to the hand
func (h *Hand) AddCard(c Card) {
	*h |= Hand(c)
}

// HasCard checks if the hand contains a specific card
func (h Hand) HasCard(c Card) bool {
	return (h & Hand(c)) != 0
}

// CountCards returns the number of cards in the hand
func (h Hand) CountCards() int {
	return bits.OnesCount64(uint64(h))
}

// GetSuitMask returns the cards of a specific suit as a rank bitmask
func (h Hand) GetSuitMask(suit uint8) uint16 {
	return uint16((h >> (suit * 13)) & 0x1FFF)
}

// RankMask returns a bitmask of the ranks present in any suit.
func (h Hand) RankMask() uint16 {
	var mask uint16
	for suit := range uint8(4) {
		mask |= h.GetSuitMask(suit)
	}
	return mask
}

// Cards lists the cards in the hand, lowest bit first.
func (h Hand) Cards() []Card {
	out := make([]Card, 0, h.CountCards())
	for rest := uint64(h); rest != 0; rest &= rest - 1 {
		out = append(out, Card(rest&-rest))
	}
	return out
}

// Distinct reports whether no card appears twice in cards.
func Distinct(cards ...Card) bool {
	var seen Hand
	for _, c := range cards {
		if seen.HasCard(c) {
			return false
		}
		seen.AddCard(c)
	}
	return true
}
