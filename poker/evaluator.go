package poker

import (
	"math/bits"
	"slices"
)

// Category enumerates the ten hand categories ordered from weakest to strongest.
type Category uint8

const (
	HighCard Category = iota
	OnePair
	TwoPair
	ThreeOfAKind
	Straight
	Flush
	FullHouse
	FourOfAKind
	StraightFlush
	RoyalFlush
)

var categoryNames = [...]string{
	"High Card",
	"One Pair",
	"Two Pair",
	"Three of a Kind",
	"Straight",
	"Flush",
	"Full House",
	"Four of a Kind",
	"Straight Flush",
	"Royal Flush",
}

// String returns a human-readable category name.
func (c Category) String() string {
	if int(c) < len(categoryNames) {
		return categoryNames[c]
	}
	return "Unknown"
}

// Score orders evaluated hands. Lower values are stronger, equal values tie.
//
// Bits 20 and up hold the category distance from a royal flush; the low 20
// bits hold up to five kicker nibbles, most significant first, each stored as
// (Ace - rank) so that higher kickers produce smaller scores.
type Score uint32

// Category extracts the hand category encoded in the score.
func (s Score) Category() Category {
	return RoyalFlush - Category(s>>20)
}

// Value is the result of classifying five cards.
type Value struct {
	Category Category
	// Kickers lists the ranks that decide ties, most significant first.
	// Paired ranks come before unpaired ones; a straight lists only its top card.
	Kickers []uint8
	Score   Score
}

// Beats reports whether v is strictly stronger than other.
func (v Value) Beats(other Value) bool {
	return v.Score < other.Score
}

func score(cat Category, kickers []uint8) Score {
	s := Score(RoyalFlush-cat) << 20
	for i := range 5 {
		var nibble Score
		if i < len(kickers) {
			nibble = Score(Ace - kickers[i])
		}
		s |= nibble << (4 * (4 - i))
	}
	return s
}

// Evaluate5 classifies exactly five distinct cards.
func Evaluate5(cards [5]Card) Value {
	hand := NewHand(cards[:]...)
	rankMask := hand.RankMask()

	flush := false
	for suit := range uint8(4) {
		if bits.OnesCount16(hand.GetSuitMask(suit)) == 5 {
			flush = true
			break
		}
	}
	high := straightHighMask(rankMask)

	switch {
	case flush && high == Ace:
		return newValue(RoyalFlush, []uint8{Ace})
	case flush && high > 0:
		return newValue(StraightFlush, []uint8{high})
	}

	groups := rankGroups(cards)
	kickers := make([]uint8, len(groups))
	for i, g := range groups {
		kickers[i] = g.rank
	}

	switch {
	case groups[0].count == 4:
		return newValue(FourOfAKind, kickers)
	case groups[0].count == 3 && groups[1].count == 2:
		return newValue(FullHouse, kickers)
	case flush:
		return newValue(Flush, kickers)
	case high > 0:
		return newValue(Straight, []uint8{high})
	case groups[0].count == 3:
		return newValue(ThreeOfAKind, kickers)
	case groups[0].count == 2 && groups[1].count == 2:
		return newValue(TwoPair, kickers)
	case groups[0].count == 2:
		return newValue(OnePair, kickers)
	default:
		return newValue(HighCard, kickers)
	}
}

func newValue(cat Category, kickers []uint8) Value {
	return Value{Category: cat, Kickers: kickers, Score: score(cat, kickers)}
}

type rankGroup struct {
	rank  uint8
	count int
}

// rankGroups buckets cards by rank, largest bucket first then highest rank.
func rankGroups(cards [5]Card) []rankGroup {
	var counts [13]int
	for _, c := range cards {
		counts[c.Rank()]++
	}
	groups := make([]rankGroup, 0, 5)
	for r := int(Ace); r >= 0; r-- {
		if counts[r] > 0 {
			groups = append(groups, rankGroup{rank: uint8(r), count: counts[r]})
		}
	}
	slices.SortStableFunc(groups, func(a, b rankGroup) int {
		return b.count - a.count
	})
	return groups
}

// straightHighMask returns the high-card rank of the best straight present in the mask (0 if none).
// The wheel (A-2-3-4-5) reports Five as its high card.
func straightHighMask(mask uint16) uint8 {
	const wheelMask = 0x100F // Ace + 2-3-4-5
	mask &= 0x1FFF

	// Bitwise cascade identifies consecutive sequences in one pass.
	seq := mask & (mask >> 1) & (mask >> 2) & (mask >> 3) & (mask >> 4)
	if seq != 0 {
		return uint8(bits.Len16(seq)-1) + 4
	}
	if mask&wheelMask == wheelMask {
		return Five
	}
	return 0
}

// combos7of5 lists the 21 ways to pick five of seven positions.
var combos7of5 = func() [21][5]int {
	var out [21][5]int
	n := 0
	for a := 0; a < 3; a++ {
		for b := a + 1; b < 4; b++ {
			for c := b + 1; c < 5; c++ {
				for d := c + 1; d < 6; d++ {
					for e := d + 1; e < 7; e++ {
						out[n] = [5]int{a, b, c, d, e}
						n++
					}
				}
			}
		}
	}
	return out
}()

// BestOfSeven evaluates every five-card subset of seven cards and returns the
// strongest one. On equal scores the first subset in enumeration order wins.
func BestOfSeven(cards [7]Card) ([5]Card, Value) {
	var best [5]Card
	var bestValue Value
	for i, combo := range combos7of5 {
		var five [5]Card
		for j, idx := range combo {
			five[j] = cards[idx]
		}
		v := Evaluate5(five)
		if i == 0 || v.Beats(bestValue) {
			best, bestValue = five, v
		}
	}
	return best, bestValue
}
