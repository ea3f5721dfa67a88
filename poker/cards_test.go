package poker

import (
	"errors"
	"math/bits"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCardCreation(t *testing.T) {
	t.Parallel()
	aceSpades := NewCard(Ace, Spades)
	if aceSpades.Rank() != Ace {
		t.Errorf("Expected rank Ace, got %d", aceSpades.Rank())
	}
	if aceSpades.Suit() != Spades {
		t.Errorf("Expected suit Spades, got %d", aceSpades.Suit())
	}
	if aceSpades.String() != "AS" {
		t.Errorf("Expected 'AS', got %s", aceSpades.String())
	}

	twoClubs := NewCard(Two, Clubs)
	if twoClubs.String() != "2C" {
		t.Errorf("Expected '2C', got %s", twoClubs.String())
	}
}

func TestParseCard(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		input    string
		wantCard Card
		wantErr  bool
	}{
		{name: "ace of spades", input: "AS", wantCard: NewCard(Ace, Spades)},
		{name: "two of hearts", input: "2H", wantCard: NewCard(Two, Hearts)},
		{name: "ten of diamonds", input: "TD", wantCard: NewCard(Ten, Diamonds)},
		{name: "lower case is normalised", input: "kd", wantCard: NewCard(King, Diamonds)},
		{name: "surrounding space", input: " 9c ", wantCard: NewCard(Nine, Clubs)},
		{name: "invalid rank", input: "XS", wantErr: true},
		{name: "invalid suit", input: "AX", wantErr: true},
		{name: "suit first", input: "SA", wantErr: true},
		{name: "ten spelled out", input: "10S", wantErr: true},
		{name: "empty string", input: "", wantErr: true},
		{name: "too short", input: "A", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			card, err := ParseCard(tc.input)
			if tc.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidCard), "error should wrap ErrInvalidCard: %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantCard, card)
		})
	}
}

func TestAll52Cards(t *testing.T) {
	t.Parallel()
	seen := make(map[string]bool)

	for suit := range uint8(4) {
		for rank := range uint8(13) {
			card := NewCard(rank, suit)
			str := card.String()
			if seen[str] {
				t.Errorf("Duplicate card: %s", str)
			}
			seen[str] = true

			parsed, err := ParseCard(str)
			if err != nil {
				t.Errorf("Failed to parse %s: %v", str, err)
			}
			if parsed != card {
				t.Errorf("Round-trip failed for %s", str)
			}
		}
	}

	if len(seen) != 52 {
		t.Errorf("Expected 52 unique cards, got %d", len(seen))
	}
}

func TestBoardRoundTrip(t *testing.T) {
	t.Parallel()
	cards, err := ParseCards("AS KD QH JC TD")
	require.NoError(t, err)
	require.Len(t, cards, 5)
	assert.True(t, Distinct(cards...))
	for _, c := range cards {
		assert.True(t, c.Valid())
	}
	assert.Equal(t, "AS KD QH JC TD", FormatCards(cards))
}

func TestParseCardsRejectsBadToken(t *testing.T) {
	t.Parallel()
	_, err := ParseCards("AS KD 1H")
	require.ErrorIs(t, err, ErrInvalidCard)
}

func TestCardTextEncoding(t *testing.T) {
	t.Parallel()
	card := NewCard(Queen, Hearts)
	text, err := card.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "QH", string(text))

	var decoded Card
	require.NoError(t, decoded.UnmarshalText(text))
	assert.Equal(t, card, decoded)

	_, err = Card(0).MarshalText()
	assert.ErrorIs(t, err, ErrInvalidCard)
}

func TestHandOperations(t *testing.T) {
	t.Parallel()
	aceSpades, _ := ParseCard("AS")
	kingHearts, _ := ParseCard("KH")
	queenDiamonds, _ := ParseCard("QD")

	hand := NewHand(aceSpades, kingHearts)
	if !hand.HasCard(aceSpades) || !hand.HasCard(kingHearts) {
		t.Error("Hand should contain both dealt cards")
	}
	if hand.HasCard(queenDiamonds) {
		t.Error("Hand should not contain Queen of Diamonds")
	}
	if hand.CountCards() != 2 {
		t.Errorf("Hand should have 2 cards, got %d", hand.CountCards())
	}

	hand.AddCard(queenDiamonds)
	if hand.CountCards() != 3 {
		t.Errorf("Hand should have 3 cards, got %d", hand.CountCards())
	}
	assert.ElementsMatch(t, []Card{aceSpades, kingHearts, queenDiamonds}, hand.Cards())
}

func TestHandBitset(t *testing.T) {
	t.Parallel()
	aceSpades, _ := ParseCard("AS")
	aceHearts, _ := ParseCard("AH")
	twoClubs, _ := ParseCard("2C")

	if bits.OnesCount64(uint64(aceSpades)) != 1 {
		t.Error("Card should be a single bit")
	}
	if aceSpades&aceHearts != 0 || aceSpades&twoClubs != 0 || aceHearts&twoClubs != 0 {
		t.Error("Different cards should not share bits")
	}

	spades := NewHand()
	for rank := range uint8(13) {
		spades.AddCard(NewCard(rank, Spades))
	}
	if spades.GetSuitMask(Spades) != 0x1FFF {
		t.Errorf("Expected all spades, got mask %016b", spades.GetSuitMask(Spades))
	}
	if spades.GetSuitMask(Hearts) != 0 {
		t.Error("Hearts should be empty")
	}
}

func TestDistinct(t *testing.T) {
	t.Parallel()
	as := NewCard(Ace, Spades)
	kd := NewCard(King, Diamonds)
	assert.True(t, Distinct(as, kd))
	assert.False(t, Distinct(as, kd, as))
	assert.True(t, Distinct())
}

func BenchmarkParseCard(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_, _ = ParseCard("AS")
	}
}
