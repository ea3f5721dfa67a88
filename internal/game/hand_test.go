package game

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/homegame/internal/randutil"
	"github.com/lox/homegame/internal/showdown"
	"github.com/lox/homegame/poker"
)

const threeHandedDeal = "AS 2C AH KS 7D KH QH JH TH 2D 3C"

func TestStartPostsBlinds(t *testing.T) {
	t.Parallel()
	h := startHand(t, threeHanded(), threeHandedDeal)

	assert.Equal(t, Preflop, h.Street)
	assert.Equal(t, 1, h.DealerSeat)
	assert.Equal(t, 3, h.SmallBlindSeat)
	assert.Equal(t, 5, h.BigBlindSeat)
	assert.Equal(t, "alice", h.Acting, "first seat after the big blind acts first")
	assert.Equal(t, 3, h.Pot)
	assert.Equal(t, 2, h.CurrentBet)
	assert.Equal(t, 2, h.MinRaise)
	assert.Equal(t, 300, h.StartingChips)
	assert.Empty(t, h.Board)
	assert.Equal(t, int64(1), h.Version)

	assert.Equal(t, 100, h.Players["alice"].Stack)
	assert.Equal(t, 99, h.Players["bob"].Stack)
	assert.Equal(t, 98, h.Players["carol"].Stack)
	assert.Equal(t, 1, h.Players["bob"].StreetBet)
	assert.Equal(t, 2, h.Players["carol"].Committed)
	assert.False(t, h.Players["carol"].Acted, "posting a blind is not acting")

	assert.Equal(t, "AS KS", poker.FormatCards(h.Players["bob"].Hole))
	assert.Equal(t, "2C 7D", poker.FormatCards(h.Players["carol"].Hole))
	assert.Equal(t, "AH KH", poker.FormatCards(h.Players["alice"].Hole))
	assert.Equal(t, 52-6, h.Deck.Remaining())
}

func TestStartRotatesDealer(t *testing.T) {
	t.Parallel()
	tests := []struct {
		previous       int
		dealer, sb, bb int
		acting         string
	}{
		{previous: 0, dealer: 1, sb: 3, bb: 5, acting: "alice"},
		{previous: 1, dealer: 3, sb: 5, bb: 1, acting: "bob"},
		{previous: 3, dealer: 5, sb: 1, bb: 3, acting: "carol"},
		{previous: 5, dealer: 1, sb: 3, bb: 5, acting: "alice"},
		// A departed dealer's seat still rotates to the next occupied one.
		{previous: 4, dealer: 5, sb: 1, bb: 3, acting: "carol"},
	}
	for _, tt := range tests {
		h, err := Start(randutil.New(1), threeHanded(), WithPreviousDealer(tt.previous))
		require.NoError(t, err)
		assert.Equal(t, tt.dealer, h.DealerSeat, "previous dealer %d", tt.previous)
		assert.Equal(t, tt.sb, h.SmallBlindSeat)
		assert.Equal(t, tt.bb, h.BigBlindSeat)
		assert.Equal(t, tt.acting, h.Acting)
	}
}

func TestStartHeadsUp(t *testing.T) {
	t.Parallel()
	h, err := Start(randutil.New(7), map[int]Occupant{
		2: {ID: "a", Name: "A", Stack: 50},
		6: {ID: "b", Name: "B", Stack: 50},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, h.DealerSeat)
	assert.Equal(t, 6, h.SmallBlindSeat)
	assert.Equal(t, 2, h.BigBlindSeat)
	assert.Equal(t, "b", h.Acting)
	require.NoError(t, h.Validate())
}

func TestStartNotEnoughPlayers(t *testing.T) {
	t.Parallel()
	_, err := Start(randutil.New(1), map[int]Occupant{1: {ID: "a", Stack: 100}})
	require.ErrorIs(t, err, ErrNotEnoughPlayers)

	_, err = Start(randutil.New(1), map[int]Occupant{
		1: {ID: "a", Stack: 100},
		2: {ID: "b", Stack: 0},
	})
	require.ErrorIs(t, err, ErrNotEnoughPlayers)

	_, err = Start(randutil.New(1), nil)
	require.ErrorIs(t, err, ErrNotEnoughPlayers)
}

func TestStartRejectsBadSeating(t *testing.T) {
	t.Parallel()
	_, err := Start(randutil.New(1), map[int]Occupant{
		1: {ID: "a", Stack: 100},
		9: {ID: "b", Stack: 100},
	})
	require.Error(t, err)

	_, err = Start(randutil.New(1), map[int]Occupant{
		1: {ID: "a", Stack: 100},
		2: {ID: "a", Stack: 100},
	})
	require.Error(t, err)

	_, err = Start(randutil.New(1), threeHanded(), WithBlinds(0, 2))
	require.Error(t, err)
}

func TestStartSkipsBustedSeats(t *testing.T) {
	t.Parallel()
	seats := threeHanded()
	seats[3] = Occupant{ID: "bob", Name: "Bob", Stack: 0}
	h, err := Start(randutil.New(3), seats)
	require.NoError(t, err)
	assert.Len(t, h.Players, 2)
	assert.NotContains(t, h.Players, "bob")
	assert.Equal(t, 5, h.SmallBlindSeat)
	assert.Equal(t, 1, h.BigBlindSeat)
}

func TestStartShortBlindGoesAllIn(t *testing.T) {
	t.Parallel()
	seats := threeHanded()
	seats[5] = Occupant{ID: "carol", Name: "Carol", Stack: 1}
	h := startHand(t, seats, threeHandedDeal)

	carol := h.Players["carol"]
	assert.True(t, carol.AllIn)
	assert.Equal(t, 0, carol.Stack)
	assert.Equal(t, 1, h.CurrentBet, "current bet is the largest blind actually posted")
	assert.Equal(t, 2, h.MinRaise)
	assert.Equal(t, "alice", h.Acting)
}

func TestStartBothBlindsAllInRunsOut(t *testing.T) {
	t.Parallel()
	h := startHand(t, map[int]Occupant{
		1: {ID: "a", Name: "A", Stack: 1},
		2: {ID: "b", Name: "B", Stack: 2},
	}, "2C AS 7D AH KD QC 9H 5S 3D")

	assert.Equal(t, Settled, h.Street)
	assert.Len(t, h.Board, 5)
	assert.Empty(t, h.Acting)
	assert.Equal(t, 2, h.Players["a"].Stack, "aces hold")
	assert.Equal(t, 1, h.Players["b"].Stack)
	assert.Equal(t, "A wins 2 with One Pair", h.Result.Summary)
}

func TestStartShufflesWithSeed(t *testing.T) {
	t.Parallel()
	a, err := Start(randutil.New(42), threeHanded())
	require.NoError(t, err)
	b, err := Start(randutil.New(42), threeHanded())
	require.NoError(t, err)
	c, err := Start(randutil.New(43), threeHanded())
	require.NoError(t, err)

	assert.Equal(t, a.Players["alice"].Hole, b.Players["alice"].Hole)
	assert.NotEqual(t, a.Deck, c.Deck)
	assert.NotEqual(t, a.ID, b.ID, "hand ids are random")
}

func TestValidateCatchesBrokenSnapshots(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		mutate func(h *Hand)
	}{
		{"chips created", func(h *Hand) { h.Players["alice"].Stack++ }},
		{"acting player folded", func(h *Hand) { h.Players["alice"].Folded = true }},
		{"nobody acting", func(h *Hand) { h.Acting = "" }},
		{"unknown acting player", func(h *Hand) { h.Acting = "zed" }},
		{"current bet mismatch", func(h *Hand) { h.CurrentBet = 5 }},
		{"board on preflop", func(h *Hand) {
			c := h.Deck.Clone()
			card, _ := c.Draw()
			h.Deck.Remove(card)
			h.Board = []poker.Card{card}
		}},
		{"card dealt twice", func(h *Hand) { h.Players["bob"].Hole[0] = h.Players["alice"].Hole[0] }},
		{"dealt card still in deck", func(h *Hand) { h.Deck.Return(h.Players["bob"].Hole[0]) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h := startHand(t, threeHanded(), threeHandedDeal)
			tt.mutate(h)
			require.ErrorIs(t, h.Validate(), ErrInvariant)
		})
	}
}

func TestRedacted(t *testing.T) {
	t.Parallel()
	h := startHand(t, threeHanded(), threeHandedDeal)

	view := h.Redacted("bob")
	assert.Nil(t, view.Deck)
	assert.Len(t, view.Players["bob"].Hole, 2)
	assert.Nil(t, view.Players["alice"].Hole)
	assert.Nil(t, view.Players["carol"].Hole)
	assert.Len(t, h.Players["alice"].Hole, 2, "original is untouched")

	observer := h.Redacted("")
	for _, p := range observer.Players {
		assert.Nil(t, p.Hole)
	}
}

func TestRedactedShowsShowdownHands(t *testing.T) {
	t.Parallel()
	h := startHand(t, threeHanded(), threeHandedDeal)
	h = play(t, h, fold("alice"), call("bob"), check("carol"))
	h = play(t, h, check("bob"), check("carol"))
	h = play(t, h, check("bob"), check("carol"))
	h = play(t, h, check("bob"), check("carol"))
	require.Equal(t, Settled, h.Street)

	view := h.Redacted("")
	assert.Len(t, view.Players["bob"].Hole, 2)
	assert.Len(t, view.Players["carol"].Hole, 2)
	assert.Nil(t, view.Players["alice"].Hole, "folded hands stay hidden")
}

func TestSetBoard(t *testing.T) {
	t.Parallel()
	h := startHand(t, threeHanded(), threeHandedDeal)
	board, err := poker.ParseCards("9C 9D 9S")
	require.NoError(t, err)

	next, err := SetBoard(h, board)
	require.NoError(t, err)
	require.NoError(t, next.Validate())

	assert.Equal(t, board, next.Board)
	assert.True(t, next.BoardOverride)
	assert.Equal(t, h.Acting, next.Acting)
	assert.Equal(t, h.Pot, next.Pot)
	assert.Equal(t, h.CurrentBet, next.CurrentBet)
	assert.Equal(t, h.Version+1, next.Version)
	assert.Empty(t, h.Board, "original is untouched")
	for _, c := range board {
		assert.False(t, next.Deck.Contains(c))
	}

	// The flop is already out, so reaching it deals nothing new.
	next = play(t, next, call("alice"), call("bob"), check("carol"))
	assert.Equal(t, Flop, next.Street)
	assert.Equal(t, "9C 9D 9S", poker.FormatCards(next.Board))
	next = play(t, next, check("bob"), check("carol"), check("alice"))
	assert.Equal(t, Turn, next.Street)
	assert.Len(t, next.Board, 4)

	// Replacing the board returns the old cards to the deck.
	replaced, err := SetBoard(next, board[:1])
	require.NoError(t, err)
	assert.True(t, replaced.Deck.Contains(next.Board[3]))
	require.NoError(t, replaced.Validate())
}

func TestShortBoardOnRiverIsDealtOut(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		last step
	}{
		{"check", check("alice")},
		{"fold to two", fold("alice")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h := startHand(t, threeHanded(), threeHandedDeal)
			h = play(t, h,
				call("alice"), call("bob"), check("carol"),
				check("bob"), check("carol"), check("alice"),
				check("bob"), check("carol"), check("alice"),
			)
			require.Equal(t, River, h.Street)

			h, err := SetBoard(h, h.Board[:3])
			require.NoError(t, err)
			require.NoError(t, h.Validate())

			id, action, ok := TimeoutAction(h)
			require.True(t, ok)
			assert.Equal(t, "bob", id)
			h = play(t, h, step{id, action}, check("carol"), tt.last)

			assert.Equal(t, Settled, h.Street)
			require.Len(t, h.Board, 5)
			assert.Equal(t, "QH JH TH", poker.FormatCards(h.Board[:3]))
			require.NotNil(t, h.Result)
			require.NotNil(t, h.Result.Showdown)
			assert.Equal(t, 0, h.Pot)
		})
	}
}

func TestSetBoardRejectsBadBoards(t *testing.T) {
	t.Parallel()
	h := startHand(t, threeHanded(), threeHandedDeal)

	held, _ := poker.ParseCards("AS 9C 9D")
	_, err := SetBoard(h, held)
	require.ErrorIs(t, err, showdown.ErrDuplicateCard)

	repeated, _ := poker.ParseCards("9C 9C 9D")
	_, err = SetBoard(h, repeated)
	require.ErrorIs(t, err, showdown.ErrDuplicateCard)

	six, _ := poker.ParseCards("9C 9D 9S 8C 8D 8S")
	_, err = SetBoard(h, six)
	require.ErrorIs(t, err, showdown.ErrInvalidBoard)

	_, err = SetBoard(nil, nil)
	require.ErrorIs(t, err, ErrIllegalAction)
}

func TestHandJSONRoundTrip(t *testing.T) {
	t.Parallel()
	h := startHand(t, threeHanded(), threeHandedDeal)
	h = play(t, h, raise("alice", 6))

	data, err := json.Marshal(h)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"street":"preflop"`)
	assert.Contains(t, string(data), `"hole":["AH","KH"]`)

	var decoded Hand
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, h, &decoded)
	require.NoError(t, decoded.Validate())
}
