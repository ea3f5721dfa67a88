package phh

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/homegame/internal/game"
	"github.com/lox/homegame/poker"
)

// Alice deals, Bob posts 1 and Carol posts 2. Hole cards go Bob, Carol,
// Alice twice, then the board is QH JH TH 2D 3C.
func threeHanded(t *testing.T) *game.Hand {
	t.Helper()
	cards, err := poker.ParseCards("AS 2C AH KS 7D KH QH JH TH 2D 3C")
	require.NoError(t, err)
	deck, err := poker.NewStackedDeck(cards...)
	require.NoError(t, err)

	h, err := game.Start(nil, map[int]game.Occupant{
		1: {ID: "alice", Name: "Alice", Stack: 100},
		3: {ID: "bob", Name: "Bob", Stack: 100},
		5: {ID: "carol", Name: "Carol", Stack: 100},
	}, game.WithDeck(deck), game.WithHandID("hand-7"))
	require.NoError(t, err)
	return h
}

type step struct {
	id     string
	action game.Action
}

func play(t *testing.T, h *game.Hand, steps ...step) *game.Hand {
	t.Helper()
	for _, s := range steps {
		next, err := game.Apply(h, s.id, s.action)
		require.NoError(t, err, "%s %s", s.id, s.action)
		h = next
	}
	require.Equal(t, game.Settled, h.Street)
	return h
}

var at = time.Date(2025, time.November, 14, 15, 22, 0, 0, time.UTC)

func TestFromHandUncontested(t *testing.T) {
	t.Parallel()
	h := play(t, threeHanded(t),
		step{"alice", game.RaiseTo(6)},
		step{"bob", game.Action{Kind: game.Fold}},
		step{"carol", game.Action{Kind: game.Fold}},
	)

	hh, err := FromHand(h, "main", at)
	require.NoError(t, err)

	assert.Equal(t, Variant, hh.Variant)
	assert.Equal(t, "main", hh.Table)
	assert.Equal(t, "hand-7", hh.HandID)
	assert.Equal(t, []int{3, 5, 1}, hh.Seats)
	assert.Equal(t, []string{"Bob", "Carol", "Alice"}, hh.Players)
	assert.Equal(t, []int{1, 2, 0}, hh.BlindsOrStraddles)
	assert.Equal(t, []int{100, 100, 100}, hh.StartingStacks)
	assert.Equal(t, []int{99, 98, 103}, hh.FinishingStacks)
	assert.Equal(t, []int{0, 0, 9}, hh.Winnings)
	assert.Equal(t, []string{
		"d dh p1 AsKs",
		"d dh p2 2c7d",
		"d dh p3 AhKh",
		"p3 cbr 6",
		"p1 f",
		"p2 f",
	}, hh.Actions)
	assert.Equal(t, "15:22:00", hh.Time)
	assert.Equal(t, 2025, hh.Year)
}

func TestFromHandShowdown(t *testing.T) {
	t.Parallel()
	fold := game.Action{Kind: game.Fold}
	check := game.Action{Kind: game.Check}
	call := game.Action{Kind: game.Call}
	h := play(t, threeHanded(t),
		step{"alice", call},
		step{"bob", call},
		step{"carol", check},
		step{"bob", game.RaiseTo(4)},
		step{"carol", fold},
		step{"alice", call},
		step{"bob", check},
		step{"alice", check},
		step{"bob", check},
		step{"alice", check},
	)

	hh, err := FromHand(h, "main", at)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"d dh p1 AsKs",
		"d dh p2 2c7d",
		"d dh p3 AhKh",
		"p3 cc",
		"p1 cc",
		"p2 cc",
		"d db QhJhTh",
		"p1 cbr 4",
		"p2 f",
		"p3 cc",
		"d db 2d",
		"p1 cc",
		"p3 cc",
		"d db 3c",
		"p1 cc",
		"p3 cc",
		"p1 sm AsKs",
		"p3 sm AhKh",
	}, hh.Actions)
	assert.Equal(t, []int{94, 98, 108}, hh.FinishingStacks)
	assert.Equal(t, []int{0, 0, 14}, hh.Winnings)
}

func TestFromHandRejectsUnsettled(t *testing.T) {
	t.Parallel()
	_, err := FromHand(threeHanded(t), "main", at)
	require.Error(t, err)
	_, err = FromHand(nil, "main", at)
	require.Error(t, err)
}

func TestEncode(t *testing.T) {
	t.Parallel()
	h := play(t, threeHanded(t),
		step{"alice", game.RaiseTo(6)},
		step{"bob", game.Action{Kind: game.Fold}},
		step{"carol", game.Action{Kind: game.Fold}},
	)
	hh, err := FromHand(h, "main", at)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, hh))
	out := buf.String()
	for _, line := range []string{
		"variant = \"NT\"\n",
		"table = \"main\"\n",
		"seats = [3, 5, 1]\n",
		"blinds_or_straddles = [1, 2, 0]\n",
		"min_bet = 2\n",
		"actions = [\"d dh p1 AsKs\", \"d dh p2 2c7d\", \"d dh p3 AhKh\", \"p3 cbr 6\", \"p1 f\", \"p2 f\"]\n",
		"players = [\"Bob\", \"Carol\", \"Alice\"]\n",
		"hand = \"hand-7\"\n",
		"time_zone = \"UTC\"\n",
	} {
		assert.Contains(t, out, line)
	}
	assert.NotContains(t, out, "Timestamp")

	data, err := Marshal(hh)
	require.NoError(t, err)
	assert.Equal(t, out, string(data))

	require.Error(t, Encode(&buf, nil))
}

func TestCard(t *testing.T) {
	t.Parallel()
	cards, err := poker.ParseCards("TH AS 2c")
	require.NoError(t, err)
	assert.Equal(t, "Th", Card(cards[0]))
	assert.Equal(t, "ThAs2c", Cards(cards))
	assert.Equal(t, "??", Card(poker.Card(0)))
}
