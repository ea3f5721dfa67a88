package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/homegame/internal/game"
	"github.com/lox/homegame/internal/randutil"
)

// testStore runs the behaviour every Store must share.
func testStore(t *testing.T, s Store) {
	ctx := context.Background()

	_, err := s.Load(ctx, "main")
	require.ErrorIs(t, err, ErrNotFound)

	hand, err := game.Start(randutil.New(1), map[int]game.Occupant{
		1: {ID: "alice", Name: "Alice", Stack: 100},
		2: {ID: "bob", Name: "Bob", Stack: 100},
	}, game.WithHandID("hand-1"))
	require.NoError(t, err)

	now := time.UnixMilli(1_700_000_000_000).UTC()
	rec := Record{
		TableID:     "main",
		Version:     1,
		SmallBlind:  1,
		BigBlind:    2,
		TurnSeconds: 60,
		UpdatedAt:   now,
	}
	require.NoError(t, s.Save(ctx, rec, 0))
	require.ErrorIs(t, s.Save(ctx, rec, 0), ErrVersionConflict, "creating twice conflicts")

	got, err := s.Load(ctx, "main")
	require.NoError(t, err)
	assert.Equal(t, rec, got)
	assert.Nil(t, got.Hand)

	rec.Version = 2
	rec.HandNumber = 1
	rec.DealerSeat = hand.DealerSeat
	rec.Hand = hand
	require.NoError(t, s.Save(ctx, rec, 1))

	stale := rec
	stale.Version = 3
	require.ErrorIs(t, s.Save(ctx, stale, 1), ErrVersionConflict)
	require.ErrorIs(t, s.Save(ctx, Record{TableID: "other", Version: 2}, 1), ErrVersionConflict)

	got, err = s.Load(ctx, "main")
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.Version)
	assert.Equal(t, 1, got.HandNumber)
	require.NotNil(t, got.Hand)
	assert.Equal(t, hand, got.Hand)
	require.NoError(t, got.Hand.Validate())

	got.Hand.Players["alice"].Stack = 0
	again, err := s.Load(ctx, "main")
	require.NoError(t, err)
	assert.Equal(t, 100, again.Hand.Players["alice"].Stack, "loaded hands are copies")

	for seq, action := range []string{"call", "check"} {
		require.NoError(t, s.AppendAction(ctx, ActionRecord{
			TableID:    "main",
			HandID:     "hand-1",
			HandNumber: 1,
			Seq:        seq + 1,
			PlayerID:   "alice",
			Action:     action,
			At:         now,
		}))
	}
	require.Error(t, s.AppendAction(ctx, ActionRecord{HandID: "hand-1", Seq: 1, Action: "fold", At: now}))

	actions, err := s.Actions(ctx, "hand-1")
	require.NoError(t, err)
	require.Len(t, actions, 2)
	assert.Equal(t, "call", actions[0].Action)
	assert.Equal(t, 2, actions[1].Seq)
	assert.Equal(t, now, actions[1].At)

	none, err := s.Actions(ctx, "hand-2")
	require.NoError(t, err)
	assert.Empty(t, none)

	seats, err := s.LoadSeats(ctx, "main")
	require.NoError(t, err)
	assert.Empty(t, seats)

	require.NoError(t, s.SaveSeats(ctx, "main", map[int]game.Occupant{
		1: {ID: "alice", Name: "Alice", Stack: 100},
		4: {ID: "bob", Name: "Bob", Stack: 80},
	}))
	require.NoError(t, s.SaveSeats(ctx, "other", map[int]game.Occupant{2: {ID: "carol", Name: "Carol", Stack: 5}}))
	want := map[int]game.Occupant{
		1: {ID: "alice", Name: "Alice", Stack: 120},
		5: {ID: "dave", Name: "Dave", Stack: 200},
	}
	require.NoError(t, s.SaveSeats(ctx, "main", want))

	seats, err = s.LoadSeats(ctx, "main")
	require.NoError(t, err)
	assert.Equal(t, want, seats, "saving replaces the whole seat map")

	seats[1] = game.Occupant{}
	reloaded, err := s.LoadSeats(ctx, "main")
	require.NoError(t, err)
	assert.Equal(t, "Alice", reloaded[1].Name, "loaded seats are copies")

	other, err := s.LoadSeats(ctx, "other")
	require.NoError(t, err)
	assert.Len(t, other, 1)
}

func TestMemoryStore(t *testing.T) {
	t.Parallel()
	testStore(t, NewMemoryStore())
}

func TestSQLiteStore(t *testing.T) {
	t.Parallel()
	s, err := Open(context.Background(), DriverSQLite, filepath.Join(t.TempDir(), "homegame.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	testStore(t, s)
	// Re-running the schema is harmless.
	require.NoError(t, s.Migrate(context.Background()))
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	t.Parallel()
	_, err := Open(context.Background(), "mysql", "")
	require.Error(t, err)
}

func TestRebind(t *testing.T) {
	t.Parallel()
	pg := &SQLStore{driver: DriverPostgres}
	assert.Equal(t, "UPDATE t SET a = $1 WHERE b = $2 AND c = $3", pg.rebind("UPDATE t SET a = ? WHERE b = ? AND c = ?"))

	lite := &SQLStore{driver: DriverSQLite}
	assert.Equal(t, "SELECT ? FROM t", lite.rebind("SELECT ? FROM t"))
}
