// Package store persists the authoritative state of each table and the log of
// actions taken at it.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/lox/homegame/internal/game"
)

var (
	// ErrNotFound is returned by Load for a table that has never been saved.
	ErrNotFound = errors.New("table not found")
	// ErrVersionConflict is returned by Save when the stored version is not
	// the one the caller last read.
	ErrVersionConflict = errors.New("version conflict")
)

// Record is everything needed to resume a table: its settings, where the
// button is, and the current or last hand.
type Record struct {
	TableID     string
	Version     int64
	HandNumber  int
	DealerSeat  int
	SmallBlind  int
	BigBlind    int
	TurnSeconds int
	Hand        *game.Hand // nil before the first hand
	UpdatedAt   time.Time
}

// ActionRecord is one accepted action, including timeouts and operator
// commands such as starting a hand.
type ActionRecord struct {
	TableID    string
	HandID     string
	HandNumber int
	Seq        int
	PlayerID   string
	Action     string
	Amount     int
	At         time.Time
}

// Store is implemented by MemoryStore and SQLStore.
type Store interface {
	// Load returns the record for tableID or ErrNotFound.
	Load(ctx context.Context, tableID string) (Record, error)
	// Save writes rec if the stored version equals expected, where 0 means
	// the table must not exist yet. rec.Version is the version written.
	Save(ctx context.Context, rec Record, expected int64) error
	// AppendAction adds to a hand's action log.
	AppendAction(ctx context.Context, a ActionRecord) error
	// Actions returns a hand's action log in order.
	Actions(ctx context.Context, handID string) ([]ActionRecord, error)
	// LoadSeats returns who sits where at tableID, empty if nobody does.
	LoadSeats(ctx context.Context, tableID string) (map[int]game.Occupant, error)
	// SaveSeats replaces the seat map of tableID.
	SaveSeats(ctx context.Context, tableID string, seats map[int]game.Occupant) error
	Close() error
}
