// Package lobby tracks who is sitting at a table between hands.
package lobby

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/lox/homegame/internal/game"
	"github.com/lox/homegame/internal/seat"
)

var (
	// ErrTableFull is returned by Join when every seat is taken.
	ErrTableFull = errors.New("table full")
	// ErrNotSeated is returned by Leave for an unknown participant.
	ErrNotSeated = errors.New("not seated")
	// ErrInvalidName is returned by Join for a blank name or id.
	ErrInvalidName = errors.New("name is required")
)

// Member is a seated participant.
type Member struct {
	Seat int `json:"seat"`
	game.Occupant
}

// SeatStore persists a table's seat map. store.MemoryStore and
// store.SQLStore implement it.
type SeatStore interface {
	LoadSeats(ctx context.Context, tableID string) (map[int]game.Occupant, error)
	SaveSeats(ctx context.Context, tableID string, seats map[int]game.Occupant) error
}

// Lobby assigns seats and holds stacks between hands. It is safe for
// concurrent use.
type Lobby struct {
	mu       sync.Mutex
	buyIn    int
	maxSeats int
	seats    map[int]game.Occupant

	tableID string
	store   SeatStore
}

// Option configures a Lobby.
type Option func(*Lobby)

// WithStore saves every seat change for tableID to st. Call Restore to load
// what was saved before.
func WithStore(tableID string, st SeatStore) Option {
	return func(l *Lobby) {
		l.tableID = tableID
		l.store = st
	}
}

// New returns an empty lobby seating up to maxSeats players, each arriving
// with buyIn chips. maxSeats is clamped to 2..seat.MaxSeats.
func New(buyIn, maxSeats int, opts ...Option) *Lobby {
	l := &Lobby{
		buyIn:    buyIn,
		maxSeats: min(max(maxSeats, 2), seat.MaxSeats),
		seats:    make(map[int]game.Occupant),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Restore replaces the seat map with the one in the store. Without a store
// it does nothing.
func (l *Lobby) Restore(ctx context.Context) error {
	if l.store == nil {
		return nil
	}
	seats, err := l.store.LoadSeats(ctx, l.tableID)
	if err != nil {
		return fmt.Errorf("restore seats of %s: %w", l.tableID, err)
	}
	if seats == nil {
		seats = make(map[int]game.Occupant)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seats = seats
	return nil
}

// Join seats id at the lowest open seat. A participant who is already seated
// keeps their seat and stack and only has their name updated.
func (l *Lobby) Join(ctx context.Context, id, name string) (Member, error) {
	id, name = strings.TrimSpace(id), strings.TrimSpace(name)
	if id == "" || name == "" {
		return Member{}, ErrInvalidName
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	s, seated := l.seatOf(id)
	occ := l.seats[s]
	occ.Name = name
	if !seated {
		var ok bool
		if s, ok = seat.Open(l.occupied(), l.maxSeats); !ok {
			return Member{}, fmt.Errorf("%w (%d/%d)", ErrTableFull, len(l.seats), l.maxSeats)
		}
		occ = game.Occupant{ID: id, Name: name, Stack: l.buyIn}
	}

	next := maps.Clone(l.seats)
	next[s] = occ
	if err := l.commit(ctx, next); err != nil {
		return Member{}, err
	}
	return Member{Seat: s, Occupant: occ}, nil
}

// Leave frees id's seat. Chips left at the table go with them.
func (l *Lobby) Leave(ctx context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.seatOf(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotSeated, id)
	}
	next := maps.Clone(l.seats)
	delete(next, s)
	return l.commit(ctx, next)
}

// Members lists seated participants by seat.
func (l *Lobby) Members() []Member {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Member, 0, len(l.seats))
	for _, s := range l.occupied() {
		out = append(out, Member{Seat: s, Occupant: l.seats[s]})
	}
	return out
}

// Seats returns a copy of the seat map.
func (l *Lobby) Seats(context.Context) (map[int]game.Occupant, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return maps.Clone(l.seats), nil
}

// UpdateStacks writes back stacks by participant id. Participants who left
// mid-hand are skipped.
func (l *Lobby) UpdateStacks(ctx context.Context, stacks map[string]int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	next := maps.Clone(l.seats)
	for s, occ := range next {
		if stack, ok := stacks[occ.ID]; ok {
			occ.Stack = stack
			next[s] = occ
		}
	}
	return l.commit(ctx, next)
}

// commit saves next and adopts it. On failure the lobby is unchanged.
func (l *Lobby) commit(ctx context.Context, next map[int]game.Occupant) error {
	if l.store != nil {
		if err := l.store.SaveSeats(ctx, l.tableID, next); err != nil {
			return fmt.Errorf("save seats of %s: %w", l.tableID, err)
		}
	}
	l.seats = next
	return nil
}

func (l *Lobby) seatOf(id string) (int, bool) {
	for s, occ := range l.seats {
		if occ.ID == id {
			return s, true
		}
	}
	return 0, false
}

func (l *Lobby) occupied() []int {
	out := make([]int, 0, len(l.seats))
	for s := range l.seats {
		out = append(out, s)
	}
	slices.Sort(out)
	return out
}
