package store

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/lox/homegame/internal/game"
)

// MemoryStore keeps records in process. Records are copied on the way in and
// out so callers never share a hand with the store.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]Record
	actions map[string][]ActionRecord
	seats   map[string]map[int]game.Occupant
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]Record),
		actions: make(map[string][]ActionRecord),
		seats:   make(map[string]map[int]game.Occupant),
	}
}

func (s *MemoryStore) Load(_ context.Context, tableID string) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[tableID]
	if !ok {
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, tableID)
	}
	return copyRecord(rec), nil
}

func (s *MemoryStore) Save(_ context.Context, rec Record, expected int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.records[rec.TableID]
	switch {
	case expected == 0 && ok:
		return fmt.Errorf("%w: %s already exists at version %d", ErrVersionConflict, rec.TableID, current.Version)
	case expected != 0 && !ok:
		return fmt.Errorf("%w: %s does not exist", ErrVersionConflict, rec.TableID)
	case ok && current.Version != expected:
		return fmt.Errorf("%w: %s is at version %d, expected %d", ErrVersionConflict, rec.TableID, current.Version, expected)
	}
	s.records[rec.TableID] = copyRecord(rec)
	return nil
}

func (s *MemoryStore) AppendAction(_ context.Context, a ActionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.actions[a.HandID] {
		if existing.Seq == a.Seq {
			return fmt.Errorf("action %d of hand %s already recorded", a.Seq, a.HandID)
		}
	}
	s.actions[a.HandID] = append(s.actions[a.HandID], a)
	return nil
}

func (s *MemoryStore) Actions(_ context.Context, handID string) ([]ActionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := slices.Clone(s.actions[handID])
	slices.SortFunc(out, func(a, b ActionRecord) int { return a.Seq - b.Seq })
	return out, nil
}

func (s *MemoryStore) LoadSeats(_ context.Context, tableID string) (map[int]game.Occupant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := maps.Clone(s.seats[tableID])
	if out == nil {
		out = make(map[int]game.Occupant)
	}
	return out, nil
}

func (s *MemoryStore) SaveSeats(_ context.Context, tableID string, seats map[int]game.Occupant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seats[tableID] = maps.Clone(seats)
	return nil
}

func (s *MemoryStore) Close() error { return nil }

func copyRecord(rec Record) Record {
	if rec.Hand != nil {
		rec.Hand = rec.Hand.Clone()
	}
	return rec
}
