package table

import (
	"time"

	"github.com/lox/homegame/internal/game"
)

// Snapshot is the published state of a table. The hand it carries is shared
// and must not be modified; use For to get a copy fit for one viewer.
type Snapshot struct {
	TableID      string        `json:"tableId"`
	Version      int64         `json:"version"`
	HandNumber   int           `json:"handNumber"`
	DealerSeat   int           `json:"dealerSeat"`
	SmallBlind   int           `json:"smallBlind"`
	BigBlind     int           `json:"bigBlind"`
	TurnSeconds  int           `json:"turnSeconds"`
	Hand         *game.Hand    `json:"hand,omitempty"`
	TurnDeadline *time.Time    `json:"turnDeadline,omitempty"`
	Options      *game.Options `json:"options,omitempty"`
	UpdatedAt    time.Time     `json:"updatedAt"`
}

// InProgress reports whether a hand is being played.
func (s Snapshot) InProgress() bool {
	return s.Hand != nil && s.Hand.Street < game.Showdown
}

// For returns the snapshot as viewer may see it: other players' hole cards
// are hidden and, when it is viewer's turn, their options are filled in.
func (s Snapshot) For(viewer string) Snapshot {
	if s.Hand == nil {
		return s
	}
	out := s
	out.Hand = s.Hand.Redacted(viewer)
	if opts := game.LegalActions(s.Hand, viewer); len(opts.Actions) > 0 {
		out.Options = &opts
	}
	return out
}

// Subscribe returns a channel receiving every snapshot published from now
// on, starting with the current one, and a function to stop receiving.
// A subscriber that falls behind loses the oldest snapshots, never the latest.
func (t *Table) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 8)
	t.subsMu.Lock()
	t.subs[ch] = struct{}{}
	send(ch, t.Snapshot())
	t.subsMu.Unlock()

	return ch, func() {
		t.subsMu.Lock()
		defer t.subsMu.Unlock()
		if _, ok := t.subs[ch]; ok {
			delete(t.subs, ch)
			close(ch)
		}
	}
}

func (t *Table) publish(s Snapshot) {
	t.current.Store(&s)
	t.subsMu.Lock()
	defer t.subsMu.Unlock()
	for ch := range t.subs {
		send(ch, s)
	}
}

func send(ch chan Snapshot, s Snapshot) {
	for {
		select {
		case ch <- s:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}
