package game

import (
	"fmt"

	"github.com/lox/homegame/internal/seat"
)

// Apply returns the hand that results from participant id taking action a.
// h is never modified; on error the returned hand is nil.
func Apply(h *Hand, id string, a Action) (*Hand, error) {
	if h == nil || h.Street >= Showdown {
		return nil, fmt.Errorf("%w: no hand in progress", ErrIllegalAction)
	}
	if _, ok := h.Players[id]; !ok {
		return nil, fmt.Errorf("%w: %q is not in this hand", ErrIllegalAction, id)
	}
	if h.Acting != id {
		return nil, fmt.Errorf("%w: not %s's turn", ErrIllegalAction, id)
	}

	next := h.Clone()
	p := next.Players[id]
	chips, err := next.act(p, a)
	if err != nil {
		return nil, err
	}
	p.Acted = true
	p.LastAction = a.String()
	next.Log = append(next.Log, LogEntry{
		Seq:      len(next.Log) + 1,
		PlayerID: id,
		Seat:     p.Seat,
		Street:   next.Street,
		Action:   a,
		Chips:    chips,
	})

	if err := next.advance(p.Seat); err != nil {
		return nil, err
	}
	next.Version++
	return next, nil
}

// advance moves the turn on from seat from, dealing new streets and settling
// as the betting resolves.
func (h *Hand) advance(from int) error {
	for {
		if len(h.Live()) <= 1 {
			return h.settle()
		}
		if !h.streetResolved() {
			h.Acting = h.nextToAct(from).ID
			return nil
		}
		if h.Street == River {
			// An overridden board may be short of a full river.
			if err := h.dealTo(boardSize(River)); err != nil {
				return err
			}
			h.Street = Showdown
			return h.settle()
		}
		if err := h.nextStreet(); err != nil {
			return err
		}
		from = h.DealerSeat
	}
}

// nextToAct returns the first player clockwise from seat from who still owes
// an action this street. Only called while the street is unresolved.
func (h *Hand) nextToAct(from int) *Player {
	owing := h.seats(func(p *Player) bool {
		return p.CanAct() && (!p.Acted || p.StreetBet != h.CurrentBet)
	})
	return h.PlayerAt(seat.Next(from, owing))
}

func (h *Hand) nextStreet() error {
	h.Street++
	h.Acting = ""
	h.CurrentBet = 0
	h.MinRaise = h.BigBlind
	for _, p := range h.Players {
		p.StreetBet = 0
		p.Acted = false
	}

	// An overridden board may already hold this street's cards.
	return h.dealTo(boardSize(h.Street))
}

// dealTo deals from the deck until the board holds n cards.
func (h *Hand) dealTo(n int) error {
	n -= len(h.Board)
	if n <= 0 {
		return nil
	}
	cards, err := h.Deck.Deal(n)
	if err != nil {
		return fmt.Errorf("dealing the %s: %w", h.Street, err)
	}
	h.Board = append(h.Board, cards...)
	return nil
}

// TimeoutAction returns the default action for the acting player when their
// turn expires: a check when nothing is owed, otherwise a fold.
func TimeoutAction(h *Hand) (string, Action, bool) {
	if h == nil || h.Street >= Showdown {
		return "", Action{}, false
	}
	p := h.ActingPlayer()
	if p == nil {
		return "", Action{}, false
	}
	if p.ToCall(h.CurrentBet) == 0 {
		return p.ID, Action{Kind: Check}, true
	}
	return p.ID, Action{Kind: Fold}, true
}
