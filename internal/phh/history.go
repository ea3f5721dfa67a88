package phh

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/lox/homegame/internal/game"
	"github.com/lox/homegame/internal/seat"
)

// Variant is the PHH code for no-limit Texas hold'em.
const Variant = "NT"

// FromHand converts a settled hand into a PHH record for tableID, stamped
// with at.
func FromHand(h *game.Hand, tableID string, at time.Time) (*HandHistory, error) {
	if h == nil || h.Result == nil {
		return nil, errors.New("phh: hand is not settled")
	}

	order := positionOrder(h)
	index := make(map[int]int, len(order))
	n := len(order)
	hh := &HandHistory{
		Variant:           Variant,
		Table:             tableID,
		SeatCount:         seat.MaxSeats,
		Seats:             make([]int, n),
		Antes:             make([]int, n),
		BlindsOrStraddles: make([]int, n),
		MinBet:            h.BigBlind,
		StartingStacks:    make([]int, n),
		FinishingStacks:   make([]int, n),
		Winnings:          make([]int, n),
		Players:           make([]string, n),
		HandID:            h.ID,
	}

	contrib := make(map[int]int, n)
	for i, p := range order {
		index[p.Seat] = i
		payout := h.Result.Payouts[p.ID]
		start := p.Stack - payout + p.Committed
		hh.Seats[i] = p.Seat
		hh.Players[i] = p.Name
		hh.StartingStacks[i] = start
		hh.FinishingStacks[i] = p.Stack
		hh.Winnings[i] = payout

		switch p.Seat {
		case h.SmallBlindSeat:
			hh.BlindsOrStraddles[i] = min(h.SmallBlind, start)
		case h.BigBlindSeat:
			hh.BlindsOrStraddles[i] = min(h.BigBlind, start)
		}
		contrib[p.Seat] = hh.BlindsOrStraddles[i]
	}

	for i, p := range order {
		hh.Actions = append(hh.Actions, fmt.Sprintf("d dh p%d %s", i+1, Cards(p.Hole)))
	}

	street := game.Preflop
	high := slices.Max(hh.BlindsOrStraddles)
	for _, e := range h.Log {
		for street < e.Street {
			street++
			hh.Actions = appendBoard(hh.Actions, h, street)
			clear(contrib)
			high = 0
		}
		contrib[e.Seat] += e.Chips
		hh.Actions = append(hh.Actions, formatAction(index[e.Seat]+1, e.Action.Kind, contrib[e.Seat], high))
		high = max(high, contrib[e.Seat])
	}

	if h.Result.Showdown != nil {
		for street < game.River {
			street++
			hh.Actions = appendBoard(hh.Actions, h, street)
		}
		for i, p := range order {
			if !p.Folded {
				hh.Actions = append(hh.Actions, fmt.Sprintf("p%d sm %s", i+1, Cards(p.Hole)))
			}
		}
	}

	populateTime(hh, at)
	return hh, nil
}

// positionOrder lists players from the small blind clockwise.
func positionOrder(h *game.Hand) []*game.Player {
	seats := make([]int, 0, len(h.Players))
	for _, p := range h.Players {
		seats = append(seats, p.Seat)
	}
	seats = seat.Sorted(seats)

	before := h.SmallBlindSeat
	for _, s := range seats {
		if seat.Next(s, seats) == h.SmallBlindSeat {
			before = s
			break
		}
	}
	out := make([]*game.Player, 0, len(seats))
	for _, s := range seat.Clockwise(before, seats) {
		out = append(out, h.PlayerAt(s))
	}
	return out
}

// appendBoard deals the cards that open street, if the board has them.
func appendBoard(actions []string, h *game.Hand, street game.Street) []string {
	var lo, hi int
	switch street {
	case game.Flop:
		lo, hi = 0, 3
	case game.Turn:
		lo, hi = 3, 4
	case game.River:
		lo, hi = 4, 5
	default:
		return actions
	}
	if len(h.Board) < hi {
		return actions
	}
	return append(actions, "d db "+Cards(h.Board[lo:hi]))
}

// formatAction renders one player action. total is the player's bet on the
// street after acting; high is the street's bet to match before it.
func formatAction(player int, kind game.ActionKind, total, high int) string {
	switch kind {
	case game.Fold:
		return fmt.Sprintf("p%d f", player)
	case game.Raise:
		return fmt.Sprintf("p%d cbr %d", player, total)
	case game.AllIn:
		if total > high {
			return fmt.Sprintf("p%d cbr %d", player, total)
		}
	}
	return fmt.Sprintf("p%d cc", player)
}

func populateTime(hh *HandHistory, at time.Time) {
	at = at.UTC()
	hh.Timestamp = at
	hh.Time = at.Format("15:04:05")
	hh.TimeZone = "UTC"
	hh.Day = at.Day()
	hh.Month = int(at.Month())
	hh.Year = at.Year()
}
