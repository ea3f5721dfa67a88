package game

import (
	"fmt"
	"strings"

	"github.com/lox/homegame/internal/showdown"
	"github.com/lox/homegame/poker"
)

// Result summarizes how a hand ended.
type Result struct {
	Winners     []string         `json:"winners"`
	Payouts     map[string]int   `json:"payouts"`
	FinalStacks map[string]int   `json:"finalStacks"`
	Summary     string           `json:"summary"`
	Uncontested bool             `json:"uncontested"`
	Showdown    *showdown.Result `json:"showdown,omitempty"`
}

// settle pays the pot out and ends the hand. With one player left the pot is
// awarded without looking at cards; otherwise every live hand is shown down.
func (h *Hand) settle() error {
	live := h.Live()
	res := &Result{Payouts: make(map[string]int, len(live))}
	pot := h.Pot

	if len(live) == 1 {
		w := live[0]
		w.Stack += pot
		res.Winners = []string{w.ID}
		res.Payouts[w.ID] = pot
		res.Uncontested = true
		res.Summary = fmt.Sprintf("%s wins %d uncontested", w.Name, pot)
	} else {
		entrants := make([]showdown.Entrant, 0, len(live))
		for _, p := range live {
			entrants = append(entrants, showdown.Entrant{
				Seat: p.Seat,
				ID:   p.ID,
				Name: p.Name,
				Hole: poker.Tokens(p.Hole),
			})
		}
		sd, err := showdown.Run(entrants, poker.Tokens(h.Board), pot)
		if err != nil {
			return fmt.Errorf("showdown: %w", err)
		}

		names := make([]string, 0, len(sd.ShareList))
		for _, share := range sd.ShareList {
			h.Players[share.ID].Stack += share.Amount
			res.Payouts[share.ID] = share.Amount
			res.Winners = append(res.Winners, share.ID)
			names = append(names, share.Name)
		}
		res.Showdown = sd
		category := sd.Winners[0].Category
		if len(names) == 1 {
			res.Summary = fmt.Sprintf("%s wins %d with %s", names[0], pot, category)
		} else {
			res.Summary = fmt.Sprintf("%s split %d with %s", strings.Join(names, ", "), pot, category)
		}
	}

	res.FinalStacks = make(map[string]int, len(h.Players))
	for id, p := range h.Players {
		res.FinalStacks[id] = p.Stack
	}
	h.Pot = 0
	h.Street = Settled
	h.Acting = ""
	h.Result = res
	return nil
}
