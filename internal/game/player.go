package game

import (
	"github.com/lox/homegame/poker"
)

// Occupant is a participant sitting at a seat between hands.
type Occupant struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Stack int    `json:"stack"`
}

// Player represents a participant in a hand
type Player struct {
	ID         string       `json:"id"`
	Name       string       `json:"name"`
	Seat       int          `json:"seat"`
	Stack      int          `json:"stack"` // Chips not yet committed this hand
	Hole       []poker.Card `json:"hole,omitempty"`
	Folded     bool         `json:"folded"`
	AllIn      bool         `json:"allIn"`
	StreetBet  int          `json:"streetBet"` // Committed on the current street
	Committed  int          `json:"committed"` // Committed over the whole hand
	Acted      bool         `json:"acted"`
	LastAction string       `json:"lastAction,omitempty"`
}

// CanAct returns true if the player may still be asked for an action
func (p *Player) CanAct() bool {
	return !p.Folded && !p.AllIn
}

// ToCall returns the chips needed to match currentBet, ignoring the stack.
func (p *Player) ToCall(currentBet int) int {
	return max(0, currentBet-p.StreetBet)
}

func (p *Player) clone() *Player {
	c := *p
	c.Hole = append([]poker.Card(nil), p.Hole...)
	return &c
}
