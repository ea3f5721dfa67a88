package game

import (
	"fmt"
	"slices"
	"strings"
)

// Street represents the betting round, or the terminal showdown/settled states
type Street int

const (
	Preflop Street = iota
	Flop
	Turn
	River
	Showdown
	Settled
)

var streetNames = [...]string{"preflop", "flop", "turn", "river", "showdown", "settled"}

func (s Street) String() string {
	if s < 0 || int(s) >= len(streetNames) {
		return fmt.Sprintf("street(%d)", int(s))
	}
	return streetNames[s]
}

// MarshalText encodes the street by name.
func (s Street) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a street name.
func (s *Street) UnmarshalText(text []byte) error {
	for i, name := range streetNames {
		if name == string(text) {
			*s = Street(i)
			return nil
		}
	}
	return fmt.Errorf("unknown street %q", text)
}

// boardSize is the number of board cards dealt by the time street begins.
func boardSize(s Street) int {
	switch s {
	case Preflop:
		return 0
	case Flop:
		return 3
	case Turn:
		return 4
	default:
		return 5
	}
}

// ActionKind names one of the five player actions
type ActionKind string

const (
	Fold  ActionKind = "fold"
	Check ActionKind = "check"
	Call  ActionKind = "call"
	Raise ActionKind = "raise"
	AllIn ActionKind = "allin"
)

// Action is a player decision. Amount is only meaningful for Raise, where it
// is the player's total bet for the street after the raise.
type Action struct {
	Kind   ActionKind `json:"action"`
	Amount int        `json:"amount,omitempty"`
}

// RaiseTo returns a bet or raise making the player's street total amount.
func RaiseTo(amount int) Action { return Action{Kind: Raise, Amount: amount} }

func (a Action) String() string {
	if a.Kind == Raise {
		return fmt.Sprintf("raise %d", a.Amount)
	}
	return string(a.Kind)
}

// ParseAction normalizes an action name from a client. "bet" and "raise" both
// map to Raise; "all-in", "all_in" and "allin" map to AllIn.
func ParseAction(kind string, amount int) (Action, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "fold":
		return Action{Kind: Fold}, nil
	case "check":
		return Action{Kind: Check}, nil
	case "call":
		return Action{Kind: Call}, nil
	case "bet", "raise", "raise_to", "raiseto":
		if amount <= 0 {
			return Action{}, fmt.Errorf("%w: %s needs a positive amount", ErrIllegalAction, kind)
		}
		return RaiseTo(amount), nil
	case "allin", "all-in", "all_in":
		return Action{Kind: AllIn}, nil
	default:
		return Action{}, fmt.Errorf("%w: unknown action %q", ErrIllegalAction, kind)
	}
}

// act applies a to p, moving chips into the pot. It fails without touching
// h when the action is not legal for p.
func (h *Hand) act(p *Player, a Action) (int, error) {
	toCall := p.ToCall(h.CurrentBet)
	switch a.Kind {
	case Fold:
		p.Folded = true
		return 0, nil

	case Check:
		if toCall > 0 {
			return 0, fmt.Errorf("%w: cannot check, %d to call", ErrIllegalAction, toCall)
		}
		return 0, nil

	case Call:
		amount := min(p.Stack, toCall)
		h.commit(p, amount)
		return amount, nil

	case Raise:
		if a.Amount <= h.CurrentBet {
			return 0, fmt.Errorf("%w: raise to %d does not exceed current bet %d", ErrIllegalAction, a.Amount, h.CurrentBet)
		}
		amount := a.Amount - p.StreetBet
		if amount > p.Stack {
			return 0, fmt.Errorf("%w: raise to %d needs %d chips, stack is %d", ErrIllegalAction, a.Amount, amount, p.Stack)
		}
		prev := h.CurrentBet
		h.commit(p, amount)
		h.raise(p, prev)
		return amount, nil

	case AllIn:
		amount := p.Stack
		prev := h.CurrentBet
		h.commit(p, amount)
		if p.StreetBet > prev {
			h.raise(p, prev)
		}
		return amount, nil

	default:
		return 0, fmt.Errorf("%w: unknown action %q", ErrIllegalAction, a.Kind)
	}
}

func (h *Hand) commit(p *Player, amount int) {
	p.Stack -= amount
	p.StreetBet += amount
	p.Committed += amount
	h.Pot += amount
	if p.Stack == 0 {
		p.AllIn = true
	}
}

// raise records p's new street bet as the one to match and reopens the action
// for everyone else still able to act.
func (h *Hand) raise(p *Player, prev int) {
	h.MinRaise = max(h.MinRaise, p.StreetBet-prev)
	h.CurrentBet = p.StreetBet
	for _, other := range h.Players {
		if other.ID != p.ID && other.CanAct() {
			other.Acted = false
		}
	}
}

// streetResolved reports whether no live player is left who must act.
func (h *Hand) streetResolved() bool {
	var canAct []*Player
	pending := false
	for _, p := range h.Players {
		if !p.CanAct() {
			continue
		}
		canAct = append(canAct, p)
		if !p.Acted || p.StreetBet != h.CurrentBet {
			pending = true
		}
	}
	if !pending {
		return true
	}
	// A lone player with chips who has already matched has nobody to bet against.
	return len(canAct) == 1 && canAct[0].StreetBet == h.CurrentBet
}

// Options describes what the acting player may do.
type Options struct {
	Actions []ActionKind `json:"actions"`
	ToCall  int          `json:"toCall"`
	// MinRaiseTo is the smallest full raise, capped at the player's stack.
	MinRaiseTo int `json:"minRaiseTo,omitempty"`
	MaxRaiseTo int `json:"maxRaiseTo,omitempty"`
}

// LegalActions returns the options open to participant id. It is empty when
// id is not the acting player.
func LegalActions(h *Hand, id string) Options {
	if h == nil || h.Street >= Showdown || h.Acting != id {
		return Options{}
	}
	p := h.Players[id]
	if p == nil {
		return Options{}
	}

	toCall := p.ToCall(h.CurrentBet)
	opts := Options{Actions: []ActionKind{Fold}, ToCall: min(toCall, p.Stack)}
	if toCall == 0 {
		opts.Actions = append(opts.Actions, Check)
	} else {
		opts.Actions = append(opts.Actions, Call)
	}
	if p.Stack > toCall {
		opts.Actions = append(opts.Actions, Raise)
		opts.MaxRaiseTo = p.StreetBet + p.Stack
		opts.MinRaiseTo = min(h.CurrentBet+h.MinRaise, opts.MaxRaiseTo)
	}
	opts.Actions = append(opts.Actions, AllIn)
	return opts
}

// Allows reports whether kind is among the options.
func (o Options) Allows(kind ActionKind) bool {
	return slices.Contains(o.Actions, kind)
}
