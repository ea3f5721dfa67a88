package game

import (
	"errors"
	"fmt"
	rand "math/rand/v2"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/lox/homegame/internal/seat"
	"github.com/lox/homegame/internal/showdown"
	"github.com/lox/homegame/poker"
)

var (
	// ErrIllegalAction is returned for out-of-turn or rule-breaking actions.
	// The hand passed in is left untouched.
	ErrIllegalAction = errors.New("illegal action")
	// ErrNotEnoughPlayers is returned by Start when fewer than two seats hold
	// a participant with chips.
	ErrNotEnoughPlayers = errors.New("not enough players")
	// ErrInvariant is returned by Validate when a snapshot breaks one of the
	// hand's bookkeeping rules.
	ErrInvariant = errors.New("hand invariant violated")
)

// LogEntry records one accepted action.
type LogEntry struct {
	Seq      int    `json:"seq"`
	PlayerID string `json:"playerId"`
	Seat     int    `json:"seat"`
	Street   Street `json:"street"`
	Action   Action `json:"action"`
	Chips    int    `json:"chips"` // Moved from stack to pot by this action
}

// Hand is a snapshot of a single deal from blinds to settlement.
type Hand struct {
	ID             string             `json:"id"`
	Number         int                `json:"number"`
	Street         Street             `json:"street"`
	Board          []poker.Card       `json:"board"`
	BoardOverride  bool               `json:"boardOverride,omitempty"`
	DealerSeat     int                `json:"dealerSeat"`
	SmallBlindSeat int                `json:"smallBlindSeat"`
	BigBlindSeat   int                `json:"bigBlindSeat"`
	SmallBlind     int                `json:"smallBlind"`
	BigBlind       int                `json:"bigBlind"`
	CurrentBet     int                `json:"currentBet"`
	MinRaise       int                `json:"minRaise"`
	Acting         string             `json:"acting"`
	Deck           *poker.Deck        `json:"deck,omitempty"`
	Players        map[string]*Player `json:"players"`
	Pot            int                `json:"pot"`
	StartingChips  int                `json:"startingChips"`
	Log            []LogEntry         `json:"log"`
	Result         *Result            `json:"result,omitempty"`
	LastActionAt   time.Time          `json:"lastActionAt"`
	Version        int64              `json:"version"`
}

// Start deals a new hand to every seated participant with chips. Seats must
// be in 1..8. rng shuffles the deck unless WithDeck supplies one; Start
// panics when neither is available.
func Start(rng *rand.Rand, seats map[int]Occupant, opts ...StartOption) (*Hand, error) {
	cfg := defaultStartConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if rng == nil && cfg.deck == nil {
		panic("rng is required for hand creation")
	}
	if cfg.smallBlind <= 0 || cfg.bigBlind <= 0 {
		return nil, fmt.Errorf("blinds must be positive, got %d/%d", cfg.smallBlind, cfg.bigBlind)
	}

	var occupied []int
	ids := make(map[string]bool, len(seats))
	for s, occ := range seats {
		if !seat.Valid(s) {
			return nil, fmt.Errorf("seat %d out of range 1..%d", s, seat.MaxSeats)
		}
		if occ.Stack <= 0 {
			continue
		}
		if occ.ID == "" || ids[occ.ID] {
			return nil, fmt.Errorf("seat %d: participant id %q missing or repeated", s, occ.ID)
		}
		ids[occ.ID] = true
		occupied = append(occupied, s)
	}
	if len(occupied) < 2 {
		return nil, fmt.Errorf("%w: %d seated with chips", ErrNotEnoughPlayers, len(occupied))
	}
	occupied = seat.Sorted(occupied)

	dealer := occupied[0]
	if cfg.previousDealer > 0 {
		dealer = seat.Next(cfg.previousDealer, occupied)
	}
	sb := seat.Next(dealer, occupied)
	bb := seat.Next(sb, occupied)

	deck := cfg.deck
	if deck == nil {
		deck = poker.NewDeck(rng)
	}
	id := cfg.id
	if id == "" {
		id = uuid.NewString()
	}

	h := &Hand{
		ID:             id,
		Number:         cfg.number,
		Street:         Preflop,
		Board:          []poker.Card{},
		DealerSeat:     dealer,
		SmallBlindSeat: sb,
		BigBlindSeat:   bb,
		SmallBlind:     cfg.smallBlind,
		BigBlind:       cfg.bigBlind,
		MinRaise:       cfg.bigBlind,
		Deck:           deck,
		Players:        make(map[string]*Player, len(occupied)),
		Log:            []LogEntry{},
		Version:        1,
	}
	for _, s := range occupied {
		occ := seats[s]
		h.Players[occ.ID] = &Player{ID: occ.ID, Name: occ.Name, Seat: s, Stack: occ.Stack}
		h.StartingChips += occ.Stack
	}

	if err := h.dealHoleCards(); err != nil {
		return nil, err
	}
	h.postBlinds()

	if err := h.advance(bb); err != nil {
		return nil, err
	}
	return h, nil
}

// dealHoleCards deals one card at a time, starting left of the button.
func (h *Hand) dealHoleCards() error {
	order := seat.Clockwise(h.DealerSeat, h.seats(func(*Player) bool { return true }))
	for range 2 {
		for _, s := range order {
			c, err := h.Deck.Draw()
			if err != nil {
				return fmt.Errorf("dealing hole cards: %w", err)
			}
			p := h.PlayerAt(s)
			p.Hole = append(p.Hole, c)
		}
	}
	return nil
}

func (h *Hand) postBlinds() {
	small := h.PlayerAt(h.SmallBlindSeat)
	big := h.PlayerAt(h.BigBlindSeat)

	h.commit(small, min(h.SmallBlind, small.Stack))
	small.LastAction = "small blind"
	h.commit(big, min(h.BigBlind, big.Stack))
	big.LastAction = "big blind"

	h.CurrentBet = max(small.StreetBet, big.StreetBet)
}

// PlayerAt returns the player sitting at s, or nil.
func (h *Hand) PlayerAt(s int) *Player {
	for _, p := range h.Players {
		if p.Seat == s {
			return p
		}
	}
	return nil
}

// ActingPlayer returns the player whose turn it is, or nil.
func (h *Hand) ActingPlayer() *Player {
	if h.Acting == "" {
		return nil
	}
	return h.Players[h.Acting]
}

// Live returns the players who have not folded, ordered by seat.
func (h *Hand) Live() []*Player {
	var live []*Player
	for _, p := range h.Players {
		if !p.Folded {
			live = append(live, p)
		}
	}
	slices.SortFunc(live, func(a, b *Player) int { return a.Seat - b.Seat })
	return live
}

func (h *Hand) seats(keep func(*Player) bool) []int {
	var out []int
	for _, p := range h.Players {
		if keep(p) {
			out = append(out, p.Seat)
		}
	}
	return seat.Sorted(out)
}

// Clone returns a deep copy that shares nothing mutable with h.
func (h *Hand) Clone() *Hand {
	c := *h
	c.Board = append([]poker.Card{}, h.Board...)
	c.Log = append([]LogEntry{}, h.Log...)
	if h.Deck != nil {
		c.Deck = h.Deck.Clone()
	}
	c.Players = make(map[string]*Player, len(h.Players))
	for id, p := range h.Players {
		c.Players[id] = p.clone()
	}
	return &c
}

// Redacted returns a copy fit to send to viewer: the deck is dropped and
// other players' hole cards are hidden unless they were shown down.
func (h *Hand) Redacted(viewer string) *Hand {
	c := h.Clone()
	c.Deck = nil
	shown := h.Result != nil && h.Result.Showdown != nil
	for id, p := range c.Players {
		if id == viewer || (shown && !p.Folded) {
			continue
		}
		p.Hole = nil
	}
	return c
}

// Validate checks the bookkeeping rules every snapshot must satisfy.
func (h *Hand) Validate() error {
	total := h.Pot
	var cards []poker.Card
	for id, p := range h.Players {
		if p.ID != id {
			return fmt.Errorf("%w: player keyed %q has id %q", ErrInvariant, id, p.ID)
		}
		if p.Stack < 0 {
			return fmt.Errorf("%w: %s has negative stack %d", ErrInvariant, id, p.Stack)
		}
		total += p.Stack
		cards = append(cards, p.Hole...)
	}
	if total != h.StartingChips {
		return fmt.Errorf("%w: stacks plus pot is %d, hand started with %d", ErrInvariant, total, h.StartingChips)
	}

	cards = append(cards, h.Board...)
	if !poker.Distinct(cards...) {
		return fmt.Errorf("%w: a card is dealt twice", ErrInvariant)
	}
	if h.Deck != nil {
		for _, c := range cards {
			if h.Deck.Contains(c) {
				return fmt.Errorf("%w: %s is both dealt and in the deck", ErrInvariant, c)
			}
		}
	}

	live := h.Live()
	if h.Street < Showdown && len(live) > 1 {
		p := h.ActingPlayer()
		if p == nil {
			return fmt.Errorf("%w: no acting player on the %s", ErrInvariant, h.Street)
		}
	}
	if p := h.ActingPlayer(); p != nil && !p.CanAct() {
		return fmt.Errorf("%w: acting player %s is folded or all-in", ErrInvariant, p.ID)
	} else if h.Acting != "" && p == nil {
		return fmt.Errorf("%w: acting player %q is not in the hand", ErrInvariant, h.Acting)
	}

	if h.Street < Showdown {
		top := 0
		for _, p := range live {
			top = max(top, p.StreetBet)
		}
		if top != h.CurrentBet {
			return fmt.Errorf("%w: current bet %d, highest live bet %d", ErrInvariant, h.CurrentBet, top)
		}
	}

	if !h.BoardOverride && h.Street <= Showdown && len(h.Board) != boardSize(h.Street) {
		return fmt.Errorf("%w: %d board cards on the %s", ErrInvariant, len(h.Board), h.Street)
	}
	if len(h.Board) > 5 {
		return fmt.Errorf("%w: %d board cards", ErrInvariant, len(h.Board))
	}
	return nil
}

// SetBoard replaces the board outright. It is an operator override: betting
// state is untouched and cards are taken out of the deck, with the replaced
// board cards returned to it.
func SetBoard(h *Hand, board []poker.Card) (*Hand, error) {
	if h == nil || h.Street == Settled {
		return nil, fmt.Errorf("%w: no hand in progress", ErrIllegalAction)
	}
	if len(board) > 5 {
		return nil, fmt.Errorf("%w: %d cards", showdown.ErrInvalidBoard, len(board))
	}
	for _, c := range board {
		if !c.Valid() {
			return nil, fmt.Errorf("%w: board holds %#x", poker.ErrInvalidCard, uint64(c))
		}
	}
	if !poker.Distinct(board...) {
		return nil, fmt.Errorf("%w: board %s", showdown.ErrDuplicateCard, poker.FormatCards(board))
	}
	for _, p := range h.Players {
		for _, c := range p.Hole {
			if slices.Contains(board, c) {
				return nil, fmt.Errorf("%w: %s is held by %s", showdown.ErrDuplicateCard, c, p.Name)
			}
		}
	}

	next := h.Clone()
	if next.Deck != nil {
		next.Deck.Return(next.Board...)
		next.Deck.Remove(board...)
	}
	next.Board = append([]poker.Card{}, board...)
	next.BoardOverride = true
	next.Version++
	return next, nil
}
