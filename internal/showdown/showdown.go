// Package showdown ranks the hands still live at the end of a deal and splits
// the pot among the best of them.
package showdown

import (
	"errors"
	"fmt"
	"slices"

	"github.com/lox/homegame/poker"
)

var (
	// ErrInvalidBoard is returned when the board is not exactly five cards.
	ErrInvalidBoard = errors.New("invalid board")
	// ErrInvalidHand is returned for a player without exactly two hole cards,
	// an empty player list or a negative pot.
	ErrInvalidHand = errors.New("invalid hand")
	// ErrDuplicateCard is returned when any card appears twice across the
	// board and all hole cards.
	ErrDuplicateCard = errors.New("duplicate card")
)

// Entrant is a player still holding cards at showdown.
type Entrant struct {
	Seat int      `json:"seat"`
	ID   string   `json:"id"`
	Name string   `json:"name"`
	Hole []string `json:"hole"`
}

// PlayerResult is one entrant's best hand.
type PlayerResult struct {
	Seat     int         `json:"seat"`
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	Hole     []string    `json:"hole"`
	Best     []string    `json:"best"`
	Category string      `json:"category"`
	Score    poker.Score `json:"score"`
	Value    poker.Value `json:"-"`
}

// Share is the amount paid to one winner.
type Share struct {
	Seat   int    `json:"seat"`
	ID     string `json:"id"`
	Name   string `json:"name"`
	Amount int    `json:"amount"`
}

// Result holds the evaluation of every entrant and the pot split.
type Result struct {
	Board []string `json:"board"`
	// Players is ordered strongest first, ties by seat.
	Players []PlayerResult `json:"players"`
	// Winners is every player tied at the best score, by seat.
	Winners []PlayerResult `json:"winners"`
	// Shares maps winning seat to amount won.
	Shares    map[int]int `json:"shares"`
	ShareList []Share     `json:"shareList"`
}

// Run evaluates every entrant against the board and splits pot among the
// winners. Any invalid input fails the whole call.
func Run(entrants []Entrant, board []string, pot int) (*Result, error) {
	if len(entrants) == 0 {
		return nil, fmt.Errorf("%w: at least one player required", ErrInvalidHand)
	}
	if pot < 0 {
		return nil, fmt.Errorf("%w: pot must be non-negative, got %d", ErrInvalidHand, pot)
	}

	boardCards, err := poker.ParseTokens(board)
	if err != nil {
		return nil, fmt.Errorf("board: %w", err)
	}
	if len(boardCards) != 5 {
		return nil, fmt.Errorf("%w: need exactly 5 cards, got %d", ErrInvalidBoard, len(boardCards))
	}
	if !poker.Distinct(boardCards...) {
		return nil, fmt.Errorf("%w: board %s", ErrDuplicateCard, poker.FormatCards(boardCards))
	}

	used := poker.NewHand(boardCards...)
	seats := make(map[int]bool, len(entrants))
	results := make([]PlayerResult, 0, len(entrants))
	for _, e := range entrants {
		if seats[e.Seat] {
			return nil, fmt.Errorf("%w: seat %d listed twice", ErrInvalidHand, e.Seat)
		}
		seats[e.Seat] = true

		pr, err := evaluate(e, boardCards, used)
		if err != nil {
			return nil, err
		}
		for _, tok := range pr.Hole {
			c, _ := poker.ParseCard(tok)
			used.AddCard(c)
		}
		results = append(results, pr)
	}

	slices.SortStableFunc(results, func(a, b PlayerResult) int {
		if a.Score != b.Score {
			if a.Score < b.Score {
				return -1
			}
			return 1
		}
		return a.Seat - b.Seat
	})

	var winners []PlayerResult
	for _, r := range results {
		if r.Score != results[0].Score {
			break
		}
		winners = append(winners, r)
	}

	shares, list := Split(pot, winners)
	return &Result{
		Board:     poker.Tokens(boardCards),
		Players:   results,
		Winners:   winners,
		Shares:    shares,
		ShareList: list,
	}, nil
}

func evaluate(e Entrant, board []poker.Card, used poker.Hand) (PlayerResult, error) {
	if len(e.Hole) != 2 {
		return PlayerResult{}, fmt.Errorf("%w: seat %d has %d hole cards", ErrInvalidHand, e.Seat, len(e.Hole))
	}
	hole, err := poker.ParseTokens(e.Hole)
	if err != nil {
		return PlayerResult{}, fmt.Errorf("seat %d: %w", e.Seat, err)
	}

	var all [7]poker.Card
	copy(all[:], hole)
	copy(all[2:], board)
	if !poker.Distinct(all[:]...) {
		return PlayerResult{}, fmt.Errorf("%w: seat %d holds %s with board %s", ErrDuplicateCard, e.Seat, poker.FormatCards(hole), poker.FormatCards(board))
	}
	for _, c := range hole {
		if used.HasCard(c) {
			return PlayerResult{}, fmt.Errorf("%w: %s dealt to seat %d is already in play", ErrDuplicateCard, c, e.Seat)
		}
	}

	best, v := poker.BestOfSeven(all)
	return PlayerResult{
		Seat:     e.Seat,
		ID:       e.ID,
		Name:     e.Name,
		Hole:     poker.Tokens(hole),
		Best:     poker.Tokens(best[:]),
		Category: v.Category.String(),
		Score:    v.Score,
		Value:    v,
	}, nil
}

// Split divides pot among winners. Every winner gets pot/len(winners); the
// remainder goes one chip at a time to winners in ascending seat order.
func Split(pot int, winners []PlayerResult) (map[int]int, []Share) {
	ordered := slices.Clone(winners)
	slices.SortFunc(ordered, func(a, b PlayerResult) int { return a.Seat - b.Seat })

	shares := make(map[int]int, len(ordered))
	list := make([]Share, 0, len(ordered))
	if len(ordered) == 0 {
		return shares, list
	}

	base := pot / len(ordered)
	remainder := pot % len(ordered)
	for i, w := range ordered {
		amount := base
		if i < remainder {
			amount++
		}
		shares[w.Seat] = amount
		list = append(list, Share{Seat: w.Seat, ID: w.ID, Name: w.Name, Amount: amount})
	}
	return shares, list
}
