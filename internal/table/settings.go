package table

import (
	"errors"
	"fmt"
	"slices"
	"time"
)

// ErrInvalidSettings is returned for blinds or turn durations the table does
// not accept.
var ErrInvalidSettings = errors.New("invalid table settings")

// TurnDurations are the turn timer lengths a table may use.
var TurnDurations = []time.Duration{
	45 * time.Second,
	60 * time.Second,
	75 * time.Second,
	90 * time.Second,
	105 * time.Second,
	120 * time.Second,
}

// Settings are the table rules that may change between hands.
type Settings struct {
	SmallBlind   int           `json:"smallBlind"`
	BigBlind     int           `json:"bigBlind"`
	TurnDuration time.Duration `json:"-"`
}

// DefaultSettings are 1/2 blinds and a 60 second turn.
func DefaultSettings() Settings {
	return Settings{SmallBlind: 1, BigBlind: 2, TurnDuration: 60 * time.Second}
}

// TurnSeconds returns the turn duration in whole seconds.
func (s Settings) TurnSeconds() int {
	return int(s.TurnDuration / time.Second)
}

// Validate checks the blinds are positive with the big blind at least the
// small, and the turn duration is one of TurnDurations.
func (s Settings) Validate() error {
	if s.SmallBlind <= 0 || s.BigBlind <= 0 {
		return fmt.Errorf("%w: blinds must be positive, got %d/%d", ErrInvalidSettings, s.SmallBlind, s.BigBlind)
	}
	if s.BigBlind < s.SmallBlind {
		return fmt.Errorf("%w: big blind %d below small blind %d", ErrInvalidSettings, s.BigBlind, s.SmallBlind)
	}
	if !slices.Contains(TurnDurations, s.TurnDuration) {
		return fmt.Errorf("%w: turn duration %s not one of 45s..120s in 15s steps", ErrInvalidSettings, s.TurnDuration)
	}
	return nil
}
