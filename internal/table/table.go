// Package table runs the authoritative state of a poker table. Each Table owns
// its live hand in a single goroutine; every change, including turn timeouts,
// is submitted to that goroutine and applied one at a time.
package table

import (
	"context"
	"errors"
	"fmt"
	rand "math/rand/v2"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/homegame/internal/fileutil"
	"github.com/lox/homegame/internal/game"
	"github.com/lox/homegame/internal/phh"
	"github.com/lox/homegame/internal/randutil"
	"github.com/lox/homegame/internal/store"
	"github.com/lox/homegame/poker"
)

var (
	// ErrHandInProgress is returned for changes only allowed between hands.
	ErrHandInProgress = errors.New("hand in progress")
	// ErrClosed is returned once the table's run loop has stopped.
	ErrClosed = errors.New("table closed")
)

// SeatProvider supplies who is seated and takes back stacks after a hand.
type SeatProvider interface {
	Seats(ctx context.Context) (map[int]game.Occupant, error)
	UpdateStacks(ctx context.Context, stacks map[string]int) error
}

type command struct {
	fn    func(context.Context) error
	reply chan error // nil for fire-and-forget commands such as timeouts
}

// Table serializes every change to one table's state.
type Table struct {
	id       string
	seats    SeatProvider
	store    store.Store
	logger   *log.Logger
	clock    quartz.Clock
	rng      *rand.Rand
	defaults Settings
	history  string

	cmds chan command
	done chan struct{}

	// Owned by the run loop.
	rec   store.Record
	timer *quartz.Timer

	current atomic.Pointer[Snapshot]
	subsMu  sync.Mutex
	subs    map[chan Snapshot]struct{}
}

// Option configures a Table.
type Option func(*Table)

// WithLogger sets the logger. Defaults to log.Default.
func WithLogger(logger *log.Logger) Option {
	return func(t *Table) { t.logger = logger }
}

// WithClock sets the clock used for timestamps and turn timers.
func WithClock(clock quartz.Clock) Option {
	return func(t *Table) { t.clock = clock }
}

// WithRand sets the shuffler's random source.
func WithRand(rng *rand.Rand) Option {
	return func(t *Table) { t.rng = rng }
}

// WithSettings sets the settings used when the store has nothing saved for
// this table yet.
func WithSettings(s Settings) Option {
	return func(t *Table) { t.defaults = s }
}

// WithHistoryDir writes every settled hand to dir as a PHH file.
func WithHistoryDir(dir string) Option {
	return func(t *Table) { t.history = dir }
}

// New creates a table. Nothing happens until Run is called.
func New(id string, seats SeatProvider, st store.Store, opts ...Option) *Table {
	t := &Table{
		id:       id,
		seats:    seats,
		store:    st,
		logger:   log.Default(),
		clock:    quartz.NewReal(),
		defaults: DefaultSettings(),
		cmds:     make(chan command, 16),
		done:     make(chan struct{}),
		subs:     make(map[chan Snapshot]struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.rng == nil {
		t.rng, _ = randutil.Seeded(nil)
	}
	t.logger = t.logger.WithPrefix("table").With("table", id)
	t.current.Store(&Snapshot{TableID: id})
	return t
}

// ID returns the table identifier.
func (t *Table) ID() string { return t.id }

// Snapshot returns the latest published state.
func (t *Table) Snapshot() Snapshot {
	return *t.current.Load()
}

// Run restores the table from the store and processes commands until ctx is
// cancelled.
func (t *Table) Run(ctx context.Context) error {
	defer close(t.done)
	if err := t.restore(ctx); err != nil {
		return err
	}
	t.logger.Info("Table open", "version", t.rec.Version, "hand", t.rec.HandNumber)

	for {
		select {
		case <-ctx.Done():
			t.stopTimer()
			t.logger.Info("Table closed")
			return nil
		case cmd := <-t.cmds:
			err := cmd.fn(ctx)
			if cmd.reply != nil {
				cmd.reply <- err
			}
		}
	}
}

func (t *Table) restore(ctx context.Context) error {
	rec, err := t.store.Load(ctx, t.id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		if err := t.defaults.Validate(); err != nil {
			return err
		}
		rec = store.Record{
			TableID:     t.id,
			Version:     1,
			SmallBlind:  t.defaults.SmallBlind,
			BigBlind:    t.defaults.BigBlind,
			TurnSeconds: t.defaults.TurnSeconds(),
			UpdatedAt:   t.clock.Now(),
		}
		if err := t.store.Save(ctx, rec, 0); err != nil {
			return fmt.Errorf("create table %s: %w", t.id, err)
		}
	case err != nil:
		return fmt.Errorf("restore table %s: %w", t.id, err)
	}

	t.rec = rec
	t.armTimer()
	t.publish(t.snapshot())
	return nil
}

// do runs fn on the table goroutine and waits for its result.
func (t *Table) do(ctx context.Context, fn func(context.Context) error) error {
	cmd := command{fn: fn, reply: make(chan error, 1)}
	select {
	case t.cmds <- cmd:
	case <-ctx.Done():
		return ctx.Err()
	case <-t.done:
		return ErrClosed
	}
	select {
	case err := <-cmd.reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-t.done:
		return ErrClosed
	}
}

// settings returns the current settings.
func (t *Table) settings() Settings {
	return Settings{
		SmallBlind:   t.rec.SmallBlind,
		BigBlind:     t.rec.BigBlind,
		TurnDuration: time.Duration(t.rec.TurnSeconds) * time.Second,
	}
}

// StartHand deals the next hand to everyone seated with chips.
func (t *Table) StartHand(ctx context.Context) (Snapshot, error) {
	err := t.do(ctx, func(ctx context.Context) error {
		if t.inProgress() {
			return fmt.Errorf("%w: hand %d", ErrHandInProgress, t.rec.HandNumber)
		}
		seats, err := t.seats.Seats(ctx)
		if err != nil {
			return fmt.Errorf("load seats: %w", err)
		}
		h, err := game.Start(t.rng, seats,
			game.WithBlinds(t.rec.SmallBlind, t.rec.BigBlind),
			game.WithPreviousDealer(t.rec.DealerSeat),
			game.WithHandNumber(t.rec.HandNumber+1),
		)
		if err != nil {
			return err
		}
		h.LastActionAt = t.clock.Now()

		rec := t.rec
		rec.Hand = h
		rec.HandNumber = h.Number
		rec.DealerSeat = h.DealerSeat
		if err := t.commit(ctx, rec); err != nil {
			return err
		}
		t.logger.Info("Hand started", "hand", h.Number, "id", h.ID, "dealer", h.DealerSeat, "players", len(h.Players))
		t.record(ctx, h, store.ActionRecord{Seq: 0, Action: "start_hand"})
		return nil
	})
	return t.Snapshot(), err
}

// Act applies playerID's action to the live hand.
func (t *Table) Act(ctx context.Context, playerID string, a game.Action) (Snapshot, error) {
	err := t.do(ctx, func(ctx context.Context) error {
		return t.apply(ctx, playerID, a, false)
	})
	return t.Snapshot(), err
}

func (t *Table) apply(ctx context.Context, playerID string, a game.Action, timeout bool) error {
	next, err := game.Apply(t.rec.Hand, playerID, a)
	if err != nil {
		t.logger.Debug("Rejected action", "player", playerID, "action", a, "error", err)
		return err
	}
	next.LastActionAt = t.clock.Now()

	rec := t.rec
	rec.Hand = next
	if err := t.commit(ctx, rec); err != nil {
		return err
	}

	name := string(a.Kind)
	if timeout {
		name = "timeout_" + name
	}
	t.record(ctx, next, store.ActionRecord{
		Seq:      len(next.Log),
		PlayerID: playerID,
		Action:   name,
		Amount:   a.Amount,
	})
	t.logger.Debug("Action", "player", playerID, "action", a, "street", next.Street, "pot", next.Pot, "timeout", timeout)
	return nil
}

// SetBoard overwrites the board of the live hand without touching betting.
func (t *Table) SetBoard(ctx context.Context, board []poker.Card) (Snapshot, error) {
	err := t.do(ctx, func(ctx context.Context) error {
		next, err := game.SetBoard(t.rec.Hand, board)
		if err != nil {
			return err
		}
		rec := t.rec
		rec.Hand = next
		if err := t.commit(ctx, rec); err != nil {
			return err
		}
		t.logger.Warn("Board overridden", "hand", next.Number, "board", poker.FormatCards(board))
		return nil
	})
	return t.Snapshot(), err
}

// UpdateSettings changes blinds and turn duration. Only allowed between hands.
func (t *Table) UpdateSettings(ctx context.Context, s Settings) (Snapshot, error) {
	if err := s.Validate(); err != nil {
		return t.Snapshot(), err
	}
	err := t.do(ctx, func(ctx context.Context) error {
		if t.inProgress() {
			return fmt.Errorf("%w: settings change between hands", ErrHandInProgress)
		}
		rec := t.rec
		rec.SmallBlind = s.SmallBlind
		rec.BigBlind = s.BigBlind
		rec.TurnSeconds = s.TurnSeconds()
		if err := t.commit(ctx, rec); err != nil {
			return err
		}
		t.logger.Info("Settings changed", "blinds", fmt.Sprintf("%d/%d", s.SmallBlind, s.BigBlind), "turn", s.TurnDuration)
		return nil
	})
	return t.Snapshot(), err
}

func (t *Table) inProgress() bool {
	return t.rec.Hand != nil && t.rec.Hand.Street < game.Showdown
}

// commit validates, persists and publishes rec. On any failure the table
// keeps its previous state.
func (t *Table) commit(ctx context.Context, rec store.Record) error {
	if rec.Hand != nil {
		if err := rec.Hand.Validate(); err != nil {
			t.logger.Error("Refusing invalid hand", "error", err)
			return err
		}
	}
	prev := t.rec
	rec.Version = prev.Version + 1
	rec.UpdatedAt = t.clock.Now()
	if err := t.store.Save(ctx, rec, prev.Version); err != nil {
		t.logger.Error("Failed to save table", "version", rec.Version, "error", err)
		return err
	}
	t.rec = rec

	if h := rec.Hand; h != nil && h.Street == game.Settled && (prev.Hand == nil || prev.Hand.ID != h.ID || prev.Hand.Street != game.Settled) {
		t.settled(ctx, h)
	}
	t.armTimer()
	t.publish(t.snapshot())
	return nil
}

func (t *Table) settled(ctx context.Context, h *game.Hand) {
	t.logger.Info("Hand settled", "hand", h.Number, "result", h.Result.Summary)
	if err := t.seats.UpdateStacks(ctx, h.Result.FinalStacks); err != nil {
		t.logger.Error("Failed to write back stacks", "hand", h.Number, "error", err)
	}
	if t.history != "" {
		if err := t.writeHistory(h); err != nil {
			t.logger.Error("Failed to write hand history", "hand", h.Number, "error", err)
		}
	}
}

func (t *Table) writeHistory(h *game.Hand) error {
	hh, err := phh.FromHand(h, t.id, t.clock.Now())
	if err != nil {
		return err
	}
	data, err := phh.Marshal(hh)
	if err != nil {
		return err
	}
	name := filepath.Join(t.history, fmt.Sprintf("%s-%06d.phh", t.id, h.Number))
	return fileutil.WriteFileAtomic(name, data, 0o644)
}

func (t *Table) record(ctx context.Context, h *game.Hand, a store.ActionRecord) {
	a.TableID = t.id
	a.HandID = h.ID
	a.HandNumber = h.Number
	a.At = t.clock.Now()
	if err := t.store.AppendAction(ctx, a); err != nil {
		t.logger.Error("Failed to log action", "hand", h.Number, "seq", a.Seq, "error", err)
	}
}

func (t *Table) snapshot() Snapshot {
	s := Snapshot{
		TableID:     t.id,
		Version:     t.rec.Version,
		HandNumber:  t.rec.HandNumber,
		DealerSeat:  t.rec.DealerSeat,
		SmallBlind:  t.rec.SmallBlind,
		BigBlind:    t.rec.BigBlind,
		TurnSeconds: t.rec.TurnSeconds,
		Hand:        t.rec.Hand,
		UpdatedAt:   t.rec.UpdatedAt,
	}
	if t.inProgress() {
		deadline := t.rec.Hand.LastActionAt.Add(t.settings().TurnDuration)
		s.TurnDeadline = &deadline
	}
	return s
}
