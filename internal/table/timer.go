package table

import (
	"context"

	"github.com/lox/homegame/internal/game"
)

// armTimer schedules the acting player's timeout for the current hand
// version, replacing any earlier timer. The timer only submits a command;
// expire checks it still applies before acting.
func (t *Table) armTimer() {
	t.stopTimer()
	if !t.inProgress() || t.rec.Hand.Acting == "" {
		return
	}

	h := t.rec.Hand
	handID, version := h.ID, h.Version
	wait := h.LastActionAt.Add(t.settings().TurnDuration).Sub(t.clock.Now())
	if wait < 0 {
		wait = 0
	}
	t.timer = t.clock.AfterFunc(wait, func() {
		cmd := command{fn: func(ctx context.Context) error {
			t.expire(ctx, handID, version)
			return nil
		}}
		select {
		case t.cmds <- cmd:
		case <-t.done:
		}
	}, "table", "turn")
}

func (t *Table) stopTimer() {
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}

// expire applies the default action for whoever is acting, provided the hand
// has not moved on since the timer was armed.
func (t *Table) expire(ctx context.Context, handID string, version int64) {
	h := t.rec.Hand
	if h == nil || h.ID != handID || h.Version != version {
		t.logger.Debug("Discarding stale timeout", "hand", handID, "version", version)
		return
	}
	id, action, ok := game.TimeoutAction(h)
	if !ok {
		return
	}
	t.logger.Info("Turn timed out", "player", id, "action", action, "hand", h.Number)
	if err := t.apply(ctx, id, action, true); err != nil {
		t.logger.Error("Failed to apply timeout", "player", id, "error", err)
	}
}
