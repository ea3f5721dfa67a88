package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/lox/homegame/internal/game"
	"github.com/lox/homegame/internal/server"
	"github.com/lox/homegame/poker"
)

var actingStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("11"))

// WatchCmd prints every state change of a table. With --id it joins the
// table first so the participant's own cards are shown.
type WatchCmd struct {
	Server string `default:"ws://localhost:8080" help:"Server websocket base URL"`
	Table  string `short:"t" default:"main" help:"Table to watch"`
	ID     string `help:"Participant id to join as (optional)"`
	Name   string `help:"Display name when joining (defaults to the id)"`
}

func (c *WatchCmd) Run() error {
	logger := log.NewWithOptions(os.Stderr, log.Options{Prefix: "watch"})

	u, err := url.Parse(c.Server)
	if err != nil {
		return fmt.Errorf("server url: %w", err)
	}
	u = u.JoinPath("tables", c.Table, "ws")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return fmt.Errorf("connect %s: %w", u, err)
	}
	defer func() { _ = conn.Close() }()
	go func() {
		<-ctx.Done()
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		_ = conn.Close()
	}()
	logger.Info("Connected", "url", u.String())

	if c.ID != "" {
		name := c.Name
		if name == "" {
			name = c.ID
		}
		msg, err := server.NewMessage(server.MessageTypeJoin, server.JoinData{ParticipantID: c.ID, Name: name})
		if err != nil {
			return err
		}
		if err := conn.WriteJSON(msg); err != nil {
			return fmt.Errorf("join: %w", err)
		}
	}

	for {
		var msg server.Message
		if err := conn.ReadJSON(&msg); err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("read: %w", err)
		}
		switch msg.Type {
		case server.MessageTypeState:
			var state server.StateData
			if err := json.Unmarshal(msg.Data, &state); err != nil {
				logger.Warn("Unreadable state", "error", err)
				continue
			}
			renderState(os.Stdout, state)
		case server.MessageTypeError:
			var e server.ErrorData
			_ = json.Unmarshal(msg.Data, &e)
			logger.Error("Server error", "code", e.Code, "message", e.Message)
		}
	}
}

func renderState(w io.Writer, s server.StateData) {
	snap := s.Table
	_, _ = fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("Table %s  blinds %d/%d  v%d", snap.TableID, snap.SmallBlind, snap.BigBlind, snap.Version)))

	h := snap.Hand
	if h == nil {
		_, _ = fmt.Fprintf(w, "Waiting for a hand, %d seated\n\n", len(s.Members))
		return
	}

	_, _ = fmt.Fprintf(w, "Hand %d  %s  pot %d  board %s\n", h.Number, h.Street, h.Pot, boardString(h.Board))
	players := make([]*game.Player, 0, len(h.Players))
	for _, p := range h.Players {
		players = append(players, p)
	}
	slices.SortFunc(players, func(a, b *game.Player) int { return a.Seat - b.Seat })

	for _, p := range players {
		line := fmt.Sprintf("Seat %d %-12s %5d", p.Seat, p.Name, p.Stack)
		if p.Seat == h.DealerSeat {
			line += " (D)"
		}
		if len(p.Hole) > 0 {
			line += "  " + poker.FormatCards(p.Hole)
		}
		switch {
		case p.Folded:
			line = dimStyle.Render(line + "  folded")
		case p.ID == h.Acting:
			line = actingStyle.Render(line + "  to act")
		case p.LastAction != "":
			line += "  " + p.LastAction
		}
		_, _ = fmt.Fprintln(w, line)
	}

	if h.Result != nil {
		_, _ = fmt.Fprintln(w, winStyle.Render(h.Result.Summary))
	}
	if o := snap.Options; o != nil {
		kinds := make([]string, len(o.Actions))
		for i, k := range o.Actions {
			kinds[i] = string(k)
		}
		_, _ = fmt.Fprintf(w, "Your options: %s (to call %d", strings.Join(kinds, ", "), o.ToCall)
		if o.Allows(game.Raise) {
			_, _ = fmt.Fprintf(w, ", raise %d..%d", o.MinRaiseTo, o.MaxRaiseTo)
		}
		_, _ = fmt.Fprintln(w, ")")
	}
	_, _ = fmt.Fprintln(w)
}

func boardString(board []poker.Card) string {
	if len(board) == 0 {
		return "-"
	}
	return poker.FormatCards(board)
}
