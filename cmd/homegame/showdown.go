package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/lox/homegame/internal/showdown"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15"))

	winStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("10"))

	categoryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("12"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8"))
)

// ShowdownCmd evaluates hands without running a table.
type ShowdownCmd struct {
	Board   string   `short:"b" required:"" help:"Five board cards, e.g. 'AS KS QS 2D 3C'"`
	Players []string `short:"p" name:"player" required:"" help:"Entrant as seat:name:cards, e.g. '1:Alice:AH KH' (repeatable)"`
	Pot     int      `default:"0" help:"Pot to split among the winners"`
}

func (c *ShowdownCmd) Run() error {
	entrants := make([]showdown.Entrant, 0, len(c.Players))
	for _, p := range c.Players {
		e, err := parseEntrant(p)
		if err != nil {
			return err
		}
		entrants = append(entrants, e)
	}

	res, err := showdown.Run(entrants, strings.Fields(c.Board), c.Pot)
	if err != nil {
		return err
	}
	renderShowdown(os.Stdout, res)
	return nil
}

// parseEntrant parses "seat:name:cards". The id is the lower-cased name.
func parseEntrant(s string) (showdown.Entrant, error) {
	parts := strings.SplitN(s, ":", 3)
	if len(parts) != 3 {
		return showdown.Entrant{}, fmt.Errorf("player %q: want seat:name:cards", s)
	}
	seat, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return showdown.Entrant{}, fmt.Errorf("player %q: seat: %w", s, err)
	}
	name := strings.TrimSpace(parts[1])
	if name == "" {
		return showdown.Entrant{}, fmt.Errorf("player %q: name is required", s)
	}
	return showdown.Entrant{
		Seat: seat,
		ID:   strings.ToLower(name),
		Name: name,
		Hole: strings.Fields(parts[2]),
	}, nil
}

func renderShowdown(w io.Writer, res *showdown.Result) {
	_, _ = fmt.Fprintln(w, headerStyle.Render("Board: "+strings.Join(res.Board, " ")))
	_, _ = fmt.Fprintln(w)

	winners := make(map[int]bool, len(res.Winners))
	for _, p := range res.Winners {
		winners[p.Seat] = true
	}
	for _, p := range res.Players {
		name := fmt.Sprintf("Seat %d %-12s", p.Seat, p.Name)
		if winners[p.Seat] {
			name = winStyle.Render(name)
		}
		_, _ = fmt.Fprintf(w, "%s %s  %s %s\n",
			name,
			strings.Join(p.Hole, " "),
			categoryStyle.Render(fmt.Sprintf("%-16s", p.Category)),
			dimStyle.Render(strings.Join(p.Best, " ")))
	}

	if len(res.ShareList) == 0 {
		return
	}
	_, _ = fmt.Fprintln(w)
	for _, s := range res.ShareList {
		_, _ = fmt.Fprintln(w, winStyle.Render(fmt.Sprintf("%s wins %d", s.Name, s.Amount)))
	}
}
