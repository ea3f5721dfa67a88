package phh

import (
	"strings"

	"github.com/lox/homegame/poker"
)

// Card renders c as PHH expects: upper-case rank, lower-case suit ("Th").
func Card(c poker.Card) string {
	s := c.String()
	if s == "??" {
		return s
	}
	return s[:1] + strings.ToLower(s[1:])
}

// Cards concatenates cards without separators, e.g. "AhKh".
func Cards(cards []poker.Card) string {
	var b strings.Builder
	for _, c := range cards {
		b.WriteString(Card(c))
	}
	return b.String()
}
