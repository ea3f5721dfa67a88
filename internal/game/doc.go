// Package game implements the Texas Hold'em hand engine.
//
// A Hand is created by Start and advanced only by Apply, which takes the
// current snapshot, the acting participant and an Action, and returns a new
// snapshot. The input is never modified, so a rejected action leaves the
// caller holding exactly the state it had before.
//
// # Basic Usage
//
//	rng := randutil.New(42)
//	h, err := game.Start(rng, map[int]game.Occupant{
//	    1: {ID: "alice", Name: "Alice", Stack: 200},
//	    3: {ID: "bob", Name: "Bob", Stack: 200},
//	}, game.WithBlinds(1, 2))
//	// ...
//	h, err = game.Apply(h, h.Acting, game.Action{Kind: game.Call})
//	if h.Street == game.Settled {
//	    fmt.Println(h.Result.Summary)
//	}
//
// # Deterministic Testing
//
// Pass a seeded *rand.Rand, or a pre-arranged deck with WithDeck, to control
// every card dealt:
//
//	deck, _ := poker.NewStackedDeck(cards...)
//	h, _ := game.Start(nil, seats, game.WithDeck(deck))
//
// # Chips
//
// Every commitment moves straight from a player's stack into a single running
// pot. There are no side pots: at showdown the whole pot is split among the
// best hands still live, whatever each of them committed.
package game
