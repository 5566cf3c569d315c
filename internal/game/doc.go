// Package game implements the Whoopie rules engine: dealing, bidding
// with the dealer hook, the history-dependent trump mechanism, trick
// resolution over frozen per-card snapshots, stanza-size progression
// and scoring.
//
// The main type is Engine, whose command methods are pure transitions:
// each takes a *GameState, validates, and returns a new state plus the
// ordered events for the host to broadcast. A rejected command returns
// an error from the taxonomy in errors.go and leaves the given state
// untouched. The engine holds no per-game state and does no locking;
// hosts must serialize commands per game id.
//
// # Basic Usage
//
// Create a game, seat players and run it:
//
//	e := game.NewEngine(nil, logger)
//	state, _ := e.NewGame("g1", game.NewHuman("p1", "Alice"), game.DefaultSettings())
//	state, _, err := e.AddPlayer(state, game.NewHuman("p2", "Bob"))
//	state, events, err := e.StartGame(state)
//	// bidding
//	state, events, err = e.PlaceBid(state, seat, bid)
//	// play
//	state, events, err = e.PlayCard(state, seat, card, calledWhoopie)
//
// # Deterministic Testing
//
// The engine accepts a *rand.Rand for shuffles and cuts; a fixed seed
// makes every deal reproducible:
//
//	rng := rand.New(rand.NewSource(42))
//	e := game.NewEngine(rng, nil)
//
// # Redaction
//
// Hosts must never send a GameState across a trust boundary. Use
// BuildPlayerView, which exposes only the viewing seat's own hand and
// reduces every other hand to a card count.
package game
