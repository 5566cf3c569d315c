// Package simulator runs headless self-play games in parallel. Every
// seat is a bot; the engine and strategies share one seeded rng per
// game, so a fixed master seed reproduces every deal, bid and play
// regardless of worker count.
package simulator

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"runtime"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/whoopiegame/whoopie/internal/bot"
	"github.com/whoopiegame/whoopie/internal/game"
)

// maxSteps caps the engine transitions in one game. A healthy game is
// a few hundred steps; hitting the cap means the state machine stalled.
const maxSteps = 100000

// Config controls a simulation run
type Config struct {
	Games   int
	Workers int
	Players int

	// Difficulties are assigned to seats round-robin. Empty means
	// every seat plays the normal strategy.
	Difficulties []game.Difficulty

	// Stanzas per game before the table calls it a night
	Stanzas int

	// MaxCardsPerPlayer caps the stanza size wave, 0 for the deck
	// limit
	MaxCardsPerPlayer int

	Seed   int64
	Logger *log.Logger
}

func (c *Config) validate() error {
	if c.Games < 1 {
		return fmt.Errorf("games must be positive, got %d", c.Games)
	}
	if c.Players < 2 || c.Players > 10 {
		return fmt.Errorf("players must be between 2 and 10, got %d", c.Players)
	}
	if c.Stanzas < 1 {
		return fmt.Errorf("stanzas must be positive, got %d", c.Stanzas)
	}
	if c.MaxCardsPerPlayer < 0 {
		return fmt.Errorf("max cards per player must not be negative, got %d", c.MaxCardsPerPlayer)
	}
	return nil
}

// GameResult is the outcome of one self-play game
type GameResult struct {
	GameIndex int
	Seed      int64

	Stanzas      int
	Tricks       int
	WhoopiePlays int
	Scrambles    int
	MissedCalls  int

	// ExactBids counts seat-stanzas where the bid matched the tricks
	// taken; TotalBids counts all scored bids.
	ExactBids int
	TotalBids int

	Scores   []int
	Rankings []int
}

// SeatStats aggregates one seat's results across all games. Seats keep
// the same difficulty in every game, so the stats compare strategies.
type SeatStats struct {
	Seat       int
	Difficulty game.Difficulty

	Wins       int
	TotalScore int
	Best       int
	Worst      int
	Games      int
}

// MeanScore returns the seat's average final score
func (s SeatStats) MeanScore() float64 {
	if s.Games == 0 {
		return 0
	}
	return float64(s.TotalScore) / float64(s.Games)
}

// Summary is the aggregate of a whole run. The integer totals are
// order-independent, so summaries from the same seed always match.
type Summary struct {
	Games   int
	Players int
	Seed    int64

	TotalStanzas int
	TotalTricks  int
	WhoopiePlays int
	Scrambles    int
	MissedCalls  int
	ExactBids    int
	TotalBids    int

	Seats   []SeatStats
	Results []GameResult
	Elapsed time.Duration
}

// ExactBidRate returns the fraction of scored bids that were hit
// exactly
func (s *Summary) ExactBidRate() float64 {
	if s.TotalBids == 0 {
		return 0
	}
	return float64(s.ExactBids) / float64(s.TotalBids)
}

// Run plays cfg.Games complete games across cfg.Workers goroutines and
// aggregates the results. Per-game seeds are drawn from the master
// seed up front, so the outcome is independent of scheduling.
func Run(ctx context.Context, cfg Config) (*Summary, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	workers := cfg.Workers
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	if workers > cfg.Games {
		workers = cfg.Games
	}

	master := rand.New(rand.NewSource(cfg.Seed))
	seeds := make([]int64, cfg.Games)
	for i := range seeds {
		seeds[i] = master.Int63()
	}

	logger.Info("Simulation starting", "games", cfg.Games, "players", cfg.Players,
		"stanzas", cfg.Stanzas, "workers", workers, "seed", cfg.Seed)

	start := time.Now()
	results := make([]GameResult, cfg.Games)
	jobs := make(chan int)

	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for idx := range jobs {
				result, err := playOneGame(idx, seeds[idx], cfg, logger)
				if err != nil {
					return fmt.Errorf("game %d (seed %d): %w", idx, seeds[idx], err)
				}
				results[idx] = result

				select {
				case <-ctx.Done():
					return ctx.Err()
				default:
				}
			}
			return nil
		})
	}

	g.Go(func() error {
		defer close(jobs)
		for idx := 0; idx < cfg.Games; idx++ {
			select {
			case jobs <- idx:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	summary := summarize(cfg, results)
	summary.Elapsed = time.Since(start)
	logger.Info("Simulation finished", "games", summary.Games,
		"stanzas", summary.TotalStanzas, "elapsed", summary.Elapsed)
	return summary, nil
}

// seatDifficulty returns the strategy difficulty for a seat index
func seatDifficulty(cfg Config, seat int) game.Difficulty {
	if len(cfg.Difficulties) == 0 {
		return game.DifficultyNormal
	}
	return cfg.Difficulties[seat%len(cfg.Difficulties)]
}

// playOneGame runs a single game to completion and tallies it
func playOneGame(idx int, seed int64, cfg Config, logger *log.Logger) (GameResult, error) {
	rng := rand.New(rand.NewSource(seed))
	gameLogger := log.New(io.Discard)
	engine := game.NewEngine(rng, gameLogger)

	players := make([]game.Player, cfg.Players)
	strategies := make([]bot.Strategy, cfg.Players)
	for i := range players {
		d := seatDifficulty(cfg, i)
		players[i] = game.NewAI(fmt.Sprintf("sim-%d-%d", idx, i), fmt.Sprintf("P%d", i+1), d)
		strategies[i] = bot.ForDifficulty(d, rng, gameLogger)
	}

	settings := game.Settings{
		MinPlayers:        2,
		MaxPlayers:        cfg.Players,
		MaxCardsPerPlayer: cfg.MaxCardsPerPlayer,
	}

	result := GameResult{GameIndex: idx, Seed: seed}
	verbose := logger.GetLevel() <= log.DebugLevel
	observe := func(evs []game.GameEvent) {
		if verbose {
			for _, ev := range evs {
				logger.Debug(game.FormatEvent(ev, players), "game", idx)
			}
		}
		result.observe(evs)
	}

	state, events := engine.NewGame(fmt.Sprintf("sim-%06d", idx), players[0], settings)
	observe(events)
	for _, p := range players[1:] {
		next, evs, err := engine.AddPlayer(state, p)
		if err != nil {
			return result, err
		}
		state = next
		observe(evs)
	}

	state, evs, err := engine.StartGame(state)
	if err != nil {
		return result, err
	}
	observe(evs)

	for steps := 0; ; steps++ {
		if steps > maxSteps {
			return result, fmt.Errorf("no progress after %d steps in phase %s", maxSteps, state.Phase)
		}

		switch state.Phase {
		case game.PhaseBidding:
			seat := state.Stanza.CurrentPlayerIndex
			view := game.BuildPlayerView(state, seat)
			decision := strategies[seat].ChooseBid(view, state.ValidBidsFor(seat))
			state, evs, err = engine.PlaceBid(state, seat, decision.Bid)

		case game.PhasePlaying:
			seat := state.Stanza.CurrentPlayerIndex
			view := game.BuildPlayerView(state, seat)
			decision := strategies[seat].ChooseCard(view, state.ValidCardsFor(seat))
			called := state.WhoopieCallRequired(seat, decision.Card)
			state, evs, err = engine.PlayCard(state, seat, decision.Card, called)

		case game.PhaseTrickEnd:
			state, evs, err = engine.ContinueGame(state)

		case game.PhaseStanzaEnd:
			if invErr := checkStanzaInvariants(state); invErr != nil {
				return result, invErr
			}
			if len(state.CompletedStanzas) >= cfg.Stanzas {
				state, evs, err = engine.EndGame(state)
			} else {
				state, evs, err = engine.ContinueToNextStanza(state)
			}

		case game.PhaseGameEnd:
			result.finish(state)
			logger.Debug("Game finished", "game", idx, "seed", seed,
				"stanzas", result.Stanzas, "scores", result.Scores)
			return result, nil

		default:
			return result, fmt.Errorf("unexpected phase %s", state.Phase)
		}
		if err != nil {
			return result, err
		}
		observe(evs)
	}
}

// observe tallies the interesting events from one transition
func (r *GameResult) observe(events []game.GameEvent) {
	for _, e := range events {
		switch ev := e.(type) {
		case game.CardPlayedEvent:
			if ev.WasWhoopie {
				r.WhoopiePlays++
			}
			if ev.WasScramble {
				r.Scrambles++
			}
		case game.TrickCompletedEvent:
			r.Tricks++
		case game.WhoopieCallMissedEvent:
			r.MissedCalls++
		}
	}
}

// finish fills the final tallies from the ended game
func (r *GameResult) finish(state *game.GameState) {
	r.Stanzas = len(state.CompletedStanzas)
	r.Scores = append([]int(nil), state.Scores...)
	r.Rankings = game.Rankings(state.Scores)

	for _, record := range state.CompletedStanzas {
		for i, bid := range record.Bids {
			r.TotalBids++
			if bid == record.TricksTaken[i] {
				r.ExactBids++
			}
		}
	}
}

// checkStanzaInvariants verifies card conservation for the stanza that
// just finished: every dealt card went into exactly one trick and every
// trick went to exactly one winner.
func checkStanzaInvariants(state *game.GameState) error {
	s := state.Stanza
	if s == nil {
		return fmt.Errorf("no stanza on a finished stanza state")
	}

	if len(s.CompletedTricks) != s.CardsPerPlayer {
		return fmt.Errorf("stanza %d finished with %d tricks for %d cards per player",
			s.StanzaNumber, len(s.CompletedTricks), s.CardsPerPlayer)
	}
	for i, trick := range s.CompletedTricks {
		if len(trick.Cards) != state.NumPlayers() {
			return fmt.Errorf("trick %d has %d cards for %d players", i, len(trick.Cards), state.NumPlayers())
		}
		if trick.Winner < 0 || trick.Winner >= state.NumPlayers() {
			return fmt.Errorf("trick %d won by invalid seat %d", i, trick.Winner)
		}
	}
	for seat, hand := range s.Hands {
		if len(hand) != 0 {
			return fmt.Errorf("seat %d still holds %d cards after the stanza", seat, len(hand))
		}
	}

	record := state.CompletedStanzas[len(state.CompletedStanzas)-1]
	taken := 0
	for _, n := range record.TricksTaken {
		taken += n
	}
	if taken != record.CardsPerPlayer {
		return fmt.Errorf("stanza %d tricks taken sum to %d, want %d",
			record.StanzaNumber, taken, record.CardsPerPlayer)
	}
	return nil
}

// summarize folds the per-game results into run totals
func summarize(cfg Config, results []GameResult) *Summary {
	summary := &Summary{
		Games:   len(results),
		Players: cfg.Players,
		Seed:    cfg.Seed,
		Seats:   make([]SeatStats, cfg.Players),
		Results: results,
	}

	for i := range summary.Seats {
		summary.Seats[i] = SeatStats{Seat: i, Difficulty: seatDifficulty(cfg, i)}
	}

	for _, r := range results {
		summary.TotalStanzas += r.Stanzas
		summary.TotalTricks += r.Tricks
		summary.WhoopiePlays += r.WhoopiePlays
		summary.Scrambles += r.Scrambles
		summary.MissedCalls += r.MissedCalls
		summary.ExactBids += r.ExactBids
		summary.TotalBids += r.TotalBids

		for seat, score := range r.Scores {
			stats := &summary.Seats[seat]
			if stats.Games == 0 || score > stats.Best {
				stats.Best = score
			}
			if stats.Games == 0 || score < stats.Worst {
				stats.Worst = score
			}
			stats.Games++
			stats.TotalScore += score
			if r.Rankings[seat] == 1 {
				stats.Wins++
			}
		}
	}
	return summary
}
