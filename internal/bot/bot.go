// Package bot provides the AI strategies that fill empty seats and
// take over disconnected players. Strategies see only the redacted
// PlayerView and the engine's legal-move sets, never hidden hands.
package bot

import (
	"io"
	"math/rand"
	"time"

	"github.com/charmbracelet/log"

	"github.com/whoopiegame/whoopie/internal/deck"
	"github.com/whoopiegame/whoopie/internal/game"
)

// BidDecision is a chosen bid with the reasoning behind it, for host
// logs and the simulator's verbose mode
type BidDecision struct {
	Bid       int
	Reasoning string
}

// PlayDecision is a chosen card with the reasoning behind it
type PlayDecision struct {
	Card      deck.Card
	Reasoning string
}

// Strategy picks a seat's moves from the engine's legal sets. valid is
// never empty: the engine always offers at least one legal move.
type Strategy interface {
	Name() string
	ChooseBid(view game.PlayerView, valid []int) BidDecision
	ChooseCard(view game.PlayerView, valid []deck.Card) PlayDecision
}

// ForDifficulty returns the strategy for an AI player's difficulty.
// Unknown difficulties fall back to easy.
func ForDifficulty(d game.Difficulty, rng *rand.Rand, logger *log.Logger) Strategy {
	switch d {
	case game.DifficultyNormal:
		return NewNormalBot(rng, logger)
	default:
		return NewEasyBot(rng, logger)
	}
}

func ensureRNG(rng *rand.Rand) *rand.Rand {
	if rng == nil {
		return rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return rng
}

func ensureLogger(logger *log.Logger) *log.Logger {
	if logger == nil {
		return log.New(io.Discard)
	}
	return logger
}

// cardStrength scores a card's trick-taking power under the given
// trump state. Trumps clear every non-trump, so they score above the
// plain rank range; an undefined-rank joker is unbeatable.
func cardStrength(c deck.Card, trump game.TrumpState) int {
	const trumpBonus = 20

	if c.IsJoker() {
		if trump.WhoopieRank == nil {
			return 100
		}
		return trump.WhoopieRank.Value() + trumpBonus
	}
	if trump.WhoopieRank != nil && c.Rank == *trump.WhoopieRank {
		return c.Rank.Value() + trumpBonus
	}
	if trump.TrumpSuit != nil && c.Suit == *trump.TrumpSuit {
		return c.Rank.Value() + trumpBonus
	}
	return c.Rank.Value()
}

// wouldWinTrick reports whether playing candidate right now would take
// the trick as it stands, using the same snapshot resolution the engine
// applies. Later players can still overtake; this is the view before
// they act.
func wouldWinTrick(view game.PlayerView, candidate deck.Card) bool {
	s := view.Stanza
	trick := s.CurrentTrick

	isLead := len(trick) == 0
	if isLead {
		return true
	}

	var leadSuit *deck.Suit
	if !trick[0].Card.IsJoker() {
		suit := trick[0].Card.Suit
		leadSuit = &suit
	}

	change := game.TrumpStateAfterPlay(candidate, s.Trump, leadSuit, isLead)
	played := game.PlayedCard{
		Card:               candidate,
		Seat:               view.YourSeat,
		JTrumpActiveAtPlay: change.Trump.JTrumpActive,
	}
	if change.Trump.TrumpSuit != nil {
		suit := *change.Trump.TrumpSuit
		played.TrumpSuitAtPlay = &suit
	}

	hypothetical := make([]game.PlayedCard, 0, len(trick)+1)
	hypothetical = append(hypothetical, trick...)
	hypothetical = append(hypothetical, played)

	return game.ResolveTrickWinner(hypothetical, change.Trump.WhoopieRank) == view.YourSeat
}
