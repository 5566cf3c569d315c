package bot

import (
	"fmt"
	"math/rand"

	"github.com/charmbracelet/log"

	"github.com/whoopiegame/whoopie/internal/deck"
	"github.com/whoopiegame/whoopie/internal/game"
)

// NormalBot bids by counting likely winners and plays to land exactly
// on its bid: chase tricks with the cheapest card that wins, duck
// tricks once the bid is made
type NormalBot struct {
	rng    *rand.Rand
	logger *log.Logger
}

// NewNormalBot creates a new NormalBot instance
func NewNormalBot(rng *rand.Rand, logger *log.Logger) *NormalBot {
	return &NormalBot{rng: ensureRNG(rng), logger: ensureLogger(logger)}
}

func (b *NormalBot) Name() string { return "normal" }

func (b *NormalBot) ChooseBid(view game.PlayerView, valid []int) BidDecision {
	hand := view.Seats[view.YourSeat].Hand
	trump := view.Stanza.Trump

	likely := 0
	for _, c := range hand {
		switch {
		case c.IsJoker():
			likely++
		case trump.WhoopieRank != nil && c.Rank == *trump.WhoopieRank:
			likely++
		case trump.TrumpSuit != nil && c.Suit == *trump.TrumpSuit && c.Rank >= deck.Jack:
			likely++
		case c.Rank == deck.Ace:
			likely++
		}
	}

	// Nearest legal bid; the dealer hook may exclude the exact count.
	// Ties break toward the lower bid.
	best := valid[0]
	for _, bid := range valid[1:] {
		if abs(bid-likely) < abs(best-likely) {
			best = bid
		}
	}

	b.logger.Debug("Normal bot bid", "seat", view.YourSeat, "likely", likely, "bid", best)
	return BidDecision{
		Bid:       best,
		Reasoning: fmt.Sprintf("counted %d likely winners", likely),
	}
}

func (b *NormalBot) ChooseCard(view game.PlayerView, valid []deck.Card) PlayDecision {
	seat := view.Seats[view.YourSeat]
	trump := view.Stanza.Trump

	need := 0
	if seat.Bid != nil {
		need = *seat.Bid - seat.TricksTaken
	}

	var decision PlayDecision
	if len(view.Stanza.CurrentTrick) == 0 {
		if need > 0 {
			decision = PlayDecision{
				Card:      strongest(valid, trump),
				Reasoning: fmt.Sprintf("leading strong, %d tricks short of the bid", need),
			}
		} else {
			decision = PlayDecision{
				Card:      weakest(valid, trump),
				Reasoning: "leading low, bid already made",
			}
		}
		b.logger.Debug("Normal bot lead", "seat", view.YourSeat, "card", decision.Card.String(), "need", need)
		return decision
	}

	var winners, losers []deck.Card
	for _, c := range valid {
		if wouldWinTrick(view, c) {
			winners = append(winners, c)
		} else {
			losers = append(losers, c)
		}
	}

	switch {
	case need > 0 && len(winners) > 0:
		decision = PlayDecision{
			Card:      weakest(winners, trump),
			Reasoning: "cheapest card that takes the trick",
		}
	case need > 0:
		decision = PlayDecision{
			Card:      weakest(valid, trump),
			Reasoning: "cannot win this trick, dumping the cheapest card",
		}
	case len(losers) > 0:
		decision = PlayDecision{
			Card:      strongest(losers, trump),
			Reasoning: "bid made, shedding the biggest liability that still loses",
		}
	default:
		decision = PlayDecision{
			Card:      weakest(winners, trump),
			Reasoning: "every card wins, conceding the cheapest",
		}
	}

	b.logger.Debug("Normal bot follow", "seat", view.YourSeat, "card", decision.Card.String(),
		"need", need, "winners", len(winners))
	return decision
}

// weakest returns the lowest-strength card, earliest on ties
func weakest(cards []deck.Card, trump game.TrumpState) deck.Card {
	best := cards[0]
	for _, c := range cards[1:] {
		if cardStrength(c, trump) < cardStrength(best, trump) {
			best = c
		}
	}
	return best
}

// strongest returns the highest-strength card, earliest on ties
func strongest(cards []deck.Card, trump game.TrumpState) deck.Card {
	best := cards[0]
	for _, c := range cards[1:] {
		if cardStrength(c, trump) > cardStrength(best, trump) {
			best = c
		}
	}
	return best
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
