package bot

import (
	"math/rand"

	"github.com/charmbracelet/log"

	"github.com/whoopiegame/whoopie/internal/deck"
	"github.com/whoopiegame/whoopie/internal/game"
)

// EasyBot picks uniformly among the legal moves
type EasyBot struct {
	rng    *rand.Rand
	logger *log.Logger
}

// NewEasyBot creates a new EasyBot instance
func NewEasyBot(rng *rand.Rand, logger *log.Logger) *EasyBot {
	return &EasyBot{rng: ensureRNG(rng), logger: ensureLogger(logger)}
}

func (b *EasyBot) Name() string { return "easy" }

func (b *EasyBot) ChooseBid(view game.PlayerView, valid []int) BidDecision {
	return BidDecision{
		Bid:       valid[b.rng.Intn(len(valid))],
		Reasoning: "easy-bot random bid",
	}
}

func (b *EasyBot) ChooseCard(view game.PlayerView, valid []deck.Card) PlayDecision {
	return PlayDecision{
		Card:      valid[b.rng.Intn(len(valid))],
		Reasoning: "easy-bot random card",
	}
}
