package simulator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/whoopiegame/whoopie/internal/game"
)

func testSimConfig() Config {
	return Config{
		Games:             4,
		Workers:           2,
		Players:           3,
		Stanzas:           3,
		MaxCardsPerPlayer: 3,
		Seed:              99,
	}
}

func TestRunValidatesConfig(t *testing.T) {
	ctx := context.Background()

	bad := testSimConfig()
	bad.Games = 0
	_, err := Run(ctx, bad)
	require.Error(t, err)

	bad = testSimConfig()
	bad.Players = 1
	_, err = Run(ctx, bad)
	require.Error(t, err)

	bad = testSimConfig()
	bad.Stanzas = 0
	_, err = Run(ctx, bad)
	require.Error(t, err)
}

func TestRunCompletesGames(t *testing.T) {
	summary, err := Run(context.Background(), testSimConfig())
	require.NoError(t, err)

	require.Equal(t, 4, summary.Games)
	require.Equal(t, 3, summary.Players)
	require.Equal(t, 4*3, summary.TotalStanzas, "every game plays its full stanza count")
	require.Len(t, summary.Results, 4)
	require.Len(t, summary.Seats, 3)

	// Stanza sizes wave 1,2,3 with a 3-card cap, so each game plays
	// 1+2+3 tricks
	require.Equal(t, 4*6, summary.TotalTricks)

	// Each seat-stanza scores exactly one bid
	require.Equal(t, 4*3*3, summary.TotalBids)
	require.LessOrEqual(t, summary.ExactBids, summary.TotalBids)
	require.InDelta(t, summary.ExactBidRate(), float64(summary.ExactBids)/float64(summary.TotalBids), 1e-9)

	for _, r := range summary.Results {
		require.Len(t, r.Scores, 3)
		require.Len(t, r.Rankings, 3)
		require.Contains(t, r.Rankings, 1, "someone finishes first")
	}

	wins := 0
	for _, seat := range summary.Seats {
		require.Equal(t, 4, seat.Games)
		require.GreaterOrEqual(t, seat.Best, seat.Worst)
		wins += seat.Wins
	}
	require.GreaterOrEqual(t, wins, 4, "at least one winner per game, more on ties")
}

func TestRunIsDeterministic(t *testing.T) {
	first, err := Run(context.Background(), testSimConfig())
	require.NoError(t, err)

	again, err := Run(context.Background(), testSimConfig())
	require.NoError(t, err)

	require.Equal(t, first.Results, again.Results)
	require.Equal(t, first.Seats, again.Seats)

	// Worker count must not change the outcome, only the schedule
	serial := testSimConfig()
	serial.Workers = 1
	oneWorker, err := Run(context.Background(), serial)
	require.NoError(t, err)
	require.Equal(t, first.Results, oneWorker.Results)
}

func TestRunMixedDifficulties(t *testing.T) {
	cfg := testSimConfig()
	cfg.Difficulties = []game.Difficulty{game.DifficultyNormal, game.DifficultyEasy}

	summary, err := Run(context.Background(), cfg)
	require.NoError(t, err)

	require.Equal(t, game.DifficultyNormal, summary.Seats[0].Difficulty)
	require.Equal(t, game.DifficultyEasy, summary.Seats[1].Difficulty)
	require.Equal(t, game.DifficultyNormal, summary.Seats[2].Difficulty)
}

func TestRunHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := testSimConfig()
	cfg.Games = 10000
	_, err := Run(ctx, cfg)
	require.Error(t, err)
}
