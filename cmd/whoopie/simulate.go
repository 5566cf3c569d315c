package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/whoopiegame/whoopie/internal/game"
	"github.com/whoopiegame/whoopie/internal/simulator"
)

// SimulateCmd plays complete games between bots and prints aggregate
// statistics. The same seed always produces the same results, whatever
// the worker count.
type SimulateCmd struct {
	Games      int    `short:"g" default:"100" help:"Number of games to play"`
	Players    int    `short:"p" default:"4" help:"Seats per table (2-10)"`
	Stanzas    int    `default:"6" help:"Stanzas per game"`
	MaxCards   int    `default:"0" help:"Cap on cards per player (0 = deck limit)"`
	Workers    int    `short:"w" default:"0" help:"Worker goroutines (0 = one per CPU)"`
	Seed       int64  `help:"Master seed (0 = current time)"`
	Difficulty string `default:"normal" enum:"normal,easy,mixed" help:"Bot lineup: normal, easy or mixed"`
	Debug      bool   `help:"Enable debug logging"`
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	seatStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	winStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	numStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
)

func (c *SimulateCmd) Run() error {
	seed := c.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	var logger *log.Logger
	if c.Debug {
		logger = log.NewWithOptions(os.Stderr, log.Options{Level: log.DebugLevel})
	} else {
		logger = log.NewWithOptions(os.Stderr, log.Options{Level: log.WarnLevel})
	}

	var difficulties []game.Difficulty
	switch c.Difficulty {
	case "easy":
		difficulties = []game.Difficulty{game.DifficultyEasy}
	case "mixed":
		difficulties = []game.Difficulty{game.DifficultyNormal, game.DifficultyEasy}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("Simulating %d games of %d players (seed %d)\n\n", c.Games, c.Players, seed)

	summary, err := simulator.Run(ctx, simulator.Config{
		Games:             c.Games,
		Workers:           c.Workers,
		Players:           c.Players,
		Difficulties:      difficulties,
		Stanzas:           c.Stanzas,
		MaxCardsPerPlayer: c.MaxCards,
		Seed:              seed,
		Logger:            logger,
	})
	if err != nil {
		return err
	}

	printSummary(summary)
	return nil
}

func printSummary(s *simulator.Summary) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)

	fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
		headerStyle.Render("seat"),
		headerStyle.Render("difficulty"),
		headerStyle.Render("wins"),
		headerStyle.Render("mean"),
		headerStyle.Render("best"),
		headerStyle.Render("worst"))

	for _, seat := range s.Seats {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\n",
			seatStyle.Render(fmt.Sprintf("P%d", seat.Seat+1)),
			string(seat.Difficulty),
			winStyle.Render(fmt.Sprintf("%d", seat.Wins)),
			numStyle.Render(fmt.Sprintf("%.1f", seat.MeanScore())),
			seat.Best,
			seat.Worst)
	}
	w.Flush()

	fmt.Printf("\n%s\n", headerStyle.Render("totals"))

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "stanzas\t%d\n", s.TotalStanzas)
	fmt.Fprintf(tw, "tricks\t%d\n", s.TotalTricks)
	fmt.Fprintf(tw, "whoopie plays\t%d\n", s.WhoopiePlays)
	fmt.Fprintf(tw, "scrambles\t%d\n", s.Scrambles)
	fmt.Fprintf(tw, "missed calls\t%d\n", s.MissedCalls)
	fmt.Fprintf(tw, "exact bids\t%s\n",
		numStyle.Render(fmt.Sprintf("%d/%d (%.1f%%)", s.ExactBids, s.TotalBids, s.ExactBidRate()*100)))
	tw.Flush()

	fmt.Printf("\n%d games in %v\n", s.Games, s.Elapsed.Truncate(time.Millisecond))
}
