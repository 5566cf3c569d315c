package deck

import (
	"errors"
	"math/rand"
	"testing"
)

func TestNewDeckComposition(t *testing.T) {
	d := NewDeck()
	if d.CardsRemaining() != Size {
		t.Fatalf("CardsRemaining() = %d, want %d", d.CardsRemaining(), Size)
	}

	seen := make(map[string]int)
	jokers := 0
	for {
		card, ok := d.Deal()
		if !ok {
			break
		}
		seen[card.Code()]++
		if card.IsJoker() {
			jokers++
		}
	}

	if len(seen) != Size {
		t.Errorf("deck has %d distinct cards, want %d", len(seen), Size)
	}
	for code, n := range seen {
		if n != 1 {
			t.Errorf("card %s appears %d times", code, n)
		}
	}
	if jokers != 2 {
		t.Errorf("deck has %d jokers, want 2", jokers)
	}
}

func TestShuffleDeterministic(t *testing.T) {
	d1 := NewDeckWithRNG(rand.New(rand.NewSource(42)))
	d2 := NewDeckWithRNG(rand.New(rand.NewSource(42)))
	d1.Shuffle()
	d2.Shuffle()

	for i := 0; i < Size; i++ {
		c1, _ := d1.Deal()
		c2, _ := d2.Deal()
		if !c1.Equal(c2) {
			t.Fatalf("card %d differs between identically seeded decks: %v vs %v", i, c1, c2)
		}
	}
}

func TestDealHands(t *testing.T) {
	d := NewDeckWithRNG(rand.New(rand.NewSource(7)))
	d.Shuffle()

	hands, err := d.DealHands(4, 5, 2)
	if err != nil {
		t.Fatalf("DealHands() error = %v", err)
	}

	if len(hands) != 4 {
		t.Fatalf("got %d hands, want 4", len(hands))
	}
	for seat, hand := range hands {
		if len(hand) != 5 {
			t.Errorf("seat %d has %d cards, want 5", seat, len(hand))
		}
	}
	if d.CardsRemaining() != Size-20 {
		t.Errorf("CardsRemaining() = %d, want %d", d.CardsRemaining(), Size-20)
	}

	// No card may appear in two hands
	seen := make(map[string]bool)
	for _, hand := range hands {
		for _, card := range hand {
			if seen[card.Code()] {
				t.Errorf("card %s dealt twice", card.Code())
			}
			seen[card.Code()] = true
		}
	}
}

func TestDealHandsRoundRobin(t *testing.T) {
	// Unshuffled deck deals in construction order, so the round-robin
	// pattern is observable: seat 1 (left of dealer 0) gets cards
	// 0, 3, then seat 2 gets 1, 4, then seat 0 gets 2, 5.
	d := NewDeckWithRNG(rand.New(rand.NewSource(1)))
	full := NewDeckWithRNG(rand.New(rand.NewSource(1)))
	order := full.DealN(6)

	hands, err := d.DealHands(3, 2, 1)
	if err != nil {
		t.Fatalf("DealHands() error = %v", err)
	}

	want := map[int][]Card{
		1: {order[0], order[3]},
		2: {order[1], order[4]},
		0: {order[2], order[5]},
	}
	for seat, cards := range want {
		if !cardsEqual(hands[seat], cards) {
			t.Errorf("seat %d hand = %v, want %v", seat, hands[seat], cards)
		}
	}
}

func TestDealHandsExhausted(t *testing.T) {
	// 2 players at 26 cards each leaves one card for the cut: fine.
	d := NewDeck()
	if _, err := d.DealHands(2, 26, 0); err != nil {
		t.Errorf("DealHands(2, 26) error = %v, want nil", err)
	}

	// 2 players at 27 cards each would leave nothing to cut.
	d = NewDeck()
	if _, err := d.DealHands(2, 27, 0); !errors.Is(err, ErrExhausted) {
		t.Errorf("DealHands(2, 27) error = %v, want ErrExhausted", err)
	}
	if d.CardsRemaining() != Size {
		t.Errorf("failed deal consumed cards: %d remaining, want %d", d.CardsRemaining(), Size)
	}
}

func TestReset(t *testing.T) {
	d := NewDeck()
	d.DealN(30)
	if d.CardsRemaining() != Size-30 {
		t.Fatalf("CardsRemaining() = %d, want %d", d.CardsRemaining(), Size-30)
	}

	d.Reset()
	if d.CardsRemaining() != Size {
		t.Errorf("after Reset CardsRemaining() = %d, want %d", d.CardsRemaining(), Size)
	}
}
