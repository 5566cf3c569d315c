package deck

import (
	"errors"
	"math/rand"
	"time"
)

// Size is the number of cards in a Whoopie deck: 52 suit cards plus
// two jokers.
const Size = 54

// ErrExhausted is returned when a deal asks for more cards than the
// deck holds
var ErrExhausted = errors.New("deck exhausted")

// Deck represents a shuffled Whoopie deck
type Deck struct {
	cards []Card
	rng   *rand.Rand
}

// NewDeck creates a new 54-card deck seeded from the current time
func NewDeck() *Deck {
	return NewDeckWithRNG(rand.New(rand.NewSource(time.Now().UnixNano())))
}

// NewDeckWithRNG creates a new 54-card deck using the provided random
// source, for deterministic shuffles in tests and simulations
func NewDeckWithRNG(rng *rand.Rand) *Deck {
	deck := &Deck{
		cards: make([]Card, 0, Size),
		rng:   rng,
	}

	for suit := Spades; suit <= Clubs; suit++ {
		for rank := Two; rank <= Ace; rank++ {
			deck.cards = append(deck.cards, NewCard(suit, rank))
		}
	}
	deck.cards = append(deck.cards, NewJoker(1), NewJoker(2))

	return deck
}

// Shuffle randomizes the order of cards in the deck
func (d *Deck) Shuffle() {
	for i := len(d.cards) - 1; i > 0; i-- {
		j := d.rng.Intn(i + 1)
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	}
}

// Deal removes and returns the top card from the deck
func (d *Deck) Deal() (Card, bool) {
	if len(d.cards) == 0 {
		return Card{}, false
	}

	card := d.cards[0]
	d.cards = d.cards[1:]
	return card, true
}

// DealN deals n cards from the deck
func (d *Deck) DealN(n int) []Card {
	if n > len(d.cards) {
		n = len(d.cards)
	}

	cards := make([]Card, n)
	for i := 0; i < n; i++ {
		if card, ok := d.Deal(); ok {
			cards[i] = card
		}
	}

	return cards
}

// DealHands deals cardsPerPlayer cards to each of numPlayers hands,
// one card at a time round-robin starting with startSeat. It returns
// the hands indexed by seat. One card beyond the dealt hands must
// remain in the deck for the defining card; if the deck cannot cover
// that, DealHands returns ErrExhausted and the deck is untouched.
func (d *Deck) DealHands(numPlayers, cardsPerPlayer, startSeat int) ([][]Card, error) {
	if numPlayers*cardsPerPlayer+1 > len(d.cards) {
		return nil, ErrExhausted
	}

	hands := make([][]Card, numPlayers)
	for seat := range hands {
		hands[seat] = make([]Card, 0, cardsPerPlayer)
	}

	for round := 0; round < cardsPerPlayer; round++ {
		for i := 0; i < numPlayers; i++ {
			seat := (startSeat + i) % numPlayers
			card, _ := d.Deal()
			hands[seat] = append(hands[seat], card)
		}
	}

	return hands, nil
}

// CardsRemaining returns the number of cards left in the deck
func (d *Deck) CardsRemaining() int {
	return len(d.cards)
}

// IsEmpty returns true if the deck has no cards left
func (d *Deck) IsEmpty() bool {
	return len(d.cards) == 0
}

// Reset restores the deck to a full 54-card deck and shuffles it
func (d *Deck) Reset() {
	d.cards = d.cards[:0]

	for suit := Spades; suit <= Clubs; suit++ {
		for rank := Two; rank <= Ace; rank++ {
			d.cards = append(d.cards, NewCard(suit, rank))
		}
	}
	d.cards = append(d.cards, NewJoker(1), NewJoker(2))

	d.Shuffle()
}

// Peek returns the top card without removing it from the deck
func (d *Deck) Peek() (Card, bool) {
	if len(d.cards) == 0 {
		return Card{}, false
	}
	return d.cards[0], true
}
