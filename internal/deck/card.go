package deck

import (
	"fmt"
	"strings"
)

// Suit represents a card suit
type Suit int

const (
	Spades Suit = iota
	Hearts
	Diamonds
	Clubs
)

// String returns the string representation of a suit
func (s Suit) String() string {
	switch s {
	case Spades:
		return "♠"
	case Hearts:
		return "♥"
	case Diamonds:
		return "♦"
	case Clubs:
		return "♣"
	default:
		return "?"
	}
}

// Letter returns the single-letter code of a suit (s, h, d, c)
func (s Suit) Letter() string {
	switch s {
	case Spades:
		return "s"
	case Hearts:
		return "h"
	case Diamonds:
		return "d"
	case Clubs:
		return "c"
	default:
		return "?"
	}
}

// Suits returns all four suits in deck order
func Suits() []Suit {
	return []Suit{Spades, Hearts, Diamonds, Clubs}
}

// Rank represents a card rank
type Rank int

const (
	Two Rank = iota + 2
	Three
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Ten
	Jack
	Queen
	King
	Ace
)

// String returns the string representation of a rank
func (r Rank) String() string {
	switch r {
	case Two:
		return "2"
	case Three:
		return "3"
	case Four:
		return "4"
	case Five:
		return "5"
	case Six:
		return "6"
	case Seven:
		return "7"
	case Eight:
		return "8"
	case Nine:
		return "9"
	case Ten:
		return "T"
	case Jack:
		return "J"
	case Queen:
		return "Q"
	case King:
		return "K"
	case Ace:
		return "A"
	default:
		return "?"
	}
}

// Value returns the numeric value of the rank for comparison, aces high
func (r Rank) Value() int {
	return int(r)
}

// Card represents a playing card: either a suit card or one of the two
// jokers. Joker is the variant discriminant; zero means a suit card,
// 1 or 2 identify the jokers, which carry no suit or rank of their own.
type Card struct {
	Suit  Suit `json:"suit"`
	Rank  Rank `json:"rank"`
	Joker int  `json:"joker,omitempty"`
}

// NewCard creates a new suit card
func NewCard(suit Suit, rank Rank) Card {
	return Card{Suit: suit, Rank: rank}
}

// NewJoker creates joker number n (1 or 2)
func NewJoker(n int) Card {
	return Card{Joker: n}
}

// IsJoker returns true if the card is one of the two jokers
func (c Card) IsJoker() bool {
	return c.Joker != 0
}

// Equal reports whether two cards are the same physical card
func (c Card) Equal(o Card) bool {
	if c.Joker != 0 || o.Joker != 0 {
		return c.Joker == o.Joker
	}
	return c.Suit == o.Suit && c.Rank == o.Rank
}

// String returns the string representation of a card (e.g., "A♠", "Joker 1")
func (c Card) String() string {
	if c.IsJoker() {
		return fmt.Sprintf("Joker %d", c.Joker)
	}
	return fmt.Sprintf("%s%s", c.Rank, c.Suit)
}

// Code returns the compact two-character form of a card: rank letter
// plus suit letter for suit cards ("As", "Th"), "X1"/"X2" for the jokers
func (c Card) Code() string {
	if c.IsJoker() {
		return fmt.Sprintf("X%d", c.Joker)
	}
	return fmt.Sprintf("%s%s", c.Rank, c.Suit.Letter())
}

// Value returns the numeric value of the card for comparison, aces high.
// Jokers have no rank value of their own and return 0.
func (c Card) Value() int {
	if c.IsJoker() {
		return 0
	}
	return int(c.Rank)
}

// CutValue returns the card's value when cutting for dealer. Jokers sit
// above the ace at 15, so drawing one can never win the cut (lowest
// value deals).
func (c Card) CutValue() int {
	if c.IsJoker() {
		return 15
	}
	return int(c.Rank)
}

// ParseCard parses a single two-character card code, case insensitive
func ParseCard(s string) (Card, error) {
	if len(s) != 2 {
		return Card{}, fmt.Errorf("invalid card code %q", s)
	}

	s = strings.ToUpper(s)
	if s[0] == 'X' {
		switch s[1] {
		case '1':
			return NewJoker(1), nil
		case '2':
			return NewJoker(2), nil
		default:
			return Card{}, fmt.Errorf("invalid joker number in %q", s)
		}
	}

	var rank Rank
	switch s[0] {
	case '2', '3', '4', '5', '6', '7', '8', '9':
		rank = Rank(s[0] - '0')
	case 'T':
		rank = Ten
	case 'J':
		rank = Jack
	case 'Q':
		rank = Queen
	case 'K':
		rank = King
	case 'A':
		rank = Ace
	default:
		return Card{}, fmt.Errorf("invalid rank in %q", s)
	}

	var suit Suit
	switch s[1] {
	case 'S':
		suit = Spades
	case 'H':
		suit = Hearts
	case 'D':
		suit = Diamonds
	case 'C':
		suit = Clubs
	default:
		return Card{}, fmt.Errorf("invalid suit in %q", s)
	}

	return NewCard(suit, rank), nil
}

// ParseCards parses a concatenated string of card codes (e.g., "AsKhX1")
func ParseCards(s string) ([]Card, error) {
	if len(s)%2 != 0 {
		return nil, fmt.Errorf("card string %q has odd length", s)
	}

	cards := make([]Card, 0, len(s)/2)
	for i := 0; i < len(s); i += 2 {
		card, err := ParseCard(s[i : i+2])
		if err != nil {
			return nil, err
		}
		cards = append(cards, card)
	}
	return cards, nil
}

// MustParseCards parses card codes and panics on error, for tests
func MustParseCards(s string) []Card {
	cards, err := ParseCards(s)
	if err != nil {
		panic(err)
	}
	return cards
}
