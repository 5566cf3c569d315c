package game

import (
	"fmt"

	"github.com/whoopiegame/whoopie/internal/deck"
)

// Table size limits. A stanza must leave one undealt card for the
// defining card, so cardsPerPlayer tops out at (54-1)/numPlayers.
const (
	MinTablePlayers = 2
	MaxTablePlayers = 10
)

// jokerHighValue stands in for a joker's rank while no Whoopie rank is
// defined. It outranks every real card, so a joker led before
// definition always wins its trick.
const jokerHighValue = 100

// MaxCardsPerPlayer returns the largest stanza size the deck supports
// for the given table, reserving one card for the defining card
func MaxCardsPerPlayer(numPlayers int) int {
	if numPlayers <= 0 {
		return 0
	}
	return (deck.Size - 1) / numPlayers
}

// CanStartStanza validates the table and stanza size before a deal
func CanStartStanza(numPlayers, cardsPerPlayer int) error {
	if numPlayers < MinTablePlayers {
		return fmt.Errorf("%w: need at least %d, have %d", ErrInsufficientPlayers, MinTablePlayers, numPlayers)
	}
	if numPlayers > MaxTablePlayers {
		return fmt.Errorf("too many players: %d (max %d)", numPlayers, MaxTablePlayers)
	}
	if numPlayers*cardsPerPlayer+1 > deck.Size {
		return fmt.Errorf("%w: %d players at %d cards each leaves no defining card",
			ErrDeckExhausted, numPlayers, cardsPerPlayer)
	}
	return nil
}

// ValidBids returns the bids legal for seat this stanza. Every value in
// [0, cardsPerPlayer] is legal except, for the dealer only, the single
// value that would make all bids sum to cardsPerPlayer. The dealer bids
// last, so that hook guarantees at least one seat misses its bid.
func ValidBids(seat, dealerSeat, cardsPerPlayer int, bids []*int) []int {
	hook := -1
	if seat == dealerSeat {
		placed := 0
		for i, b := range bids {
			if i != seat && b != nil {
				placed += *b
			}
		}
		hook = cardsPerPlayer - placed
	}

	valid := make([]int, 0, cardsPerPlayer+1)
	for bid := 0; bid <= cardsPerPlayer; bid++ {
		if bid == hook {
			continue
		}
		valid = append(valid, bid)
	}
	return valid
}

// ValidCards returns the subset of hand legal to play against the
// current trick. The leader may play anything. A joker lead waives the
// follow obligation for the whole trick. Otherwise a hand holding the
// led suit must play from it; a void hand may play anything.
func ValidCards(hand []deck.Card, trick []PlayedCard) []deck.Card {
	all := append([]deck.Card(nil), hand...)
	if len(trick) == 0 {
		return all
	}

	lead := trick[0].Card
	if lead.IsJoker() {
		return all
	}

	following := make([]deck.Card, 0, len(hand))
	for _, c := range hand {
		if !c.IsJoker() && c.Suit == lead.Suit {
			following = append(following, c)
		}
	}
	if len(following) == 0 {
		return all
	}
	return following
}

// TrumpChange is the outcome of applying one played card to the live
// trump state
type TrumpChange struct {
	Trump       TrumpState
	WasWhoopie  bool
	WasScramble bool
}

// TrumpStateAfterPlay computes the trump state after card hits the
// table. leadSuit is the current trick's lead suit (nil when leading or
// when a joker led); isLead marks the trick's first card.
//
// A joker led makes the trick universally trump. A joker mid-trick
// promotes the established lead suit to trump. A card whose rank
// matches the Whoopie rank moves trump to its own suit and ends any
// J-Trump spell. While trump is pending (defining card was a joker),
// the first suit-card lead defines both the Whoopie rank and the trump
// suit, and counts as a Whoopie play; a joker lead keeps the decision
// pending for the next lead.
func TrumpStateAfterPlay(card deck.Card, trump TrumpState, leadSuit *deck.Suit, isLead bool) TrumpChange {
	next := trump.Clone()

	if card.IsJoker() {
		next.JTrumpActive = true
		if !isLead && leadSuit != nil {
			s := *leadSuit
			next.TrumpSuit = &s
		}
		return TrumpChange{Trump: next, WasScramble: true}
	}

	if trump.Pending() {
		if !isLead {
			// Followers cannot define; only leads do.
			return TrumpChange{Trump: next}
		}
		rank := card.Rank
		suit := card.Suit
		next.WhoopieRank = &rank
		next.TrumpSuit = &suit
		next.JTrumpActive = false
		return TrumpChange{Trump: next, WasWhoopie: true}
	}

	if card.Rank == *trump.WhoopieRank {
		suit := card.Suit
		next.TrumpSuit = &suit
		next.JTrumpActive = false
		return TrumpChange{Trump: next, WasWhoopie: true}
	}

	return TrumpChange{Trump: next}
}

// isTrumpAtPlay decides whether a played card counts as trump during
// winner resolution, using only the card's frozen snapshot. whoopieRank
// is the rank at resolution time; leadSuit the trick's lead suit (nil
// when a joker led).
func isTrumpAtPlay(pc PlayedCard, whoopieRank *deck.Rank, leadSuit *deck.Suit) bool {
	if pc.Card.IsJoker() {
		return true
	}
	if whoopieRank != nil && pc.Card.Rank == *whoopieRank {
		return true
	}
	if pc.JTrumpActiveAtPlay {
		// Joker led: everything is trump. Joker mid-trick: the lead
		// suit is trump.
		return leadSuit == nil || pc.Card.Suit == *leadSuit
	}
	return pc.TrumpSuitAtPlay != nil && pc.Card.Suit == *pc.TrumpSuitAtPlay
}

// trickValue returns a played card's rank value for trick comparison.
// A joker borrows the Whoopie rank's value, or jokerHighValue while no
// rank is defined.
func trickValue(pc PlayedCard, whoopieRank *deck.Rank) int {
	if pc.Card.IsJoker() {
		if whoopieRank == nil {
			return jokerHighValue
		}
		return whoopieRank.Value()
	}
	return pc.Card.Rank.Value()
}

// beats reports whether challenger beats the incumbent winner. Trump
// beats non-trump. Among trumps the higher value wins; equal values
// keep the incumbent, so earlier play wins ties. Among non-trumps only
// a lead-suit follower can take the trick.
func beats(challenger, incumbent PlayedCard, whoopieRank *deck.Rank, leadSuit *deck.Suit) bool {
	chTrump := isTrumpAtPlay(challenger, whoopieRank, leadSuit)
	incTrump := isTrumpAtPlay(incumbent, whoopieRank, leadSuit)

	switch {
	case chTrump && !incTrump:
		return true
	case !chTrump && incTrump:
		return false
	case chTrump && incTrump:
		return trickValue(challenger, whoopieRank) > trickValue(incumbent, whoopieRank)
	}

	// Neither is trump, so neither is a joker and a lead suit exists.
	if leadSuit == nil {
		return false
	}
	if challenger.Card.Suit != *leadSuit {
		return false
	}
	if incumbent.Card.Suit != *leadSuit {
		return true
	}
	return challenger.Card.Rank.Value() > incumbent.Card.Rank.Value()
}

// ResolveTrickWinner returns the winning seat of a completed trick.
// The reduction runs left to right over the frozen per-card snapshots;
// live trump state plays no part.
func ResolveTrickWinner(trick []PlayedCard, whoopieRank *deck.Rank) int {
	var leadSuit *deck.Suit
	if !trick[0].Card.IsJoker() {
		s := trick[0].Card.Suit
		leadSuit = &s
	}

	winner := trick[0]
	for _, pc := range trick[1:] {
		if beats(pc, winner, whoopieRank, leadSuit) {
			winner = pc
		}
	}
	return winner.Seat
}

// containsCard reports whether hand holds card
func containsCard(hand []deck.Card, card deck.Card) bool {
	for _, c := range hand {
		if c.Equal(card) {
			return true
		}
	}
	return false
}

// removeCard returns hand without the first occurrence of card
func removeCard(hand []deck.Card, card deck.Card) []deck.Card {
	out := make([]deck.Card, 0, len(hand))
	removed := false
	for _, c := range hand {
		if !removed && c.Equal(card) {
			removed = true
			continue
		}
		out = append(out, c)
	}
	return out
}
