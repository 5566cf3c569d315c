package game

import (
	"github.com/whoopiegame/whoopie/internal/deck"
)

// SeatView is one seat as a given player is allowed to see it. Hand is
// populated only for the viewer's own seat; every other seat exposes
// just CardCount.
type SeatView struct {
	Seat        int         `json:"seat"`
	Player      Player      `json:"player"`
	Score       int         `json:"score"`
	Bid         *int        `json:"bid"`
	TricksTaken int         `json:"tricksTaken"`
	CardCount   int         `json:"cardCount"`
	Hand        []deck.Card `json:"hand,omitempty"`
}

// StanzaView is the public portion of the running stanza
type StanzaView struct {
	StanzaNumber       int             `json:"stanzaNumber"`
	CardsPerPlayer     int             `json:"cardsPerPlayer"`
	Direction          Direction       `json:"direction"`
	DealerIndex        int             `json:"dealerIndex"`
	DefiningCard       deck.Card       `json:"definingCard"`
	Trump              TrumpState      `json:"trump"`
	CurrentTrick       []PlayedCard    `json:"currentTrick"`
	LastTrick          *CompletedTrick `json:"lastTrick,omitempty"`
	TricksPlayed       int             `json:"tricksPlayed"`
	CurrentPlayerIndex int             `json:"currentPlayerIndex"`
}

// PlayerView is the redacted projection of a game for one seat. The
// redaction is a fairness contract of the engine boundary: no hand but
// the viewer's own ever crosses it, other seats appear as card counts.
type PlayerView struct {
	GameID           string                  `json:"gameId"`
	Phase            Phase                   `json:"phase"`
	YourSeat         int                     `json:"yourSeat"`
	ScorekeeperIndex int                     `json:"scorekeeperIndex"`
	Seats            []SeatView              `json:"seats"`
	Stanza           *StanzaView             `json:"stanza,omitempty"`
	CompletedStanzas []CompletedStanzaRecord `json:"completedStanzas,omitempty"`
}

// BuildPlayerView projects the game state for one seat, redacting
// every hand but the seat's own
func BuildPlayerView(g *GameState, seat int) PlayerView {
	view := PlayerView{
		GameID:           g.ID,
		Phase:            g.Phase,
		YourSeat:         seat,
		ScorekeeperIndex: g.ScorekeeperIndex,
		Seats:            make([]SeatView, len(g.Players)),
	}

	for i, p := range g.Players {
		sv := SeatView{
			Seat:   i,
			Player: p,
			Score:  g.Scores[i],
		}
		if g.Stanza != nil {
			if b := g.Stanza.Bids[i]; b != nil {
				v := *b
				sv.Bid = &v
			}
			sv.TricksTaken = g.Stanza.TricksTaken[i]
			sv.CardCount = len(g.Stanza.Hands[i])
			if i == seat {
				sv.Hand = append([]deck.Card(nil), g.Stanza.Hands[i]...)
			}
		}
		view.Seats[i] = sv
	}

	if g.Stanza != nil {
		s := g.Stanza
		stanza := &StanzaView{
			StanzaNumber:       s.StanzaNumber,
			CardsPerPlayer:     s.CardsPerPlayer,
			Direction:          s.Direction,
			DealerIndex:        s.DealerIndex,
			DefiningCard:       s.DefiningCard,
			Trump:              s.Trump.Clone(),
			CurrentPlayerIndex: s.CurrentPlayerIndex,
			TricksPlayed:       len(s.CompletedTricks),
		}
		stanza.CurrentTrick = make([]PlayedCard, len(s.CurrentTrick))
		for i, pc := range s.CurrentTrick {
			stanza.CurrentTrick[i] = pc.Clone()
		}
		if len(s.CompletedTricks) > 0 {
			last := s.CompletedTricks[len(s.CompletedTricks)-1].Clone()
			stanza.LastTrick = &last
		}
		view.Stanza = stanza
	}

	if len(g.CompletedStanzas) > 0 {
		view.CompletedStanzas = make([]CompletedStanzaRecord, len(g.CompletedStanzas))
		for i, r := range g.CompletedStanzas {
			view.CompletedStanzas[i] = r.Clone()
		}
	}

	return view
}

// ValidBidsFor returns the bids the given seat could legally place
// right now, or nil when it is not that seat's turn to bid
func (g *GameState) ValidBidsFor(seat int) []int {
	if g.Phase != PhaseBidding || g.Stanza == nil || seat != g.Stanza.CurrentPlayerIndex {
		return nil
	}
	s := g.Stanza
	return ValidBids(seat, s.DealerIndex, s.CardsPerPlayer, s.Bids)
}

// ValidCardsFor returns the cards the given seat could legally play
// right now, or nil when it is not that seat's turn
func (g *GameState) ValidCardsFor(seat int) []deck.Card {
	if g.Phase != PhasePlaying || g.Stanza == nil || seat != g.Stanza.CurrentPlayerIndex {
		return nil
	}
	s := g.Stanza
	return ValidCards(s.Hands[seat], s.CurrentTrick)
}

// WhoopieCallRequired reports whether playing card right now would
// objectively require a Whoopie call from the given seat. Hosts use it
// to surface the call prompt; AI players use it to call correctly.
func (g *GameState) WhoopieCallRequired(seat int, card deck.Card) bool {
	if g.Phase != PhasePlaying || g.Stanza == nil {
		return false
	}
	s := g.Stanza
	change := TrumpStateAfterPlay(card, s.Trump, s.LeadSuit(), len(s.CurrentTrick) == 0)
	return change.WasWhoopie
}
