package game

import (
	"github.com/whoopiegame/whoopie/internal/deck"
)

// Phase identifies where a game is in its lifecycle
type Phase string

const (
	PhaseWaiting   Phase = "waiting"
	PhaseBidding   Phase = "bidding"
	PhasePlaying   Phase = "playing"
	PhaseTrickEnd  Phase = "trickEnd"
	PhaseStanzaEnd Phase = "stanzaEnd"
	PhaseGameEnd   Phase = "gameEnd"
)

// Direction is the stanza-size progression direction
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// Settings holds the tunable game parameters
type Settings struct {
	MinPlayers        int `json:"minPlayers"`
	MaxPlayers        int `json:"maxPlayers"`
	MaxCardsPerPlayer int `json:"maxCardsPerPlayer"` // 0 means as many as the deck allows
}

// DefaultSettings returns the standard table configuration
func DefaultSettings() Settings {
	return Settings{
		MinPlayers: 2,
		MaxPlayers: 10,
	}
}

// TrumpState is the stanza's live trump configuration. WhoopieRank and
// TrumpSuit are nil while a defining joker keeps the choice pending;
// TrumpSuit may also be nil under J-Trump when no lead suit has been
// promoted. JTrumpActive persists from any joker play until the next
// Whoopie play fixes a suit again.
type TrumpState struct {
	WhoopieRank  *deck.Rank `json:"whoopieRank"`
	TrumpSuit    *deck.Suit `json:"trumpSuit"`
	JTrumpActive bool       `json:"jTrumpActive"`
}

// Pending reports whether trump determination is deferred to a lead
// because the stanza's defining card was a joker
func (t TrumpState) Pending() bool {
	return t.WhoopieRank == nil
}

// Clone returns a deep copy of the trump state
func (t TrumpState) Clone() TrumpState {
	c := TrumpState{JTrumpActive: t.JTrumpActive}
	if t.WhoopieRank != nil {
		r := *t.WhoopieRank
		c.WhoopieRank = &r
	}
	if t.TrumpSuit != nil {
		s := *t.TrumpSuit
		c.TrumpSuit = &s
	}
	return c
}

// PlayedCard is one card on the table. TrumpSuitAtPlay and
// JTrumpActiveAtPlay are frozen at the instant the card hit the table,
// after its own trump effect, and are never updated afterward even
// though the stanza's live trump may keep changing within the trick.
// Winner resolution reads these snapshots, not live state.
type PlayedCard struct {
	Card               deck.Card  `json:"card"`
	Seat               int        `json:"seat"`
	TrumpSuitAtPlay    *deck.Suit `json:"trumpSuitAtPlay"`
	JTrumpActiveAtPlay bool       `json:"jTrumpActiveAtPlay"`
	WasWhoopie         bool       `json:"wasWhoopie"`
	WasScramble        bool       `json:"wasScramble"`
}

// Clone returns a deep copy of the played card
func (p PlayedCard) Clone() PlayedCard {
	c := p
	if p.TrumpSuitAtPlay != nil {
		s := *p.TrumpSuitAtPlay
		c.TrumpSuitAtPlay = &s
	}
	return c
}

// CompletedTrick records a finished trick. LeadSuit is nil when the
// trick was led with a joker.
type CompletedTrick struct {
	Cards    []PlayedCard `json:"cards"`
	Winner   int          `json:"winner"`
	LeadSuit *deck.Suit   `json:"leadSuit"`
}

// Clone returns a deep copy of the completed trick
func (t CompletedTrick) Clone() CompletedTrick {
	c := CompletedTrick{Winner: t.Winner}
	c.Cards = make([]PlayedCard, len(t.Cards))
	for i, pc := range t.Cards {
		c.Cards[i] = pc.Clone()
	}
	if t.LeadSuit != nil {
		s := *t.LeadSuit
		c.LeadSuit = &s
	}
	return c
}

// StanzaState is the state of one round. Hands, Bids and TricksTaken
// are indexed by seat. The union of all hands, the current trick, the
// completed tricks, the defining card and the undealt remainder is
// always exactly the stanza's shuffled 54-card deck.
type StanzaState struct {
	StanzaNumber       int              `json:"stanzaNumber"`
	CardsPerPlayer     int              `json:"cardsPerPlayer"`
	Direction          Direction        `json:"direction"`
	DealerIndex        int              `json:"dealerIndex"`
	DefiningCard       deck.Card        `json:"definingCard"`
	Trump              TrumpState       `json:"trump"`
	Bids               []*int           `json:"bids"`
	CurrentTrick       []PlayedCard     `json:"currentTrick"`
	CompletedTricks    []CompletedTrick `json:"completedTricks"`
	TricksTaken        []int            `json:"tricksTaken"`
	Hands              [][]deck.Card    `json:"hands"`
	CurrentPlayerIndex int              `json:"currentPlayerIndex"`
}

// Clone returns a deep copy of the stanza state
func (s *StanzaState) Clone() *StanzaState {
	if s == nil {
		return nil
	}

	c := &StanzaState{
		StanzaNumber:       s.StanzaNumber,
		CardsPerPlayer:     s.CardsPerPlayer,
		Direction:          s.Direction,
		DealerIndex:        s.DealerIndex,
		DefiningCard:       s.DefiningCard,
		Trump:              s.Trump.Clone(),
		CurrentPlayerIndex: s.CurrentPlayerIndex,
	}

	c.Bids = make([]*int, len(s.Bids))
	for i, b := range s.Bids {
		if b != nil {
			v := *b
			c.Bids[i] = &v
		}
	}

	c.CurrentTrick = make([]PlayedCard, len(s.CurrentTrick))
	for i, pc := range s.CurrentTrick {
		c.CurrentTrick[i] = pc.Clone()
	}

	c.CompletedTricks = make([]CompletedTrick, len(s.CompletedTricks))
	for i, t := range s.CompletedTricks {
		c.CompletedTricks[i] = t.Clone()
	}

	c.TricksTaken = make([]int, len(s.TricksTaken))
	copy(c.TricksTaken, s.TricksTaken)

	c.Hands = make([][]deck.Card, len(s.Hands))
	for i, h := range s.Hands {
		c.Hands[i] = make([]deck.Card, len(h))
		copy(c.Hands[i], h)
	}

	return c
}

// LeadSuit returns the current trick's lead suit, or nil when the
// trick is empty or was led with a joker
func (s *StanzaState) LeadSuit() *deck.Suit {
	if len(s.CurrentTrick) == 0 {
		return nil
	}
	lead := s.CurrentTrick[0].Card
	if lead.IsJoker() {
		return nil
	}
	suit := lead.Suit
	return &suit
}

// AllBidsPlaced reports whether every seat has bid this stanza
func (s *StanzaState) AllBidsPlaced() bool {
	for _, b := range s.Bids {
		if b == nil {
			return false
		}
	}
	return true
}

// BidTotal returns the sum of placed bids
func (s *StanzaState) BidTotal() int {
	total := 0
	for _, b := range s.Bids {
		if b != nil {
			total += *b
		}
	}
	return total
}

// CompletedStanzaRecord is the immutable summary appended to game
// history when a stanza finishes. PlayerIDs captures who was seated,
// for history display and late-join score seeding.
type CompletedStanzaRecord struct {
	StanzaNumber   int      `json:"stanzaNumber"`
	CardsPerPlayer int      `json:"cardsPerPlayer"`
	Bids           []int    `json:"bids"`
	TricksTaken    []int    `json:"tricksTaken"`
	ScoreChanges   []int    `json:"scoreChanges"`
	PlayerIDs      []string `json:"playerIds"`
}

// Clone returns a deep copy of the record
func (r CompletedStanzaRecord) Clone() CompletedStanzaRecord {
	c := CompletedStanzaRecord{
		StanzaNumber:   r.StanzaNumber,
		CardsPerPlayer: r.CardsPerPlayer,
	}
	c.Bids = append([]int(nil), r.Bids...)
	c.TricksTaken = append([]int(nil), r.TricksTaken...)
	c.ScoreChanges = append([]int(nil), r.ScoreChanges...)
	c.PlayerIDs = append([]string(nil), r.PlayerIDs...)
	return c
}

// GameState is the complete state of one game. Commands never mutate a
// GameState in place: each transition clones, mutates the clone and
// returns it, so a rejected command leaves the caller's state
// untouched and old states stay valid snapshots.
type GameState struct {
	ID               string                  `json:"id"`
	Phase            Phase                   `json:"phase"`
	Players          []Player                `json:"players"`
	Scores           []int                   `json:"scores"`
	ScorekeeperIndex int                     `json:"scorekeeperIndex"`
	Stanza           *StanzaState            `json:"stanza"`
	CompletedStanzas []CompletedStanzaRecord `json:"completedStanzas"`
	Settings         Settings                `json:"settings"`
}

// Clone returns a deep copy of the game state
func (g *GameState) Clone() *GameState {
	c := &GameState{
		ID:               g.ID,
		Phase:            g.Phase,
		ScorekeeperIndex: g.ScorekeeperIndex,
		Settings:         g.Settings,
		Stanza:           g.Stanza.Clone(),
	}

	c.Players = append([]Player(nil), g.Players...)
	c.Scores = append([]int(nil), g.Scores...)

	c.CompletedStanzas = make([]CompletedStanzaRecord, len(g.CompletedStanzas))
	for i, r := range g.CompletedStanzas {
		c.CompletedStanzas[i] = r.Clone()
	}

	return c
}

// SeatOf returns the seat index of the player with the given id, or
// -1 if no such player is seated
func (g *GameState) SeatOf(playerID string) int {
	for i, p := range g.Players {
		if p.ID == playerID {
			return i
		}
	}
	return -1
}

// NumPlayers returns the number of seated players
func (g *GameState) NumPlayers() int {
	return len(g.Players)
}

// leftOf returns the seat to the left of seat (next in play order)
func (g *GameState) leftOf(seat int) int {
	return (seat + 1) % len(g.Players)
}
