package game

import (
	"fmt"
	"strings"
	"time"

	"github.com/whoopiegame/whoopie/internal/deck"
)

// EventType represents a game event type with type safety
type EventType string

// EventType constants for game domain events
const (
	EventTypePlayerJoined      EventType = "player_joined"
	EventTypePlayerLeft        EventType = "player_left"
	EventTypeGameStarted       EventType = "game_started"
	EventTypeCutForDealer      EventType = "cut_for_dealer"
	EventTypeStanzaStarted     EventType = "stanza_started"
	EventTypeBidPlaced         EventType = "bid_placed"
	EventTypeCardPlayed        EventType = "card_played"
	EventTypeTrickCompleted    EventType = "trick_completed"
	EventTypeStanzaCompleted   EventType = "stanza_completed"
	EventTypeGameEnded         EventType = "game_ended"
	EventTypeWhoopieCallMissed EventType = "whoopie_call_missed"
	EventTypeStanzaRedealt     EventType = "stanza_redealt"
)

// String returns the string representation of the event type
func (et EventType) String() string {
	return string(et)
}

// GameEvent represents any event that occurs during a Whoopie game.
// Commands return their events as an ordered slice for the host to
// broadcast and persist; the engine has no opinion on delivery.
type GameEvent interface {
	EventType() EventType
	Timestamp() time.Time
}

// PlayerJoinedEvent is published when a player takes a seat
type PlayerJoinedEvent struct {
	Player    Player
	Seat      int
	timestamp time.Time
}

func (e PlayerJoinedEvent) EventType() EventType { return EventTypePlayerJoined }
func (e PlayerJoinedEvent) Timestamp() time.Time { return e.timestamp }

// NewPlayerJoinedEvent creates a new player joined event
func NewPlayerJoinedEvent(player Player, seat int) PlayerJoinedEvent {
	return PlayerJoinedEvent{Player: player, Seat: seat, timestamp: time.Now()}
}

// PlayerLeftEvent is published when a player leaves a seat. Replacement
// is non-nil when another player takes over the seat in the same move.
type PlayerLeftEvent struct {
	Player      Player
	Seat        int
	Replacement *Player
	timestamp   time.Time
}

func (e PlayerLeftEvent) EventType() EventType { return EventTypePlayerLeft }
func (e PlayerLeftEvent) Timestamp() time.Time { return e.timestamp }

// NewPlayerLeftEvent creates a new player left event
func NewPlayerLeftEvent(player Player, seat int, replacement *Player) PlayerLeftEvent {
	return PlayerLeftEvent{Player: player, Seat: seat, Replacement: replacement, timestamp: time.Now()}
}

// GameStartedEvent is published once when the table leaves the waiting
// phase
type GameStartedEvent struct {
	GameID    string
	Players   []Player
	timestamp time.Time
}

func (e GameStartedEvent) EventType() EventType { return EventTypeGameStarted }
func (e GameStartedEvent) Timestamp() time.Time { return e.timestamp }

// NewGameStartedEvent creates a new game started event
func NewGameStartedEvent(gameID string, players []Player) GameStartedEvent {
	ps := make([]Player, len(players))
	copy(ps, players)
	return GameStartedEvent{GameID: gameID, Players: ps, timestamp: time.Now()}
}

// CutForDealerEvent is published after the pre-game cut. CutCards is
// indexed by seat; the lowest cut value deals first.
type CutForDealerEvent struct {
	CutCards    []deck.Card
	DealerIndex int
	timestamp   time.Time
}

func (e CutForDealerEvent) EventType() EventType { return EventTypeCutForDealer }
func (e CutForDealerEvent) Timestamp() time.Time { return e.timestamp }

// NewCutForDealerEvent creates a new cut for dealer event
func NewCutForDealerEvent(cutCards []deck.Card, dealerIndex int) CutForDealerEvent {
	cards := make([]deck.Card, len(cutCards))
	copy(cards, cutCards)
	return CutForDealerEvent{CutCards: cards, DealerIndex: dealerIndex, timestamp: time.Now()}
}

// StanzaStartedEvent is published when a stanza has been dealt and
// bidding opens
type StanzaStartedEvent struct {
	StanzaNumber   int
	CardsPerPlayer int
	Direction      Direction
	DealerIndex    int
	DefiningCard   deck.Card
	Trump          TrumpState
	FirstBidder    int
	timestamp      time.Time
}

func (e StanzaStartedEvent) EventType() EventType { return EventTypeStanzaStarted }
func (e StanzaStartedEvent) Timestamp() time.Time { return e.timestamp }

// NewStanzaStartedEvent creates a new stanza started event
func NewStanzaStartedEvent(s *StanzaState, firstBidder int) StanzaStartedEvent {
	return StanzaStartedEvent{
		StanzaNumber:   s.StanzaNumber,
		CardsPerPlayer: s.CardsPerPlayer,
		Direction:      s.Direction,
		DealerIndex:    s.DealerIndex,
		DefiningCard:   s.DefiningCard,
		Trump:          s.Trump.Clone(),
		FirstBidder:    firstBidder,
		timestamp:      time.Now(),
	}
}

// BidPlacedEvent is published for every accepted bid
type BidPlacedEvent struct {
	Seat      int
	Bid       int
	timestamp time.Time
}

func (e BidPlacedEvent) EventType() EventType { return EventTypeBidPlaced }
func (e BidPlacedEvent) Timestamp() time.Time { return e.timestamp }

// NewBidPlacedEvent creates a new bid placed event
func NewBidPlacedEvent(seat, bid int) BidPlacedEvent {
	return BidPlacedEvent{Seat: seat, Bid: bid, timestamp: time.Now()}
}

// CardPlayedEvent is published for every accepted card play.
// NewTrumpSuit carries the live trump suit after the play; it is nil
// under a sealed J-Trump or while trump is still pending.
type CardPlayedEvent struct {
	Seat         int
	Card         deck.Card
	WasWhoopie   bool
	WasScramble  bool
	NewTrumpSuit *deck.Suit
	JTrumpActive bool
	timestamp    time.Time
}

func (e CardPlayedEvent) EventType() EventType { return EventTypeCardPlayed }
func (e CardPlayedEvent) Timestamp() time.Time { return e.timestamp }

// NewCardPlayedEvent creates a new card played event
func NewCardPlayedEvent(seat int, card deck.Card, change TrumpChange) CardPlayedEvent {
	e := CardPlayedEvent{
		Seat:         seat,
		Card:         card,
		WasWhoopie:   change.WasWhoopie,
		WasScramble:  change.WasScramble,
		JTrumpActive: change.Trump.JTrumpActive,
		timestamp:    time.Now(),
	}
	if change.Trump.TrumpSuit != nil {
		s := *change.Trump.TrumpSuit
		e.NewTrumpSuit = &s
	}
	return e
}

// TrickCompletedEvent is published when the trick's last card resolves
// a winner
type TrickCompletedEvent struct {
	Trick     CompletedTrick
	timestamp time.Time
}

func (e TrickCompletedEvent) EventType() EventType { return EventTypeTrickCompleted }
func (e TrickCompletedEvent) Timestamp() time.Time { return e.timestamp }

// NewTrickCompletedEvent creates a new trick completed event
func NewTrickCompletedEvent(trick CompletedTrick) TrickCompletedEvent {
	return TrickCompletedEvent{Trick: trick.Clone(), timestamp: time.Now()}
}

// StanzaCompletedEvent is published when a stanza's last trick has been
// scored
type StanzaCompletedEvent struct {
	StanzaNumber int
	ScoreChanges []int
	NewScores    []int
	timestamp    time.Time
}

func (e StanzaCompletedEvent) EventType() EventType { return EventTypeStanzaCompleted }
func (e StanzaCompletedEvent) Timestamp() time.Time { return e.timestamp }

// NewStanzaCompletedEvent creates a new stanza completed event
func NewStanzaCompletedEvent(stanzaNumber int, scoreChanges, newScores []int) StanzaCompletedEvent {
	changes := make([]int, len(scoreChanges))
	copy(changes, scoreChanges)
	scores := make([]int, len(newScores))
	copy(scores, newScores)
	return StanzaCompletedEvent{
		StanzaNumber: stanzaNumber,
		ScoreChanges: changes,
		NewScores:    scores,
		timestamp:    time.Now(),
	}
}

// GameEndedEvent is published when the game finishes
type GameEndedEvent struct {
	FinalScores []int
	Rankings    []int
	timestamp   time.Time
}

func (e GameEndedEvent) EventType() EventType { return EventTypeGameEnded }
func (e GameEndedEvent) Timestamp() time.Time { return e.timestamp }

// NewGameEndedEvent creates a new game ended event
func NewGameEndedEvent(finalScores, rankings []int) GameEndedEvent {
	scores := make([]int, len(finalScores))
	copy(scores, finalScores)
	ranks := make([]int, len(rankings))
	copy(ranks, rankings)
	return GameEndedEvent{FinalScores: scores, Rankings: ranks, timestamp: time.Now()}
}

// WhoopieCallMissedEvent is published when a play objectively required
// a Whoopie call and the player's self-reported flag said none was
// made. The play itself still stands.
type WhoopieCallMissedEvent struct {
	Seat      int
	Card      deck.Card
	timestamp time.Time
}

func (e WhoopieCallMissedEvent) EventType() EventType { return EventTypeWhoopieCallMissed }
func (e WhoopieCallMissedEvent) Timestamp() time.Time { return e.timestamp }

// NewWhoopieCallMissedEvent creates a new whoopie call missed event
func NewWhoopieCallMissedEvent(seat int, card deck.Card) WhoopieCallMissedEvent {
	return WhoopieCallMissedEvent{Seat: seat, Card: card, timestamp: time.Now()}
}

// StanzaRedealtEvent is published when the current stanza is torn down
// and redealt, typically after a mid-stanza seat removal
type StanzaRedealtEvent struct {
	Reason    string
	timestamp time.Time
}

func (e StanzaRedealtEvent) EventType() EventType { return EventTypeStanzaRedealt }
func (e StanzaRedealtEvent) Timestamp() time.Time { return e.timestamp }

// NewStanzaRedealtEvent creates a new stanza redealt event
func NewStanzaRedealtEvent(reason string) StanzaRedealtEvent {
	return StanzaRedealtEvent{Reason: reason, timestamp: time.Now()}
}

// FormatEvent renders an event as a one-line human-readable summary,
// used by server logs and the simulator's verbose mode
func FormatEvent(event GameEvent, players []Player) string {
	name := func(seat int) string {
		if seat >= 0 && seat < len(players) {
			return players[seat].Name
		}
		return fmt.Sprintf("seat %d", seat)
	}

	switch e := event.(type) {
	case PlayerJoinedEvent:
		return fmt.Sprintf("%s joined at seat %d", e.Player.Name, e.Seat)
	case PlayerLeftEvent:
		if e.Replacement != nil {
			return fmt.Sprintf("%s left seat %d, replaced by %s", e.Player.Name, e.Seat, e.Replacement.Name)
		}
		return fmt.Sprintf("%s left seat %d", e.Player.Name, e.Seat)
	case GameStartedEvent:
		names := make([]string, len(e.Players))
		for i, p := range e.Players {
			names[i] = p.Name
		}
		return fmt.Sprintf("game started with %s", strings.Join(names, ", "))
	case CutForDealerEvent:
		codes := make([]string, len(e.CutCards))
		for i, c := range e.CutCards {
			codes[i] = c.String()
		}
		return fmt.Sprintf("cut %s, %s deals", strings.Join(codes, " "), name(e.DealerIndex))
	case StanzaStartedEvent:
		return fmt.Sprintf("stanza %d: %d cards, %s deals, defining card %s",
			e.StanzaNumber, e.CardsPerPlayer, name(e.DealerIndex), e.DefiningCard)
	case BidPlacedEvent:
		return fmt.Sprintf("%s bids %d", name(e.Seat), e.Bid)
	case CardPlayedEvent:
		suffix := ""
		if e.WasWhoopie {
			suffix = " (whoopie)"
		} else if e.WasScramble {
			suffix = " (scramble)"
		}
		return fmt.Sprintf("%s plays %s%s", name(e.Seat), e.Card, suffix)
	case TrickCompletedEvent:
		return fmt.Sprintf("trick to %s", name(e.Trick.Winner))
	case StanzaCompletedEvent:
		return fmt.Sprintf("stanza %d complete, scores %v", e.StanzaNumber, e.NewScores)
	case GameEndedEvent:
		return fmt.Sprintf("game over, final scores %v", e.FinalScores)
	case WhoopieCallMissedEvent:
		return fmt.Sprintf("%s missed the whoopie call on %s", name(e.Seat), e.Card)
	case StanzaRedealtEvent:
		return fmt.Sprintf("stanza redealt: %s", e.Reason)
	default:
		return string(event.EventType())
	}
}
