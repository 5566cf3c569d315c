package server

import (
	"encoding/json"
	"time"

	"github.com/whoopiegame/whoopie/internal/game"
)

// Message is the WebSocket envelope. Data carries the type-specific
// payload as raw JSON.
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewMessage creates a message with the current timestamp
func NewMessage(messageType MessageType, data interface{}) (*Message, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Message{
		Type:      messageType,
		Data:      dataBytes,
		Timestamp: time.Now(),
	}, nil
}

// Client → Server Messages

type HelloData struct {
	PlayerName string `json:"playerName"`
	PlayerID   string `json:"playerId,omitempty"` // Set when reconnecting
}

type CreateGameData struct {
	MinPlayers        int `json:"minPlayers,omitempty"`
	MaxPlayers        int `json:"maxPlayers,omitempty"`
	MaxCardsPerPlayer int `json:"maxCardsPerPlayer,omitempty"`
}

type JoinGameData struct {
	JoinCode string `json:"joinCode"`
}

type RejoinGameData struct {
	GameID string `json:"gameId"`
}

type AddBotData struct {
	Name       string `json:"name,omitempty"`
	Difficulty string `json:"difficulty,omitempty"`
}

type PlaceBidData struct {
	Bid int `json:"bid"`
}

type PlayCardData struct {
	Card          string `json:"card"` // Compact code form, e.g. "As", "X1"
	CalledWhoopie bool   `json:"calledWhoopie"`
}

type RemoveSeatData struct {
	Seat int `json:"seat"`
}

// Server → Client Messages

type WelcomeData struct {
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
}

type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type GameJoinedData struct {
	GameID   string `json:"gameId"`
	JoinCode string `json:"joinCode"`
	Seat     int    `json:"seat"`
}

type GameLeftData struct {
	GameID string `json:"gameId"`
}

type GamePausedData struct {
	GameID string `json:"gameId"`
	Reason string `json:"reason"`
}

// GameStateData is the per-seat state push. View is already redacted
// for the receiving seat; the valid move sets are included whenever it
// is that seat's turn so clients never have to re-derive the rules.
type GameStateData struct {
	View       game.PlayerView `json:"view"`
	JoinCode   string          `json:"joinCode,omitempty"`
	ValidBids  []int           `json:"validBids,omitempty"`
	ValidCards []string        `json:"validCards,omitempty"`

	// Cards in ValidCards that may only be played with the Whoopie
	// call, by code
	WhoopieCalls []string `json:"whoopieCalls,omitempty"`
}

// GameEventData relays one engine event to the table
type GameEventData struct {
	EventType game.EventType  `json:"eventType"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// NewGameEventData wraps an engine event for the wire
func NewGameEventData(event game.GameEvent) (GameEventData, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return GameEventData{}, err
	}
	return GameEventData{
		EventType: event.EventType(),
		Timestamp: event.Timestamp(),
		Data:      body,
	}, nil
}

// BuildGameStateData assembles the state push for one seat: the
// redacted view plus, when it is that seat's turn, the legal bids or
// cards and which of those cards require the Whoopie call.
func BuildGameStateData(g *game.GameState, seat int, joinCode string) GameStateData {
	data := GameStateData{
		View:     game.BuildPlayerView(g, seat),
		JoinCode: joinCode,
	}

	data.ValidBids = g.ValidBidsFor(seat)
	for _, c := range g.ValidCardsFor(seat) {
		data.ValidCards = append(data.ValidCards, c.Code())
		if g.WhoopieCallRequired(seat, c) {
			data.WhoopieCalls = append(data.WhoopieCalls, c.Code())
		}
	}

	return data
}
