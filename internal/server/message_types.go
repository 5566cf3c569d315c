package server

// MessageType identifies a WebSocket message on the wire.
type MessageType string

const (
	// Client to server messages
	MessageTypeHello      MessageType = "hello"
	MessageTypeCreateGame MessageType = "create_game"
	MessageTypeJoinGame   MessageType = "join_game"
	MessageTypeRejoinGame MessageType = "rejoin_game"
	MessageTypeLeaveGame  MessageType = "leave_game"
	MessageTypeAddBot     MessageType = "add_bot"
	MessageTypeStartGame  MessageType = "start_game"
	MessageTypePlaceBid   MessageType = "place_bid"
	MessageTypePlayCard   MessageType = "play_card"
	MessageTypeContinue   MessageType = "continue"
	MessageTypeRemoveSeat MessageType = "remove_seat"
	MessageTypeEndGame    MessageType = "end_game"

	// Server to client messages
	MessageTypeWelcome    MessageType = "welcome"
	MessageTypeError      MessageType = "error"
	MessageTypeGameJoined MessageType = "game_joined"
	MessageTypeGameLeft   MessageType = "game_left"
	MessageTypeGameState  MessageType = "game_state"
	MessageTypeGameEvent  MessageType = "game_event"
	MessageTypeGamePaused MessageType = "game_paused"
)

// String returns the string representation of the message type
func (mt MessageType) String() string {
	return string(mt)
}
