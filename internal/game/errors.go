package game

import "errors"

// Command rejection sentinels. Engine operations wrap these with
// fmt.Errorf("%w: ...") and context; callers match with errors.Is. A
// rejected command never mutates the state it was given.
var (
	// ErrInvalidPhase rejects a command the current phase does not accept.
	ErrInvalidPhase = errors.New("invalid phase")

	// ErrNotYourTurn rejects a bid or play from a seat out of turn.
	ErrNotYourTurn = errors.New("not your turn")

	// ErrInvalidBid rejects a bid outside the legal set, including the
	// dealer's hooked value.
	ErrInvalidBid = errors.New("invalid bid")

	// ErrInvalidPlay rejects a card not in hand or not following suit.
	ErrInvalidPlay = errors.New("invalid play")

	// ErrInsufficientPlayers rejects starting with fewer seats than the
	// table minimum.
	ErrInsufficientPlayers = errors.New("not enough players")

	// ErrDeckExhausted rejects a stanza whose deal would not leave a
	// defining card in the deck.
	ErrDeckExhausted = errors.New("deck exhausted")

	// ErrPlayerNotFound rejects a command naming a player or seat not in
	// the game.
	ErrPlayerNotFound = errors.New("player not found")
)
