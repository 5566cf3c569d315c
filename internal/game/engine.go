package game

import (
	"fmt"
	"io"
	"math/rand"
	"time"

	"github.com/charmbracelet/log"

	"github.com/whoopiegame/whoopie/internal/deck"
)

// Engine applies commands to game states. Every command is a pure
// transition: it validates against the given state, clones it, mutates
// the clone and returns it together with the ordered events the host
// should broadcast. A rejected command returns a nil state and the
// caller's copy is guaranteed untouched.
//
// The engine holds no game state of its own, only the random source
// for shuffles and cuts and an optional logger. It performs no locking;
// the host must serialize commands per game id.
type Engine struct {
	rng    *rand.Rand
	logger *log.Logger
}

// NewEngine creates an engine. A nil rng falls back to a time-seeded
// source; a nil logger discards all output.
func NewEngine(rng *rand.Rand, logger *log.Logger) *Engine {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Engine{rng: rng, logger: logger}
}

// NewGame creates a game in the waiting phase with the host seated at
// seat 0
func (e *Engine) NewGame(id string, host Player, settings Settings) (*GameState, []GameEvent) {
	settings = normalizeSettings(settings)

	state := &GameState{
		ID:       id,
		Phase:    PhaseWaiting,
		Players:  []Player{host},
		Scores:   []int{0},
		Settings: settings,
	}

	e.logger.Debug("Game created", "gameID", id, "host", host.Name)
	return state, []GameEvent{NewPlayerJoinedEvent(host, 0)}
}

// AddPlayer seats a player. Legal only while waiting.
func (e *Engine) AddPlayer(g *GameState, player Player) (*GameState, []GameEvent, error) {
	if g.Phase != PhaseWaiting {
		return nil, nil, fmt.Errorf("%w: players can only join while waiting, game is %s", ErrInvalidPhase, g.Phase)
	}
	if g.SeatOf(player.ID) >= 0 {
		return nil, nil, fmt.Errorf("player %s is already seated", player.ID)
	}
	if len(g.Players) >= g.Settings.MaxPlayers {
		return nil, nil, fmt.Errorf("table is full (%d/%d seats occupied)", len(g.Players), g.Settings.MaxPlayers)
	}

	next := g.Clone()
	next.Players = append(next.Players, player)
	next.Scores = append(next.Scores, 0)
	seat := len(next.Players) - 1

	e.logger.Debug("Player joined", "gameID", g.ID, "player", player.Name, "seat", seat)
	return next, []GameEvent{NewPlayerJoinedEvent(player, seat)}, nil
}

// RemovePlayer unseats a player. Legal only while waiting; mid-game
// removal goes through RemovePlayerAndRedeal.
func (e *Engine) RemovePlayer(g *GameState, playerID string) (*GameState, []GameEvent, error) {
	if g.Phase != PhaseWaiting {
		return nil, nil, fmt.Errorf("%w: players can only leave freely while waiting, game is %s", ErrInvalidPhase, g.Phase)
	}
	seat := g.SeatOf(playerID)
	if seat < 0 {
		return nil, nil, fmt.Errorf("%w: %s", ErrPlayerNotFound, playerID)
	}

	next := g.Clone()
	player := next.Players[seat]
	next.Players = append(next.Players[:seat], next.Players[seat+1:]...)
	next.Scores = append(next.Scores[:seat], next.Scores[seat+1:]...)

	e.logger.Debug("Player left", "gameID", g.ID, "player", player.Name, "seat", seat)
	return next, []GameEvent{NewPlayerLeftEvent(player, seat, nil)}, nil
}

// StartGame cuts for dealer and deals the first stanza. The lowest cut
// card deals (jokers cut at 15 and can never win); ties go to the
// lowest seat. The scorekeeper is the dealer's left neighbor. Stanza 1
// is played at one card per player, direction up.
func (e *Engine) StartGame(g *GameState) (*GameState, []GameEvent, error) {
	if g.Phase != PhaseWaiting {
		return nil, nil, fmt.Errorf("%w: game already started, phase is %s", ErrInvalidPhase, g.Phase)
	}
	if len(g.Players) < g.Settings.MinPlayers {
		return nil, nil, fmt.Errorf("%w: need %d players to start, have %d",
			ErrInsufficientPlayers, g.Settings.MinPlayers, len(g.Players))
	}
	if err := CanStartStanza(len(g.Players), 1); err != nil {
		return nil, nil, err
	}

	next := g.Clone()

	cutCards, dealer := e.cutForDealer(len(next.Players))
	next.ScorekeeperIndex = next.leftOf(dealer)

	if err := e.startStanza(next, 1, 1, DirectionUp, dealer); err != nil {
		return nil, nil, err
	}

	events := []GameEvent{
		NewGameStartedEvent(next.ID, next.Players),
		NewCutForDealerEvent(cutCards, dealer),
		NewStanzaStartedEvent(next.Stanza, next.Stanza.CurrentPlayerIndex),
	}

	e.logger.Debug("Game started", "gameID", g.ID, "players", len(next.Players), "dealer", dealer)
	return next, events, nil
}

// PlaceBid records the current bidder's bid and advances the turn.
// Once every seat has bid, play opens with the dealer's left neighbor
// leading, not the last bidder.
func (e *Engine) PlaceBid(g *GameState, seat, bid int) (*GameState, []GameEvent, error) {
	if g.Phase != PhaseBidding {
		return nil, nil, fmt.Errorf("%w: bids are only accepted while bidding, game is %s", ErrInvalidPhase, g.Phase)
	}
	if seat < 0 || seat >= len(g.Players) {
		return nil, nil, fmt.Errorf("%w: seat %d", ErrPlayerNotFound, seat)
	}
	s := g.Stanza
	if seat != s.CurrentPlayerIndex {
		return nil, nil, fmt.Errorf("%w: seat %d bid while seat %d is up", ErrNotYourTurn, seat, s.CurrentPlayerIndex)
	}

	valid := ValidBids(seat, s.DealerIndex, s.CardsPerPlayer, s.Bids)
	if !containsInt(valid, bid) {
		if seat == s.DealerIndex && bid >= 0 && bid <= s.CardsPerPlayer {
			return nil, nil, fmt.Errorf("%w: dealer may not bid %d, bids would total %d",
				ErrInvalidBid, bid, s.CardsPerPlayer)
		}
		return nil, nil, fmt.Errorf("%w: %d is outside 0..%d", ErrInvalidBid, bid, s.CardsPerPlayer)
	}

	next := g.Clone()
	ns := next.Stanza
	b := bid
	ns.Bids[seat] = &b

	if ns.AllBidsPlaced() {
		next.Phase = PhasePlaying
		ns.CurrentPlayerIndex = next.leftOf(ns.DealerIndex)
	} else {
		ns.CurrentPlayerIndex = next.leftOf(seat)
	}

	e.logger.Debug("Bid placed", "gameID", g.ID, "seat", seat, "bid", bid, "total", ns.BidTotal())
	return next, []GameEvent{NewBidPlacedEvent(seat, bid)}, nil
}

// PlayCard plays a card for the current seat. calledWhoopie is the
// player's self-report of having called the Whoopie; when the card
// objectively required the call and none was reported, the play stands
// and a WhoopieCallMissed event is appended.
//
// The card's trump effect is applied to the live state first, then the
// card is recorded with a frozen snapshot of that state. The trick
// resolves when the last seat has played: winner by snapshot-based
// reduction, then phase trickEnd, or stanzaEnd with scores applied when
// this trick was the stanza's last.
func (e *Engine) PlayCard(g *GameState, seat int, card deck.Card, calledWhoopie bool) (*GameState, []GameEvent, error) {
	if g.Phase != PhasePlaying {
		return nil, nil, fmt.Errorf("%w: cards are only accepted while playing, game is %s", ErrInvalidPhase, g.Phase)
	}
	if seat < 0 || seat >= len(g.Players) {
		return nil, nil, fmt.Errorf("%w: seat %d", ErrPlayerNotFound, seat)
	}
	s := g.Stanza
	if seat != s.CurrentPlayerIndex {
		return nil, nil, fmt.Errorf("%w: seat %d played while seat %d is up", ErrNotYourTurn, seat, s.CurrentPlayerIndex)
	}
	if !containsCard(s.Hands[seat], card) {
		return nil, nil, fmt.Errorf("%w: %s is not in seat %d's hand", ErrInvalidPlay, card, seat)
	}
	if !containsCard(ValidCards(s.Hands[seat], s.CurrentTrick), card) {
		lead := s.CurrentTrick[0].Card
		return nil, nil, fmt.Errorf("%w: must follow %s, cannot play %s", ErrInvalidPlay, lead.Suit, card)
	}

	next := g.Clone()
	ns := next.Stanza

	isLead := len(ns.CurrentTrick) == 0
	leadSuit := ns.LeadSuit()

	change := TrumpStateAfterPlay(card, ns.Trump, leadSuit, isLead)
	ns.Trump = change.Trump

	played := PlayedCard{
		Card:               card,
		Seat:               seat,
		JTrumpActiveAtPlay: change.Trump.JTrumpActive,
		WasWhoopie:         change.WasWhoopie,
		WasScramble:        change.WasScramble,
	}
	if change.Trump.TrumpSuit != nil {
		suit := *change.Trump.TrumpSuit
		played.TrumpSuitAtPlay = &suit
	}

	ns.Hands[seat] = removeCard(ns.Hands[seat], card)
	ns.CurrentTrick = append(ns.CurrentTrick, played)

	events := []GameEvent{NewCardPlayedEvent(seat, card, change)}
	if change.WasWhoopie && !calledWhoopie {
		events = append(events, NewWhoopieCallMissedEvent(seat, card))
		e.logger.Debug("Whoopie call missed", "gameID", g.ID, "seat", seat, "card", card.String())
	}

	e.logger.Debug("Card played", "gameID", g.ID, "seat", seat, "card", card.String(),
		"whoopie", change.WasWhoopie, "scramble", change.WasScramble)

	if len(ns.CurrentTrick) < len(next.Players) {
		ns.CurrentPlayerIndex = next.leftOf(seat)
		return next, events, nil
	}

	events = append(events, e.completeTrick(next)...)
	return next, events, nil
}

// completeTrick resolves the full current trick and advances the phase
func (e *Engine) completeTrick(g *GameState) []GameEvent {
	s := g.Stanza

	winner := ResolveTrickWinner(s.CurrentTrick, s.Trump.WhoopieRank)
	completed := CompletedTrick{
		Cards:  s.CurrentTrick,
		Winner: winner,
	}
	if !s.CurrentTrick[0].Card.IsJoker() {
		suit := s.CurrentTrick[0].Card.Suit
		completed.LeadSuit = &suit
	}

	s.CompletedTricks = append(s.CompletedTricks, completed)
	s.TricksTaken[winner]++
	s.CurrentPlayerIndex = winner

	events := []GameEvent{NewTrickCompletedEvent(completed)}
	e.logger.Debug("Trick completed", "gameID", g.ID, "winner", winner,
		"trick", len(s.CompletedTricks), "of", s.CardsPerPlayer)

	if len(s.CompletedTricks) < s.CardsPerPlayer {
		// The finished trick stays on the table until ContinueGame.
		g.Phase = PhaseTrickEnd
		return events
	}

	return append(events, e.completeStanza(g)...)
}

// completeStanza scores the finished stanza and archives it
func (e *Engine) completeStanza(g *GameState) []GameEvent {
	s := g.Stanza

	bids := make([]int, len(s.Bids))
	for i, b := range s.Bids {
		bids[i] = *b
	}

	changes := StanzaScores(bids, s.TricksTaken)
	for i, d := range changes {
		g.Scores[i] += d
	}

	playerIDs := make([]string, len(g.Players))
	for i, p := range g.Players {
		playerIDs[i] = p.ID
	}

	record := CompletedStanzaRecord{
		StanzaNumber:   s.StanzaNumber,
		CardsPerPlayer: s.CardsPerPlayer,
		Bids:           bids,
		TricksTaken:    append([]int(nil), s.TricksTaken...),
		ScoreChanges:   changes,
		PlayerIDs:      playerIDs,
	}
	g.CompletedStanzas = append(g.CompletedStanzas, record)
	g.Phase = PhaseStanzaEnd

	e.logger.Debug("Stanza completed", "gameID", g.ID, "stanza", s.StanzaNumber,
		"changes", changes, "scores", g.Scores)

	return []GameEvent{NewStanzaCompletedEvent(s.StanzaNumber, changes, append([]int(nil), g.Scores...))}
}

// ContinueGame clears the finished trick from the table and hands the
// lead to its winner
func (e *Engine) ContinueGame(g *GameState) (*GameState, []GameEvent, error) {
	if g.Phase != PhaseTrickEnd {
		return nil, nil, fmt.Errorf("%w: nothing to continue, game is %s", ErrInvalidPhase, g.Phase)
	}

	next := g.Clone()
	ns := next.Stanza
	ns.CurrentTrick = nil
	ns.CurrentPlayerIndex = ns.CompletedTricks[len(ns.CompletedTricks)-1].Winner
	next.Phase = PhasePlaying

	return next, nil, nil
}

// ContinueToNextStanza deals the next stanza. The stanza size follows a
// triangular wave: up one card per stanza to the table maximum, then
// down to one, then up again, forever. The deal rotates left.
func (e *Engine) ContinueToNextStanza(g *GameState) (*GameState, []GameEvent, error) {
	if g.Phase != PhaseStanzaEnd {
		return nil, nil, fmt.Errorf("%w: next stanza starts from stanzaEnd, game is %s", ErrInvalidPhase, g.Phase)
	}

	next := g.Clone()
	s := next.Stanza

	size, dir := nextStanzaSize(s.CardsPerPlayer, s.Direction, next.maxStanzaSize())
	dealer := next.leftOf(s.DealerIndex)

	if err := e.startStanza(next, s.StanzaNumber+1, size, dir, dealer); err != nil {
		return nil, nil, err
	}

	return next, []GameEvent{NewStanzaStartedEvent(next.Stanza, next.Stanza.CurrentPlayerIndex)}, nil
}

// RemovePlayerAndRedeal removes a seat mid-stanza and rebuilds the
// whole stanza from a fresh shuffle: a partial trick with a missing
// participant has no well-defined resolution, and a fresh defining card
// keeps the redeal fair. Dealer and scorekeeper indices shift to
// account for the removed seat. If fewer than two players remain the
// game ends instead, ranked on current scores.
func (e *Engine) RemovePlayerAndRedeal(g *GameState, seat int) (*GameState, []GameEvent, error) {
	switch g.Phase {
	case PhaseBidding, PhasePlaying, PhaseTrickEnd:
	default:
		return nil, nil, fmt.Errorf("%w: mid-stanza removal only, game is %s", ErrInvalidPhase, g.Phase)
	}
	if seat < 0 || seat >= len(g.Players) {
		return nil, nil, fmt.Errorf("%w: seat %d", ErrPlayerNotFound, seat)
	}

	next := g.Clone()
	removed := next.Players[seat]
	next.Players = append(next.Players[:seat], next.Players[seat+1:]...)
	next.Scores = append(next.Scores[:seat], next.Scores[seat+1:]...)

	events := []GameEvent{NewPlayerLeftEvent(removed, seat, nil)}

	if len(next.Players) < MinTablePlayers {
		next.Stanza = nil
		next.Phase = PhaseGameEnd
		rankings := Rankings(next.Scores)
		e.logger.Debug("Game ended on removal", "gameID", g.ID, "removed", removed.Name)
		return next, append(events, NewGameEndedEvent(next.Scores, rankings)), nil
	}

	next.ScorekeeperIndex = shiftIndex(next.ScorekeeperIndex, seat, len(next.Players))
	dealer := shiftIndex(g.Stanza.DealerIndex, seat, len(next.Players))

	stanzaNumber := g.Stanza.StanzaNumber
	cardsPerPlayer := g.Stanza.CardsPerPlayer
	direction := g.Stanza.Direction

	if err := e.startStanza(next, stanzaNumber, cardsPerPlayer, direction, dealer); err != nil {
		return nil, nil, err
	}

	reason := fmt.Sprintf("%s left mid-stanza", removed.Name)
	events = append(events,
		NewStanzaRedealtEvent(reason),
		NewStanzaStartedEvent(next.Stanza, next.Stanza.CurrentPlayerIndex),
	)

	e.logger.Debug("Stanza redealt", "gameID", g.ID, "removed", removed.Name, "players", len(next.Players))
	return next, events, nil
}

// ReplaceSeat swaps the player at a seat for another, keeping the
// seat's hand, bid and tricks. The hosts use this to hand a
// disconnected human's seat to an AI, or to seat a joining human in an
// AI's place. A human who has never appeared in this game's history is
// seeded with the truncated average of the table's scores; returning
// players and AIs inherit the seat's score unchanged.
func (e *Engine) ReplaceSeat(g *GameState, seat int, replacement Player) (*GameState, []GameEvent, error) {
	switch g.Phase {
	case PhaseBidding, PhasePlaying, PhaseTrickEnd, PhaseStanzaEnd:
	default:
		return nil, nil, fmt.Errorf("%w: seats can only be replaced mid-game, game is %s", ErrInvalidPhase, g.Phase)
	}
	if seat < 0 || seat >= len(g.Players) {
		return nil, nil, fmt.Errorf("%w: seat %d", ErrPlayerNotFound, seat)
	}
	if other := g.SeatOf(replacement.ID); other >= 0 && other != seat {
		return nil, nil, fmt.Errorf("player %s is already seated at %d", replacement.ID, other)
	}

	next := g.Clone()
	outgoing := next.Players[seat]
	next.Players[seat] = replacement

	if replacement.IsHuman() && replacement.ID != outgoing.ID && !next.hasPlayedBefore(replacement.ID) {
		next.Scores[seat] = TruncatedAverage(g.Scores)
	}

	e.logger.Debug("Seat replaced", "gameID", g.ID, "seat", seat,
		"outgoing", outgoing.Name, "incoming", replacement.Name)
	return next, []GameEvent{NewPlayerLeftEvent(outgoing, seat, &replacement)}, nil
}

// SetPlayerConnected marks a seated human connected or disconnected.
// Pure bookkeeping for the host's presence tracking, no events and no
// effect on play; AIs are unaffected.
func (e *Engine) SetPlayerConnected(g *GameState, playerID string, connected bool) (*GameState, error) {
	seat := g.SeatOf(playerID)
	if seat < 0 {
		return nil, fmt.Errorf("%w: %s", ErrPlayerNotFound, playerID)
	}
	if g.Players[seat].IsAI() {
		return g, nil
	}

	next := g.Clone()
	next.Players[seat].Connected = connected

	e.logger.Debug("Player connection changed", "gameID", g.ID,
		"player", next.Players[seat].Name, "connected", connected)
	return next, nil
}

// EndGame finishes the game from a stanza boundary and ranks the
// players by descending score
func (e *Engine) EndGame(g *GameState) (*GameState, []GameEvent, error) {
	if g.Phase != PhaseStanzaEnd {
		return nil, nil, fmt.Errorf("%w: games end at a stanza boundary, game is %s", ErrInvalidPhase, g.Phase)
	}

	next := g.Clone()
	next.Phase = PhaseGameEnd
	rankings := Rankings(next.Scores)

	e.logger.Debug("Game ended", "gameID", g.ID, "scores", next.Scores, "rankings", rankings)
	return next, []GameEvent{NewGameEndedEvent(append([]int(nil), next.Scores...), rankings)}, nil
}

// startStanza shuffles a fresh deck, deals starting at the dealer's
// left, turns the defining card and opens bidding. Mutates g in place;
// callers pass a clone.
func (e *Engine) startStanza(g *GameState, number, cardsPerPlayer int, dir Direction, dealer int) error {
	n := len(g.Players)
	if err := CanStartStanza(n, cardsPerPlayer); err != nil {
		return err
	}

	d := deck.NewDeckWithRNG(e.rng)
	d.Shuffle()

	first := (dealer + 1) % n
	hands, err := d.DealHands(n, cardsPerPlayer, first)
	if err != nil {
		return fmt.Errorf("%w: %d players at %d cards", ErrDeckExhausted, n, cardsPerPlayer)
	}

	defining, _ := d.Deal()

	g.Stanza = &StanzaState{
		StanzaNumber:       number,
		CardsPerPlayer:     cardsPerPlayer,
		Direction:          dir,
		DealerIndex:        dealer,
		DefiningCard:       defining,
		Trump:              trumpFromDefiningCard(defining),
		Bids:               make([]*int, n),
		TricksTaken:        make([]int, n),
		Hands:              hands,
		CurrentPlayerIndex: first,
	}
	g.Phase = PhaseBidding

	e.logger.Debug("Stanza started", "gameID", g.ID, "stanza", number,
		"cards", cardsPerPlayer, "dealer", dealer, "definingCard", defining.String())
	return nil
}

// trumpFromDefiningCard derives the stanza's initial trump state. A
// suit card fixes the Whoopie rank and trump suit; a joker leaves both
// pending for the first lead to define.
func trumpFromDefiningCard(card deck.Card) TrumpState {
	if card.IsJoker() {
		return TrumpState{JTrumpActive: true}
	}
	rank := card.Rank
	suit := card.Suit
	return TrumpState{WhoopieRank: &rank, TrumpSuit: &suit}
}

// cutForDealer draws one card per seat from a fresh shuffle; the
// lowest cut value deals, ties to the lowest seat
func (e *Engine) cutForDealer(numPlayers int) ([]deck.Card, int) {
	d := deck.NewDeckWithRNG(e.rng)
	d.Shuffle()

	cards := d.DealN(numPlayers)
	dealer := 0
	for seat, card := range cards {
		if card.CutValue() < cards[dealer].CutValue() {
			dealer = seat
		}
	}
	return cards, dealer
}

// nextStanzaSize advances the triangular stanza-size wave
func nextStanzaSize(current int, dir Direction, max int) (int, Direction) {
	if max < 2 {
		return 1, DirectionUp
	}
	if dir == DirectionUp {
		if current < max {
			return current + 1, DirectionUp
		}
		return current - 1, DirectionDown
	}
	if current > 1 {
		return current - 1, DirectionDown
	}
	return 2, DirectionUp
}

// maxStanzaSize is the table's stanza-size ceiling: what the deck
// supports, optionally capped by settings
func (g *GameState) maxStanzaSize() int {
	max := MaxCardsPerPlayer(len(g.Players))
	if g.Settings.MaxCardsPerPlayer > 0 && g.Settings.MaxCardsPerPlayer < max {
		max = g.Settings.MaxCardsPerPlayer
	}
	return max
}

// hasPlayedBefore reports whether a player id appears in any completed
// stanza's seating record
func (g *GameState) hasPlayedBefore(playerID string) bool {
	for _, record := range g.CompletedStanzas {
		for _, id := range record.PlayerIDs {
			if id == playerID {
				return true
			}
		}
	}
	return false
}

// shiftIndex adjusts a seat index for the removal of removedSeat
func shiftIndex(index, removedSeat, newLen int) int {
	if index > removedSeat {
		return index - 1
	}
	if index == removedSeat {
		return index % newLen
	}
	return index
}

// normalizeSettings fills unset settings with defaults and clamps them
// to the table limits
func normalizeSettings(s Settings) Settings {
	if s.MinPlayers < MinTablePlayers {
		s.MinPlayers = MinTablePlayers
	}
	if s.MaxPlayers <= 0 || s.MaxPlayers > MaxTablePlayers {
		s.MaxPlayers = MaxTablePlayers
	}
	if s.MinPlayers > s.MaxPlayers {
		s.MinPlayers = s.MaxPlayers
	}
	return s
}

// containsInt reports whether values contains v
func containsInt(values []int, v int) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}
