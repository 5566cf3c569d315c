package server

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/whoopiegame/whoopie/internal/bot"
	"github.com/whoopiegame/whoopie/internal/deck"
	"github.com/whoopiegame/whoopie/internal/game"
	"github.com/whoopiegame/whoopie/internal/gamecode"
	"github.com/whoopiegame/whoopie/internal/store"
)

// MessageSender delivers messages to connected players. The Server
// implements it; tests substitute a recorder.
type MessageSender interface {
	SendToPlayer(playerID string, msg *Message) error
}

// Room hosts a single game. It owns the only mutable reference to the
// game state and serializes every command behind one mutex, so engine
// transitions never race. Timer callbacks (AI pacing, trick display,
// disconnect grace) take the same lock and re-validate the phase
// before acting, which makes stale timers harmless.
type Room struct {
	id       string
	joinCode string

	mu         sync.Mutex
	state      *game.GameState
	hostID     string
	strategies map[string]bot.Strategy
	grace      map[string]*quartz.Timer
	paceTimer  *quartz.Timer
	paused     bool

	engine *game.Engine
	sender MessageSender
	store  *store.Store
	clock  quartz.Clock
	cfg    *Config
	rng    *rand.Rand
	logger *log.Logger
}

// NewRoom creates an empty room. Call CreateGame or AdoptState before
// anything else.
func NewRoom(id, joinCode string, sender MessageSender, st *store.Store, clock quartz.Clock, cfg *Config, rng *rand.Rand, logger *log.Logger) *Room {
	if rng == nil {
		rng = rand.New(rand.NewSource(int64(len(id))))
	}
	return &Room{
		id:         id,
		joinCode:   joinCode,
		strategies: make(map[string]bot.Strategy),
		grace:      make(map[string]*quartz.Timer),
		engine:     game.NewEngine(rng, logger),
		sender:     sender,
		store:      st,
		clock:      clock,
		cfg:        cfg,
		rng:        rng,
		logger:     logger.WithPrefix("room").With("gameID", id),
	}
}

// ID returns the game id
func (r *Room) ID() string {
	return r.id
}

// JoinCode returns the spoken join code for this room
func (r *Room) JoinCode() string {
	return r.joinCode
}

// State returns the current state snapshot. Snapshots are never
// mutated after publication, so the caller may read it freely.
func (r *Room) State() *game.GameState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Finished reports whether the game has ended
func (r *Room) Finished() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state != nil && r.state.Phase == game.PhaseGameEnd
}

// Paused reports whether the room was paused to disk
func (r *Room) Paused() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.paused
}

// CreateGame seats the host in a fresh game
func (r *Room) CreateGame(host game.Player, settings game.Settings) {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, events := r.engine.NewGame(r.id, host, settings)
	r.state = state
	r.hostID = host.ID
	r.afterApply(events)
}

// AdoptState resumes a previously saved game in this room. AI seats
// get their strategies rebuilt from the recorded difficulties, humans
// start out disconnected until they rejoin.
func (r *Room) AdoptState(state *game.GameState) {
	r.mu.Lock()
	defer r.mu.Unlock()

	adopted := state.Clone()
	for i, p := range adopted.Players {
		switch {
		case p.IsAI():
			r.strategies[p.ID] = bot.ForDifficulty(p.Difficulty, r.rng, r.logger)
		default:
			adopted.Players[i].Connected = false
			if r.hostID == "" {
				r.hostID = p.ID
			}
		}
	}
	r.state = adopted
	r.paused = false
	r.logger.Info("Game resumed from snapshot", "phase", adopted.Phase, "players", adopted.NumPlayers())
}

// Join seats a player. While waiting this adds a seat; mid-game the
// player takes over an AI seat instead, which seeds newcomers with the
// table's truncated average score.
func (r *Room) Join(player game.Player) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state.Phase == game.PhaseWaiting {
		next, events, err := r.engine.AddPlayer(r.state, player)
		if err != nil {
			return 0, err
		}
		r.state = next
		r.afterApply(events)
		return next.SeatOf(player.ID), nil
	}

	seat := -1
	for i, p := range r.state.Players {
		if p.IsAI() {
			seat = i
			break
		}
	}
	if seat < 0 {
		return 0, fmt.Errorf("game %s has no open seat", r.id)
	}

	next, events, err := r.engine.ReplaceSeat(r.state, seat, player)
	if err != nil {
		return 0, err
	}
	delete(r.strategies, r.state.Players[seat].ID)
	r.state = next
	r.afterApply(events)
	return seat, nil
}

// AddBot seats an AI player. Only the host may add bots.
func (r *Room) AddBot(requesterID, name, difficulty string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if requesterID != r.hostID {
		return fmt.Errorf("only the host can add bots")
	}

	d := parseDifficulty(difficulty)
	if name == "" {
		name = r.pickBotName()
	}
	player := game.NewAI(gamecode.NewID(), name, d)

	next, events, err := r.engine.AddPlayer(r.state, player)
	if err != nil {
		return err
	}
	r.strategies[player.ID] = bot.ForDifficulty(d, r.rng, r.logger)
	r.state = next
	r.afterApply(events)
	return nil
}

// Start begins the game: cut for dealer, first one-card stanza
func (r *Room) Start(playerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.requireSeat(playerID); err != nil {
		return err
	}
	next, events, err := r.engine.StartGame(r.state)
	if err != nil {
		return err
	}
	r.state = next
	r.afterApply(events)
	return nil
}

// PlaceBid applies a bid for the player's seat
func (r *Room) PlaceBid(playerID string, bid int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	seat := r.state.SeatOf(playerID)
	if seat < 0 {
		return fmt.Errorf("%w: %s", game.ErrPlayerNotFound, playerID)
	}
	next, events, err := r.engine.PlaceBid(r.state, seat, bid)
	if err != nil {
		return err
	}
	r.state = next
	r.afterApply(events)
	return nil
}

// PlayCard applies a card play for the player's seat. The card arrives
// in code form from the wire.
func (r *Room) PlayCard(playerID, cardCode string, calledWhoopie bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	seat := r.state.SeatOf(playerID)
	if seat < 0 {
		return fmt.Errorf("%w: %s", game.ErrPlayerNotFound, playerID)
	}
	card, err := deck.ParseCard(cardCode)
	if err != nil {
		return fmt.Errorf("%w: %v", game.ErrInvalidPlay, err)
	}
	next, events, err := r.engine.PlayCard(r.state, seat, card, calledWhoopie)
	if err != nil {
		return err
	}
	r.state = next
	r.afterApply(events)
	return nil
}

// Continue advances past a boundary: it clears a finished trick, or
// deals the next stanza from the stanza summary.
func (r *Room) Continue(playerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.requireSeat(playerID); err != nil {
		return err
	}

	var (
		next   *game.GameState
		events []game.GameEvent
		err    error
	)
	switch r.state.Phase {
	case game.PhaseStanzaEnd:
		next, events, err = r.engine.ContinueToNextStanza(r.state)
	default:
		next, events, err = r.engine.ContinueGame(r.state)
	}
	if err != nil {
		return err
	}
	r.state = next
	r.afterApply(events)
	return nil
}

// EndGame finishes the game from the stanza summary
func (r *Room) EndGame(playerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.requireSeat(playerID); err != nil {
		return err
	}
	next, events, err := r.engine.EndGame(r.state)
	if err != nil {
		return err
	}
	r.state = next
	r.afterApply(events)
	return nil
}

// RemoveSeat removes a seat entirely. Mid-game this triggers a full
// redeal of the running stanza. Only the host or the scorekeeper may
// remove seats.
func (r *Room) RemoveSeat(requesterID string, seat int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	scorekeeper := ""
	if r.state.ScorekeeperIndex < r.state.NumPlayers() {
		scorekeeper = r.state.Players[r.state.ScorekeeperIndex].ID
	}
	if requesterID != r.hostID && requesterID != scorekeeper {
		return fmt.Errorf("only the host or scorekeeper can remove seats")
	}
	if seat < 0 || seat >= r.state.NumPlayers() {
		return fmt.Errorf("%w: seat %d", game.ErrPlayerNotFound, seat)
	}
	removed := r.state.Players[seat]

	var (
		next   *game.GameState
		events []game.GameEvent
		err    error
	)
	if r.state.Phase == game.PhaseWaiting {
		next, events, err = r.engine.RemovePlayer(r.state, removed.ID)
	} else {
		next, events, err = r.engine.RemovePlayerAndRedeal(r.state, seat)
	}
	if err != nil {
		return err
	}
	r.cancelGrace(removed.ID)
	delete(r.strategies, removed.ID)
	r.state = next
	r.afterApply(events)
	return nil
}

// Leave handles a deliberate departure. While waiting the seat is
// removed; mid-game a bot takes the seat immediately, no grace.
// Returns true when the room is finished with: emptied out, or paused
// because no connected humans remain.
func (r *Room) Leave(playerID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	seat := r.state.SeatOf(playerID)
	if seat < 0 {
		return false, fmt.Errorf("%w: %s", game.ErrPlayerNotFound, playerID)
	}
	r.cancelGrace(playerID)

	switch r.state.Phase {
	case game.PhaseWaiting:
		next, events, err := r.engine.RemovePlayer(r.state, playerID)
		if err != nil {
			return false, err
		}
		r.state = next
		if playerID == r.hostID && next.NumPlayers() > 0 {
			r.hostID = next.Players[0].ID
		}
		r.afterApply(events)
		return r.state.NumPlayers() == 0, nil

	case game.PhaseGameEnd:
		// Nothing to hand over
		return false, nil
	}

	// The last human leaving pauses the game with their seat intact so
	// it stays resumable; otherwise a bot takes the seat right away.
	leaver := r.state.Players[seat]
	if leaver.IsHuman() && leaver.Connected && r.connectedHumans() == 1 {
		if next, err := r.engine.SetPlayerConnected(r.state, playerID, false); err == nil {
			r.state = next
		}
		r.pause("last player left")
		return true, nil
	}

	if err := r.replaceWithBot(seat); err != nil {
		return false, err
	}
	if r.connectedHumans() == 0 {
		r.pause("no connected players")
		return true, nil
	}
	return false, nil
}

// HandleDisconnect marks a dropped player and starts the grace timer
// that will hand the seat to a bot. Returns true when the room paused
// itself because no connected humans remain.
func (r *Room) HandleDisconnect(playerID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	seat := r.state.SeatOf(playerID)
	if seat < 0 || r.state.Players[seat].IsAI() {
		return false
	}

	switch r.state.Phase {
	case game.PhaseWaiting:
		next, events, err := r.engine.RemovePlayer(r.state, playerID)
		if err != nil {
			r.logger.Warn("Failed to remove disconnected player", "player", playerID, "error", err)
			return false
		}
		r.state = next
		if playerID == r.hostID && next.NumPlayers() > 0 {
			r.hostID = next.Players[0].ID
		}
		r.afterApply(events)
		return r.state.NumPlayers() == 0

	case game.PhaseGameEnd:
		return false
	}

	next, err := r.engine.SetPlayerConnected(r.state, playerID, false)
	if err != nil {
		r.logger.Warn("Failed to mark player disconnected", "player", playerID, "error", err)
		return false
	}
	r.state = next
	r.pushStates()

	if r.connectedHumans() == 0 {
		r.pause("no connected players")
		return true
	}

	r.logger.Info("Player disconnected, grace timer started",
		"player", playerID, "grace", r.cfg.DisconnectGrace())
	r.cancelGrace(playerID)
	r.grace[playerID] = r.clock.AfterFunc(r.cfg.DisconnectGrace(), func() {
		r.graceExpired(playerID)
	})
	return false
}

// HandleReconnect restores a dropped player's link inside the grace
// window and returns their seat.
func (r *Room) HandleReconnect(playerID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	seat := r.state.SeatOf(playerID)
	if seat < 0 {
		return 0, fmt.Errorf("%w: %s", game.ErrPlayerNotFound, playerID)
	}
	r.cancelGrace(playerID)

	next, err := r.engine.SetPlayerConnected(r.state, playerID, true)
	if err != nil {
		return 0, err
	}
	r.state = next
	r.pushStates()
	r.scheduleNext()
	return seat, nil
}

// Pause stops the clocks and saves the game for a later resume
func (r *Room) Pause(reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pause(reason)
}

func (r *Room) pause(reason string) {
	if r.paused {
		return
	}
	r.stopTimers()
	r.paused = true
	if err := r.store.SaveGame(r.state); err != nil {
		r.logger.Error("Failed to save paused game", "error", err)
	}
	r.logger.Info("Game paused", "reason", reason, "phase", r.state.Phase)

	if msg, err := NewMessage(MessageTypeGamePaused, GamePausedData{GameID: r.id, Reason: reason}); err == nil {
		r.broadcast(msg)
	}
}

// graceExpired hands a still-disconnected seat to a bot
func (r *Room) graceExpired(playerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.grace, playerID)
	seat := r.state.SeatOf(playerID)
	if seat < 0 || r.paused {
		return
	}
	p := r.state.Players[seat]
	if p.IsAI() || p.Connected {
		return
	}
	switch r.state.Phase {
	case game.PhaseWaiting, game.PhaseGameEnd:
		return
	}

	r.logger.Info("Grace expired, seat goes to a bot", "player", p.Name, "seat", seat)
	if err := r.replaceWithBot(seat); err != nil {
		r.logger.Error("Failed to replace seat with bot", "seat", seat, "error", err)
	}
}

// replaceWithBot swaps the seat for a normal-difficulty bot. Lock held.
func (r *Room) replaceWithBot(seat int) error {
	outgoing := r.state.Players[seat]
	replacement := game.NewAI(gamecode.NewID(), r.pickBotName(), game.DifficultyNormal)

	next, events, err := r.engine.ReplaceSeat(r.state, seat, replacement)
	if err != nil {
		return err
	}
	r.strategies[replacement.ID] = bot.ForDifficulty(replacement.Difficulty, r.rng, r.logger)
	delete(r.strategies, outgoing.ID)
	r.state = next
	r.afterApply(events)
	return nil
}

// afterApply runs after every successful transition: journal the
// events, relay them, push the per-seat views and set up whatever timer
// the new phase needs. Lock held.
func (r *Room) afterApply(events []game.GameEvent) {
	if err := r.store.AppendEvents(r.id, events); err != nil {
		r.logger.Warn("Failed to journal events", "error", err)
	}

	for _, event := range events {
		r.logger.Debug(game.FormatEvent(event, r.state.Players))
		data, err := NewGameEventData(event)
		if err != nil {
			r.logger.Error("Failed to encode event", "type", event.EventType(), "error", err)
			continue
		}
		msg, err := NewMessage(MessageTypeGameEvent, data)
		if err != nil {
			continue
		}
		r.broadcast(msg)
	}

	r.pushStates()

	switch r.state.Phase {
	case game.PhaseStanzaEnd:
		if err := r.store.SaveGame(r.state); err != nil {
			r.logger.Warn("Failed to snapshot game", "error", err)
		}
	case game.PhaseGameEnd:
		if err := r.store.SaveGame(r.state); err != nil {
			r.logger.Warn("Failed to snapshot finished game", "error", err)
		}
		r.stopTimers()
		return
	}

	r.scheduleNext()
}

// scheduleNext arms the pacing timer for the current phase: an AI move
// when an AI holds the turn, the trick-display delay at a trick
// boundary. Stanza summaries wait for a human. Lock held.
func (r *Room) scheduleNext() {
	if r.paceTimer != nil {
		r.paceTimer.Stop()
		r.paceTimer = nil
	}
	if r.paused {
		return
	}

	switch r.state.Phase {
	case game.PhaseBidding, game.PhasePlaying:
		if r.state.Stanza == nil {
			return
		}
		seat := r.state.Stanza.CurrentPlayerIndex
		if !r.state.Players[seat].IsAI() {
			return
		}
		r.paceTimer = r.clock.AfterFunc(r.cfg.AIMoveDelay(), r.aiMove)

	case game.PhaseTrickEnd:
		r.paceTimer = r.clock.AfterFunc(r.cfg.TrickDisplay(), r.autoContinue)
	}
}

// aiMove makes one move for the AI holding the turn, then reschedules
func (r *Room) aiMove() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.paused || r.state.Stanza == nil {
		return
	}
	seat := r.state.Stanza.CurrentPlayerIndex
	player := r.state.Players[seat]
	if !player.IsAI() {
		return
	}
	strategy := r.strategies[player.ID]
	if strategy == nil {
		strategy = bot.ForDifficulty(player.Difficulty, r.rng, r.logger)
		r.strategies[player.ID] = strategy
	}
	view := game.BuildPlayerView(r.state, seat)

	var (
		next   *game.GameState
		events []game.GameEvent
		err    error
	)
	switch r.state.Phase {
	case game.PhaseBidding:
		decision := strategy.ChooseBid(view, r.state.ValidBidsFor(seat))
		r.logger.Debug("AI bids", "player", player.Name, "bid", decision.Bid, "reasoning", decision.Reasoning)
		next, events, err = r.engine.PlaceBid(r.state, seat, decision.Bid)

	case game.PhasePlaying:
		decision := strategy.ChooseCard(view, r.state.ValidCardsFor(seat))
		called := r.state.WhoopieCallRequired(seat, decision.Card)
		r.logger.Debug("AI plays", "player", player.Name, "card", decision.Card.String(),
			"calledWhoopie", called, "reasoning", decision.Reasoning)
		next, events, err = r.engine.PlayCard(r.state, seat, decision.Card, called)

	default:
		return
	}
	if err != nil {
		r.logger.Error("AI move rejected", "player", player.Name, "error", err)
		return
	}
	r.state = next
	r.afterApply(events)
}

// autoContinue clears a finished trick after the display delay
func (r *Room) autoContinue() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.paused || r.state.Phase != game.PhaseTrickEnd {
		return
	}
	next, events, err := r.engine.ContinueGame(r.state)
	if err != nil {
		r.logger.Error("Failed to advance past trick", "error", err)
		return
	}
	r.state = next
	r.afterApply(events)
}

// pushStates sends each connected human their redacted view. Lock held.
func (r *Room) pushStates() {
	for seat, p := range r.state.Players {
		if p.IsAI() || !p.Connected {
			continue
		}
		data := BuildGameStateData(r.state, seat, r.joinCode)
		msg, err := NewMessage(MessageTypeGameState, data)
		if err != nil {
			r.logger.Error("Failed to build state push", "seat", seat, "error", err)
			continue
		}
		if err := r.sender.SendToPlayer(p.ID, msg); err != nil {
			r.logger.Debug("State push failed", "player", p.Name, "error", err)
		}
	}
}

// broadcast sends a message to every connected human. Lock held.
func (r *Room) broadcast(msg *Message) {
	for _, p := range r.state.Players {
		if p.IsAI() || !p.Connected {
			continue
		}
		if err := r.sender.SendToPlayer(p.ID, msg); err != nil {
			r.logger.Debug("Broadcast send failed", "player", p.Name, "error", err)
		}
	}
}

func (r *Room) requireSeat(playerID string) error {
	if r.state.SeatOf(playerID) < 0 {
		return fmt.Errorf("%w: %s", game.ErrPlayerNotFound, playerID)
	}
	return nil
}

func (r *Room) connectedHumans() int {
	n := 0
	for _, p := range r.state.Players {
		if p.IsHuman() && p.Connected {
			n++
		}
	}
	return n
}

func (r *Room) cancelGrace(playerID string) {
	if timer, ok := r.grace[playerID]; ok {
		timer.Stop()
		delete(r.grace, playerID)
	}
}

func (r *Room) stopTimers() {
	if r.paceTimer != nil {
		r.paceTimer.Stop()
		r.paceTimer = nil
	}
	for id, timer := range r.grace {
		timer.Stop()
		delete(r.grace, id)
	}
}

var botNames = []string{"Rosie", "Arthur", "Maud", "Clive", "Edith", "Stan", "Olive", "Bert"}

// pickBotName returns a bot name not already at the table. Lock held.
func (r *Room) pickBotName() string {
	taken := make(map[string]bool, len(botNames))
	if r.state != nil {
		for _, p := range r.state.Players {
			taken[p.Name] = true
		}
	}
	start := r.rng.Intn(len(botNames))
	for i := range botNames {
		name := botNames[(start+i)%len(botNames)]
		if !taken[name] {
			return name
		}
	}
	return fmt.Sprintf("Bot %d", r.rng.Intn(1000))
}

func parseDifficulty(s string) game.Difficulty {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "easy":
		return game.DifficultyEasy
	default:
		return game.DifficultyNormal
	}
}
