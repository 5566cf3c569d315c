package server

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/whoopiegame/whoopie/internal/game"
	"github.com/whoopiegame/whoopie/internal/gamecode"
	"github.com/whoopiegame/whoopie/internal/store"
)

// ErrNotInGame is returned for game commands from a player without a
// seat in any hosted game.
var ErrNotInGame = errors.New("not in a game")

// Manager owns the room registry. It routes commands from connections
// to the right room, retires rooms that finish or pause, and resumes
// paused games from the store.
type Manager struct {
	mu       sync.RWMutex
	rooms    map[string]*Room  // gameID -> room
	byCode   map[string]string // normalized join code -> gameID
	byPlayer map[string]string // playerID -> gameID

	sender MessageSender
	store  *store.Store
	clock  quartz.Clock
	cfg    *Config
	rng    *rand.Rand
	logger *log.Logger
}

// NewManager creates a manager. The rng seeds each room's private
// random source; a nil rng falls back to the global source behavior of
// the rooms themselves.
func NewManager(sender MessageSender, st *store.Store, clock quartz.Clock, cfg *Config, rng *rand.Rand, logger *log.Logger) *Manager {
	return &Manager{
		rooms:    make(map[string]*Room),
		byCode:   make(map[string]string),
		byPlayer: make(map[string]string),
		sender:   sender,
		store:    st,
		clock:    clock,
		cfg:      cfg,
		rng:      rng,
		logger:   logger.WithPrefix("manager"),
	}
}

// CreateGame opens a new room with the creator seated as host
func (m *Manager) CreateGame(playerID, playerName string, data CreateGameData) (*Room, int, error) {
	settings := game.Settings{
		MinPlayers:        m.cfg.Game.MinPlayers,
		MaxPlayers:        m.cfg.Game.MaxPlayers,
		MaxCardsPerPlayer: m.cfg.Game.MaxCardsPerPlayer,
	}
	if data.MinPlayers > 0 {
		settings.MinPlayers = data.MinPlayers
	}
	if data.MaxPlayers > 0 {
		settings.MaxPlayers = data.MaxPlayers
	}
	if data.MaxCardsPerPlayer > 0 {
		settings.MaxCardsPerPlayer = data.MaxCardsPerPlayer
	}

	m.mu.Lock()
	id := gamecode.NewID()
	code := m.unusedJoinCode()
	room := NewRoom(id, code, m.sender, m.store, m.clock, m.cfg, m.roomRNG(), m.logger)
	m.rooms[id] = room
	m.byCode[code] = id
	m.byPlayer[playerID] = id
	m.mu.Unlock()

	room.CreateGame(game.NewHuman(playerID, playerName), settings)
	m.logger.Info("Game created", "gameID", id, "joinCode", code, "host", playerName)
	return room, 0, nil
}

// JoinGame seats a player in the room with the given join code
func (m *Manager) JoinGame(playerID, playerName, joinCode string) (*Room, int, error) {
	code := gamecode.NormalizeJoinCode(joinCode)
	if err := gamecode.ValidateJoinCode(code); err != nil {
		return nil, 0, err
	}

	m.mu.RLock()
	id, ok := m.byCode[code]
	room := m.rooms[id]
	m.mu.RUnlock()
	if !ok || room == nil {
		return nil, 0, fmt.Errorf("no game with join code %s", code)
	}

	seat, err := room.Join(game.NewHuman(playerID, playerName))
	if err != nil {
		return nil, 0, err
	}

	m.mu.Lock()
	m.byPlayer[playerID] = id
	m.mu.Unlock()

	m.logger.Info("Player joined", "gameID", id, "player", playerName, "seat", seat)
	return room, seat, nil
}

// RejoinGame restores a player's link to a hosted game, or resumes a
// paused game from the store when the room is no longer in memory.
func (m *Manager) RejoinGame(playerID, gameID string) (*Room, int, error) {
	if err := gamecode.ValidateID(gameID); err != nil {
		return nil, 0, err
	}

	m.mu.RLock()
	room := m.rooms[gameID]
	m.mu.RUnlock()

	if room == nil {
		loaded, err := m.store.LoadGame(gameID)
		if err != nil {
			return nil, 0, err
		}
		seat := loaded.SeatOf(playerID)
		if seat < 0 || loaded.Players[seat].IsAI() {
			return nil, 0, fmt.Errorf("%w: %s", game.ErrPlayerNotFound, playerID)
		}
		if loaded.Phase == game.PhaseGameEnd {
			return nil, 0, fmt.Errorf("game %s is already over", gameID)
		}

		m.mu.Lock()
		if existing := m.rooms[gameID]; existing != nil {
			// Someone else resumed it first
			room = existing
			m.mu.Unlock()
		} else {
			code := m.unusedJoinCode()
			room = NewRoom(gameID, code, m.sender, m.store, m.clock, m.cfg, m.roomRNG(), m.logger)
			m.rooms[gameID] = room
			m.byCode[code] = gameID
			m.mu.Unlock()
			room.AdoptState(loaded)
			m.logger.Info("Game resumed", "gameID", gameID, "joinCode", code)
		}
	}

	seat, err := room.HandleReconnect(playerID)
	if err != nil {
		return nil, 0, err
	}

	m.mu.Lock()
	m.byPlayer[playerID] = gameID
	m.mu.Unlock()

	m.logger.Info("Player reconnected", "gameID", gameID, "player", playerID, "seat", seat)
	return room, seat, nil
}

// LeaveGame handles a deliberate departure
func (m *Manager) LeaveGame(playerID string) error {
	room, err := m.roomFor(playerID)
	if err != nil {
		return err
	}

	done, err := room.Leave(playerID)
	if err != nil {
		return err
	}

	m.mu.Lock()
	delete(m.byPlayer, playerID)
	m.mu.Unlock()

	if done {
		m.retire(room)
	}
	return nil
}

// HandleDisconnect reacts to a dropped connection: the player's room
// starts its grace clock, or pauses when nobody is left.
func (m *Manager) HandleDisconnect(playerID string) {
	m.mu.RLock()
	id, ok := m.byPlayer[playerID]
	room := m.rooms[id]
	m.mu.RUnlock()
	if !ok || room == nil {
		return
	}

	m.mu.Lock()
	delete(m.byPlayer, playerID)
	m.mu.Unlock()

	if done := room.HandleDisconnect(playerID); done {
		m.retire(room)
	}
}

// StartGame starts the player's game
func (m *Manager) StartGame(playerID string) error {
	room, err := m.roomFor(playerID)
	if err != nil {
		return err
	}
	return room.Start(playerID)
}

// PlaceBid places a bid in the player's game
func (m *Manager) PlaceBid(playerID string, bid int) error {
	room, err := m.roomFor(playerID)
	if err != nil {
		return err
	}
	return room.PlaceBid(playerID, bid)
}

// PlayCard plays a card in the player's game
func (m *Manager) PlayCard(playerID, cardCode string, calledWhoopie bool) error {
	room, err := m.roomFor(playerID)
	if err != nil {
		return err
	}
	return room.PlayCard(playerID, cardCode, calledWhoopie)
}

// Continue advances the player's game past a trick or stanza boundary
func (m *Manager) Continue(playerID string) error {
	room, err := m.roomFor(playerID)
	if err != nil {
		return err
	}
	return room.Continue(playerID)
}

// EndGame finishes the player's game from the stanza summary
func (m *Manager) EndGame(playerID string) error {
	room, err := m.roomFor(playerID)
	if err != nil {
		return err
	}
	if err := room.EndGame(playerID); err != nil {
		return err
	}
	m.retire(room)
	return nil
}

// AddBot seats an AI in the player's game
func (m *Manager) AddBot(playerID string, data AddBotData) error {
	room, err := m.roomFor(playerID)
	if err != nil {
		return err
	}
	return room.AddBot(playerID, data.Name, data.Difficulty)
}

// RemoveSeat removes a seat from the player's game, redealing the
// stanza mid-game
func (m *Manager) RemoveSeat(playerID string, seat int) error {
	room, err := m.roomFor(playerID)
	if err != nil {
		return err
	}

	var removed game.Player
	if state := room.State(); state != nil && seat >= 0 && seat < state.NumPlayers() {
		removed = state.Players[seat]
	}

	if err := room.RemoveSeat(playerID, seat); err != nil {
		return err
	}

	m.mu.Lock()
	delete(m.byPlayer, removed.ID)
	m.mu.Unlock()

	// The removed seat is gone from the room's player list, so tell
	// the ejected human directly
	if removed.IsHuman() {
		if msg, err := NewMessage(MessageTypeGameLeft, GameLeftData{GameID: room.ID()}); err == nil {
			_ = m.sender.SendToPlayer(removed.ID, msg)
		}
	}

	if room.Finished() {
		m.retire(room)
	}
	return nil
}

// RoomFor returns the room hosting the player's game
func (m *Manager) RoomFor(playerID string) (*Room, error) {
	return m.roomFor(playerID)
}

// ActiveGames returns the number of hosted rooms
func (m *Manager) ActiveGames() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms)
}

// Shutdown pauses every active room so the games can resume after a
// restart
func (m *Manager) Shutdown() {
	m.mu.Lock()
	rooms := make([]*Room, 0, len(m.rooms))
	for _, room := range m.rooms {
		rooms = append(rooms, room)
	}
	m.rooms = make(map[string]*Room)
	m.byCode = make(map[string]string)
	m.byPlayer = make(map[string]string)
	m.mu.Unlock()

	for _, room := range rooms {
		if !room.Finished() {
			room.Pause("server shutdown")
		}
	}
	m.logger.Info("All rooms paused", "count", len(rooms))
}

func (m *Manager) roomFor(playerID string) (*Room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byPlayer[playerID]
	if !ok {
		return nil, ErrNotInGame
	}
	room := m.rooms[id]
	if room == nil {
		return nil, ErrNotInGame
	}
	return room, nil
}

// retire drops a room from the registry once it has finished, paused
// or emptied out
func (m *Manager) retire(room *Room) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.rooms, room.ID())
	delete(m.byCode, room.JoinCode())
	for playerID, id := range m.byPlayer {
		if id == room.ID() {
			delete(m.byPlayer, playerID)
		}
	}
	m.logger.Info("Room retired", "gameID", room.ID())
}

// unusedJoinCode draws join codes until one is free. Lock held.
func (m *Manager) unusedJoinCode() string {
	for {
		code := gamecode.NewJoinCode()
		if _, taken := m.byCode[code]; !taken {
			return code
		}
	}
}

// roomRNG derives an independent random source for one room. Lock
// held.
func (m *Manager) roomRNG() *rand.Rand {
	if m.rng == nil {
		return nil
	}
	return rand.New(rand.NewSource(m.rng.Int63()))
}
