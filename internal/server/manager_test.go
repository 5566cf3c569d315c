package server

import (
	"context"
	"io"
	"math/rand"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/stretchr/testify/require"

	"github.com/whoopiegame/whoopie/internal/game"
	"github.com/whoopiegame/whoopie/internal/store"
)

func testManager(t *testing.T, clock quartz.Clock) (*Manager, *fakeSender, *store.Store) {
	t.Helper()
	st, err := store.New(t.TempDir(), nil)
	require.NoError(t, err)

	sender := newFakeSender()
	logger := log.NewWithOptions(io.Discard, log.Options{})
	m := NewManager(sender, st, clock, testConfig(), rand.New(rand.NewSource(42)), logger)
	return m, sender, st
}

func TestManagerCreateAndJoin(t *testing.T) {
	m, _, _ := testManager(t, quartz.NewMock(t))

	room, seat, err := m.CreateGame("host", "Hana", CreateGameData{})
	require.NoError(t, err)
	require.Equal(t, 0, seat)
	require.Equal(t, 1, m.ActiveGames())

	// Join codes survive sloppy entry: case, spacing and the o/0 and
	// l/1 confusions all normalize away
	sloppy := "  " + strings.ToUpper(room.JoinCode()) + " "
	joined, seat, err := m.JoinGame("p2", "Ben", sloppy)
	require.NoError(t, err)
	require.Same(t, room, joined)
	require.Equal(t, 1, seat)

	_, _, err = m.JoinGame("p3", "Cleo", "zzzzzz")
	require.Error(t, err)
}

func TestManagerCreateGameSettingsOverride(t *testing.T) {
	m, _, _ := testManager(t, quartz.NewMock(t))

	room, _, err := m.CreateGame("host", "Hana", CreateGameData{MaxPlayers: 4, MaxCardsPerPlayer: 3})
	require.NoError(t, err)

	settings := room.State().Settings
	require.Equal(t, 2, settings.MinPlayers, "unset fields keep the server default")
	require.Equal(t, 4, settings.MaxPlayers)
	require.Equal(t, 3, settings.MaxCardsPerPlayer)
}

func TestManagerRoutesCommands(t *testing.T) {
	m, _, _ := testManager(t, quartz.NewMock(t))

	_, _, err := m.CreateGame("host", "Hana", CreateGameData{})
	require.NoError(t, err)
	require.NoError(t, m.AddBot("host", AddBotData{}))
	require.NoError(t, m.StartGame("host"))

	room, err := m.RoomFor("host")
	require.NoError(t, err)
	require.Equal(t, game.PhaseBidding, room.State().Phase)

	// A player in no game gets ErrNotInGame from every command
	require.ErrorIs(t, m.StartGame("stranger"), ErrNotInGame)
	require.ErrorIs(t, m.PlaceBid("stranger", 0), ErrNotInGame)
	require.ErrorIs(t, m.PlayCard("stranger", "AS", false), ErrNotInGame)
	require.ErrorIs(t, m.Continue("stranger"), ErrNotInGame)
	require.ErrorIs(t, m.LeaveGame("stranger"), ErrNotInGame)
}

// A disconnect with no other humans pauses and retires the room; the
// player rejoins by game id and play resumes from the snapshot.
func TestManagerRejoinResumesPausedGame(t *testing.T) {
	clk := quartz.NewMock(t)
	m, _, st := testManager(t, clk)

	room, _, err := m.CreateGame("host", "Hana", CreateGameData{})
	require.NoError(t, err)
	gameID := room.ID()
	oldCode := room.JoinCode()

	require.NoError(t, m.AddBot("host", AddBotData{}))
	require.NoError(t, m.StartGame("host"))

	m.HandleDisconnect("host")
	require.Equal(t, 0, m.ActiveGames(), "a paused room leaves the registry")

	saved, err := st.LoadGame(gameID)
	require.NoError(t, err)
	require.NotEqual(t, game.PhaseGameEnd, saved.Phase)

	resumed, seat, err := m.RejoinGame("host", gameID)
	require.NoError(t, err)
	require.Equal(t, saved.SeatOf("host"), seat)
	require.Equal(t, 1, m.ActiveGames())
	require.NotEqual(t, oldCode, resumed.JoinCode(), "a resumed room gets a fresh join code")

	state := resumed.State()
	require.True(t, state.Players[seat].Connected)
	require.NotEqual(t, game.PhaseWaiting, state.Phase)
}

func TestManagerRejoinRejectsStranger(t *testing.T) {
	m, _, _ := testManager(t, quartz.NewMock(t))

	room, _, err := m.CreateGame("host", "Hana", CreateGameData{})
	require.NoError(t, err)

	_, _, err = m.RejoinGame("stranger", room.ID())
	require.Error(t, err)

	_, _, err = m.RejoinGame("host", "nonexistent-id")
	require.Error(t, err)
}

func TestManagerEndGameRetiresRoom(t *testing.T) {
	ctx := context.Background()
	clk := quartz.NewMock(t)
	m, _, _ := testManager(t, clk)
	cfg := testConfig()

	_, _, err := m.CreateGame("host", "Hana", CreateGameData{MaxCardsPerPlayer: 1})
	require.NoError(t, err)
	require.NoError(t, m.AddBot("host", AddBotData{}))
	require.NoError(t, m.StartGame("host"))

	// One-card stanzas: a bid and a card per seat reach the summary
	room, err := m.RoomFor("host")
	require.NoError(t, err)
	for i := 0; i < 100 && room.State().Phase != game.PhaseStanzaEnd; i++ {
		state := room.State()
		switch state.Phase {
		case game.PhaseBidding, game.PhasePlaying:
			seat := state.Stanza.CurrentPlayerIndex
			if state.Players[seat].IsAI() {
				clk.Advance(cfg.AIMoveDelay()).MustWait(ctx)
			} else if state.Phase == game.PhaseBidding {
				require.NoError(t, m.PlaceBid("host", state.ValidBidsFor(seat)[0]))
			} else {
				card := state.ValidCardsFor(seat)[0]
				called := state.WhoopieCallRequired(seat, card)
				require.NoError(t, m.PlayCard("host", card.Code(), called))
			}
		case game.PhaseTrickEnd:
			clk.Advance(cfg.TrickDisplay()).MustWait(ctx)
		}
	}
	require.Equal(t, game.PhaseStanzaEnd, room.State().Phase)

	require.NoError(t, m.EndGame("host"))
	require.True(t, room.Finished())
	require.Equal(t, 0, m.ActiveGames())
	require.ErrorIs(t, m.Continue("host"), ErrNotInGame)
}

func TestManagerLeaveGame(t *testing.T) {
	m, _, _ := testManager(t, quartz.NewMock(t))

	room, _, err := m.CreateGame("host", "Hana", CreateGameData{})
	require.NoError(t, err)
	_, _, err = m.JoinGame("p2", "Ben", room.JoinCode())
	require.NoError(t, err)

	require.NoError(t, m.LeaveGame("p2"))
	require.ErrorIs(t, m.PlaceBid("p2", 0), ErrNotInGame)
	require.Equal(t, 1, m.ActiveGames())

	// The last player leaving empties the room out of the registry
	require.NoError(t, m.LeaveGame("host"))
	require.Equal(t, 0, m.ActiveGames())
}

func TestManagerRemoveSeatNotifiesEjectedPlayer(t *testing.T) {
	m, sender, _ := testManager(t, quartz.NewMock(t))

	room, _, err := m.CreateGame("host", "Hana", CreateGameData{})
	require.NoError(t, err)
	_, seat, err := m.JoinGame("p2", "Ben", room.JoinCode())
	require.NoError(t, err)

	require.NoError(t, m.RemoveSeat("host", seat))
	require.ErrorIs(t, m.PlaceBid("p2", 0), ErrNotInGame)
	require.NotEmpty(t, sender.messagesOf("p2", MessageTypeGameLeft))
}

func TestManagerShutdownPausesRooms(t *testing.T) {
	clk := quartz.NewMock(t)
	m, _, st := testManager(t, clk)

	room1, _, err := m.CreateGame("h1", "Hana", CreateGameData{})
	require.NoError(t, err)
	require.NoError(t, m.AddBot("h1", AddBotData{}))
	require.NoError(t, m.StartGame("h1"))

	room2, _, err := m.CreateGame("h2", "Ben", CreateGameData{})
	require.NoError(t, err)

	m.Shutdown()
	require.Equal(t, 0, m.ActiveGames())
	require.True(t, room1.Paused())
	require.True(t, room2.Paused())

	_, err = st.LoadGame(room1.ID())
	require.NoError(t, err)
}
