package store

import (
	"encoding/json"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/whoopiegame/whoopie/internal/game"
)

// midGame drives a fresh game into the bidding phase so snapshots carry
// hands, bids and trump state.
func midGame(t *testing.T, id string) (*game.GameState, []game.GameEvent) {
	t.Helper()
	e := game.NewEngine(rand.New(rand.NewSource(99)), nil)

	g, events := e.NewGame(id, game.NewHuman("p0", "Ann"), game.DefaultSettings())

	g, evs, err := e.AddPlayer(g, game.NewHuman("p1", "Ben"))
	require.NoError(t, err)
	events = append(events, evs...)

	g, evs, err = e.AddPlayer(g, game.NewAI("bot1", "Rosie", game.DifficultyEasy))
	require.NoError(t, err)
	events = append(events, evs...)

	g, evs, err = e.StartGame(g)
	require.NoError(t, err)
	events = append(events, evs...)

	seat := g.Stanza.CurrentPlayerIndex
	g, evs, err = e.PlaceBid(g, seat, g.ValidBidsFor(seat)[0])
	require.NoError(t, err)
	events = append(events, evs...)

	return g, events
}

func TestSaveAndLoadGame(t *testing.T) {
	s, err := New(t.TempDir(), nil)
	require.NoError(t, err)

	g, _ := midGame(t, "01h5n0et5q6mt3v7ms1234abcd")
	require.NoError(t, s.SaveGame(g))

	loaded, err := s.LoadGame(g.ID)
	require.NoError(t, err)
	require.Equal(t, g.ID, loaded.ID)
	require.Equal(t, g.Phase, loaded.Phase)
	require.Len(t, loaded.Players, 3)
	require.NotNil(t, loaded.Stanza)

	// The snapshot must survive a full round trip bit for bit.
	want, err := json.Marshal(g)
	require.NoError(t, err)
	got, err := json.Marshal(loaded)
	require.NoError(t, err)
	require.JSONEq(t, string(want), string(got))
}

func TestSaveGameOverwrites(t *testing.T) {
	s, err := New(t.TempDir(), nil)
	require.NoError(t, err)

	g, _ := midGame(t, "01h5n0et5q6mt3v7ms1234abcd")
	require.NoError(t, s.SaveGame(g))

	e := game.NewEngine(rand.New(rand.NewSource(1)), nil)
	seat := g.Stanza.CurrentPlayerIndex
	g2, _, err := e.PlaceBid(g, seat, g.ValidBidsFor(seat)[0])
	require.NoError(t, err)
	require.NoError(t, s.SaveGame(g2))

	loaded, err := s.LoadGame(g.ID)
	require.NoError(t, err)
	require.Equal(t, g2.Stanza.BidTotal(), loaded.Stanza.BidTotal())
}

func TestSaveGameRequiresID(t *testing.T) {
	s, err := New(t.TempDir(), nil)
	require.NoError(t, err)

	require.Error(t, s.SaveGame(&game.GameState{}))
}

func TestLoadGameNotFound(t *testing.T) {
	s, err := New(t.TempDir(), nil)
	require.NoError(t, err)

	_, err = s.LoadGame("missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteGame(t *testing.T) {
	s, err := New(t.TempDir(), nil)
	require.NoError(t, err)

	g, _ := midGame(t, "01h5n0et5q6mt3v7ms1234abcd")
	require.NoError(t, s.SaveGame(g))
	require.NoError(t, s.DeleteGame(g.ID))

	_, err = s.LoadGame(g.ID)
	require.ErrorIs(t, err, ErrNotFound)

	require.ErrorIs(t, s.DeleteGame(g.ID), ErrNotFound)
}

func TestListGames(t *testing.T) {
	s, err := New(t.TempDir(), nil)
	require.NoError(t, err)

	ids, err := s.ListGames()
	require.NoError(t, err)
	require.Empty(t, ids)

	a, _ := midGame(t, "01h5n0et5q6mt3v7ms1234aaaa")
	b, _ := midGame(t, "01h5n0et5q6mt3v7ms1234bbbb")
	require.NoError(t, s.SaveGame(a))
	require.NoError(t, s.SaveGame(b))

	// Journals must not show up as games.
	_, events := midGame(t, "ignored")
	require.NoError(t, s.AppendEvents(a.ID, events))

	ids, err = s.ListGames()
	require.NoError(t, err)
	require.ElementsMatch(t, []string{a.ID, b.ID}, ids)
}

func TestAppendAndReadEvents(t *testing.T) {
	s, err := New(t.TempDir(), nil)
	require.NoError(t, err)

	g, events := midGame(t, "01h5n0et5q6mt3v7ms1234abcd")
	require.NoError(t, s.AppendEvents(g.ID, events))

	records, err := s.ReadEvents(g.ID)
	require.NoError(t, err)
	require.Len(t, records, len(events))

	for i, record := range records {
		require.Equal(t, events[i].EventType(), record.Type)
		require.False(t, record.Timestamp.IsZero())
		require.NotEmpty(t, record.Data)
	}

	// The first record is the host taking seat 0.
	require.Equal(t, game.EventTypePlayerJoined, records[0].Type)
	var joined game.PlayerJoinedEvent
	require.NoError(t, json.Unmarshal(records[0].Data, &joined))
	require.Equal(t, "p0", joined.Player.ID)
	require.Equal(t, 0, joined.Seat)

	// Appends accumulate in order.
	require.NoError(t, s.AppendEvents(g.ID, events[:2]))
	records, err = s.ReadEvents(g.ID)
	require.NoError(t, err)
	require.Len(t, records, len(events)+2)
}

func TestReadEventsNoJournal(t *testing.T) {
	s, err := New(t.TempDir(), nil)
	require.NoError(t, err)

	records, err := s.ReadEvents("nothing")
	require.NoError(t, err)
	require.Empty(t, records)
}

func TestAppendEventsEmptyBatch(t *testing.T) {
	s, err := New(t.TempDir(), nil)
	require.NoError(t, err)

	require.NoError(t, s.AppendEvents("g", nil))
	records, err := s.ReadEvents("g")
	require.NoError(t, err)
	require.Empty(t, records)
}
