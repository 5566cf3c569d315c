// Package store persists game snapshots and per-game event journals
// under a data directory. Snapshots are whole-state JSON files written
// atomically, so a crash never leaves a truncated game on disk; the
// journal is an append-only JSON-lines file per game.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/whoopiegame/whoopie/internal/fileutil"
	"github.com/whoopiegame/whoopie/internal/game"
)

// ErrNotFound is returned when no snapshot exists for a game id
var ErrNotFound = errors.New("game not found")

const (
	snapshotSuffix = ".json"
	journalSuffix  = ".events.jsonl"
	filePerm       = 0o644
	dirPerm        = 0o755
)

// EventRecord is one journal line: the event's type and timestamp
// wrapped around its JSON body
type EventRecord struct {
	Type      game.EventType  `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// Store reads and writes game state under a single data directory
type Store struct {
	gamesDir string
	logger   *log.Logger
}

// New creates a store rooted at dir, creating the games directory if
// needed. A nil logger discards all output.
func New(dir string, logger *log.Logger) (*Store, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}

	gamesDir := filepath.Join(dir, "games")
	if err := os.MkdirAll(gamesDir, dirPerm); err != nil {
		return nil, fmt.Errorf("failed to create games directory: %w", err)
	}

	return &Store{gamesDir: gamesDir, logger: logger}, nil
}

// SaveGame writes a snapshot of the game, replacing any previous one
func (s *Store) SaveGame(g *game.GameState) error {
	if g.ID == "" {
		return errors.New("cannot save a game without an id")
	}

	data, err := json.MarshalIndent(g, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal game %s: %w", g.ID, err)
	}

	path := s.snapshotPath(g.ID)
	if err := fileutil.WriteFileAtomic(path, data, filePerm); err != nil {
		return fmt.Errorf("failed to save game %s: %w", g.ID, err)
	}

	s.logger.Debug("Game saved", "gameID", g.ID, "phase", g.Phase, "bytes", len(data))
	return nil
}

// LoadGame reads a game snapshot by id
func (s *Store) LoadGame(id string) (*game.GameState, error) {
	data, err := os.ReadFile(s.snapshotPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to read game %s: %w", id, err)
	}

	var g game.GameState
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("failed to unmarshal game %s: %w", id, err)
	}

	s.logger.Debug("Game loaded", "gameID", id, "phase", g.Phase)
	return &g, nil
}

// DeleteGame removes a game's snapshot. The journal is kept: finished
// games stay replayable.
func (s *Store) DeleteGame(id string) error {
	err := os.Remove(s.snapshotPath(id))
	if os.IsNotExist(err) {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("failed to delete game %s: %w", id, err)
	}

	s.logger.Debug("Game deleted", "gameID", id)
	return nil
}

// ListGames returns the ids of all stored snapshots
func (s *Store) ListGames() ([]string, error) {
	entries, err := os.ReadDir(s.gamesDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read games directory: %w", err)
	}

	var ids []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, snapshotSuffix) {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, snapshotSuffix))
	}
	return ids, nil
}

// AppendEvents appends one command's event batch to the game's journal,
// in order
func (s *Store) AppendEvents(gameID string, events []game.GameEvent) error {
	if len(events) == 0 {
		return nil
	}

	path := s.journalPath(gameID)
	for _, event := range events {
		body, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("failed to marshal %s event: %w", event.EventType(), err)
		}
		record := EventRecord{
			Type:      event.EventType(),
			Timestamp: event.Timestamp(),
			Data:      body,
		}
		line, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("failed to marshal %s record: %w", event.EventType(), err)
		}
		if err := fileutil.AppendLine(path, line, filePerm); err != nil {
			return fmt.Errorf("failed to journal %s event for game %s: %w", event.EventType(), gameID, err)
		}
	}

	s.logger.Debug("Events journaled", "gameID", gameID, "count", len(events))
	return nil
}

// ReadEvents returns a game's full journal in append order. A game with
// no journal yields an empty slice.
func (s *Store) ReadEvents(gameID string) ([]EventRecord, error) {
	data, err := os.ReadFile(s.journalPath(gameID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read journal for game %s: %w", gameID, err)
	}

	var records []EventRecord
	for i, line := range strings.Split(strings.TrimRight(string(data), "\n"), "\n") {
		if line == "" {
			continue
		}
		var record EventRecord
		if err := json.Unmarshal([]byte(line), &record); err != nil {
			return nil, fmt.Errorf("corrupt journal line %d for game %s: %w", i+1, gameID, err)
		}
		records = append(records, record)
	}
	return records, nil
}

func (s *Store) snapshotPath(id string) string {
	return filepath.Join(s.gamesDir, id+snapshotSuffix)
}

func (s *Store) journalPath(id string) string {
	return filepath.Join(s.gamesDir, id+journalSuffix)
}
