package game

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/user/vida-loka-sim/internal/types"
)

// GameStateStorage handles persistence of session snapshots
type GameStateStorage struct {
	savePath  string
	stateLock sync.RWMutex
}

// NewGameStateStorage creates a new game state storage
func NewGameStateStorage(savePath string) *GameStateStorage {
	// Create data directory if it doesn't exist
	dir := filepath.Dir(savePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		// If we can't create the directory, we'll just use the default path
		savePath = "./data/game_state.json"
	}

	return &GameStateStorage{
		savePath: savePath,
	}
}

// SaveGameState saves the game state to disk
func (gss *GameStateStorage) SaveGameState(state *types.GameState) error {
	gss.stateLock.Lock()
	defer gss.stateLock.Unlock()

	// Create directory if it doesn't exist
	dir := filepath.Dir(gss.savePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal game state: %w", err)
	}

	// Replace the file atomically
	tmp := gss.savePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write game state: %w", err)
	}
	if err := os.Rename(tmp, gss.savePath); err != nil {
		return fmt.Errorf("failed to write game state: %w", err)
	}

	return nil
}

// LoadGameState loads the game state from disk
func (gss *GameStateStorage) LoadGameState() (*types.GameState, error) {
	gss.stateLock.RLock()
	defer gss.stateLock.RUnlock()

	// Return empty state if file doesn't exist
	if _, err := os.Stat(gss.savePath); os.IsNotExist(err) {
		return &types.GameState{
			Sessions: make(map[string]*types.SessionSnapshot),
		}, nil
	}

	data, err := os.ReadFile(gss.savePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read game state file: %w", err)
	}

	var state types.GameState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to parse game state: %w", err)
	}

	if state.Sessions == nil {
		state.Sessions = make(map[string]*types.SessionSnapshot)
	}

	// Drop entries a hand edit may have nulled out
	for id, snap := range state.Sessions {
		if snap == nil {
			delete(state.Sessions, id)
		}
	}

	return &state, nil
}
