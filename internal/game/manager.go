package game

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/user/vida-loka-sim/config"
	"github.com/user/vida-loka-sim/internal/clock"
	"github.com/user/vida-loka-sim/internal/interfaces"
	"github.com/user/vida-loka-sim/internal/types"
	"go.uber.org/zap"
)

// AudioFactory builds the audio port of a session
type AudioFactory func(sessionID string) interfaces.AudioPort

// GameManager owns the live sessions, the shared speed mode and the saved
// snapshots of every session
type GameManager struct {
	sessions     map[string]*Session
	sessionsLock sync.RWMutex

	state     *types.GameState
	stateLock sync.Mutex
	storage   *GameStateStorage

	config  config.Config
	Logger  *zap.Logger
	catalog *Catalog
	clock   clock.Clock
	speed   *SpeedMode
	visited interfaces.VisitedStore
	audio   AudioFactory
}

// Ensure GameManager satifies the interfaces.GameManager interface
var _ interfaces.GameManager = (*GameManager)(nil)

// ManagerOption customizes a GameManager
type ManagerOption func(*GameManager)

// WithClock replaces the wall clock, mostly for tests
func WithClock(c clock.Clock) ManagerOption {
	return func(gm *GameManager) { gm.clock = c }
}

// WithCatalog replaces the built-in catalog
func WithCatalog(c *Catalog) ManagerOption {
	return func(gm *GameManager) { gm.catalog = c }
}

// WithVisitedStore sets the store of visited locations
func WithVisitedStore(store interfaces.VisitedStore) ManagerOption {
	return func(gm *GameManager) { gm.visited = store }
}

// WithAudio sets the factory of per-session audio ports
func WithAudio(f AudioFactory) ManagerOption {
	return func(gm *GameManager) { gm.audio = f }
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) ManagerOption {
	return func(gm *GameManager) { gm.Logger = logger }
}

// NewGameManager creates a new game manager
func NewGameManager(cfg config.Config, opts ...ManagerOption) *GameManager {
	gm := &GameManager{
		sessions: make(map[string]*Session),
		storage:  NewGameStateStorage(cfg.Game.StatePath),
		config:   cfg,
		Logger:   zap.NewNop(),
		clock:    clock.New(),
		speed:    NewSpeedMode(false),
	}
	for _, opt := range opts {
		opt(gm)
	}
	if gm.catalog == nil {
		gm.catalog = DefaultCatalog()
	}

	// Try to load existing state
	state, err := gm.storage.LoadGameState()
	if err != nil {
		gm.Logger.Error("Failed to load game state, starting empty", zap.Error(err))
		state = &types.GameState{
			Sessions: make(map[string]*types.SessionSnapshot),
		}
	}
	gm.state = state

	return gm
}

// SetLogger replaces the logger
func (gm *GameManager) SetLogger(logger *zap.Logger) {
	gm.Logger = logger
}

// persist records a session snapshot and saves the game state
func (gm *GameManager) persist(snap types.SessionSnapshot) {
	gm.stateLock.Lock()
	defer gm.stateLock.Unlock()

	gm.state.Sessions[snap.ID] = &snap
	if err := gm.storage.SaveGameState(gm.state); err != nil {
		gm.Logger.Error("Failed to save game state",
			zap.String("session_id", snap.ID),
			zap.Error(err))
	}
}

func (gm *GameManager) newSession(id, playerName, characterName string) *Session {
	var audio interfaces.AudioPort
	if gm.audio != nil {
		audio = gm.audio(id)
	}
	return NewSession(SessionOptions{
		ID:            id,
		PlayerName:    playerName,
		CharacterName: characterName,
		Catalog:       gm.catalog,
		Config:        gm.config.Game,
		Clock:         gm.clock,
		Speed:         gm.speed,
		Audio:         audio,
		Visited:       gm.visited,
		Logger:        gm.Logger,
		OnPersist:     gm.persist,
	})
}

// StartSession begins a new game for a player with fresh default stats
func (gm *GameManager) StartSession(playerName, characterName string) (interfaces.GameSession, error) {
	playerName = strings.TrimSpace(playerName)
	if playerName == "" {
		return nil, ErrInvalidPlayerArg
	}

	id := uuid.New().String()
	session := gm.newSession(id, playerName, strings.TrimSpace(characterName))

	gm.sessionsLock.Lock()
	gm.sessions[id] = session
	gm.sessionsLock.Unlock()

	gm.persist(session.Snapshot())

	gm.Logger.Info("Session started",
		zap.String("session_id", id),
		zap.String("player", playerName),
		zap.String("character", characterName))

	return session, nil
}

// GetSession returns a live session, restoring it from the saved state when
// the process restarted since it was last used
func (gm *GameManager) GetSession(id string) (interfaces.GameSession, error) {
	session, err := gm.session(id)
	if err != nil {
		return nil, err
	}
	return session, nil
}

func (gm *GameManager) session(id string) (*Session, error) {
	gm.sessionsLock.RLock()
	session, exists := gm.sessions[id]
	gm.sessionsLock.RUnlock()
	if exists {
		return session, nil
	}

	gm.stateLock.Lock()
	snap, saved := gm.state.Sessions[id]
	gm.stateLock.Unlock()
	if !saved {
		return nil, ErrSessionNotFound
	}

	restored := gm.newSession(id, snap.PlayerName, snap.CharacterName)
	restored.restore(snap)

	gm.sessionsLock.Lock()
	defer gm.sessionsLock.Unlock()
	if existing, ok := gm.sessions[id]; ok {
		// Lost a race with another restore
		return existing, nil
	}
	gm.sessions[id] = restored

	gm.Logger.Info("Session restored", zap.String("session_id", id))
	return restored, nil
}

// EndSession discards a session, as when the player returns to the main menu
func (gm *GameManager) EndSession(id string) error {
	gm.sessionsLock.Lock()
	session, exists := gm.sessions[id]
	delete(gm.sessions, id)
	gm.sessionsLock.Unlock()

	gm.stateLock.Lock()
	_, saved := gm.state.Sessions[id]
	delete(gm.state.Sessions, id)
	var saveErr error
	if saved {
		saveErr = gm.storage.SaveGameState(gm.state)
	}
	gm.stateLock.Unlock()

	if !exists && !saved {
		return ErrSessionNotFound
	}
	if exists {
		session.Close()
	}
	if saveErr != nil {
		return fmt.Errorf("failed to save game state: %w", saveErr)
	}

	gm.Logger.Info("Session ended", zap.String("session_id", id))
	return nil
}

// SetFastForward toggles the speed mode and reschedules the decay timers
func (gm *GameManager) SetFastForward(enabled bool) {
	if !gm.speed.Set(enabled) {
		return
	}

	gm.Logger.Info("Speed mode changed", zap.Bool("fast_forward", enabled))
	for _, session := range gm.liveSessions() {
		session.SpeedChanged()
	}
}

// FastForward reports the speed mode
func (gm *GameManager) FastForward() bool {
	return gm.speed.FastForward()
}

// DefaultStats returns the stat record a fresh game starts with
func (gm *GameManager) DefaultStats() types.StatRecord {
	return DefaultStats(gm.config.Game.Defaults)
}

// SaveSession writes the current snapshot of a live session to the game state
func (gm *GameManager) SaveSession(id string) error {
	session, err := gm.session(id)
	if err != nil {
		return err
	}
	gm.persist(session.Snapshot())
	return nil
}

// Locations returns the catalog locations
func (gm *GameManager) Locations() []*types.Location {
	return gm.catalog.Locations()
}

// Catalog returns the game catalog
func (gm *GameManager) Catalog() *Catalog {
	return gm.catalog
}

// Progress returns the quest log of a session
func (gm *GameManager) Progress(id string) ([]TaskProgress, error) {
	session, err := gm.session(id)
	if err != nil {
		return nil, err
	}
	return session.Progress(), nil
}

func (gm *GameManager) liveSessions() []*Session {
	gm.sessionsLock.RLock()
	defer gm.sessionsLock.RUnlock()

	ids := make([]string, 0, len(gm.sessions))
	for id := range gm.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	sessions := make([]*Session, 0, len(ids))
	for _, id := range ids {
		sessions = append(sessions, gm.sessions[id])
	}
	return sessions
}

// Shutdown stops every live session and saves their state
func (gm *GameManager) Shutdown() {
	for _, session := range gm.liveSessions() {
		gm.persist(session.Snapshot())
		session.Close()
	}
	gm.Logger.Info("Game manager stopped")
}

// IsNotFound reports whether err means the session does not exist
func IsNotFound(err error) bool {
	return errors.Is(err, ErrSessionNotFound)
}
