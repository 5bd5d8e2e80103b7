package interfaces

import (
	"context"

	"github.com/user/vida-loka-sim/internal/types"
)

// AudioPort receives the sound cues of the game; playback is up to the implementation
type AudioPort interface {
	PlaySound(name string)
	StartAmbientLoop()
	StopAmbientLoop()
}

// VisitedStore persists the set of visited locations under a key
type VisitedStore interface {
	LoadVisited(ctx context.Context, key string) ([]string, error)
	SaveVisited(ctx context.Context, key string, locations []string) error
}

// GameSession defines the operations available on a single play session
type GameSession interface {
	ID() string
	Enter(location string, handoff *types.Handoff) error
	Leave() (*types.Handoff, error)
	PerformActivity(activityKey string) (bool, error)
	UseItem(name string) (bool, error)
	ToggleTask(key string) error
	Move(x, y float64) (*types.Prompt, error)
	NewGame() error
	Snapshot() types.SessionSnapshot
	Summary() (*types.GameOverSummary, bool)
	Subscribe() (<-chan types.Event, func())
}

// GameManager defines the interface for game operations
type GameManager interface {
	StartSession(playerName, characterName string) (GameSession, error)
	GetSession(id string) (GameSession, error)
	EndSession(id string) error
	SetFastForward(enabled bool)
	FastForward() bool
	Locations() []*types.Location
}
