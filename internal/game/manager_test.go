package game

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/vida-loka-sim/config"
	"github.com/user/vida-loka-sim/internal/clock"
	"github.com/user/vida-loka-sim/internal/storage"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Game.StatePath = filepath.Join(t.TempDir(), "game_state.json")
	return cfg
}

func TestStartSession(t *testing.T) {
	// Setup
	cfg := testConfig(t)
	gameManager := NewGameManager(cfg, WithClock(clock.NewManual(time.Unix(0, 0))))

	// Test case 1: Start a new session
	session, err := gameManager.StartSession("  Ana ", "Surfer")
	require.NoError(t, err)
	require.NotNil(t, session)

	snap := session.Snapshot()
	assert.NotEmpty(t, snap.ID)
	assert.Equal(t, "Ana", snap.PlayerName)
	assert.Equal(t, "Surfer", snap.CharacterName)
	assert.Equal(t, cfg.Game.Defaults.Health, snap.Stats.Health)
	assert.Equal(t, cfg.Game.Defaults.Money, snap.Stats.Money)
	assert.Equal(t, 1, snap.Stats.Level)

	// Test case 2: Blank player name
	_, err = gameManager.StartSession("   ", "Surfer")
	assert.ErrorIs(t, err, ErrInvalidPlayerArg)

	// Test case 3: Get started session
	retrieved, err := gameManager.GetSession(session.ID())
	require.NoError(t, err)
	assert.Equal(t, session.ID(), retrieved.ID())

	// Test case 4: Unknown session
	_, err = gameManager.GetSession("nope")
	assert.True(t, IsNotFound(err))
}

func TestEndSession(t *testing.T) {
	cfg := testConfig(t)
	gameManager := NewGameManager(cfg, WithClock(clock.NewManual(time.Unix(0, 0))))

	session, err := gameManager.StartSession("Ana", "")
	require.NoError(t, err)

	require.NoError(t, gameManager.EndSession(session.ID()))
	_, err = gameManager.GetSession(session.ID())
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, session.Enter(LocationHome, nil), ErrSessionNotFound)

	assert.ErrorIs(t, gameManager.EndSession(session.ID()), ErrSessionNotFound)

	// Ended sessions do not come back after a restart
	reloaded := NewGameManager(cfg)
	_, err = reloaded.GetSession(session.ID())
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSessionRestoredAfterRestart(t *testing.T) {
	cfg := testConfig(t)
	store := storage.NewMemoryVisitedStore()
	clk := clock.NewManual(time.Unix(0, 0))

	first := NewGameManager(cfg, WithClock(clk), WithVisitedStore(store))
	first.SetFastForward(true)
	session, err := first.StartSession("Ana", "Surfer")
	require.NoError(t, err)
	require.NoError(t, session.Enter(LocationHome, nil))
	_, err = session.PerformActivity("sleep")
	require.NoError(t, err)
	want := session.Snapshot()

	second := NewGameManager(cfg, WithClock(clk), WithVisitedStore(store))
	restored, err := second.GetSession(session.ID())
	require.NoError(t, err)

	got := restored.Snapshot()
	assert.Equal(t, want.Stats, got.Stats)
	assert.Equal(t, []string{LocationHome}, got.Visited)
	assert.Equal(t, "Ana", got.PlayerName)
	assert.Equal(t, "", got.Location)
	assert.True(t, got.Stats.Tasks["home-sleep"].Completed)

	again, err := second.GetSession(session.ID())
	require.NoError(t, err)
	assert.Same(t, restored, again)
}

func TestSetFastForwardRestartsDecay(t *testing.T) {
	cfg := testConfig(t)
	clk := clock.NewManual(time.Unix(0, 0))
	gameManager := NewGameManager(cfg, WithClock(clk))

	session, err := gameManager.StartSession("Ana", "")
	require.NoError(t, err)
	require.NoError(t, session.Enter(LocationHome, nil))
	assert.False(t, gameManager.FastForward())

	gameManager.SetFastForward(true)
	assert.True(t, gameManager.FastForward())
	assert.True(t, session.Snapshot().FastForward)

	clk.Advance(5 * time.Second)
	assert.Equal(t, 78.0, session.Snapshot().Stats.Health)

	gameManager.SetFastForward(false)
	clk.Advance(10 * time.Second)
	assert.Equal(t, 78.0, session.Snapshot().Stats.Health)
	clk.Advance(5 * time.Second)
	assert.Equal(t, 76.0, session.Snapshot().Stats.Health)
}

func TestSetFastForwardKeepsRunningActivitySteps(t *testing.T) {
	clk := clock.NewManual(time.Unix(0, 0))
	gameManager := NewGameManager(testConfig(t), WithClock(clk))

	session, err := gameManager.StartSession("Ana", "")
	require.NoError(t, err)
	require.NoError(t, session.Enter(LocationHome, nil))
	started, err := session.PerformActivity("sleep")
	require.NoError(t, err)
	require.True(t, started)

	clk.Advance(time.Second)
	gameManager.SetFastForward(true)

	steps := 1
	for session.Snapshot().Activity.State == "running" && steps < 20 {
		clk.Advance(time.Second)
		steps++
	}
	assert.Equal(t, 10, steps)
	assert.Equal(t, "idle", session.Snapshot().Activity.State)
	assert.Equal(t, 1.0, session.Snapshot().Stats.Experience)
}

func TestShutdownSavesSessions(t *testing.T) {
	cfg := testConfig(t)
	clk := clock.NewManual(time.Unix(0, 0))
	gameManager := NewGameManager(cfg, WithClock(clk))

	session, err := gameManager.StartSession("Ana", "")
	require.NoError(t, err)
	require.NoError(t, session.Enter(LocationHome, nil))
	clk.Advance(15 * time.Second)

	gameManager.Shutdown()
	assert.Equal(t, 0, clk.Pending())

	reloaded := NewGameManager(cfg)
	restored, err := reloaded.GetSession(session.ID())
	require.NoError(t, err)
	assert.Equal(t, 78.0, restored.Snapshot().Stats.Health)
}

func TestLocationsAndProgress(t *testing.T) {
	gameManager := NewGameManager(testConfig(t), WithClock(clock.NewManual(time.Unix(0, 0))))

	locations := gameManager.Locations()
	require.Len(t, locations, 6)
	assert.Equal(t, LocationBeach, locations[0].ID)

	session, err := gameManager.StartSession("Ana", "")
	require.NoError(t, err)
	require.NoError(t, session.ToggleTask(TaskKey(LocationField, "kite")))

	progress, err := gameManager.Progress(session.ID())
	require.NoError(t, err)
	require.Len(t, progress, 5)
	for _, p := range progress {
		if p.Location == LocationField {
			assert.Equal(t, 1, p.BonusCompleted)
			assert.Equal(t, 1, p.Completed)
		} else {
			assert.Equal(t, 0, p.Completed)
		}
	}
}
