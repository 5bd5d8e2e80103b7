package game

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/user/vida-loka-sim/config"
	"github.com/user/vida-loka-sim/internal/clock"
	"github.com/user/vida-loka-sim/internal/interfaces"
	"github.com/user/vida-loka-sim/internal/storage"
	"github.com/user/vida-loka-sim/internal/types"
)

// MockAudio is a mock implementation of interfaces.AudioPort
type MockAudio struct {
	mock.Mock
}

func (m *MockAudio) PlaySound(name string) {
	m.Called(name)
}

func (m *MockAudio) StartAmbientLoop() {
	m.Called()
}

func (m *MockAudio) StopAmbientLoop() {
	m.Called()
}

func newTestSession(fast bool, audio interfaces.AudioPort, store interfaces.VisitedStore) (*Session, *clock.Manual) {
	clk := clock.NewManual(time.Unix(0, 0))
	s := NewSession(SessionOptions{
		ID:            "s1",
		PlayerName:    "Ana",
		CharacterName: "Surfer",
		Catalog:       DefaultCatalog(),
		Config:        config.DefaultConfig().Game,
		Clock:         clk,
		Speed:         NewSpeedMode(fast),
		Audio:         audio,
		Visited:       store,
	})
	return s, clk
}

func handoffWith(modify func(rec *types.StatRecord)) *types.Handoff {
	rec := defaultStats()
	modify(&rec)
	return &types.Handoff{PlayerName: "Ana", CharacterName: "Surfer", Stats: rec}
}

func drain(ch <-chan types.Event) []types.Event {
	var events []types.Event
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return events
			}
			events = append(events, ev)
		default:
			return events
		}
	}
}

func kinds(events []types.Event) []string {
	out := make([]string, 0, len(events))
	for _, ev := range events {
		out = append(out, ev.Kind)
	}
	return out
}

func TestNewSessionStartsOutside(t *testing.T) {
	s, _ := newTestSession(false, nil, nil)

	snap := s.Snapshot()
	assert.Equal(t, "s1", snap.ID)
	assert.Equal(t, "", snap.Location)
	assert.Equal(t, defaultStats(), snap.Stats)
	assert.False(t, snap.GameOver)
	assert.Equal(t, "idle", snap.Activity.State)

	_, err := s.PerformActivity("sleep")
	assert.ErrorIs(t, err, ErrNotInLocation)
	_, err = s.Leave()
	assert.ErrorIs(t, err, ErrNotInLocation)
}

func TestGameOverByDecay(t *testing.T) {
	audio := new(MockAudio)
	audio.On("StartAmbientLoop").Return().Once()
	audio.On("StopAmbientLoop").Return().Once()
	audio.On("PlaySound", SoundGameOver).Return().Once()

	s, clk := newTestSession(false, audio, nil)
	events, cancel := s.Subscribe()
	defer cancel()

	require.NoError(t, s.Enter(LocationHome, handoffWith(func(rec *types.StatRecord) {
		rec.Health = 2
	})))
	assert.False(t, s.GameOver())

	clk.Advance(15 * time.Second)

	assert.True(t, s.GameOver())
	assert.Equal(t, 0.0, s.Snapshot().Stats.Health)
	assert.Equal(t, 0, clk.Pending())
	assert.Contains(t, kinds(drain(events)), types.EventGameOver)

	summary, ok := s.Summary()
	require.True(t, ok)
	assert.Equal(t, Expression(summary.FinalScore), summary.Expression)

	_, err := s.PerformActivity("sleep")
	assert.ErrorIs(t, err, ErrGameOver)
	_, err = s.UseItem("Takeaway")
	assert.ErrorIs(t, err, ErrGameOver)
	assert.ErrorIs(t, s.ToggleTask("home-tv"), ErrGameOver)
	_, err = s.Move(10, 10)
	assert.ErrorIs(t, err, ErrGameOver)

	// No further decay once over
	clk.Advance(time.Minute)
	assert.Equal(t, 0.0, s.Snapshot().Stats.Health)

	audio.AssertExpectations(t)
}

func TestGameOverStopsRunningActivity(t *testing.T) {
	cfg := config.DefaultConfig().Game
	cfg.Activity.DurationMs = 60000
	clk := clock.NewManual(time.Unix(0, 0))
	s := NewSession(SessionOptions{
		ID:      "s1",
		Catalog: DefaultCatalog(),
		Config:  cfg,
		Clock:   clk,
		Speed:   NewSpeedMode(false),
	})

	require.NoError(t, s.Enter(LocationHome, handoffWith(func(rec *types.StatRecord) {
		rec.Health = 2
	})))
	started, err := s.PerformActivity("tv")
	require.NoError(t, err)
	require.True(t, started)

	clk.Advance(10 * time.Second)
	assert.Equal(t, "running", s.Snapshot().Activity.State)

	clk.Advance(5 * time.Second)
	require.True(t, s.GameOver())
	assert.Equal(t, 0, clk.Pending())
	assert.Equal(t, "idle", s.Snapshot().Activity.State)

	after := s.Snapshot().Stats
	clk.Advance(2 * time.Minute)
	assert.Equal(t, after.Happiness, s.Snapshot().Stats.Happiness)
	assert.Equal(t, after.Energy, s.Snapshot().Stats.Energy)
	assert.Equal(t, after.Experience, s.Snapshot().Stats.Experience)
}

func TestGameOverOnEnter(t *testing.T) {
	s, clk := newTestSession(false, nil, nil)

	require.NoError(t, s.Enter(LocationHome, handoffWith(func(rec *types.StatRecord) {
		rec.Health = 0
	})))

	assert.True(t, s.GameOver())
	assert.Equal(t, 0, clk.Pending())
	_, ok := s.Summary()
	assert.True(t, ok)
}

func TestLowStatsAreNotGameOver(t *testing.T) {
	s, _ := newTestSession(false, nil, nil)

	require.NoError(t, s.Enter(LocationHome, handoffWith(func(rec *types.StatRecord) {
		rec.Health = 1
		rec.Sleep = 1
	})))

	assert.False(t, s.GameOver())
	_, ok := s.Summary()
	assert.False(t, ok)
}

func TestFreshGameSleepFastForward(t *testing.T) {
	s, clk := newTestSession(true, nil, nil)
	require.NoError(t, s.Enter(LocationHome, nil))

	started, err := s.PerformActivity("sleep")
	require.NoError(t, err)
	assert.True(t, started)

	stats := s.Snapshot().Stats
	assert.Equal(t, 100.0, stats.Sleep)
	assert.Equal(t, 100.0, stats.Energy)
	assert.Equal(t, 100.0, stats.Health)
	assert.Equal(t, 65.0, stats.Happiness)
	assert.Equal(t, 1.0, stats.Experience)
	assert.True(t, stats.Tasks["home-sleep"].Completed)
	assert.False(t, stats.Tasks["home-tv"].Completed)
	assert.Len(t, stats.Tasks, 5)

	clk.Advance(time.Second)
	assert.Equal(t, "idle", s.Snapshot().Activity.State)
}

func TestActivityWhileBusyIsDropped(t *testing.T) {
	s, clk := newTestSession(false, nil, nil)
	require.NoError(t, s.Enter(LocationHome, nil))

	started, err := s.PerformActivity("sleep")
	require.NoError(t, err)
	assert.True(t, started)

	clk.Advance(3 * time.Second)
	started, err = s.PerformActivity("tv")
	require.NoError(t, err)
	assert.False(t, started)
	assert.False(t, s.Snapshot().Stats.Tasks["home-tv"].Completed)

	_, err = s.PerformActivity("juggling")
	assert.ErrorIs(t, err, ErrUnknownActivity)
}

func TestLevelUpFromCollectedItem(t *testing.T) {
	audio := new(MockAudio)
	audio.On("StartAmbientLoop").Return()
	audio.On("PlaySound", mock.Anything).Return()

	s, _ := newTestSession(true, audio, nil)
	events, cancel := s.Subscribe()
	defer cancel()

	require.NoError(t, s.Enter(LocationBeach, handoffWith(func(rec *types.StatRecord) {
		rec.Experience = 4
	})))
	drain(events)

	_, err := s.PerformActivity("shells")
	require.NoError(t, err)

	var levelUps []types.Event
	for _, ev := range drain(events) {
		if ev.Kind == types.EventLevelUp {
			levelUps = append(levelUps, ev)
		}
	}
	require.Len(t, levelUps, 1)
	assert.Equal(t, 1, levelUps[0].OldLevel)
	assert.Equal(t, 2, levelUps[0].NewLevel)
	assert.Equal(t, 2, s.Snapshot().Stats.Level)

	audio.AssertCalled(t, "PlaySound", SoundActivity)
	audio.AssertCalled(t, "PlaySound", SoundCollect)
	audio.AssertCalled(t, "PlaySound", SoundLevelUp)
	audio.AssertNotCalled(t, "PlaySound", SoundGameOver)
}

func TestPromptSuppressedWhileBusy(t *testing.T) {
	s, _ := newTestSession(false, nil, nil)
	require.NoError(t, s.Enter(LocationHome, nil))

	prompt, err := s.Move(10, 10)
	require.NoError(t, err)
	require.NotNil(t, prompt)
	assert.Equal(t, "bed", prompt.ZoneID)
	assert.Equal(t, "sleep", prompt.ActivityKey)
	assert.Equal(t, "Sleep", prompt.Activity)

	prompt, err = s.Move(1000, 1000)
	require.NoError(t, err)
	assert.Nil(t, prompt)

	_, err = s.PerformActivity("sleep")
	require.NoError(t, err)
	assert.Nil(t, s.Snapshot().Prompt)

	prompt, err = s.Move(10, 10)
	require.NoError(t, err)
	assert.Nil(t, prompt)
}

func TestUseTakeaway(t *testing.T) {
	s, clk := newTestSession(true, nil, nil)
	require.NoError(t, s.Enter(LocationRestaurant, handoffWith(func(rec *types.StatRecord) {
		rec.Energy = 10
		rec.Meal = 10
	})))

	_, err := s.PerformActivity("takeaway")
	require.NoError(t, err)
	clk.Advance(time.Second)

	stats := s.Snapshot().Stats
	assert.Equal(t, 85.0, stats.Money)
	require.Len(t, stats.Items, 1)
	assert.Equal(t, "Takeaway", stats.Items[0].Name)

	used, err := s.UseItem("Takeaway")
	require.NoError(t, err)
	assert.True(t, used)

	snap := s.Snapshot()
	assert.Equal(t, 35.0, snap.Stats.Energy)
	assert.Equal(t, 50.0, snap.Stats.Meal)
	assert.Empty(t, snap.Stats.Items)
	assert.Equal(t, []string{"Takeaway"}, snap.UsedItems)

	used, err = s.UseItem("Takeaway")
	require.NoError(t, err)
	assert.False(t, used)
}

func TestUseItemWithoutEffect(t *testing.T) {
	s, clk := newTestSession(true, nil, nil)
	require.NoError(t, s.Enter(LocationBeach, nil))
	_, err := s.PerformActivity("shells")
	require.NoError(t, err)
	clk.Advance(time.Second)

	used, err := s.UseItem("Seashell")
	require.NoError(t, err)
	assert.False(t, used)
	assert.Equal(t, 1, ItemCount(s.Snapshot().Stats))
	assert.Empty(t, s.Snapshot().UsedItems)
}

func TestVisitedLocations(t *testing.T) {
	store := storage.NewMemoryVisitedStore()
	s, _ := newTestSession(false, nil, store)

	require.NoError(t, s.Enter(LocationHome, nil))
	_, err := s.Leave()
	require.NoError(t, err)
	require.NoError(t, s.Enter(LocationMap, nil))
	require.NoError(t, s.Enter(LocationBeach, nil))
	require.NoError(t, s.Enter(LocationHome, nil))

	assert.Equal(t, []string{LocationHome, LocationBeach}, s.Snapshot().Visited)
	saved, err := store.LoadVisited(context.Background(), VisitedKey("s1"))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{LocationHome, LocationBeach}, saved)

	// A second session with the same ID merges the stored set
	other, _ := newTestSession(false, nil, store)
	require.NoError(t, other.Enter(LocationField, nil))
	assert.ElementsMatch(t, []string{LocationHome, LocationBeach, LocationField}, other.Snapshot().Visited)

	require.NoError(t, s.NewGame())
	snap := s.Snapshot()
	assert.Empty(t, snap.Visited)
	assert.Equal(t, "", snap.Location)
	assert.Equal(t, defaultStats(), snap.Stats)
	saved, err = store.LoadVisited(context.Background(), VisitedKey("s1"))
	require.NoError(t, err)
	assert.Empty(t, saved)
}

func TestNewGameLeavesGameOver(t *testing.T) {
	s, clk := newTestSession(false, nil, nil)
	require.NoError(t, s.Enter(LocationHome, handoffWith(func(rec *types.StatRecord) {
		rec.Sleep = 0
	})))
	require.True(t, s.GameOver())

	require.NoError(t, s.NewGame())
	assert.False(t, s.GameOver())
	_, ok := s.Summary()
	assert.False(t, ok)

	require.NoError(t, s.Enter(LocationHome, nil))
	assert.Equal(t, 1, clk.Pending())
}

func TestLeaveHandsOffState(t *testing.T) {
	s, clk := newTestSession(false, nil, nil)
	require.NoError(t, s.Enter(LocationMountain, nil))
	require.NoError(t, s.ToggleTask("mountain-photo"))

	handoff, err := s.Leave()
	require.NoError(t, err)
	assert.Equal(t, "Ana", handoff.PlayerName)
	assert.Equal(t, "Surfer", handoff.CharacterName)
	assert.Equal(t, LocationMountain, handoff.Stats.LastVisitedLocation)
	assert.True(t, handoff.Stats.Tasks["mountain-photo"].Completed)
	assert.Equal(t, 0, clk.Pending())

	// The handoff is a copy
	handoff.Stats.Tasks["mountain-photo"] = types.TaskState{}
	assert.True(t, s.Snapshot().Stats.Tasks["mountain-photo"].Completed)

	require.NoError(t, s.Enter(LocationHome, handoff))
	assert.False(t, s.Snapshot().Stats.Tasks["mountain-photo"].Completed)
}

func TestEnterUnknownLocation(t *testing.T) {
	s, clk := newTestSession(false, nil, nil)
	assert.ErrorIs(t, s.Enter("moon", nil), ErrUnknownLocation)
	assert.Equal(t, 0, clk.Pending())
}

func TestEnterSanitizesHandoff(t *testing.T) {
	s, _ := newTestSession(false, nil, nil)
	require.NoError(t, s.Enter(LocationHome, handoffWith(func(rec *types.StatRecord) {
		rec.Happiness = 250
		rec.Money = -40
		rec.Level = 0
	})))

	stats := s.Snapshot().Stats
	assert.Equal(t, 100.0, stats.Happiness)
	assert.Equal(t, 0.0, stats.Money)
	assert.Equal(t, 1, stats.Level)
}

func TestSessionPersistHook(t *testing.T) {
	var saved []types.SessionSnapshot
	clk := clock.NewManual(time.Unix(0, 0))
	s := NewSession(SessionOptions{
		ID:        "s2",
		Config:    config.DefaultConfig().Game,
		Clock:     clk,
		OnPersist: func(snap types.SessionSnapshot) { saved = append(saved, snap) },
	})

	require.NoError(t, s.Enter(LocationHome, nil))
	require.Len(t, saved, 1)
	assert.Equal(t, LocationHome, saved[0].Location)

	// Decay ticks are not persisted on their own
	clk.Advance(15 * time.Second)
	assert.Len(t, saved, 1)

	_, err := s.Leave()
	require.NoError(t, err)
	assert.Len(t, saved, 2)
}

func TestCloseSession(t *testing.T) {
	s, clk := newTestSession(false, nil, nil)
	events, _ := s.Subscribe()
	require.NoError(t, s.Enter(LocationHome, nil))

	s.Close()
	s.Close()
	assert.Equal(t, 0, clk.Pending())
	assert.ErrorIs(t, s.Enter(LocationHome, nil), ErrSessionNotFound)
	assert.ErrorIs(t, s.NewGame(), ErrSessionNotFound)

	drain(events)
	_, open := <-events
	assert.False(t, open)

	late, _ := s.Subscribe()
	_, open = <-late
	assert.False(t, open)
}
