package game

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/vida-loka-sim/config"
	"github.com/user/vida-loka-sim/internal/types"
)

func TestGameStateStorageRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.json")
	storage := NewGameStateStorage(path)

	state, err := storage.LoadGameState()
	require.NoError(t, err)
	assert.Empty(t, state.Sessions)

	rec := defaultStats()
	AddItem(&rec, seashell)
	state.Sessions["s1"] = &types.SessionSnapshot{
		ID:         "s1",
		PlayerName: "Ana",
		Stats:      rec,
		Visited:    []string{LocationBeach},
		GameOver:   true,
		Summary:    &types.GameOverSummary{FinalScore: 58, Expression: "Average"},
	}
	require.NoError(t, storage.SaveGameState(state))

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))

	loaded, err := NewGameStateStorage(path).LoadGameState()
	require.NoError(t, err)
	require.Contains(t, loaded.Sessions, "s1")
	snap := loaded.Sessions["s1"]
	assert.Equal(t, rec, snap.Stats)
	assert.True(t, snap.GameOver)
	assert.Equal(t, "Average", snap.Summary.Expression)
}

func TestGameStateStorageDropsNullEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"sessions": {"a": null, "b": {"id": "b"}}}`), 0644))

	state, err := NewGameStateStorage(path).LoadGameState()
	require.NoError(t, err)
	assert.Len(t, state.Sessions, 1)
	assert.Contains(t, state.Sessions, "b")
}

func TestGameStateStorageCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0644))

	_, err := NewGameStateStorage(path).LoadGameState()
	assert.Error(t, err)

	// The manager starts empty instead of failing
	gm := NewGameManager(func() config.Config {
		cfg := config.DefaultConfig()
		cfg.Game.StatePath = path
		return cfg
	}())
	_, err = gm.GetSession("anything")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}
