package game

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/vida-loka-sim/internal/types"
)

const testLocations = `
- id: park
  name: Park
  tracked: true
  tasks:
    - id: jog
      name: Go for a jog
      priority: daily
  activities:
    jog:
      name: Jog
      duration_ms: 4000
      task_id: jog
      stat_changes:
        energy: -10
        health: 5
        experience: 1
    pinecones:
      name: Gather Pinecones
      stat_changes:
        happiness: 2
      collect_item:
        name: Pinecone
        category: Nature
        icon: pinecone
  zones:
    - id: track
      activity_key: jog
      bounds: {x: 0, y: 0, width: 100, height: 20}
`

const testItems = `
Pinecone:
  happiness: 3
Takeaway:
  meal: 10
`

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func TestLoadCatalogFromFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "locations.yaml", testLocations)
	writeFile(t, dir, "items.yaml", testItems)

	catalog, err := NewDataLoader(dir, nil).LoadCatalog()
	require.NoError(t, err)

	park, ok := catalog.Location("park")
	require.True(t, ok)
	assert.True(t, park.Tracked)
	assert.Equal(t, 1, catalog.TaskCount())

	jog := park.Activities["jog"]
	assert.Equal(t, 4000, jog.DurationMs)
	assert.Equal(t, -10.0, jog.StatChanges[types.StatEnergy])
	assert.Equal(t, "jog", jog.TaskID)
	require.NotNil(t, park.Activities["pinecones"].CollectItem)
	assert.Equal(t, "Pinecone", park.Activities["pinecones"].CollectItem.Name)

	z, ok := ZoneAt(park, 50, 10)
	require.True(t, ok)
	assert.Equal(t, "jog", z.ActivityKey)

	// File effects override and extend the built-in table
	effects := catalog.Effects()
	assert.Equal(t, 3.0, effects["Pinecone"][types.StatHappiness])
	assert.Equal(t, map[types.Stat]float64{types.StatMeal: 10}, effects["Takeaway"])
}

func TestLoadCatalogFallsBackToDefaults(t *testing.T) {
	catalog, err := NewDataLoader(t.TempDir(), nil).LoadCatalog()
	require.NoError(t, err)

	assert.Equal(t, TotalActivities, catalog.TaskCount())
	_, ok := catalog.Location(LocationHome)
	assert.True(t, ok)
	_, ok = catalog.Effects().Effect("Takeaway")
	assert.True(t, ok)
}

func TestLoadCatalogRejectsBadFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "locations.yaml", "- name: Nowhere\n")
	_, err := NewDataLoader(dir, nil).LoadCatalog()
	assert.Error(t, err)

	dir = t.TempDir()
	writeFile(t, dir, "items.yaml", "[not, a, map]")
	_, err = NewDataLoader(dir, nil).LoadCatalog()
	assert.Error(t, err)
}
