package game

import (
	"sort"
	"strings"

	"github.com/user/vida-loka-sim/internal/types"
)

// Location identifiers
const (
	LocationHome       = "home"
	LocationBeach      = "beach"
	LocationField      = "field"
	LocationMountain   = "mountain"
	LocationRestaurant = "restaurant"
	LocationMap        = "map"
)

// Catalog holds the locations of the game and the item effect table
type Catalog struct {
	locations map[string]*types.Location
	effects   ItemEffects
}

// NewCatalog builds a catalog from location definitions and item effects
func NewCatalog(locations []*types.Location, effects ItemEffects) *Catalog {
	c := &Catalog{
		locations: make(map[string]*types.Location, len(locations)),
		effects:   effects,
	}
	if c.effects == nil {
		c.effects = ItemEffects{}
	}
	for _, loc := range locations {
		c.locations[loc.ID] = loc
	}
	return c
}

// Location returns a location by ID
func (c *Catalog) Location(id string) (*types.Location, bool) {
	loc, ok := c.locations[id]
	return loc, ok
}

// Locations returns every location sorted by ID
func (c *Catalog) Locations() []*types.Location {
	ids := make([]string, 0, len(c.locations))
	for id := range c.locations {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]*types.Location, 0, len(ids))
	for _, id := range ids {
		out = append(out, c.locations[id])
	}
	return out
}

// Effects returns the item effect table
func (c *Catalog) Effects() ItemEffects {
	return c.effects
}

// TaskCount is the number of tasks across all location catalogs
func (c *Catalog) TaskCount() int {
	total := 0
	for _, loc := range c.locations {
		total += len(loc.Tasks)
	}
	return total
}

// HasTask reports whether a composite task key names a catalog task
func (c *Catalog) HasTask(key string) bool {
	for id, loc := range c.locations {
		taskID, ok := strings.CutPrefix(key, id+"-")
		if !ok {
			continue
		}
		for _, def := range loc.Tasks {
			if def.ID == taskID {
				return true
			}
		}
	}
	return false
}

// ZoneAt returns the zone of a location containing the point
func ZoneAt(loc *types.Location, x, y float64) (types.Zone, bool) {
	for _, zone := range loc.Zones {
		if zone.Bounds.Contains(x, y) {
			return zone, true
		}
	}
	return types.Zone{}, false
}

func task(id, name, priority string) types.TaskDefinition {
	return types.TaskDefinition{ID: id, Name: name, Priority: priority}
}

func zone(id, activity string, x, y, w, h float64) types.Zone {
	return types.Zone{ID: id, ActivityKey: activity, Bounds: types.Bounds{X: x, Y: y, Width: w, Height: h}}
}

// DefaultLocations returns the built-in location catalog
func DefaultLocations() []*types.Location {
	return []*types.Location{
		{
			ID:      LocationHome,
			Name:    "Home",
			Tracked: true,
			Tasks: []types.TaskDefinition{
				task("sleep", "Get a good night's sleep", types.PriorityDaily),
				task("shower", "Take a shower", types.PriorityDaily),
				task("breakfast", "Eat breakfast", types.PriorityDaily),
				task("tv", "Watch TV", types.PriorityBonus),
				task("study", "Study for an hour", types.PriorityBonus),
			},
			Activities: map[string]types.ActivityDefinition{
				"sleep": {
					Name: "Sleep",
					StatChanges: map[types.Stat]float64{
						types.StatSleep: 100, types.StatEnergy: 25, types.StatHealth: 40,
						types.StatHappiness: 15, types.StatExperience: 1,
					},
					TaskID: "sleep",
				},
				"shower": {
					Name: "Shower",
					StatChanges: map[types.Stat]float64{
						types.StatCleanliness: 60, types.StatHappiness: 5, types.StatExperience: 1,
					},
					TaskID: "shower",
				},
				"breakfast": {
					Name: "Eat Breakfast",
					StatChanges: map[types.Stat]float64{
						types.StatMeal: 35, types.StatEnergy: 10, types.StatMoney: -10, types.StatExperience: 1,
					},
					TaskID: "breakfast",
				},
				"tv": {
					Name: "Watch TV",
					StatChanges: map[types.Stat]float64{
						types.StatHappiness: 20, types.StatEnergy: -5, types.StatExperience: 1,
					},
					TaskID: "tv",
				},
				"study": {
					Name: "Study",
					StatChanges: map[types.Stat]float64{
						types.StatSkillPoints: 2, types.StatEnergy: -10, types.StatHappiness: -5, types.StatExperience: 1,
					},
					TaskID: "study",
				},
			},
			Zones: []types.Zone{
				zone("bed", "sleep", 0, 0, 120, 80),
				zone("bathroom", "shower", 200, 0, 80, 80),
				zone("kitchen", "breakfast", 0, 200, 120, 80),
				zone("sofa", "tv", 200, 200, 100, 60),
				zone("desk", "study", 360, 0, 80, 60),
			},
		},
		{
			ID:      LocationBeach,
			Name:    "Beach",
			Tracked: true,
			Tasks: []types.TaskDefinition{
				task("swim", "Swim in the sea", types.PriorityDaily),
				task("shells", "Collect seashells", types.PriorityDaily),
				task("sunbathe", "Sunbathe", types.PriorityBonus),
				task("sandcastle", "Build a sandcastle", types.PriorityBonus),
				task("surf", "Go surfing", types.PriorityBonus),
			},
			Activities: map[string]types.ActivityDefinition{
				"swim": {
					Name: "Swim",
					StatChanges: map[types.Stat]float64{
						types.StatEnergy: -15, types.StatHappiness: 15, types.StatCleanliness: 10,
						types.StatHealth: 5, types.StatExperience: 1,
					},
					TaskID: "swim",
				},
				"shells": {
					Name: "Collect Seashells",
					StatChanges: map[types.Stat]float64{
						types.StatHappiness: 5, types.StatEnergy: -5,
					},
					CollectItem: &types.CollectItem{Name: "Seashell", Category: "Marine", Icon: "seashell"},
					TaskID:      "shells",
				},
				"sunbathe": {
					Name: "Sunbathe",
					StatChanges: map[types.Stat]float64{
						types.StatHappiness: 10, types.StatSleep: 5, types.StatCleanliness: -5, types.StatExperience: 1,
					},
					TaskID: "sunbathe",
				},
				"sandcastle": {
					Name: "Build Sandcastle",
					StatChanges: map[types.Stat]float64{
						types.StatHappiness: 15, types.StatCleanliness: -10, types.StatSkillPoints: 1,
					},
					TaskID: "sandcastle",
				},
				"surf": {
					Name: "Surf",
					StatChanges: map[types.Stat]float64{
						types.StatEnergy: -20, types.StatHappiness: 20, types.StatSkillPoints: 1, types.StatExperience: 1,
					},
					TaskID: "surf",
				},
			},
			Zones: []types.Zone{
				zone("sea", "swim", 0, 0, 640, 100),
				zone("shore", "shells", 0, 100, 200, 60),
				zone("towel", "sunbathe", 260, 200, 80, 40),
				zone("sand", "sandcastle", 400, 200, 100, 80),
				zone("waves", "surf", 520, 100, 120, 60),
			},
		},
		{
			ID:      LocationField,
			Name:    "Field",
			Tracked: true,
			Tasks: []types.TaskDefinition{
				task("flowers", "Pick flowers", types.PriorityDaily),
				task("picnic", "Have a picnic", types.PriorityDaily),
				task("kite", "Fly a kite", types.PriorityBonus),
				task("butterflies", "Catch butterflies", types.PriorityBonus),
			},
			Activities: map[string]types.ActivityDefinition{
				"flowers": {
					Name: "Pick Flowers",
					StatChanges: map[types.Stat]float64{
						types.StatHappiness: 10, types.StatEnergy: -5,
					},
					CollectItem: &types.CollectItem{Name: "Wildflower", Category: "Flowers", Icon: "wildflower"},
					TaskID:      "flowers",
				},
				"picnic": {
					Name: "Picnic",
					StatChanges: map[types.Stat]float64{
						types.StatMeal: 30, types.StatHappiness: 15, types.StatMoney: -5, types.StatExperience: 1,
					},
					TaskID: "picnic",
				},
				"kite": {
					Name: "Fly a Kite",
					StatChanges: map[types.Stat]float64{
						types.StatHappiness: 20, types.StatEnergy: -10, types.StatSkillPoints: 1,
					},
					TaskID: "kite",
				},
				"butterflies": {
					Name: "Catch Butterflies",
					StatChanges: map[types.Stat]float64{
						types.StatHappiness: 10, types.StatEnergy: -10,
					},
					CollectItem: &types.CollectItem{Name: "Butterfly", Category: "Collectible", Icon: "butterfly"},
					TaskID:      "butterflies",
				},
			},
			Zones: []types.Zone{
				zone("meadow", "flowers", 0, 0, 200, 150),
				zone("blanket", "picnic", 250, 250, 100, 60),
				zone("hill", "kite", 400, 0, 200, 120),
				zone("bushes", "butterflies", 0, 300, 160, 100),
			},
		},
		{
			ID:      LocationMountain,
			Name:    "Mountain",
			Tracked: true,
			Tasks: []types.TaskDefinition{
				task("hike", "Hike the trail", types.PriorityDaily),
				task("rocks", "Collect rocks", types.PriorityDaily),
				task("meditate", "Meditate at the summit", types.PriorityBonus),
				task("photo", "Photograph the view", types.PriorityBonus),
			},
			Activities: map[string]types.ActivityDefinition{
				"hike": {
					Name: "Hike",
					StatChanges: map[types.Stat]float64{
						types.StatEnergy: -25, types.StatHealth: 15, types.StatHappiness: 10,
						types.StatCleanliness: -15, types.StatExperience: 2,
					},
					TaskID: "hike",
				},
				"rocks": {
					Name: "Collect Rocks",
					StatChanges: map[types.Stat]float64{
						types.StatEnergy: -10, types.StatCleanliness: -5,
					},
					CollectItem: &types.CollectItem{Name: "Quartz", Category: "Rocks", Icon: "quartz"},
					TaskID:      "rocks",
				},
				"meditate": {
					Name: "Meditate",
					StatChanges: map[types.Stat]float64{
						types.StatHappiness: 20, types.StatSleep: 10, types.StatSkillPoints: 1,
					},
					TaskID: "meditate",
				},
				"photo": {
					Name: "Take Photos",
					StatChanges: map[types.Stat]float64{
						types.StatHappiness: 10, types.StatSkillPoints: 1, types.StatExperience: 1,
					},
					TaskID: "photo",
				},
			},
			Zones: []types.Zone{
				zone("trail", "hike", 0, 300, 300, 100),
				zone("scree", "rocks", 320, 200, 120, 80),
				zone("summit", "meditate", 250, 0, 120, 60),
				zone("lookout", "photo", 500, 50, 100, 80),
			},
		},
		{
			ID:      LocationRestaurant,
			Name:    "Restaurant",
			Tracked: true,
			Tasks: []types.TaskDefinition{
				task("work", "Work a shift", types.PriorityDaily),
				task("dine", "Have a meal", types.PriorityDaily),
				task("takeaway", "Buy a takeaway", types.PriorityBonus),
				task("cooking", "Take a cooking lesson", types.PriorityBonus),
			},
			Activities: map[string]types.ActivityDefinition{
				"work": {
					Name: "Work Shift",
					StatChanges: map[types.Stat]float64{
						types.StatMoney: 50, types.StatEnergy: -20, types.StatHappiness: -5,
						types.StatCleanliness: -10, types.StatExperience: 2,
					},
					TaskID: "work",
				},
				"dine": {
					Name: "Eat a Meal",
					StatChanges: map[types.Stat]float64{
						types.StatMeal: 50, types.StatHappiness: 10, types.StatMoney: -20, types.StatExperience: 1,
					},
					TaskID: "dine",
				},
				"takeaway": {
					Name: "Buy Takeaway",
					StatChanges: map[types.Stat]float64{
						types.StatMoney: -15,
					},
					CollectItem: &types.CollectItem{Name: "Takeaway", Category: "Daily", Icon: "takeaway"},
					TaskID:      "takeaway",
				},
				"cooking": {
					Name: "Cooking Lesson",
					StatChanges: map[types.Stat]float64{
						types.StatSkillPoints: 2, types.StatMoney: -25, types.StatHappiness: 10, types.StatExperience: 1,
					},
					TaskID: "cooking",
				},
			},
			Zones: []types.Zone{
				zone("kitchen", "work", 0, 0, 160, 100),
				zone("table", "dine", 200, 150, 120, 80),
				zone("counter", "takeaway", 400, 0, 100, 60),
				zone("stove", "cooking", 0, 200, 120, 80),
			},
		},
		{
			ID:         LocationMap,
			Name:       "Map",
			Tracked:    false,
			Tasks:      []types.TaskDefinition{},
			Activities: map[string]types.ActivityDefinition{},
			Zones:      []types.Zone{},
		},
	}
}

// DefaultCatalog returns the built-in catalog
func DefaultCatalog() *Catalog {
	return NewCatalog(DefaultLocations(), DefaultItemEffects())
}
