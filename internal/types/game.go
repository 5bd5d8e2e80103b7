package types

import "time"

// Stat names a field of a StatRecord that activities, decay and item effects may change
type Stat string

const (
	StatMeal        Stat = "meal"
	StatSleep       Stat = "sleep"
	StatEnergy      Stat = "energy"
	StatHappiness   Stat = "happiness"
	StatCleanliness Stat = "cleanliness"
	StatHealth      Stat = "health"
	StatMoney       Stat = "money"
	StatExperience  Stat = "experience"
	StatSkillPoints Stat = "skillPoints"
	StatLevel       Stat = "level"
)

// Task priorities
const (
	PriorityDaily = "daily"
	PriorityBonus = "bonus"
)

// StatRecord is the mutable simulation state of one play session
type StatRecord struct {
	Meal        float64 `json:"meal"`
	Sleep       float64 `json:"sleep"`
	Energy      float64 `json:"energy"`
	Happiness   float64 `json:"happiness"`
	Cleanliness float64 `json:"cleanliness"`
	Health      float64 `json:"health"`

	Money       float64 `json:"money"`
	Experience  float64 `json:"experience"`
	SkillPoints float64 `json:"skillPoints"`
	Level       int     `json:"level"`

	Items               []InventoryItem      `json:"items"`
	Tasks               map[string]TaskState `json:"tasks"`
	LastVisitedLocation string               `json:"lastVisitedLocation,omitempty"`
}

// Clone returns a deep copy of the record
func (r StatRecord) Clone() StatRecord {
	out := r
	out.Items = make([]InventoryItem, len(r.Items))
	copy(out.Items, r.Items)
	out.Tasks = make(map[string]TaskState, len(r.Tasks))
	for k, v := range r.Tasks {
		out.Tasks[k] = v
	}
	return out
}

// InventoryItem is one stacked entry of the item ledger
type InventoryItem struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Icon     string `json:"icon"`
	Quantity int    `json:"quantity"`
}

// TaskState is the completion state of one location task
type TaskState struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Priority  string `json:"priority"`
	Completed bool   `json:"completed"`
}

// TaskDefinition is a catalog entry for a location task
type TaskDefinition struct {
	ID       string `json:"id" yaml:"id"`
	Name     string `json:"name" yaml:"name"`
	Priority string `json:"priority" yaml:"priority"`
}

// CollectItem describes the item an activity yields
type CollectItem struct {
	Name     string `json:"name" yaml:"name"`
	Category string `json:"category" yaml:"category"`
	Icon     string `json:"icon" yaml:"icon"`
}

// ActivityDefinition is a named bundle of stat deltas performed at a location
type ActivityDefinition struct {
	Name        string           `json:"name" yaml:"name"`
	StatChanges map[Stat]float64 `json:"stat_changes" yaml:"stat_changes"`
	DurationMs  int              `json:"duration_ms,omitempty" yaml:"duration_ms,omitempty"`
	CollectItem *CollectItem     `json:"collect_item,omitempty" yaml:"collect_item,omitempty"`

	// Task marked completed when the activity starts
	TaskID string `json:"task_id,omitempty" yaml:"task_id,omitempty"`
}

// Bounds is an axis-aligned rectangle in location coordinates
type Bounds struct {
	X      float64 `json:"x" yaml:"x"`
	Y      float64 `json:"y" yaml:"y"`
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// Contains reports whether the point lies within the bounds
func (b Bounds) Contains(x, y float64) bool {
	return x >= b.X && x <= b.X+b.Width && y >= b.Y && y <= b.Y+b.Height
}

// Zone maps an area of a location to the activity offered there
type Zone struct {
	ID          string `json:"id" yaml:"id"`
	ActivityKey string `json:"activity_key" yaml:"activity_key"`
	Bounds      Bounds `json:"bounds" yaml:"bounds"`
}

// Location is a playable screen: its tasks, activities and proximity zones
type Location struct {
	ID         string                        `json:"id" yaml:"id"`
	Name       string                        `json:"name" yaml:"name"`
	Tracked    bool                          `json:"tracked" yaml:"tracked"`
	Tasks      []TaskDefinition              `json:"tasks" yaml:"tasks"`
	Activities map[string]ActivityDefinition `json:"activities" yaml:"activities"`
	Zones      []Zone                        `json:"zones" yaml:"zones"`
}

// Handoff is the state passed between location screens
type Handoff struct {
	CharacterName string     `json:"characterName"`
	PlayerName    string     `json:"playerName"`
	Stats         StatRecord `json:"stats"`
}

// ActivityStatus is the visible state of the activity engine
type ActivityStatus struct {
	State    string  `json:"state"`
	Name     string  `json:"name,omitempty"`
	Progress float64 `json:"progress"`
}

// Prompt is an activity offered by proximity to a zone
type Prompt struct {
	ZoneID      string `json:"zone_id"`
	ActivityKey string `json:"activity_key"`
	Activity    string `json:"activity"`
}

// GameOverSummary is the life satisfaction score computed at game end
type GameOverSummary struct {
	StatBalanceScore float64 `json:"statBalanceScore"`
	ActivitiesScore  float64 `json:"activitiesScore"`
	ItemsScore       float64 `json:"itemsScore"`
	LocationScore    float64 `json:"locationScore"`
	FinalScore       float64 `json:"finalScore"`
	Expression       string  `json:"expression"`
}

// SessionSnapshot is the persisted and reported view of a session
type SessionSnapshot struct {
	ID            string           `json:"id"`
	PlayerName    string           `json:"player_name"`
	CharacterName string           `json:"character_name"`
	Location      string           `json:"location,omitempty"`
	Stats         StatRecord       `json:"stats"`
	Visited       []string         `json:"visited"`
	UsedItems     []string         `json:"used_items"`
	Activity      ActivityStatus   `json:"activity"`
	Prompt        *Prompt          `json:"prompt,omitempty"`
	GameOver      bool             `json:"game_over"`
	Summary       *GameOverSummary `json:"summary,omitempty"`
	FastForward   bool             `json:"fast_forward"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// GameState represents the persisted state of all sessions
type GameState struct {
	Sessions map[string]*SessionSnapshot `json:"sessions"`
}

// Event kinds published to session subscribers
const (
	EventState    = "state"
	EventLevelUp  = "level_up"
	EventGameOver = "game_over"
	EventSound    = "sound"
	EventAmbient  = "ambient"
)

// Event is a notification published by a session
type Event struct {
	Kind     string           `json:"kind"`
	Snapshot *SessionSnapshot `json:"snapshot,omitempty"`
	OldLevel int              `json:"old_level,omitempty"`
	NewLevel int              `json:"new_level,omitempty"`
	Sound    string           `json:"sound,omitempty"`
	Playing  bool             `json:"playing,omitempty"`
}
