package game

import (
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/user/vida-loka-sim/config"
	"github.com/user/vida-loka-sim/internal/types"
)

var (
	ErrGameOver         = errors.New("game over")
	ErrSessionNotFound  = errors.New("session not found")
	ErrUnknownLocation  = errors.New("unknown location")
	ErrUnknownActivity  = errors.New("activity not available in current location")
	ErrNotInLocation    = errors.New("player is not in a location")
	ErrInvalidPlayerArg = errors.New("player name is required")
)

const (
	gaugeMin = 0
	gaugeMax = 100
)

// statOrder fixes the order in which a bundle of changes is applied
var statOrder = []types.Stat{
	types.StatMeal,
	types.StatSleep,
	types.StatEnergy,
	types.StatHappiness,
	types.StatCleanliness,
	types.StatHealth,
	types.StatMoney,
	types.StatExperience,
	types.StatSkillPoints,
}

// Gauges are the bounded 0-100 stats
var Gauges = append([]types.Stat(nil), statOrder[:6]...)

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// field returns a pointer to the named stat and whether it is a bounded gauge
func field(rec *types.StatRecord, stat types.Stat) (*float64, bool) {
	switch stat {
	case types.StatMeal:
		return &rec.Meal, true
	case types.StatSleep:
		return &rec.Sleep, true
	case types.StatEnergy:
		return &rec.Energy, true
	case types.StatHappiness:
		return &rec.Happiness, true
	case types.StatCleanliness:
		return &rec.Cleanliness, true
	case types.StatHealth:
		return &rec.Health, true
	case types.StatMoney:
		return &rec.Money, false
	case types.StatExperience:
		return &rec.Experience, false
	case types.StatSkillPoints:
		return &rec.SkillPoints, false
	}
	return nil, false
}

// StatValue reads a numeric stat; level and unknown names report false
func StatValue(rec types.StatRecord, stat types.Stat) (float64, bool) {
	p, _ := field(&rec, stat)
	if p == nil {
		return 0, false
	}
	return *p, true
}

// ApplyDelta adds delta to a stat. Gauges are clamped to [0, 100], counters
// are floored at 0. Non-finite deltas, level and unknown stats are ignored.
func ApplyDelta(rec *types.StatRecord, stat types.Stat, delta float64) bool {
	if !isFinite(delta) {
		return false
	}
	p, gauge := field(rec, stat)
	if p == nil {
		return false
	}
	if gauge {
		*p = clamp(*p+delta, gaugeMin, gaugeMax)
	} else {
		*p = math.Max(0, *p+delta)
	}
	return true
}

// ApplyChanges applies every delta of a bundle
func ApplyChanges(rec *types.StatRecord, changes map[types.Stat]float64) {
	for _, stat := range statOrder {
		if delta, ok := changes[stat]; ok {
			ApplyDelta(rec, stat, delta)
		}
	}
}

// SetStat overwrites a stat with the same bounds ApplyDelta enforces
func SetStat(rec *types.StatRecord, stat types.Stat, value float64) bool {
	if !isFinite(value) {
		return false
	}
	p, gauge := field(rec, stat)
	if p == nil {
		return false
	}
	if gauge {
		*p = clamp(value, gaugeMin, gaugeMax)
	} else {
		*p = math.Max(0, value)
	}
	return true
}

// DefaultStats builds a fresh stat record
func DefaultStats(d config.StatDefaults) types.StatRecord {
	return types.StatRecord{
		Meal:        d.Meal,
		Sleep:       d.Sleep,
		Energy:      d.Energy,
		Happiness:   d.Happiness,
		Cleanliness: d.Cleanliness,
		Health:      d.Health,
		Money:       d.Money,
		Experience:  d.Experience,
		SkillPoints: d.SkillPoints,
		Level:       1,
		Items:       make([]types.InventoryItem, 0),
		Tasks:       make(map[string]types.TaskState),
	}
}

// SanitizeStats repairs a typed record handed in from outside: non-finite
// numbers fall back to defaults, values are brought into range and missing
// collections are created.
func SanitizeStats(defaults, rec types.StatRecord) types.StatRecord {
	out := rec.Clone()
	for _, stat := range statOrder {
		p, gauge := field(&out, stat)
		if !isFinite(*p) {
			d, _ := field(&defaults, stat)
			*p = *d
		}
		if gauge {
			*p = clamp(*p, gaugeMin, gaugeMax)
		} else {
			*p = math.Max(0, *p)
		}
	}
	if out.Level < 1 {
		out.Level = 1
	}
	if rec.Items == nil {
		out.Items = make([]types.InventoryItem, 0)
	}
	if rec.Tasks == nil {
		out.Tasks = make(map[string]types.TaskState)
	}
	return out
}

// parseNumber accepts JSON numbers, Go numerics and numeric strings
func parseNumber(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	return f, isFinite(f)
}

// MergeStats overlays an externally supplied partial record onto defaults.
// Scalars are taken only when they parse to finite numbers; items and tasks
// are replaced wholesale only when they have the right shape.
func MergeStats(defaults types.StatRecord, raw map[string]any) types.StatRecord {
	out := defaults.Clone()
	if raw == nil {
		return out
	}

	for _, stat := range statOrder {
		v, ok := raw[string(stat)]
		if !ok {
			continue
		}
		f, ok := parseNumber(v)
		if !ok {
			continue
		}
		p, gauge := field(&out, stat)
		if gauge {
			f = clamp(f, gaugeMin, gaugeMax)
		} else {
			f = math.Max(0, f)
		}
		*p = f
	}

	if v, ok := raw[string(types.StatLevel)]; ok {
		if f, ok := parseNumber(v); ok && f >= 1 {
			out.Level = int(f)
		}
	}

	if v, ok := raw["items"].([]any); ok {
		if items, ok := decodeItems(v); ok {
			out.Items = items
		}
	}

	if v, ok := raw["tasks"].(map[string]any); ok {
		if tasks, ok := decodeTasks(v); ok {
			out.Tasks = tasks
		}
	}

	if v, ok := raw["lastVisitedLocation"].(string); ok {
		out.LastVisitedLocation = v
	}

	return out
}

func decodeItems(v []any) ([]types.InventoryItem, bool) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, false
	}
	items := make([]types.InventoryItem, 0, len(v))
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, false
	}
	return items, true
}

func decodeTasks(v map[string]any) (map[string]types.TaskState, bool) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, false
	}
	tasks := make(map[string]types.TaskState, len(v))
	if err := json.Unmarshal(data, &tasks); err != nil {
		return nil, false
	}
	return tasks, true
}

// StatsToRaw converts a record into the loosely typed form accepted by MergeStats
func StatsToRaw(rec types.StatRecord) (map[string]any, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}
	raw := make(map[string]any)
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}
