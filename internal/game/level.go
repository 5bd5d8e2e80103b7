package game

import (
	"math"

	"github.com/user/vida-loka-sim/internal/types"
)

// PointsPerLevel is the experience (or skill points) worth one level
const PointsPerLevel = 5

// LevelUp describes a level increase
type LevelUp struct {
	OldLevel int `json:"old_level"`
	NewLevel int `json:"new_level"`
}

// maxLevelPoints bounds the points counted towards a level so the
// conversion to int cannot overflow
const maxLevelPoints = 1e9

// DeriveLevel computes the level earned by experience and skill points
func DeriveLevel(experience, skillPoints float64) int {
	return 1 + levelsFor(experience) + levelsFor(skillPoints)
}

func levelsFor(points float64) int {
	if math.IsNaN(points) {
		return 0
	}
	return int(math.Floor(clamp(points, 0, maxLevelPoints) / PointsPerLevel))
}

// ReevaluateLevel raises the stored level to the derived one. The stored
// level is never lowered.
func ReevaluateLevel(rec *types.StatRecord) (LevelUp, bool) {
	if rec.Level < 1 {
		rec.Level = 1
	}
	derived := DeriveLevel(rec.Experience, rec.SkillPoints)
	if derived <= rec.Level {
		return LevelUp{}, false
	}
	up := LevelUp{OldLevel: rec.Level, NewLevel: derived}
	rec.Level = derived
	return up, true
}
