package game

import (
	"math"

	"github.com/user/vida-loka-sim/internal/types"
)

// Scoring constants. TotalActivities and TotalItems are fixed and do not
// follow the catalog, so scores stay comparable between catalog versions.
const (
	TotalActivities = 22
	TotalItems      = 10
	TotalLocations  = 5

	// Maximum total absolute deviation mapped to a zero balance score
	BalanceDeviationScale = 167

	weightStatBalance = 0.25
	weightActivities  = 0.30
	weightItems       = 0.20
	weightLocations   = 0.25
)

var expressionTiers = []struct {
	min  float64
	name string
}{
	{90, "Excellent"},
	{80, "Very Good"},
	{65, "Good"},
	{50, "Average"},
	{35, "Poor"},
	{20, "Very Poor"},
}

// Expression names the tier of a final score
func Expression(score float64) string {
	for _, tier := range expressionTiers {
		if score >= tier.min {
			return tier.name
		}
	}
	return "Terrible"
}

// StatBalanceScore rewards gauges that sit close to each other
func StatBalanceScore(rec types.StatRecord) float64 {
	values := []float64{rec.Meal, rec.Sleep, rec.Health, rec.Energy, rec.Happiness, rec.Cleanliness}

	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))

	deviation := 0.0
	for _, v := range values {
		deviation += math.Abs(v - mean)
	}
	return math.Max(0, (1-deviation/BalanceDeviationScale)*100)
}

// ActivitiesScore is the share of completed tasks, capped at 100
func ActivitiesScore(completed int) float64 {
	return clamp(float64(completed)/TotalActivities*100, 0, 100)
}

// ItemsScore weighs collected ledger entries and distinct used items equally
func ItemsScore(collected, distinctUsed int) float64 {
	return float64(collected)/TotalItems*50 + float64(distinctUsed)/TotalItems*50
}

// LocationScore is the share of visited locations
func LocationScore(visited int) float64 {
	return float64(visited) / TotalLocations * 100
}

// FinalScore combines the component scores
func FinalScore(statBalance, activities, items, locations float64) float64 {
	return statBalance*weightStatBalance +
		activities*weightActivities +
		items*weightItems +
		locations*weightLocations
}

// ComputeSummary scores a finished game. Only tasks known to the catalog
// count towards the activities score.
func ComputeSummary(rec types.StatRecord, visited, usedItems []string, catalog *Catalog) types.GameOverSummary {
	s := types.GameOverSummary{
		StatBalanceScore: StatBalanceScore(rec),
		ActivitiesScore:  ActivitiesScore(CompletedCatalogTaskCount(rec, catalog)),
		ItemsScore:       ItemsScore(len(rec.Items), len(distinct(usedItems))),
		LocationScore:    LocationScore(len(distinct(visited))),
	}
	s.FinalScore = FinalScore(s.StatBalanceScore, s.ActivitiesScore, s.ItemsScore, s.LocationScore)
	s.Expression = Expression(s.FinalScore)
	return s
}

// IsGameOver reports whether the record has reached a terminal state
func IsGameOver(rec types.StatRecord) bool {
	return rec.Health <= 0 || rec.Sleep <= 0
}

func distinct(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
