package game

import (
	"github.com/google/uuid"
	"github.com/user/vida-loka-sim/internal/types"
)

// ItemEffects maps an item name to the stat changes applied when it is used
type ItemEffects map[string]map[types.Stat]float64

// DefaultItemEffects returns the built-in item effect table
func DefaultItemEffects() ItemEffects {
	return ItemEffects{
		"Takeaway": {
			types.StatEnergy: 25,
			types.StatMeal:   40,
		},
	}
}

// Effect looks up the effect of an item
func (e ItemEffects) Effect(name string) (map[types.Stat]float64, bool) {
	effect, ok := e[name]
	return effect, ok
}

// FindItem returns the ledger index of the named item, or -1
func FindItem(rec types.StatRecord, name string) int {
	for i, item := range rec.Items {
		if item.Name == name {
			return i
		}
	}
	return -1
}

// AddItem stacks the named item onto the ledger, appending a new entry on
// first collection. Every collection is worth one experience point.
func AddItem(rec *types.StatRecord, item types.CollectItem) types.InventoryItem {
	ApplyDelta(rec, types.StatExperience, 1)

	if i := FindItem(*rec, item.Name); i >= 0 {
		rec.Items[i].Quantity++
		return rec.Items[i]
	}

	entry := types.InventoryItem{
		ID:       uuid.New().String(),
		Name:     item.Name,
		Category: item.Category,
		Icon:     item.Icon,
		Quantity: 1,
	}
	rec.Items = append(rec.Items, entry)
	return entry
}

// ConsumeItem uses one unit of the named item and applies effect. The entry
// is removed when its quantity reaches zero. A missing item is a no-op.
func ConsumeItem(rec *types.StatRecord, name string, effect map[types.Stat]float64) bool {
	i := FindItem(*rec, name)
	if i < 0 {
		return false
	}

	rec.Items[i].Quantity--
	ApplyChanges(rec, effect)
	if rec.Items[i].Quantity <= 0 {
		rec.Items = append(rec.Items[:i], rec.Items[i+1:]...)
	}
	return true
}

// ItemCount sums the quantities of the ledger
func ItemCount(rec types.StatRecord) int {
	total := 0
	for _, item := range rec.Items {
		total += item.Quantity
	}
	return total
}
