package game

import (
	"strings"

	"github.com/user/vida-loka-sim/internal/types"
)

// TaskKey builds the composite "<location>-<taskId>" key of a task
func TaskKey(location, taskID string) string {
	return location + "-" + taskID
}

// InitializeTasks inserts every catalog task missing from the record as
// incomplete. Existing entries, completed or not, are left untouched.
func InitializeTasks(rec *types.StatRecord, location string, catalog []types.TaskDefinition) int {
	if rec.Tasks == nil {
		rec.Tasks = make(map[string]types.TaskState)
	}

	added := 0
	for _, def := range catalog {
		key := TaskKey(location, def.ID)
		if _, exists := rec.Tasks[key]; exists {
			continue
		}
		rec.Tasks[key] = types.TaskState{
			ID:       def.ID,
			Name:     def.Name,
			Priority: def.Priority,
		}
		added++
	}
	return added
}

// CompleteTask marks a task completed. An absent key starts from the
// incomplete base state, using catalog metadata when the task is known.
func CompleteTask(rec *types.StatRecord, location, taskID string, catalog []types.TaskDefinition) bool {
	if taskID == "" {
		return false
	}
	if rec.Tasks == nil {
		rec.Tasks = make(map[string]types.TaskState)
	}

	key := TaskKey(location, taskID)
	task, exists := rec.Tasks[key]
	if !exists {
		task = types.TaskState{ID: taskID, Name: taskID, Priority: types.PriorityDaily}
		for _, def := range catalog {
			if def.ID == taskID {
				task.Name = def.Name
				task.Priority = def.Priority
				break
			}
		}
	}
	task.Completed = true
	rec.Tasks[key] = task
	return true
}

// ToggleTask flips the completion flag of a task, whatever its current value.
// An absent key is treated as incomplete and becomes completed.
func ToggleTask(rec *types.StatRecord, key string) bool {
	if rec.Tasks == nil {
		rec.Tasks = make(map[string]types.TaskState)
	}

	task, exists := rec.Tasks[key]
	if !exists {
		id := key
		if i := strings.Index(key, "-"); i >= 0 {
			id = key[i+1:]
		}
		task = types.TaskState{ID: id, Name: id, Priority: types.PriorityDaily}
	}
	task.Completed = !task.Completed
	rec.Tasks[key] = task
	return task.Completed
}

// CompletedTaskCount counts completed tasks across all locations
func CompletedTaskCount(rec types.StatRecord) int {
	count := 0
	for _, task := range rec.Tasks {
		if task.Completed {
			count++
		}
	}
	return count
}

// CompletedCatalogTaskCount counts completed tasks the catalog knows about.
// A nil catalog counts every completed entry.
func CompletedCatalogTaskCount(rec types.StatRecord, catalog *Catalog) int {
	if catalog == nil {
		return CompletedTaskCount(rec)
	}
	count := 0
	for key, task := range rec.Tasks {
		if task.Completed && catalog.HasTask(key) {
			count++
		}
	}
	return count
}

// TaskProgress is the quest log summary of one location
type TaskProgress struct {
	Location       string `json:"location"`
	Total          int    `json:"total"`
	Completed      int    `json:"completed"`
	DailyTotal     int    `json:"daily_total"`
	DailyCompleted int    `json:"daily_completed"`
	BonusTotal     int    `json:"bonus_total"`
	BonusCompleted int    `json:"bonus_completed"`
}

// LocationProgress summarizes a location's catalog against the record
func LocationProgress(rec types.StatRecord, location string, catalog []types.TaskDefinition) TaskProgress {
	p := TaskProgress{Location: location, Total: len(catalog)}
	for _, def := range catalog {
		done := rec.Tasks[TaskKey(location, def.ID)].Completed
		switch def.Priority {
		case types.PriorityBonus:
			p.BonusTotal++
			if done {
				p.BonusCompleted++
			}
		default:
			p.DailyTotal++
			if done {
				p.DailyCompleted++
			}
		}
		if done {
			p.Completed++
		}
	}
	return p
}
