package game

import (
	"math/big"
	"time"

	"github.com/user/vida-loka-sim/config"
	"github.com/user/vida-loka-sim/internal/clock"
	"github.com/user/vida-loka-sim/internal/types"
	"go.uber.org/zap"
)

// ActivityState is a state of the activity engine
type ActivityState int

const (
	ActivityIdle ActivityState = iota
	ActivityRunning
	ActivityCompleting
)

func (s ActivityState) String() string {
	switch s {
	case ActivityRunning:
		return "running"
	case ActivityCompleting:
		return "completing"
	default:
		return "idle"
	}
}

// collectFunc adds an activity's item to the record
type collectFunc func(rec *types.StatRecord, item types.CollectItem)

// ActivityEngine runs one activity at a time, applying its stat changes
// instantly in fast-forward or in equal steps otherwise. Its methods must be
// called on the session's update path.
type ActivityEngine struct {
	clock    clock.Clock
	speed    *SpeedMode
	cfg      config.ActivityConfig
	dispatch dispatchFunc
	collect  collectFunc
	logger   *zap.Logger

	state    ActivityState
	def      types.ActivityDefinition
	progress float64
	step     int
	steps    int
	timer    clock.Timer
	gen      int

	// exact change each stat has received from the running activity
	applied map[types.Stat]*big.Rat
}

// NewActivityEngine creates an idle activity engine
func NewActivityEngine(clk clock.Clock, speed *SpeedMode, cfg config.ActivityConfig, dispatch dispatchFunc, collect collectFunc, logger *zap.Logger) *ActivityEngine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ActivityEngine{
		clock:    clk,
		speed:    speed,
		cfg:      cfg,
		dispatch: dispatch,
		collect:  collect,
		logger:   logger,
	}
}

// Steps is the number of increments a progressive activity is split into
func (a *ActivityEngine) Steps(def types.ActivityDefinition) int {
	duration := a.cfg.DurationMs
	if def.DurationMs > 0 {
		duration = def.DurationMs
	}
	if a.cfg.UpdateIntervalMs <= 0 {
		return 1
	}
	steps := duration / a.cfg.UpdateIntervalMs
	if steps < 1 {
		steps = 1
	}
	return steps
}

// Start begins an activity. A start while another activity is in flight is
// dropped and reported as false.
func (a *ActivityEngine) Start(rec *types.StatRecord, def types.ActivityDefinition) bool {
	if a.state != ActivityIdle {
		a.logger.Debug("Activity already in progress, request dropped",
			zap.String("running", a.def.Name),
			zap.String("requested", def.Name))
		return false
	}

	a.gen++
	gen := a.gen
	a.state = ActivityRunning
	a.def = def
	a.progress = 0
	a.step = 0

	fast := a.speed.FastForward()
	if fast {
		a.startInstant(rec, gen)
	} else {
		a.startProgressive(gen)
	}

	a.logger.Info("Activity started",
		zap.String("activity", def.Name),
		zap.Bool("fast_forward", fast))
	return true
}

func (a *ActivityEngine) startInstant(rec *types.StatRecord, gen int) {
	a.steps = 0
	ApplyChanges(rec, a.def.StatChanges)
	if a.def.CollectItem != nil {
		a.collect(rec, *a.def.CollectItem)
	}

	settle := time.Duration(a.cfg.SettleDelayMs) * time.Millisecond
	finish := time.Duration(a.cfg.FinishDelayMs) * time.Millisecond

	a.timer = a.clock.After(settle, func() {
		a.dispatch(func(rec *types.StatRecord) {
			if gen != a.gen {
				return
			}
			a.progress = 100
			a.state = ActivityCompleting
			a.timer = a.clock.After(finish, func() {
				a.dispatch(func(rec *types.StatRecord) {
					if gen != a.gen {
						return
					}
					a.timer = nil
					a.reset()
				})
			})
		})
	})
}

func (a *ActivityEngine) startProgressive(gen int) {
	a.steps = a.Steps(a.def)
	a.applied = make(map[types.Stat]*big.Rat)
	interval := time.Duration(a.cfg.UpdateIntervalMs) * time.Millisecond

	a.timer = a.clock.Every(interval, func() {
		a.dispatch(func(rec *types.StatRecord) {
			if gen != a.gen {
				return
			}
			a.advance(rec)
		})
	})
}

// advance applies one step of a progressive activity
func (a *ActivityEngine) advance(rec *types.StatRecord) {
	a.step++
	for _, stat := range statOrder {
		if delta, ok := a.def.StatChanges[stat]; ok && isFinite(delta) {
			a.applyStep(rec, stat, delta)
		}
	}
	a.progress = float64(a.step*100) / float64(a.steps)

	if a.step < a.steps {
		return
	}

	if a.def.CollectItem != nil {
		a.collect(rec, *a.def.CollectItem)
	}
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	a.reset()
}

// applyStep moves a stat to its share of delta after the current step. The
// final step lands on the value a single application of the whole delta
// would give, with any changes made by others in between kept.
func (a *ActivityEngine) applyStep(rec *types.StatRecord, stat types.Stat, delta float64) {
	before, ok := StatValue(*rec, stat)
	if !ok || !isFinite(before) {
		return
	}
	applied := a.applied[stat]
	if applied == nil {
		applied = new(big.Rat)
		a.applied[stat] = applied
	}

	target := new(big.Rat).SetFloat64(delta)
	if a.step < a.steps {
		target.Mul(target, big.NewRat(int64(a.step), int64(a.steps)))
		piece, _ := target.Sub(target, applied).Float64()
		ApplyDelta(rec, stat, piece)
	} else {
		exact := new(big.Rat).SetFloat64(before)
		exact.Add(exact, target).Sub(exact, applied)
		value, _ := exact.Float64()
		SetStat(rec, stat, value)
	}

	after, _ := StatValue(*rec, stat)
	change := new(big.Rat).SetFloat64(after)
	applied.Add(applied, change.Sub(change, new(big.Rat).SetFloat64(before)))
}

func (a *ActivityEngine) reset() {
	a.logger.Info("Activity finished", zap.String("activity", a.def.Name))
	a.state = ActivityIdle
	a.def = types.ActivityDefinition{}
	a.progress = 0
	a.step = 0
	a.steps = 0
	a.applied = nil
	a.gen++
}

// Cancel stops any in-flight activity without applying its remaining steps
func (a *ActivityEngine) Cancel() {
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	if a.state != ActivityIdle {
		a.logger.Info("Activity cancelled", zap.String("activity", a.def.Name))
	}
	a.state = ActivityIdle
	a.def = types.ActivityDefinition{}
	a.progress = 0
	a.step = 0
	a.steps = 0
	a.applied = nil
	a.gen++
}

// State returns the current engine state
func (a *ActivityEngine) State() ActivityState {
	return a.state
}

// Busy reports whether an activity is in flight
func (a *ActivityEngine) Busy() bool {
	return a.state != ActivityIdle
}

// Status returns the visible activity status
func (a *ActivityEngine) Status() types.ActivityStatus {
	return types.ActivityStatus{
		State:    a.state.String(),
		Name:     a.def.Name,
		Progress: a.progress,
	}
}
