package game

import (
	"time"

	"github.com/user/vida-loka-sim/config"
	"github.com/user/vida-loka-sim/internal/clock"
	"github.com/user/vida-loka-sim/internal/types"
	"go.uber.org/zap"
)

// dispatchFunc runs a transform of the stat record on the session's
// serialized update path. It is how timer callbacks reach session state.
type dispatchFunc func(fn func(rec *types.StatRecord))

// ApplyDecay applies one tick of passive decay
func ApplyDecay(rec *types.StatRecord, cfg config.DecayConfig) {
	ApplyDelta(rec, types.StatMeal, -cfg.Meal)
	ApplyDelta(rec, types.StatSleep, -cfg.Sleep)
	ApplyDelta(rec, types.StatEnergy, -cfg.Energy)
	ApplyDelta(rec, types.StatHappiness, -cfg.Happiness)
	ApplyDelta(rec, types.StatCleanliness, -cfg.Cleanliness)
	ApplyDelta(rec, types.StatHealth, -cfg.Health)
}

// DecayEngine erodes the gauges on a recurring timer whose period follows
// the speed mode. Its methods must be called on the session's update path.
type DecayEngine struct {
	clock    clock.Clock
	speed    *SpeedMode
	cfg      config.DecayConfig
	dispatch dispatchFunc
	logger   *zap.Logger

	timer  clock.Timer
	period time.Duration
	gen    int
}

// NewDecayEngine creates a stopped decay engine
func NewDecayEngine(clk clock.Clock, speed *SpeedMode, cfg config.DecayConfig, dispatch dispatchFunc, logger *zap.Logger) *DecayEngine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DecayEngine{
		clock:    clk,
		speed:    speed,
		cfg:      cfg,
		dispatch: dispatch,
		logger:   logger,
	}
}

// CurrentPeriod is the tick period for the current speed mode
func (d *DecayEngine) CurrentPeriod() time.Duration {
	if d.speed.FastForward() {
		return time.Duration(d.cfg.FastIntervalMs) * time.Millisecond
	}
	return time.Duration(d.cfg.IntervalMs) * time.Millisecond
}

// Start schedules the decay timer; a running engine is left as is
func (d *DecayEngine) Start() {
	if d.timer != nil {
		return
	}

	d.gen++
	gen := d.gen
	d.period = d.CurrentPeriod()
	d.timer = d.clock.Every(d.period, func() {
		d.dispatch(func(rec *types.StatRecord) {
			if gen != d.gen {
				return
			}
			ApplyDecay(rec, d.cfg)
		})
	})

	d.logger.Debug("Decay started", zap.Duration("period", d.period))
}

// Stop cancels the decay timer
func (d *DecayEngine) Stop() {
	if d.timer == nil {
		return
	}
	d.timer.Stop()
	d.timer = nil
	d.gen++
	d.logger.Debug("Decay stopped")
}

// Restart reschedules a running engine with the current speed mode
func (d *DecayEngine) Restart() {
	if d.timer == nil {
		return
	}
	d.Stop()
	d.Start()
}

// Running reports whether the decay timer is scheduled
func (d *DecayEngine) Running() bool {
	return d.timer != nil
}

// Period is the period of the scheduled timer, zero when stopped
func (d *DecayEngine) Period() time.Duration {
	if d.timer == nil {
		return 0
	}
	return d.period
}
