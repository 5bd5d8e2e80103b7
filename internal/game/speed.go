package game

import "sync/atomic"

// SpeedMode is the fast-forward flag shared by the engines of every session.
// Engines read it when they schedule timers.
type SpeedMode struct {
	fast atomic.Bool
}

// NewSpeedMode creates a speed flag in the given mode
func NewSpeedMode(fastForward bool) *SpeedMode {
	s := &SpeedMode{}
	s.fast.Store(fastForward)
	return s
}

// FastForward reports whether time is accelerated
func (s *SpeedMode) FastForward() bool {
	return s.fast.Load()
}

// Set changes the mode and reports whether it changed
func (s *SpeedMode) Set(fastForward bool) bool {
	return s.fast.Swap(fastForward) != fastForward
}
