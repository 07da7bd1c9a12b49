package control

import (
	"sync"
	"time"

	"Wendigo/checker"
)

// Snapshot is a point-in-time copy of shared state, safe to hold
// after the lock is released.
type Snapshot struct {
	Running      bool
	Stats        checker.Stats
	TotalPuzzles int
	StartTime    time.Time
}

// State is the single piece of mutable state shared between the
// scheduler and whatever control surface drives it. The aggregator
// is the only writer of Stats; the run flag is written by the
// scheduler (auto-pause) and by the external operator.
type State struct {
	mu           sync.RWMutex
	running      bool
	stats        checker.Stats
	totalPuzzles int
	startTime    time.Time
}

func NewState(totalPuzzles int, running bool) *State {
	return &State{
		running:      running,
		totalPuzzles: totalPuzzles,
		startTime:    time.Now(),
	}
}

func (s *State) Running() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

func (s *State) SetRunning(v bool) {
	s.mu.Lock()
	s.running = v
	s.mu.Unlock()
}

// RecordCheck folds one outcome into the aggregate counters.
func (s *State) RecordCheck(o *checker.Outcome) {
	s.mu.Lock()
	s.stats.RecordCheck(o)
	s.mu.Unlock()
}

// RestoreStats seeds counters from a persisted checkpoint. Called
// once at startup, before any session runs.
func (s *State) RestoreStats(stats checker.Stats) {
	s.mu.Lock()
	s.stats = stats
	s.mu.Unlock()
}

func (s *State) Stats() checker.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats
}

func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Running:      s.running,
		Stats:        s.stats,
		TotalPuzzles: s.totalPuzzles,
		StartTime:    s.startTime,
	}
}

func (s *State) UptimeHours() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return time.Since(s.startTime).Hours()
}
