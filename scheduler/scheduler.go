package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"Wendigo/checker"
	"Wendigo/constants"
	"Wendigo/logger"
	"Wendigo/puzzles"
	"Wendigo/utils"
)

// Control is the capability the scheduler needs from shared state.
// The concrete implementation lives in the control package; any
// operator transport plugs in behind the same surface.
type Control interface {
	Running() bool
	SetRunning(bool)
	RecordCheck(*checker.Outcome)
	Stats() checker.Stats
	UptimeHours() float64
}

// Notifier delivers best-effort operator notifications. Every method
// may fail; failures are logged and never block the search.
type Notifier interface {
	NotifyStartup(puzzleCount int) error
	NotifyStats(stats checker.Stats, uptimeHours float64) error
	NotifyError(message string) error
	NotifySolved(o *checker.Outcome, p *puzzles.Puzzle) error
}

// Store persists solved puzzles and periodic stats checkpoints.
type Store interface {
	SaveSolution(o *checker.Outcome, p *puzzles.Puzzle) error
	SaveCheckpoint(stats checker.Stats) error
}

// Config holds every tunable of the solving loop.
type Config struct {
	SessionDuration time.Duration
	LaunchInterval  time.Duration
	Workers         int
	MinBits         *int
	MaxBits         *int
	MinReward       *float64
	SendStats       bool
	StatsInterval   time.Duration
	OutcomeBuffer   int
	JoinGrace       time.Duration
}

func DefaultConfig() Config {
	minBits := constants.DefaultMinBits
	minReward := 0.0
	return Config{
		SessionDuration: constants.SessionDuration,
		LaunchInterval:  constants.LaunchInterval,
		Workers:         constants.NumWorkers,
		MinBits:         &minBits,
		MinReward:       &minReward,
		SendStats:       constants.SendStatsUpdates,
		StatsInterval:   constants.StatsInterval,
		OutcomeBuffer:   constants.OutcomeBuffer,
		JoinGrace:       constants.JoinGracePeriod,
	}
}

// Scheduler drives the session launch loop and periodic stats
// emission against one shared Control state.
type Scheduler struct {
	cfg      Config
	puzzles  *puzzles.Collection
	state    Control
	notifier Notifier
	store    Store
	log      *log.Logger
}

func New(cfg Config,
	collection *puzzles.Collection,
	state Control,
	notifier Notifier,
	store Store,
	localLog *log.Logger) *Scheduler {

	if cfg.Workers <= 0 {
		cfg.Workers = constants.NumWorkers
	}
	if cfg.OutcomeBuffer <= 0 {
		cfg.OutcomeBuffer = constants.OutcomeBuffer
	}
	if cfg.JoinGrace <= 0 {
		cfg.JoinGrace = constants.JoinGracePeriod
	}

	return &Scheduler{
		cfg:      cfg,
		puzzles:  collection,
		state:    state,
		notifier: notifier,
		store:    store,
		log:      localLog,
	}
}

// Eligible recomputes the searchable subset. Puzzles are static and
// the filter is cheap, so this runs once per session.
func (s *Scheduler) Eligible() []puzzles.Puzzle {
	return puzzles.Eligible(s.puzzles.Puzzles, puzzles.Bounds{
		MinBits:   s.cfg.MinBits,
		MaxBits:   s.cfg.MaxBits,
		MinReward: s.cfg.MinReward,
	})
}

// Run is the scheduler loop. It only returns when ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	eligible := len(s.Eligible())
	logger.LogHeaderStatus(s.log, constants.LogStart,
		"Scheduler: %d workers, %d/%d puzzles eligible",
		s.cfg.Workers, eligible, s.puzzles.Len())
	logger.LogStatus(s.log, constants.LogStart,
		"Sessions:  %s every %s",
		s.cfg.SessionDuration, s.cfg.LaunchInterval)

	if s.notifier != nil {
		if err := s.notifier.NotifyStartup(eligible); err != nil {
			logger.LogError(s.log, constants.LogError, err,
				"Startup notification failed")
		}
	}

	launch := time.NewTicker(s.cfg.LaunchInterval)
	defer launch.Stop()

	// A nil channel never fires, which removes the stats arm from
	// the select when updates are disabled.
	var statsC <-chan time.Time
	if s.cfg.SendStats {
		statsTicker := time.NewTicker(s.cfg.StatsInterval)
		defer statsTicker.Stop()
		statsC = statsTicker.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-launch.C:
			if !s.state.Running() {
				logger.LogDebug(s.log, constants.LogDebug,
					"Solver paused, skipping launch tick")
				continue
			}
			if err := s.runSession(ctx); err != nil {
				logger.LogError(s.log, constants.LogError, err,
					"Solving session failed")
				if s.notifier != nil {
					msg := fmt.Sprintf("solving session error: %v", err)
					if nerr := s.notifier.NotifyError(msg); nerr != nil {
						logger.LogError(s.log, constants.LogError, nerr,
							"Error notification failed")
					}
				}
			}

		case <-statsC:
			s.emitStats()
		}
	}
}

// emitStats hands the current counters to the notifier and
// checkpoints them. Failures on either path are logged only.
func (s *Scheduler) emitStats() {
	stats := s.state.Stats()
	uptime := s.state.UptimeHours()

	mem := utils.GetMemStats()
	logger.LogStatus(s.log, constants.LogMem,
		"Uptime %.1fh, %s checked, %.2fGB in use",
		uptime,
		utils.FormatWithCommas(int(stats.TotalChecked)),
		mem.AllocatedGB)

	if s.notifier != nil {
		if err := s.notifier.NotifyStats(stats, uptime); err != nil {
			logger.LogError(s.log, constants.LogError, err,
				"Stats notification failed")
		}
	}

	if s.store != nil {
		if err := s.store.SaveCheckpoint(stats); err != nil {
			logger.LogError(s.log, constants.LogError, err,
				"Stats checkpoint failed")
		}
	}
}
