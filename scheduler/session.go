package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/exp/rand"

	"Wendigo/checker"
	"Wendigo/constants"
	"Wendigo/keygen"
	"Wendigo/logger"
	"Wendigo/puzzles"
	"Wendigo/utils"
)

// runSession executes one time-bounded worker pool against the
// eligible puzzle snapshot. The session owns its workers and its
// cancellation; both die with it.
func (s *Scheduler) runSession(ctx context.Context) error {
	eligible := s.Eligible()
	if len(eligible) == 0 {
		logger.LogStatus(s.log, constants.LogWarn,
			"No eligible puzzles with current bounds, skipping session")
		return nil
	}

	logger.LogStatus(s.log, constants.LogCheck,
		"Session: %d workers, %s, %d puzzles",
		s.cfg.Workers, s.cfg.SessionDuration, len(eligible))

	sessionStart := time.Now()
	sessCtx, cancel := context.WithTimeout(ctx, s.cfg.SessionDuration)
	defer cancel()

	// Bounded channel: workers block briefly when the aggregator
	// lags instead of growing an unbounded backlog.
	outcomes := make(chan *checker.Outcome, s.cfg.OutcomeBuffer)

	var wg sync.WaitGroup
	for i := 0; i < s.cfg.Workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			s.worker(sessCtx, id, eligible, outcomes)
		}(i)
	}

	// Close outcomes only after the barrier join, so the aggregator
	// sees everything the workers produced.
	go func() {
		wg.Wait()
		close(outcomes)
	}()

	first, drained := s.aggregate(cancel, outcomes, sessionStart)

	elapsed := time.Since(sessionStart)
	stats := s.state.Stats()
	logger.LogSessionStats(s.log,
		stats.TotalChecked,
		float64(drained)/elapsed.Seconds(),
		stats.CurrentPuzzle,
		stats.CompressedHits,
		stats.UncompressedHits,
		utils.GetMemStats().AllocatedGB,
		stats.MatchesFound)

	if first != nil {
		s.handleSolution(first)
	}

	return nil
}

// worker samples keys until the session deadline elapses or the
// session is cancelled, whichever comes first. Per-iteration failures
// are logged and skipped; they never kill the worker.
func (s *Scheduler) worker(ctx context.Context,
	id int,
	eligible []puzzles.Puzzle,
	outcomes chan<- *checker.Outcome) {

	defer func() {
		if r := recover(); r != nil {
			logger.LogStatus(s.log, constants.LogError,
				"Worker %d panicked: %v", id, r)
		}
	}()

	// Puzzle selection only needs speed, not crypto strength; key
	// material itself always comes from crypto/rand inside keygen.
	rnd := rand.New(rand.NewSource(uint64(time.Now().UnixNano()) + uint64(id)))

	logger.LogDebug(s.log, constants.LogDebug, "Worker %d started", id)
	checks := 0

	for {
		select {
		case <-ctx.Done():
			logger.LogDebug(s.log, constants.LogDebug,
				"Worker %d stopping after %d checks", id, checks)
			return
		default:
		}

		puzzle := &eligible[rnd.Intn(len(eligible))]

		start, end, err := puzzle.Range()
		if err != nil {
			logger.LogStatus(s.log, constants.LogWarn,
				"Worker %d range parse: %v", id, err)
			continue
		}

		priv, err := keygen.RandomKeyInRange(start, end)
		if err != nil {
			logger.LogStatus(s.log, constants.LogWarn,
				"Worker %d key generation: %v", id, err)
			continue
		}

		outcome, err := checker.Check(priv, puzzle)
		if err != nil {
			logger.LogStatus(s.log, constants.LogWarn,
				"Worker %d check: %v", id, err)
			continue
		}
		checks++

		// Backpressure send, raced against cancellation so a worker
		// can never block past the end of its session.
		select {
		case outcomes <- outcome:
		case <-ctx.Done():
			logger.LogDebug(s.log, constants.LogDebug,
				"Worker %d stopping after %d checks", id, checks)
			return
		}
	}
}

// aggregate is the single consumer of all workers' outcomes. The
// first match in arrival order cancels the session and is returned
// for post-session side effects; later matches in the same drain are
// still counted, but fire nothing.
func (s *Scheduler) aggregate(cancel context.CancelFunc,
	outcomes <-chan *checker.Outcome,
	sessionStart time.Time) (*checker.Outcome, uint64) {

	var first *checker.Outcome
	var drained uint64
	solved := false

	// Safety net: a wedged worker must not hang the session forever.
	grace := time.NewTimer(time.Until(sessionStart.
		Add(s.cfg.SessionDuration + s.cfg.JoinGrace)))
	defer grace.Stop()

	for {
		select {
		case outcome, ok := <-outcomes:
			if !ok {
				return first, drained
			}
			drained++
			s.state.RecordCheck(outcome)

			if outcome.IsMatch && !solved {
				solved = true
				first = outcome
				cancel()
				logger.LogHeaderStatus(s.log, constants.LogCheck,
					"%s Puzzle %d solved, stopping all workers",
					constants.EmojiFound, outcome.PuzzleNumber)
			}

		case <-grace.C:
			logger.LogStatus(s.log, constants.LogWarn,
				"Session join exceeded grace window, abandoning %d workers",
				s.cfg.Workers)
			return first, drained
		}
	}
}

// handleSolution runs the post-session side effects for the first
// match: notification, persistence, auto-pause.
func (s *Scheduler) handleSolution(outcome *checker.Outcome) {
	puzzle := s.puzzles.ByNumber(outcome.PuzzleNumber)
	if puzzle == nil {
		// Cannot happen for outcomes produced from the same set, but
		// losing the key record over a nil deref would be unforgivable.
		puzzle = &puzzles.Puzzle{Number: outcome.PuzzleNumber,
			Address: outcome.TargetAddress}
	}

	logger.LogStatus(s.log, constants.LogCheck,
		"%s FOUND: puzzle %d key %s (%s)",
		constants.EmojiKey,
		outcome.PuzzleNumber,
		outcome.PrivateKeyHex,
		outcome.MatchVariant)

	if s.notifier != nil {
		if err := s.notifier.NotifySolved(outcome, puzzle); err != nil {
			logger.LogError(s.log, constants.LogError, err,
				"Solved notification failed")
		}
	}

	if s.store != nil {
		if err := s.store.SaveSolution(outcome, puzzle); err != nil {
			logger.LogError(s.log, constants.LogError, err,
				fmt.Sprintf("PERSIST FAILED, key %s must be copied from this log",
					outcome.PrivateKeyHex))
		}
	}

	// Auto-pause. Restarting after a solve is an operator decision.
	s.state.SetRunning(false)
	logger.LogStatus(s.log, constants.LogWarn,
		"Solver paused after solution, manual restart required")
}
