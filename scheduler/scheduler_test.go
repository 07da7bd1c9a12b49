package scheduler

import (
	"context"
	"io"
	"log"
	"math/big"
	"sync"
	"testing"
	"time"

	"Wendigo/checker"
	"Wendigo/control"
	"Wendigo/keygen"
	"Wendigo/puzzles"
)

type fakeNotifier struct {
	mu         sync.Mutex
	startups   int
	statsCalls int
	errors     int
	solved     int
	lastSolved *checker.Outcome
}

func (f *fakeNotifier) NotifyStartup(int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.startups++
	return nil
}

func (f *fakeNotifier) NotifyStats(checker.Stats, float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statsCalls++
	return nil
}

func (f *fakeNotifier) NotifyError(string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errors++
	return nil
}

func (f *fakeNotifier) NotifySolved(o *checker.Outcome, _ *puzzles.Puzzle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.solved++
	f.lastSolved = o
	return nil
}

type fakeStore struct {
	mu          sync.Mutex
	solutions   []*checker.Outcome
	checkpoints int
}

func (f *fakeStore) SaveSolution(o *checker.Outcome, _ *puzzles.Puzzle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.solutions = append(f.solutions, o)
	return nil
}

func (f *fakeStore) SaveCheckpoint(checker.Stats) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checkpoints++
	return nil
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.MinBits = nil
	cfg.MaxBits = nil
	cfg.MinReward = nil
	cfg.Workers = 4
	cfg.SessionDuration = 300 * time.Millisecond
	cfg.LaunchInterval = 40 * time.Millisecond
	cfg.JoinGrace = 2 * time.Second
	cfg.SendStats = false
	return cfg
}

func testScheduler(cfg Config,
	collection *puzzles.Collection,
	state *control.State,
	n *fakeNotifier,
	st *fakeStore) *Scheduler {

	return New(cfg, collection, state, n, st,
		log.New(io.Discard, "", 0))
}

func TestAggregatorFirstMatchWins(t *testing.T) {
	state := control.NewState(1, true)
	s := testScheduler(testConfig(), &puzzles.Collection{}, state,
		&fakeNotifier{}, &fakeStore{})

	const total = 10
	outcomes := make(chan *checker.Outcome, total)
	for i := 0; i < total; i++ {
		o := &checker.Outcome{PuzzleNumber: i}
		// Two matches in the same drain batch: both are counted,
		// only the first may win.
		if i == 3 || i == 7 {
			o.IsMatch = true
			o.MatchVariant = checker.VariantCompressed
		}
		outcomes <- o
	}
	close(outcomes)

	var cancels int
	cancel := func() { cancels++ }

	first, drained := s.aggregate(cancel, outcomes, time.Now())

	if first == nil || first.PuzzleNumber != 3 {
		t.Fatalf("first = %+v, want outcome 3", first)
	}
	if drained != total {
		t.Errorf("drained = %d, want %d", drained, total)
	}
	if cancels != 1 {
		t.Errorf("cancel called %d times, want 1", cancels)
	}

	stats := state.Stats()
	if stats.TotalChecked != total {
		t.Errorf("TotalChecked = %d, want %d", stats.TotalChecked, total)
	}
	if stats.MatchesFound != 2 {
		t.Errorf("MatchesFound = %d, want 2 (both counted)", stats.MatchesFound)
	}
}

func TestRunSessionJoinsWithinGrace(t *testing.T) {
	collection := &puzzles.Collection{Puzzles: []puzzles.Puzzle{{
		Number:     1,
		Bits:       16,
		RangeStart: "0x1",
		RangeEnd:   "0xffff",
		Address:    "1NoSuchAddressEverMatchesThisOne",
	}}}

	cfg := testConfig()
	cfg.Workers = 8
	state := control.NewState(1, true)
	notifier := &fakeNotifier{}
	s := testScheduler(cfg, collection, state, notifier, &fakeStore{})

	started := time.Now()
	if err := s.runSession(context.Background()); err != nil {
		t.Fatalf("runSession failed: %v", err)
	}
	elapsed := time.Since(started)

	if elapsed > cfg.SessionDuration+cfg.JoinGrace {
		t.Errorf("session took %s, exceeds deadline+grace", elapsed)
	}

	stats := state.Stats()
	if stats.TotalChecked == 0 {
		t.Error("no outcomes drained from a full session")
	}
	if stats.MatchesFound != 0 {
		t.Errorf("MatchesFound = %d, want 0", stats.MatchesFound)
	}
	if notifier.solved != 0 {
		t.Errorf("solved notifications = %d, want 0", notifier.solved)
	}
	if !state.Running() {
		t.Error("matchless session must not pause the solver")
	}
}

func TestRunSessionSolvesOnceAndPauses(t *testing.T) {
	// Derive the real target for the degenerate range so any sampled
	// key (always 0x1000) is a guaranteed match.
	priv, err := keygen.RandomKeyInRange(big.NewInt(0x1000), big.NewInt(0x1000))
	if err != nil {
		t.Fatal(err)
	}
	compressed, _, err := checker.DeriveAddresses(priv)
	if err != nil {
		t.Fatal(err)
	}

	collection := &puzzles.Collection{Puzzles: []puzzles.Puzzle{{
		Number:     99,
		Bits:       13,
		RangeStart: "0x1000",
		RangeEnd:   "0x1000",
		Address:    compressed,
		RewardBTC:  1.5,
	}}}

	cfg := testConfig()
	cfg.SessionDuration = 10 * time.Second // cancellation must end it early
	state := control.NewState(1, true)
	notifier := &fakeNotifier{}
	st := &fakeStore{}
	s := testScheduler(cfg, collection, state, notifier, st)

	started := time.Now()
	if err := s.runSession(context.Background()); err != nil {
		t.Fatalf("runSession failed: %v", err)
	}

	if elapsed := time.Since(started); elapsed > 5*time.Second {
		t.Errorf("first match took %s to stop the session", elapsed)
	}

	if notifier.solved != 1 {
		t.Errorf("solved notifications = %d, want exactly 1", notifier.solved)
	}
	if len(st.solutions) != 1 {
		t.Errorf("persisted solutions = %d, want exactly 1", len(st.solutions))
	}
	if notifier.lastSolved == nil || notifier.lastSolved.PuzzleNumber != 99 {
		t.Errorf("solved outcome = %+v", notifier.lastSolved)
	}
	if notifier.lastSolved.MatchVariant != checker.VariantCompressed {
		t.Errorf("variant = %q", notifier.lastSolved.MatchVariant)
	}

	if state.Running() {
		t.Error("solver must auto-pause after a solution")
	}
	if state.Stats().MatchesFound == 0 {
		t.Error("match not counted")
	}
}

func TestRunSessionEmptyEligibleSkips(t *testing.T) {
	collection := &puzzles.Collection{Puzzles: []puzzles.Puzzle{{
		Number: 1, Bits: 16,
		RangeStart: "0x1", RangeEnd: "0xffff",
		Address: "1NoSuchAddress",
	}}}

	cfg := testConfig()
	minBits := 200
	cfg.MinBits = &minBits

	state := control.NewState(1, true)
	s := testScheduler(cfg, collection, state, &fakeNotifier{}, &fakeStore{})

	if err := s.runSession(context.Background()); err != nil {
		t.Fatalf("empty eligible set must not error: %v", err)
	}
	if state.Stats().TotalChecked != 0 {
		t.Error("skipped session must leave stats unchanged")
	}
}

func TestRunPausedTicksAreNoOps(t *testing.T) {
	collection := &puzzles.Collection{Puzzles: []puzzles.Puzzle{{
		Number: 1, Bits: 16,
		RangeStart: "0x1", RangeEnd: "0xffff",
		Address: "1NoSuchAddress",
	}}}

	cfg := testConfig()
	state := control.NewState(1, false) // paused
	notifier := &fakeNotifier{}
	s := testScheduler(cfg, collection, state, notifier, &fakeStore{})

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	_ = s.Run(ctx)

	if got := state.Stats().TotalChecked; got != 0 {
		t.Errorf("paused ticks changed stats: TotalChecked = %d", got)
	}
	if notifier.startups != 1 {
		t.Errorf("startup notifications = %d, want 1", notifier.startups)
	}
}

func TestRunStatsTicks(t *testing.T) {
	cfg := testConfig()
	cfg.SendStats = true
	cfg.StatsInterval = 40 * time.Millisecond
	cfg.LaunchInterval = time.Hour // keep sessions out of this test

	state := control.NewState(0, false)
	notifier := &fakeNotifier{}
	st := &fakeStore{}
	s := testScheduler(cfg, &puzzles.Collection{}, state, notifier, st)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	_ = s.Run(ctx)

	if notifier.statsCalls == 0 {
		t.Error("no stats notifications sent")
	}
	if st.checkpoints == 0 {
		t.Error("no stats checkpoints written")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Workers <= 0 {
		t.Error("default worker count must be positive")
	}
	if cfg.OutcomeBuffer <= 0 {
		t.Error("outcome channel must be bounded but non-zero")
	}
	if cfg.MinBits == nil || *cfg.MinBits != 14 {
		t.Errorf("default min bits = %v, want 14", cfg.MinBits)
	}
}
