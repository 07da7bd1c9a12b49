package control

import (
	"testing"

	"Wendigo/checker"
)

func TestRunFlag(t *testing.T) {
	s := NewState(10, false)
	if s.Running() {
		t.Fatal("state should start paused")
	}

	s.SetRunning(true)
	if !s.Running() {
		t.Fatal("SetRunning(true) not observed")
	}

	s.SetRunning(false)
	if s.Running() {
		t.Fatal("SetRunning(false) not observed")
	}
}

func TestRecordCheck(t *testing.T) {
	s := NewState(10, true)

	s.RecordCheck(&checker.Outcome{PuzzleNumber: 20})
	s.RecordCheck(&checker.Outcome{
		PuzzleNumber: 21, IsMatch: true,
		MatchVariant: checker.VariantUncompressed,
	})

	stats := s.Stats()
	if stats.TotalChecked != 2 {
		t.Errorf("TotalChecked = %d, want 2", stats.TotalChecked)
	}
	if stats.MatchesFound != 1 || stats.UncompressedHits != 1 {
		t.Errorf("match counters wrong: %+v", stats)
	}
	if stats.CurrentPuzzle != 21 {
		t.Errorf("CurrentPuzzle = %d, want 21", stats.CurrentPuzzle)
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	s := NewState(42, true)
	s.RecordCheck(&checker.Outcome{PuzzleNumber: 5})

	snap := s.Snapshot()
	if snap.TotalPuzzles != 42 || !snap.Running {
		t.Errorf("snapshot = %+v", snap)
	}

	// Mutations after the snapshot must not leak into it.
	s.RecordCheck(&checker.Outcome{PuzzleNumber: 6})
	if snap.Stats.TotalChecked != 1 {
		t.Errorf("snapshot mutated: %+v", snap.Stats)
	}
}

func TestRestoreStats(t *testing.T) {
	s := NewState(10, false)
	s.RestoreStats(checker.Stats{TotalChecked: 100, MatchesFound: 1})

	stats := s.Stats()
	if stats.TotalChecked != 100 || stats.MatchesFound != 1 {
		t.Errorf("restore lost counters: %+v", stats)
	}

	// Counters keep growing from the restored base.
	s.RecordCheck(&checker.Outcome{PuzzleNumber: 1})
	if s.Stats().TotalChecked != 101 {
		t.Errorf("TotalChecked = %d, want 101", s.Stats().TotalChecked)
	}
}
