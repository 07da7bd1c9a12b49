package store

import (
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"Wendigo/checker"
	"Wendigo/puzzles"
	"Wendigo/utils"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()

	s, err := Open(
		filepath.Join(dir, "solutions.db"),
		filepath.Join(dir, "solutions.log"),
		&utils.MemoryLimits{BlockCache: 8 << 20, WriteBuffer: 4 << 20},
		log.New(io.Discard, "", 0))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveSolutionRoundTrip(t *testing.T) {
	s := openTestStore(t)

	outcome := &checker.Outcome{
		PuzzleNumber:  66,
		PrivateKeyHex: "00000000000000000000000000000000000000000000000000000000000ffff0",
		TargetAddress: "13zb1hQbWVsc2S7ZTZnP2G4undNNpdh5so",
		IsMatch:       true,
		MatchVariant:  checker.VariantCompressed,
	}
	puzzle := &puzzles.Puzzle{Number: 66, Bits: 66, RewardBTC: 6.6}

	if err := s.SaveSolution(outcome, puzzle); err != nil {
		t.Fatalf("SaveSolution failed: %v", err)
	}

	record, err := s.Solution(66)
	if err != nil {
		t.Fatalf("Solution failed: %v", err)
	}
	if record == nil {
		t.Fatal("solution record missing")
	}
	if record.PrivateKeyHex != outcome.PrivateKeyHex {
		t.Errorf("key hex = %s", record.PrivateKeyHex)
	}
	if record.RewardBTC != 6.6 || record.MatchVariant != "compressed" {
		t.Errorf("record = %+v", record)
	}

	// The append-only log must carry the key too.
	data, err := os.ReadFile(s.logPath)
	if err != nil {
		t.Fatalf("solution log missing: %v", err)
	}
	line := string(data)
	if !strings.Contains(line, outcome.PrivateKeyHex) {
		t.Errorf("log line lacks key: %q", line)
	}
	if !strings.Contains(line, "PUZZLE 66 SOLVED") {
		t.Errorf("log line lacks header: %q", line)
	}
}

func TestSaveSolutionAppends(t *testing.T) {
	s := openTestStore(t)

	o := &checker.Outcome{PuzzleNumber: 1, PrivateKeyHex: "01", TargetAddress: "a"}
	p := &puzzles.Puzzle{Number: 1}
	for i := 0; i < 3; i++ {
		if err := s.SaveSolution(o, p); err != nil {
			t.Fatalf("SaveSolution failed: %v", err)
		}
	}

	data, err := os.ReadFile(s.logPath)
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.Count(string(data), "PUZZLE 1 SOLVED"); got != 3 {
		t.Errorf("log has %d entries, want 3", got)
	}
}

func TestSolutionNotFound(t *testing.T) {
	s := openTestStore(t)

	record, err := s.Solution(123)
	if err != nil {
		t.Fatalf("Solution failed: %v", err)
	}
	if record != nil {
		t.Errorf("expected nil for unsolved puzzle, got %+v", record)
	}
}

func TestCheckpointRoundTrip(t *testing.T) {
	s := openTestStore(t)

	if _, ok, err := s.LoadCheckpoint(); err != nil || ok {
		t.Fatalf("fresh store: ok=%v err=%v, want no checkpoint", ok, err)
	}

	want := checker.Stats{
		TotalChecked:   12345,
		MatchesFound:   1,
		CompressedHits: 1,
		CurrentPuzzle:  66,
	}
	if err := s.SaveCheckpoint(want); err != nil {
		t.Fatalf("SaveCheckpoint failed: %v", err)
	}

	got, ok, err := s.LoadCheckpoint()
	if err != nil || !ok {
		t.Fatalf("LoadCheckpoint: ok=%v err=%v", ok, err)
	}
	if got != want {
		t.Errorf("checkpoint = %+v, want %+v", got, want)
	}
}
