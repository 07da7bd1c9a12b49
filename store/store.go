package store

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/filter"
	"github.com/syndtr/goleveldb/leveldb/opt"

	"Wendigo/checker"
	"Wendigo/constants"
	"Wendigo/logger"
	"Wendigo/puzzles"
	"Wendigo/utils"
)

const checkpointKey = "checkpoint:stats"

// SolutionRecord is the persisted form of a solved puzzle. Losing one
// of these means losing a recovered private key, so writes retry.
type SolutionRecord struct {
	Timestamp     string  `json:"timestamp"`
	PuzzleNumber  int     `json:"puzzle_id"`
	PrivateKeyHex string  `json:"key_hex"`
	TargetAddress string  `json:"target_address"`
	RewardBTC     float64 `json:"reward_btc"`
	MatchVariant  string  `json:"match_variant"`
}

// Store keeps solved puzzles in LevelDB and mirrors each solve into
// an append-only text log. It also checkpoints aggregate counters so
// they survive restarts.
type Store struct {
	db      *leveldb.DB
	logPath string
	log     *log.Logger
	mu      sync.Mutex
}

// Open opens (or creates) the solution database. Cache sizes come
// from system memory; the database itself stays tiny.
func Open(dbPath, logPath string,
	limits *utils.MemoryLimits,
	localLog *log.Logger) (*Store, error) {

	opts := &opt.Options{
		BlockCacheCapacity: limits.BlockCache,
		WriteBuffer:        limits.WriteBuffer,
		Filter:             filter.NewBloomFilter(10),
	}

	db, err := leveldb.OpenFile(dbPath, opts)
	if err != nil {
		return nil, fmt.Errorf("open solution database: %w", err)
	}

	return &Store{
		db:      db,
		logPath: logPath,
		log:     localLog,
	}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) retryPolicy() backoff.BackOff {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = constants.StoreRetryInitial
	return backoff.WithMaxRetries(policy, constants.StoreRetryMax)
}

// SaveSolution records one solved puzzle: a LevelDB record keyed by
// puzzle number plus an appended line in the solutions log. Both
// writes retry with exponential backoff before giving up.
func (s *Store) SaveSolution(o *checker.Outcome, p *puzzles.Puzzle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record := SolutionRecord{
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		PuzzleNumber:  o.PuzzleNumber,
		PrivateKeyHex: o.PrivateKeyHex,
		TargetAddress: o.TargetAddress,
		RewardBTC:     p.RewardBTC,
		MatchVariant:  string(o.MatchVariant),
	}

	data, err := json.Marshal(&record)
	if err != nil {
		return fmt.Errorf("marshal solution: %w", err)
	}

	key := []byte(fmt.Sprintf("solved:%d", o.PuzzleNumber))
	err = backoff.Retry(func() error {
		if perr := s.db.Put(key, data, nil); perr != nil {
			logger.LogStatus(s.log, constants.LogRetry,
				"Solution db write failed, retrying: %v", perr)
			return perr
		}
		return nil
	}, s.retryPolicy())
	if err != nil {
		return fmt.Errorf("persist solution record: %w", err)
	}

	if err := s.appendSolutionLine(&record); err != nil {
		return err
	}

	logger.LogStatus(s.log, constants.LogDB,
		"Solution for puzzle %d saved to %s", o.PuzzleNumber, s.logPath)
	return nil
}

func (s *Store) appendSolutionLine(r *SolutionRecord) error {
	line := fmt.Sprintf("[%s] PUZZLE %d SOLVED - Key: %s, Address: %s, Reward: %g BTC\n",
		r.Timestamp, r.PuzzleNumber, r.PrivateKeyHex, r.TargetAddress, r.RewardBTC)

	err := backoff.Retry(func() error {
		f, ferr := os.OpenFile(s.logPath,
			os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if ferr != nil {
			logger.LogStatus(s.log, constants.LogRetry,
				"Solution log open failed, retrying: %v", ferr)
			return ferr
		}
		defer f.Close()

		if _, werr := f.WriteString(line); werr != nil {
			logger.LogStatus(s.log, constants.LogRetry,
				"Solution log write failed, retrying: %v", werr)
			return werr
		}
		return f.Sync()
	}, s.retryPolicy())
	if err != nil {
		return fmt.Errorf("append solution log: %w", err)
	}
	return nil
}

// Solution returns the stored record for a puzzle, nil when unsolved.
func (s *Store) Solution(puzzleNumber int) (*SolutionRecord, error) {
	data, err := s.db.Get([]byte(fmt.Sprintf("solved:%d", puzzleNumber)), nil)
	if err == leveldb.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read solution record: %w", err)
	}

	var record SolutionRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("decode solution record: %w", err)
	}
	return &record, nil
}

// SaveCheckpoint persists the aggregate counters. Best effort: a lost
// checkpoint only resets displayed totals, never a solved key.
func (s *Store) SaveCheckpoint(stats checker.Stats) error {
	data, err := json.Marshal(&stats)
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}
	if err := s.db.Put([]byte(checkpointKey), data, nil); err != nil {
		return fmt.Errorf("persist checkpoint: %w", err)
	}
	return nil
}

// LoadCheckpoint restores the last saved counters. The second return
// is false when no checkpoint exists yet.
func (s *Store) LoadCheckpoint() (checker.Stats, bool, error) {
	var stats checker.Stats

	data, err := s.db.Get([]byte(checkpointKey), nil)
	if err == leveldb.ErrNotFound {
		return stats, false, nil
	}
	if err != nil {
		return stats, false, fmt.Errorf("read checkpoint: %w", err)
	}

	if err := json.Unmarshal(data, &stats); err != nil {
		return stats, false, fmt.Errorf("decode checkpoint: %w", err)
	}
	return stats, true, nil
}
