package checker

// Stats accumulates check counters for the life of the process.
// Counters only ever grow; the session aggregator is the sole writer.
type Stats struct {
	TotalChecked      uint64
	MatchesFound      uint64
	CompressedHits    uint64
	UncompressedHits  uint64
	CurrentPuzzle     int
	HaveCurrentPuzzle bool
}

func (s *Stats) RecordCheck(o *Outcome) {
	s.TotalChecked++
	s.CurrentPuzzle = o.PuzzleNumber
	s.HaveCurrentPuzzle = true

	if !o.IsMatch {
		return
	}
	s.MatchesFound++
	switch o.MatchVariant {
	case VariantCompressed:
		s.CompressedHits++
	case VariantUncompressed:
		s.UncompressedHits++
	}
}

func (s *Stats) MatchRate() float64 {
	if s.TotalChecked == 0 {
		return 0
	}
	return float64(s.MatchesFound) / float64(s.TotalChecked)
}
