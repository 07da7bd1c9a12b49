package puzzles

// Bounds constrains which puzzles a session searches. A nil field
// leaves that dimension unconstrained.
type Bounds struct {
	MinBits   *int
	MaxBits   *int
	MinReward *float64
}

// Eligible returns the subset of puzzles satisfying every supplied
// bound. Pure: no side effects, input slice untouched. Cheap enough
// to recompute every session.
func Eligible(all []Puzzle, b Bounds) []Puzzle {
	out := make([]Puzzle, 0, len(all))
	for _, p := range all {
		if b.MinBits != nil && p.Bits < *b.MinBits {
			continue
		}
		if b.MaxBits != nil && p.Bits > *b.MaxBits {
			continue
		}
		if b.MinReward != nil && p.RewardBTC < *b.MinReward {
			continue
		}
		out = append(out, p)
	}
	return out
}
