package puzzles

import (
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"strings"
)

// Puzzle is one disclosed search range with its target address.
// Loaded once at startup and shared read-only for the process life.
type Puzzle struct {
	Number     int     `json:"puzzle"`
	Bits       int     `json:"bits"`
	RangeStart string  `json:"range_start"`
	RangeEnd   string  `json:"range_end"`
	Address    string  `json:"address"`
	RewardBTC  float64 `json:"reward_btc"`
}

func parseHex(s string) (*big.Int, error) {
	trimmed := strings.TrimPrefix(s, "0x")
	n, ok := new(big.Int).SetString(trimmed, 16)
	if !ok {
		return nil, fmt.Errorf("invalid hex value %q", s)
	}
	return n, nil
}

// Range parses both bounds of the puzzle's key range.
func (p *Puzzle) Range() (start, end *big.Int, err error) {
	if start, err = parseHex(p.RangeStart); err != nil {
		return nil, nil, fmt.Errorf("range start: %w", err)
	}
	if end, err = parseHex(p.RangeEnd); err != nil {
		return nil, nil, fmt.Errorf("range end: %w", err)
	}
	if start.Cmp(end) > 0 {
		return nil, nil, fmt.Errorf("puzzle %d: range start above range end", p.Number)
	}
	return start, end, nil
}

// RangeSize returns end - start + 1.
func (p *Puzzle) RangeSize() (*big.Int, error) {
	start, end, err := p.Range()
	if err != nil {
		return nil, err
	}
	size := new(big.Int).Sub(end, start)
	return size.Add(size, big.NewInt(1)), nil
}

// Collection holds every puzzle loaded from disk.
type Collection struct {
	Puzzles []Puzzle
}

// Load reads the puzzle set from a JSON file. A failure here is fatal
// to startup; there is nothing to search without it.
func Load(path string) (*Collection, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read puzzle file: %w", err)
	}

	var list []Puzzle
	if err := json.Unmarshal(content, &list); err != nil {
		return nil, fmt.Errorf("parse puzzle file %s: %w", path, err)
	}

	return &Collection{Puzzles: list}, nil
}

// ByNumber finds a puzzle by its number, nil when absent.
func (c *Collection) ByNumber(n int) *Puzzle {
	for i := range c.Puzzles {
		if c.Puzzles[i].Number == n {
			return &c.Puzzles[i]
		}
	}
	return nil
}

func (c *Collection) Len() int {
	return len(c.Puzzles)
}
