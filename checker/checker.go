package checker

import (
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcutil"

	"Wendigo/puzzles"
)

// Variant names which derived address form matched the target.
type Variant string

const (
	VariantNone         Variant = ""
	VariantCompressed   Variant = "compressed"
	VariantUncompressed Variant = "uncompressed"
)

// Outcome is the result of checking one sampled key against one
// puzzle's target address. Produced by a worker, consumed exactly
// once by the session aggregator.
type Outcome struct {
	PuzzleNumber  int
	PrivateKeyHex string
	Compressed    string
	Uncompressed  string
	TargetAddress string
	IsMatch       bool
	MatchVariant  Variant
}

// DeriveAddresses derives the legacy P2PKH addresses for both public
// key serializations of a private key. Puzzle targets are published
// in compressed form but the uncompressed form costs one more hash,
// so both are checked.
func DeriveAddresses(priv *btcec.PrivateKey) (compressed, uncompressed string, err error) {
	pub := priv.PubKey()

	compAddr, err := btcutil.NewAddressPubKeyHash(
		btcutil.Hash160(pub.SerializeCompressed()), &chaincfg.MainNetParams)
	if err != nil {
		return "", "", fmt.Errorf("derive compressed address: %w", err)
	}

	uncompAddr, err := btcutil.NewAddressPubKeyHash(
		btcutil.Hash160(pub.SerializeUncompressed()), &chaincfg.MainNetParams)
	if err != nil {
		return "", "", fmt.Errorf("derive uncompressed address: %w", err)
	}

	return compAddr.EncodeAddress(), uncompAddr.EncodeAddress(), nil
}

// Check derives both address variants for the key and compares each
// against the puzzle's target.
func Check(priv *btcec.PrivateKey, puzzle *puzzles.Puzzle) (*Outcome, error) {
	compressed, uncompressed, err := DeriveAddresses(priv)
	if err != nil {
		return nil, err
	}

	o := &Outcome{
		PuzzleNumber:  puzzle.Number,
		PrivateKeyHex: hex.EncodeToString(priv.Serialize()),
		Compressed:    compressed,
		Uncompressed:  uncompressed,
		TargetAddress: puzzle.Address,
	}

	switch puzzle.Address {
	case compressed:
		o.IsMatch = true
		o.MatchVariant = VariantCompressed
	case uncompressed:
		o.IsMatch = true
		o.MatchVariant = VariantUncompressed
	}

	return o, nil
}
