package keygen

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/btcsuite/btcd/btcec/v2"
)

// RandomKeyInRange samples a uniformly random scalar in
// [start, end] inclusive and builds a secp256k1 private key from it.
// The degenerate start == end range always yields start.
func RandomKeyInRange(start, end *big.Int) (*btcec.PrivateKey, error) {
	if start.Cmp(end) > 0 {
		return nil, fmt.Errorf("range start %s above range end %s",
			start.Text(16), end.Text(16))
	}

	// rand.Int samples [0, size), so size must cover end inclusively.
	size := new(big.Int).Sub(end, start)
	size.Add(size, big.NewInt(1))

	offset, err := rand.Int(rand.Reader, size)
	if err != nil {
		return nil, fmt.Errorf("sample scalar: %w", err)
	}

	scalar := offset.Add(offset, start)
	keyBytes, err := ScalarBytes(scalar)
	if err != nil {
		return nil, err
	}

	priv, _ := btcec.PrivKeyFromBytes(keyBytes[:])
	return priv, nil
}

// ScalarBytes left-pads a scalar into the 32-byte big-endian form
// btcec expects. Scalars wider than 32 bytes cannot be curve keys.
func ScalarBytes(scalar *big.Int) ([32]byte, error) {
	var out [32]byte
	b := scalar.Bytes()
	if len(b) > 32 {
		return out, fmt.Errorf("scalar is %d bytes, exceeds secp256k1 key size", len(b))
	}
	copy(out[32-len(b):], b)
	return out, nil
}
