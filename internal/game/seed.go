package game

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"io"

	"sifir-drill-service/internal/domain"
)

// entropy is swapped in tests to simulate a broken random source.
var entropy io.Reader = crand.Reader

// NewSeed reads a PRNG seed from the system's cryptographic source.
// A failure wraps domain.ErrEntropyUnavailable; callers treat it as fatal.
func NewSeed() (int64, error) {
	var b [8]byte
	if _, err := io.ReadFull(entropy, b[:]); err != nil {
		return 0, fmt.Errorf("%w: read seed: %v", domain.ErrEntropyUnavailable, err)
	}
	return int64(binary.LittleEndian.Uint64(b[:])), nil
}
