package hash

import (
	"fmt"
	"math/big"
	"math/bits"
)

// Hash is the fingerprint of an image: the gradient bits packed into a big
// integer together with the id of the algorithm configuration that produced
// them. Hashes from different configurations encode different things entirely
// and the id is there to catch any attempt at comparing them.
//
// The most significant bit is always a fixed 1 marker so hashes starting
// with zero gradient bits keep their full length.
type Hash struct {
	value       *big.Int
	algorithmID uint64
}

// New copies value so the returned Hash stays immutable.
func New(value *big.Int, algorithmID uint64) *Hash {
	return &Hash{value: new(big.Int).Set(value), algorithmID: algorithmID}
}

func (h *Hash) AlgorithmID() uint64 { return h.algorithmID }

// BitLength includes the leading marker bit.
func (h *Hash) BitLength() int { return h.value.BitLen() }

// Bit reports the bit at index i, counted from the least significant end.
// The marker sits at index BitLength()-1.
func (h *Hash) Bit(i int) uint { return h.value.Bit(i) }

// BigInt returns a copy of the underlying bit sequence.
func (h *Hash) BigInt() *big.Int { return new(big.Int).Set(h.value) }

func (h *Hash) String() string {
	return fmt.Sprintf("0x%x", h.value)
}

// Hamming counts the differing bits between two hashes. Comparing hashes
// from differing algorithm configurations is a caller bug and errors out.
func (h *Hash) Hamming(other *Hash) (int, error) {
	if h.algorithmID != other.algorithmID {
		return 0, fmt.Errorf("cannot compare hashes from different algorithm configurations: %d vs %d", h.algorithmID, other.algorithmID)
	}
	return h.HammingFast(other), nil
}

// HammingFast skips the algorithm id check for hot paths where the caller
// already guarantees both hashes came from the same configuration.
func (h *Hash) HammingFast(other *Hash) int {
	xor := new(big.Int).Xor(h.value, other.value)
	var dist int
	for _, w := range xor.Bits() {
		dist += bits.OnesCount(uint(w))
	}
	return dist
}

// NormalizedHamming scales the distance by the gradient bit count so
// thresholds carry over between resolutions. 0 means identical, 1 means
// every gradient bit differs.
func (h *Hash) NormalizedHamming(other *Hash) (float64, error) {
	dist, err := h.Hamming(other)
	if err != nil {
		return 0, err
	}
	return float64(dist) / float64(h.value.BitLen()-1), nil
}
