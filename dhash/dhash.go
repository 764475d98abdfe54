package dhash

import (
	"fmt"
	"hash/fnv"
	"image"
	"math"
	"math/big"

	"github.com/kovidgoyal/imaging"

	"github.com/diepinto30/JImageHash/hash"
	"github.com/diepinto30/JImageHash/utils"
)

// The gradient tracking approach here is the difference hash outlined at
// https://www.hackerfactor.com/blog/index.php?/archives/529-Kind-of-Like-That.html
// generalized to an arbitrary bit resolution and extra gradient directions
// in the spirit of https://github.com/KilianB/JImageHash

// Precision selects which gradient directions contribute bits to a hash.
type Precision int

const (
	// Simple tracks the left to right gradient only
	Simple Precision = iota
	// Double additionally tracks the top to bottom gradient, doubling the hash length
	Double
	// Triple additionally tracks the diagonal gradient, tripling the hash length
	Triple
)

// Precisions maps the cli friendly names to their precision levels
var Precisions = map[string]Precision{
	"simple": Simple,
	"double": Double,
	"triple": Triple,
}

// The name feeds the algorithm id, renaming a level orphans any stored hashes
func (p Precision) String() string {
	switch p {
	case Simple:
		return "Simple"
	case Double:
		return "Double"
	case Triple:
		return "Triple"
	}
	return "Unknown"
}

// algorithmKind tags the hash family and its revision. Hashes only compare
// when their algorithm ids match, so this must be bumped whenever the bit
// extraction itself changes, flagging old and new hashes as incompatible.
const algorithmKind = "jimagehash/dhash/2"

// Hasher computes difference hashes at a fixed grid size and precision.
// It is immutable once constructed and safe for concurrent use.
type Hasher struct {
	bitResolution int
	precision     Precision
	width, height int
	algorithmID   uint64
}

// New creates a Hasher that produces hashes of approximately bitResolution
// bits. The exact length depends on the resolved sampling grid, see BitLength.
// Resolutions too small to resolve to at least a 2x2 grid are rejected.
func New(bitResolution int, precision Precision) (*Hasher, error) {
	if bitResolution < 1 {
		return nil, fmt.Errorf("bit resolution must be positive, got %d", bitResolution)
	}
	if precision < Simple || precision > Triple {
		return nil, fmt.Errorf("unknown precision level %d", precision)
	}
	width, height := resolveDimensions(bitResolution)
	if width < 2 || height < 2 {
		return nil, fmt.Errorf("a bit resolution of %d resolves to a %dx%d grid, too small to track any gradient", bitResolution, width, height)
	}
	h := &Hasher{
		bitResolution: bitResolution,
		precision:     precision,
		width:         width,
		height:        height,
	}
	h.algorithmID = h.computeAlgorithmID()
	return h, nil
}

// An exact hit on the requested resolution is usually impossible since the
// bit count grows quadratically with the grid side. Pick the grid whose bit
// count lands closest, leaning toward the larger grid on a tie.
func resolveDimensions(bitResolution int) (width, height int) {
	d := int(math.Round(math.Sqrt(float64(bitResolution + 1))))

	lower := (d-1)*(d-1) + 1
	normal := (d-1)*d + 1
	higher := (d-1)*(d+1) + 1

	width, height = d, d
	if lower >= bitResolution {
		height--
	} else if higher < bitResolution {
		width++
		height++
	} else if normal < bitResolution || (normal-bitResolution) > (higher-bitResolution) {
		height++
	}
	return
}

func (h *Hasher) Width() int { return h.width }

func (h *Hasher) Height() int { return h.height }

func (h *Hasher) Precision() Precision { return h.precision }

func (h *Hasher) BitResolution() int { return h.bitResolution }

func (h *Hasher) AlgorithmID() uint64 { return h.algorithmID }

// BitLength is the number of gradient bits a hash will carry, not counting
// the leading marker bit that guards against zero truncation.
func (h *Hasher) BitLength() int {
	bits := (h.width - 1) * h.height
	if h.precision != Simple {
		bits += h.width * (h.height - 1)
	}
	if h.precision == Triple {
		bits += (h.width - 1) * (h.height - 1)
	}
	return bits
}

// Derived from the full configuration so that hashes produced under any
// differing setup can never be mistaken for comparable. FNV-1a over a plain
// string keeps the id stable across runs and platforms.
func (h *Hasher) computeAlgorithmID() uint64 {
	f := fnv.New64a()
	fmt.Fprintf(f, "%s:%d:%d:%s", algorithmKind, h.width, h.height, h.precision)
	return f.Sum64()
}

// Hash computes the difference hash of an image. The image is scaled down
// to the resolved grid and reduced to luminance before the gradient scan.
func (h *Hasher) Hash(img image.Image) *hash.Hash {
	scaled := imaging.Resize(img, h.width, h.height, imaging.Lanczos)
	fp, _ := h.HashLuma(utils.Luma(scaled))
	return fp
}

// HashLuma computes the difference hash over an already prepared column
// major luminance grid. The grid must be exactly Width x Height, anything
// else means the caller scaled against the wrong configuration.
//
// Bits are emitted most significant first: a fixed 1 marker bit, then the
// left to right gradient, then top to bottom for Double and Triple, then
// the diagonal for Triple. A bit is 1 only when the luminance strictly
// decreases between the two samples, so a flat image hashes to all zeros
// past the marker.
func (h *Hasher) HashLuma(lum [][]int) (*hash.Hash, error) {
	if len(lum) != h.width {
		return nil, fmt.Errorf("luma grid is %d columns wide, expected %d", len(lum), h.width)
	}
	for x := range lum {
		if len(lum[x]) != h.height {
			return nil, fmt.Errorf("luma grid column %d holds %d rows, expected %d", x, len(lum[x]), h.height)
		}
	}

	// Setting the marker first sizes the backing words once so the
	// gradient bits below never reallocate
	v := new(big.Int)
	pos := h.BitLength()
	v.SetBit(v, pos, 1)

	for x := 1; x < h.width; x++ {
		for y := 0; y < h.height; y++ {
			pos--
			if lum[x][y] < lum[x-1][y] {
				v.SetBit(v, pos, 1)
			}
		}
	}

	if h.precision != Simple {
		for x := 0; x < h.width; x++ {
			for y := 1; y < h.height; y++ {
				pos--
				if lum[x][y] < lum[x][y-1] {
					v.SetBit(v, pos, 1)
				}
			}
		}
	}

	if h.precision == Triple {
		for x := 1; x < h.width; x++ {
			for y := 1; y < h.height; y++ {
				pos--
				if lum[x][y] < lum[x-1][y-1] {
					v.SetBit(v, pos, 1)
				}
			}
		}
	}

	return hash.New(v, h.algorithmID), nil
}
