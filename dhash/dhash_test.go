package dhash

import (
	"image"
	"image/color"
	"math/big"
	"testing"
)

func TestResolveDimensions(t *testing.T) {
	// Hand computed from the candidate bounds, the 8 case lands exactly
	// between grids and must favor the taller one
	cases := []struct {
		bitResolution int
		width, height int
	}{
		{3, 2, 2},
		{4, 2, 3},
		{7, 3, 3},
		{8, 3, 4},
		{10, 4, 4},
		{64, 8, 9},
	}
	for _, c := range cases {
		width, height := resolveDimensions(c.bitResolution)
		if width != c.width || height != c.height {
			t.Errorf("A bit resolution of %d resolved to a %dx%d grid but %dx%d was expected", c.bitResolution, width, height, c.width, c.height)
		}
	}
}

func TestInvalidConfig(t *testing.T) {
	if _, err := New(0, Simple); err == nil {
		t.Error("A zero bit resolution should be rejected")
	}
	if _, err := New(-8, Simple); err == nil {
		t.Error("A negative bit resolution should be rejected")
	}
	// 1 and 2 resolve to grids with a side below 2
	if _, err := New(1, Simple); err == nil {
		t.Error("A bit resolution of 1 should be rejected")
	}
	if _, err := New(2, Simple); err == nil {
		t.Error("A bit resolution of 2 should be rejected")
	}
	if _, err := New(64, Precision(7)); err == nil {
		t.Error("An unknown precision should be rejected")
	}
}

func TestBitLength(t *testing.T) {
	// 64 bits resolve to an 8x9 grid
	cases := []struct {
		precision Precision
		bits      int
	}{
		{Simple, 7 * 9},
		{Double, 7*9 + 8*8},
		{Triple, 7*9 + 8*8 + 7*8},
	}
	for _, c := range cases {
		hasher, err := New(64, c.precision)
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		if hasher.BitLength() != c.bits {
			t.Errorf("%s precision should produce %d gradient bits, got %d", c.precision, c.bits, hasher.BitLength())
		}
	}
}

func TestPrecisionGrowsHash(t *testing.T) {
	simple, _ := New(64, Simple)
	double, _ := New(64, Double)
	triple, _ := New(64, Triple)
	if double.BitLength() <= simple.BitLength() {
		t.Error("Double precision should produce a strictly longer hash than simple")
	}
	if triple.BitLength() <= double.BitLength() {
		t.Error("Triple precision should produce a strictly longer hash than double")
	}
}

func TestKnownHash(t *testing.T) {
	// A 2x2 grid brightening left to right, neither column comparison
	// sees a decrease so only the marker bit is set alongside two zeros
	hasher, err := New(3, Simple)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if hasher.Width() != 2 || hasher.Height() != 2 {
		t.Fatalf("Expected a 2x2 grid, got %dx%d", hasher.Width(), hasher.Height())
	}
	lum := [][]int{{10, 10}, {20, 20}}
	fp, err := hasher.HashLuma(lum)
	if err != nil {
		t.Fatalf("HashLuma: %v", err)
	}
	if fp.BigInt().Cmp(big.NewInt(0b100)) != 0 {
		t.Errorf("The hash should be binary 100, got %s", fp)
	}
}

func TestFlatHash(t *testing.T) {
	// No strict decrease anywhere means every gradient bit is zero and
	// only the marker survives, for every precision
	for _, precision := range []Precision{Simple, Double, Triple} {
		hasher, err := New(64, precision)
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		lum := make([][]int, hasher.Width())
		for x := range lum {
			lum[x] = make([]int, hasher.Height())
			for y := range lum[x] {
				lum[x][y] = 128
			}
		}
		fp, err := hasher.HashLuma(lum)
		if err != nil {
			t.Fatalf("HashLuma: %v", err)
		}
		marker := new(big.Int).Lsh(big.NewInt(1), uint(hasher.BitLength()))
		if fp.BigInt().Cmp(marker) != 0 {
			t.Errorf("A flat grid at %s precision should hash to the marker bit alone, got %s", precision, fp)
		}
	}
}

func TestFlatImage(t *testing.T) {
	hasher, err := New(64, Double)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	img := image.NewRGBA(image.Rect(0, 0, 100, 100))
	for y := 0; y < 100; y++ {
		for x := 0; x < 100; x++ {
			img.Set(x, y, color.White)
		}
	}
	fp := hasher.Hash(img)
	marker := new(big.Int).Lsh(big.NewInt(1), uint(hasher.BitLength()))
	if fp.BigInt().Cmp(marker) != 0 {
		t.Errorf("A uniform white image should hash to the marker bit alone, got %s", fp)
	}
}

func TestDarkeningGradient(t *testing.T) {
	// Luminance strictly falling left to right flips every gradient bit on
	hasher, err := New(64, Simple)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	lum := make([][]int, hasher.Width())
	for x := range lum {
		lum[x] = make([]int, hasher.Height())
		for y := range lum[x] {
			lum[x][y] = 100 - x*10
		}
	}
	fp, err := hasher.HashLuma(lum)
	if err != nil {
		t.Fatalf("HashLuma: %v", err)
	}
	allOnes := new(big.Int).Lsh(big.NewInt(1), uint(hasher.BitLength()+1))
	allOnes.Sub(allOnes, big.NewInt(1))
	if fp.BigInt().Cmp(allOnes) != 0 {
		t.Errorf("A darkening gradient should set every bit, got %s", fp)
	}
}

func TestMarkerBit(t *testing.T) {
	// The top bit is always the fixed marker regardless of the grid
	hasher, err := New(32, Triple)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	lum := make([][]int, hasher.Width())
	for x := range lum {
		lum[x] = make([]int, hasher.Height())
		for y := range lum[x] {
			lum[x][y] = (x*31 + y*17) % 256
		}
	}
	fp, err := hasher.HashLuma(lum)
	if err != nil {
		t.Fatalf("HashLuma: %v", err)
	}
	if fp.BitLength() != hasher.BitLength()+1 {
		t.Errorf("The hash should be %d bits with its marker, got %d", hasher.BitLength()+1, fp.BitLength())
	}
	if fp.Bit(hasher.BitLength()) != 1 {
		t.Error("The most significant bit of a hash should always be 1")
	}
}

func TestDeterminism(t *testing.T) {
	hasher, err := New(64, Double)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	img := image.NewRGBA(image.Rect(0, 0, 128, 128))
	for y := 0; y < 128; y++ {
		for x := 0; x < 128; x++ {
			v := uint8(x * 2)
			img.Set(x, y, color.RGBA{v, v, v, 255})
		}
	}
	a := hasher.Hash(img)
	b := hasher.Hash(img)
	if a.BigInt().Cmp(b.BigInt()) != 0 {
		t.Error("Hashing the same image twice should produce identical bits")
	}
	if a.AlgorithmID() != b.AlgorithmID() {
		t.Error("Hashing the same image twice should produce identical algorithm ids")
	}
}

func TestDimensionMismatch(t *testing.T) {
	hasher, err := New(64, Simple)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	narrow := make([][]int, hasher.Width()-1)
	for x := range narrow {
		narrow[x] = make([]int, hasher.Height())
	}
	if _, err := hasher.HashLuma(narrow); err == nil {
		t.Error("A grid with too few columns should be rejected")
	}
	short := make([][]int, hasher.Width())
	for x := range short {
		short[x] = make([]int, hasher.Height()-1)
	}
	if _, err := hasher.HashLuma(short); err == nil {
		t.Error("A grid with too few rows should be rejected")
	}
}

func TestAlgorithmID(t *testing.T) {
	a, _ := New(64, Simple)
	b, _ := New(64, Simple)
	if a.AlgorithmID() != b.AlgorithmID() {
		t.Error("Identical configurations should derive identical algorithm ids")
	}
	c, _ := New(64, Double)
	if a.AlgorithmID() == c.AlgorithmID() {
		t.Error("Differing precisions should derive differing algorithm ids")
	}
	// 10 bits resolve to a 4x4 grid, 64 to 8x9
	d, _ := New(10, Simple)
	if a.AlgorithmID() == d.AlgorithmID() {
		t.Error("Differing grids should derive differing algorithm ids")
	}
}
