package jimagehash

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/diepinto30/JImageHash/dhash"
)

// Writes a horizontal luminance ramp, reversed ramps hash to opposite
// gradient bits so they sit a full hash length apart
func writeRamp(t *testing.T, path string, reversed bool) {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 128, 128))
	for y := 0; y < 128; y++ {
		for x := 0; x < 128; x++ {
			v := uint8(x * 2)
			if reversed {
				v = uint8((127 - x) * 2)
			}
			img.Set(x, y, color.RGBA{v, v, v, 255})
		}
	}

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("Encode: %v", err)
	}
}

func mustHasher(t *testing.T) *dhash.Hasher {
	t.Helper()
	hasher, err := dhash.New(64, dhash.Double)
	if err != nil {
		t.Fatalf("dhash.New: %v", err)
	}
	return hasher
}

func TestDuplicates(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.png")
	b := filepath.Join(dir, "b.png")
	c := filepath.Join(dir, "c.png")
	writeRamp(t, a, false)
	writeRamp(t, b, false)
	writeRamp(t, c, true)

	groups, total, err := Duplicates([]string{a, b, c}, mustHasher(t), 10)
	if err != nil {
		t.Fatalf("Duplicates: %v", err)
	}
	if total != 2 {
		t.Errorf("Expected 2 duplicate images, got %d", total)
	}
	if len(groups) != 1 {
		t.Fatalf("Expected a single duplicate group, got %d", len(groups))
	}
	if !slices.Contains(groups[0], a) || !slices.Contains(groups[0], b) {
		t.Errorf("The identical ramps should group together, got %v", groups[0])
	}
	if slices.Contains(groups[0], c) {
		t.Error("The reversed ramp should not group with the others")
	}
}

func TestDuplicatesEmpty(t *testing.T) {
	if _, _, err := Duplicates(nil, mustHasher(t), 10); err == nil {
		t.Error("Scanning no files should error out")
	}
}

func TestCompare(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.png")
	b := filepath.Join(dir, "b.png")
	c := filepath.Join(dir, "c.png")
	writeRamp(t, a, false)
	writeRamp(t, b, false)
	writeRamp(t, c, true)

	isDupe, matches := Compare(mustHasher(t), 10, a, b, c)
	if !isDupe {
		t.Fatal("Compare should find the identical ramp")
	}
	if len(matches) != 1 || matches[0] != b {
		t.Errorf("Compare should match only the identical ramp, got %v", matches)
	}
}
