package utils

import (
	"image"
)

// From color.RGBToYCbCr in the standard library but without the chroma
// channels. The integer math lands within one level of the float BT.601
// weights which makes no difference to a gradient comparison.
func rgbToY(r, g, b uint8) uint8 {
	return uint8((19595*int32(r) + 38470*int32(g) + 7471*int32(b) + 1<<15) >> 16)
}

// Luma reduces an image to a column major grid of luminance values in the
// 0-255 range, so lum[x][y] addresses column x row y.
func Luma(img image.Image) [][]int {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	lum := make([][]int, width)
	for x := range lum {
		lum[x] = make([]int, height)
		for y := 0; y < height; y++ {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			lum[x][y] = int(rgbToY(uint8(r>>8), uint8(g>>8), uint8(b>>8)))
		}
	}
	return lum
}
