package imaging

import (
	"image"
	"math"
)

// Luminance converts an image to a single-channel intensity plane using the
// ITU-R BT.601 weights:
//
//	L = round(0.299*R + 0.587*G + 0.114*B)
//
// Channels are taken at 8-bit precision and the result is clamped to [0,255].
// The returned plane is anchored at (0,0) regardless of img.Bounds().Min.
func Luminance(img image.Image) *Plane {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	plane := NewPlane(width, height)

	for y := 0; y < height; y++ {
		row := plane.Pix[y*width : (y+1)*width]
		for x := 0; x < width; x++ {
			r, g, b, _ := img.At(x+bounds.Min.X, y+bounds.Min.Y).RGBA()
			row[x] = luma(uint8(r>>8), uint8(g>>8), uint8(b>>8))
		}
	}
	return plane
}

func luma(r, g, b uint8) uint8 {
	l := math.Round(0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b))
	if l < 0 {
		return 0
	}
	if l > 255 {
		return 255
	}
	return uint8(l)
}
