package imaging

import (
	"image"
	"image/color"
)

// Plane is a single-channel 8-bit intensity image stored row-major.
//
// Planes are the working representation for the board detection pipeline:
// luminance, contrast-enhanced intensity and binary edge maps all share it.
// A Plane is never shared between concurrent writers; readers may share it
// freely once it has been produced.
type Plane struct {
	Width  int
	Height int
	Pix    []uint8
}

// NewPlane allocates a zeroed plane of the given size.
func NewPlane(width, height int) *Plane {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Plane{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, width*height),
	}
}

// At returns the value at (x, y). Out-of-range coordinates are clamped to the
// nearest edge pixel, matching the replicated-border convolution convention.
func (p *Plane) At(x, y int) uint8 {
	if p.Width == 0 || p.Height == 0 {
		return 0
	}
	x = clamp(x, 0, p.Width-1)
	y = clamp(y, 0, p.Height-1)
	return p.Pix[y*p.Width+x]
}

// Set stores v at (x, y). Out-of-range writes are ignored.
func (p *Plane) Set(x, y int, v uint8) {
	if x < 0 || y < 0 || x >= p.Width || y >= p.Height {
		return
	}
	p.Pix[y*p.Width+x] = v
}

// Gray converts the plane to an *image.Gray anchored at (0,0).
func (p *Plane) Gray() *image.Gray {
	g := image.NewGray(image.Rect(0, 0, p.Width, p.Height))
	for y := 0; y < p.Height; y++ {
		for x := 0; x < p.Width; x++ {
			g.SetGray(x, y, color.Gray{Y: p.Pix[y*p.Width+x]})
		}
	}
	return g
}

// clamp constrains an integer value to the range [min, max].
// Used for boundary handling in convolution operations.
func clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
