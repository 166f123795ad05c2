package imaging

import (
	"image"
	"math"
)

// Default hysteresis thresholds, expressed on the Sobel magnitude of 8-bit
// intensities.
const (
	DefaultStrongThreshold = 80.0
	DefaultWeakThreshold   = 30.0
)

// EdgeDetectResult contains an edge map encoded as base64 PNG.
//
// The result is a grayscale image where white pixels (255) represent detected
// edges and black pixels (0) represent non-edges.
type EdgeDetectResult struct {
	// Width of the output image in pixels (same as input).
	Width int `json:"width"`

	// Height of the output image in pixels (same as input).
	Height int `json:"height"`

	// EdgePixels is the number of pixels marked as edges.
	EdgePixels int `json:"edge_pixels"`

	// ImageBase64 is the edge image encoded as base64 PNG.
	ImageBase64 string `json:"image_base64"`

	// MimeType is always "image/png" for edge detection results.
	MimeType string `json:"mime_type"`
}

// EdgeDetect runs the board edge pipeline on an image and returns the binary
// edge map as a PNG.
//
// The image is reduced to luminance, optionally contrast-enhanced with CLAHE
// (pass nil to skip), then passed through Canny with the given thresholds.
// This is the same edge map GridAligner profiles, exposed for inspection.
func EdgeDetect(img image.Image, weak, strong float64, clahe *CLAHEOptions) (*EdgeDetectResult, error) {
	edges := EdgeMap(Luminance(img), clahe, strong, weak)

	encoded, err := EncodePNGBase64(edges.Gray())
	if err != nil {
		return nil, err
	}

	count := 0
	for _, v := range edges.Pix {
		if v != 0 {
			count++
		}
	}

	return &EdgeDetectResult{
		Width:       edges.Width,
		Height:      edges.Height,
		EdgePixels:  count,
		ImageBase64: encoded,
		MimeType:    "image/png",
	}, nil
}

// EdgeMap contrast-enhances a luminance plane with CLAHE (skipped when clahe
// is nil) and runs Canny on the result.
func EdgeMap(lum *Plane, clahe *CLAHEOptions, strong, weak float64) *Plane {
	if clahe != nil {
		lum = CLAHE(lum, *clahe)
	}
	return Canny(lum, strong, weak)
}

// Canny performs Canny edge detection on an intensity plane.
//
// # Algorithm
//
//  1. Gaussian blur: 5x5 kernel normalized by 159, replicated borders
//
//  2. Gradient computation: Sobel operators for X and Y gradients
//     magnitude = sqrt(Gx² + Gy²), direction quantized to 0°, 45°, 90°, 135°
//
//  3. Non-maximum suppression: each pixel is compared with its two neighbours
//     along the quantized gradient direction and zeroed unless it is the
//     local maximum (ties resolved toward the first neighbour so plateaus
//     thin to one pixel)
//
//  4. Hysteresis thresholding:
//     - Pixels at or above strong are edges
//     - Pixels at or above weak become edges when 8-connected, directly or
//     through other weak pixels, to a strong pixel
//     - Everything else is dropped
//
// The output has the same size as the input and holds only 0 and 255.
func Canny(p *Plane, strong, weak float64) *Plane {
	width, height := p.Width, p.Height
	out := NewPlane(width, height)
	if width < 3 || height < 3 {
		return out
	}

	blurred := gaussianBlur(p)

	magnitude := make([]float64, width*height)
	direction := make([]uint8, width*height)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			var gx, gy float64
			for ky := -1; ky <= 1; ky++ {
				py := clamp(y+ky, 0, height-1)
				for kx := -1; kx <= 1; kx++ {
					px := clamp(x+kx, 0, width-1)
					v := blurred[py*width+px]
					gx += v * sobelX[ky+1][kx+1]
					gy += v * sobelY[ky+1][kx+1]
				}
			}
			i := y*width + x
			magnitude[i] = math.Sqrt(gx*gx + gy*gy)
			direction[i] = quantizeDirection(gx, gy)
		}
	}

	suppressed := make([]float64, width*height)
	for y := 1; y < height-1; y++ {
		for x := 1; x < width-1; x++ {
			i := y*width + x
			mag := magnitude[i]
			if mag == 0 {
				continue
			}

			var n1, n2 float64
			switch direction[i] {
			case 0:
				n1 = magnitude[i-1]
				n2 = magnitude[i+1]
			case 45:
				n1 = magnitude[i-width-1]
				n2 = magnitude[i+width+1]
			case 90:
				n1 = magnitude[i-width]
				n2 = magnitude[i+width]
			default:
				n1 = magnitude[i-width+1]
				n2 = magnitude[i+width-1]
			}

			if mag > n1 && mag >= n2 {
				suppressed[i] = mag
			}
		}
	}

	hysteresis(suppressed, out, strong, weak)
	return out
}

var (
	sobelX = [3][3]float64{
		{-1, 0, 1},
		{-2, 0, 2},
		{-1, 0, 1},
	}
	sobelY = [3][3]float64{
		{-1, -2, -1},
		{0, 0, 0},
		{1, 2, 1},
	}
)

// quantizeDirection maps a gradient vector onto one of four directions in
// degrees. Image y grows downward, so 45° points toward the bottom-right.
func quantizeDirection(gx, gy float64) uint8 {
	angle := math.Atan2(gy, gx) * 180 / math.Pi
	if angle < 0 {
		angle += 180
	}
	switch {
	case angle < 22.5 || angle >= 157.5:
		return 0
	case angle < 67.5:
		return 45
	case angle < 112.5:
		return 90
	default:
		return 135
	}
}

// hysteresis marks strong pixels and grows them through connected weak
// pixels. The explicit stack reaches the same fixed point as repeated
// full-image promotion passes.
func hysteresis(mag []float64, out *Plane, strong, weak float64) {
	width, height := out.Width, out.Height
	stack := make([]int, 0, 1024)

	for i, m := range mag {
		if m >= strong {
			out.Pix[i] = 255
			stack = append(stack, i)
		}
	}

	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		x, y := i%width, i/width

		for dy := -1; dy <= 1; dy++ {
			ny := y + dy
			if ny < 0 || ny >= height {
				continue
			}
			for dx := -1; dx <= 1; dx++ {
				nx := x + dx
				if (dx == 0 && dy == 0) || nx < 0 || nx >= width {
					continue
				}
				j := ny*width + nx
				if out.Pix[j] == 0 && mag[j] >= weak {
					out.Pix[j] = 255
					stack = append(stack, j)
				}
			}
		}
	}
}

// gaussianBlur applies a 5x5 Gaussian blur to reduce noise before edge detection.
//
// Uses the classic Canny kernel (sigma ≈ 1.4):
//
//	2  4  5  4  2
//	4  9 12  9  4
//	5 12 15 12  5
//	4  9 12  9  4
//	2  4  5  4  2
//
// Total kernel sum = 159, used for normalization.
// Border pixels use clamped (replicated) edge values.
func gaussianBlur(p *Plane) []float64 {
	kernel := [5][5]float64{
		{2, 4, 5, 4, 2},
		{4, 9, 12, 9, 4},
		{5, 12, 15, 12, 5},
		{4, 9, 12, 9, 4},
		{2, 4, 5, 4, 2},
	}
	const kernelSum = 159.0

	width, height := p.Width, p.Height
	result := make([]float64, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			var sum float64
			for ky := -2; ky <= 2; ky++ {
				py := clamp(y+ky, 0, height-1)
				for kx := -2; kx <= 2; kx++ {
					px := clamp(x+kx, 0, width-1)
					sum += float64(p.Pix[py*width+px]) * kernel[ky+2][kx+2]
				}
			}
			result[y*width+x] = sum / kernelSum
		}
	}
	return result
}
