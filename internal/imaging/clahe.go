package imaging

import "math"

// CLAHEOptions controls contrast limited adaptive histogram equalization.
type CLAHEOptions struct {
	// GridX and GridY are the number of tiles along each axis. Default 8x8.
	GridX int `json:"grid_x" mapstructure:"grid_x"`
	GridY int `json:"grid_y" mapstructure:"grid_y"`

	// ClipFactor scales the per-bin clip limit relative to a flat histogram.
	// Default 3.0.
	ClipFactor float64 `json:"clip_factor" mapstructure:"clip_factor"`
}

// DefaultCLAHEOptions returns the 8x8 grid, clip factor 3.0 configuration.
func DefaultCLAHEOptions() CLAHEOptions {
	return CLAHEOptions{GridX: 8, GridY: 8, ClipFactor: 3.0}
}

// CLAHE equalizes a plane locally so that edges between similar tones (dark
// squares on a dark frame, pastel themes) survive edge detection.
//
// The plane is split into a GridX x GridY array of tiles. Each tile gets a
// 256-bin histogram clipped at
//
//	limit = max(1, floor(ClipFactor * tilePixels / 256))
//
// with the clipped excess spread evenly over all bins, and is integrated into
// a lookup table normalized to [0,255]. Every output pixel is the bilinear
// blend of the four lookup tables whose tile centres surround it, each
// evaluated at the pixel's original value. Pixels outside the outermost
// centres use the nearest tables.
//
// The input plane is not modified.
func CLAHE(p *Plane, opts CLAHEOptions) *Plane {
	out := NewPlane(p.Width, p.Height)
	if p.Width == 0 || p.Height == 0 {
		return out
	}

	gx := opts.GridX
	gy := opts.GridY
	if gx <= 0 {
		gx = 8
	}
	if gy <= 0 {
		gy = 8
	}
	if gx > p.Width {
		gx = p.Width
	}
	if gy > p.Height {
		gy = p.Height
	}
	clip := opts.ClipFactor
	if clip <= 0 {
		clip = 3.0
	}

	xBounds := tileBounds(p.Width, gx)
	yBounds := tileBounds(p.Height, gy)

	luts := make([][][256]uint8, gy)
	for ty := 0; ty < gy; ty++ {
		luts[ty] = make([][256]uint8, gx)
		for tx := 0; tx < gx; tx++ {
			luts[ty][tx] = tileLUT(p, xBounds[tx], xBounds[tx+1], yBounds[ty], yBounds[ty+1], clip)
		}
	}

	xInterp := interpolationTable(xBounds, p.Width)
	yInterp := interpolationTable(yBounds, p.Height)

	for y := 0; y < p.Height; y++ {
		iy := yInterp[y]
		for x := 0; x < p.Width; x++ {
			ix := xInterp[x]
			v := p.Pix[y*p.Width+x]

			top := (1-ix.w)*float64(luts[iy.lo][ix.lo][v]) + ix.w*float64(luts[iy.lo][ix.hi][v])
			bottom := (1-ix.w)*float64(luts[iy.hi][ix.lo][v]) + ix.w*float64(luts[iy.hi][ix.hi][v])
			val := math.Round((1-iy.w)*top + iy.w*bottom)
			out.Pix[y*p.Width+x] = uint8(clamp(int(val), 0, 255))
		}
	}
	return out
}

// tileBounds splits length into n contiguous spans and returns the n+1 edges.
func tileBounds(length, n int) []int {
	edges := make([]int, n+1)
	for i := 0; i <= n; i++ {
		edges[i] = i * length / n
	}
	return edges
}

// tileLUT builds the clipped, equalized lookup table for one tile.
func tileLUT(p *Plane, x0, x1, y0, y1 int, clip float64) [256]uint8 {
	var lut [256]uint8
	var hist [256]int

	n := (x1 - x0) * (y1 - y0)
	if n <= 0 {
		for i := range lut {
			lut[i] = uint8(i)
		}
		return lut
	}

	for y := y0; y < y1; y++ {
		row := p.Pix[y*p.Width : (y+1)*p.Width]
		for x := x0; x < x1; x++ {
			hist[row[x]]++
		}
	}

	limit := int(math.Floor(clip * float64(n) / 256))
	if limit < 1 {
		limit = 1
	}

	excess := 0
	for i, h := range hist {
		if h > limit {
			excess += h - limit
			hist[i] = limit
		}
	}

	share := excess / 256
	remainder := excess % 256
	for i := range hist {
		hist[i] += share
		if i < remainder {
			hist[i]++
		}
	}

	cum := 0
	for i, h := range hist {
		cum += h
		lut[i] = uint8(clamp(int(math.Round(float64(cum)*255/float64(n))), 0, 255))
	}
	return lut
}

type interp struct {
	lo, hi int
	w      float64
}

// interpolationTable precomputes, for every coordinate along one axis, the
// pair of surrounding tile centres and the blend weight toward the second.
func interpolationTable(edges []int, length int) []interp {
	n := len(edges) - 1
	centres := make([]float64, n)
	for i := 0; i < n; i++ {
		centres[i] = float64(edges[i]+edges[i+1]-1) / 2
	}

	table := make([]interp, length)
	i := 0
	for c := 0; c < length; c++ {
		fc := float64(c)
		switch {
		case fc <= centres[0]:
			table[c] = interp{lo: 0, hi: 0}
		case fc >= centres[n-1]:
			table[c] = interp{lo: n - 1, hi: n - 1}
		default:
			for i+1 < n && centres[i+1] <= fc {
				i++
			}
			span := centres[i+1] - centres[i]
			w := 0.0
			if span > 0 {
				w = (fc - centres[i]) / span
			}
			table[c] = interp{lo: i, hi: i + 1, w: w}
		}
	}
	return table
}
