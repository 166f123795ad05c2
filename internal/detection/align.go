package detection

import (
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/chessboard-fen-mcp/internal/imaging"
)

// AlignerOptions tunes the grid refinement search.
type AlignerOptions struct {
	// WidthTolerance bounds the tile size search to nominal*(1±tolerance).
	// Default 0.15.
	WidthTolerance float64 `json:"width_tolerance" mapstructure:"width_tolerance"`

	// Step is the search resolution for both tile size and offset, in
	// pixels. Default 0.5.
	Step float64 `json:"step" mapstructure:"step"`

	// Window is the half-width, in pixels, of the profile window summed
	// around each internal boundary. Default 2.
	Window int `json:"window" mapstructure:"window"`

	// NearDepth and FarDepth place the two scan lines inside every row or
	// column, as fractions of the tile size. Defaults 0.1 and 0.9.
	NearDepth float64 `json:"near_depth" mapstructure:"near_depth"`
	FarDepth  float64 `json:"far_depth" mapstructure:"far_depth"`
}

// DefaultAlignerOptions returns the standard refinement settings.
func DefaultAlignerOptions() AlignerOptions {
	return AlignerOptions{
		WidthTolerance: 0.15,
		Step:           0.5,
		Window:         2,
		NearDepth:      0.1,
		FarDepth:       0.9,
	}
}

// AlignResult is the refined board geometry.
type AlignResult struct {
	Rect       Rect      `json:"rect"`
	TileWidth  float64   `json:"tile_width"`
	TileHeight float64   `json:"tile_height"`
	OffsetX    float64   `json:"offset_x"`
	OffsetY    float64   `json:"offset_y"`
	Grid       GridLines `json:"grid"`
}

// axisFit is the best tile size and offset found along one axis.
type axisFit struct {
	tile   float64
	offset float64
	score  float64
}

// Align refines a coarse board rectangle against a binary edge map (see
// imaging.EdgeMap).
//
// The axes are solved one after the other. For the horizontal pass, two scan
// lines are laid through each of the 8 rows at NearDepth and FarDepth of the
// row and edge pixels are counted per column across the whole image width.
// Tile width and x offset are then searched jointly, width within
// WidthTolerance of the nominal size and offset within half a nominal tile of
// the coarse x, for the pair whose 7 internal boundaries offset+k*width
// collect the most edge pixels within Window of them. The vertical pass does
// the same with scan lines placed through the columns just found.
//
// The result is square with side round(min(8*tileWidth, 8*tileHeight)) and is
// moved inside the image if the search pushed it over an edge. Images or
// rectangles too small to hold a grid leave the coarse rectangle unchanged.
func Align(edges *imaging.Plane, coarse Rect, opts AlignerOptions) AlignResult {
	fallback := AlignResult{
		Rect:       coarse,
		TileWidth:  float64(coarse.Width) / 8,
		TileHeight: float64(coarse.Height) / 8,
		OffsetX:    float64(coarse.X),
		OffsetY:    float64(coarse.Y),
		Grid:       UniformGrid(coarse),
	}
	if coarse.Width < 8 || coarse.Height < 8 || edges.Width < 8 || edges.Height < 8 {
		return fallback
	}

	nominalW := float64(coarse.Width) / 8
	nominalH := float64(coarse.Height) / 8

	hProfile := make([]float64, edges.Width)
	for row := 0; row < 8; row++ {
		for _, depth := range []float64{opts.NearDepth, opts.FarDepth} {
			y := int(float64(coarse.Y) + (float64(row)+depth)*nominalH)
			if y < 0 || y >= edges.Height {
				continue
			}
			for x := 0; x < edges.Width; x++ {
				if edges.Pix[y*edges.Width+x] != 0 {
					hProfile[x]++
				}
			}
		}
	}
	h := fitAxis(hProfile, nominalW, float64(coarse.X), opts)
	if h.score == 0 {
		h = axisFit{tile: nominalW, offset: float64(coarse.X)}
	}

	vProfile := make([]float64, edges.Height)
	for col := 0; col < 8; col++ {
		for _, depth := range []float64{opts.NearDepth, opts.FarDepth} {
			x := int(h.offset + (float64(col)+depth)*h.tile)
			if x < 0 || x >= edges.Width {
				continue
			}
			for y := 0; y < edges.Height; y++ {
				if edges.Pix[y*edges.Width+x] != 0 {
					vProfile[y]++
				}
			}
		}
	}
	v := fitAxis(vProfile, nominalH, float64(coarse.Y), opts)
	if v.score == 0 {
		v = axisFit{tile: nominalH, offset: float64(coarse.Y)}
	}

	side := int(math.Round(math.Min(8*h.tile, 8*v.tile)))
	if side > edges.Width {
		side = edges.Width
	}
	if side > edges.Height {
		side = edges.Height
	}
	x := int(math.Round(h.offset))
	y := int(math.Round(v.offset))
	x = clampInt(x, 0, edges.Width-side)
	y = clampInt(y, 0, edges.Height-side)

	rect := Rect{X: x, Y: y, Width: side, Height: side}
	return AlignResult{
		Rect:       rect,
		TileWidth:  h.tile,
		TileHeight: v.tile,
		OffsetX:    h.offset,
		OffsetY:    v.offset,
		Grid:       UniformGrid(rect),
	}
}

// fitAxis searches tile size and offset along one axis. Every tile size is
// evaluated concurrently. Edge profiles usually produce a plateau of equally
// good candidates a pixel or two wide, so ties are resolved toward its
// centre: the middle of the best-scoring sizes, then the middle of that
// size's best offsets.
func fitAxis(profile []float64, nominal, coarseOffset float64, opts AlignerOptions) axisFit {
	step := opts.Step
	if step <= 0 {
		step = 0.5
	}
	tol := opts.WidthTolerance
	if tol < 0 {
		tol = 0
	}

	minTile := nominal * (1 - tol)
	tiles := make([]float64, 0, int(2*nominal*tol/step)+1)
	for t := minTile; t <= nominal*(1+tol)+1e-9; t += step {
		tiles = append(tiles, t)
	}

	startOffset := coarseOffset - nominal/2
	offsets := make([]float64, 0, int(nominal/step)+1)
	for o := 0.0; o <= nominal+1e-9; o += step {
		offsets = append(offsets, startOffset+o)
	}

	type plateau struct {
		score   float64
		offsets []float64
	}
	results := make([]plateau, len(tiles))

	var g errgroup.Group
	for i, tile := range tiles {
		g.Go(func() error {
			best := plateau{score: -1}
			for _, off := range offsets {
				s := boundaryScore(profile, tile, off, opts.Window)
				switch {
				case s > best.score:
					best = plateau{score: s, offsets: []float64{off}}
				case s == best.score:
					best.offsets = append(best.offsets, off)
				}
			}
			results[i] = best
			return nil
		})
	}
	_ = g.Wait()

	bestScore := -1.0
	var tied []int
	for i, r := range results {
		switch {
		case r.score > bestScore:
			bestScore = r.score
			tied = []int{i}
		case r.score == bestScore:
			tied = append(tied, i)
		}
	}
	if len(tied) == 0 {
		return axisFit{tile: nominal, offset: coarseOffset}
	}

	i := tied[len(tied)/2]
	offs := results[i].offsets
	return axisFit{
		tile:   tiles[i],
		offset: offs[len(offs)/2],
		score:  bestScore,
	}
}

// boundaryScore sums the profile within window of the 7 internal
// boundaries. Positions outside the profile count as zero.
func boundaryScore(profile []float64, tile, offset float64, window int) float64 {
	var sum float64
	for k := 1; k <= 7; k++ {
		centre := int(math.Round(offset + float64(k)*tile))
		for d := -window; d <= window; d++ {
			if p := centre + d; p >= 0 && p < len(profile) {
				sum += profile[p]
			}
		}
	}
	return sum
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
