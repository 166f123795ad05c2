package detection

import (
	"math"
	"sort"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/ironsheep/chessboard-fen-mcp/internal/imaging"
)

// LocatorOptions tunes the coarse board search.
type LocatorOptions struct {
	// FastPathScore is the score at which the largest centred square is
	// accepted without searching. Default 40.
	FastPathScore float64 `json:"fast_path_score" mapstructure:"fast_path_score"`

	// SizeSteps is the number of candidate sizes between MinSizeFraction and
	// 100% of the shorter image side. Default 10.
	SizeSteps int `json:"size_steps" mapstructure:"size_steps"`

	// PositionSteps is the number of positions tried per axis across the
	// slack left by a candidate. Default 12.
	PositionSteps int `json:"position_steps" mapstructure:"position_steps"`

	// MinSizeFraction is the smallest candidate side relative to the shorter
	// image side. Default 0.5.
	MinSizeFraction float64 `json:"min_size_fraction" mapstructure:"min_size_fraction"`

	// ParityDelta is the brightness difference above which two adjacent
	// tiles count as alternating. Default 5.
	ParityDelta float64 `json:"parity_delta" mapstructure:"parity_delta"`

	// SampleInset is the margin, as a fraction of the tile size, between a
	// tile's border and its sample points. Default 0.15.
	SampleInset float64 `json:"sample_inset" mapstructure:"sample_inset"`
}

// DefaultLocatorOptions returns the standard search settings.
func DefaultLocatorOptions() LocatorOptions {
	return LocatorOptions{
		FastPathScore:   40,
		SizeSteps:       10,
		PositionSteps:   12,
		MinSizeFraction: 0.5,
		ParityDelta:     5,
		SampleInset:     0.15,
	}
}

// LocateResult is the coarse board estimate.
type LocateResult struct {
	Rect Rect `json:"rect"`

	// Score is the parity score of Rect, before size weighting.
	Score float64 `json:"score"`

	// FastPath is true when the centred square was accepted without a search.
	FastPath bool `json:"fast_path"`
}

// Score rates how closely the square r of a luminance plane resembles an
// 8x8 board of alternating squares.
//
// Each of the 64 tiles is sampled at its four corners and four edge
// midpoints, inset by SampleInset of the tile size so that pieces standing in
// the middle of a square are mostly avoided, and the eight samples are
// averaged. Of the 112 horizontally and vertically adjacent tile pairs, those
// differing by more than ParityDelta count as matches:
//
//	score = matches/112*64 + contrastBonus*8
//	contrastBonus = (mean of brightest 32 tiles - mean of darkest 32) / 255
//
// A perfect high-contrast board scores close to 72.
func Score(lum *imaging.Plane, r Rect, opts LocatorOptions) float64 {
	brightness := tileBrightness(lum, r, opts.SampleInset)

	matches := 0
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			b := brightness[row*8+col]
			if col < 7 && math.Abs(b-brightness[row*8+col+1]) > opts.ParityDelta {
				matches++
			}
			if row < 7 && math.Abs(b-brightness[(row+1)*8+col]) > opts.ParityDelta {
				matches++
			}
		}
	}

	sorted := append([]float64(nil), brightness...)
	sort.Float64s(sorted)
	contrastBonus := (stat.Mean(sorted[32:], nil) - stat.Mean(sorted[:32], nil)) / 255

	return float64(matches)/112*64 + contrastBonus*8
}

// tileBrightness returns the mean of the eight inset samples of every tile,
// row-major.
func tileBrightness(lum *imaging.Plane, r Rect, inset float64) []float64 {
	tile := float64(r.Width) / 8
	margin := tile * inset
	near := margin
	mid := tile / 2
	far := tile - margin

	offsets := [8][2]float64{
		{near, near}, {far, near}, {near, far}, {far, far},
		{mid, near}, {mid, far}, {near, mid}, {far, mid},
	}

	brightness := make([]float64, 64)
	samples := make([]float64, len(offsets))
	for row := 0; row < 8; row++ {
		y0 := float64(r.Y) + float64(row)*tile
		for col := 0; col < 8; col++ {
			x0 := float64(r.X) + float64(col)*tile
			for i, o := range offsets {
				samples[i] = float64(lum.At(int(x0+o[0]), int(y0+o[1])))
			}
			brightness[row*8+col] = floats.Sum(samples) / float64(len(samples))
		}
	}
	return brightness
}

type candidate struct {
	rect     Rect
	score    float64
	weighted float64
}

// Locate finds the square region of a luminance plane that looks most like a
// chessboard. It never fails: when nothing scores well the best candidate
// found is still returned, in the worst case the largest centred square.
//
// The largest centred square is tried first and accepted outright when it
// scores at least FastPathScore, which covers screenshots that contain little
// but the board. Otherwise every size from MinSizeFraction to 100% of the
// shorter side (SizeSteps values) is tried at PositionSteps x PositionSteps
// positions across the remaining slack. Scores are weighted by
// size/maxSize so that a whole board beats a well-scoring part of it. Sizes
// are searched concurrently; ties keep the earliest candidate in the order
// size ascending, then y, then x.
func Locate(lum *imaging.Plane, opts LocatorOptions) LocateResult {
	maxSize := lum.Width
	if lum.Height < maxSize {
		maxSize = lum.Height
	}

	centred := Rect{
		X:      (lum.Width - maxSize) / 2,
		Y:      (lum.Height - maxSize) / 2,
		Width:  maxSize,
		Height: maxSize,
	}
	if maxSize < 8 {
		return LocateResult{Rect: centred}
	}

	centredScore := Score(lum, centred, opts)
	if centredScore >= opts.FastPathScore {
		return LocateResult{Rect: centred, Score: centredScore, FastPath: true}
	}

	sizes := candidateSizes(maxSize, opts)
	bests := make([]candidate, len(sizes))

	var g errgroup.Group
	for i, size := range sizes {
		g.Go(func() error {
			bests[i] = bestAtSize(lum, size, maxSize, opts)
			return nil
		})
	}
	_ = g.Wait()

	best := candidate{rect: centred, score: centredScore, weighted: centredScore}
	for _, c := range bests {
		if c.weighted > best.weighted {
			best = c
		}
	}

	return LocateResult{Rect: best.rect, Score: best.score}
}

// candidateSizes returns SizeSteps sides spread evenly from
// MinSizeFraction*maxSize to maxSize, smallest first.
func candidateSizes(maxSize int, opts LocatorOptions) []int {
	steps := opts.SizeSteps
	if steps < 1 {
		steps = 1
	}
	minFrac := opts.MinSizeFraction
	if minFrac <= 0 || minFrac > 1 {
		minFrac = 0.5
	}

	sizes := make([]int, 0, steps)
	for i := 0; i < steps; i++ {
		frac := 1.0
		if steps > 1 {
			frac = minFrac + (1-minFrac)*float64(i)/float64(steps-1)
		}
		size := int(math.Round(float64(maxSize) * frac))
		if size < 8 {
			size = 8
		}
		if size > maxSize {
			size = maxSize
		}
		sizes = append(sizes, size)
	}
	return sizes
}

// bestAtSize scans the position grid for one candidate size.
func bestAtSize(lum *imaging.Plane, size, maxSize int, opts LocatorOptions) candidate {
	positions := opts.PositionSteps
	if positions < 1 {
		positions = 1
	}
	xs := spread(lum.Width-size, positions)
	ys := spread(lum.Height-size, positions)
	weight := float64(size) / float64(maxSize)

	best := candidate{weighted: math.Inf(-1)}
	for _, y := range ys {
		for _, x := range xs {
			r := Rect{X: x, Y: y, Width: size, Height: size}
			score := Score(lum, r, opts)
			if w := score * weight; w > best.weighted {
				best = candidate{rect: r, score: score, weighted: w}
			}
		}
	}
	return best
}

// spread returns n offsets evenly covering [0, slack].
func spread(slack, n int) []int {
	if n == 1 || slack <= 0 {
		return []int{slack / 2}
	}
	out := make([]int, n)
	for i := 0; i < n; i++ {
		out[i] = int(math.Round(float64(slack) * float64(i) / float64(n-1)))
	}
	return out
}
