package detection

import (
	"errors"
	"fmt"
	"image"
	"math"

	"go.uber.org/multierr"
)

// ErrInvalidGrid is returned by GridLines.Validate.
var ErrInvalidGrid = errors.New("invalid grid lines")

// DefaultMinLineGap is the smallest spacing accepted between adjacent grid
// lines, in pixels.
const DefaultMinLineGap = 4.0

// Rect is an axis-aligned rectangle in image coordinates. Board rectangles
// produced by Locate and Align are square and lie inside the image.
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Image converts r to an image.Rectangle.
func (r Rect) Image() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

// Square reports whether width and height are equal and positive.
func (r Rect) Square() bool {
	return r.Width > 0 && r.Width == r.Height
}

// Within reports whether r lies entirely inside a width x height image.
func (r Rect) Within(width, height int) bool {
	return r.X >= 0 && r.Y >= 0 && r.X+r.Width <= width && r.Y+r.Height <= height
}

func (r Rect) String() string {
	return fmt.Sprintf("%dx%d@(%d,%d)", r.Width, r.Height, r.X, r.Y)
}

// GridLines holds the 9 vertical (X) and 9 horizontal (Y) board lines in
// image coordinates. Cell (row, col) spans X[col]..X[col+1] and
// Y[row]..Y[row+1].
type GridLines struct {
	X [9]float64 `json:"x"`
	Y [9]float64 `json:"y"`
}

// UniformGrid divides a board rectangle into an 8x8 grid of equal cells.
func UniformGrid(r Rect) GridLines {
	var g GridLines
	tw := float64(r.Width) / 8
	th := float64(r.Height) / 8
	for i := 0; i <= 8; i++ {
		g.X[i] = float64(r.X) + float64(i)*tw
		g.Y[i] = float64(r.Y) + float64(i)*th
	}
	return g
}

// Cell returns the bounds of one grid cell.
func (g GridLines) Cell(row, col int) (x0, y0, x1, y1 float64) {
	return g.X[col], g.Y[row], g.X[col+1], g.Y[row+1]
}

// Bounds is the rectangle spanned by the outermost lines, rounded outward.
func (g GridLines) Bounds() image.Rectangle {
	return image.Rect(
		int(math.Floor(g.X[0])), int(math.Floor(g.Y[0])),
		int(math.Ceil(g.X[8])), int(math.Ceil(g.Y[8])),
	)
}

// Validate checks that both sequences are strictly increasing with adjacent
// lines at least minGap apart. All violations are reported together.
func (g GridLines) Validate(minGap float64) error {
	var err error
	for i := 1; i <= 8; i++ {
		if gap := g.X[i] - g.X[i-1]; gap <= 0 || gap < minGap {
			err = multierr.Append(err, fmt.Errorf("%w: x[%d]-x[%d] = %.1f, need at least %.1f", ErrInvalidGrid, i, i-1, gap, minGap))
		}
		if gap := g.Y[i] - g.Y[i-1]; gap <= 0 || gap < minGap {
			err = multierr.Append(err, fmt.Errorf("%w: y[%d]-y[%d] = %.1f, need at least %.1f", ErrInvalidGrid, i, i-1, gap, minGap))
		}
	}
	return err
}
