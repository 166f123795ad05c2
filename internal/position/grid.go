package position

import (
	"fmt"
	"strconv"
	"strings"
)

// Grid is the 8x8 working board built from 64 predictions. Row 0 is the top
// of the board as it will be written, rank 8 once orientation is applied.
// A Grid belongs to a single assembly and is mutated in place by Correct.
type Grid struct {
	Classes [8][8]Class
	Probs   [8][8][NumClasses]float64
}

// NewGrid fills a grid row-major from 64 predictions.
func NewGrid(preds []Prediction) (*Grid, error) {
	if len(preds) != 64 {
		return nil, fmt.Errorf("%w: got %d, want 64", ErrInvalidPredictions, len(preds))
	}
	g := &Grid{}
	for i, p := range preds {
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("%w: square %d: %v", ErrInvalidPredictions, i, err)
		}
		g.Classes[i/8][i%8] = p.Class
		g.Probs[i/8][i%8] = p.Probabilities
	}
	return g, nil
}

// Rotate turns the grid by 180 degrees.
func (g *Grid) Rotate() {
	for i := 0; i < 32; i++ {
		r, f := i/8, i%8
		or, of := 7-r, 7-f
		g.Classes[r][f], g.Classes[or][of] = g.Classes[or][of], g.Classes[r][f]
		g.Probs[r][f], g.Probs[or][of] = g.Probs[or][of], g.Probs[r][f]
	}
}

// Placement serializes the grid as a FEN piece-placement field.
func (g *Grid) Placement() string {
	var sb strings.Builder
	for r := 0; r < 8; r++ {
		if r > 0 {
			sb.WriteByte('/')
		}
		empty := 0
		for f := 0; f < 8; f++ {
			c := g.Classes[r][f]
			if c == Empty {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteString(strconv.Itoa(empty))
				empty = 0
			}
			sb.WriteByte(c.Letter())
		}
		if empty > 0 {
			sb.WriteString(strconv.Itoa(empty))
		}
	}
	return sb.String()
}

// counts returns how many squares hold each class.
func (g *Grid) counts() [NumClasses]int {
	var n [NumClasses]int
	for r := 0; r < 8; r++ {
		for f := 0; f < 8; f++ {
			n[g.Classes[r][f]]++
		}
	}
	return n
}

// squareName gives the algebraic name of a grid cell, row 0 being rank 8.
func squareName(r, f int) string {
	return string(rune('a'+f)) + strconv.Itoa(8-r)
}
