package detection

import (
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/ironsheep/chessboard-fen-mcp/internal/imaging"
)

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func TestAlign_ExactCoarse(t *testing.T) {
	img := renderBoard(t, "green", imaging.RenderOptions{TileSize: 20})
	edges := defaultEdges(imaging.Luminance(img))

	result := Align(edges, Rect{Width: 160, Height: 160}, DefaultAlignerOptions())

	r := result.Rect
	if r.X > 2 || r.Y > 2 || absInt(r.Width-160) > 2 {
		t.Errorf("Rect: got %v, want about 160x160@(0,0)", r)
	}
	if !r.Square() || !r.Within(160, 160) {
		t.Errorf("rect %v should be square and inside the image", r)
	}
	if math.Abs(result.TileWidth-20) > 0.5 || math.Abs(result.TileHeight-20) > 0.5 {
		t.Errorf("tile size: got %.2fx%.2f, want about 20", result.TileWidth, result.TileHeight)
	}
	if result.Grid != UniformGrid(result.Rect) {
		t.Error("Grid should follow the aligned rect")
	}
}

func TestAlign_RecoversFromCoarseError(t *testing.T) {
	img := renderBoard(t, "brown", imaging.RenderOptions{
		TileSize: 20,
		Width:    240,
		Height:   240,
		Origin:   image.Pt(40, 40),
		Pieces:   startPieces(),
	})
	edges := defaultEdges(imaging.Luminance(img))

	tests := []struct {
		name   string
		coarse Rect
	}{
		{"shifted and too large", Rect{X: 44, Y: 37, Width: 170, Height: 170}},
		{"too small", Rect{X: 38, Y: 43, Width: 150, Height: 150}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Align(edges, tt.coarse, DefaultAlignerOptions()).Rect

			if absInt(r.X-40) > 2 || absInt(r.Y-40) > 2 {
				t.Errorf("origin: got (%d,%d), want about (40,40)", r.X, r.Y)
			}
			if absInt(r.Width-160) > 3 {
				t.Errorf("side: got %d, want about 160", r.Width)
			}
			if !r.Square() || !r.Within(240, 240) {
				t.Errorf("rect %v should be square and inside the image", r)
			}
		})
	}
}

func TestAlign_NoEdgesKeepsCoarse(t *testing.T) {
	edges := defaultEdges(imaging.Luminance(solidImage(200, 200, color.RGBA{90, 90, 90, 255})))
	coarse := Rect{X: 10, Y: 20, Width: 160, Height: 160}

	result := Align(edges, coarse, DefaultAlignerOptions())

	if result.Rect != coarse {
		t.Errorf("Rect: got %v, want %v", result.Rect, coarse)
	}
	if result.TileWidth != 20 || result.OffsetX != 10 || result.OffsetY != 20 {
		t.Errorf("fit: got tile %.2f offset (%.2f,%.2f)", result.TileWidth, result.OffsetX, result.OffsetY)
	}
}

func TestAlign_TooSmall(t *testing.T) {
	edges := imaging.NewPlane(6, 6)
	coarse := Rect{Width: 6, Height: 6}

	if got := Align(edges, coarse, DefaultAlignerOptions()).Rect; got != coarse {
		t.Errorf("Rect: got %v, want %v", got, coarse)
	}
}

func TestAlign_StaysInBounds(t *testing.T) {
	// Edge spikes that pull the fit past the left and top image border.
	edges := imaging.NewPlane(100, 100)
	for k := 1; k <= 7; k++ {
		for i := 0; i < 100; i++ {
			edges.Set(k*12-4, i, 255)
			edges.Set(i, k*12-4, 255)
		}
	}

	r := Align(edges, Rect{X: 2, Y: 2, Width: 96, Height: 96}, DefaultAlignerOptions()).Rect

	if !r.Square() || !r.Within(100, 100) {
		t.Errorf("rect %v should be square and inside 100x100", r)
	}
}

func TestFitAxis_PlateauCentre(t *testing.T) {
	// One edge pixel at the last column of each square, as Canny leaves them.
	profile := make([]float64, 160)
	for k := 1; k <= 7; k++ {
		profile[20*k-1] = 1
	}

	fit := fitAxis(profile, 20, 0, DefaultAlignerOptions())

	if fit.tile != 20 {
		t.Errorf("tile: got %.2f, want 20", fit.tile)
	}
	if fit.offset != -1 {
		t.Errorf("offset: got %.2f, want -1", fit.offset)
	}
	if fit.score != 7 {
		t.Errorf("score: got %.0f, want 7", fit.score)
	}
}

func TestBoundaryScore(t *testing.T) {
	profile := make([]float64, 80)
	for k := 1; k <= 7; k++ {
		profile[10*k] = 2
	}

	tests := []struct {
		name   string
		tile   float64
		offset float64
		window int
		want   float64
	}{
		{"aligned", 10, 0, 0, 14},
		{"shifted within window", 10, 2, 2, 14},
		{"shifted outside window", 10, 3, 2, 0},
		{"runs off the end", 20, 0, 1, 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := boundaryScore(profile, tt.tile, tt.offset, tt.window); got != tt.want {
				t.Errorf("boundaryScore: got %.0f, want %.0f", got, tt.want)
			}
		})
	}
}
