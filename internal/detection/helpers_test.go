package detection

import (
	"image"
	"image/color"
	"testing"

	"github.com/ironsheep/chessboard-fen-mcp/internal/imaging"
)

// renderBoard draws a synthetic board with the named theme and fails the test
// on error.
func renderBoard(t *testing.T, theme string, opts imaging.RenderOptions) *image.RGBA {
	t.Helper()
	th, ok := imaging.ThemeByName(theme)
	if !ok {
		t.Fatalf("unknown theme %s", theme)
	}
	opts.Theme = th
	img, _, err := imaging.RenderBoard(opts)
	if err != nil {
		t.Fatalf("RenderBoard failed: %v", err)
	}
	return img
}

// startPieces marks the squares occupied in the initial position, black at
// the top.
func startPieces() [8][8]int8 {
	var p [8][8]int8
	for col := 0; col < 8; col++ {
		p[0][col] = -1
		p[1][col] = -1
		p[6][col] = 1
		p[7][col] = 1
	}
	return p
}

// solidImage creates a uniform image.
func solidImage(width, height int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func defaultEdges(lum *imaging.Plane) *imaging.Plane {
	opts := imaging.DefaultCLAHEOptions()
	return imaging.EdgeMap(lum, &opts, imaging.DefaultStrongThreshold, imaging.DefaultWeakThreshold)
}
