package detection

import (
	"image"
	"image/color"
	"testing"

	"github.com/ironsheep/chessboard-fen-mcp/internal/imaging"
)

func rgbaAt(img image.Image, x, y int) color.RGBA {
	r, g, b, a := img.At(x, y).RGBA()
	return color.RGBA{uint8(r >> 8), uint8(g >> 8), uint8(b >> 8), uint8(a >> 8)}
}

func closeColor(a, b color.RGBA) bool {
	d := func(x, y uint8) int {
		if x > y {
			return int(x - y)
		}
		return int(y - x)
	}
	return d(a.R, b.R) <= 2 && d(a.G, b.G) <= 2 && d(a.B, b.B) <= 2
}

func TestExtractTiles(t *testing.T) {
	theme, _ := imaging.ThemeByName("green")
	light, dark, _ := theme.Colors()

	var pieces [8][8]int8
	pieces[0][4] = -1
	pieces[7][3] = 1
	img := renderBoard(t, "green", imaging.RenderOptions{
		TileSize: 20,
		Width:    200,
		Height:   200,
		Origin:   image.Pt(20, 30),
		Pieces:   pieces,
	})

	tiles, err := ExtractTiles(img, Rect{X: 20, Y: 30, Width: 160, Height: 160}, DefaultTileSize)
	if err != nil {
		t.Fatalf("ExtractTiles failed: %v", err)
	}
	if len(tiles) != 64 {
		t.Fatalf("got %d tiles, want 64", len(tiles))
	}

	for i, tile := range tiles {
		if b := tile.Bounds(); b.Dx() != 50 || b.Dy() != 50 {
			t.Fatalf("tile %d: got %dx%d, want 50x50", i, b.Dx(), b.Dy())
		}
	}

	tests := []struct {
		name  string
		index int
		x, y  int
		want  color.RGBA
	}{
		{"a8 corner light", 0, 3, 3, light},
		{"b8 corner dark", 1, 3, 3, dark},
		{"black disc on e8", 4, 25, 25, color.RGBA{20, 20, 20, 255}},
		{"white disc on d1", 59, 25, 25, color.RGBA{250, 250, 250, 255}},
		{"h1 corner light", 63, 3, 3, light},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := rgbaAt(tiles[tt.index], tt.x, tt.y)
			if !closeColor(got, tt.want) {
				t.Errorf("tile %d at (%d,%d): got %v, want %v", tt.index, tt.x, tt.y, got, tt.want)
			}
		})
	}
}

func TestExtractTilesFromGrid_ExplicitLines(t *testing.T) {
	img := renderBoard(t, "blue", imaging.RenderOptions{TileSize: 10})
	theme, _ := imaging.ThemeByName("blue")
	light, dark, _ := theme.Colors()

	// An explicit grid that matches the rendered squares.
	grid := UniformGrid(Rect{Width: 80, Height: 80})

	tiles, err := ExtractTilesFromGrid(img, grid, 16)
	if err != nil {
		t.Fatalf("ExtractTilesFromGrid failed: %v", err)
	}
	if len(tiles) != 64 {
		t.Fatalf("got %d tiles, want 64", len(tiles))
	}
	if got := rgbaAt(tiles[9], 8, 8); !closeColor(got, light) {
		t.Errorf("b7: got %v, want light", got)
	}
	if got := rgbaAt(tiles[10], 8, 8); !closeColor(got, dark) {
		t.Errorf("c7: got %v, want dark", got)
	}
}

func TestExtractTilesFromGrid_CellsOutsideImage(t *testing.T) {
	img := solidImage(40, 40, color.RGBA{10, 200, 30, 255})

	// The grid extends past the right and bottom edges.
	grid := UniformGrid(Rect{X: 0, Y: 0, Width: 80, Height: 80})

	tiles, err := ExtractTilesFromGrid(img, grid, 8)
	if err != nil {
		t.Fatalf("ExtractTilesFromGrid failed: %v", err)
	}
	if len(tiles) != 64 {
		t.Fatalf("got %d tiles, want 64", len(tiles))
	}
	last := tiles[63]
	if b := last.Bounds(); b.Dx() != 8 || b.Dy() != 8 {
		t.Errorf("flat tile size: got %v", b)
	}
	if got := rgbaAt(last, 4, 4); got != (color.RGBA{10, 200, 30, 255}) {
		t.Errorf("flat tile colour: got %v", got)
	}
}

func TestExtractTilesFromGrid_OffsetBounds(t *testing.T) {
	full := renderBoard(t, "green", imaging.RenderOptions{TileSize: 10, Width: 100, Height: 100, Origin: image.Pt(10, 10)})
	sub := full.SubImage(image.Rect(10, 10, 90, 90))

	theme, _ := imaging.ThemeByName("green")
	light, _, _ := theme.Colors()

	// Grid coordinates are relative to the sub-image's origin.
	tiles, err := ExtractTilesFromGrid(sub, UniformGrid(Rect{Width: 80, Height: 80}), 10)
	if err != nil {
		t.Fatalf("ExtractTilesFromGrid failed: %v", err)
	}
	if got := rgbaAt(tiles[0], 5, 5); !closeColor(got, light) {
		t.Errorf("first tile: got %v, want light", got)
	}
}

func TestExtractTiles_Errors(t *testing.T) {
	img := solidImage(40, 40, color.RGBA{0, 0, 0, 255})

	if _, err := ExtractTiles(img, Rect{Width: 0, Height: 0}, 50); err == nil {
		t.Error("ExtractTiles should fail for an empty rect")
	}
	if _, err := ExtractTiles(img, Rect{Width: 40, Height: 40}, 0); err == nil {
		t.Error("ExtractTiles should fail for tile size 0")
	}
	empty := image.NewRGBA(image.Rect(0, 0, 0, 0))
	if _, err := ExtractTilesFromGrid(empty, UniformGrid(Rect{Width: 8, Height: 8}), 5); err == nil {
		t.Error("ExtractTilesFromGrid should fail for an empty image")
	}
}
