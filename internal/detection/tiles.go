package detection

import (
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"
)

// DefaultTileSize is the side of an extracted tile in pixels.
const DefaultTileSize = 50

// ExtractTiles divides a square board rectangle into 64 equal cells and
// resamples each to size x size. See ExtractTilesFromGrid.
func ExtractTiles(img image.Image, board Rect, size int) ([]image.Image, error) {
	if board.Width <= 0 || board.Height <= 0 {
		return nil, fmt.Errorf("invalid board rectangle %v", board)
	}
	return ExtractTilesFromGrid(img, UniformGrid(board), size)
}

// ExtractTilesFromGrid cuts the 64 cells described by grid out of img and
// resamples each one bilinearly to size x size.
//
// Tiles are returned row-major starting at the top-left cell of the image,
// before any orientation correction. Grid coordinates are relative to
// img.Bounds().Min. A cell is taken from the floor of its top-left line
// coordinates to the ceiling of its bottom-right ones and clipped to the
// image; a cell that falls entirely outside becomes a flat tile of the
// nearest pixel's colour.
func ExtractTilesFromGrid(img image.Image, grid GridLines, size int) ([]image.Image, error) {
	if size <= 0 {
		return nil, fmt.Errorf("tile size must be positive, got %d", size)
	}

	bounds := img.Bounds()
	if bounds.Empty() {
		return nil, fmt.Errorf("cannot extract tiles from an empty image")
	}

	tiles := make([]image.Image, 0, 64)
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			x0, y0, x1, y1 := grid.Cell(row, col)
			cell := image.Rect(
				int(math.Floor(x0)), int(math.Floor(y0)),
				int(math.Ceil(x1)), int(math.Ceil(y1)),
			).Add(bounds.Min).Intersect(bounds)

			if cell.Empty() {
				p := image.Pt(
					clampInt(int(math.Floor(x0))+bounds.Min.X, bounds.Min.X, bounds.Max.X-1),
					clampInt(int(math.Floor(y0))+bounds.Min.Y, bounds.Min.Y, bounds.Max.Y-1),
				)
				tiles = append(tiles, imaging.New(size, size, img.At(p.X, p.Y)))
				continue
			}

			tile := imaging.Crop(img, cell)
			tiles = append(tiles, imaging.Resize(tile, size, size, imaging.Linear))
		}
	}
	return tiles, nil
}
