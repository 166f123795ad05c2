package imaging

import (
	"fmt"
	"image"
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
)

// Theme is a light/dark square colour pair.
type Theme struct {
	Name  string `json:"name"`
	Light string `json:"light"`
	Dark  string `json:"dark"`
}

// BoardThemes are the board colour schemes commonly seen in screenshots from
// online chess sites. They cover the contrast range the locator must handle,
// from the high-contrast green boards to the low-saturation ice theme.
var BoardThemes = []Theme{
	{Name: "green", Light: "#eeeed2", Dark: "#769656"},
	{Name: "brown", Light: "#f0d9b5", Dark: "#b58863"},
	{Name: "blue", Light: "#dee3e6", Dark: "#8ca2ad"},
	{Name: "purple", Light: "#e8e9b7", Dark: "#b7c0d4"},
	{Name: "gray", Light: "#efefef", Dark: "#8b8b8b"},
	{Name: "ice", Light: "#e0e0e0", Dark: "#a0a0b0"},
	{Name: "olive", Light: "#f5f5dc", Dark: "#6b8e23"},
	{Name: "red", Light: "#fce4ec", Dark: "#c62828"},
	{Name: "indigo", Light: "#e8eaf6", Dark: "#3f51b5"},
	{Name: "amber", Light: "#fff8e1", Dark: "#ff8f00"},
}

// ThemeByName looks up one of BoardThemes.
func ThemeByName(name string) (Theme, bool) {
	for _, t := range BoardThemes {
		if t.Name == name {
			return t, true
		}
	}
	return Theme{}, false
}

// Colors parses the theme's hex colours.
func (t Theme) Colors() (light, dark color.RGBA, err error) {
	l, err := colorful.Hex(t.Light)
	if err != nil {
		return light, dark, fmt.Errorf("theme %s: bad light colour: %w", t.Name, err)
	}
	d, err := colorful.Hex(t.Dark)
	if err != nil {
		return light, dark, fmt.Errorf("theme %s: bad dark colour: %w", t.Name, err)
	}
	return toRGBA(l), toRGBA(d), nil
}

// Contrast is the luminance difference between the theme's squares on the
// 0-255 scale.
func (t Theme) Contrast() (int, error) {
	light, dark, err := t.Colors()
	if err != nil {
		return 0, err
	}
	return int(luma(light.R, light.G, light.B)) - int(luma(dark.R, dark.G, dark.B)), nil
}

func toRGBA(c colorful.Color) color.RGBA {
	r, g, b := c.Clamped().RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

// RenderOptions describes a synthetic board screenshot.
type RenderOptions struct {
	Theme Theme

	// TileSize is the side of one square in pixels.
	TileSize int

	// Width and Height are the full canvas size. The board is placed at
	// Origin; everything else is Background.
	Width, Height int
	Origin        image.Point
	Background    color.Color

	// Pieces marks occupied squares in image order: +1 draws a light disc,
	// -1 a dark disc, 0 leaves the square empty.
	Pieces [8][8]int8
}

// RenderBoard draws a synthetic board with simple disc "pieces". The square
// at the board's top-left is light, as on a standard board viewed from
// white's side. It returns the canvas and the board rectangle.
func RenderBoard(opts RenderOptions) (*image.RGBA, image.Rectangle, error) {
	light, dark, err := opts.Theme.Colors()
	if err != nil {
		return nil, image.Rectangle{}, err
	}
	if opts.TileSize <= 0 {
		return nil, image.Rectangle{}, fmt.Errorf("tile size must be positive, got %d", opts.TileSize)
	}

	side := 8 * opts.TileSize
	width, height := opts.Width, opts.Height
	if width == 0 {
		width = opts.Origin.X + side
	}
	if height == 0 {
		height = opts.Origin.Y + side
	}
	bg := opts.Background
	if bg == nil {
		bg = color.RGBA{48, 46, 43, 255}
	}

	canvas := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			canvas.Set(x, y, bg)
		}
	}

	board := image.Rect(opts.Origin.X, opts.Origin.Y, opts.Origin.X+side, opts.Origin.Y+side)
	whitePiece := color.RGBA{250, 250, 250, 255}
	blackPiece := color.RGBA{20, 20, 20, 255}
	radius := float64(opts.TileSize) * 0.3

	for rank := 0; rank < 8; rank++ {
		for file := 0; file < 8; file++ {
			sq := light
			if (rank+file)%2 == 1 {
				sq = dark
			}
			x0 := board.Min.X + file*opts.TileSize
			y0 := board.Min.Y + rank*opts.TileSize
			cx := float64(x0) + float64(opts.TileSize)/2
			cy := float64(y0) + float64(opts.TileSize)/2

			for y := y0; y < y0+opts.TileSize; y++ {
				for x := x0; x < x0+opts.TileSize; x++ {
					c := sq
					if p := opts.Pieces[rank][file]; p != 0 {
						dx := float64(x) + 0.5 - cx
						dy := float64(y) + 0.5 - cy
						if dx*dx+dy*dy <= radius*radius {
							c = whitePiece
							if p < 0 {
								c = blackPiece
							}
						}
					}
					canvas.SetRGBA(x, y, c)
				}
			}
		}
	}

	return canvas, board.Intersect(canvas.Bounds()), nil
}
