package imaging

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"strconv"

	"github.com/lucasb-eyer/go-colorful"
)

// GridOverlayResult contains the image with the board grid drawn on it
type GridOverlayResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// GridOverlay draws the 9 vertical and 9 horizontal board lines on a copy of
// img so a detection can be checked by eye. With showLabels the files a-h are
// written under the bottom rank and the ranks 1-8 beside the left file;
// flipped reverses both so labels follow a board seen from black's side.
func GridOverlay(img image.Image, xLines, yLines []float64, showLabels, flipped bool, gridColorHex string) (*GridOverlayResult, error) {
	if len(xLines) < 2 || len(yLines) < 2 {
		return nil, fmt.Errorf("grid needs at least two lines per axis, got %d and %d", len(xLines), len(yLines))
	}

	bounds := img.Bounds()

	gridColor, err := parseHexColor(gridColorHex)
	if err != nil {
		gridColor = color.RGBA{255, 0, 0, 255}
	}

	result := image.NewRGBA(bounds)
	draw.Draw(result, bounds, img, bounds.Min, draw.Src)

	top := int(math.Round(yLines[0]))
	bottom := int(math.Round(yLines[len(yLines)-1]))
	left := int(math.Round(xLines[0]))
	right := int(math.Round(xLines[len(xLines)-1]))

	for _, xl := range xLines {
		x := int(math.Round(xl))
		for y := top; y <= bottom; y++ {
			blend(result, x, y, gridColor)
		}
	}
	for _, yl := range yLines {
		y := int(math.Round(yl))
		for x := left; x <= right; x++ {
			blend(result, x, y, gridColor)
		}
	}

	if showLabels {
		labelColor := color.RGBA{255, 255, 255, 255}
		bgColor := color.RGBA{0, 0, 0, 180}

		files := len(xLines) - 1
		for i := 0; i < files; i++ {
			name := string(rune('a' + i))
			if flipped {
				name = string(rune('a' + files - 1 - i))
			}
			cx := int((xLines[i] + xLines[i+1]) / 2)
			drawLabel(result, cx-1, bottom+2, name, labelColor, bgColor)
		}

		ranks := len(yLines) - 1
		for i := 0; i < ranks; i++ {
			name := strconv.Itoa(ranks - i)
			if flipped {
				name = strconv.Itoa(i + 1)
			}
			cy := int((yLines[i] + yLines[i+1]) / 2)
			drawLabel(result, left-5, cy-2, name, labelColor, bgColor)
		}
	}

	encoded, err := EncodePNGBase64(result)
	if err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	return &GridOverlayResult{
		Width:       bounds.Dx(),
		Height:      bounds.Dy(),
		ImageBase64: encoded,
		MimeType:    "image/png",
	}, nil
}

// blend alpha-composites c over the pixel at (x, y), ignoring points outside
// the image.
func blend(img *image.RGBA, x, y int, c color.RGBA) {
	if !(image.Point{X: x, Y: y}).In(img.Bounds()) {
		return
	}
	if c.A == 255 {
		img.SetRGBA(x, y, c)
		return
	}
	dst := img.RGBAAt(x, y)
	a := uint32(c.A)
	mix := func(s, d uint8) uint8 {
		return uint8((uint32(s)*a + uint32(d)*(255-a)) / 255)
	}
	img.SetRGBA(x, y, color.RGBA{mix(c.R, dst.R), mix(c.G, dst.G), mix(c.B, dst.B), 255})
}

// parseHexColor parses a hex color string like "#FF0000" or "#FF000080"
func parseHexColor(hex string) (color.RGBA, error) {
	if len(hex) == 0 {
		return color.RGBA{}, fmt.Errorf("empty color string")
	}
	if hex[0] != '#' {
		hex = "#" + hex
	}

	var alpha uint8 = 255
	switch len(hex) {
	case 7:
	case 9:
		a, err := strconv.ParseUint(hex[7:], 16, 8)
		if err != nil {
			return color.RGBA{}, err
		}
		alpha = uint8(a)
		hex = hex[:7]
	default:
		return color.RGBA{}, fmt.Errorf("invalid hex color length")
	}

	c, err := colorful.Hex(hex)
	if err != nil {
		return color.RGBA{}, err
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: alpha}, nil
}

// drawLabel draws a simple text label at the given position using a 3x5
// pixel font that covers rank digits and file letters.
func drawLabel(img *image.RGBA, x, y int, text string, fg, bg color.RGBA) {
	glyphs := map[rune][]string{
		'1': {"010", "110", "010", "010", "111"},
		'2': {"111", "001", "111", "100", "111"},
		'3': {"111", "001", "111", "001", "111"},
		'4': {"101", "101", "111", "001", "001"},
		'5': {"111", "100", "111", "001", "111"},
		'6': {"111", "100", "111", "101", "111"},
		'7': {"111", "001", "001", "001", "001"},
		'8': {"111", "101", "111", "101", "111"},
		'a': {"000", "011", "101", "101", "011"},
		'b': {"100", "110", "101", "101", "110"},
		'c': {"000", "011", "100", "100", "011"},
		'd': {"001", "011", "101", "101", "011"},
		'e': {"010", "101", "111", "100", "011"},
		'f': {"011", "100", "110", "100", "100"},
		'g': {"011", "101", "011", "001", "110"},
		'h': {"100", "110", "101", "101", "101"},
	}

	bounds := img.Bounds()
	charWidth := 4
	labelWidth := len(text) * charWidth
	labelHeight := 7

	for dy := -1; dy < labelHeight; dy++ {
		for dx := -1; dx < labelWidth; dx++ {
			px, py := x+dx, y+dy
			if px >= bounds.Min.X && px < bounds.Max.X && py >= bounds.Min.Y && py < bounds.Max.Y {
				img.Set(px, py, bg)
			}
		}
	}

	cx := x
	for _, ch := range text {
		glyph, ok := glyphs[ch]
		if !ok {
			cx += charWidth
			continue
		}
		for row, line := range glyph {
			for col, pixel := range line {
				if pixel == '1' {
					px, py := cx+col, y+row
					if px >= bounds.Min.X && px < bounds.Max.X && py >= bounds.Min.Y && py < bounds.Max.Y {
						img.Set(px, py, fg)
					}
				}
			}
		}
		cx += charWidth
	}
}
