package pipeline

import (
	"context"
	"errors"
	"image"
	"image/color"
	"testing"

	"go.uber.org/zap"
	"go.viam.com/test"

	"github.com/ironsheep/chessboard-fen-mcp/internal/config"
	"github.com/ironsheep/chessboard-fen-mcp/internal/detection"
	"github.com/ironsheep/chessboard-fen-mcp/internal/imaging"
	"github.com/ironsheep/chessboard-fen-mcp/internal/position"
)

const backRank = "RNBQKBNR"

// renderStart draws a board holding discs in the start layout, black at the
// top unless flipped.
func renderStart(t *testing.T, theme string, tile int, origin image.Point, canvas int, flipped bool) *image.RGBA {
	t.Helper()
	th, ok := imaging.ThemeByName(theme)
	test.That(t, ok, test.ShouldBeTrue)

	var pieces [8][8]int8
	top, bottom := int8(-1), int8(1)
	if flipped {
		top, bottom = 1, -1
	}
	for col := 0; col < 8; col++ {
		pieces[0][col], pieces[1][col] = top, top
		pieces[6][col], pieces[7][col] = bottom, bottom
	}

	img, _, err := imaging.RenderBoard(imaging.RenderOptions{
		Theme:    th,
		TileSize: tile,
		Width:    canvas,
		Height:   canvas,
		Origin:   origin,
		Pieces:   pieces,
	})
	test.That(t, err, test.ShouldBeNil)
	return img
}

func near(c color.Color, r, g, b uint8) bool {
	cr, cg, cb, _ := c.RGBA()
	d := func(a uint32, want uint8) bool {
		v := int(a>>8) - int(want)
		return v > -16 && v < 16
	}
	return d(cr, r) && d(cg, g) && d(cb, b)
}

// discClassifier reads the disc colour at the centre of each tile. Discs on
// an edge row are given back-rank pieces, all others are pawns.
func discClassifier() Classifier {
	return ClassifierFunc(func(ctx context.Context, tiles []image.Image) ([]position.Prediction, error) {
		preds := make([]position.Prediction, len(tiles))
		for i, tile := range tiles {
			b := tile.Bounds()
			centre := tile.At(b.Min.X+b.Dx()/2, b.Min.Y+b.Dy()/2)
			row, col := i/8, i%8

			letter := byte('P')
			if row == 0 || row == 7 {
				letter = backRank[col]
			}
			c := position.Empty
			switch {
			case near(centre, 250, 250, 250):
				c, _ = position.ParseClass(string(letter))
			case near(centre, 20, 20, 20):
				c, _ = position.ParseClass(string(letter + 'a' - 'A'))
			}
			preds[i] = position.Certain(c)
		}
		return preds, nil
	})
}

func TestRecognize_StartPosition(t *testing.T) {
	r := New(config.Default(), zap.NewNop())
	img := renderStart(t, "green", 24, image.Point{}, 192, false)

	rec, err := r.Recognize(context.Background(), img, discClassifier(), nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, rec.Result.FEN, test.ShouldEqual, "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1")
	test.That(t, rec.Result.Flipped, test.ShouldBeFalse)
	test.That(t, rec.Result.Warnings, test.ShouldBeEmpty)

	test.That(t, rec.Board.Manual, test.ShouldBeFalse)
	test.That(t, rec.Board.Coarse, test.ShouldNotBeNil)
	test.That(t, rec.Board.Aligned, test.ShouldNotBeNil)
	test.That(t, rec.Board.Tiles, test.ShouldHaveLength, 64)
	test.That(t, rec.Predictions, test.ShouldHaveLength, 64)
	test.That(t, rec.Board.Rect.Square(), test.ShouldBeTrue)
	test.That(t, rec.Board.Rect.Within(192, 192), test.ShouldBeTrue)
}

func TestRecognize_FlippedBoard(t *testing.T) {
	r := New(config.Default(), nil)
	img := renderStart(t, "brown", 24, image.Point{}, 192, true)

	rec, err := r.Recognize(context.Background(), img, discClassifier(), nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, rec.Result.Flipped, test.ShouldBeTrue)
	// The classifier names pieces by image position, so the rotation turns
	// the back ranks around as well.
	test.That(t, rec.Result.Placement, test.ShouldEqual, "rnbkqbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBKQBNR")
}

func TestRecognize_BoardInsideLargerCanvas(t *testing.T) {
	r := New(config.Default(), nil)
	img := renderStart(t, "blue", 24, image.Pt(20, 30), 260, false)

	rec, err := r.Recognize(context.Background(), img, discClassifier(), nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, rec.Result.Placement, test.ShouldEqual, "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR")

	b := rec.Board.Rect
	test.That(t, b.X, test.ShouldBeBetweenOrEqual, 14, 26)
	test.That(t, b.Y, test.ShouldBeBetweenOrEqual, 24, 36)
	test.That(t, b.Width, test.ShouldBeBetweenOrEqual, 184, 200)
}

func TestPrepare_Override(t *testing.T) {
	r := New(config.Default(), nil)
	img := renderStart(t, "green", 24, image.Point{}, 192, false)
	grid := detection.UniformGrid(detection.Rect{Width: 192, Height: 192})

	board, err := r.Prepare(img, &grid)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, board.Manual, test.ShouldBeTrue)
	test.That(t, board.Coarse, test.ShouldBeNil)
	test.That(t, board.Aligned, test.ShouldBeNil)
	test.That(t, board.Rect, test.ShouldResemble, detection.Rect{Width: 192, Height: 192})
	test.That(t, board.Tiles, test.ShouldHaveLength, 64)
	test.That(t, board.Tiles[0].Bounds().Dx(), test.ShouldEqual, 50)
}

func TestPrepare_InvalidOverrideIsStillUsed(t *testing.T) {
	r := New(config.Default(), nil)
	img := renderStart(t, "green", 24, image.Point{}, 192, false)

	var grid detection.GridLines
	for i := range grid.X {
		grid.X[i] = float64(i * 2)
		grid.Y[i] = float64(i * 2)
	}
	test.That(t, grid.Validate(config.Default().Tiles.MinLineGap), test.ShouldNotBeNil)

	board, err := r.Prepare(img, &grid)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, board.Tiles, test.ShouldHaveLength, 64)
}

func TestPrepare_TileSizeFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Tiles.Size = 32
	r := New(cfg, nil)

	board, err := r.Prepare(renderStart(t, "green", 24, image.Point{}, 192, false), nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, board.TileSize, test.ShouldEqual, 32)
	for _, tile := range board.Tiles {
		test.That(t, tile.Bounds().Dx(), test.ShouldEqual, 32)
		test.That(t, tile.Bounds().Dy(), test.ShouldEqual, 32)
	}
}

func TestPrepare_EmptyImage(t *testing.T) {
	r := New(config.Default(), nil)

	_, err := r.Prepare(nil, nil)
	test.That(t, errors.Is(err, ErrEmptyImage), test.ShouldBeTrue)

	_, err = r.Prepare(image.NewRGBA(image.Rect(0, 0, 0, 0)), nil)
	test.That(t, errors.Is(err, ErrEmptyImage), test.ShouldBeTrue)
}

func TestRecognize_ClassifierErrors(t *testing.T) {
	r := New(config.Default(), nil)
	img := renderStart(t, "green", 24, image.Point{}, 192, false)
	ctx := context.Background()

	_, err := r.Recognize(ctx, img, nil, nil)
	test.That(t, errors.Is(err, ErrNoClassifier), test.ShouldBeTrue)

	boom := errors.New("model unavailable")
	_, err = r.Recognize(ctx, img, ClassifierFunc(func(context.Context, []image.Image) ([]position.Prediction, error) {
		return nil, boom
	}), nil)
	test.That(t, errors.Is(err, boom), test.ShouldBeTrue)

	short := ClassifierFunc(func(_ context.Context, tiles []image.Image) ([]position.Prediction, error) {
		return make([]position.Prediction, len(tiles)-1), nil
	})
	_, err = r.Recognize(ctx, img, short, nil)
	test.That(t, errors.Is(err, position.ErrInvalidPredictions), test.ShouldBeTrue)
}

func TestRecognize_Cancelled(t *testing.T) {
	r := New(config.Default(), nil)
	img := renderStart(t, "green", 24, image.Point{}, 192, false)

	preds := make(StaticClassifier, 64)
	for i := range preds {
		preds[i] = position.Certain(position.Empty)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := r.Recognize(ctx, img, preds, nil)
	test.That(t, errors.Is(err, context.Canceled), test.ShouldBeTrue)
}

func TestStaticClassifier(t *testing.T) {
	tiles := make([]image.Image, 64)
	preds := make(StaticClassifier, 64)
	preds[4] = position.Certain(position.BlackKing)
	preds[60] = position.Certain(position.WhiteKing)

	out, err := preds.Classify(context.Background(), tiles)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldHaveLength, 64)
	out[4] = position.Certain(position.Empty)
	test.That(t, preds[4].Class, test.ShouldEqual, position.BlackKing)

	_, err = preds[:10].Classify(context.Background(), tiles)
	test.That(t, errors.Is(err, position.ErrInvalidPredictions), test.ShouldBeTrue)
}

func TestWithConfig(t *testing.T) {
	r := New(config.Default(), nil)
	cfg := config.Default()
	cfg.Tiles.Size = 64

	other := r.WithConfig(cfg)
	test.That(t, other.Config().Tiles.Size, test.ShouldEqual, 64)
	test.That(t, r.Config().Tiles.Size, test.ShouldEqual, 50)
}
