// Package pipeline wires the recognition stages together: luminance,
// board location, grid alignment, tile extraction, classification,
// orientation detection and position assembly.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"

	"go.uber.org/zap"

	"github.com/ironsheep/chessboard-fen-mcp/internal/config"
	"github.com/ironsheep/chessboard-fen-mcp/internal/detection"
	"github.com/ironsheep/chessboard-fen-mcp/internal/imaging"
	"github.com/ironsheep/chessboard-fen-mcp/internal/position"
)

var (
	// ErrEmptyImage is returned for a nil or zero-sized image.
	ErrEmptyImage = errors.New("empty image")

	// ErrNoClassifier is returned by Recognize without a classifier.
	ErrNoClassifier = errors.New("no classifier")
)

// Board is the geometry found for one image and the tiles cut from it.
type Board struct {
	// Coarse and Aligned are the search results. Both are nil when the grid
	// was supplied by the caller.
	Coarse  *detection.LocateResult `json:"coarse,omitempty"`
	Aligned *detection.AlignResult  `json:"aligned,omitempty"`

	// Rect bounds the grid and Grid holds its 9+9 lines.
	Rect detection.Rect      `json:"rect"`
	Grid detection.GridLines `json:"grid"`

	// Manual is true when Grid came from an override.
	Manual bool `json:"manual"`

	// Tiles are the 64 cells in image order, TileSize pixels square.
	Tiles    []image.Image `json:"-"`
	TileSize int           `json:"tile_size"`
}

// Recognition is the outcome of a full run.
type Recognition struct {
	Board       *Board                `json:"board"`
	Predictions []position.Prediction `json:"-"`
	Result      *position.Result      `json:"result"`
}

// Recognizer runs the pipeline with one configuration. It holds no
// per-call state and may be shared between goroutines.
type Recognizer struct {
	cfg    config.Config
	logger *zap.Logger
}

// New creates a Recognizer. A nil logger discards output.
func New(cfg config.Config, logger *zap.Logger) *Recognizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recognizer{cfg: cfg, logger: logger}
}

// Config returns the configuration in use.
func (r *Recognizer) Config() config.Config { return r.cfg }

// WithConfig returns a Recognizer sharing r's logger with another
// configuration.
func (r *Recognizer) WithConfig(cfg config.Config) *Recognizer {
	return &Recognizer{cfg: cfg, logger: r.logger}
}

// Prepare finds the board in img and cuts its 64 tiles. With an override
// the search is skipped and the given lines are used as they are.
func (r *Recognizer) Prepare(img image.Image, override *detection.GridLines) (*Board, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, ErrEmptyImage
	}

	board := &Board{TileSize: r.cfg.Tiles.Size}
	if override != nil {
		if err := override.Validate(r.cfg.Tiles.MinLineGap); err != nil {
			r.logger.Warn("grid override does not validate, using it anyway", zap.Error(err))
		}
		b := override.Bounds()
		board.Grid = *override
		board.Rect = detection.Rect{X: b.Min.X, Y: b.Min.Y, Width: b.Dx(), Height: b.Dy()}
		board.Manual = true
	} else {
		r.locate(img, board)
	}

	tiles, err := detection.ExtractTilesFromGrid(img, board.Grid, r.cfg.Tiles.Size)
	if err != nil {
		return nil, fmt.Errorf("failed to extract tiles: %w", err)
	}
	board.Tiles = tiles
	return board, nil
}

func (r *Recognizer) locate(img image.Image, board *Board) {
	lum := imaging.Luminance(img)

	coarse := detection.Locate(lum, r.cfg.Locator)
	r.logger.Debug("board located",
		zap.Stringer("rect", coarse.Rect),
		zap.Float64("score", coarse.Score),
		zap.Bool("fast_path", coarse.FastPath))

	edges := imaging.EdgeMap(lum, &r.cfg.Contrast, r.cfg.Edges.Strong, r.cfg.Edges.Weak)
	aligned := detection.Align(edges, coarse.Rect, r.cfg.Aligner)
	r.logger.Debug("grid aligned",
		zap.Stringer("rect", aligned.Rect),
		zap.Float64("tile_width", aligned.TileWidth),
		zap.Float64("tile_height", aligned.TileHeight))

	board.Coarse = &coarse
	board.Aligned = &aligned
	board.Rect = aligned.Rect
	board.Grid = aligned.Grid
}

// Recognize runs the whole pipeline on img. The classifier is the only
// stage that may block and the only one that sees ctx.
func (r *Recognizer) Recognize(ctx context.Context, img image.Image, clf Classifier, override *detection.GridLines) (*Recognition, error) {
	if clf == nil {
		return nil, ErrNoClassifier
	}

	board, err := r.Prepare(img, override)
	if err != nil {
		return nil, err
	}

	preds, err := clf.Classify(ctx, board.Tiles)
	if err != nil {
		return nil, fmt.Errorf("classification failed: %w", err)
	}
	if len(preds) != len(board.Tiles) {
		return nil, fmt.Errorf("%w: classifier returned %d predictions for %d tiles",
			position.ErrInvalidPredictions, len(preds), len(board.Tiles))
	}

	flipped := position.DetectFlipped(preds)
	result, err := position.Assemble(preds, flipped)
	if err != nil {
		return nil, err
	}

	r.logger.Debug("position assembled",
		zap.String("fen", result.FEN),
		zap.Bool("flipped", flipped),
		zap.Strings("warnings", result.Warnings))

	return &Recognition{Board: board, Predictions: preds, Result: result}, nil
}
