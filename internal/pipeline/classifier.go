package pipeline

import (
	"context"
	"fmt"
	"image"

	"github.com/ironsheep/chessboard-fen-mcp/internal/position"
)

// Classifier labels square tiles. It receives the 64 tiles of one board,
// row-major from the image's top-left, and returns one prediction per tile
// in the same order with probabilities in class order.
type Classifier interface {
	Classify(ctx context.Context, tiles []image.Image) ([]position.Prediction, error)
}

// ClassifierFunc adapts a function to Classifier.
type ClassifierFunc func(ctx context.Context, tiles []image.Image) ([]position.Prediction, error)

// Classify calls f.
func (f ClassifierFunc) Classify(ctx context.Context, tiles []image.Image) ([]position.Prediction, error) {
	return f(ctx, tiles)
}

// StaticClassifier answers with predictions computed elsewhere, such as by
// a model running in the client that called the server. It checks only that
// there is one prediction per tile.
type StaticClassifier []position.Prediction

// Classify returns a copy of s.
func (s StaticClassifier) Classify(ctx context.Context, tiles []image.Image) ([]position.Prediction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(s) != len(tiles) {
		return nil, fmt.Errorf("%w: have %d predictions for %d tiles", position.ErrInvalidPredictions, len(s), len(tiles))
	}
	out := make([]position.Prediction, len(s))
	copy(out, s)
	return out, nil
}
