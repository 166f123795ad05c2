package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/ironsheep/chessboard-fen-mcp/internal/detection"
	"github.com/ironsheep/chessboard-fen-mcp/internal/imaging"
	"github.com/ironsheep/chessboard-fen-mcp/internal/pipeline"
	"github.com/ironsheep/chessboard-fen-mcp/internal/position"
	"github.com/ironsheep/chessboard-fen-mcp/internal/store"
)

// ErrHistoryDisabled is returned by position_history when the server runs
// without a store.
var ErrHistoryDisabled = errors.New("position history is disabled")

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "board_locate", "position_assemble").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		s.logger.Debug("tool failed", zap.String("tool", params.Name), zap.Error(err))
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
//
// Each tool handler:
//  1. Unmarshals arguments from JSON
//  2. Applies default values and configuration overrides
//  3. Loads images from cache as needed
//  4. Calls the appropriate imaging/detection/position/pipeline function
//  5. Returns the result or error
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Basic Image Information
	case "image_load":
		return s.handleImageLoad(args)
	case "image_dimensions":
		return s.handleImageDimensions(args)

	// Board Geometry
	case "board_locate":
		return s.handleBoardLocate(args)
	case "board_align":
		return s.handleBoardAlign(args)
	case "board_tiles":
		return s.handleBoardTiles(args)
	case "board_crop":
		return s.handleBoardCrop(args)
	case "board_overlay":
		return s.handleBoardOverlay(args)
	case "board_edges":
		return s.handleBoardEdges(args)

	// Position
	case "position_assemble":
		return s.handlePositionAssemble(args)
	case "position_validate":
		return s.handlePositionValidate(args)
	case "board_recognize":
		return s.handleBoardRecognize(ctx, args)
	case "position_history":
		return s.handlePositionHistory(args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// decodeArgs unmarshals tool arguments, treating missing arguments as {}.
func decodeArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 {
		return nil
	}
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

// loadImage fetches a cache entry, rejecting an empty path up front.
func (s *Server) loadImage(path string) (*imaging.CachedImage, error) {
	if path == "" {
		return nil, fmt.Errorf("path is required")
	}
	return s.cache.LoadEntry(path)
}

// recognizerFor applies per-call options on top of the server configuration.
func (s *Server) recognizerFor(options map[string]interface{}) (*pipeline.Recognizer, error) {
	if len(options) == 0 {
		return s.recognizer, nil
	}
	cfg := s.recognizer.Config()
	if err := cfg.ApplyOverrides(options); err != nil {
		return nil, err
	}
	return s.recognizer.WithConfig(cfg), nil
}

// === Basic Image Information Handlers ===

type imageLoadArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, fmt.Errorf("path is required")
	}
	return imaging.LoadImageInfo(s.cache, a.Path)
}

func (s *Server) handleImageDimensions(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, fmt.Errorf("path is required")
	}
	return imaging.GetDimensions(s.cache, a.Path)
}

// === Board Geometry Handlers ===

type boardArgs struct {
	Path    string                 `json:"path"`
	Grid    *detection.GridLines   `json:"grid"`
	Options map[string]interface{} `json:"options"`
}

// prepare loads the image and runs detection, or applies the manual grid.
func (s *Server) prepare(a boardArgs) (*imaging.CachedImage, *pipeline.Board, error) {
	r, err := s.recognizerFor(a.Options)
	if err != nil {
		return nil, nil, err
	}
	entry, err := s.loadImage(a.Path)
	if err != nil {
		return nil, nil, err
	}
	board, err := r.Prepare(entry.Image, a.Grid)
	if err != nil {
		return nil, nil, err
	}
	return entry, board, nil
}

// LocateOutput is the board_locate result.
type LocateOutput struct {
	Width  int `json:"width"`
	Height int `json:"height"`
	detection.LocateResult
}

func (s *Server) handleBoardLocate(args json.RawMessage) (interface{}, error) {
	var a boardArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	r, err := s.recognizerFor(a.Options)
	if err != nil {
		return nil, err
	}
	entry, err := s.loadImage(a.Path)
	if err != nil {
		return nil, err
	}

	lum := imaging.Luminance(entry.Image)
	return &LocateOutput{
		Width:        lum.Width,
		Height:       lum.Height,
		LocateResult: detection.Locate(lum, r.Config().Locator),
	}, nil
}

func (s *Server) handleBoardAlign(args json.RawMessage) (interface{}, error) {
	var a boardArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	a.Grid = nil
	_, board, err := s.prepare(a)
	if err != nil {
		return nil, err
	}
	return board, nil
}

// TileImage is one encoded tile.
type TileImage struct {
	Index       int    `json:"index"`
	Row         int    `json:"row"`
	Col         int    `json:"col"`
	ImageBase64 string `json:"image_base64"`
}

// TilesOutput is the board_tiles result.
type TilesOutput struct {
	Board    *pipeline.Board `json:"board"`
	Tiles    []TileImage     `json:"tiles"`
	MimeType string          `json:"mime_type"`
}

func (s *Server) handleBoardTiles(args json.RawMessage) (interface{}, error) {
	var a boardArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	_, board, err := s.prepare(a)
	if err != nil {
		return nil, err
	}

	out := &TilesOutput{Board: board, Tiles: make([]TileImage, 0, len(board.Tiles)), MimeType: "image/png"}
	for i, tile := range board.Tiles {
		encoded, err := imaging.EncodePNGBase64(tile)
		if err != nil {
			return nil, fmt.Errorf("tile %d: %w", i, err)
		}
		out.Tiles = append(out.Tiles, TileImage{Index: i, Row: i / 8, Col: i % 8, ImageBase64: encoded})
	}
	return out, nil
}

type boardCropArgs struct {
	boardArgs
	Scale  float64 `json:"scale"`
	Rotate bool    `json:"rotate"`
}

func (s *Server) handleBoardCrop(args json.RawMessage) (interface{}, error) {
	var a boardCropArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Scale == 0 {
		a.Scale = 1.0
	}
	entry, board, err := s.prepare(a.boardArgs)
	if err != nil {
		return nil, err
	}

	bounds := entry.Image.Bounds()
	region := board.Rect.Image().Add(bounds.Min).Intersect(bounds)
	return imaging.CropBoard(entry.Image, region, a.Scale, a.Rotate)
}

type boardOverlayArgs struct {
	boardArgs
	ShowLabels *bool  `json:"show_labels"`
	Flipped    bool   `json:"flipped"`
	Color      string `json:"color"`
}

func (s *Server) handleBoardOverlay(args json.RawMessage) (interface{}, error) {
	var a boardOverlayArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	showLabels := true
	if a.ShowLabels != nil {
		showLabels = *a.ShowLabels
	}
	if a.Color == "" {
		a.Color = "#FF0000"
	}
	entry, board, err := s.prepare(a.boardArgs)
	if err != nil {
		return nil, err
	}
	return imaging.GridOverlay(entry.Image, board.Grid.X[:], board.Grid.Y[:], showLabels, a.Flipped, a.Color)
}

type boardEdgesArgs struct {
	Path     string   `json:"path"`
	Strong   *float64 `json:"strong"`
	Weak     *float64 `json:"weak"`
	Contrast *bool    `json:"contrast"`
}

func (s *Server) handleBoardEdges(args json.RawMessage) (interface{}, error) {
	var a boardEdgesArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	cfg := s.recognizer.Config()
	strong, weak := cfg.Edges.Strong, cfg.Edges.Weak
	if a.Strong != nil {
		strong = *a.Strong
	}
	if a.Weak != nil {
		weak = *a.Weak
	}
	if weak < 0 || strong < weak {
		return nil, fmt.Errorf("thresholds must satisfy 0 <= weak <= strong, got weak %g strong %g", weak, strong)
	}

	var clahe *imaging.CLAHEOptions
	if a.Contrast == nil || *a.Contrast {
		clahe = &cfg.Contrast
	}

	entry, err := s.loadImage(a.Path)
	if err != nil {
		return nil, err
	}
	return imaging.EdgeDetect(entry.Image, weak, strong, clahe)
}

// === Position Handlers ===

// predictionArg is one square as sent by a client: a class, a probability
// vector, or both.
type predictionArg struct {
	Class         *position.Class `json:"class"`
	Probabilities []float64       `json:"probabilities"`
}

func decodePredictions(args []predictionArg) ([]position.Prediction, error) {
	preds := make([]position.Prediction, len(args))
	for i, p := range args {
		switch {
		case len(p.Probabilities) > 0:
			if len(p.Probabilities) != position.NumClasses {
				return nil, fmt.Errorf("%w: square %d has %d probabilities, want %d",
					position.ErrInvalidPredictions, i, len(p.Probabilities), position.NumClasses)
			}
			var probs [position.NumClasses]float64
			copy(probs[:], p.Probabilities)
			preds[i] = position.FromProbabilities(probs)
		case p.Class != nil:
			preds[i] = position.Certain(*p.Class)
		default:
			return nil, fmt.Errorf("%w: square %d has neither class nor probabilities",
				position.ErrInvalidPredictions, i)
		}
	}
	return preds, nil
}

type positionAssembleArgs struct {
	Predictions []predictionArg `json:"predictions"`
	Flipped     *bool           `json:"flipped"`
}

func (s *Server) handlePositionAssemble(args json.RawMessage) (interface{}, error) {
	var a positionAssembleArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	preds, err := decodePredictions(a.Predictions)
	if err != nil {
		return nil, err
	}

	var flipped bool
	if a.Flipped != nil {
		flipped = *a.Flipped
	} else {
		flipped = position.DetectFlipped(preds)
	}
	return position.Assemble(preds, flipped)
}

// ValidateOutput is the position_validate result.
type ValidateOutput struct {
	Valid   bool             `json:"valid"`
	Error   string           `json:"error,omitempty"`
	Squares []position.Class `json:"squares,omitempty"`
}

func (s *Server) handlePositionValidate(args json.RawMessage) (interface{}, error) {
	var a struct {
		FEN string `json:"fen"`
	}
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.FEN == "" {
		return nil, fmt.Errorf("fen is required")
	}

	labels, err := position.Labels(a.FEN)
	if err != nil {
		return &ValidateOutput{Valid: false, Error: err.Error()}, nil
	}
	return &ValidateOutput{Valid: true, Squares: labels[:]}, nil
}

type boardRecognizeArgs struct {
	boardArgs
	Predictions []predictionArg `json:"predictions"`
}

// RecognizeOutput is the board_recognize result.
type RecognizeOutput struct {
	*pipeline.Recognition
	HistoryID uint64 `json:"history_id,omitempty"`
}

func (s *Server) handleBoardRecognize(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a boardRecognizeArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	preds, err := decodePredictions(a.Predictions)
	if err != nil {
		return nil, err
	}
	r, err := s.recognizerFor(a.Options)
	if err != nil {
		return nil, err
	}
	entry, err := s.loadImage(a.Path)
	if err != nil {
		return nil, err
	}

	rec, err := r.Recognize(ctx, entry.Image, pipeline.StaticClassifier(preds), a.Grid)
	if err != nil {
		return nil, err
	}

	out := &RecognizeOutput{Recognition: rec}
	if s.history != nil {
		stored, err := s.history.Add(store.Entry{
			Source:   a.Path,
			Digest:   entry.Digest,
			Board:    rec.Board.Rect,
			FEN:      rec.Result.FEN,
			Flipped:  rec.Result.Flipped,
			Warnings: rec.Result.Warnings,
		})
		if err != nil {
			s.logger.Warn("failed to record recognition", zap.Error(err))
		} else {
			out.HistoryID = stored.ID
		}
	}
	return out, nil
}

type positionHistoryArgs struct {
	Limit int    `json:"limit"`
	Path  string `json:"path"`
}

func (s *Server) handlePositionHistory(args json.RawMessage) (interface{}, error) {
	if s.history == nil {
		return nil, ErrHistoryDisabled
	}
	var a positionHistoryArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Limit <= 0 {
		a.Limit = s.recognizer.Config().Store.HistoryLimit
	}

	var digest string
	if a.Path != "" {
		entry, err := s.loadImage(a.Path)
		if err != nil {
			return nil, err
		}
		digest = entry.Digest
	}
	return s.history.Recent(a.Limit, digest)
}
