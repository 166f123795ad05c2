package position

import (
	"errors"
	"fmt"
	"strings"

	"github.com/corentings/chess/v2"
)

// ErrInvalidPredictions is returned when a prediction batch cannot describe a
// board: the wrong number of squares or an out-of-range class.
var ErrInvalidPredictions = errors.New("invalid predictions")

// Suffix completes a piece placement into a full FEN. Side to move, castling
// rights, en passant and move counters cannot be read from a picture, so
// white to move with full castling rights is assumed.
const Suffix = " w KQkq - 0 1"

// Result is an assembled position.
type Result struct {
	// Placement is the FEN piece-placement field.
	Placement string `json:"placement"`

	// FEN is Placement followed by Suffix.
	FEN string `json:"fen"`

	// Flipped is true when the predictions were rotated 180 degrees because
	// the image showed the board from black's side.
	Flipped bool `json:"flipped"`

	// Warnings lists every automatic correction, in the order applied.
	Warnings []string `json:"warnings"`
}

// Assemble turns 64 predictions in image order into a position. When flipped
// is true the board is rotated 180 degrees first. The grid is then corrected
// (see Correct) and serialized. Batches that are not exactly 64 valid
// predictions are rejected with ErrInvalidPredictions before anything is
// built.
func Assemble(preds []Prediction, flipped bool) (*Result, error) {
	g, err := NewGrid(preds)
	if err != nil {
		return nil, err
	}
	if flipped {
		g.Rotate()
	}

	warnings := Correct(g)
	if warnings == nil {
		warnings = []string{}
	}

	placement := g.Placement()
	return &Result{
		Placement: placement,
		FEN:       placement + Suffix,
		Flipped:   flipped,
		Warnings:  warnings,
	}, nil
}

// ValidateFEN checks that fen parses as a chess position. A bare piece
// placement is completed with Suffix first.
func ValidateFEN(fen string) error {
	if _, err := chess.FEN(completeFEN(fen)); err != nil {
		return fmt.Errorf("invalid FEN %q: %w", fen, err)
	}
	return nil
}

// Labels returns the class of every square of a FEN position, row-major from
// a8 to h1. A bare piece placement is accepted.
func Labels(fen string) ([64]Class, error) {
	var labels [64]Class

	opt, err := chess.FEN(completeFEN(fen))
	if err != nil {
		return labels, fmt.Errorf("invalid FEN %q: %w", fen, err)
	}
	board := chess.NewGame(opt).Position().Board()

	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			sq := chess.NewSquare(chess.File(col), chess.Rank(7-row))
			labels[row*8+col] = classOf(board.Piece(sq))
		}
	}
	return labels, nil
}

func completeFEN(fen string) string {
	fen = strings.TrimSpace(fen)
	if !strings.Contains(fen, " ") {
		fen += Suffix
	}
	return fen
}

func classOf(p chess.Piece) Class {
	switch p {
	case chess.WhitePawn:
		return WhitePawn
	case chess.WhiteKnight:
		return WhiteKnight
	case chess.WhiteBishop:
		return WhiteBishop
	case chess.WhiteRook:
		return WhiteRook
	case chess.WhiteQueen:
		return WhiteQueen
	case chess.WhiteKing:
		return WhiteKing
	case chess.BlackPawn:
		return BlackPawn
	case chess.BlackKnight:
		return BlackKnight
	case chess.BlackBishop:
		return BlackBishop
	case chess.BlackRook:
		return BlackRook
	case chess.BlackQueen:
		return BlackQueen
	case chess.BlackKing:
		return BlackKing
	}
	return Empty
}
