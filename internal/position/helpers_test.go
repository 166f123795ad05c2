package position

import "strings"

// boardPreds builds certain predictions from 8 rows of FEN letters, '.' for
// an empty square, top row first.
func boardPreds(rows ...string) []Prediction {
	preds := make([]Prediction, 0, 64)
	for _, row := range rows {
		for _, ch := range row {
			c := Empty
			if ch != '.' {
				c = Class(strings.IndexRune(classLetters, ch))
			}
			preds = append(preds, Certain(c))
		}
	}
	return preds
}

// mixed is a prediction whose probability is spread over the given classes.
func mixed(pairs ...interface{}) Prediction {
	var probs [NumClasses]float64
	for i := 0; i+1 < len(pairs); i += 2 {
		probs[pairs[i].(Class)] = pairs[i+1].(float64)
	}
	return FromProbabilities(probs)
}

// index returns the prediction slot of an algebraic square on an unflipped
// board.
func index(sq string) int {
	file := int(sq[0] - 'a')
	rank := int(sq[1] - '0')
	return (8-rank)*8 + file
}

var startRows = []string{
	"rnbqkbnr",
	"pppppppp",
	"........",
	"........",
	"........",
	"........",
	"PPPPPPPP",
	"RNBQKBNR",
}

const startPlacement = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR"
