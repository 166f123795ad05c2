// Package position turns 64 per-square piece predictions into a FEN string.
//
// Predictions arrive in image order, row-major from the top-left square of
// the picture, each with a probability for every one of the 13 classes
// (empty plus six white and six black piece kinds). DetectFlipped decides
// whether the picture shows the board from black's side; Assemble rotates the
// grid if so, repairs it with Correct and writes the placement.
//
// Correction never rejects a board. Instead it makes the smallest
// probability-guided changes that satisfy the structural rules of chess
// (no pawns on the back ranks, one king per side, piece count limits) and
// reports each change as a warning so the caller can show or check them.
package position
