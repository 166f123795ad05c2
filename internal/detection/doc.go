// Package detection finds a chessboard in a screenshot and cuts it into
// squares.
//
// Detection runs in three stages over planes produced by package imaging:
//
//  1. Locate: a coarse search over square candidates for the region whose
//     8x8 tile brightness pattern alternates most like a board
//  2. Align: a per-axis refinement of tile size and offset against edge
//     profiles, turning the coarse square into one whose grid lines sit on
//     the board's square boundaries
//  3. Extract: 64 fixed-size tiles resampled from the aligned square, or from
//     a grid of 9+9 lines supplied by the caller
//
// # Coordinate System
//
// All coordinates use the standard image convention:
//   - Origin (0, 0) at top-left corner
//   - X increases rightward
//   - Y increases downward
//   - Rect covers [X, X+Width) x [Y, Y+Height)
//
// Tiles and grid cells are numbered row-major from the top-left of the image.
// Whether that corner is a8 or h1 is decided later, once the pieces are
// classified.
//
// # Failure Modes
//
// Locate and Align never fail. A poor image produces a poor but valid square
// inside the image bounds, which downstream correction and the caller's own
// judgement have to cope with. Only tile extraction reports errors, for
// invalid sizes or empty images.
//
// # Concurrency
//
// The candidate sizes in Locate and the tile sizes in Align are evaluated on
// separate goroutines. They only read the shared planes and each writes its
// own result slot, so callers need no synchronization and may run several
// detections at once.
package detection
