package position

import (
	"fmt"
	"sort"
)

// maxLimitPasses bounds the piece limit loop. The at-limit set only grows,
// so real boards settle within a handful of passes.
const maxLimitPasses = 64

type square struct{ r, f int }

// Correct applies the legality rules to g in place, in order:
//
//  1. No pawns on the first or last rank: such a pawn becomes the most
//     probable non-pawn class for its square.
//  2. One king per side: a side without a king gets one on the square with
//     the highest probability for that king.
//  3. Piece limits per side (K1 Q1 R2 B2 N2 P8), repeated until nothing
//     changes: of every class over its limit the most probable occurrences
//     are kept and the rest take their square's most probable class among
//     those not yet at their limit.
//
// Every change is described by one warning, in the order it was made. Ties
// go to the first square in scan order (row, then file) and to the lowest
// class index. Running Correct on its own output changes nothing.
func Correct(g *Grid) []string {
	var warnings []string
	warnings = append(warnings, fixBackRankPawns(g)...)
	warnings = append(warnings, insertMissingKings(g)...)
	warnings = append(warnings, enforceLimits(g)...)
	return warnings
}

func fixBackRankPawns(g *Grid) []string {
	var warnings []string
	for _, r := range []int{0, 7} {
		for f := 0; f < 8; f++ {
			c := g.Classes[r][f]
			if !c.IsPawn() {
				continue
			}
			alt := bestClass(g.Probs[r][f], func(k Class) bool { return k.IsPawn() })
			g.Classes[r][f] = alt
			warnings = append(warnings, fmt.Sprintf(
				"%s on rank %d (%s) is not possible; replaced with %s", c, 8-r, squareName(r, f), alt))
		}
	}
	return warnings
}

func insertMissingKings(g *Grid) []string {
	var warnings []string
	counts := g.counts()
	for _, king := range []Class{WhiteKing, BlackKing} {
		if counts[king] > 0 {
			continue
		}
		other := BlackKing
		if king == BlackKing {
			other = WhiteKing
		}

		best := square{-1, -1}
		bestP := -1.0
		for r := 0; r < 8; r++ {
			for f := 0; f < 8; f++ {
				if g.Classes[r][f] == other {
					continue
				}
				if p := g.Probs[r][f][king]; p > bestP {
					best, bestP = square{r, f}, p
				}
			}
		}
		if best.r < 0 {
			continue
		}

		was := g.Classes[best.r][best.f]
		g.Classes[best.r][best.f] = king
		counts = g.counts()
		warnings = append(warnings, fmt.Sprintf(
			"no %s detected; placed at %s (p=%.2f) replacing %s", king, squareName(best.r, best.f), bestP, was))
	}
	return warnings
}

func enforceLimits(g *Grid) []string {
	var warnings []string
	for pass := 0; pass < maxLimitPasses; pass++ {
		counts := g.counts()

		var atLimit [NumClasses]bool
		for c := WhitePawn; c <= BlackKing; c++ {
			atLimit[c] = counts[c] >= c.Limit()
		}

		changed := false
		for c := WhitePawn; c <= BlackKing; c++ {
			limit := c.Limit()
			if counts[c] <= limit {
				continue
			}

			var held []square
			for r := 0; r < 8; r++ {
				for f := 0; f < 8; f++ {
					if g.Classes[r][f] == c {
						held = append(held, square{r, f})
					}
				}
			}
			sort.SliceStable(held, func(i, j int) bool {
				return g.Probs[held[i].r][held[i].f][c] > g.Probs[held[j].r][held[j].f][c]
			})

			for _, sq := range held[limit:] {
				backRank := sq.r == 0 || sq.r == 7
				alt := bestClass(g.Probs[sq.r][sq.f], func(k Class) bool {
					return atLimit[k] || (backRank && k.IsPawn())
				})
				g.Classes[sq.r][sq.f] = alt
				changed = true
				warnings = append(warnings, fmt.Sprintf(
					"too many %s (%d, limit %d); %s replaced with %s", c, counts[c], limit, squareName(sq.r, sq.f), alt))
			}
		}
		if !changed {
			break
		}
	}
	return warnings
}

// bestClass returns the most probable class not rejected by skip. Empty is
// never skipped, so there is always an answer.
func bestClass(probs [NumClasses]float64, skip func(Class) bool) Class {
	best := Empty
	for c := WhitePawn; c <= BlackKing; c++ {
		if skip(c) {
			continue
		}
		if probs[c] > probs[best] {
			best = c
		}
	}
	return best
}
