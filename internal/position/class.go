package position

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Class is one of the 13 per-square classifier outputs.
type Class int

// Classes in classifier output order.
const (
	Empty Class = iota
	WhitePawn
	WhiteKnight
	WhiteBishop
	WhiteRook
	WhiteQueen
	WhiteKing
	BlackPawn
	BlackKnight
	BlackBishop
	BlackRook
	BlackQueen
	BlackKing
)

// NumClasses is the length of a probability vector.
const NumClasses = 13

var classNames = [NumClasses]string{
	"empty",
	"wP", "wN", "wB", "wR", "wQ", "wK",
	"bP", "bN", "bB", "bR", "bQ", "bK",
}

// FEN letters, indexed by class.
const classLetters = " PNBRQKpnbrqk"

// kind limits indexed by (class-1)%6: pawn, knight, bishop, rook, queen, king.
var kindLimits = [6]int{8, 2, 2, 2, 1, 1}

// Valid reports whether c is one of the 13 classes.
func (c Class) Valid() bool {
	return c >= Empty && c <= BlackKing
}

func (c Class) String() string {
	if !c.Valid() {
		return "Class(" + strconv.Itoa(int(c)) + ")"
	}
	return classNames[c]
}

// Letter is the FEN piece letter, upper case for white. Empty has none.
func (c Class) Letter() byte {
	if c == Empty || !c.Valid() {
		return 0
	}
	return classLetters[c]
}

// IsWhite reports whether c is a white piece.
func (c Class) IsWhite() bool { return c >= WhitePawn && c <= WhiteKing }

// IsBlack reports whether c is a black piece.
func (c Class) IsBlack() bool { return c >= BlackPawn && c <= BlackKing }

// IsPawn reports whether c is a pawn of either colour.
func (c Class) IsPawn() bool { return c == WhitePawn || c == BlackPawn }

// IsKing reports whether c is a king of either colour.
func (c Class) IsKing() bool { return c == WhiteKing || c == BlackKing }

// Limit is the most pieces of this class one side can legally have. Empty
// is unlimited and reports 64.
func (c Class) Limit() int {
	if c == Empty || !c.Valid() {
		return 64
	}
	return kindLimits[(c-1)%6]
}

// ParseClass accepts a class name ("wK", "empty"), a FEN letter ("K", "k")
// or a class index ("6").
func ParseClass(s string) (Class, error) {
	for i, name := range classNames {
		if s == name {
			return Class(i), nil
		}
	}
	if len(s) == 1 {
		for i := 1; i < NumClasses; i++ {
			if classLetters[i] == s[0] {
				return Class(i), nil
			}
		}
	}
	if n, err := strconv.Atoi(s); err == nil && Class(n).Valid() {
		return Class(n), nil
	}
	return Empty, fmt.Errorf("unknown piece class %q", s)
}

// MarshalJSON encodes a class by name.
func (c Class) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// UnmarshalJSON accepts either a class index or anything ParseClass does.
func (c *Class) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		if !Class(n).Valid() {
			return fmt.Errorf("piece class %d out of range", n)
		}
		*c = Class(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("piece class must be a number or a string: %w", err)
	}
	parsed, err := ParseClass(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
