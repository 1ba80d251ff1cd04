package world

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidLayout is returned for negative dimension bit widths.
	ErrInvalidLayout = errors.New("invalid chunk layout")
	// ErrLayoutTooLarge is returned when a chunk's linear index would not fit in 32 bits.
	ErrLayoutTooLarge = errors.New("chunk layout exceeds 32 index bits")
)

// DefaultLayout is a 32×32×32 chunk.
var DefaultLayout = MustLayout(5, 5, 5)

// Layout describes the power-of-two dimensions of a chunk and maps local
// block positions to linear indices.
//
// Index bits, low to high: y, then x, then z.
type Layout struct {
	widthBits, heightBits, lengthBits uint
}

// NewLayout returns a Layout whose width, height and length are
// 1<<widthBits, 1<<heightBits and 1<<lengthBits.
func NewLayout(widthBits, heightBits, lengthBits int) (Layout, error) {
	if widthBits < 0 || heightBits < 0 || lengthBits < 0 {
		return Layout{}, fmt.Errorf("bits %d,%d,%d: %w", widthBits, heightBits, lengthBits, ErrInvalidLayout)
	}
	if widthBits+heightBits+lengthBits > 32 {
		return Layout{}, fmt.Errorf("bits %d+%d+%d: %w", widthBits, heightBits, lengthBits, ErrLayoutTooLarge)
	}
	return Layout{
		widthBits:  uint(widthBits),
		heightBits: uint(heightBits),
		lengthBits: uint(lengthBits),
	}, nil
}

// MustLayout is like NewLayout but panics on error.
func MustLayout(widthBits, heightBits, lengthBits int) Layout {
	l, err := NewLayout(widthBits, heightBits, lengthBits)
	if err != nil {
		panic(err)
	}
	return l
}

func (l Layout) Width() int { return 1 << l.widthBits }
func (l Layout) Height() int { return 1 << l.heightBits }
func (l Layout) Length() int { return 1 << l.lengthBits }

// Volume returns the number of blocks in a chunk.
func (l Layout) Volume() int {
	return 1 << (l.widthBits + l.heightBits + l.lengthBits)
}

// Contains reports whether p is a valid local block position.
func (l Layout) Contains(p Position) bool {
	return p.X >= 0 && p.X < l.Width() &&
		p.Y >= 0 && p.Y < l.Height() &&
		p.Z >= 0 && p.Z < l.Length()
}

// Index returns the linear index of local position p. Coordinates are
// masked, so out-of-range positions wrap; check Contains first.
func (l Layout) Index(p Position) int {
	return (p.Y & (l.Height() - 1)) |
		(p.X&(l.Width()-1))<<l.heightBits |
		(p.Z&(l.Length()-1))<<(l.heightBits+l.widthBits)
}

// Position is the inverse of Index for i in [0, Volume).
func (l Layout) Position(i int) Position {
	return Position{
		X: (i >> l.heightBits) & (l.Width() - 1),
		Y: i & (l.Height() - 1),
		Z: (i >> (l.heightBits + l.widthBits)) & (l.Length() - 1),
	}
}

func (l Layout) String() string {
	return fmt.Sprintf("%dx%dx%d", l.Width(), l.Height(), l.Length())
}
