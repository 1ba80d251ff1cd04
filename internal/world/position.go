package world

import (
	"fmt"
	"math"
)

// Position is an integer coordinate. The same type is used for block
// positions inside a chunk and for chunk positions on the terrain grid;
// callers track which space a value belongs to.
type Position struct {
	X, Y, Z int
}

// Add returns p + o.
func (p Position) Add(o Position) Position {
	return Position{p.X + o.X, p.Y + o.Y, p.Z + o.Z}
}

// Sub returns p - o.
func (p Position) Sub(o Position) Position {
	return Position{p.X - o.X, p.Y - o.Y, p.Z - o.Z}
}

// DistanceSq returns the squared Euclidean distance between p and o.
func (p Position) DistanceSq(o Position) int {
	d := p.Sub(o)
	return d.X*d.X + d.Y*d.Y + d.Z*d.Z
}

// Distance returns the Euclidean distance between p and o.
func (p Position) Distance(o Position) float64 {
	return math.Sqrt(float64(p.DistanceSq(o)))
}

func (p Position) String() string {
	return fmt.Sprintf("(%d,%d,%d)", p.X, p.Y, p.Z)
}
