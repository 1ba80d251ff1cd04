// Package mesh turns chunk block data into triangle geometry.
//
// Only faces that border an empty cell are emitted. Cells outside the
// chunk read as empty, so faces on the chunk border are always emitted.
package mesh

import (
	"strings"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/OCharnyshevich/voxelworld/internal/world"
)

const (
	// VerticesPerBlock is the vertex count of a block with all faces exposed.
	VerticesPerBlock = 24
	// IndicesPerBlock is the triangle index count of a block with all faces exposed.
	IndicesPerBlock = 36
)

// Vertex is a mesh vertex with its face normal.
type Vertex struct {
	Position mgl32.Vec3
	Normal   mgl32.Vec3
}

// ChunkMesh is the renderable surface of one chunk. Triangles holds three
// indices into Vertices per triangle, wound counter-clockwise.
type ChunkMesh struct {
	Vertices  []Vertex
	Triangles []uint32
}

// TriangleCount returns the number of triangles in m.
func (m *ChunkMesh) TriangleCount() int {
	return len(m.Triangles) / 3
}

// Reset empties m, keeping its storage.
func (m *ChunkMesh) Reset() {
	m.Vertices = m.Vertices[:0]
	m.Triangles = m.Triangles[:0]
}

// MaxVertices returns the vertex count of a chunk with every face of every block exposed.
func MaxVertices(l world.Layout) int {
	return VerticesPerBlock * l.Volume()
}

// MaxIndices returns the index count of a chunk with every face of every block exposed.
func MaxIndices(l world.Layout) int {
	return IndicesPerBlock * l.Volume()
}

// Sides is a set of block faces.
type Sides uint8

const (
	Top Sides = 1 << iota
	Bottom
	Left
	Right
	Front
	Back

	AllSides = Top | Bottom | Left | Right | Front | Back
)

var sideNames = [...]struct {
	s    Sides
	name string
}{
	{Top, "top"},
	{Bottom, "bottom"},
	{Left, "left"},
	{Right, "right"},
	{Front, "front"},
	{Back, "back"},
}

// Has reports whether every side in o is in s.
func (s Sides) Has(o Sides) bool {
	return s&o == o
}

// Count returns the number of sides in s.
func (s Sides) Count() int {
	n := 0
	for _, sn := range sideNames {
		if s.Has(sn.s) {
			n++
		}
	}
	return n
}

func (s Sides) String() string {
	if s&AllSides == 0 {
		return "none"
	}
	var names []string
	for _, sn := range sideNames {
		if s.Has(sn.s) {
			names = append(names, sn.name)
		}
	}
	return strings.Join(names, "|")
}
