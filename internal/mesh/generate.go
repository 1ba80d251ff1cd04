package mesh

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/OCharnyshevich/voxelworld/internal/world"
)

// face is one side of the unit cube. A block at p spans
// [p.X, p.X+1] × [p.Y, p.Y+1] × [p.Z-1, p.Z].
type face struct {
	side     Sides
	normal   mgl32.Vec3
	neighbor world.Position
	corners  [4]mgl32.Vec3
}

// faces is in emission order.
var faces = [...]face{
	{
		side:     Top,
		normal:   mgl32.Vec3{0, 1, 0},
		neighbor: world.Position{Y: 1},
		corners:  [4]mgl32.Vec3{{0, 1, 0}, {1, 1, 0}, {1, 1, -1}, {0, 1, -1}},
	},
	{
		side:     Bottom,
		normal:   mgl32.Vec3{0, -1, 0},
		neighbor: world.Position{Y: -1},
		corners:  [4]mgl32.Vec3{{0, 0, 0}, {0, 0, -1}, {1, 0, -1}, {1, 0, 0}},
	},
	{
		side:     Right,
		normal:   mgl32.Vec3{1, 0, 0},
		neighbor: world.Position{X: 1},
		corners:  [4]mgl32.Vec3{{1, 0, 0}, {1, 0, -1}, {1, 1, -1}, {1, 1, 0}},
	},
	{
		side:     Left,
		normal:   mgl32.Vec3{-1, 0, 0},
		neighbor: world.Position{X: -1},
		corners:  [4]mgl32.Vec3{{0, 0, 0}, {0, 1, 0}, {0, 1, -1}, {0, 0, -1}},
	},
	{
		side:     Front,
		normal:   mgl32.Vec3{0, 0, -1},
		neighbor: world.Position{Z: -1},
		corners:  [4]mgl32.Vec3{{0, 0, -1}, {0, 1, -1}, {1, 1, -1}, {1, 0, -1}},
	},
	{
		side:     Back,
		normal:   mgl32.Vec3{0, 0, 1},
		neighbor: world.Position{Z: 1},
		corners:  [4]mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}},
	},
}

// faceTriangles splits a face quad into two triangles.
var faceTriangles = [6]uint32{0, 1, 2, 2, 3, 0}

// EmitBlock appends the given faces of a block at p to m.
func EmitBlock(m *ChunkMesh, p world.Position, sides Sides) {
	offset := mgl32.Vec3{float32(p.X), float32(p.Y), float32(p.Z)}
	for i := range faces {
		f := &faces[i]
		if !sides.Has(f.side) {
			continue
		}
		base := uint32(len(m.Vertices))
		for _, c := range f.corners {
			m.Vertices = append(m.Vertices, Vertex{Position: c.Add(offset), Normal: f.normal})
		}
		for _, t := range faceTriangles {
			m.Triangles = append(m.Triangles, base+t)
		}
	}
}

// ExposedSides returns the faces of the block at p whose neighbour is empty.
func ExposedSides(c *world.Chunk, p world.Position) Sides {
	var s Sides
	for i := range faces {
		if c.Block(p.Add(faces[i].neighbor)).Empty() {
			s |= faces[i].side
		}
	}
	return s
}

// Generate builds the mesh of c in chunk-local coordinates.
func Generate(c *world.Chunk) *ChunkMesh {
	m := &ChunkMesh{}
	GenerateInto(m, c)
	return m
}

// GenerateInto resets m and fills it with the mesh of c.
func GenerateInto(m *ChunkMesh, c *world.Chunk) {
	m.Reset()
	for p, b := range c.All() {
		if b.Empty() {
			continue
		}
		if sides := ExposedSides(c, p); sides != 0 {
			EmitBlock(m, p, sides)
		}
	}
}
