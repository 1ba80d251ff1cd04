// Package render keeps chunk meshes in fixed-size GPU buffers.
//
// Buffers are sized once for the worst case of a chunk layout and every
// mesh update re-uploads only the used prefix. Graphics calls are not
// thread safe: every method must run on the goroutine that owns the
// graphics context.
package render

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/OCharnyshevich/voxelworld/internal/mesh"
	"github.com/OCharnyshevich/voxelworld/internal/world"
)

const (
	// VertexSize is the byte size of an interleaved vertex: position then normal, 3×f32 each.
	VertexSize = 6 * 4
	// IndexSize is the byte size of one triangle index.
	IndexSize = 4
)

// ErrMeshTooLarge is returned when a mesh does not fit the buffers of its chunk layout.
var ErrMeshTooLarge = errors.New("mesh exceeds buffer capacity")

// Backend is the graphics API side of a chunk's vertex and index buffers.
type Backend interface {
	// Allocate reserves vertex and index storage of the given byte sizes.
	Allocate(vertexBytes, indexBytes int) error
	// UploadVertices writes data at the start of the vertex buffer.
	UploadVertices(data []byte) error
	// UploadIndices writes data at the start of the index buffer.
	UploadIndices(data []byte) error
	// Release frees the buffers.
	Release() error
}

// Buffers holds one chunk's mesh on the GPU.
type Buffers struct {
	backend      Backend
	maxVertices  int
	maxIndices   int
	elementCount int

	vertexData []byte
	indexData  []byte
}

// NewBuffers allocates worst-case storage for a chunk of layout l.
func NewBuffers(backend Backend, l world.Layout) (*Buffers, error) {
	b := &Buffers{
		backend:     backend,
		maxVertices: mesh.MaxVertices(l),
		maxIndices:  mesh.MaxIndices(l),
	}
	if err := backend.Allocate(b.maxVertices*VertexSize, b.maxIndices*IndexSize); err != nil {
		return nil, fmt.Errorf("allocate chunk buffers: %w", err)
	}
	return b, nil
}

// ElementCount returns the number of indices to draw.
func (b *Buffers) ElementCount() int {
	return b.elementCount
}

// SetMesh uploads m, replacing the previous mesh.
func (b *Buffers) SetMesh(m *mesh.ChunkMesh) error {
	if len(m.Vertices) > b.maxVertices || len(m.Triangles) > b.maxIndices {
		return fmt.Errorf("%d vertices, %d indices: %w", len(m.Vertices), len(m.Triangles), ErrMeshTooLarge)
	}

	b.vertexData = EncodeVertices(b.vertexData[:0], m.Vertices)
	b.indexData = EncodeIndices(b.indexData[:0], m.Triangles)

	if err := b.backend.UploadVertices(b.vertexData); err != nil {
		return fmt.Errorf("upload vertices: %w", err)
	}
	if err := b.backend.UploadIndices(b.indexData); err != nil {
		return fmt.Errorf("upload indices: %w", err)
	}
	b.elementCount = len(m.Triangles)
	return nil
}

// Close releases the backend buffers.
func (b *Buffers) Close() error {
	b.elementCount = 0
	return b.backend.Release()
}

// EncodeVertices appends the little-endian interleaved form of vs to dst.
func EncodeVertices(dst []byte, vs []mesh.Vertex) []byte {
	for _, v := range vs {
		for _, f := range [6]float32{v.Position[0], v.Position[1], v.Position[2], v.Normal[0], v.Normal[1], v.Normal[2]} {
			dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(f))
		}
	}
	return dst
}

// EncodeIndices appends the little-endian form of idx to dst.
func EncodeIndices(dst []byte, idx []uint32) []byte {
	for _, i := range idx {
		dst = binary.LittleEndian.AppendUint32(dst, i)
	}
	return dst
}
