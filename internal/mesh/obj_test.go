package mesh

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/OCharnyshevich/voxelworld/internal/world"
)

func TestOBJWriterCounts(t *testing.T) {
	m := &ChunkMesh{}
	EmitBlock(m, world.Position{}, Top|Left)

	var buf bytes.Buffer
	w := NewOBJWriter(&buf)
	if err := w.WriteMesh("a", m, mgl32.Vec3{}); err != nil {
		t.Fatalf("WriteMesh: %v", err)
	}
	if err := w.WriteMesh("b", m, mgl32.Vec3{32, 0, 0}); err != nil {
		t.Fatalf("WriteMesh: %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	counts := map[string]int{}
	var faces []string
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		kind, _, _ := strings.Cut(line, " ")
		counts[kind]++
		if kind == "f" {
			faces = append(faces, line)
		}
	}
	if counts["o"] != 2 || counts["v"] != 16 || counts["vn"] != 16 || counts["f"] != 8 {
		t.Errorf("line counts = %v, want o:2 v:16 vn:16 f:8", counts)
	}
	if faces[0] != "f 1//1 2//2 3//3" {
		t.Errorf("first face = %q", faces[0])
	}
	// Second object continues numbering after the first object's 8 vertices.
	if faces[4] != "f 9//9 10//10 11//11" {
		t.Errorf("fifth face = %q", faces[4])
	}
	if !strings.Contains(buf.String(), "v 32 1 0\n") {
		t.Error("offset not applied to second object")
	}
}

var errDiskFull = errors.New("disk full")

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errDiskFull }

func TestOBJWriterReportsVertexWriteError(t *testing.T) {
	// vertices without triangles: only the v and vn lines are written
	m := &ChunkMesh{Vertices: make([]Vertex, 40000)}
	for i := range m.Vertices {
		m.Vertices[i].Position = mgl32.Vec3{1000.25, 2000.5, 3000.75}
	}

	w := NewOBJWriter(failingWriter{})
	if err := w.WriteMesh("a", m, mgl32.Vec3{}); !errors.Is(err, errDiskFull) {
		t.Errorf("WriteMesh = %v, want %v", err, errDiskFull)
	}
}
