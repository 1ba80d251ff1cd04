package mesh

import (
	"bufio"
	"fmt"
	"io"

	"github.com/go-gl/mathgl/mgl32"
)

// OBJWriter writes chunk meshes as Wavefront OBJ objects. Vertex numbering
// continues across meshes so that several chunks can share one file.
type OBJWriter struct {
	out  *bufio.Writer
	base int
}

// NewOBJWriter returns a writer that buffers output to w.
func NewOBJWriter(w io.Writer) *OBJWriter {
	return &OBJWriter{out: bufio.NewWriterSize(w, 256*1024)}
}

// WriteMesh writes m as an object called name, translated by offset.
func (o *OBJWriter) WriteMesh(name string, m *ChunkMesh, offset mgl32.Vec3) error {
	if _, err := fmt.Fprintf(o.out, "o %s\n", name); err != nil {
		return fmt.Errorf("write object %s: %w", name, err)
	}
	for _, v := range m.Vertices {
		p := v.Position.Add(offset)
		if _, err := fmt.Fprintf(o.out, "v %g %g %g\n", p.X(), p.Y(), p.Z()); err != nil {
			return fmt.Errorf("write vertices of %s: %w", name, err)
		}
	}
	for _, v := range m.Vertices {
		if _, err := fmt.Fprintf(o.out, "vn %g %g %g\n", v.Normal.X(), v.Normal.Y(), v.Normal.Z()); err != nil {
			return fmt.Errorf("write normals of %s: %w", name, err)
		}
	}
	for i := 0; i+2 < len(m.Triangles); i += 3 {
		a := o.base + int(m.Triangles[i]) + 1
		b := o.base + int(m.Triangles[i+1]) + 1
		c := o.base + int(m.Triangles[i+2]) + 1
		if _, err := fmt.Fprintf(o.out, "f %d//%d %d//%d %d//%d\n", a, a, b, b, c, c); err != nil {
			return fmt.Errorf("write faces of %s: %w", name, err)
		}
	}
	o.base += len(m.Vertices)
	return nil
}

// Flush writes any buffered data to the underlying writer.
func (o *OBJWriter) Flush() error {
	return o.out.Flush()
}
