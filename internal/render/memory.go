package render

import (
	"errors"
	"fmt"
)

var errReleased = errors.New("buffers released")

// MemoryBackend is a Backend that keeps buffer contents in host memory.
// It stands in for a graphics API in headless runs and tests.
type MemoryBackend struct {
	Vertices []byte
	Indices  []byte

	// Uploaded counts the bytes written by uploads.
	Uploaded int
	released bool
}

func (m *MemoryBackend) Allocate(vertexBytes, indexBytes int) error {
	m.Vertices = make([]byte, vertexBytes)
	m.Indices = make([]byte, indexBytes)
	m.released = false
	return nil
}

func (m *MemoryBackend) UploadVertices(data []byte) error {
	return m.upload(m.Vertices, data)
}

func (m *MemoryBackend) UploadIndices(data []byte) error {
	return m.upload(m.Indices, data)
}

func (m *MemoryBackend) upload(dst, data []byte) error {
	if m.released {
		return errReleased
	}
	if len(data) > len(dst) {
		return fmt.Errorf("upload of %d bytes into %d byte buffer", len(data), len(dst))
	}
	m.Uploaded += copy(dst, data)
	return nil
}

func (m *MemoryBackend) Release() error {
	m.Vertices, m.Indices = nil, nil
	m.released = true
	return nil
}
