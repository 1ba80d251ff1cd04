package world

import "slices"

// Terrain owns every instantiated chunk of a bounded world, keyed by chunk
// position. It is not safe for concurrent use; only the owning goroutine
// may create or delete chunks.
//
// Pointers returned by Chunk and CreateChunk stay valid until the chunk at
// that position is deleted.
type Terrain struct {
	layout                                  Layout
	widthChunks, heightChunks, lengthChunks int
	chunks                                  map[int]*Chunk
}

// NewTerrain creates an empty terrain of widthChunks × heightChunks × lengthChunks chunks.
func NewTerrain(layout Layout, widthChunks, heightChunks, lengthChunks int) *Terrain {
	return &Terrain{
		layout:       layout,
		widthChunks:  max(widthChunks, 0),
		heightChunks: max(heightChunks, 0),
		lengthChunks: max(lengthChunks, 0),
		chunks:       make(map[int]*Chunk),
	}
}

func (t *Terrain) Layout() Layout { return t.layout }
func (t *Terrain) WidthChunks() int { return t.widthChunks }
func (t *Terrain) HeightChunks() int { return t.heightChunks }
func (t *Terrain) LengthChunks() int { return t.lengthChunks }
func (t *Terrain) WidthBlocks() int { return t.widthChunks * t.layout.Width() }
func (t *Terrain) HeightBlocks() int { return t.heightChunks * t.layout.Height() }
func (t *Terrain) LengthBlocks() int { return t.lengthChunks * t.layout.Length() }
func (t *Terrain) VolumeChunks() int { return t.widthChunks * t.heightChunks * t.lengthChunks }
func (t *Terrain) VolumeBlocks() int { return t.VolumeChunks() * t.layout.Volume() }

// Contains reports whether cp lies inside the terrain's extents.
func (t *Terrain) Contains(cp Position) bool {
	return cp.X >= 0 && cp.X < t.widthChunks &&
		cp.Y >= 0 && cp.Y < t.heightChunks &&
		cp.Z >= 0 && cp.Z < t.lengthChunks
}

func (t *Terrain) key(cp Position) int {
	return cp.Y + cp.X*t.heightChunks + cp.Z*t.widthChunks*t.heightChunks
}

func (t *Terrain) position(key int) Position {
	return Position{
		X: (key / t.heightChunks) % t.widthChunks,
		Y: key % t.heightChunks,
		Z: key / (t.widthChunks * t.heightChunks),
	}
}

// Chunk returns the chunk at cp, or nil if it does not exist or cp is out of range.
func (t *Terrain) Chunk(cp Position) *Chunk {
	if !t.Contains(cp) {
		return nil
	}
	return t.chunks[t.key(cp)]
}

// CreateChunk returns the chunk at cp, creating an empty one if needed.
// Existing chunks are returned untouched. It returns nil only when cp is
// out of range.
func (t *Terrain) CreateChunk(cp Position) *Chunk {
	if !t.Contains(cp) {
		return nil
	}
	k := t.key(cp)
	if c, ok := t.chunks[k]; ok {
		return c
	}
	c := NewChunk(t.layout)
	t.chunks[k] = c
	return c
}

// DeleteChunk drops the chunk at cp. Absent or out-of-range positions are ignored.
func (t *Terrain) DeleteChunk(cp Position) {
	if !t.Contains(cp) {
		return
	}
	delete(t.chunks, t.key(cp))
}

// Len returns the number of instantiated chunks.
func (t *Terrain) Len() int {
	return len(t.chunks)
}

// Positions returns the positions of all instantiated chunks in key order.
func (t *Terrain) Positions() []Position {
	keys := make([]int, 0, len(t.chunks))
	for k := range t.chunks {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	out := make([]Position, len(keys))
	for i, k := range keys {
		out[i] = t.position(k)
	}
	return out
}

// Each calls fn for every instantiated chunk in key order.
func (t *Terrain) Each(fn func(cp Position, c *Chunk)) {
	for _, cp := range t.Positions() {
		fn(cp, t.chunks[t.key(cp)])
	}
}
