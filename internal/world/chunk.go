package world

import (
	"iter"
	"sync/atomic"
)

// ChunkState is the processing state of a chunk.
type ChunkState uint32

const (
	// Created chunks hold no meaningful data yet; it must be generated or loaded.
	Created ChunkState = iota
	// Updated chunks were modified and need their mesh recomputed.
	Updated
	// Loaded chunks hold real data and an up to date mesh.
	Loaded
	// Unloaded chunks left the loaded area; their data may still be saved.
	Unloaded
	// Unused chunks may be freed or reused. Their data should be treated as garbage.
	Unused
)

var chunkStateNames = [...]string{"created", "updated", "loaded", "unloaded", "unused"}

func (s ChunkState) String() string {
	if int(s) < len(chunkStateNames) {
		return chunkStateNames[s]
	}
	return "unknown"
}

// Chunk is a dense, fixed-size 3D array of blocks.
//
// Reads outside the chunk return Air and writes outside it are dropped, so
// neighbour lookups at the chunk border never need a bounds check.
type Chunk struct {
	layout Layout
	blocks []Block
	state  atomic.Uint32
}

// NewChunk returns an all-air chunk in the Created state.
func NewChunk(layout Layout) *Chunk {
	return &Chunk{
		layout: layout,
		blocks: make([]Block, layout.Volume()),
	}
}

// Layout returns the chunk's dimensions.
func (c *Chunk) Layout() Layout {
	return c.layout
}

// Block returns the block at local position p, or Air if p is outside the chunk.
func (c *Chunk) Block(p Position) Block {
	if !c.layout.Contains(p) {
		return Air
	}
	return c.blocks[c.layout.Index(p)]
}

// SetBlock stores b at local position p. Positions outside the chunk and
// invalid block ids are ignored.
func (c *Chunk) SetBlock(p Position, b Block) {
	if !c.layout.Contains(p) || !b.Valid() {
		return
	}
	c.blocks[c.layout.Index(p)] = b
}

// Fill sets every block in the chunk to b.
func (c *Chunk) Fill(b Block) {
	if !b.Valid() {
		return
	}
	for i := range c.blocks {
		c.blocks[i] = b
	}
}

// IsEmpty reports whether every block is air.
func (c *Chunk) IsEmpty() bool {
	for _, b := range c.blocks {
		if !b.Empty() {
			return false
		}
	}
	return true
}

// All yields every cell of the chunk exactly once, in linear index order.
func (c *Chunk) All() iter.Seq2[Position, Block] {
	return func(yield func(Position, Block) bool) {
		for i, b := range c.blocks {
			if !yield(c.layout.Position(i), b) {
				return
			}
		}
	}
}

// State returns the chunk's processing state. Safe to call while a worker
// holds the chunk.
func (c *Chunk) State() ChunkState {
	return ChunkState(c.state.Load())
}

// SetState records the chunk's processing state.
func (c *Chunk) SetState(s ChunkState) {
	c.state.Store(uint32(s))
}
