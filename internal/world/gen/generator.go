// Package gen fills freshly created chunks with terrain.
package gen

import "github.com/OCharnyshevich/voxelworld/internal/world"

const (
	BlockStone   world.Block = 1
	BlockGrass   world.Block = 2
	BlockDirt    world.Block = 3
	BlockBedrock world.Block = 7
	BlockWater   world.Block = 9
	BlockLava    world.Block = 11
	BlockSand    world.Block = 12
)

// Generator produces chunk data deterministically from a seed.
type Generator interface {
	// Populate writes terrain into c, which sits at chunkPos on the chunk grid.
	Populate(c *world.Chunk, chunkPos world.Position)
	// HeightAt returns the y of the topmost solid block of a column.
	HeightAt(blockX, blockZ int) int
}

// New returns the generator named kind: "flat", "caves" (noise terrain
// with caves) or "noise" (the default).
func New(kind string, seed int64, seaLevel int) Generator {
	switch kind {
	case "flat":
		return NewFlatGenerator(seed)
	case "caves":
		return NewNoiseGenerator(seed, seaLevel).WithCaves()
	default:
		return NewNoiseGenerator(seed, seaLevel)
	}
}

// populateColumns calls column for every (x, z) of c with the world block
// coordinates of that column and the world y of the chunk's lowest layer.
func populateColumns(c *world.Chunk, chunkPos world.Position, column func(x, z, bx, bz, baseY int)) {
	l := c.Layout()
	baseY := chunkPos.Y * l.Height()
	for x := 0; x < l.Width(); x++ {
		for z := 0; z < l.Length(); z++ {
			column(x, z, chunkPos.X*l.Width()+x, chunkPos.Z*l.Length()+z, baseY)
		}
	}
}
