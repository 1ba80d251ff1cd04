package gen

import "github.com/OCharnyshevich/voxelworld/internal/world"

// FlatGenerator generates a classic superflat world:
// bedrock at y=0, stone y=1..2, dirt y=3, grass y=4.
type FlatGenerator struct{}

// NewFlatGenerator creates a FlatGenerator.
func NewFlatGenerator(_ int64) *FlatGenerator {
	return &FlatGenerator{}
}

var flatLayers = [...]world.Block{BlockBedrock, BlockStone, BlockStone, BlockDirt, BlockGrass}

func (g *FlatGenerator) Populate(c *world.Chunk, chunkPos world.Position) {
	h := c.Layout().Height()
	populateColumns(c, chunkPos, func(x, z, _, _, baseY int) {
		for y := 0; y < h; y++ {
			wy := baseY + y
			if wy < 0 || wy >= len(flatLayers) {
				continue
			}
			c.SetBlock(world.Position{X: x, Y: y, Z: z}, flatLayers[wy])
		}
	})
}

func (g *FlatGenerator) HeightAt(_, _ int) int {
	return len(flatLayers) - 1
}
