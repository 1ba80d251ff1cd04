package gen

import (
	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/OCharnyshevich/voxelworld/internal/world"
)

// NoiseGenerator builds rolling terrain from octave OpenSimplex noise:
// stone under a few layers of dirt, grass on top and water filling
// everything below sea level.
type NoiseGenerator struct {
	terrain  opensimplex.Noise
	detail   opensimplex.Noise
	caves    *caveCarver
	seed     int64
	seaLevel int
}

// NewNoiseGenerator creates a NoiseGenerator from a seed. Terrain heights
// oscillate around seaLevel.
func NewNoiseGenerator(seed int64, seaLevel int) *NoiseGenerator {
	return &NoiseGenerator{
		terrain:  opensimplex.New(seed),
		detail:   opensimplex.New(seed + 1),
		seed:     seed,
		seaLevel: max(seaLevel, 1),
	}
}

// WithCaves makes g carve caves below the surface and returns g.
func (g *NoiseGenerator) WithCaves() *NoiseGenerator {
	g.caves = newCaveCarver(g.seed)
	return g
}

func (g *NoiseGenerator) Populate(c *world.Chunk, chunkPos world.Position) {
	h := c.Layout().Height()
	populateColumns(c, chunkPos, func(x, z, bx, bz, baseY int) {
		height := g.HeightAt(bx, bz)
		for y := 0; y < h; y++ {
			wy := baseY + y
			b := g.blockAt(wy, height)
			if g.caves != nil && (b == BlockStone || b == BlockDirt) {
				if carved, ok := g.caves.carve(bx, wy, bz, height); ok {
					b = carved
				}
			}
			if !b.Empty() {
				c.SetBlock(world.Position{X: x, Y: y, Z: z}, b)
			}
		}
	})
}

// blockAt picks the block at world height wy of a column whose surface is at height.
func (g *NoiseGenerator) blockAt(wy, height int) world.Block {
	switch {
	case wy < 0:
		return world.Air
	case wy == 0:
		return BlockBedrock
	case wy < height-3:
		return BlockStone
	case wy < height:
		return BlockDirt
	case wy == height && height < g.seaLevel:
		return BlockSand
	case wy == height:
		return BlockGrass
	case wy <= g.seaLevel:
		return BlockWater
	default:
		return world.Air
	}
}

func (g *NoiseGenerator) HeightAt(blockX, blockZ int) int {
	base := octave(g.terrain, float64(blockX)/128.0, float64(blockZ)/128.0, 6, 0.5)
	detail := octave(g.detail, float64(blockX)/32.0, float64(blockZ)/32.0, 3, 0.5)

	amplitude := float64(g.seaLevel) / 2
	h := int(float64(g.seaLevel) + base*amplitude + detail*4.0)
	return max(h, 1)
}

// octave sums octaves of noise at doubling frequencies and returns a value in [-1, 1].
func octave(n opensimplex.Noise, x, z float64, octaves int, persistence float64) float64 {
	var total, norm float64
	amplitude, frequency := 1.0, 1.0
	for i := 0; i < octaves; i++ {
		total += n.Eval2(x*frequency, z*frequency) * amplitude
		norm += amplitude
		amplitude *= persistence
		frequency *= 2
	}
	return total / norm
}
