package gen

import (
	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/OCharnyshevich/voxelworld/internal/world"
)

// caveCarver hollows caves out of solid ground using two 3D noise fields.
type caveCarver struct {
	noise1 opensimplex.Noise
	noise2 opensimplex.Noise
}

const (
	caveThreshold = 0.55
	caveLavaLevel = 10
	// caveCrust keeps the surface and the bedrock floor intact.
	caveCrust = 4
)

func newCaveCarver(seed int64) *caveCarver {
	return &caveCarver{
		noise1: opensimplex.New(seed + 300),
		noise2: opensimplex.New(seed + 400),
	}
}

// carve returns the block that replaces solid ground at world block
// (bx, wy, bz) of a column whose surface is at height, and whether a cave
// reaches it.
func (cc *caveCarver) carve(bx, wy, bz, height int) (world.Block, bool) {
	if wy < caveCrust || wy >= height-caveCrust {
		return world.Air, false
	}
	x, y, z := float64(bx), float64(wy), float64(bz)
	n1 := cc.noise1.Eval3(x/32.0, y/24.0, z/32.0)
	n2 := cc.noise2.Eval3(x/48.0, y/32.0, z/48.0)
	if (n1+n2)/2 <= caveThreshold {
		return world.Air, false
	}
	if wy < caveLavaLevel {
		return BlockLava, true
	}
	return world.Air, true
}
