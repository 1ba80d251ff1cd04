package world

// MaxBlockID is one past the largest valid block id.
const MaxBlockID = 1024

// Block is the content of a single voxel cell, identified by its id.
// Id 0 is air.
type Block uint16

// Air is the empty block.
const Air Block = 0

// Empty reports whether b is air.
func (b Block) Empty() bool {
	return b == Air
}

// Valid reports whether b's id is in [0, MaxBlockID).
func (b Block) Valid() bool {
	return b < MaxBlockID
}

// ID returns the block id.
func (b Block) ID() int {
	return int(b)
}
