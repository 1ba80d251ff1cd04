package world

import "iter"

// Diff reports how a window update changed the set of resident chunks.
type Diff struct {
	// Entered holds chunk positions that became resident in the window, in
	// window order. A chunk the terrain already held is reported too, in
	// whatever state it was in.
	Entered []Position
	// Left holds chunk positions that dropped out of the window and were
	// deleted from the terrain, in previous-window order.
	Left []Position
}

// LoadedArea keeps a sphere of chunks resident in a Terrain around a
// moving center. Cells are stored in a cube of side 2*radius+1 whose
// origin is center - radius; local cell (x, y, z) maps to chunk position
// origin + (x, y, z).
//
// Chunks present in both the old and the new window survive an update
// untouched. Chunk pointers held by the area stay valid until the next
// update that drops them.
type LoadedArea struct {
	terrain *Terrain
	center  Position
	radius  int
	cells   []*Chunk
}

// NewLoadedArea creates a window over terrain and loads it around center.
func NewLoadedArea(terrain *Terrain, center Position, radius int) *LoadedArea {
	a := &LoadedArea{terrain: terrain}
	a.UpdateLoadedVolume(center, radius)
	return a
}

func (a *LoadedArea) Center() Position { return a.center }
func (a *LoadedArea) Radius() int { return a.radius }

// Diameter returns the side length of the window cube, in chunks.
func (a *LoadedArea) Diameter() int {
	return 2*a.radius + 1
}

func (a *LoadedArea) origin() Position {
	return a.center.Sub(Position{a.radius, a.radius, a.radius})
}

// local returns the cell index of chunk position cp, or -1 if cp lies
// outside the window cube.
func (a *LoadedArea) local(cp Position) int {
	d := a.Diameter()
	l := cp.Sub(a.origin())
	if l.X < 0 || l.X >= d || l.Y < 0 || l.Y >= d || l.Z < 0 || l.Z >= d {
		return -1
	}
	return l.X + l.Y*d + l.Z*d*d
}

func (a *LoadedArea) cellPosition(i int) Position {
	d := a.Diameter()
	return a.origin().Add(Position{i % d, (i / d) % d, i / (d * d)})
}

// inWindow reports whether cp lies within radius of the center.
func (a *LoadedArea) inWindow(cp Position) bool {
	return cp.DistanceSq(a.center) <= a.radius*a.radius
}

// Chunk returns the resident chunk at cp, or nil if cp is not loaded.
func (a *LoadedArea) Chunk(cp Position) *Chunk {
	i := a.local(cp)
	if i < 0 || i >= len(a.cells) {
		return nil
	}
	return a.cells[i]
}

// Len returns the number of resident chunks.
func (a *LoadedArea) Len() int {
	n := 0
	for _, c := range a.cells {
		if c != nil {
			n++
		}
	}
	return n
}

// Loaded yields every resident chunk with its chunk position, in cell order.
func (a *LoadedArea) Loaded() iter.Seq2[Position, *Chunk] {
	return func(yield func(Position, *Chunk) bool) {
		for i, c := range a.cells {
			if c == nil {
				continue
			}
			if !yield(a.cellPosition(i), c) {
				return
			}
		}
	}
}

// Recenter moves the window to center, keeping its radius.
func (a *LoadedArea) Recenter(center Position) Diff {
	return a.UpdateLoadedVolume(center, a.radius)
}

// UpdateLoadedVolume moves the window to center with the given radius.
//
// Every cell within radius of the new center ends up holding a terrain
// chunk, created if absent. Every other cell of the cube holds nil and the
// terrain chunk at that position is deleted, as is every chunk of the
// previous window that is no longer in range. A negative radius is
// treated as zero.
func (a *LoadedArea) UpdateLoadedVolume(center Position, radius int) Diff {
	radius = max(radius, 0)

	prev := &LoadedArea{
		terrain: a.terrain,
		center:  a.center,
		radius:  a.radius,
		cells:   a.cells,
	}

	a.center = center
	a.radius = radius
	d := a.Diameter()
	a.cells = make([]*Chunk, d*d*d)

	var diff Diff
	for i := range a.cells {
		cp := a.cellPosition(i)
		if !a.terrain.Contains(cp) {
			continue
		}
		if !a.inWindow(cp) {
			a.terrain.DeleteChunk(cp)
			continue
		}
		a.cells[i] = a.terrain.CreateChunk(cp)
		if prev.Chunk(cp) == nil {
			diff.Entered = append(diff.Entered, cp)
		}
	}

	for cp := range prev.Loaded() {
		if a.Chunk(cp) != nil {
			continue
		}
		a.terrain.DeleteChunk(cp)
		diff.Left = append(diff.Left, cp)
	}
	return diff
}
