package processor

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"

	"github.com/OCharnyshevich/voxelworld/internal/world"
	"github.com/OCharnyshevich/voxelworld/internal/world/gen"
)

var testLayout = world.MustLayout(2, 2, 2)

type countingGenerator struct {
	gen.Generator
	calls atomic.Int32
}

func (g *countingGenerator) Populate(c *world.Chunk, chunkPos world.Position) {
	g.calls.Add(1)
	g.Generator.Populate(c, chunkPos)
}

// blockingGenerator holds every Populate call until release is closed.
type blockingGenerator struct {
	gen.FlatGenerator
	release chan struct{}
}

func (g *blockingGenerator) Populate(c *world.Chunk, chunkPos world.Position) {
	<-g.release
	g.FlatGenerator.Populate(c, chunkPos)
}

// panickingGenerator panics on its first Populate call only.
type panickingGenerator struct {
	gen.FlatGenerator
	panicked atomic.Bool
}

func (g *panickingGenerator) Populate(c *world.Chunk, chunkPos world.Position) {
	if g.panicked.CompareAndSwap(false, true) {
		panic("corrupt noise table")
	}
	g.FlatGenerator.Populate(c, chunkPos)
}

type memoryStore struct {
	mu      sync.Mutex
	chunks  map[world.Position]map[world.Position]world.Block
	saveErr error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{chunks: make(map[world.Position]map[world.Position]world.Block)}
}

func (s *memoryStore) Save(pos world.Position, c *world.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	blocks := make(map[world.Position]world.Block)
	for p, b := range c.All() {
		if !b.Empty() {
			blocks[p] = b
		}
	}
	s.chunks[pos] = blocks
	return nil
}

func (s *memoryStore) Load(pos world.Position, c *world.Chunk) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	blocks, ok := s.chunks[pos]
	if !ok {
		return false, nil
	}
	for p, b := range blocks {
		c.SetBlock(p, b)
	}
	return true, nil
}

func (s *memoryStore) saved(pos world.Position) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.chunks[pos]
	return ok
}

func newProcessor(t *testing.T, cfg Config, g gen.Generator, opts ...Option) *Processor {
	t.Helper()
	p := New(cfg, g, opts...)
	t.Cleanup(p.Close)
	return p
}

func drainAll(p *Processor) []Result {
	p.Wait()
	var results []Result
	p.Drain(func(r Result) { results = append(results, r) })
	return results
}

func TestCreatedToLoaded(t *testing.T) {
	p := newProcessor(t, Config{Workers: 2}, gen.NewFlatGenerator(0))
	c := world.NewChunk(testLayout)
	pos := world.Position{X: 1, Y: 0, Z: 2}

	if !p.Enqueue(pos, c) {
		t.Fatal("Enqueue of a Created chunk = false, want true")
	}
	if !p.Pending(c) {
		t.Error("chunk should be pending after Enqueue")
	}

	results := drainAll(p)
	if len(results) != 1 {
		t.Fatalf("results = %d, want 1", len(results))
	}
	r := results[0]
	if r.Err != nil {
		t.Fatalf("Err = %v", r.Err)
	}
	if r.ID == uuid.Nil {
		t.Error("job id is nil")
	}
	if r.Pos != pos || r.Chunk != c {
		t.Errorf("result = %v %p, want %v %p", r.Pos, r.Chunk, pos, c)
	}
	if r.From != world.Created || r.To != world.Loaded {
		t.Errorf("transition = %v -> %v, want created -> loaded", r.From, r.To)
	}
	if c.State() != world.Loaded {
		t.Errorf("State = %v, want loaded", c.State())
	}
	// the flat layers fill a 4-high chunk completely: 6 sides of 16 faces
	if r.Mesh == nil || len(r.Mesh.Vertices) != 96*4 {
		t.Errorf("mesh vertices = %v, want %d", r.Mesh, 96*4)
	}
	if p.Pending(c) || p.PendingLen() != 0 {
		t.Error("chunk still pending after Drain")
	}
}

func TestUpdatedRemeshesWithoutGenerating(t *testing.T) {
	g := &countingGenerator{Generator: gen.NewFlatGenerator(0)}
	p := newProcessor(t, Config{Workers: 1}, g)

	c := world.NewChunk(testLayout)
	c.SetBlock(world.Position{X: 1, Y: 1, Z: 1}, gen.BlockStone)
	c.SetState(world.Updated)

	if !p.Enqueue(world.Position{}, c) {
		t.Fatal("Enqueue of an Updated chunk = false, want true")
	}
	results := drainAll(p)
	if len(results) != 1 {
		t.Fatalf("results = %d, want 1", len(results))
	}
	if got := len(results[0].Mesh.Vertices); got != 24 {
		t.Errorf("vertices = %d, want 24", got)
	}
	if results[0].From != world.Updated || results[0].To != world.Loaded {
		t.Errorf("transition = %v -> %v, want updated -> loaded", results[0].From, results[0].To)
	}
	if g.calls.Load() != 0 {
		t.Errorf("generator calls = %d, want 0", g.calls.Load())
	}
}

func TestRefusesLoadedAndUnused(t *testing.T) {
	p := newProcessor(t, Config{}, gen.NewFlatGenerator(0))

	for _, s := range []world.ChunkState{world.Loaded, world.Unused} {
		c := world.NewChunk(testLayout)
		c.SetState(s)
		if p.Enqueue(world.Position{}, c) {
			t.Errorf("Enqueue(%v) = true, want false", s)
		}
		if c.State() != s {
			t.Errorf("State changed to %v, want %v", c.State(), s)
		}
	}
	if p.Enqueue(world.Position{}, nil) {
		t.Error("Enqueue(nil) = true, want false")
	}
	if p.PendingLen() != 0 {
		t.Errorf("PendingLen = %d, want 0", p.PendingLen())
	}
}

func TestNeverHoldsChunkTwice(t *testing.T) {
	g := &blockingGenerator{release: make(chan struct{})}
	p := newProcessor(t, Config{Workers: 4}, g)
	c := world.NewChunk(testLayout)

	if !p.Enqueue(world.Position{}, c) {
		t.Fatal("first Enqueue = false, want true")
	}
	if p.Enqueue(world.Position{}, c) {
		t.Error("second Enqueue while running = true, want false")
	}
	close(g.release)
	p.Wait()

	// finished but not drained: still pending
	c.SetState(world.Updated)
	if p.Enqueue(world.Position{}, c) {
		t.Error("Enqueue before Drain = true, want false")
	}
	if n := p.Drain(nil); n != 1 {
		t.Errorf("Drain = %d, want 1", n)
	}

	c.SetState(world.Updated)
	if !p.Enqueue(world.Position{}, c) {
		t.Error("Enqueue after Drain = false, want true")
	}
	drainAll(p)
}

func TestMaxPending(t *testing.T) {
	g := &blockingGenerator{release: make(chan struct{})}
	p := newProcessor(t, Config{Workers: 1, MaxPending: 2}, g)

	chunks := []*world.Chunk{world.NewChunk(testLayout), world.NewChunk(testLayout), world.NewChunk(testLayout)}
	if !p.Enqueue(world.Position{X: 0}, chunks[0]) || !p.Enqueue(world.Position{X: 1}, chunks[1]) {
		t.Fatal("Enqueue under the limit = false, want true")
	}
	if p.Enqueue(world.Position{X: 2}, chunks[2]) {
		t.Error("Enqueue over MaxPending = true, want false")
	}
	if chunks[2].State() != world.Created {
		t.Errorf("refused chunk state = %v, want created", chunks[2].State())
	}

	close(g.release)
	if got := len(drainAll(p)); got != 2 {
		t.Errorf("results = %d, want 2", got)
	}
	if !p.Enqueue(world.Position{X: 2}, chunks[2]) {
		t.Error("Enqueue after Drain = false, want true")
	}
	drainAll(p)
}

func TestUnloadedWithoutSaver(t *testing.T) {
	p := newProcessor(t, Config{}, nil)
	c := world.NewChunk(testLayout)
	c.SetState(world.Unloaded)

	if p.Enqueue(world.Position{}, c) {
		t.Error("Enqueue = true, want false")
	}
	if c.State() != world.Unused {
		t.Errorf("State = %v, want unused", c.State())
	}
	if p.PendingLen() != 0 {
		t.Errorf("PendingLen = %d, want 0", p.PendingLen())
	}
}

func TestUnloadedWithSaver(t *testing.T) {
	store := newMemoryStore()
	p := newProcessor(t, Config{}, nil, WithSaver(store))
	c := world.NewChunk(testLayout)
	c.Fill(gen.BlockDirt)
	c.SetState(world.Unloaded)
	pos := world.Position{X: 3, Y: 1, Z: 0}

	if !p.Enqueue(pos, c) {
		t.Fatal("Enqueue = false, want true")
	}
	results := drainAll(p)
	if len(results) != 1 || results[0].Err != nil {
		t.Fatalf("results = %+v", results)
	}
	if results[0].To != world.Unused || results[0].Mesh != nil {
		t.Errorf("result = %v mesh %v, want unused without mesh", results[0].To, results[0].Mesh)
	}
	if c.State() != world.Unused {
		t.Errorf("State = %v, want unused", c.State())
	}
	if !store.saved(pos) {
		t.Error("chunk was not saved")
	}
}

func TestSaveErrorKeepsState(t *testing.T) {
	errDisk := errors.New("disk full")
	store := newMemoryStore()
	store.saveErr = errDisk
	p := newProcessor(t, Config{}, nil, WithSaver(store))
	c := world.NewChunk(testLayout)
	c.SetState(world.Unloaded)

	p.Enqueue(world.Position{}, c)
	results := drainAll(p)
	if len(results) != 1 || !errors.Is(results[0].Err, errDisk) {
		t.Fatalf("results = %+v, want one with %v", results, errDisk)
	}
	if c.State() != world.Unloaded {
		t.Errorf("State = %v, want unloaded", c.State())
	}

	store.saveErr = nil
	if !p.Enqueue(world.Position{}, c) {
		t.Error("retry Enqueue = false, want true")
	}
	drainAll(p)
	if c.State() != world.Unused {
		t.Errorf("State after retry = %v, want unused", c.State())
	}
}

func TestLoaderSkipsGenerator(t *testing.T) {
	store := newMemoryStore()
	stored := world.NewChunk(testLayout)
	stored.SetBlock(world.Position{X: 2, Y: 3, Z: 0}, gen.BlockSand)
	pos := world.Position{X: 1, Y: 1, Z: 1}
	if err := store.Save(pos, stored); err != nil {
		t.Fatal(err)
	}

	g := &countingGenerator{Generator: gen.NewFlatGenerator(0)}
	p := newProcessor(t, Config{}, g, WithLoader(store))

	loaded := world.NewChunk(testLayout)
	fresh := world.NewChunk(testLayout)
	p.Enqueue(pos, loaded)
	p.Enqueue(world.Position{}, fresh)
	drainAll(p)

	if got := loaded.Block(world.Position{X: 2, Y: 3, Z: 0}); got != gen.BlockSand {
		t.Errorf("loaded block = %d, want %d", got, gen.BlockSand)
	}
	if g.calls.Load() != 1 {
		t.Errorf("generator calls = %d, want 1", g.calls.Load())
	}
	if fresh.IsEmpty() {
		t.Error("chunk missing from storage was not generated")
	}
}

func TestManyChunks(t *testing.T) {
	p := newProcessor(t, Config{Workers: 4}, gen.NewNoiseGenerator(7, 4))
	terrain := world.NewTerrain(testLayout, 4, 2, 4)
	for x := 0; x < 4; x++ {
		for y := 0; y < 2; y++ {
			for z := 0; z < 4; z++ {
				cp := world.Position{X: x, Y: y, Z: z}
				if !p.Enqueue(cp, terrain.CreateChunk(cp)) {
					t.Fatalf("Enqueue(%v) = false", cp)
				}
			}
		}
	}

	ids := make(map[uuid.UUID]bool)
	for _, r := range drainAll(p) {
		if ids[r.ID] {
			t.Errorf("duplicate job id %v", r.ID)
		}
		ids[r.ID] = true
		if r.Chunk != terrain.Chunk(r.Pos) {
			t.Errorf("result chunk for %v does not match terrain", r.Pos)
		}
	}
	if len(ids) != 32 {
		t.Errorf("results = %d, want 32", len(ids))
	}
	terrain.Each(func(cp world.Position, c *world.Chunk) {
		if c.State() != world.Loaded {
			t.Errorf("chunk %v state = %v, want loaded", cp, c.State())
		}
	})
	if n := p.Drain(nil); n != 0 {
		t.Errorf("second Drain = %d, want 0", n)
	}
}

func TestPanicReleasesChunk(t *testing.T) {
	p := newProcessor(t, Config{Workers: 1}, &panickingGenerator{})
	c := world.NewChunk(testLayout)

	if !p.Enqueue(world.Position{}, c) {
		t.Fatal("Enqueue = false, want true")
	}
	results := drainAll(p)
	if len(results) != 1 {
		t.Fatalf("results = %d, want 1", len(results))
	}
	if !errors.Is(results[0].Err, ErrJobPanicked) {
		t.Errorf("Err = %v, want ErrJobPanicked", results[0].Err)
	}
	if results[0].To != world.Created || c.State() != world.Created {
		t.Errorf("state = %v (result %v), want created", c.State(), results[0].To)
	}
	if p.Pending(c) {
		t.Error("chunk still pending after a panicking job was drained")
	}

	if !p.Enqueue(world.Position{}, c) {
		t.Fatal("retry Enqueue = false, want true")
	}
	results = drainAll(p)
	if len(results) != 1 || results[0].Err != nil || c.State() != world.Loaded {
		t.Errorf("retry = %+v, state %v, want loaded", results, c.State())
	}
}

func TestEnqueueAfterClose(t *testing.T) {
	p := New(Config{}, gen.NewFlatGenerator(0))
	p.Close()

	c := world.NewChunk(testLayout)
	if p.Enqueue(world.Position{}, c) {
		t.Error("Enqueue after Close = true, want false")
	}
	if p.PendingLen() != 0 || p.Pending(c) {
		t.Errorf("PendingLen = %d, want 0", p.PendingLen())
	}
	p.Wait()
	if c.State() != world.Created {
		t.Errorf("State = %v, want created", c.State())
	}
}
