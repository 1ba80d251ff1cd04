package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/klauspost/compress/gzip"
	"golang.org/x/time/rate"

	"github.com/OCharnyshevich/voxelworld/internal/config"
	"github.com/OCharnyshevich/voxelworld/internal/mesh"
	"github.com/OCharnyshevich/voxelworld/internal/processor"
	"github.com/OCharnyshevich/voxelworld/internal/render"
	"github.com/OCharnyshevich/voxelworld/internal/world"
	"github.com/OCharnyshevich/voxelworld/internal/world/gen"
)

// chunkGPU is the uploaded mesh of one resident chunk.
type chunkGPU struct {
	chunk   *world.Chunk
	backend *render.MemoryBackend
	buffers *render.Buffers
	mesh    *mesh.ChunkMesh
}

type streamStats struct {
	loaded, retired, failed int
	uploadedBytes           int
}

// streamer walks a LoadedArea across the terrain and keeps every resident
// chunk generated, meshed and uploaded. All fields belong to the goroutine
// that calls walk.
type streamer struct {
	log     *slog.Logger
	terrain *world.Terrain
	area    *world.LoadedArea
	proc    *processor.Processor
	limiter *rate.Limiter
	steps   int

	chunks   map[world.Position]*world.Chunk
	gpu      map[world.Position]*chunkGPU
	retiring map[*world.Chunk]world.Position // left the window while a job was running
	backlog  []world.Position                // entered but refused by a full queue

	stats streamStats
}

// newStreamer builds the world described by cfg; generator fills new chunks.
func newStreamer(cfg *config.Config, log *slog.Logger, generator gen.Generator) (*streamer, error) {
	layout, err := cfg.Layout()
	if err != nil {
		return nil, fmt.Errorf("chunk layout: %w", err)
	}

	limit := rate.Inf
	if cfg.StepsPerSecond > 0 {
		limit = rate.Limit(cfg.StepsPerSecond)
	}

	terrain := world.NewTerrain(layout, cfg.WorldWidth, cfg.WorldHeight, cfg.WorldLength)
	center := world.Position{X: cfg.WorldWidth / 2, Y: cfg.WorldHeight / 2, Z: cfg.WorldLength / 2}

	proc := processor.New(
		processor.Config{Workers: cfg.Workers, MaxPending: cfg.MaxPending},
		generator,
		processor.WithLogger(log),
	)

	s := &streamer{
		log:      log,
		terrain:  terrain,
		area:     world.NewLoadedArea(terrain, center, cfg.LoadRadius),
		proc:     proc,
		limiter:  rate.NewLimiter(limit, 1),
		steps:    cfg.Steps,
		chunks:   make(map[world.Position]*world.Chunk),
		gpu:      make(map[world.Position]*chunkGPU),
		retiring: make(map[*world.Chunk]world.Position),
	}
	log.Info("world created",
		"layout", layout,
		"chunks", fmt.Sprintf("%dx%dx%d", cfg.WorldWidth, cfg.WorldHeight, cfg.WorldLength),
		"generator", cfg.GeneratorType,
		"seed", cfg.Seed,
	)
	return s, nil
}

// walk moves the window one chunk along x per step, bouncing off the
// terrain edges, then waits for all outstanding chunk work.
func (s *streamer) walk(ctx context.Context) error {
	s.start()
	s.log.Info("walk started", "center", s.area.Center(), "radius", s.area.Radius(), "resident", s.area.Len(), "steps", s.steps)

	dir := 1
	for step := 0; step < s.steps; step++ {
		if err := s.limiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				s.log.Info("walk interrupted", "step", step)
				break
			}
			return fmt.Errorf("pace step %d: %w", step, err)
		}
		s.proc.Drain(s.handle)

		next := s.area.Center()
		if !s.terrain.Contains(next.Add(world.Position{X: dir})) {
			dir = -dir
		}
		next.X += dir

		diff := s.moveTo(next)
		s.log.Debug("step",
			"step", step,
			"center", next,
			"entered", len(diff.Entered),
			"left", len(diff.Left),
			"pending", s.proc.PendingLen(),
		)
	}

	s.settle()
	s.log.Info("walk finished",
		"resident", len(s.chunks),
		"meshes", len(s.gpu),
		"loaded", s.stats.loaded,
		"retired", s.stats.retired,
		"failed", s.stats.failed,
		"uploaded_bytes", s.stats.uploadedBytes,
	)
	return nil
}

// start queues every chunk the window already holds.
func (s *streamer) start() {
	for cp, c := range s.area.Loaded() {
		s.chunks[cp] = c
		s.load(cp, c)
	}
}

// moveTo recenters the window, retiring the chunks that left it and
// queueing the ones that entered.
func (s *streamer) moveTo(center world.Position) world.Diff {
	diff := s.area.Recenter(center)
	for _, cp := range diff.Left {
		c := s.chunks[cp]
		delete(s.chunks, cp)
		s.retire(cp, c)
	}
	for _, cp := range diff.Entered {
		c := s.area.Chunk(cp)
		s.chunks[cp] = c
		s.load(cp, c)
	}
	s.retryBacklog()
	return diff
}

// settle blocks until no chunk work is queued or pending.
func (s *streamer) settle() {
	for s.proc.PendingLen() > 0 || len(s.backlog) > 0 {
		s.proc.Wait()
		s.proc.Drain(s.handle)

		before := len(s.backlog)
		s.retryBacklog()
		if s.proc.PendingLen() == 0 && len(s.backlog) == before && before > 0 {
			s.log.Warn("dropping chunks the processor refused", "count", before)
			s.backlog = nil
		}
	}
}

func (s *streamer) load(cp world.Position, c *world.Chunk) {
	if c == nil {
		return
	}
	if !s.proc.Enqueue(cp, c) && c.State() == world.Created && !s.proc.Pending(c) {
		s.backlog = append(s.backlog, cp)
	}
}

func (s *streamer) retryBacklog() {
	kept := s.backlog[:0]
	for _, cp := range s.backlog {
		c := s.chunks[cp]
		if c == nil || c.State() != world.Created || s.proc.Pending(c) {
			continue
		}
		if !s.proc.Enqueue(cp, c) {
			kept = append(kept, cp)
		}
	}
	s.backlog = kept
}

// retire drops the GPU copy of a chunk that left the window and hands the
// chunk back to the processor as Unloaded.
func (s *streamer) retire(cp world.Position, c *world.Chunk) {
	if g, ok := s.gpu[cp]; ok {
		if err := g.buffers.Close(); err != nil {
			s.log.Warn("release chunk buffers", "pos", cp, "error", err)
		}
		delete(s.gpu, cp)
	}
	if c == nil {
		return
	}
	if s.proc.Pending(c) {
		s.retiring[c] = cp
		return
	}
	c.SetState(world.Unloaded)
	s.proc.Enqueue(cp, c)
	s.stats.retired++
}

// handle runs for every drained processor result.
func (s *streamer) handle(r processor.Result) {
	if cp, ok := s.retiring[r.Chunk]; ok {
		delete(s.retiring, r.Chunk)
		r.Chunk.SetState(world.Unloaded)
		s.proc.Enqueue(cp, r.Chunk)
		s.stats.retired++
		return
	}
	if r.Err != nil {
		s.stats.failed++
		return
	}
	if r.Mesh == nil {
		return
	}

	g, ok := s.gpu[r.Pos]
	if !ok {
		backend := &render.MemoryBackend{}
		buffers, err := render.NewBuffers(backend, s.terrain.Layout())
		if err != nil {
			s.log.Error("allocate chunk buffers", "pos", r.Pos, "error", err)
			s.stats.failed++
			return
		}
		g = &chunkGPU{backend: backend, buffers: buffers}
		s.gpu[r.Pos] = g
	}

	before := g.backend.Uploaded
	if err := g.buffers.SetMesh(r.Mesh); err != nil {
		s.log.Error("upload chunk mesh", "pos", r.Pos, "error", err)
		s.stats.failed++
		return
	}
	g.chunk = r.Chunk
	g.mesh = r.Mesh
	s.stats.loaded++
	s.stats.uploadedBytes += g.backend.Uploaded - before
}

// exportOBJ writes the mesh of every resident chunk in world coordinates.
func (s *streamer) exportOBJ(w io.Writer) error {
	l := s.terrain.Layout()
	ow := mesh.NewOBJWriter(w)
	for cp := range s.area.Loaded() {
		g := s.gpu[cp]
		if g == nil || g.mesh == nil || len(g.mesh.Vertices) == 0 {
			continue
		}
		offset := mgl32.Vec3{
			float32(cp.X * l.Width()),
			float32(cp.Y * l.Height()),
			float32(cp.Z * l.Length()),
		}
		name := fmt.Sprintf("chunk_%d_%d_%d", cp.X, cp.Y, cp.Z)
		if err := ow.WriteMesh(name, g.mesh, offset); err != nil {
			return err
		}
	}
	return ow.Flush()
}

// exportOBJFile writes exportOBJ output to path, gzip-compressed when path
// ends in .gz.
func (s *streamer) exportOBJFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	if !strings.HasSuffix(path, ".gz") {
		if err := s.exportOBJ(f); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		return f.Close()
	}

	zw := gzip.NewWriter(f)
	if err := s.exportOBJ(zw); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("compress %s: %w", path, err)
	}
	return f.Close()
}

func (s *streamer) close() {
	s.proc.Close()
	for cp, g := range s.gpu {
		g.buffers.Close()
		delete(s.gpu, cp)
	}
}
