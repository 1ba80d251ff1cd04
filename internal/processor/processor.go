// Package processor moves chunks through their lifecycle off the owning
// goroutine.
//
// Transitions performed here:
//
//	Created  -> Updated -> Loaded   data is loaded or generated, then meshed
//	Updated  -> Loaded              mesh is recomputed
//	Unloaded -> Unused              data is saved first when a Saver is set
//
// Any other transition belongs to the caller: Loaded -> Unloaded when a
// chunk leaves the loaded area, Loaded -> Updated after a block edit,
// Unused -> Created to reuse a chunk.
//
// Enqueue and Drain must be called from the goroutine that owns the
// terrain. A chunk stays pending from Enqueue until its result has been
// drained, so no two workers ever hold the same chunk.
package processor

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"sync"

	"github.com/alitto/pond/v2"
	"github.com/google/uuid"

	"github.com/OCharnyshevich/voxelworld/internal/mesh"
	"github.com/OCharnyshevich/voxelworld/internal/world"
	"github.com/OCharnyshevich/voxelworld/internal/world/gen"
)

// DefaultMaxPending bounds the number of queued and unreported jobs when
// Config.MaxPending is not set.
const DefaultMaxPending = 1024

// ErrJobPanicked wraps the value recovered from a panicking job.
var ErrJobPanicked = errors.New("chunk job panicked")

// Config sizes the processor.
type Config struct {
	// Workers is the worker pool size. Zero means one per CPU.
	Workers int
	// MaxPending caps jobs that are queued, running or awaiting Drain.
	MaxPending int
}

// Loader reads stored chunk data into c. It reports whether data for pos existed.
type Loader interface {
	Load(pos world.Position, c *world.Chunk) (bool, error)
}

// Saver persists chunk data before the chunk is released.
type Saver interface {
	Save(pos world.Position, c *world.Chunk) error
}

// Result describes a finished job.
type Result struct {
	ID    uuid.UUID
	Pos   world.Position
	Chunk *world.Chunk

	// Mesh is set when the chunk was meshed.
	Mesh     *mesh.ChunkMesh
	From, To world.ChunkState
	Err      error
}

// Option configures a Processor.
type Option func(*Processor)

// WithLoader makes Created chunks try storage before the generator.
func WithLoader(l Loader) Option {
	return func(p *Processor) { p.loader = l }
}

// WithSaver makes Unloaded chunks be saved before becoming Unused.
func WithSaver(s Saver) Option {
	return func(p *Processor) { p.saver = s }
}

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(p *Processor) { p.log = log }
}

// Processor runs chunk state transitions on a worker pool.
type Processor struct {
	cfg       Config
	generator gen.Generator
	loader    Loader
	saver     Saver
	log       *slog.Logger

	pool     pond.Pool
	inflight sync.WaitGroup

	// results holds one slot per pending job, so workers never block on delivery.
	results chan Result

	// pending is only touched by the owning goroutine.
	pending map[*world.Chunk]uuid.UUID
}

// New starts a processor. generator fills Created chunks that were not
// found by the loader; it may be nil when chunk data is written elsewhere.
func New(cfg Config, generator gen.Generator, opts ...Option) *Processor {
	if cfg.Workers <= 0 {
		cfg.Workers = max(runtime.NumCPU(), 1)
	}
	if cfg.MaxPending <= 0 {
		cfg.MaxPending = DefaultMaxPending
	}

	p := &Processor{
		cfg:       cfg,
		generator: generator,
		log:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		results:   make(chan Result, cfg.MaxPending),
		pending:   make(map[*world.Chunk]uuid.UUID),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.pool = pond.NewPool(cfg.Workers)
	return p
}

// Enqueue schedules the next transition of c, which sits at chunk position
// pos. It reports whether a job was queued.
//
// Loaded and Unused chunks, chunks that are already pending and chunks
// beyond MaxPending are refused, as is everything after Close. Unloaded
// chunks move to Unused at once when no Saver is configured.
func (p *Processor) Enqueue(pos world.Position, c *world.Chunk) bool {
	if c == nil || p.pool.Stopped() {
		return false
	}
	if _, ok := p.pending[c]; ok {
		return false
	}

	state := c.State()
	switch state {
	case world.Loaded, world.Unused:
		return false
	case world.Unloaded:
		if p.saver == nil {
			c.SetState(world.Unused)
			return false
		}
	}
	if len(p.pending) >= p.cfg.MaxPending {
		p.log.Debug("chunk queue full", "pos", pos, "pending", len(p.pending))
		return false
	}

	id := uuid.New()
	p.pending[c] = id
	p.inflight.Add(1)
	p.pool.Submit(func() {
		defer p.inflight.Done()
		p.results <- p.run(id, pos, c, state)
	})
	p.log.Debug("chunk job queued", "job", id, "pos", pos, "state", state)
	return true
}

// run turns a panic in process into a failed Result so the chunk is
// released by Drain.
func (p *Processor) run(id uuid.UUID, pos world.Position, c *world.Chunk, from world.ChunkState) (r Result) {
	defer func() {
		if v := recover(); v != nil {
			r = Result{
				ID:    id,
				Pos:   pos,
				Chunk: c,
				From:  from,
				To:    c.State(),
				Err:   fmt.Errorf("%w: %v", ErrJobPanicked, v),
			}
		}
	}()
	return p.process(id, pos, c, from)
}

// process runs on a worker.
func (p *Processor) process(id uuid.UUID, pos world.Position, c *world.Chunk, from world.ChunkState) Result {
	r := Result{ID: id, Pos: pos, Chunk: c, From: from, To: from}

	switch from {
	case world.Created:
		if err := p.fill(pos, c); err != nil {
			r.Err = err
			return r
		}
		c.SetState(world.Updated)
		fallthrough
	case world.Updated:
		r.Mesh = mesh.Generate(c)
		c.SetState(world.Loaded)
		r.To = world.Loaded
	case world.Unloaded:
		if err := p.saver.Save(pos, c); err != nil {
			r.Err = err
			return r
		}
		c.SetState(world.Unused)
		r.To = world.Unused
	}
	return r
}

// fill loads c from storage or generates it.
func (p *Processor) fill(pos world.Position, c *world.Chunk) error {
	if p.loader != nil {
		found, err := p.loader.Load(pos, c)
		if err != nil {
			return err
		}
		if found {
			return nil
		}
	}
	if p.generator != nil {
		p.generator.Populate(c, pos)
	}
	return nil
}

// Drain hands every finished job to fn without blocking and releases the
// chunks for re-enqueueing. It returns the number of results handled.
// fn runs on the calling goroutine and may be nil.
func (p *Processor) Drain(fn func(Result)) int {
	n := 0
	for {
		select {
		case r := <-p.results:
			delete(p.pending, r.Chunk)
			if r.Err != nil {
				p.log.Error("chunk job failed", "job", r.ID, "pos", r.Pos, "state", r.From, "error", r.Err)
			} else {
				p.log.Debug("chunk job done", "job", r.ID, "pos", r.Pos, "from", r.From, "to", r.To)
			}
			if fn != nil {
				fn(r)
			}
			n++
		default:
			return n
		}
	}
}

// Pending reports whether c has a job queued, running or awaiting Drain.
func (p *Processor) Pending(c *world.Chunk) bool {
	_, ok := p.pending[c]
	return ok
}

// PendingLen returns the number of pending chunks.
func (p *Processor) PendingLen() int {
	return len(p.pending)
}

// Wait blocks until every queued job has finished. Results still need Drain.
func (p *Processor) Wait() {
	p.inflight.Wait()
}

// Close waits for running jobs and stops the workers. Finished results can
// still be drained afterwards; Enqueue refuses every chunk from then on.
func (p *Processor) Close() {
	p.pool.StopAndWait()
}
