// Package soak drives randomized allocate/verify/mutate/release
// sequences against a pool through its public API. It keeps a mirror of
// every live allocation's expected contents and fails the run the moment
// the pool's bytes diverge, which makes it the workhorse behind the
// stress tests, the benchmarks, and the poolctl CLI.
package soak

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/poolkit/poolkit/pool"
)

// Fill is the element type every soak allocation uses.
type Fill = uint32

// Defaults mirror the reference workload: a 32767-block arena, 512
// index slots, a cache prefix of a tenth of the slots.
const (
	DefaultBlocks  = 32767
	DefaultIndexes = 512
	DefaultLoops   = 1000
	DefaultSeed    = 1234
)

// Config shapes one soak run. Zero values select the defaults; Cache
// may be set to a negative value to request the Indexes/10 default,
// since zero is a legal cache size. FastOnly makes every first
// allocation attempt take the cache-limited path, which is how the
// fast-path benchmark isolates its cost.
type Config struct {
	Blocks   int
	Indexes  int
	Cache    int
	Loops    int
	Seed     int64
	Mmap     bool
	FastOnly bool
	Logger   *slog.Logger
}

func (c Config) withDefaults() Config {
	if c.Blocks <= 0 {
		c.Blocks = DefaultBlocks
	}
	if c.Indexes <= 0 {
		c.Indexes = DefaultIndexes
	}
	if c.Cache < 0 {
		c.Cache = c.Indexes / 10
	}
	if c.Loops <= 0 {
		c.Loops = DefaultLoops
	}
	if c.Seed == 0 {
		c.Seed = DefaultSeed
	}
	return c
}

// Stats counts what a run did.
type Stats struct {
	Loops      int
	Allocs     int // successful exhaustive allocations
	FastAllocs int // successful cache-limited allocations
	Skips      int
	Releases   int
	Mutates    int
	Cleans     int
	Defrags    int
	OutOfMems  int
	IndexFulls int
}

// Result is the outcome of a finished or aborted run.
type Result struct {
	Stats     Stats
	Pool      pool.Stats
	PoolTime  time.Duration // spent inside pool operations
	TotalTime time.Duration
}

type action uint8

const (
	actRelease action = iota
	actClean
	actMutate
	actAlloc
	actAllocFast
	actSkip
)

// fullActions weights the choices for a slot holding a live handle:
// release dominates so the pool keeps churning.
var fullActions = [...]action{
	actRelease, actRelease, actRelease, actRelease, actRelease,
	actRelease, actRelease, actRelease, actRelease,
	actClean, actMutate,
}

// emptyActions weights the choices for a slot with no handle.
var emptyActions = [...]action{actAlloc, actAllocFast, actSkip}

// trackedSlot pairs a live handle with the contents it is expected to
// hold.
type trackedSlot struct {
	handle *pool.Slice[Fill]
	mirror []Fill
}

// Runner owns one pool and one tracked slot per index-table slot.
type Runner struct {
	cfg   Config
	p     *pool.Pool
	rng   *rand.Rand
	slots []trackedSlot

	stats    Stats
	poolTime time.Duration
}

// New builds the pool described by cfg and a runner over it.
func New(cfg Config) (*Runner, error) {
	cfg = cfg.withDefaults()

	var opts []pool.Option
	if cfg.Mmap {
		opts = append(opts, pool.WithMmapArena())
	}
	if cfg.Logger != nil {
		opts = append(opts, pool.WithLogger(cfg.Logger))
	}
	p, err := pool.New(cfg.Blocks*pool.BlockSize, cfg.Indexes, cfg.Cache, opts...)
	if err != nil {
		return nil, err
	}
	return &Runner{
		cfg:   cfg,
		p:     p,
		rng:   rand.New(rand.NewSource(cfg.Seed)),
		slots: make([]trackedSlot, cfg.Indexes),
	}, nil
}

// Pool exposes the underlying pool, so a failed run's caller can print
// its Display dump.
func (r *Runner) Pool() *pool.Pool {
	return r.p
}

// Close releases every live handle and then the pool.
func (r *Runner) Close() error {
	for i := range r.slots {
		if r.slots[i].handle != nil {
			r.slots[i].handle.Release()
			r.slots[i] = trackedSlot{}
		}
	}
	return r.p.Close()
}

// Run executes the configured loops. Every live slot is verified
// against its mirror each time it is visited, and the pool's structural
// invariants are verified after every loop; the first divergence aborts
// the run with a descriptive error.
func (r *Runner) Run() (Result, error) {
	start := time.Now()
	for range r.cfg.Loops {
		for i := range r.slots {
			if err := r.step(i); err != nil {
				return r.result(start), err
			}
		}
		if err := r.verifyPool(); err != nil {
			return r.result(start), err
		}
		r.stats.Loops++
	}
	return r.result(start), nil
}

func (r *Runner) result(start time.Time) Result {
	return Result{
		Stats:     r.stats,
		Pool:      r.p.Stats(),
		PoolTime:  r.poolTime,
		TotalTime: time.Since(start),
	}
}

// step visits one slot: verify it, then apply one weighted random
// action.
func (r *Runner) step(i int) error {
	s := &r.slots[i]
	if s.handle != nil {
		if err := r.verifySlot(i); err != nil {
			return err
		}
		switch fullActions[r.rng.Intn(len(fullActions))] {
		case actRelease:
			r.timed(s.handle.Release)
			*s = trackedSlot{}
			r.stats.Releases++
		case actClean:
			r.timed(r.p.Clean)
			r.stats.Cleans++
		case actMutate:
			r.fill(s)
			r.stats.Mutates++
		}
		return nil
	}

	act := emptyActions[r.rng.Intn(len(emptyActions))]
	if act == actAlloc && r.cfg.FastOnly {
		act = actAllocFast
	}
	switch act {
	case actAlloc:
		return r.allocate(i, false)
	case actAllocFast:
		return r.allocate(i, true)
	case actSkip:
		r.stats.Skips++
	}
	return nil
}

// allocLen draws a request size in elements, sized so a busy run swings
// between plentiful memory and exhaustion.
func (r *Runner) allocLen() int {
	divider := r.cfg.Blocks * pool.BlockSize / (4 * 64)
	if divider < 1 {
		divider = 1
	}
	return r.rng.Intn(divider)
}

// allocate tries one allocation on slot i, applying the caller-policy
// recovery the pool itself refuses to do: Defrag then an exhaustive
// retry on ErrFragmented, Clean then a retry on ErrIndexFull. True
// exhaustion is counted, not fatal.
func (r *Runner) allocate(i int, fast bool) error {
	n := r.allocLen()

	h, err := r.alloc(fast, n)
	defragged, cleaned := false, false
	for err != nil {
		if errors.Is(err, pool.ErrFragmented) && !defragged {
			r.timed(r.p.Defrag)
			r.stats.Defrags++
			defragged = true
			h, err = r.alloc(false, n)
			continue
		}
		if errors.Is(err, pool.ErrIndexFull) && !cleaned {
			r.timed(r.p.Clean)
			r.stats.Cleans++
			cleaned = true
			h, err = r.alloc(false, n)
			continue
		}
		break
	}
	switch {
	case err == nil:
	case errors.Is(err, pool.ErrOutOfMemory):
		r.stats.OutOfMems++
		return nil
	case errors.Is(err, pool.ErrIndexFull):
		r.stats.IndexFulls++
		return nil
	case errors.Is(err, pool.ErrFragmented):
		// Only reachable right after a Defrag with no mutation in
		// between, which leaves a single free run; a request that fits
		// free space cannot be fragmented then, so this is a pool
		// defect.
		return fmt.Errorf("soak: slot %d still fragmented for %d elements after defrag: %w", i, n, err)
	default:
		return fmt.Errorf("soak: slot %d allocation of %d elements failed: %w", i, n, err)
	}

	s := &r.slots[i]
	s.handle = h
	s.mirror = make([]Fill, n)
	r.fill(s)
	return nil
}

func (r *Runner) alloc(fast bool, n int) (*pool.Slice[Fill], error) {
	start := time.Now()
	defer func() { r.poolTime += time.Since(start) }()
	if fast {
		h, err := pool.AllocSliceFast[Fill](r.p, n)
		if err == nil {
			r.stats.FastAllocs++
		}
		return h, err
	}
	h, err := pool.AllocSlice[Fill](r.p, n)
	if err == nil {
		r.stats.Allocs++
	}
	return h, err
}

// fill writes fresh random values through the slot's guard and into its
// mirror.
func (r *Runner) fill(s *trackedSlot) {
	start := time.Now()
	g := s.handle.Lock()
	view := g.Slice()
	for j := range view {
		v := Fill(r.rng.Uint32())
		view[j] = v
		s.mirror[j] = v
	}
	g.Unlock()
	r.poolTime += time.Since(start)
}

// verifySlot compares the pool's bytes for slot i against the mirror.
func (r *Runner) verifySlot(i int) error {
	s := &r.slots[i]
	start := time.Now()
	g := s.handle.Lock()
	view := g.Slice()
	defer func() {
		g.Unlock()
		r.poolTime += time.Since(start)
	}()
	if len(view) != len(s.mirror) {
		return fmt.Errorf("soak: slot %d exposes %d elements, expected %d", i, len(view), len(s.mirror))
	}
	for j := range view {
		if view[j] != s.mirror[j] {
			return fmt.Errorf("soak: slot %d diverged at element %d: pool has 0x%08x, expected 0x%08x",
				i, j, view[j], s.mirror[j])
		}
	}
	return nil
}

func (r *Runner) verifyPool() error {
	start := time.Now()
	defer func() { r.poolTime += time.Since(start) }()
	return r.p.Verify()
}

// timed runs one pool operation and charges its wall time to the pool
// clock.
func (r *Runner) timed(op func()) {
	start := time.Now()
	op()
	r.poolTime += time.Since(start)
}
