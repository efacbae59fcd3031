package pool

import (
	"container/heap"
	"fmt"
	"log/slog"
	"sync"

	"github.com/poolkit/poolkit/internal/arena"
)

// Pool is a fixed-capacity block allocator over one contiguous arena.
// All methods are safe for concurrent use; see the package documentation
// for the guard discipline.
type Pool struct {
	mu sync.Mutex

	region *arena.Region
	data   []byte

	blocks int // total block capacity
	table  []entry
	cache  int      // fast-path prefix length, 0..len(table)
	empty  slotHeap // unused slot numbers, min-heap

	freeBlocks int // aggregate free, for O(1) OutOfMemory vs Fragmented
	liveGuards int
	handles    int

	log    *slog.Logger
	stats  Stats
	closed bool
}

// New constructs a pool whose arena holds size bytes split into
// BlockSize-byte blocks, with an index table of indexes slots of which
// the first cacheSlots form the fast-path search prefix. The arena
// starts as one maximal free run.
func New(size, indexes, cacheSlots int, opts ...Option) (*Pool, error) {
	if size <= 0 || size%BlockSize != 0 {
		return nil, fmt.Errorf("%w: arena size %d is not a positive multiple of %d", ErrConfig, size, BlockSize)
	}
	blocks := size / BlockSize
	if blocks > MaxBlocks {
		return nil, fmt.Errorf("%w: %d blocks exceed the addressable maximum %d", ErrConfig, blocks, MaxBlocks)
	}
	if indexes < 1 || indexes > MaxIndexes {
		return nil, fmt.Errorf("%w: index capacity %d outside [1, %d]", ErrConfig, indexes, MaxIndexes)
	}
	if cacheSlots < 0 || cacheSlots > indexes {
		return nil, fmt.Errorf("%w: cache size %d outside [0, %d]", ErrConfig, cacheSlots, indexes)
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	var region *arena.Region
	if cfg.useMmap {
		r, err := arena.MapAnon(size)
		if err != nil {
			return nil, err
		}
		region = r
	} else {
		region = arena.Alloc(size)
	}

	p := &Pool{
		region:     region,
		data:       region.Bytes(),
		blocks:     blocks,
		table:      make([]entry, indexes),
		cache:      cacheSlots,
		empty:      make(slotHeap, 0, indexes),
		freeBlocks: blocks,
		log:        cfg.log,
	}
	p.table[0] = entry{start: 0, blocks: BlockLoc(blocks), state: stateFree}
	for i := 1; i < indexes; i++ {
		p.empty = append(p.empty, IndexLoc(i))
	}
	heap.Init(&p.empty)

	p.log.Debug("pool constructed",
		"bytes", size, "blocks", blocks, "indexes", indexes,
		"cache", cacheSlots, "mmap", region.Mapped())
	return p, nil
}

// Size returns the arena capacity in bytes.
func (p *Pool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.mustOpen()
	return p.blocks * BlockSize
}

// Blocks returns the arena capacity in blocks.
func (p *Pool) Blocks() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.mustOpen()
	return p.blocks
}

// Indexes returns the index-table capacity.
func (p *Pool) Indexes() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.mustOpen()
	return len(p.table)
}

// CacheSlots returns the length of the fast-path search prefix.
func (p *Pool) CacheSlots() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.mustOpen()
	return p.cache
}

// Close releases the arena. Safe to call more than once. Every pool
// operation except handle Release panics after Close; Close panics if a
// guard is still held, since the guard's memory is about to vanish.
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	if p.liveGuards > 0 {
		panic("pool: Close while a guard is held")
	}
	p.closed = true
	p.data = nil
	return p.region.Close()
}

// mustOpen panics on use after Close. Caller holds p.mu.
func (p *Pool) mustOpen() {
	if p.closed {
		panic("pool: use after Close")
	}
}

// takeSlot pops the lowest empty slot off the heap. Caller holds p.mu.
func (p *Pool) takeSlot() (IndexLoc, error) {
	if p.empty.Len() == 0 {
		return 0, fmt.Errorf("%w: all %d slots in use", ErrIndexFull, len(p.table))
	}
	return heap.Pop(&p.empty).(IndexLoc), nil //nolint:errcheck // heap.Interface contract guarantees type
}

// giveSlot clears slot and returns it to the empty heap. Caller holds
// p.mu.
func (p *Pool) giveSlot(slot IndexLoc) {
	p.table[slot] = entry{}
	heap.Push(&p.empty, slot)
}
