package pool

import (
	"fmt"
	"unsafe"
)

// AllocSlice allocates n elements of T inside the arena, searching the
// entire index table for the free run with the lowest block location
// that fits (first-fit). T must not contain pointers.
//
// Returns ErrOutOfMemory when the aggregate free space cannot cover the
// request, ErrFragmented when it could but no single run is long enough,
// and ErrIndexFull when no table slot is left for the new entry.
func AllocSlice[T any](p *Pool, n int) (*Slice[T], error) {
	return allocSlice[T](p, n, false)
}

// AllocSliceFast is AllocSlice with the run search restricted to the
// pool's cache prefix, making its cost independent of the table
// capacity. It returns ErrFragmented whenever the prefix alone holds no
// qualifying run, even if the full table does; falling back to
// AllocSlice, with or without a Defrag in between, is the caller's
// decision.
func AllocSliceFast[T any](p *Pool, n int) (*Slice[T], error) {
	return allocSlice[T](p, n, true)
}

func allocSlice[T any](p *Pool, n int, fast bool) (*Slice[T], error) {
	if n < 0 || n > MaxSliceLen {
		return nil, fmt.Errorf("%w: %d not in [0, %d]", ErrLenRange, n, MaxSliceLen)
	}
	var zero T
	need := blocksFor(n * int(unsafe.Sizeof(zero)))

	p.mu.Lock()
	defer p.mu.Unlock()
	p.mustOpen()

	slot, err := p.allocRun(need, fast)
	if err != nil {
		return nil, err
	}
	p.handles++
	if fast {
		p.stats.FastAllocs++
	} else {
		p.stats.Allocs++
	}
	return &Slice[T]{pool: p, slot: slot, n: n}, nil
}

// blocksFor returns the block count needed to hold n bytes.
//
// Example: blocksFor(1) = 1, blocksFor(8) = 1, blocksFor(9) = 2.
func blocksFor(n int) int {
	return (n + BlockSize - 1) / BlockSize
}

// allocRun finds a free run of need blocks and returns the slot of the
// resulting allocated entry. Caller holds p.mu.
func (p *Pool) allocRun(need int, fast bool) (IndexLoc, error) {
	if need > p.freeBlocks {
		return 0, fmt.Errorf("%w: need %d blocks, %d free", ErrOutOfMemory, need, p.freeBlocks)
	}
	if need == 0 {
		// Zero bytes still get an index identity, just no span.
		slot, err := p.takeSlot()
		if err != nil {
			return 0, err
		}
		p.table[slot] = entry{state: stateAllocated}
		return slot, nil
	}

	scope := len(p.table)
	if fast {
		scope = p.cache
	}
	found := -1
	for i := 0; i < scope; i++ {
		e := &p.table[i]
		if e.state != stateFree || int(e.blocks) < need {
			continue
		}
		if found < 0 || e.start < p.table[found].start {
			found = i
		}
	}
	if found < 0 {
		return 0, fmt.Errorf("%w: no free run of %d blocks in the %d searched slots", ErrFragmented, need, scope)
	}

	e := &p.table[found]
	if int(e.blocks) == need {
		e.state = stateAllocated
		p.freeBlocks -= need
		return IndexLoc(found), nil
	}

	// Split: the allocation takes the run's prefix in a fresh slot; the
	// found entry keeps the remainder, its slot, and with it its cache
	// visibility.
	slot, err := p.takeSlot()
	if err != nil {
		return 0, err
	}
	p.table[slot] = entry{start: e.start, blocks: BlockLoc(need), state: stateAllocated}
	e.start += BlockLoc(need)
	e.blocks -= BlockLoc(need)
	p.freeBlocks -= need
	p.stats.Splits++
	return slot, nil
}
