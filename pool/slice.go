package pool

import "unsafe"

// Slice is a caller-owned handle to one allocated run. Its identity is
// an index-table slot, not an address: every Lock resolves the current
// physical placement through the table, so the handle stays valid when
// Defrag relocates its bytes. A Slice belongs to one goroutine at a
// time.
type Slice[T any] struct {
	pool *Pool
	slot IndexLoc
	n    int

	locked   bool
	released bool
}

// Len returns the element count the handle exposes. Block-granularity
// over-allocation is never visible.
func (s *Slice[T]) Len() int {
	return s.n
}

// Blocks returns the whole-block span backing the handle.
func (s *Slice[T]) Blocks() int {
	p := s.pool
	p.mu.Lock()
	defer p.mu.Unlock()
	p.mustOpen()
	if s.released {
		panic("pool: use of a released slice")
	}
	return int(p.table[s.slot].blocks)
}

// Lock resolves the handle's placement and returns its guard. A handle
// admits one live guard at a time; a second Lock before Unlock panics,
// as does Lock on a released handle.
func (s *Slice[T]) Lock() *Guard[T] {
	p := s.pool
	p.mu.Lock()
	defer p.mu.Unlock()
	p.mustOpen()
	if s.released {
		panic("pool: Lock on a released slice")
	}
	if s.locked {
		panic("pool: slice is already locked")
	}

	var view []T
	if s.n > 0 {
		var zero T
		if elem := int(unsafe.Sizeof(zero)); elem == 0 {
			// Zero-size elements occupy no arena bytes.
			view = make([]T, s.n)
		} else {
			off := int(p.table[s.slot].start) * BlockSize
			view = unsafe.Slice((*T)(unsafe.Pointer(&p.data[off])), s.n)
		}
	}
	s.locked = true
	p.liveGuards++
	return &Guard[T]{owner: s, view: view}
}

// Release returns the handle's entry to the free state; its blocks
// become available to later searches but are not merged with neighbors
// (that is Clean's job). Only the first call has effect. Release panics
// while a guard is held.
func (s *Slice[T]) Release() {
	p := s.pool
	p.mu.Lock()
	defer p.mu.Unlock()
	if s.released {
		return
	}
	if p.closed {
		// The arena is already gone; nothing to hand back.
		s.released = true
		return
	}
	if s.locked {
		panic("pool: Release while the slice is locked")
	}
	e := &p.table[s.slot]
	if e.blocks == 0 {
		p.giveSlot(s.slot)
	} else {
		e.state = stateFree
		p.freeBlocks += int(e.blocks)
	}
	s.released = true
	p.handles--
	p.stats.Releases++
}

// Guard grants element access to a locked slice until Unlock.
type Guard[T any] struct {
	owner *Slice[T]
	view  []T
}

// Slice returns the guarded elements. The returned slice aliases arena
// memory and must not be retained past Unlock.
func (g *Guard[T]) Slice() []T {
	if g.owner == nil {
		panic("pool: use of an unlocked guard")
	}
	return g.view
}

// Unlock ends the borrow. Unlocking twice panics.
func (g *Guard[T]) Unlock() {
	if g.owner == nil {
		panic("pool: Unlock of an unlocked guard")
	}
	s := g.owner
	p := s.pool
	p.mu.Lock()
	defer p.mu.Unlock()
	g.owner = nil
	g.view = nil
	s.locked = false
	p.liveGuards--
}
