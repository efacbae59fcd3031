// Package pool implements a fixed-capacity, block-based memory pool
// allocator with explicit defragmentation.
//
// # Overview
//
// A Pool owns one contiguous arena of bytes, partitioned into equal
// BlockSize-byte blocks, and a fixed-capacity index table whose entries
// each describe one contiguous run of blocks. Callers allocate typed
// slices inside the arena without touching the system allocator and
// release them deterministically through handle release. Free space that
// scatters into many small runs is recovered with two operations of very
// different cost: Clean merges adjacent free runs at the bookkeeping
// level only, and Defrag physically compacts allocated data to one end
// of the arena.
//
// # Data Structures
//
//   - Arena: the backing bytes, heap-allocated or an anonymous private
//     memory mapping (WithMmapArena).
//   - Index table: a fixed array of entries; each slot is empty, a free
//     run, or an allocated run (start block, length in blocks). Free and
//     allocated runs together partition the arena at all times.
//   - Empty-slot heap: a min-heap of unused slot numbers, so new entries
//     take the lowest slot available and the cache prefix stays dense.
//
// # Allocation Paths
//
// AllocSlice scans the whole table and picks the qualifying free run
// with the lowest block location (first-fit). AllocSliceFast scans only
// the first CacheSlots table slots, trading completeness for a search
// cost independent of table capacity: it reports ErrFragmented whenever
// the cache prefix alone holds no qualifying run, even if the full table
// does. The pool never falls back from one path to the other on its own;
// retrying exhaustively, or calling Defrag first, is caller policy.
//
// Failures are precise: ErrOutOfMemory means the aggregate free block
// count cannot cover the request, ErrFragmented means enough blocks are
// free but no searched run is long enough, and ErrIndexFull means the
// table itself has no slot left for a new entry.
//
// # Handles and Guards
//
// Allocation returns a Slice handle bound to one index slot. The slot
// number, not a raw address, is the handle's identity: every Lock
// resolves the entry's current start block through the table, which is
// what keeps handles valid across Defrag relocations. A handle admits
// one live Guard at a time; locking twice, unlocking twice, or releasing
// while locked panics rather than corrupting memory. Release is the only
// deallocation interface and is designed for defer:
//
//	p, err := pool.New(1<<16, 512, 51)
//	if err != nil {
//		return err
//	}
//	defer p.Close()
//
//	s, err := pool.AllocSlice[uint32](p, 100)
//	if err != nil {
//		return err
//	}
//	defer s.Release()
//
//	g := s.Lock()
//	for i := range g.Slice() {
//		g.Slice()[i] = uint32(i)
//	}
//	g.Unlock()
//
// Element types must not contain pointers: the arena's bytes are opaque
// to the garbage collector.
//
// # Reclamation
//
// Release marks the handle's entry free but never merges runs, so a
// busy pool accumulates small free entries. Clean sorts the free entries
// by start block and coalesces every physically adjacent pair, returning
// index slots for reuse without moving a single arena byte. Defrag
// slides every allocated run toward block zero in stable order, rewrites
// each entry's start in place, and leaves one maximal free run at the
// high end; afterwards a request that fits free space can no longer fail
// with ErrFragmented. Defrag panics if any guard is held, since it must
// not move bytes under a live borrow.
//
// # Concurrency
//
// All pool operations serialize on one internal mutex, so a Pool may be
// shared between goroutines. A held Guard does not hold that mutex: it
// grants direct access to its own disjoint byte range, so guards on
// different handles may be held concurrently. A Slice and its Guard
// belong to one goroutine at a time.
//
// # Diagnostics
//
// Display returns a dump of block and index occupancy, Verify checks the
// structural invariants (disjointness, exact partition, counter
// agreement), and Stats reports operation counters and live gauges.
package pool
