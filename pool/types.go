package pool

import "fmt"

// BlockLoc addresses a block by its position within the arena.
type BlockLoc = uint16

// IndexLoc addresses a slot in the pool's index table.
type IndexLoc = uint16

const (
	// BlockSize is the allocation granularity in bytes. Every run starts
	// on a block boundary and spans a whole number of blocks.
	BlockSize = 8

	// MaxBlocks is the largest block count an arena may hold, bounded by
	// the BlockLoc range.
	MaxBlocks = 1<<16 - 1

	// MaxIndexes is the largest index-table capacity, bounded by the
	// IndexLoc range.
	MaxIndexes = 1<<16 - 1

	// MaxSliceLen is the largest element count a single allocation may
	// request.
	MaxSliceLen = 1<<16 - 1
)

// entryState tracks what an index-table slot currently holds.
type entryState uint8

const (
	stateEmpty entryState = iota
	stateFree
	stateAllocated
)

func (s entryState) String() string {
	switch s {
	case stateEmpty:
		return "empty"
	case stateFree:
		return "free"
	case stateAllocated:
		return "allocated"
	}
	return fmt.Sprintf("entryState(%d)", uint8(s))
}

// entry describes one contiguous block run. A free entry keeps the span
// it last covered; an empty slot carries no span at all.
type entry struct {
	start  BlockLoc
	blocks BlockLoc
	state  entryState
}

// end returns the first block past the entry's run.
func (e entry) end() int {
	return int(e.start) + int(e.blocks)
}
