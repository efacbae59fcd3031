package pool

import (
	"fmt"
	"strings"
)

// displayColumns is the width of the block occupancy map in Display.
const displayColumns = 64

// Display renders a human-readable dump of block and index occupancy
// for debugging. The format is not stable across versions.
//
// The occupancy map draws one rune per bucket of blocks: '.' all free,
// '#' all allocated, '+' mixed.
func (p *Pool) Display() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.mustOpen()

	liveFree, liveAlloc := 0, 0
	for i := range p.table {
		switch p.table[i].state {
		case stateFree:
			liveFree++
		case stateAllocated:
			liveAlloc++
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "pool: %d B arena, %d blocks x %d B, free %d blocks\n",
		p.blocks*BlockSize, p.blocks, BlockSize, p.freeBlocks)
	fmt.Fprintf(&b, "index: %d slots (%d allocated, %d free, %d empty), cache prefix %d\n",
		len(p.table), liveAlloc, liveFree, p.empty.Len(), p.cache)

	cols := displayColumns
	if p.blocks < cols {
		cols = p.blocks
	}
	bucket := (p.blocks + cols - 1) / cols
	counts := make([]int, cols)
	for i := range p.table {
		e := p.table[i]
		if e.state != stateAllocated {
			continue
		}
		for blk := int(e.start); blk < e.end(); blk++ {
			counts[blk/bucket]++
		}
	}
	row := make([]rune, cols)
	for c := range row {
		size := bucket
		if rem := p.blocks - c*bucket; rem < size {
			size = rem
		}
		switch counts[c] {
		case 0:
			row[c] = '.'
		case size:
			row[c] = '#'
		default:
			row[c] = '+'
		}
	}
	fmt.Fprintf(&b, "blocks: [%s] (%d blocks per rune)\n", string(row), bucket)

	for i := range p.table {
		e := p.table[i]
		if e.state == stateEmpty {
			continue
		}
		fmt.Fprintf(&b, "  [%4d] %-9s start=%5d blocks=%5d\n", i, e.state, e.start, e.blocks)
	}
	return b.String()
}
