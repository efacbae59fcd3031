package pool

import "sort"

// Defrag physically compacts the arena: every allocated run slides
// toward block zero in stable start order, each entry's start is
// rewritten in place, and the free space left behind becomes one maximal
// run at the high end. Slot identities never change, so outstanding
// handles remain valid; their next Lock resolves the new placement.
//
// After Defrag, an exhaustive allocation that fits the free space cannot
// fail with ErrFragmented. Defrag panics if any guard is held, since it
// must not move bytes under a live borrow.
func (p *Pool) Defrag() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.mustOpen()
	if p.liveGuards > 0 {
		panic("pool: Defrag while a guard is held")
	}

	live := make([]IndexLoc, 0, 16)
	for i := range p.table {
		switch p.table[i].state {
		case stateAllocated:
			if p.table[i].blocks > 0 {
				live = append(live, IndexLoc(i))
			}
		case stateFree:
			// Superseded by the single tail run built below.
			p.giveSlot(IndexLoc(i))
		}
	}
	sort.Slice(live, func(i, j int) bool {
		return p.table[live[i]].start < p.table[live[j]].start
	})

	cursor := 0
	moved := 0
	for _, s := range live {
		e := &p.table[s]
		if int(e.start) != cursor {
			dst := cursor * BlockSize
			src := int(e.start) * BlockSize
			n := int(e.blocks) * BlockSize
			copy(p.data[dst:dst+n], p.data[src:src+n])
			e.start = BlockLoc(cursor)
			moved += int(e.blocks)
		}
		cursor += int(e.blocks)
	}

	if cursor < p.blocks {
		slot, err := p.takeSlot()
		if err != nil {
			// Unreachable under correct bookkeeping: vacating the free
			// entries above guarantees a slot whenever free blocks exist.
			panic("pool: no index slot for the compacted free run")
		}
		p.table[slot] = entry{
			start:  BlockLoc(cursor),
			blocks: BlockLoc(p.blocks - cursor),
			state:  stateFree,
		}
	}

	p.stats.Defrags++
	p.stats.MovedBlocks += uint64(moved)
	p.log.Debug("defrag pass", "moved_blocks", moved, "tail_free_blocks", p.blocks-cursor)
}
