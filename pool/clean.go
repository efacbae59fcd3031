package pool

import "sort"

// Clean coalesces physically adjacent free runs into fewer, larger
// entries and returns the vacated slots to the empty heap. It never
// touches allocated entries or arena bytes, has no error outcomes, and
// is safe with handles outstanding and guards held.
//
// All physically contiguous free runs are merged, regardless of where
// their slots sit in the table; the merged run keeps the slot of its
// lowest-start member.
func (p *Pool) Clean() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.mustOpen()

	free := make([]IndexLoc, 0, 16)
	for i := range p.table {
		if p.table[i].state == stateFree {
			free = append(free, IndexLoc(i))
		}
	}
	sort.Slice(free, func(i, j int) bool {
		return p.table[free[i]].start < p.table[free[j]].start
	})

	merged := 0
	var into IndexLoc
	have := false
	for _, s := range free {
		if !have {
			into, have = s, true
			continue
		}
		a := &p.table[into]
		b := p.table[s]
		if a.end() == int(b.start) {
			a.blocks += b.blocks
			p.giveSlot(s)
			merged++
		} else {
			into = s
		}
	}

	p.stats.Cleans++
	p.stats.Merges += uint64(merged)
	p.log.Debug("clean pass", "merged", merged, "free_blocks", p.freeBlocks)
}
