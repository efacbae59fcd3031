package pool

import (
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"
)

// Verify checks the structural invariants of the index table: legal
// states, spans inside the arena, pairwise-disjoint runs that together
// partition every block, the free-block counter agreeing with the
// summed free spans, and the empty-slot heap agreeing with the table.
// It returns nil or an error naming the first violation.
func (p *Pool) Verify() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.mustOpen()
	return p.verifyLocked()
}

func (p *Pool) verifyLocked() error {
	covered := roaring.New()
	freeSum := 0
	empties := 0
	for i := range p.table {
		e := p.table[i]
		switch e.state {
		case stateEmpty:
			if e.start != 0 || e.blocks != 0 {
				return fmt.Errorf("pool: empty slot %d retains span start=%d blocks=%d", i, e.start, e.blocks)
			}
			empties++
			continue
		case stateFree, stateAllocated:
		default:
			return fmt.Errorf("pool: slot %d has unknown state %d", i, uint8(e.state))
		}
		if e.end() > p.blocks {
			return fmt.Errorf("pool: slot %d spans [%d, %d) past the %d-block arena", i, e.start, e.end(), p.blocks)
		}
		if e.state == stateFree {
			freeSum += int(e.blocks)
		}
		if e.blocks == 0 {
			continue
		}
		before := covered.GetCardinality()
		covered.AddRange(uint64(e.start), uint64(e.end()))
		if covered.GetCardinality() != before+uint64(e.blocks) {
			return fmt.Errorf("pool: slot %d overlaps another entry in [%d, %d)", i, e.start, e.end())
		}
	}
	if got := covered.GetCardinality(); got != uint64(p.blocks) {
		return fmt.Errorf("pool: entries cover %d of %d blocks", got, p.blocks)
	}
	if freeSum != p.freeBlocks {
		return fmt.Errorf("pool: free counter %d disagrees with summed free spans %d", p.freeBlocks, freeSum)
	}
	if empties != p.empty.Len() {
		return fmt.Errorf("pool: %d empty slots in the table but %d on the heap", empties, p.empty.Len())
	}
	return nil
}
