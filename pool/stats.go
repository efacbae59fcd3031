package pool

// Stats is a point-in-time snapshot of pool activity.
type Stats struct {
	// Counters since construction.
	Allocs      uint64 // successful exhaustive allocations
	FastAllocs  uint64 // successful cache-limited allocations
	Releases    uint64 // handles released
	Splits      uint64 // free runs split by an allocation
	Cleans      uint64 // Clean passes
	Merges      uint64 // free runs merged by Clean
	Defrags     uint64 // Defrag passes
	MovedBlocks uint64 // blocks relocated by Defrag

	// Gauges at snapshot time.
	FreeBlocks  int
	LiveHandles int
	LiveGuards  int
	EmptySlots  int
}

// Stats returns a copy of the pool's counters and gauges.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.mustOpen()
	s := p.stats
	s.FreeBlocks = p.freeBlocks
	s.LiveHandles = p.handles
	s.LiveGuards = p.liveGuards
	s.EmptySlots = p.empty.Len()
	return s
}
