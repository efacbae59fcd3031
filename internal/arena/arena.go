// Package arena provides the backing byte region a pool sub-allocates from,
// either heap-allocated or an anonymous private memory mapping.
package arena

import (
	"fmt"
	"sync/atomic"
)

// Region owns one contiguous byte range for the lifetime of a pool.
type Region struct {
	data   []byte
	unmap  func([]byte) error
	closed atomic.Bool
}

// Alloc returns a heap-backed region of size bytes.
func Alloc(size int) *Region {
	return &Region{data: make([]byte, size)}
}

// MapAnon returns a region backed by an anonymous read-write private
// mapping. On platforms without mmap support it falls back to the heap.
func MapAnon(size int) (*Region, error) {
	if size <= 0 {
		return nil, fmt.Errorf("arena: mapping size must be positive, got %d", size)
	}
	data, unmap, err := osMapAnon(size)
	if err != nil {
		return nil, fmt.Errorf("arena: anonymous mapping of %d bytes failed: %w", size, err)
	}
	return &Region{data: data, unmap: unmap}, nil
}

// Bytes returns the region's bytes, or nil once the region is closed.
// The slice is valid only until Close.
func (r *Region) Bytes() []byte {
	if r.closed.Load() {
		return nil
	}
	return r.data
}

// Size returns the region's length in bytes.
func (r *Region) Size() int {
	if r.closed.Load() {
		return 0
	}
	return len(r.data)
}

// Mapped reports whether the region is backed by a memory mapping.
func (r *Region) Mapped() bool {
	return r.unmap != nil
}

// Close releases the region. Safe to call more than once.
func (r *Region) Close() error {
	if !r.closed.CompareAndSwap(false, true) {
		return nil
	}
	data := r.data
	r.data = nil
	if r.unmap == nil || len(data) == 0 {
		return nil
	}
	return r.unmap(data)
}
