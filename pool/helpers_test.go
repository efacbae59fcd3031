package pool_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/poolkit/poolkit/pool"
)

// newPool builds a pool sized in blocks and closes it with the test.
func newPool(t *testing.T, blocks, indexes, cacheSlots int, opts ...pool.Option) *pool.Pool {
	t.Helper()
	p, err := pool.New(blocks*pool.BlockSize, indexes, cacheSlots, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, p.Close()) })
	return p
}

// fillSeq writes a distinct ascending pattern through the handle's guard.
func fillSeq(t *testing.T, s *pool.Slice[uint32], base uint32) {
	t.Helper()
	g := s.Lock()
	defer g.Unlock()
	v := g.Slice()
	for i := range v {
		v[i] = base + uint32(i)
	}
}

// requireSeq checks the handle still holds the pattern fillSeq wrote.
func requireSeq(t *testing.T, s *pool.Slice[uint32], base uint32) {
	t.Helper()
	g := s.Lock()
	defer g.Unlock()
	v := g.Slice()
	for i := range v {
		require.Equal(t, base+uint32(i), v[i], "element %d", i)
	}
}

// allocBlocks allocates exactly blocks worth of uint32 elements.
func allocBlocks(t *testing.T, p *pool.Pool, blocks int) *pool.Slice[uint32] {
	t.Helper()
	s, err := pool.AllocSlice[uint32](p, blocks*pool.BlockSize/4)
	require.NoError(t, err)
	require.Equal(t, blocks, s.Blocks())
	return s
}
