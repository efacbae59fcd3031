package pool_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poolkit/poolkit/pool"
)

func Test_Clean_MergesAdjacentRuns(t *testing.T) {
	// Fill a 32-block arena with four 8-block runs, then free the two in
	// the middle. Their spans touch, but as separate entries neither can
	// serve a 16-block request.
	p := newPool(t, 32, 8, 0)

	a := allocBlocks(t, p, 8)
	b := allocBlocks(t, p, 8)
	c := allocBlocks(t, p, 8)
	d := allocBlocks(t, p, 8)
	fillSeq(t, a, 0xA0)
	fillSeq(t, d, 0xD0)

	b.Release()
	c.Release()

	_, err := pool.AllocSlice[uint32](p, 32)
	require.ErrorIs(t, err, pool.ErrFragmented)

	// Clean merges the hole without touching a byte; the request now
	// lands as an exact fit.
	p.Clean()
	mid, err := pool.AllocSlice[uint32](p, 32)
	require.NoError(t, err)
	assert.Equal(t, 16, mid.Blocks())

	requireSeq(t, a, 0xA0)
	requireSeq(t, d, 0xD0)

	st := p.Stats()
	assert.Equal(t, uint64(1), st.Cleans)
	assert.Equal(t, uint64(1), st.Merges)
	assert.Equal(t, uint64(0), st.Defrags)
	require.NoError(t, p.Verify())

	a.Release()
	d.Release()
	mid.Release()
}

func Test_Clean_MergesRunsOfRuns(t *testing.T) {
	p := newPool(t, 64, 16, 0)

	handles := make([]*pool.Slice[uint32], 0, 8)
	for range 8 {
		handles = append(handles, allocBlocks(t, p, 8))
	}

	// Free six of the eight runs, leaving two separated islands of
	// three adjacent free runs each.
	for _, i := range []int{0, 1, 2, 5, 6, 7} {
		handles[i].Release()
	}

	p.Clean()

	st := p.Stats()
	assert.Equal(t, uint64(4), st.Merges)
	assert.Equal(t, 48, st.FreeBlocks)
	require.NoError(t, p.Verify())

	// Each island is now a single 24-block run.
	left, err := pool.AllocSlice[uint32](p, 48)
	require.NoError(t, err)
	assert.Equal(t, 24, left.Blocks())
	right, err := pool.AllocSlice[uint32](p, 48)
	require.NoError(t, err)
	assert.Equal(t, 24, right.Blocks())

	left.Release()
	right.Release()
	handles[3].Release()
	handles[4].Release()
}

func Test_Clean_NoFreeEntries(t *testing.T) {
	p := newPool(t, 32, 4, 0)

	s := allocBlocks(t, p, 32)

	require.NotPanics(t, func() { p.Clean() })
	st := p.Stats()
	assert.Equal(t, uint64(1), st.Cleans)
	assert.Equal(t, uint64(0), st.Merges)

	s.Release()
	require.NoError(t, p.Verify())
}

func Test_Clean_DisjointRunsUntouched(t *testing.T) {
	p := newPool(t, 32, 8, 0)

	a := allocBlocks(t, p, 8)
	b := allocBlocks(t, p, 8)
	c := allocBlocks(t, p, 8)
	d := allocBlocks(t, p, 8)

	// Free alternating runs; no two free spans touch.
	a.Release()
	c.Release()

	p.Clean()
	assert.Equal(t, uint64(0), p.Stats().Merges)

	// Still fragmented: the two 8-block holes cannot serve 16 blocks.
	_, err := pool.AllocSlice[uint32](p, 32)
	require.ErrorIs(t, err, pool.ErrFragmented)

	b.Release()
	d.Release()
	require.NoError(t, p.Verify())
}
