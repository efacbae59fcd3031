package pool_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poolkit/poolkit/pool"
)

func Test_Slice_RoundTrip(t *testing.T) {
	p := newPool(t, 64, 8, 0)

	s, err := pool.AllocSlice[uint32](p, 100)
	require.NoError(t, err)
	assert.Equal(t, 100, s.Len())
	assert.Equal(t, 50, s.Blocks())

	g := s.Lock()
	v := g.Slice()
	require.Len(t, v, 100)
	for i := range v {
		v[i] = uint32(i) * 7
	}
	g.Unlock()

	// A fresh lock sees the same bytes.
	g = s.Lock()
	for i, got := range g.Slice() {
		require.Equal(t, uint32(i)*7, got)
	}
	g.Unlock()

	s.Release()
	require.NoError(t, p.Verify())
}

func Test_Slice_DoubleLockPanics(t *testing.T) {
	p := newPool(t, 64, 8, 0)
	s, err := pool.AllocSlice[uint32](p, 4)
	require.NoError(t, err)

	g := s.Lock()
	require.Panics(t, func() { s.Lock() })
	g.Unlock()
	s.Release()
}

func Test_Guard_DoubleUnlockPanics(t *testing.T) {
	p := newPool(t, 64, 8, 0)
	s, err := pool.AllocSlice[uint32](p, 4)
	require.NoError(t, err)

	g := s.Lock()
	g.Unlock()
	require.Panics(t, func() { g.Unlock() })
	require.Panics(t, func() { g.Slice() })
	s.Release()
}

func Test_Slice_ReleaseWhileLockedPanics(t *testing.T) {
	p := newPool(t, 64, 8, 0)
	s, err := pool.AllocSlice[uint32](p, 4)
	require.NoError(t, err)

	g := s.Lock()
	require.Panics(t, func() { s.Release() })
	g.Unlock()
	require.NotPanics(t, func() { s.Release() })
}

func Test_Slice_UseAfterReleasePanics(t *testing.T) {
	p := newPool(t, 64, 8, 0)
	s, err := pool.AllocSlice[uint32](p, 4)
	require.NoError(t, err)

	s.Release()
	require.Panics(t, func() { s.Lock() })
	require.Panics(t, func() { s.Blocks() })

	// Len needs no table lookup and stays answerable.
	assert.Equal(t, 4, s.Len())
}

func Test_Slice_ReleaseIdempotent(t *testing.T) {
	p := newPool(t, 64, 8, 0)
	s, err := pool.AllocSlice[uint32](p, 4)
	require.NoError(t, err)

	s.Release()
	require.NotPanics(t, func() { s.Release() })

	st := p.Stats()
	assert.Equal(t, uint64(1), st.Releases)
	assert.Equal(t, 0, st.LiveHandles)
	assert.Equal(t, 64, st.FreeBlocks)
}

func Test_Slice_IndependentHandles(t *testing.T) {
	p := newPool(t, 64, 8, 0)

	a, err := pool.AllocSlice[uint32](p, 16)
	require.NoError(t, err)
	b, err := pool.AllocSlice[uint32](p, 16)
	require.NoError(t, err)

	// Guards on distinct handles coexist.
	ga := a.Lock()
	gb := b.Lock()
	ga.Slice()[0] = 11
	gb.Slice()[0] = 22
	assert.Equal(t, uint32(11), ga.Slice()[0])
	assert.Equal(t, uint32(22), gb.Slice()[0])
	gb.Unlock()
	ga.Unlock()

	st := p.Stats()
	assert.Equal(t, 0, st.LiveGuards)

	a.Release()
	b.Release()
}

func Test_Clean_AllowedUnderGuard(t *testing.T) {
	p := newPool(t, 64, 8, 0)

	a, err := pool.AllocSlice[uint32](p, 16)
	require.NoError(t, err)
	b, err := pool.AllocSlice[uint32](p, 16)
	require.NoError(t, err)
	b.Release()

	// Clean moves no bytes, so holding a guard through it is legal and
	// the view stays intact.
	g := a.Lock()
	g.Slice()[0] = 99
	require.NotPanics(t, func() { p.Clean() })
	assert.Equal(t, uint32(99), g.Slice()[0])
	g.Unlock()
	a.Release()
	require.NoError(t, p.Verify())
}
