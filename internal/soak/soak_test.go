package soak_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poolkit/poolkit/internal/soak"
)

func Test_Run_Deterministic(t *testing.T) {
	r, err := soak.New(soak.Config{Loops: 40, Seed: 42, Cache: -1})
	require.NoError(t, err)
	defer r.Close()

	res, err := r.Run()
	if err != nil {
		t.Log("\n" + r.Pool().Display())
	}
	require.NoError(t, err)

	assert.Equal(t, 40, res.Stats.Loops)
	assert.Positive(t, res.Stats.Allocs)
	assert.Positive(t, res.Stats.FastAllocs)
	assert.Positive(t, res.Stats.Releases)
	assert.Positive(t, res.Stats.Skips)

	// The draw sizes are tuned to overrun a 32767-block arena many
	// times over per loop, so exhaustion must show up.
	assert.Positive(t, res.Stats.OutOfMems)

	require.NoError(t, r.Pool().Verify())
}

func Test_Run_SameSeedSameStats(t *testing.T) {
	cfg := soak.Config{Blocks: 4096, Indexes: 128, Cache: -1, Loops: 15, Seed: 7}

	run := func() soak.Result {
		r, err := soak.New(cfg)
		require.NoError(t, err)
		defer r.Close()
		res, err := r.Run()
		require.NoError(t, err)
		return res
	}

	first := run()
	second := run()
	assert.Equal(t, first.Stats, second.Stats)
	assert.Equal(t, first.Pool, second.Pool)
}

func Test_Run_DifferentSeedsDiverge(t *testing.T) {
	run := func(seed int64) soak.Stats {
		r, err := soak.New(soak.Config{Blocks: 4096, Indexes: 128, Cache: -1, Loops: 15, Seed: seed})
		require.NoError(t, err)
		defer r.Close()
		res, err := r.Run()
		require.NoError(t, err)
		return res.Stats
	}

	assert.NotEqual(t, run(1), run(2))
}

func Test_Run_MmapBacked(t *testing.T) {
	r, err := soak.New(soak.Config{Blocks: 2048, Indexes: 64, Cache: -1, Loops: 10, Seed: 3, Mmap: true})
	require.NoError(t, err)
	defer r.Close()

	res, err := r.Run()
	require.NoError(t, err)
	assert.Equal(t, 10, res.Stats.Loops)
}

func Test_Run_ZeroCache(t *testing.T) {
	// With no cache prefix every sized fast attempt misses, so the run
	// leans entirely on the defrag-then-retry recovery.
	r, err := soak.New(soak.Config{Blocks: 2048, Indexes: 64, Cache: 0, Loops: 10, Seed: 9})
	require.NoError(t, err)
	defer r.Close()

	res, err := r.Run()
	require.NoError(t, err)
	assert.Positive(t, res.Stats.Defrags)
	assert.Positive(t, res.Stats.Allocs)
}

func Test_Run_FastOnly(t *testing.T) {
	r, err := soak.New(soak.Config{Blocks: 2048, Indexes: 64, Cache: 64, Loops: 10, Seed: 5, FastOnly: true})
	require.NoError(t, err)
	defer r.Close()

	res, err := r.Run()
	require.NoError(t, err)
	assert.Positive(t, res.Stats.FastAllocs)
}

func Test_Report(t *testing.T) {
	cfg := soak.Config{Blocks: 4096, Indexes: 128, Cache: -1, Loops: 5, Seed: 11}
	r, err := soak.New(cfg)
	require.NoError(t, err)
	defer r.Close()

	res, err := r.Run()
	require.NoError(t, err)

	var buf bytes.Buffer
	soak.Report(&buf, cfg, res)
	out := buf.String()
	assert.Contains(t, out, "soak: 5 loops")
	assert.Contains(t, out, "32 KiB")
	assert.Contains(t, out, "allocs")
	assert.Contains(t, out, "pool time")
}

func Test_Run_Stress(t *testing.T) {
	if testing.Short() {
		t.Skip("stress run takes seconds")
	}
	r, err := soak.New(soak.Config{Loops: 300, Cache: -1})
	require.NoError(t, err)
	defer r.Close()

	res, err := r.Run()
	if err != nil {
		t.Log("\n" + r.Pool().Display())
	}
	require.NoError(t, err)
	require.Equal(t, 300, res.Stats.Loops)
	require.NoError(t, r.Pool().Verify())
}

func benchSoak(b *testing.B, cfg soak.Config) {
	cfg.Loops = b.N
	r, err := soak.New(cfg)
	if err != nil {
		b.Fatal(err)
	}
	defer r.Close()

	b.ResetTimer()
	if _, err := r.Run(); err != nil {
		b.Fatal(err)
	}
}

func Benchmark_Soak_NoCache(b *testing.B) {
	benchSoak(b, soak.Config{Cache: 1})
}

func Benchmark_Soak_SmallCache(b *testing.B) {
	benchSoak(b, soak.Config{Cache: soak.DefaultIndexes / 20})
}

func Benchmark_Soak_FullCache(b *testing.B) {
	benchSoak(b, soak.Config{Cache: soak.DefaultIndexes})
}

func Benchmark_Soak_Fast(b *testing.B) {
	benchSoak(b, soak.Config{Cache: soak.DefaultIndexes, FastOnly: true})
}
