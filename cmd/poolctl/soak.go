package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/poolkit/poolkit/internal/soak"
)

var (
	soakBlocks  int
	soakIndexes int
	soakCache   int
	soakLoops   int
	soakSeed    int64
	soakMmap    bool
	soakFast    bool
)

func init() {
	cmd := newSoakCmd()
	cmd.Flags().IntVar(&soakBlocks, "blocks", soak.DefaultBlocks, "Arena capacity in blocks")
	cmd.Flags().IntVar(&soakIndexes, "indexes", soak.DefaultIndexes, "Index table capacity")
	cmd.Flags().IntVar(&soakCache, "cache", -1, "Fast-path cache slots (-1 for indexes/10)")
	cmd.Flags().IntVar(&soakLoops, "loops", soak.DefaultLoops, "Passes over the index table")
	cmd.Flags().Int64Var(&soakSeed, "seed", soak.DefaultSeed, "Random seed")
	cmd.Flags().BoolVar(&soakMmap, "mmap", false, "Back the arena with anonymous mmap")
	cmd.Flags().BoolVar(&soakFast, "fast", false, "Attempt every allocation on the fast path first")
	rootCmd.AddCommand(cmd)
}

func newSoakCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "soak",
		Short: "Run a randomized allocate/verify/release workload",
		Long: `The soak command hammers one pool with a seeded random sequence of
allocations, mutations, releases, cleans, and defrags, verifying every
live allocation against a mirror copy on each visit. It exits non-zero
the moment the pool's contents or structure diverge.

Example:
  poolctl soak
  poolctl soak --blocks 4096 --indexes 128 --loops 200 --mmap
  poolctl soak --cache 512 --fast --seed 99`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSoak()
		},
	}
	return cmd
}

func runSoak() error {
	cache := soakCache
	if cache < 0 {
		cache = soakIndexes / 10
	}
	seed := soakSeed
	if seed == 0 {
		seed = soak.DefaultSeed
	}
	cfg := soak.Config{
		Blocks:   soakBlocks,
		Indexes:  soakIndexes,
		Cache:    cache,
		Loops:    soakLoops,
		Seed:     seed,
		Mmap:     soakMmap,
		FastOnly: soakFast,
	}
	if verbose {
		cfg.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	printVerbose("Building pool: %d blocks, %d indexes, cache %d\n", cfg.Blocks, cfg.Indexes, cfg.Cache)
	r, err := soak.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to build pool: %w", err)
	}
	defer r.Close()

	res, runErr := r.Run()
	if runErr != nil {
		printError("soak diverged: %v\n", runErr)
		fmt.Fprintln(os.Stderr, r.Pool().Display())
		return runErr
	}

	if jsonOut {
		out := map[string]interface{}{
			"blocks":       r.Pool().Blocks(),
			"indexes":      r.Pool().Indexes(),
			"cache":        r.Pool().CacheSlots(),
			"seed":         cfg.Seed,
			"loops":        res.Stats.Loops,
			"allocs":       res.Stats.Allocs,
			"fast_allocs":  res.Stats.FastAllocs,
			"releases":     res.Stats.Releases,
			"mutates":      res.Stats.Mutates,
			"skips":        res.Stats.Skips,
			"cleans":       res.Stats.Cleans,
			"defrags":      res.Stats.Defrags,
			"out_of_mems":  res.Stats.OutOfMems,
			"index_fulls":  res.Stats.IndexFulls,
			"splits":       res.Pool.Splits,
			"merges":       res.Pool.Merges,
			"moved_blocks": res.Pool.MovedBlocks,
			"pool_ms":      res.PoolTime.Milliseconds(),
			"total_ms":     res.TotalTime.Milliseconds(),
		}
		return printJSON(out)
	}

	if !quiet {
		soak.Report(os.Stdout, cfg, res)
	}
	return nil
}
