package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/poolkit/poolkit/pool"
)

var (
	layoutBlocks  int
	layoutIndexes int
	layoutCache   int
)

func init() {
	cmd := newLayoutCmd()
	cmd.Flags().IntVar(&layoutBlocks, "blocks", 64, "Arena capacity in blocks (multiple of 8)")
	cmd.Flags().IntVar(&layoutIndexes, "indexes", 8, "Index table capacity")
	cmd.Flags().IntVar(&layoutCache, "cache", 2, "Fast-path cache slots")
	rootCmd.AddCommand(cmd)
}

func newLayoutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "layout",
		Short: "Walk through fragmentation, clean, and defrag on a small pool",
		Long: `The layout command scripts the allocator's whole reclamation story on
one small arena: fill it, punch holes into it, watch a fitting request
fail on fragmentation, merge adjacent holes with clean, compact with
defrag, and retry. An arena dump is printed after each phase.

Example:
  poolctl layout
  poolctl layout --blocks 256 --indexes 16`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLayout()
		},
	}
	return cmd
}

func runLayout() error {
	if layoutBlocks < 32 || layoutBlocks > 32768 || layoutBlocks%8 != 0 {
		return fmt.Errorf("blocks must be a multiple of 8 in [32, 32768], got %d", layoutBlocks)
	}
	if layoutIndexes < 8 {
		return fmt.Errorf("the walkthrough needs at least 8 index slots, got %d", layoutIndexes)
	}

	p, err := pool.New(layoutBlocks*pool.BlockSize, layoutIndexes, layoutCache)
	if err != nil {
		return fmt.Errorf("failed to build pool: %w", err)
	}
	defer p.Close()

	span := layoutBlocks / 8
	elems := func(blocks int) int { return blocks * pool.BlockSize / 4 }

	// Fill: six small runs and one double-sized run cover every block.
	printInfo("=== Fill: six %d-block runs and one %d-block run ===\n", span, 2*span)
	var runs []*pool.Slice[uint32]
	for range 6 {
		s, err := pool.AllocSlice[uint32](p, elems(span))
		if err != nil {
			return fmt.Errorf("fill allocation failed: %w", err)
		}
		runs = append(runs, s)
	}
	big, err := pool.AllocSlice[uint32](p, elems(2*span))
	if err != nil {
		return fmt.Errorf("fill allocation failed: %w", err)
	}
	printInfo("%s\n", p.Display())

	// Punch holes: two adjacent runs and one separated run.
	printInfo("=== Punch holes: release runs 1, 2, and 4 ===\n")
	runs[1].Release()
	runs[2].Release()
	runs[4].Release()
	printInfo("%s\n", p.Display())

	want := elems(3 * span)
	printInfo("=== Request %d blocks: free space suffices, no single run does ===\n", 3*span)
	if _, err := pool.AllocSlice[uint32](p, want); errors.Is(err, pool.ErrFragmented) {
		printInfo("  allocation failed as expected: %v\n\n", err)
	} else {
		return fmt.Errorf("expected a fragmented arena, got err=%v", err)
	}

	// Clean merges the two adjacent holes but cannot bridge the gap to
	// the third.
	printInfo("=== Clean: merge adjacent free runs, move nothing ===\n")
	p.Clean()
	printInfo("%s\n", p.Display())
	if _, err := pool.AllocSlice[uint32](p, want); errors.Is(err, pool.ErrFragmented) {
		printInfo("  still fragmented, as expected: %v\n\n", err)
	} else {
		return fmt.Errorf("expected a still-fragmented arena, got err=%v", err)
	}

	// Defrag compacts the survivors and leaves one maximal free run.
	printInfo("=== Defrag: slide live runs down, coalesce the tail ===\n")
	p.Defrag()
	printInfo("%s\n", p.Display())

	s, err := pool.AllocSlice[uint32](p, want)
	if err != nil {
		return fmt.Errorf("allocation after defrag failed: %w", err)
	}
	printInfo("=== The same request now fits: %d blocks in one run ===\n", s.Blocks())
	printInfo("%s\n", p.Display())

	s.Release()
	runs[0].Release()
	runs[3].Release()
	runs[5].Release()
	big.Release()

	if err := p.Verify(); err != nil {
		return fmt.Errorf("structural verification failed: %w", err)
	}

	st := p.Stats()
	printInfo("=== Final counters ===\n")
	printInfo("  splits       %4d\n", st.Splits)
	printInfo("  merges       %4d\n", st.Merges)
	printInfo("  cleans       %4d\n", st.Cleans)
	printInfo("  defrags      %4d\n", st.Defrags)
	printInfo("  moved blocks %4d\n", st.MovedBlocks)
	printInfo("  free blocks  %4d of %d\n", st.FreeBlocks, p.Blocks())
	printVerbose("pool verified clean\n")
	return nil
}
