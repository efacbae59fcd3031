package soak

import (
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/poolkit/poolkit/pool"
)

// Report writes a human-readable summary of a finished run. Numbers are
// grouped for readability since loop counts get large.
func Report(w io.Writer, cfg Config, res Result) {
	cfg = cfg.withDefaults()
	pr := message.NewPrinter(language.English)

	pr.Fprintf(w, "soak: %d loops over a %s arena (%d blocks x %d B), %d index slots, cache %d, seed %d\n",
		res.Stats.Loops, humanize.IBytes(uint64(cfg.Blocks*pool.BlockSize)),
		cfg.Blocks, pool.BlockSize, cfg.Indexes, cfg.Cache, cfg.Seed)

	pr.Fprintf(w, "  allocs       %12d exhaustive, %d fast\n", res.Stats.Allocs, res.Stats.FastAllocs)
	pr.Fprintf(w, "  releases     %12d\n", res.Stats.Releases)
	pr.Fprintf(w, "  mutates      %12d\n", res.Stats.Mutates)
	pr.Fprintf(w, "  skips        %12d\n", res.Stats.Skips)
	pr.Fprintf(w, "  cleans       %12d (%d runs merged)\n", res.Stats.Cleans, res.Pool.Merges)
	pr.Fprintf(w, "  defrags      %12d (%d blocks moved)\n", res.Stats.Defrags, res.Pool.MovedBlocks)
	pr.Fprintf(w, "  out of mem   %12d\n", res.Stats.OutOfMems)
	pr.Fprintf(w, "  index full   %12d\n", res.Stats.IndexFulls)
	pr.Fprintf(w, "  splits       %12d\n", res.Pool.Splits)

	pct := 0.0
	if res.TotalTime > 0 {
		pct = 100 * float64(res.PoolTime) / float64(res.TotalTime)
	}
	pr.Fprintf(w, "  pool time    %v of %v total (%.1f%%)\n",
		res.PoolTime.Round(time.Microsecond), res.TotalTime.Round(time.Microsecond), pct)
}
