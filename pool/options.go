package pool

import "log/slog"

// Option adjusts pool construction.
type Option func(*config)

type config struct {
	useMmap bool
	log     *slog.Logger
}

func defaultConfig() config {
	return config{log: slog.New(slog.DiscardHandler)}
}

// WithMmapArena backs the arena with an anonymous private memory mapping
// instead of a heap slice. Platforms without mmap fall back to the heap.
func WithMmapArena() Option {
	return func(c *config) { c.useMmap = true }
}

// WithLogger installs a structured logger for construction and
// reclamation summaries. The default logger discards everything; the
// allocation path itself never logs.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.log = l
		}
	}
}
