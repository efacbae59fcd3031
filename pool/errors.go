package pool

import "errors"

var (
	// ErrConfig indicates invalid construction parameters; no pool is
	// produced.
	ErrConfig = errors.New("pool: invalid configuration")

	// ErrOutOfMemory indicates the aggregate free block count cannot
	// cover the request. Retrying without releasing a handle cannot
	// succeed.
	ErrOutOfMemory = errors.New("pool: out of memory")

	// ErrFragmented indicates enough free blocks exist in aggregate but
	// no contiguous run of the required length was found in the searched
	// scope. From the exhaustive path this calls for Defrag; from the
	// fast path it may only mean the run sits outside the cache prefix.
	ErrFragmented = errors.New("pool: free space too fragmented")

	// ErrIndexFull indicates the index table has no slot left for a new
	// entry, independent of how many blocks are free.
	ErrIndexFull = errors.New("pool: no free index slot")

	// ErrLenRange indicates a requested element count outside
	// [0, MaxSliceLen].
	ErrLenRange = errors.New("pool: slice length out of range")
)
