package objpool

import (
	"fmt"
	"log/slog"
	"sync"
)

// RecyclerConfig configures a recycling PageAllocator.
type RecyclerConfig struct {
	// Inner supplies and reclaims pages this allocator doesn't currently
	// have recycled. Defaults to an mmap-backed allocator.
	Inner PageAllocator
	// FreeThreshold caps how many spare pages the recycler holds onto
	// before releasing half of them back to Inner. 0 means unbounded.
	FreeThreshold int
	// Logger receives one Error record per failed release back to Inner.
	Logger *slog.Logger
}

// recyclingPageAllocator wraps another PageAllocator with a free list of
// raw, page-sized buffers, so a Pool that repeatedly grows and reclaims
// (via FreeEmptyPages) doesn't pay Inner's allocation cost on every page.
// Every page handed to a single Pool is the same size, so — unlike the
// teacher's ChunkPool, which buckets by one of several fixed sizes — this
// recycler only ever needs one free list, discovered from the first
// AllocPage call and held fixed thereafter.
type recyclingPageAllocator struct {
	mu     sync.Mutex
	inner  PageAllocator
	logger *slog.Logger
	size   int
	free   [][]byte

	threshold int
}

// NewRecyclingPageAllocator returns a PageAllocator that recycles
// same-sized pages instead of returning them to cfg.Inner immediately.
func NewRecyclingPageAllocator(cfg RecyclerConfig) PageAllocator {
	if cfg.Inner == nil {
		cfg.Inner = NewMmapPageAllocator()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &recyclingPageAllocator{inner: cfg.Inner, logger: cfg.Logger, threshold: cfg.FreeThreshold}
}

func (a *recyclingPageAllocator) AllocPage(size int) ([]byte, error) {
	a.mu.Lock()

	if a.size != 0 && a.size != size {
		a.mu.Unlock()
		return nil, fmt.Errorf("objpool: recycling allocator is bound to page size %d, got %d", a.size, size)
	}
	a.size = size

	if n := len(a.free); n > 0 {
		data := a.free[n-1]
		a.free = a.free[:n-1]
		a.mu.Unlock()
		clear(data)
		return data, nil
	}
	a.mu.Unlock()

	return a.inner.AllocPage(size)
}

func (a *recyclingPageAllocator) FreePage(b []byte) error {
	if len(b) == 0 {
		return nil
	}

	a.mu.Lock()
	a.free = append(a.free, b)
	free, toRelease := releaseChunks(a.free, a.threshold)
	a.free = free
	a.mu.Unlock()

	// Release outside the lock to avoid blocking concurrent Allocate/Free
	// calls on a potentially slow syscall.
	for _, c := range toRelease {
		if err := a.inner.FreePage(c); err != nil {
			a.logger.Error("objpool: recycling allocator failed to release a page", "error", err)
			return err
		}
	}
	return nil
}

// releaseChunks trims freeList in half whenever it exceeds threshold,
// returning the surviving list and the chunks to release.
func releaseChunks[P any](freeList []P, threshold int) (newList []P, toRelease []P) {
	if threshold > 0 && len(freeList) > threshold {
		n := len(freeList) / 2
		toRelease = freeList[:n]
		newList = freeList[n:]
		return newList, toRelease
	}
	return freeList, nil
}
