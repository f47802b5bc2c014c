// Package syncpool wraps objpool.Pool with external synchronization.
//
// objpool.Pool is deliberately single-threaded and non-suspending: the
// core makes no thread-safety claims of its own. SynchronizedPool is the
// caller's "external synchronization" that the core's contract calls for,
// offered as an opt-in convenience, grounded on the bucket type this
// allocator's teacher used to guard its own compacting buffer with a
// single sync.RWMutex.
package syncpool

import (
	"sync"
	"unsafe"

	"github.com/holmberd/objpool"
)

// SynchronizedPool guards an *objpool.Pool with a single RWMutex:
// mutating operations take the write lock, pure reads take the read lock.
type SynchronizedPool struct {
	mu   sync.RWMutex
	pool *objpool.Pool
}

// New constructs a SynchronizedPool around a freshly-created objpool.Pool.
func New(cfg objpool.Config) (*SynchronizedPool, error) {
	p, err := objpool.New(cfg)
	if err != nil {
		return nil, err
	}
	return &SynchronizedPool{pool: p}, nil
}

// Allocate is objpool.Pool.Allocate under the write lock.
func (s *SynchronizedPool) Allocate(label string) (unsafe.Pointer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pool.Allocate(label)
}

// Free is objpool.Pool.Free under the write lock.
func (s *SynchronizedPool) Free(ptr unsafe.Pointer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pool.Free(ptr)
}

// DumpMemoryInUse is objpool.Pool.DumpMemoryInUse under the write lock —
// cb must not call back into the pool, exactly as the core requires.
func (s *SynchronizedPool) DumpMemoryInUse(cb func(unsafe.Pointer, int)) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pool.DumpMemoryInUse(cb)
}

// ValidatePages is objpool.Pool.ValidatePages under the write lock.
func (s *SynchronizedPool) ValidatePages(cb func(unsafe.Pointer, int)) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pool.ValidatePages(cb)
}

// FreeEmptyPages is objpool.Pool.FreeEmptyPages under the write lock.
func (s *SynchronizedPool) FreeEmptyPages() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pool.FreeEmptyPages()
}

// SetDebugState is objpool.Pool.SetDebugState under the write lock.
func (s *SynchronizedPool) SetDebugState(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pool.SetDebugState(on)
}

// Stats is objpool.Pool.Stats under the read lock.
func (s *SynchronizedPool) Stats() objpool.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pool.Stats()
}

// Destroy is objpool.Pool.Destroy under the write lock.
func (s *SynchronizedPool) Destroy() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pool.Destroy()
}
