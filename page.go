package objpool

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// PageAllocator supplies the raw, zero-filled memory a Pool formats into
// pages, and reclaims it. Two implementations are provided: an mmap-backed
// allocator that keeps page memory off the Go heap (so the garbage
// collector never scans live client payloads), grounded on the teacher's
// chunk pool's use of unix.Mmap/unix.Munmap, and a heap-backed
// fallback for platforms or tests where mmap is undesirable.
type PageAllocator interface {
	// AllocPage returns a zero-filled buffer of exactly size bytes.
	AllocPage(size int) ([]byte, error)
	// FreePage releases a buffer previously returned by AllocPage.
	FreePage(b []byte) error
}

type mmapPageAllocator struct{}

// NewMmapPageAllocator returns a PageAllocator backed by anonymous,
// private mmap regions.
func NewMmapPageAllocator() PageAllocator {
	return mmapPageAllocator{}
}

func (mmapPageAllocator) AllocPage(size int) ([]byte, error) {
	b, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("objpool: mmap %d bytes: %w", size, err)
	}
	return b, nil
}

func (mmapPageAllocator) FreePage(b []byte) error {
	if len(b) == 0 {
		return nil
	}
	if err := unix.Munmap(b); err != nil {
		return fmt.Errorf("objpool: munmap: %w", err)
	}
	return nil
}

type heapPageAllocator struct{}

// NewHeapPageAllocator returns a PageAllocator backed by ordinary,
// garbage-collected Go heap memory. Pages allocated this way are released
// simply by dropping every reference to them; FreePage is a no-op.
func NewHeapPageAllocator() PageAllocator {
	return heapPageAllocator{}
}

func (heapPageAllocator) AllocPage(size int) ([]byte, error) {
	return make([]byte, size), nil
}

func (heapPageAllocator) FreePage([]byte) error {
	return nil
}

// page is one slab: a contiguous buffer hosting ObjectsPerPage blocks,
// formatted per §3's page layout. next links pages into the pool's page
// list; it is the authoritative traversal link. The next-page pointer
// bytes at the base of data are also written, for byte-layout fidelity,
// but are never read back as a live pointer — data may be an mmap'd region
// the garbage collector does not scan, so only next (a normal, GC-visible
// Go pointer field) is safe to dereference.
type page struct {
	data []byte
	next *page

	// externalRecords holds the GC-visible owning pointer for each block's
	// External-header auxiliary record, indexed by block index. Only
	// populated when the pool's HeaderKind is HeaderExternal; see the
	// externalRecord doc comment in header.go for why this side table
	// exists instead of reinterpreting header bytes as a Go pointer.
	externalRecords []*externalRecord

	// headerChecksum caches pageChecksum's result as of the last header
	// mutation made by createPage, Allocate or a debug-mode Free,
	// maintained only when Config.ChecksumPages is set. A release-mode Free
	// does not refresh it. A mismatch against a freshly computed checksum in
	// ValidatePages means a header byte changed without the cache being
	// refreshed — corruption the pad-byte check alone can miss, or a
	// release-mode Free.
	headerChecksum uint64
}

// blockHeader returns block i's header region within the page.
func (p *page) blockHeader(l layout, i int) []byte {
	off := l.blockHeaderOffset(i)
	return p.data[off : off+l.headerSize]
}

// blockLeftPad returns block i's left pad region.
func (p *page) blockLeftPad(l layout, padBytes, i int) []byte {
	off := l.blockHeaderOffset(i) + l.headerSize
	return p.data[off : off+padBytes]
}

// blockPayload returns block i's payload region.
func (p *page) blockPayload(l layout, padBytes, objectSize, i int) []byte {
	off := l.blockHeaderOffset(i) + l.headerSize + padBytes
	return p.data[off : off+objectSize]
}

// blockRightPad returns block i's right pad region.
func (p *page) blockRightPad(l layout, padBytes, objectSize, i int) []byte {
	off := l.blockHeaderOffset(i) + l.headerSize + padBytes + objectSize
	return p.data[off : off+padBytes]
}

// contains reports whether addr lies within this page's backing memory.
func (p *page) contains(addr uintptr) bool {
	base := addrOf(p.data)
	return addr >= base && addr < base+uintptr(len(p.data))
}

// pageStore owns the singly-linked list of slab pages: allocation,
// formatting and teardown, plus empty-page reclamation.
type pageStore struct {
	alloc PageAllocator
	head  *page
	count int
}

func newPageStore(alloc PageAllocator) *pageStore {
	return &pageStore{alloc: alloc}
}

// createPage allocates, formats and links a new page, threading all of
// its blocks onto freeList. It returns an *AllocError on failure; the
// store's state is unchanged on error.
func (ps *pageStore) createPage(
	cfg Config,
	l layout,
	codec headerCodec,
	freeList *freeList,
) (*page, error) {
	if cfg.MaxPages > 0 && ps.count >= cfg.MaxPages {
		return nil, newAllocError(ErrKindNoPages, ErrNoPages, "")
	}

	data, err := ps.alloc.AllocPage(l.pageSize)
	if err != nil {
		return nil, newAllocError(ErrKindNoMemory, ErrNoMemory, "%v", err)
	}

	pg := &page{data: data}
	if cfg.HeaderKind == HeaderExternal {
		pg.externalRecords = make([]*externalRecord, cfg.ObjectsPerPage)
	}

	if cfg.DebugOn {
		paintFreshPage(pg.data, l, cfg.PadBytes, cfg.ObjectSize, cfg.ObjectsPerPage)
	}

	for i := 0; i < cfg.ObjectsPerPage; i++ {
		if cfg.HeaderKind != HeaderExternal {
			codec.init(pg.blockHeader(l, i))
		}
	}

	if cfg.ChecksumPages && cfg.HeaderKind != HeaderExternal {
		pg.headerChecksum = pageChecksum(pg, l, cfg.ObjectsPerPage)
	}

	// Thread every block onto the free list LIFO, lowest address first, so
	// the highest-address block becomes the head (ascending-on-pop order
	// within a freshly-formatted page).
	for i := 0; i < cfg.ObjectsPerPage; i++ {
		payload := pg.blockPayload(l, cfg.PadBytes, cfg.ObjectSize, i)
		freeList.push(payload)
	}

	pg.next = ps.head
	ps.head = pg
	ps.count++

	// Write the next-page pointer bytes for byte-layout fidelity only.
	writeNextPagePointer(pg)

	return pg, nil
}

// writeNextPagePointer paints the contract-mandated next-page pointer at
// the page base. It is derived from, never a substitute for, pg.next.
func writeNextPagePointer(pg *page) {
	var addr uintptr
	if pg.next != nil && len(pg.next.data) > 0 {
		addr = addrOf(pg.next.data)
	}
	putUintptr(pg.data[:pointerSize], addr)
}

// freePage releases the raw page memory. For External headers it also
// deletes every still-live block's auxiliary record and label — covering
// blocks the client never freed.
func (ps *pageStore) freePage(pg *page) error {
	for _, rec := range pg.externalRecords {
		if rec != nil {
			rec.Label = nil
		}
	}
	return ps.alloc.FreePage(pg.data)
}

// destroy releases every owned page.
func (ps *pageStore) destroy() error {
	var firstErr error
	for pg := ps.head; pg != nil; {
		next := pg.next
		if err := ps.freePage(pg); err != nil && firstErr == nil {
			firstErr = err
		}
		pg = next
	}
	ps.head = nil
	ps.count = 0
	return firstErr
}

// findPage returns the page containing addr, or nil.
func (ps *pageStore) findPage(addr uintptr) *page {
	for pg := ps.head; pg != nil; pg = pg.next {
		if pg.contains(addr) {
			return pg
		}
	}
	return nil
}

// freeEmptyPages releases every page all of whose blocks are currently on
// the free list, culling those blocks from freeList first. Returns the
// number of pages released. Complexity is O(P·N + F): one O(F) snapshot
// of the free list, then O(1) membership tests per block.
func (ps *pageStore) freeEmptyPages(l layout, padBytes, objectsPerPage int, fl *freeList) (int, error) {
	free := fl.snapshot()

	var prev *page
	pg := ps.head
	released := 0

	for pg != nil {
		next := pg.next
		if pageIsEmpty(pg, l, padBytes, objectsPerPage, free) {
			fl.cull(addrOf(pg.data), uintptr(len(pg.data)))

			if prev == nil {
				ps.head = next
			} else {
				prev.next = next
			}
			if err := ps.freePage(pg); err != nil {
				return released, err
			}
			ps.count--
			released++
		} else {
			prev = pg
		}
		pg = next
	}

	// Re-link the surviving chain's next-page bytes, since culling may
	// have removed a page that another page's on-page pointer referenced.
	for pg := ps.head; pg != nil; pg = pg.next {
		writeNextPagePointer(pg)
	}

	return released, nil
}

// pageIsEmpty reports whether every block on pg has its payload address in free.
func pageIsEmpty(pg *page, l layout, padBytes, objectsPerPage int, free map[uintptr]struct{}) bool {
	base := addrOf(pg.data)
	for i := 0; i < objectsPerPage; i++ {
		off := l.blockHeaderOffset(i) + l.headerSize + padBytes
		addr := base + uintptr(off)
		if _, ok := free[addr]; !ok {
			return false
		}
	}
	return true
}
