// Package objpool implements a fixed-size object pool allocator: given an
// object size and a configuration, it hands out uniformly sized memory
// blocks from slab-like pages, reclaims them to an internal free list,
// and, in debug mode, detects memory-safety violations committed by its
// clients (double free, out-of-bounds boundary, pad corruption).
//
// The pool is single-threaded and non-suspending; see the syncpool
// subpackage for an optional synchronized wrapper.
package objpool

import (
	"log/slog"
	"unsafe"
)

// Pool is the public allocator facade binding LayoutCalculator, PageStore,
// FreeList, HeaderCodec, DebugPainter and BoundaryChecker together, and
// maintaining statistics.
type Pool struct {
	cfg    Config
	layout layout
	codec  headerCodec // nil when cfg.HeaderKind == HeaderExternal.

	pages *pageStore
	free  freeList
	stats stats

	debugOn bool
	logger  *slog.Logger
}

// New validates cfg and constructs a Pool. No pages are allocated until
// the first Allocate call.
func New(cfg Config) (*Pool, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	p := &Pool{
		cfg:     cfg,
		pages:   newPageStore(cfg.PageAllocator),
		debugOn: cfg.DebugOn,
		logger:  cfg.Logger,
	}

	if !cfg.UsePassthrough {
		hdrSize := headerSize(cfg.HeaderKind, cfg.Additional)
		p.layout = computeLayout(cfg.ObjectSize, hdrSize, cfg.PadBytes, cfg.Alignment, cfg.ObjectsPerPage)
		if cfg.HeaderKind != HeaderExternal {
			p.codec = newHeaderCodec(cfg.HeaderKind, cfg.Additional)
		}
	}

	p.stats.objectSize = cfg.ObjectSize
	p.stats.pageSize = p.layout.pageSize

	return p, nil
}

// Allocate hands out one object, growing the pool with a new page if the
// free list is empty. label is an opaque hint; only the External header
// variant retains it (as a copy it owns until the block is freed).
func (p *Pool) Allocate(label string) (unsafe.Pointer, error) {
	if p.cfg.UsePassthrough {
		return p.allocatePassthrough()
	}

	if p.free.head == 0 {
		if _, err := p.pages.createPage(p.cfg, p.layout, p.codec, &p.free); err != nil {
			return nil, err
		}
		p.stats.onPageCreated(p.cfg.ObjectsPerPage)
	}

	addr, ok := p.free.pop()
	if !ok {
		panic("objpool: internal error: free list empty after createPage succeeded")
	}

	p.stats.onAllocate()

	pg := p.pages.findPage(addr)
	idx := blockIndexForAddr(pg, p.layout, p.cfg.PadBytes, addr)

	if p.cfg.HeaderKind == HeaderExternal {
		onAllocateExternal(pg, idx, p.layout, p.stats.allocations, label)
	} else {
		p.codec.onAllocate(pg.blockHeader(p.layout, idx), p.stats.allocations)
		p.refreshPageChecksum(pg)
	}

	if p.debugOn {
		payload := pg.blockPayload(p.layout, p.cfg.PadBytes, p.cfg.ObjectSize, idx)
		onAllocatePaint(
			pg.blockLeftPad(p.layout, p.cfg.PadBytes, idx),
			payload,
			pg.blockRightPad(p.layout, p.cfg.PadBytes, p.cfg.ObjectSize, idx),
		)
	}

	return unsafePointerFromAddr(addr), nil
}

func (p *Pool) allocatePassthrough() (unsafe.Pointer, error) {
	data, err := p.cfg.PageAllocator.AllocPage(p.cfg.ObjectSize)
	if err != nil {
		return nil, newAllocError(ErrKindNoMemory, ErrNoMemory, "%v", err)
	}
	p.stats.onAllocatePassthrough()
	return unsafe.Pointer(&data[0]), nil
}

// Free returns a previously-allocated object to the pool. Freeing nil is
// a silent no-op.
func (p *Pool) Free(ptr unsafe.Pointer) error {
	if ptr == nil {
		return nil
	}

	if p.cfg.UsePassthrough {
		return p.freePassthrough(ptr)
	}

	addr := uintptr(ptr)

	if !p.debugOn {
		return p.freeRelease(addr)
	}

	pg, err := validateBoundary(p.pages, p.layout, p.cfg.PadBytes, addr)
	if err != nil {
		p.logger.Error("objpool: bad boundary on free", "addr", addr, "error", err)
		return err
	}
	idx := blockIndexForAddr(pg, p.layout, p.cfg.PadBytes, addr)

	if p.isInFreeList(pg, idx, addr) {
		err := newAllocError(ErrKindMultipleFree, ErrMultipleFree, "")
		p.logger.Error("objpool: double free detected", "addr", addr)
		return err
	}

	leftPad := pg.blockLeftPad(p.layout, p.cfg.PadBytes, idx)
	rightPad := pg.blockRightPad(p.layout, p.cfg.PadBytes, p.cfg.ObjectSize, idx)
	if p.cfg.PadBytes > 0 && !padsIntact(leftPad, rightPad) {
		err := newAllocError(ErrKindCorruptedBlock, ErrCorruptedBlock, "")
		p.logger.Error("objpool: pad corruption detected on free", "addr", addr)
		return err
	}

	p.stats.onFree()

	if p.cfg.HeaderKind == HeaderExternal {
		onFreeExternal(pg, p.layout, idx)
	} else {
		p.codec.onFree(pg.blockHeader(p.layout, idx))
		p.refreshPageChecksum(pg)
	}

	onFreePaint(pg.blockPayload(p.layout, p.cfg.PadBytes, p.cfg.ObjectSize, idx))

	p.free.push(pg.blockPayload(p.layout, p.cfg.PadBytes, p.cfg.ObjectSize, idx))
	return nil
}

// freeRelease frees addr the way a release build does: it trusts the
// caller's argument outright, runs no boundary, double-free or pad check,
// and — per spec's timing model — never walks the page list. The header
// and payload windows are computed directly from addr via pointer
// arithmetic, exactly mirroring the original's release-mode Free
// ("block - PadBytes_ - HBlockInfo_.size_"). E_BAD_BOUNDARY is reserved
// for the debug path; an invalid addr here is undefined behavior, not a
// reported error. The page's cached checksum is left untouched here —
// ValidatePages, the only reader, never runs outside debug mode either.
func (p *Pool) freeRelease(addr uintptr) error {
	p.stats.onFree()

	if p.cfg.HeaderKind == HeaderExternal {
		// External's in-use witness and allocation bookkeeping live in a
		// page-scoped, GC-visible side table (see header.go), so locating
		// the owning page can't be avoided even here.
		pg := p.pages.findPage(addr)
		if pg == nil {
			panic("objpool: release-mode Free called with an address outside any owned page")
		}
		idx := blockIndexForAddr(pg, p.layout, p.cfg.PadBytes, addr)
		onFreeExternal(pg, p.layout, idx)
		p.free.push(pg.blockPayload(p.layout, p.cfg.PadBytes, p.cfg.ObjectSize, idx))
		return nil
	}

	p.codec.onFree(headerAt(addr, p.layout.headerSize, p.cfg.PadBytes))
	p.free.push(payloadAt(addr, p.cfg.ObjectSize))
	return nil
}

func (p *Pool) freePassthrough(ptr unsafe.Pointer) error {
	data := bytesFromPointer(ptr, p.cfg.ObjectSize)
	if err := p.cfg.PageAllocator.FreePage(data); err != nil {
		return newAllocError(ErrKindNoMemory, ErrNoMemory, "%v", err)
	}
	p.stats.onFreePassthrough()
	return nil
}

// headerAt and payloadAt locate a block's header and payload windows from
// its payload address alone, with no page lookup: every block's layout is
// identical regardless of which page hosts it, so the header always sits
// exactly padBytes+headerSize bytes before addr.
func headerAt(addr uintptr, headerSize, padBytes int) []byte {
	off := addr - uintptr(padBytes) - uintptr(headerSize)
	return bytesFromPointer(unsafePointerFromAddr(off), headerSize)
}

func payloadAt(addr uintptr, objectSize int) []byte {
	return bytesFromPointer(unsafePointerFromAddr(addr), objectSize)
}

// isInFreeList reports the "on free list" predicate for the block at idx
// on pg: an O(1) flag read for Basic/Extended/External, an O(n) walk for None.
func (p *Pool) isInFreeList(pg *page, idx int, addr uintptr) bool {
	if p.cfg.HeaderKind == HeaderExternal {
		rec := pg.externalRecords[idx]
		return rec == nil || !rec.InUse
	}
	if p.codec.hasInUseFlag() {
		return !p.codec.isInUse(pg.blockHeader(p.layout, idx))
	}
	return p.free.contains(addr)
}

// DumpMemoryInUse walks every block in every page and invokes cb for each
// one not on the free list, returning the count. cb must not call back
// into the pool.
func (p *Pool) DumpMemoryInUse(cb func(payload unsafe.Pointer, size int)) int {
	if p.cfg.UsePassthrough {
		return 0
	}
	freeAddrs := p.free.snapshot()
	count := 0
	for pg := p.pages.head; pg != nil; pg = pg.next {
		for i := 0; i < p.cfg.ObjectsPerPage; i++ {
			payload := pg.blockPayload(p.layout, p.cfg.PadBytes, p.cfg.ObjectSize, i)
			if _, isFree := freeAddrs[addrOf(payload)]; isFree {
				continue
			}
			cb(unsafePointerFromAddr(addrOf(payload)), p.cfg.ObjectSize)
			count++
		}
	}
	return count
}

// refreshPageChecksum recomputes pg's cached header checksum when
// Config.ChecksumPages is set. It is called from Allocate and debug-mode
// Free; release-mode Free does not call it.
func (p *Pool) refreshPageChecksum(pg *page) {
	if !p.cfg.ChecksumPages {
		return
	}
	pg.headerChecksum = pageChecksum(pg, p.layout, p.cfg.ObjectsPerPage)
}

// checkPageChecksum logs, but never blocks on, a header checksum mismatch
// for pg — evidence of header corruption that pad-byte inspection alone
// cannot see, since it never touches header bytes.
func (p *Pool) checkPageChecksum(pg *page) {
	if !p.cfg.ChecksumPages || p.cfg.HeaderKind == HeaderExternal {
		return
	}
	if got := pageChecksum(pg, p.layout, p.cfg.ObjectsPerPage); got != pg.headerChecksum {
		p.logger.Error("objpool: page header checksum mismatch", "want", pg.headerChecksum, "got", got)
	}
}

// ValidatePages walks every block (free or allocated) in every page and
// invokes cb for each whose pad bytes fail the all-pad-pattern check,
// returning the count. It is a no-op returning 0 when debug is off or
// PadBytes is 0. When Config.ChecksumPages is set, it additionally logs
// (but does not count or pass to cb) any page whose header checksum has
// drifted from this pool's own last recorded value.
func (p *Pool) ValidatePages(cb func(payload unsafe.Pointer, size int)) int {
	if !p.debugOn || p.cfg.PadBytes == 0 || p.cfg.UsePassthrough {
		return 0
	}
	count := 0
	for pg := p.pages.head; pg != nil; pg = pg.next {
		p.checkPageChecksum(pg)
		for i := 0; i < p.cfg.ObjectsPerPage; i++ {
			leftPad := pg.blockLeftPad(p.layout, p.cfg.PadBytes, i)
			rightPad := pg.blockRightPad(p.layout, p.cfg.PadBytes, p.cfg.ObjectSize, i)
			if padsIntact(leftPad, rightPad) {
				continue
			}
			payload := pg.blockPayload(p.layout, p.cfg.PadBytes, p.cfg.ObjectSize, i)
			cb(unsafePointerFromAddr(addrOf(payload)), p.cfg.ObjectSize)
			count++
		}
	}
	return count
}

// FreeEmptyPages reclaims every page all of whose blocks are currently
// free, returning the number of pages released. No error conditions: an
// internal release failure (e.g. munmap) is logged, not returned.
func (p *Pool) FreeEmptyPages() int {
	if p.cfg.UsePassthrough {
		return 0
	}
	released, err := p.pages.freeEmptyPages(p.layout, p.cfg.PadBytes, p.cfg.ObjectsPerPage, &p.free)
	if err != nil {
		p.logger.Error("objpool: failed to release an empty page", "error", err)
	}
	p.stats.onPagesReleased(released, p.cfg.ObjectsPerPage)
	return released
}

// SetDebugState toggles debug checks and painting at runtime.
func (p *Pool) SetDebugState(on bool) {
	p.debugOn = on
}

// DebugState reports whether debug checks are currently enabled.
func (p *Pool) DebugState() bool {
	return p.debugOn
}

// Config returns a copy of the pool's configuration.
func (p *Pool) Config() Config {
	return p.cfg
}

// Stats returns a snapshot of the pool's counters.
func (p *Pool) Stats() Stats {
	s := p.stats.snapshot()
	s.PagesInUse = p.pages.count
	return s
}

// Destroy releases every owned page and every outstanding External
// record, regardless of whether the client ever called Free. It is
// idempotent.
func (p *Pool) Destroy() error {
	if p.cfg.UsePassthrough {
		return nil
	}
	err := p.pages.destroy()
	p.free = freeList{}
	return err
}
