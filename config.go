package objpool

import (
	"errors"
	"fmt"
	"log/slog"
)

// DefaultObjectsPerPage is the ObjectsPerPage a caller gets for free when
// they don't specify it. MaxPages has no such default: its zero value
// already means "unbounded" per spec.md §3, so withDefaults leaves it alone.
const DefaultObjectsPerPage = 4

// Config describes a Pool's fixed shape. Every field except DebugOn is
// immutable once a Pool is constructed.
type Config struct {
	// ObjectSize is the number of bytes per client object. Must be >= 1.
	ObjectSize int

	// ObjectsPerPage is the number of blocks hosted by each page. 0 selects
	// DefaultObjectsPerPage; Validate rejects only negative values.
	ObjectsPerPage int

	// MaxPages caps the number of pages the pool may hold; 0 means unbounded.
	MaxPages int

	// DebugOn enables pattern painting and the boundary/double-free/pad
	// invariant checks. Toggleable at runtime via Pool.SetDebugState.
	DebugOn bool

	// PadBytes is the number of guard bytes painted on each side of a
	// block's payload.
	PadBytes int

	// HeaderKind selects the per-block bookkeeping variant.
	HeaderKind HeaderKind

	// Additional is the number of caller-defined extra header bytes used
	// only when HeaderKind is HeaderExtended.
	Additional uint32

	// Alignment is the required byte alignment of every payload address.
	// 0 means "natural" (no alignment padding is inserted).
	Alignment int

	// UsePassthrough bypasses the pool entirely: every Allocate/Free call
	// delegates straight to the raw page allocator, with no pages, free
	// list, headers or debug painting.
	UsePassthrough bool

	// PageAllocator supplies raw, zero-filled page memory. Defaults to an
	// mmap-backed allocator; see NewMmapPageAllocator and NewHeapPageAllocator.
	PageAllocator PageAllocator

	// Logger receives one structured Error record per debug invariant
	// violation (double free, bad boundary, pad corruption), in addition
	// to the sentinel error the call returns. Defaults to slog.Default().
	Logger *slog.Logger

	// ChecksumPages enables an additional, opt-in xxhash checksum of each
	// page's header region, refreshed by page creation, Allocate and
	// debug-mode Free (not by release-mode Free) and checked by
	// ValidatePages, which logs (but never counts or returns) a mismatch.
	// It never participates in Free's corruption decision.
	ChecksumPages bool
}

// Validate checks the configuration for internal consistency: collect
// every problem and join them into one error rather than reporting only
// the first, mirroring the validation style of the teacher's buffer
// configuration.
func (c Config) Validate() error {
	var errs []error
	if c.ObjectSize < 1 {
		errs = append(errs, errors.New("objpool: ObjectSize must be >= 1"))
	}
	if c.ObjectsPerPage < 0 {
		errs = append(errs, errors.New("objpool: ObjectsPerPage must be >= 0"))
	}
	if c.MaxPages < 0 {
		errs = append(errs, errors.New("objpool: MaxPages must be >= 0"))
	}
	if c.PadBytes < 0 {
		errs = append(errs, errors.New("objpool: PadBytes must be >= 0"))
	}
	if c.Alignment < 0 {
		errs = append(errs, errors.New("objpool: Alignment must be >= 0"))
	}
	switch c.HeaderKind {
	case HeaderNone, HeaderBasic, HeaderExtended, HeaderExternal:
	default:
		errs = append(errs, fmt.Errorf("objpool: invalid HeaderKind %v", int(c.HeaderKind)))
	}
	if c.HeaderKind != HeaderExtended && c.Additional != 0 {
		errs = append(errs, errors.New("objpool: Additional is only meaningful for HeaderExtended"))
	}
	return errors.Join(errs...)
}

// withDefaults fills in the zero-value defaults a caller gets for free.
func (c Config) withDefaults() Config {
	if c.ObjectsPerPage == 0 {
		c.ObjectsPerPage = DefaultObjectsPerPage
	}
	if c.PageAllocator == nil {
		c.PageAllocator = NewMmapPageAllocator()
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}
