package objpool

import "unsafe"

// HeaderKind selects one of the four per-block bookkeeping variants.
type HeaderKind int

const (
	// HeaderNone carries no per-block bookkeeping at all.
	HeaderNone HeaderKind = iota
	// HeaderBasic carries a u32 allocation id and a flags byte.
	HeaderBasic
	// HeaderExtended carries user-defined additional bytes, a u16 use
	// counter, a u32 allocation id and a flags byte.
	HeaderExtended
	// HeaderExternal carries a pointer-sized slot naming a heap-allocated record.
	HeaderExternal
)

func (k HeaderKind) String() string {
	switch k {
	case HeaderNone:
		return "None"
	case HeaderBasic:
		return "Basic"
	case HeaderExtended:
		return "Extended"
	case HeaderExternal:
		return "External"
	default:
		return "Unknown"
	}
}

const (
	basicHeaderSize = 4 + 1 // alloc-id (u32) + flags (u8)
	// extendedHeaderFixedSize is the extended header size excluding the
	// caller-supplied additional bytes: use-counter (u16) + alloc-id (u32) + flags (u8).
	extendedHeaderFixedSize = 2 + 4 + 1
	// flagInUse is bit 0 of a Basic/Extended flags byte: the canonical,
	// independent witness of "this block is currently allocated". Other
	// bits are reserved and must survive every transition untouched.
	flagInUse = byte(1)
)

// headerSize returns the number of header bytes header_kind requires,
// given Extended's caller-supplied additional byte count.
func headerSize(kind HeaderKind, additional uint32) int {
	switch kind {
	case HeaderNone:
		return 0
	case HeaderBasic:
		return basicHeaderSize
	case HeaderExtended:
		return extendedHeaderFixedSize + int(additional)
	case HeaderExternal:
		return pointerSize
	default:
		panic("objpool: unknown header kind")
	}
}

// externalRecord is the auxiliary, heap-owned bookkeeping record for an
// External-header block: a tree ownership where the record owns its label.
// It is kept alive through a page-level Go slice (see page.go), never by
// reinterpreting the raw header bytes as a pointer — the header bytes for
// External blocks are written for byte-layout fidelity only (§3 of the
// pool's contract) and are never read back as a live Go pointer, since the
// page memory backing them may be an mmap'd region the garbage collector
// does not scan.
type externalRecord struct {
	InUse    bool
	Label    *string
	AllocNum uint32
}

// headerCodec writes and reads the per-block header bytes for the None,
// Basic and Extended variants. External has no meaningful byte-codec: its
// in-use witness and allocation bookkeeping live in a GC-visible side
// table (see page.go), so it is handled directly by the pool rather than
// through this interface.
type headerCodec interface {
	// init formats a freshly-paged block's header into its "fresh" state.
	init(header []byte)
	// onAllocate records the block as in-use, stamping allocNum.
	onAllocate(header []byte, allocNum uint32)
	// onFree records the block as free again.
	onFree(header []byte)
	// isInUse reports the in-use witness carried by the header, when the
	// variant carries one.
	isInUse(header []byte) bool
	// hasInUseFlag reports whether isInUse is a meaningful O(1) witness;
	// the None variant has none, so FreeList falls back to an O(n) walk.
	hasInUseFlag() bool
}

type noneCodec struct{}

func (noneCodec) init([]byte)              {}
func (noneCodec) onAllocate([]byte, uint32) {}
func (noneCodec) onFree([]byte)             {}
func (noneCodec) isInUse([]byte) bool       { return false }
func (noneCodec) hasInUseFlag() bool        { return false }

type basicCodec struct{}

func (basicCodec) init(header []byte) {
	clear(header)
}

func (basicCodec) onAllocate(header []byte, allocNum uint32) {
	putU32(header[0:4], allocNum)
	header[4] |= flagInUse
}

func (basicCodec) onFree(header []byte) {
	putU32(header[0:4], 0)
	header[4] &^= flagInUse
}

func (basicCodec) isInUse(header []byte) bool {
	return header[4]&flagInUse != 0
}

func (basicCodec) hasInUseFlag() bool { return true }

// extendedCodec lays out [additional bytes][use-counter u16][alloc-id u32][flags u8].
type extendedCodec struct {
	additional int
}

func (c extendedCodec) counterOffset() int { return c.additional }
func (c extendedCodec) allocIDOffset() int { return c.additional + 2 }
func (c extendedCodec) flagsOffset() int   { return c.additional + 2 + 4 }

func (c extendedCodec) init(header []byte) {
	clear(header[:c.additional])
	putU16(header[c.counterOffset():], 0)
	putU32(header[c.allocIDOffset():], 0)
	header[c.flagsOffset()] = 0
}

func (c extendedCodec) onAllocate(header []byte, allocNum uint32) {
	clear(header[:c.additional])
	counter := getU16(header[c.counterOffset():])
	counter++ // Wraps at 2^16 by virtue of uint16 arithmetic.
	putU16(header[c.counterOffset():], counter)
	putU32(header[c.allocIDOffset():], allocNum)
	header[c.flagsOffset()] |= flagInUse
}

func (c extendedCodec) onFree(header []byte) {
	putU32(header[c.allocIDOffset():], 0)
	header[c.flagsOffset()] &^= flagInUse
}

func (c extendedCodec) isInUse(header []byte) bool {
	return header[c.flagsOffset()]&flagInUse != 0
}

func (extendedCodec) hasInUseFlag() bool { return true }

func newHeaderCodec(kind HeaderKind, additional uint32) headerCodec {
	switch kind {
	case HeaderNone:
		return noneCodec{}
	case HeaderBasic:
		return basicCodec{}
	case HeaderExtended:
		return extendedCodec{additional: int(additional)}
	default:
		panic("objpool: newHeaderCodec called for External, which has no byte codec")
	}
}

// onAllocateExternal allocates a fresh externalRecord owning a copy of
// label, stores it in pg's GC-visible side table at idx, and paints the
// header slot's bytes for layout fidelity (see the externalRecord doc comment).
func onAllocateExternal(pg *page, idx int, l layout, allocNum uint32, label string) {
	var labelPtr *string
	if label != "" {
		copied := label
		labelPtr = &copied
	}
	rec := &externalRecord{InUse: true, Label: labelPtr, AllocNum: allocNum}
	pg.externalRecords[idx] = rec
	putUintptr(pg.blockHeader(l, idx), uintptr(unsafe.Pointer(rec)))
}

// onFreeExternal deletes idx's auxiliary record and label, and clears the
// header slot.
func onFreeExternal(pg *page, l layout, idx int) {
	pg.externalRecords[idx] = nil
	clear(pg.blockHeader(l, idx))
}
