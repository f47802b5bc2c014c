package objpool

import (
	"encoding/binary"
	"unsafe"
)

// pointerSize is the width, in bytes, of the platform's native pointer —
// used for the page's next-page slot and the External header slot.
const pointerSize = int(unsafe.Sizeof(uintptr(0)))

func putU16(b []byte, v uint16) { binary.LittleEndian.PutUint16(b, v) }
func getU16(b []byte) uint16    { return binary.LittleEndian.Uint16(b) }

func putU32(b []byte, v uint32) { binary.LittleEndian.PutUint32(b, v) }
func getU32(b []byte) uint32    { return binary.LittleEndian.Uint32(b) }

// putUintptr stores an address-sized value into b. The free list reads its
// links back with getUintptr; the next-page and External header slots are
// written for byte-layout fidelity only and are never read back as a live
// Go pointer (see the externalRecord doc comment).
func putUintptr(b []byte, v uintptr) {
	*(*uintptr)(unsafe.Pointer(&b[0])) = v
}

func getUintptr(b []byte) uintptr {
	return *(*uintptr)(unsafe.Pointer(&b[0]))
}

// addrOf returns the address of the first byte of b as a uintptr.
func addrOf(b []byte) uintptr {
	return uintptr(unsafe.Pointer(&b[0]))
}

// pointerAt returns an unsafe.Pointer to the byte at the given offset
// within b.
func pointerAt(b []byte, offset int) unsafe.Pointer {
	return unsafe.Pointer(&b[offset])
}

// bytesFromPointer reconstructs a slice of length n starting at p, which
// must point within a byte region the caller already owns and keeps alive.
func bytesFromPointer(p unsafe.Pointer, n int) []byte {
	return unsafe.Slice((*byte)(p), n)
}

// unsafePointerFromAddr converts a previously-observed block address back
// into a pointer. addr must be the address of memory inside a page this
// pool still owns — the page list, not this conversion, is what keeps
// that memory alive.
func unsafePointerFromAddr(addr uintptr) unsafe.Pointer {
	return unsafe.Pointer(addr) //nolint:govet // intentional uintptr->Pointer: see freeList doc.
}
