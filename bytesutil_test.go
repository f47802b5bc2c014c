package objpool

import "testing"

func TestPutGetU16(t *testing.T) {
	b := make([]byte, 2)
	putU16(b, 0xBEEF)
	if got := getU16(b); got != 0xBEEF {
		t.Errorf("getU16 = %x, want %x", got, 0xBEEF)
	}
}

func TestPutGetU32(t *testing.T) {
	b := make([]byte, 4)
	putU32(b, 0xDEADBEEF)
	if got := getU32(b); got != 0xDEADBEEF {
		t.Errorf("getU32 = %x, want %x", got, 0xDEADBEEF)
	}
}

func TestPutGetUintptr(t *testing.T) {
	b := make([]byte, pointerSize)
	var want uintptr = 0x1234
	putUintptr(b, want)
	if got := getUintptr(b); got != want {
		t.Errorf("getUintptr = %x, want %x", got, want)
	}
}

func TestAddrOfMatchesPointerArithmetic(t *testing.T) {
	b := make([]byte, 8)
	addr := addrOf(b)
	back := bytesFromPointer(unsafePointerFromAddr(addr), len(b))
	back[0] = 0x42
	if b[0] != 0x42 {
		t.Fatal("bytesFromPointer(addrOf(b)) does not alias b")
	}
}

func TestPointerAt(t *testing.T) {
	b := []byte{0, 0, 0, 7}
	p := pointerAt(b, 3)
	got := bytesFromPointer(p, 1)
	if got[0] != 7 {
		t.Errorf("pointerAt(b, 3) = %d, want 7", got[0])
	}
}
