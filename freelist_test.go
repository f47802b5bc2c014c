package objpool

import "testing"

// newFreeListPayloads allocates n independent, pointer-sized-or-larger
// byte slices suitable for threading onto a freeList, and returns them;
// tests take their addresses with addrOf for assertions.
func newFreeListPayloads(n, size int) [][]byte {
	payloads := make([][]byte, n)
	for i := range payloads {
		payloads[i] = make([]byte, size)
	}
	return payloads
}

func TestFreeListPushPopLIFO(t *testing.T) {
	payloads := newFreeListPayloads(3, pointerSize)
	var fl freeList

	for _, p := range payloads {
		fl.push(p)
	}
	if fl.len != 3 {
		t.Fatalf("len = %d, want 3", fl.len)
	}

	for i := len(payloads) - 1; i >= 0; i-- {
		addr, ok := fl.pop()
		if !ok {
			t.Fatalf("pop() ok=false, expected a node")
		}
		if addr != addrOf(payloads[i]) {
			t.Fatalf("pop() returned wrong address: LIFO order violated at i=%d", i)
		}
	}

	if _, ok := fl.pop(); ok {
		t.Fatal("pop() on an empty list should report ok=false")
	}
}

func TestFreeListContains(t *testing.T) {
	payloads := newFreeListPayloads(2, pointerSize)
	var fl freeList
	fl.push(payloads[0])
	fl.push(payloads[1])

	if !fl.contains(addrOf(payloads[0])) {
		t.Error("expected payloads[0] to be contained")
	}
	if !fl.contains(addrOf(payloads[1])) {
		t.Error("expected payloads[1] to be contained")
	}

	other := make([]byte, pointerSize)
	if fl.contains(addrOf(other)) {
		t.Error("expected an unrelated address to not be contained")
	}
}

func TestFreeListSnapshot(t *testing.T) {
	payloads := newFreeListPayloads(3, pointerSize)
	var fl freeList
	for _, p := range payloads {
		fl.push(p)
	}

	snap := fl.snapshot()
	if len(snap) != 3 {
		t.Fatalf("snapshot size = %d, want 3", len(snap))
	}
	for _, p := range payloads {
		if _, ok := snap[addrOf(p)]; !ok {
			t.Errorf("snapshot missing address for payload %p", p)
		}
	}
}

func TestFreeListCullRemovesOnlyInRangeNodes(t *testing.T) {
	// Two "pages": backing arrays big enough to host two payloads each, so
	// cull's [base, base+size) range check has something to discriminate.
	pageA := make([]byte, 64)
	pageB := make([]byte, 64)

	a0, a1 := pageA[0:pointerSize], pageA[16:16+pointerSize]
	b0 := pageB[0:pointerSize]

	var fl freeList
	fl.push(a0)
	fl.push(b0)
	fl.push(a1)

	fl.cull(addrOf(pageA), uintptr(len(pageA)))

	if fl.len != 1 {
		t.Fatalf("len after cull = %d, want 1", fl.len)
	}
	if !fl.contains(addrOf(b0)) {
		t.Fatal("expected b0 to survive culling pageA's range")
	}
	if fl.contains(addrOf(a0)) || fl.contains(addrOf(a1)) {
		t.Fatal("expected pageA's nodes to be culled")
	}
}

func TestFreeListCullEmptiesListWhenEverythingMatches(t *testing.T) {
	page := make([]byte, 64)
	p0, p1 := page[0:pointerSize], page[16:16+pointerSize]

	var fl freeList
	fl.push(p0)
	fl.push(p1)

	fl.cull(addrOf(page), uintptr(len(page)))

	if fl.len != 0 || fl.head != 0 {
		t.Fatalf("expected an empty list after culling everything, got len=%d head=%x", fl.len, fl.head)
	}
	if _, ok := fl.pop(); ok {
		t.Fatal("expected pop() to report ok=false on a fully-culled list")
	}
}
