package objpool

import "testing"

func TestComputeLayoutNoAlignment(t *testing.T) {
	// object_size=8, header=0, pad=0, alignment=0, objects_per_page=4.
	l := computeLayout(8, 0, 0, 0, 4)

	if l.leftAlignPad != 0 || l.interAlignPad != 0 {
		t.Fatalf("expected zero alignment padding, got left=%d inter=%d", l.leftAlignPad, l.interAlignPad)
	}
	if l.blockSize != 8 {
		t.Fatalf("blockSize = %d, want 8", l.blockSize)
	}
	wantPageSize := pointerSize + 0 + 8*4 - 0
	if l.pageSize != wantPageSize {
		t.Fatalf("pageSize = %d, want %d", l.pageSize, wantPageSize)
	}
}

func TestComputeLayoutWithPadAndHeader(t *testing.T) {
	// object_size=12, header=5, pad=4, alignment=0.
	l := computeLayout(12, 5, 4, 0, 3)

	wantBlockSize := 5 + 2*4 + 12
	if l.blockSize != wantBlockSize {
		t.Fatalf("blockSize = %d, want %d", l.blockSize, wantBlockSize)
	}
	wantPageSize := pointerSize + wantBlockSize*3
	if l.pageSize != wantPageSize {
		t.Fatalf("pageSize = %d, want %d", l.pageSize, wantPageSize)
	}
}

func TestComputeLayoutWithAlignment(t *testing.T) {
	l := computeLayout(8, 5, 4, 8, 4)

	wantLeft := mod(8-mod(pointerSize+5+4, 8), 8)
	if l.leftAlignPad != wantLeft {
		t.Fatalf("leftAlignPad = %d, want %d", l.leftAlignPad, wantLeft)
	}

	wantInter := mod(8-mod(5+2*4+8, 8), 8)
	if l.interAlignPad != wantInter {
		t.Fatalf("interAlignPad = %d, want %d", l.interAlignPad, wantInter)
	}

	firstPayload := l.firstPayloadOffset(4)
	if (pointerSize+l.leftAlignPad+5+4) != firstPayload {
		t.Fatalf("firstPayloadOffset inconsistent with its own formula: %d", firstPayload)
	}
	if firstPayload%8 != 0 {
		t.Errorf("first payload offset %d is not 8-byte aligned", firstPayload)
	}

	// Every subsequent payload must also land on an aligned offset.
	for i := 1; i < 4; i++ {
		off := l.blockHeaderOffset(i) + 5 + 4
		if off%8 != 0 {
			t.Errorf("block %d payload offset %d is not 8-byte aligned", i, off)
		}
	}
}

func TestModNonPositiveDivisor(t *testing.T) {
	if got := mod(5, 0); got != 0 {
		t.Errorf("mod(5, 0) = %d, want 0", got)
	}
	if got := mod(-3, -1); got != 0 {
		t.Errorf("mod(-3, -1) = %d, want 0", got)
	}
}

func TestModAlwaysNonNegative(t *testing.T) {
	for _, n := range []int{1, 2, 4, 8, 16} {
		for a := -20; a <= 20; a++ {
			got := mod(a, n)
			if got < 0 || got >= n {
				t.Fatalf("mod(%d, %d) = %d, out of [0, %d)", a, n, got, n)
			}
		}
	}
}

func TestBlockHeaderOffset(t *testing.T) {
	l := computeLayout(8, 5, 4, 0, 4)
	for i := 0; i < 4; i++ {
		want := pointerSize + l.leftAlignPad + i*l.blockSize
		if got := l.blockHeaderOffset(i); got != want {
			t.Errorf("blockHeaderOffset(%d) = %d, want %d", i, got, want)
		}
	}
}
