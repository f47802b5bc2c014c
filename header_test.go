package objpool

import "testing"

func TestHeaderKindString(t *testing.T) {
	cases := map[HeaderKind]string{
		HeaderNone:     "None",
		HeaderBasic:    "Basic",
		HeaderExtended: "Extended",
		HeaderExternal: "External",
		HeaderKind(99): "Unknown",
	}
	for kind, want := range cases {
		if got := kind.String(); got != want {
			t.Errorf("HeaderKind(%d).String() = %q, want %q", int(kind), got, want)
		}
	}
}

func TestHeaderSize(t *testing.T) {
	if got := headerSize(HeaderNone, 0); got != 0 {
		t.Errorf("HeaderNone size = %d, want 0", got)
	}
	if got := headerSize(HeaderBasic, 0); got != basicHeaderSize {
		t.Errorf("HeaderBasic size = %d, want %d", got, basicHeaderSize)
	}
	if got := headerSize(HeaderExtended, 6); got != extendedHeaderFixedSize+6 {
		t.Errorf("HeaderExtended size = %d, want %d", got, extendedHeaderFixedSize+6)
	}
	if got := headerSize(HeaderExternal, 0); got != pointerSize {
		t.Errorf("HeaderExternal size = %d, want %d", got, pointerSize)
	}
}

func TestHeaderSizePanicsOnUnknownKind(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic for an unknown HeaderKind")
		}
	}()
	headerSize(HeaderKind(99), 0)
}

func TestBasicCodecRoundTrip(t *testing.T) {
	c := newHeaderCodec(HeaderBasic, 0)
	header := make([]byte, basicHeaderSize)

	c.init(header)
	if c.isInUse(header) {
		t.Fatal("freshly-initialized header reports in-use")
	}

	c.onAllocate(header, 7)
	if !c.isInUse(header) {
		t.Fatal("header does not report in-use after onAllocate")
	}
	if got := getU32(header[0:4]); got != 7 {
		t.Errorf("alloc id = %d, want 7", got)
	}

	c.onFree(header)
	if c.isInUse(header) {
		t.Fatal("header still reports in-use after onFree")
	}
}

func TestExtendedCodecRoundTrip(t *testing.T) {
	c := newHeaderCodec(HeaderExtended, 3).(extendedCodec)
	header := make([]byte, extendedHeaderFixedSize+3)

	c.init(header)
	c.onAllocate(header, 1)
	c.onAllocate(header, 2) // Allocated twice (after a hypothetical free) to exercise the counter.

	if got := getU16(header[c.counterOffset():]); got != 2 {
		t.Errorf("use counter = %d, want 2", got)
	}
	if got := getU32(header[c.allocIDOffset():]); got != 2 {
		t.Errorf("alloc id = %d, want 2", got)
	}
	if !c.isInUse(header) {
		t.Fatal("expected in-use after onAllocate")
	}

	c.onFree(header)
	if c.isInUse(header) {
		t.Fatal("expected not in-use after onFree")
	}
}

func TestNoneCodecHasNoInUseFlag(t *testing.T) {
	c := newHeaderCodec(HeaderNone, 0)
	if c.hasInUseFlag() {
		t.Fatal("HeaderNone must report hasInUseFlag() == false")
	}
}

func TestNewHeaderCodecPanicsOnExternal(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic for HeaderExternal")
		}
	}()
	newHeaderCodec(HeaderExternal, 0)
}

func TestExternalRecordLifecycle(t *testing.T) {
	l := computeLayout(8, pointerSize, 0, 0, 2)
	pg := &page{data: make([]byte, l.pageSize), externalRecords: make([]*externalRecord, 2)}

	onAllocateExternal(pg, 0, l, 5, "widget")
	rec := pg.externalRecords[0]
	if rec == nil {
		t.Fatal("externalRecords[0] is nil after onAllocateExternal")
	}
	if !rec.InUse || rec.AllocNum != 5 || rec.Label == nil || *rec.Label != "widget" {
		t.Errorf("unexpected record state: %+v", rec)
	}

	onFreeExternal(pg, l, 0)
	if pg.externalRecords[0] != nil {
		t.Fatal("externalRecords[0] not cleared after onFreeExternal")
	}
}

func TestExternalRecordEmptyLabel(t *testing.T) {
	l := computeLayout(8, pointerSize, 0, 0, 1)
	pg := &page{data: make([]byte, l.pageSize), externalRecords: make([]*externalRecord, 1)}

	onAllocateExternal(pg, 0, l, 1, "")
	if pg.externalRecords[0].Label != nil {
		t.Fatal("expected nil Label for an empty label string")
	}
}
