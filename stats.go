package objpool

// Stats is a copyable snapshot of a Pool's monotonic/saturating counters,
// grounded on the teacher's bucket Stats/UpdateStats pattern: the live
// counters stay private fields mutated only by pool operations, and
// callers get a race-free copy through Pool.Stats.
type Stats struct {
	ObjectSize    int
	PageSize      int
	FreeObjects   int
	ObjectsInUse  int
	PagesInUse    int
	MostObjects   int
	Allocations   uint32
	Deallocations uint32
}

// stats is the Pool's live, mutable counter set.
type stats struct {
	objectSize    int
	pageSize      int
	freeObjects   int
	objectsInUse  int
	mostObjects   int
	allocations   uint32
	deallocations uint32
}

// snapshot copies the counters tracked here. PagesInUse is left zero; the
// caller (Pool.Stats) fills it in from the page store, the single source
// of truth for page count.
func (s *stats) snapshot() Stats {
	return Stats{
		ObjectSize:    s.objectSize,
		PageSize:      s.pageSize,
		FreeObjects:   s.freeObjects,
		ObjectsInUse:  s.objectsInUse,
		MostObjects:   s.mostObjects,
		Allocations:   s.allocations,
		Deallocations: s.deallocations,
	}
}

// onPageCreated accounts for the objectsPerPage fresh blocks a new page
// threads onto the free list.
func (s *stats) onPageCreated(objectsPerPage int) {
	s.freeObjects += objectsPerPage
}

// onPagesReleased accounts for the blocks a reclaimed empty page takes
// with it; every block on a page freeEmptyPages releases was, by
// definition, already on the free list.
func (s *stats) onPagesReleased(pages, objectsPerPage int) {
	s.freeObjects -= pages * objectsPerPage
}

func (s *stats) onAllocate() {
	s.objectsInUse++
	s.allocations++
	s.freeObjects--
	if s.objectsInUse > s.mostObjects {
		s.mostObjects = s.objectsInUse
	}
}

func (s *stats) onFree() {
	s.objectsInUse--
	s.deallocations++
	s.freeObjects++
}

// onAllocatePassthrough updates only the counters passthrough mode keeps:
// there is no free list to debit, since passthrough never populates one.
func (s *stats) onAllocatePassthrough() {
	s.objectsInUse++
	s.allocations++
	if s.objectsInUse > s.mostObjects {
		s.mostObjects = s.objectsInUse
	}
}

func (s *stats) onFreePassthrough() {
	s.objectsInUse--
	s.deallocations++
}
