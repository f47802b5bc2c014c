package objpool

import (
	"errors"
	"fmt"
)

// ErrorKind identifies one of the taxonomy of errors a Pool can raise.
type ErrorKind int

const (
	// ErrKindNoMemory indicates the underlying page allocator is exhausted.
	ErrKindNoMemory ErrorKind = iota
	// ErrKindNoPages indicates the configured MaxPages cap has been reached.
	ErrKindNoPages
	// ErrKindBadBoundary indicates a pointer passed to Free does not lie on
	// a legitimate block boundary within any page owned by the pool.
	ErrKindBadBoundary
	// ErrKindMultipleFree indicates a pointer passed to Free is already on
	// the free list.
	ErrKindMultipleFree
	// ErrKindCorruptedBlock indicates a block's pad bytes have been
	// overwritten by the client.
	ErrKindCorruptedBlock
)

func (k ErrorKind) String() string {
	switch k {
	case ErrKindNoMemory:
		return "E_NO_MEMORY"
	case ErrKindNoPages:
		return "E_NO_PAGES"
	case ErrKindBadBoundary:
		return "E_BAD_BOUNDARY"
	case ErrKindMultipleFree:
		return "E_MULTIPLE_FREE"
	case ErrKindCorruptedBlock:
		return "E_CORRUPTED_BLOCK"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

var (
	// ErrNoMemory is returned when the raw page allocator cannot satisfy a request.
	ErrNoMemory = errors.New("objpool: out of memory")
	// ErrNoPages is returned when MaxPages has been reached.
	ErrNoPages = errors.New("objpool: max pages reached")
	// ErrBadBoundary is returned when a pointer given to Free is not a valid block address.
	ErrBadBoundary = errors.New("objpool: pointer is not on a block boundary")
	// ErrMultipleFree is returned when a pointer given to Free is already free.
	ErrMultipleFree = errors.New("objpool: block has already been freed")
	// ErrCorruptedBlock is returned when a block's pad bytes do not match the pad pattern.
	ErrCorruptedBlock = errors.New("objpool: block is corrupted")
)

// AllocError carries the kind of a pool error alongside contextual detail,
// while still unwrapping to one of the package's sentinel errors so that
// callers using errors.Is against ErrNoMemory, ErrBadBoundary, etc. keep working.
type AllocError struct {
	Kind   ErrorKind
	Err    error
	Detail string
}

func (e *AllocError) Error() string {
	if e.Detail == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Detail)
}

func (e *AllocError) Unwrap() error {
	return e.Err
}

func newAllocError(kind ErrorKind, err error, detailFormat string, args ...any) *AllocError {
	return &AllocError{
		Kind:   kind,
		Err:    err,
		Detail: fmt.Sprintf(detailFormat, args...),
	}
}
