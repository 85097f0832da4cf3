package uvch264

import (
	"errors"
	"fmt"
)

// Kind classifies a demux failure.
type Kind string

const (
	KindMarkerNotFound     Kind = "MARKER_NOT_FOUND"
	KindStructuralMismatch Kind = "STRUCTURAL_MISMATCH"
	KindBufferOverrun      Kind = "BUFFER_OVERRUN"
	KindNALUNotFound       Kind = "NALU_NOT_FOUND"
	KindAllocation         Kind = "ALLOCATION_FAILURE"
)

var (
	ErrMarkerNotFound     = errors.New("APP4 marker not found")
	ErrStructuralMismatch = errors.New("structural mismatch")
	ErrBufferOverrun      = errors.New("buffer overrun")
	ErrNALUNotFound       = errors.New("NAL unit not found")
	ErrAllocation         = errors.New("allocation failure")
)

var kindSentinels = map[Kind]error{
	KindMarkerNotFound:     ErrMarkerNotFound,
	KindStructuralMismatch: ErrStructuralMismatch,
	KindBufferOverrun:      ErrBufferOverrun,
	KindNALUNotFound:       ErrNALUNotFound,
	KindAllocation:         ErrAllocation,
}

// Error describes where in a frame parsing failed. Expected and Found hold the
// bytes compared at Offset, when a comparison was involved.
type Error struct {
	Kind     Kind
	Op       string
	Offset   int
	Expected []byte
	Found    []byte
	Err      error
}

func newError(kind Kind, op string, offset int) *Error {
	return &Error{Kind: kind, Op: op, Offset: offset}
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s at offset %d", e.Op, e.Kind, e.Offset)
	if e.Expected != nil {
		msg += fmt.Sprintf(" (expected % x, found % x)", e.Expected, e.Found)
	}
	if e.Err != nil {
		msg += fmt.Sprintf(": %v", e.Err)
	}
	return msg
}

// Unwrap returns the wrapped cause, if any.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel error for e.Kind.
func (e *Error) Is(target error) bool {
	return kindSentinels[e.Kind] == target
}

// KindOf returns the Kind of err, or "" if err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
