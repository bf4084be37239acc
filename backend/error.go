package backend

import (
	"errors"
	"fmt"
)

// Op names the device operation that failed
type Op string

const (
	OpCreate Op = "create"
	OpRead   Op = "read"
	OpWrite  Op = "write"
	OpClose  Op = "close"
)

// Kind classifies a device failure
type Kind int

const (
	KindUnknown Kind = iota
	// OutOfRange the requested sectors extend past the end of the device
	OutOfRange
	// SeekFailure the sector offset could not be positioned in the backing file
	SeekFailure
	// ShortTransfer fewer sectors were read or written than requested
	ShortTransfer
	// AllocationFailure backing storage could not be obtained at creation time
	AllocationFailure
	// InvalidBuffer the caller's buffer cannot hold the requested sectors
	InvalidBuffer
	// FlushFailure written sectors could not be flushed to the backing file
	FlushFailure
	// Closed the device has already been closed
	Closed
	// CloseFailure the backing storage reported an error while being released
	CloseFailure
)

var (
	ErrOutOfRange    = errors.New("sector range out of bounds")
	ErrSeek          = errors.New("seek failed")
	ErrShortTransfer = errors.New("short transfer")
	ErrAllocation    = errors.New("allocation failed")
	ErrInvalidBuffer = errors.New("buffer too small")
	ErrFlush         = errors.New("flush failed")
	ErrClosed        = errors.New("device is closed")
	ErrCloseFailure  = errors.New("close failed")
)

var kindSentinels = map[Kind]error{
	OutOfRange:        ErrOutOfRange,
	SeekFailure:       ErrSeek,
	ShortTransfer:     ErrShortTransfer,
	AllocationFailure: ErrAllocation,
	InvalidBuffer:     ErrInvalidBuffer,
	FlushFailure:      ErrFlush,
	Closed:            ErrClosed,
	CloseFailure:      ErrCloseFailure,
}

func (k Kind) String() string {
	if err, ok := kindSentinels[k]; ok {
		return err.Error()
	}
	return "unknown device error"
}

// Error is returned by every failing Device operation.
//
// errors.Is matches it against the sentinel for its Kind, e.g. errors.Is(err, ErrOutOfRange),
// as well as against anything in the wrapped Err chain.
type Error struct {
	Op    Op
	Kind  Kind
	Start uint32
	Count uint32
	Err   error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s of %d sectors at sector %d: %s", e.Op, e.Count, e.Start, e.Kind)
	if e.Op == OpCreate || e.Op == OpClose {
		msg = fmt.Sprintf("%s device: %s", e.Op, e.Kind)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	sentinel, ok := kindSentinels[e.Kind]
	return ok && target == sentinel
}

func NewError(op Op, kind Kind, start, count uint32, err error) *Error {
	return &Error{
		Op:    op,
		Kind:  kind,
		Start: start,
		Count: count,
		Err:   err,
	}
}

// KindOf returns the Kind of a device error anywhere in err's chain, or KindUnknown
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

type RangeDetail struct {
	sectorCount uint32
}

func (e *RangeDetail) Error() string {
	return fmt.Sprintf("device has %d sectors", e.sectorCount)
}

func NewRangeDetail(sectorCount uint32) *RangeDetail {
	return &RangeDetail{
		sectorCount: sectorCount,
	}
}

type BufferDetail struct {
	have int
	need uint64
}

func (e *BufferDetail) Error() string {
	return fmt.Sprintf("buffer holds %d bytes, need %d", e.have, e.need)
}

func NewBufferDetail(have int, need uint64) *BufferDetail {
	return &BufferDetail{
		have: have,
		need: need,
	}
}

// TransferDetail records how many bytes of a transfer completed and why it stopped
type TransferDetail struct {
	done int
	want int64
	err  error
}

func (e *TransferDetail) Error() string {
	if e.err != nil {
		return fmt.Sprintf("transferred %d of %d bytes: %v", e.done, e.want, e.err)
	}
	return fmt.Sprintf("transferred %d of %d bytes", e.done, e.want)
}

func (e *TransferDetail) Unwrap() error {
	return e.err
}

func NewTransferDetail(done int, want int64, err error) *TransferDetail {
	return &TransferDetail{
		done: done,
		want: want,
		err:  err,
	}
}
