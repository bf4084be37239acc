package backend

import (
	"errors"
	"io"
)

// SectorSize is the number of bytes in every sector of every device.
const SectorSize = 512

var (
	ErrNotSuitable = errors.New("backing file is not suitable")
)

// Device is a fixed-capacity array of fixed-size sectors.
//
// All transfers are whole sectors. A transfer either completes in full or returns an error;
// a count of zero is always a successful no-op. Implementations do no internal locking,
// callers sharing a Device between goroutines must serialize access themselves.
type Device interface {
	// ReadSectors reads count sectors beginning at start into p, which must hold at least
	// count*SectorSize() bytes
	ReadSectors(start, count uint32, p []byte) error
	// WriteSectors writes count sectors beginning at start from p
	WriteSectors(start, count uint32, p []byte) error
	// SectorCount is the logical capacity of the device in sectors
	SectorCount() uint32
	// SectorSize is the number of bytes per sector
	SectorSize() uint32
	// Close releases the backing storage. The device is unusable afterwards.
	Close() error
}

// File is the storage a file-backed device operates on. *os.File satisfies it.
type File interface {
	io.ReadWriteSeeker
	io.Closer
	Sync() error
}

// CheckRange returns an OutOfRange error if sectors [start, start+count) do not fit in a
// device of sectorCount sectors. The sum is computed in 64 bits so it cannot wrap.
func CheckRange(op Op, start, count, sectorCount uint32) error {
	if uint64(start)+uint64(count) > uint64(sectorCount) {
		return NewError(op, OutOfRange, start, count, NewRangeDetail(sectorCount))
	}
	return nil
}

// CheckBuffer returns an InvalidBuffer error if p cannot hold count sectors of sectorSize bytes.
func CheckBuffer(op Op, start, count, sectorSize uint32, p []byte) error {
	if uint64(len(p)) < uint64(count)*uint64(sectorSize) {
		return NewError(op, InvalidBuffer, start, count, NewBufferDetail(len(p), uint64(count)*uint64(sectorSize)))
	}
	return nil
}

// ByteRange returns the byte offset and length covered by count sectors at start.
func ByteRange(start, count, sectorSize uint32) (offset, length int64) {
	return int64(start) * int64(sectorSize), int64(count) * int64(sectorSize)
}
