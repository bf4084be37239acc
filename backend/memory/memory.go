// Package memory provides a volatile Device held entirely in process memory.
//
// The contents are zero at creation and are lost when the device is closed.
package memory

import (
	"fmt"
	"math"

	"github.com/diskfs/go-blockdevice/backend"
)

// Device is an in-memory sector store
type Device struct {
	data        []byte
	sectorCount uint32
	sectorSize  uint32
}

// New allocates a zero-filled device of sectorCount sectors
func New(sectorCount uint32) (*Device, error) {
	size := uint64(sectorCount) * backend.SectorSize
	if size > math.MaxInt {
		return nil, backend.NewError(backend.OpCreate, backend.AllocationFailure, 0, sectorCount,
			fmt.Errorf("%d sectors of %d bytes exceed the addressable memory", sectorCount, backend.SectorSize))
	}
	return &Device{
		data:        make([]byte, size),
		sectorCount: sectorCount,
		sectorSize:  backend.SectorSize,
	}, nil
}

// NewFromBytes creates a device that takes ownership of b as its contents.
// The length of b must be a whole number of sectors.
func NewFromBytes(b []byte) (*Device, error) {
	if len(b)%backend.SectorSize != 0 {
		return nil, backend.NewError(backend.OpCreate, backend.AllocationFailure, 0, 0,
			fmt.Errorf("buffer of %d bytes is not a multiple of the %d byte sector size", len(b), backend.SectorSize))
	}
	if b == nil {
		b = []byte{}
	}
	sectors := uint64(len(b)) / backend.SectorSize
	if sectors > math.MaxUint32 {
		return nil, backend.NewError(backend.OpCreate, backend.AllocationFailure, 0, 0,
			fmt.Errorf("buffer of %d sectors exceeds the maximum device size", sectors))
	}
	return &Device{
		data:        b,
		sectorCount: uint32(sectors),
		sectorSize:  backend.SectorSize,
	}, nil
}

// Device interface guard
var _ backend.Device = (*Device)(nil)

// ReadSectors copies count sectors starting at start out of the device.
// The range is validated before any memory is touched.
func (d *Device) ReadSectors(start, count uint32, p []byte) error {
	off, length, err := d.span(backend.OpRead, start, count, p)
	if err != nil || length == 0 {
		return err
	}
	copy(p[:length], d.data[off:off+length])
	return nil
}

// WriteSectors copies count sectors from p into the device in place
func (d *Device) WriteSectors(start, count uint32, p []byte) error {
	off, length, err := d.span(backend.OpWrite, start, count, p)
	if err != nil || length == 0 {
		return err
	}
	copy(d.data[off:off+length], p[:length])
	return nil
}

func (d *Device) span(op backend.Op, start, count uint32, p []byte) (off, length int64, err error) {
	if d.data == nil {
		return 0, 0, backend.NewError(op, backend.Closed, start, count, nil)
	}
	if count == 0 {
		return 0, 0, nil
	}
	if err := backend.CheckRange(op, start, count, d.sectorCount); err != nil {
		return 0, 0, err
	}
	if err := backend.CheckBuffer(op, start, count, d.sectorSize, p); err != nil {
		return 0, 0, err
	}
	off, length = backend.ByteRange(start, count, d.sectorSize)
	return off, length, nil
}

func (d *Device) SectorCount() uint32 {
	return d.sectorCount
}

func (d *Device) SectorSize() uint32 {
	return d.sectorSize
}

// Bytes returns a copy of the whole device contents
func (d *Device) Bytes() []byte {
	b := make([]byte, len(d.data))
	copy(b, d.data)
	return b
}

// Close releases the buffer
func (d *Device) Close() error {
	if d.data == nil {
		return backend.NewError(backend.OpClose, backend.Closed, 0, 0, nil)
	}
	d.data = nil
	return nil
}
