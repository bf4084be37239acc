package backend

import "fmt"

// SubDevice is a window onto a contiguous run of sectors of another Device,
// for example a single partition of a disk image. Sector 0 of the window is
// sector offset of the underlying device.
type SubDevice struct {
	underlying Device
	offset     uint32
	count      uint32
	closed     bool
}

// Sub returns a Device exposing sectors [offset, offset+count) of u.
//
// Closing the returned device does not close u.
func Sub(u Device, offset, count uint32) (*SubDevice, error) {
	if u == nil {
		return nil, fmt.Errorf("cannot create a window on a nil device")
	}
	if err := CheckRange(OpCreate, offset, count, u.SectorCount()); err != nil {
		return nil, fmt.Errorf("window of %d sectors at %d does not fit: %w", count, offset, err)
	}
	return &SubDevice{
		underlying: u,
		offset:     offset,
		count:      count,
	}, nil
}

// Device interface guard
var _ Device = (*SubDevice)(nil)

func (s *SubDevice) ReadSectors(start, count uint32, p []byte) error {
	if err := s.check(OpRead, start, count, p); err != nil || count == 0 {
		return err
	}
	return s.underlying.ReadSectors(s.offset+start, count, p)
}

func (s *SubDevice) WriteSectors(start, count uint32, p []byte) error {
	if err := s.check(OpWrite, start, count, p); err != nil || count == 0 {
		return err
	}
	return s.underlying.WriteSectors(s.offset+start, count, p)
}

func (s *SubDevice) check(op Op, start, count uint32, p []byte) error {
	if s.closed {
		return NewError(op, Closed, start, count, nil)
	}
	if count == 0 {
		return nil
	}
	if err := CheckRange(op, start, count, s.count); err != nil {
		return err
	}
	return CheckBuffer(op, start, count, s.underlying.SectorSize(), p)
}

func (s *SubDevice) SectorCount() uint32 {
	return s.count
}

func (s *SubDevice) SectorSize() uint32 {
	return s.underlying.SectorSize()
}

// Offset is the first sector of the underlying device covered by the window
func (s *SubDevice) Offset() uint32 {
	return s.offset
}

func (s *SubDevice) Close() error {
	if s.closed {
		return NewError(OpClose, Closed, 0, 0, nil)
	}
	s.closed = true
	return nil
}
