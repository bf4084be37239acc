// Package mmap provides a file-persisted Device that reaches the file through a shared memory mapping.
//
// The backing file is extended (sparse) to the full device size when opened, so every sector
// in range is always readable. Each write is flushed with msync before it returns.
package mmap

import (
	"errors"
	"fmt"
	"math"
	"os"

	mmapgo "github.com/edsrzf/mmap-go"
	"github.com/sirupsen/logrus"

	"github.com/diskfs/go-blockdevice/backend"
)

type Device struct {
	f           *os.File
	mm          mmapgo.MMap
	sectorCount uint32
	sectorSize  uint32
	log         logrus.FieldLogger
}

// Open maps the file at pathName as a device of sectorCount sectors, creating the file if needed.
// Existing contents are preserved; a file shorter than the device is extended with zeroes.
func Open(pathName string, sectorCount uint32, log logrus.FieldLogger) (*Device, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if sectorCount == 0 {
		return nil, backend.NewError(backend.OpCreate, backend.AllocationFailure, 0, 0,
			errors.New("cannot map a device with no sectors"))
	}
	size := int64(sectorCount) * backend.SectorSize
	if uint64(size) > math.MaxInt {
		return nil, backend.NewError(backend.OpCreate, backend.AllocationFailure, 0, sectorCount,
			fmt.Errorf("device of %d bytes cannot be mapped", size))
	}

	f, err := os.OpenFile(pathName, os.O_RDWR|os.O_CREATE, 0o666)
	if err != nil {
		return nil, backend.NewError(backend.OpCreate, backend.AllocationFailure, 0, sectorCount,
			fmt.Errorf("error opening file: %w", err))
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, backend.NewError(backend.OpCreate, backend.AllocationFailure, 0, sectorCount,
			fmt.Errorf("error getting file info: %w", err))
	}
	if info.Size() < size {
		// This should create a sparse file on Linux.
		if err := f.Truncate(size); err != nil {
			_ = f.Close()
			return nil, backend.NewError(backend.OpCreate, backend.AllocationFailure, 0, sectorCount,
				fmt.Errorf("error allocating file: %w", err))
		}
		log.WithFields(logrus.Fields{"path": pathName, "from": info.Size(), "to": size}).Debug("extended backing file")
	}

	mm, err := mmapgo.MapRegion(f, int(size), mmapgo.RDWR, 0, 0)
	if err != nil {
		_ = f.Close()
		return nil, backend.NewError(backend.OpCreate, backend.AllocationFailure, 0, sectorCount,
			fmt.Errorf("error mapping file: %w", err))
	}

	return &Device{
		f:           f,
		mm:          mm,
		sectorCount: sectorCount,
		sectorSize:  backend.SectorSize,
		log:         log,
	}, nil
}

// backend.Device interface guard
var _ backend.Device = (*Device)(nil)

func (d *Device) ReadSectors(start, count uint32, p []byte) error {
	off, length, err := d.span(backend.OpRead, start, count, p)
	if err != nil || length == 0 {
		return err
	}
	copy(p[:length], d.mm[off:off+length])
	return nil
}

func (d *Device) WriteSectors(start, count uint32, p []byte) error {
	off, length, err := d.span(backend.OpWrite, start, count, p)
	if err != nil || length == 0 {
		return err
	}
	copy(d.mm[off:off+length], p[:length])
	if err := d.mm.Flush(); err != nil {
		return backend.NewError(backend.OpWrite, backend.FlushFailure, start, count, err)
	}
	return nil
}

func (d *Device) span(op backend.Op, start, count uint32, p []byte) (off, length int64, err error) {
	if d.mm == nil {
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

// Close unmaps and closes the backing file
func (d *Device) Close() error {
	if d.mm == nil {
		return backend.NewError(backend.OpClose, backend.Closed, 0, 0, nil)
	}
	mmapErr := d.mm.Unmap()
	d.mm = nil
	closeErr := d.f.Close()
	d.log.WithField("path", d.f.Name()).Debug("unmapped backing file")

	if err := errors.Join(mmapErr, closeErr); err != nil {
		return backend.NewError(backend.OpClose, backend.CloseFailure, 0, 0, err)
	}
	return nil
}
