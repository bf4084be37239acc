// Package file provides a Device persisted in a regular file or an OS block device.
//
// The file is raw sector storage: byte offset N holds byte N%SectorSize of sector
// N/SectorSize. There is no header and no metadata in the file contents.
package file

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/diskfs/go-blockdevice/backend"
)

// Device maps sector operations onto offsets in a File
type Device struct {
	f           backend.File
	path        string
	sectorCount uint32
	sectorSize  uint32
	closed      bool

	advisory   bool
	dataSync   bool
	recordAttr bool
	log        logrus.FieldLogger
}

// Open a Device on the file at pathName, creating the file if it does not exist.
//
// An existing file is opened read-write without truncation. A missing file is created empty;
// it grows as sectors are written. sectorCount is the logical capacity of the device and is
// independent of the current file length.
//
// If pathName is an OS block device, its logical sector size must equal backend.SectorSize.
func Open(pathName string, sectorCount uint32, opts ...Option) (*Device, error) {
	if pathName == "" {
		return nil, backend.NewError(backend.OpCreate, backend.AllocationFailure, 0, sectorCount,
			errors.New("must pass device or file name"))
	}

	d := newDevice(sectorCount, opts)
	log := d.log.WithFields(logrus.Fields{"path": pathName, "sectors": sectorCount})

	f, err := os.OpenFile(pathName, os.O_RDWR, 0)
	switch {
	case err == nil:
		log.Debug("opened existing backing file")
	case errors.Is(err, fs.ErrNotExist):
		f, err = os.OpenFile(pathName, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o666)
		if err != nil {
			return nil, backend.NewError(backend.OpCreate, backend.AllocationFailure, 0, sectorCount,
				fmt.Errorf("could not create %s: %w", pathName, err))
		}
		log.Debug("created new backing file")
	default:
		return nil, backend.NewError(backend.OpCreate, backend.AllocationFailure, 0, sectorCount,
			fmt.Errorf("could not open %s: %w", pathName, err))
	}

	if err := checkSectorSize(f); err != nil {
		_ = f.Close()
		return nil, backend.NewError(backend.OpCreate, backend.AllocationFailure, 0, sectorCount, err)
	}

	d.f = f
	d.path = pathName

	if d.recordAttr {
		if err := setCapacityAttr(f, sectorCount); err != nil {
			log.WithError(err).Warn("could not record device capacity attribute")
		}
	}

	return d, nil
}

// New creates a Device on an already open File. The Device owns f and closes it on Close.
func New(f backend.File, sectorCount uint32, opts ...Option) *Device {
	d := newDevice(sectorCount, opts)
	d.f = f
	if osFile, ok := f.(*os.File); ok {
		d.path = osFile.Name()
	}
	return d
}

func newDevice(sectorCount uint32, opts []Option) *Device {
	d := &Device{
		sectorCount: sectorCount,
		sectorSize:  backend.SectorSize,
		log:         logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// backend.Device interface guard
var _ backend.Device = (*Device)(nil)

// ReadSectors seeks to the first requested sector and reads count whole sectors.
// Reading past the current end of the file is a ShortTransfer.
func (d *Device) ReadSectors(start, count uint32, p []byte) error {
	off, length, err := d.prepare(backend.OpRead, start, count, p)
	if err != nil || length == 0 {
		return err
	}
	n, err := io.ReadFull(d.f, p[:length])
	if err != nil {
		return backend.NewError(backend.OpRead, backend.ShortTransfer, start, count,
			backend.NewTransferDetail(n, length, err))
	}
	d.log.WithFields(logrus.Fields{"start": start, "count": count, "offset": off}).Trace("read sectors")
	return nil
}

// WriteSectors seeks to the first requested sector, writes count whole sectors and flushes
// the file before returning.
func (d *Device) WriteSectors(start, count uint32, p []byte) error {
	off, length, err := d.prepare(backend.OpWrite, start, count, p)
	if err != nil || length == 0 {
		return err
	}
	n, err := d.f.Write(p[:length])
	if err != nil || int64(n) != length {
		return backend.NewError(backend.OpWrite, backend.ShortTransfer, start, count,
			backend.NewTransferDetail(n, length, err))
	}
	if err := d.flush(); err != nil {
		return backend.NewError(backend.OpWrite, backend.FlushFailure, start, count, err)
	}
	d.log.WithFields(logrus.Fields{"start": start, "count": count, "offset": off}).Trace("wrote sectors")
	return nil
}

// prepare validates a transfer and positions the file at its first byte
func (d *Device) prepare(op backend.Op, start, count uint32, p []byte) (off, length int64, err error) {
	if d.closed {
		return 0, 0, backend.NewError(op, backend.Closed, start, count, nil)
	}
	if count == 0 {
		return 0, 0, nil
	}
	if !d.advisory {
		if err := backend.CheckRange(op, start, count, d.sectorCount); err != nil {
			return 0, 0, err
		}
	}
	if err := backend.CheckBuffer(op, start, count, d.sectorSize, p); err != nil {
		return 0, 0, err
	}
	off, length = backend.ByteRange(start, count, d.sectorSize)
	pos, err := d.f.Seek(off, io.SeekStart)
	if err != nil {
		return 0, 0, backend.NewError(op, backend.SeekFailure, start, count, err)
	}
	if pos != off {
		return 0, 0, backend.NewError(op, backend.SeekFailure, start, count,
			fmt.Errorf("positioned at byte %d instead of %d", pos, off))
	}
	return off, length, nil
}

func (d *Device) flush() error {
	if d.dataSync {
		if osFile, ok := d.f.(*os.File); ok {
			return dataSync(osFile)
		}
	}
	return d.f.Sync()
}

func (d *Device) SectorCount() uint32 {
	return d.sectorCount
}

func (d *Device) SectorSize() uint32 {
	return d.sectorSize
}

// Path of the backing file, empty if the Device was created from a File that is not an *os.File
func (d *Device) Path() string {
	return d.path
}

// Sys returns the OS-specific file backing the device, for ioctl calls via fd
func (d *Device) Sys() (*os.File, error) {
	if osFile, ok := d.f.(*os.File); ok {
		return osFile, nil
	}
	return nil, backend.ErrNotSuitable
}

// Close closes the backing file
func (d *Device) Close() error {
	if d.closed {
		return backend.NewError(backend.OpClose, backend.Closed, 0, 0, nil)
	}
	d.closed = true
	if err := d.f.Close(); err != nil {
		return backend.NewError(backend.OpClose, backend.CloseFailure, 0, 0, err)
	}
	d.log.WithField("path", d.path).Debug("closed backing file")
	return nil
}
