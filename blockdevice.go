// Package blockdevice implements sector-addressable block devices for the bottom of a filesystem stack.
//
// A filesystem implementation reads and writes whole 512 byte sectors through the backend.Device
// interface and never learns what stores them. Two backends have identical semantics:
//
//   - a volatile device in process memory, zero-filled at creation
//   - a persistent device in a regular file or OS block device, created on first use
//
// A third, mmap-based, backend persists to a file through a shared mapping.
//
// Every transfer is synchronous and all-or-nothing; there is no caching and no internal locking.
// Errors are *backend.Error values that match the backend.ErrOutOfRange, backend.ErrSeek,
// backend.ErrShortTransfer, backend.ErrAllocation family via errors.Is.
//
// Some examples:
//
// 1. Create an in-memory device of 4 sectors and write sector 2.
//
//	import blockdevice "github.com/diskfs/go-blockdevice"
//
//	dev, err := blockdevice.NewMemory(4)
//	defer dev.Close()
//	sector := make([]byte, blockdevice.SectorSize)
//	err = dev.WriteSectors(2, 1, sector)
//
// 2. Open or create a 16 sector image file and read sector 0.
//
//	dev, err := blockdevice.OpenFile("/tmp/disk.img", 16)
//	defer dev.Close()
//	b := make([]byte, blockdevice.SectorSize)
//	err = dev.ReadSectors(0, 1, b)
//
// 3. Expose sectors 2048 onwards of a disk as their own device, e.g. for a partition.
//
//	part, err := backend.Sub(dev, 2048, dev.SectorCount()-2048)
package blockdevice

import (
	"github.com/sirupsen/logrus"

	"github.com/diskfs/go-blockdevice/backend"
	"github.com/diskfs/go-blockdevice/backend/file"
	"github.com/diskfs/go-blockdevice/backend/memory"
	"github.com/diskfs/go-blockdevice/backend/mmap"
)

// SectorSize is the fixed size in bytes of every sector of every device
const SectorSize = backend.SectorSize

// Type is the storage medium behind a Device
type Type int

const (
	// Memory is a volatile in-process buffer
	Memory Type = iota
	// File is a regular file or OS block device
	File
	// Mmap is a file reached through a shared memory mapping
	Mmap
)

func (t Type) String() string {
	switch t {
	case Memory:
		return "memory"
	case File:
		return "file"
	case Mmap:
		return "mmap"
	default:
		return "unknown"
	}
}

// NewMemory creates a zero-filled volatile device of sectorCount sectors
func NewMemory(sectorCount uint32) (backend.Device, error) {
	d, err := memory.New(sectorCount)
	if err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{"type": Memory, "sectors": sectorCount}).Debug("created device")
	return d, nil
}

// OpenFile opens the file or block device at path as a device of sectorCount sectors, creating
// the file if it does not exist.
func OpenFile(path string, sectorCount uint32, opts ...file.Option) (backend.Device, error) {
	d, err := file.Open(path, sectorCount, opts...)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// OpenMmap opens the file at path as a memory-mapped device of sectorCount sectors, creating
// or extending the file as needed.
func OpenMmap(path string, sectorCount uint32) (backend.Device, error) {
	d, err := mmap.Open(path, sectorCount, logrus.StandardLogger())
	if err != nil {
		return nil, err
	}
	return d, nil
}

// Open creates a device of the given Type. path is ignored for Memory.
func Open(t Type, path string, sectorCount uint32) (backend.Device, error) {
	switch t {
	case Memory:
		return NewMemory(sectorCount)
	case File:
		return OpenFile(path, sectorCount)
	case Mmap:
		return OpenMmap(path, sectorCount)
	default:
		return nil, backend.NewError(backend.OpCreate, backend.AllocationFailure, 0, sectorCount,
			errUnknownType(t))
	}
}
