package file

import (
	"fmt"
	iofs "io/fs"
	"os"

	"github.com/diskfs/go-blockdevice/backend"
)

type DeviceType int

const (
	DeviceTypeUnknown DeviceType = iota
	DeviceTypeFile
	DeviceTypeBlockDevice
)

// DetermineDeviceType reports whether f is a regular file or an OS block device
func DetermineDeviceType(f iofs.File) (DeviceType, error) {
	info, err := f.Stat()
	if err != nil {
		return DeviceTypeUnknown, fmt.Errorf("could not stat file: %w", err)
	}
	mode := info.Mode()
	switch {
	case mode.IsRegular():
		return DeviceTypeFile, nil
	case mode&os.ModeDevice != 0:
		return DeviceTypeBlockDevice, nil
	default:
		return DeviceTypeUnknown, fmt.Errorf("device %s is neither a block device nor a regular file", info.Name())
	}
}

// checkSectorSize fails if f is a block device whose logical sector size is not ours.
// Regular files have no sector size of their own.
func checkSectorSize(f *os.File) error {
	dt, err := DetermineDeviceType(f)
	if err != nil {
		return err
	}
	if dt != DeviceTypeBlockDevice {
		return nil
	}
	logical, err := getLogicalSectorSize(f)
	if err != nil {
		return fmt.Errorf("unable to get sector size of block device %s: %w", f.Name(), err)
	}
	if logical != backend.SectorSize {
		return fmt.Errorf("block device %s has %d byte sectors, only %d is supported", f.Name(), logical, backend.SectorSize)
	}
	return nil
}
