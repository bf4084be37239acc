//go:build !linux && !darwin

package file

import (
	"errors"
	"os"
)

// getLogicalSectorSize get the logical sector size of a block device
func getLogicalSectorSize(f *os.File) (int, error) {
	return 0, errors.New("block devices not supported on this platform")
}
