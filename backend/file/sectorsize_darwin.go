package file

import (
	"os"

	"golang.org/x/sys/unix"
)

// this constant should be part of "golang.org/x/sys/unix", but isn't, yet
const dkiocGetBlockSize = 0x40046418

// getLogicalSectorSize get the logical sector size of a block device
func getLogicalSectorSize(f *os.File) (int, error) {
	return unix.IoctlGetInt(int(f.Fd()), dkiocGetBlockSize)
}
