package file

import (
	"os"

	"golang.org/x/sys/unix"
)

// getLogicalSectorSize get the logical sector size of a block device via BLKSSZGET
func getLogicalSectorSize(f *os.File) (int, error) {
	return unix.IoctlGetInt(int(f.Fd()), unix.BLKSSZGET)
}
