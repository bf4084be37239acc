//go:build linux || darwin || freebsd || netbsd

package file

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/pkg/xattr"
)

// capacityAttr holds the declared sector count of a backing file, in decimal
const capacityAttr = "user.blockdevice.sectors"

func setCapacityAttr(f *os.File, sectorCount uint32) error {
	return xattr.FSet(f, capacityAttr, []byte(strconv.FormatUint(uint64(sectorCount), 10)))
}

// CapacityAttr returns the sector count recorded on the file at pathName by a Device opened
// WithCapacityAttr. ok is false if no count was recorded.
func CapacityAttr(pathName string) (sectorCount uint32, ok bool, err error) {
	b, err := xattr.Get(pathName, capacityAttr)
	if errors.Is(err, xattr.ENOATTR) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("could not read capacity attribute of %s: %w", pathName, err)
	}
	n, err := strconv.ParseUint(string(b), 10, 32)
	if err != nil {
		return 0, false, fmt.Errorf("invalid capacity attribute %q on %s: %w", b, pathName, err)
	}
	return uint32(n), true, nil
}
