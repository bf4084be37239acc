//go:build !linux && !darwin && !freebsd && !netbsd

package file

import (
	"errors"
	"os"
)

var errNoXattr = errors.New("extended attributes not supported on this platform")

func setCapacityAttr(f *os.File, sectorCount uint32) error {
	return errNoXattr
}

// CapacityAttr returns the sector count recorded on the file at pathName by a Device opened
// WithCapacityAttr. ok is false if no count was recorded.
func CapacityAttr(pathName string) (sectorCount uint32, ok bool, err error) {
	return 0, false, errNoXattr
}
