// Package sync copies and compares the contents of devices
package sync

import (
	"context"
	"fmt"

	"github.com/diskfs/go-blockdevice/backend"
)

// batchSectors is the number of sectors moved per device call
const batchSectors = 256

// CopyDevice copies every sector of src to the same sector of dst and returns the number of
// sectors copied. dst must have the same sector size and at least as many sectors as src.
// ctx is checked between batches; a cancelled copy leaves dst partially written.
func CopyDevice(ctx context.Context, dst, src backend.Device) (uint32, error) {
	if err := compatible(dst, src); err != nil {
		return 0, err
	}
	if dst.SectorCount() < src.SectorCount() {
		return 0, fmt.Errorf("destination of %d sectors is smaller than source of %d sectors", dst.SectorCount(), src.SectorCount())
	}

	total := src.SectorCount()
	buf := make([]byte, batchSectors*int(src.SectorSize()))
	var copied uint32
	for copied < total {
		if err := ctx.Err(); err != nil {
			return copied, err
		}
		count := batch(copied, total)
		b := buf[:int(count)*int(src.SectorSize())]
		if err := src.ReadSectors(copied, count, b); err != nil {
			return copied, fmt.Errorf("copy read: %w", err)
		}
		if err := dst.WriteSectors(copied, count, b); err != nil {
			return copied, fmt.Errorf("copy write: %w", err)
		}
		copied += count
	}
	return copied, nil
}

func compatible(a, b backend.Device) error {
	if a.SectorSize() != b.SectorSize() {
		return fmt.Errorf("sector size mismatch: %d and %d bytes", a.SectorSize(), b.SectorSize())
	}
	return nil
}

func batch(start, total uint32) uint32 {
	if remaining := total - start; remaining < batchSectors {
		return remaining
	}
	return batchSectors
}
