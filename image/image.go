// Package image saves the contents of a device to a portable stream and loads them back.
//
// An image is a Header followed by every sector of the device in order, optionally compressed.
// It is used to snapshot a volatile memory device or to move a filesystem between backends.
package image

import (
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/diskfs/go-blockdevice/backend"
)

// batchSectors is the number of sectors moved per device call
const batchSectors = 128

// Save writes every sector of d to w, compressed with c
func Save(d backend.Device, w io.Writer, c Compression) (*Header, error) {
	compressor, err := newCompressor(c)
	if err != nil {
		return nil, err
	}
	h := &Header{
		Version:     currentVersion,
		Compression: compressor.flavour(),
		SectorSize:  d.SectorSize(),
		SectorCount: d.SectorCount(),
		ID:          uuid.New(),
	}
	if _, err := w.Write(h.toBytes()); err != nil {
		return nil, fmt.Errorf("could not write image header: %w", err)
	}

	cw, err := compressor.compress(w)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, batchSectors*int(h.SectorSize))
	for start := uint32(0); start < h.SectorCount; {
		count := batch(start, h.SectorCount)
		b := buf[:int(count)*int(h.SectorSize)]
		if err := d.ReadSectors(start, count, b); err != nil {
			return nil, fmt.Errorf("could not read sectors for image: %w", err)
		}
		if _, err := cw.Write(b); err != nil {
			return nil, fmt.Errorf("could not write sectors %d-%d to image: %w", start, start+count-1, err)
		}
		start += count
	}
	if err := cw.Close(); err != nil {
		return nil, fmt.Errorf("could not finish %s stream: %w", c, err)
	}
	return h, nil
}

// Load reads an image from r and writes its sectors to d, starting at sector 0.
//
// The image sector size must match d, and d must have at least as many sectors as the image.
// Sectors of d past the end of the image are left unchanged. Sectors are written as they are
// decoded, so a truncated or corrupt image, or a failed write, leaves d partially loaded.
func Load(r io.Reader, d backend.Device) (*Header, error) {
	h, err := ReadHeader(r)
	if err != nil {
		return nil, err
	}
	if h.SectorSize != d.SectorSize() {
		return nil, fmt.Errorf("image has %d byte sectors, device has %d", h.SectorSize, d.SectorSize())
	}
	if h.SectorCount > d.SectorCount() {
		return nil, fmt.Errorf("image of %d sectors does not fit device of %d sectors", h.SectorCount, d.SectorCount())
	}
	compressor, err := newCompressor(h.Compression)
	if err != nil {
		return nil, err
	}
	cr, err := compressor.decompress(r)
	if err != nil {
		return nil, err
	}

	buf := make([]byte, batchSectors*int(h.SectorSize))
	for start := uint32(0); start < h.SectorCount; {
		count := batch(start, h.SectorCount)
		b := buf[:int(count)*int(h.SectorSize)]
		if _, err := io.ReadFull(cr, b); err != nil {
			return nil, fmt.Errorf("image truncated at sector %d: %w", start, err)
		}
		if err := d.WriteSectors(start, count, b); err != nil {
			return nil, fmt.Errorf("could not write sectors from image: %w", err)
		}
		start += count
	}
	return h, nil
}

// batch returns how many sectors to move starting at start, out of total
func batch(start, total uint32) uint32 {
	if remaining := total - start; remaining < batchSectors {
		return remaining
	}
	return batchSectors
}
