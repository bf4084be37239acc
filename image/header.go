package image

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/google/uuid"
)

const (
	headerSize     = 40
	currentVersion = 1
)

var headerMagic = []byte{'B', 'D', 'I', 'M'}

// Header describes the device an image was taken from. It is stored uncompressed, little-endian,
// ahead of the sector stream:
//
//	0x00  4  magic "BDIM"
//	0x04  2  version
//	0x06  1  compression
//	0x07  1  reserved
//	0x08  4  sector size
//	0x0c  4  sector count
//	0x10 16  image id
//	0x20  8  reserved
type Header struct {
	Version     uint16
	Compression Compression
	SectorSize  uint32
	SectorCount uint32
	ID          uuid.UUID
}

func (h *Header) toBytes() []byte {
	b := make([]byte, headerSize)
	copy(b[0x00:0x04], headerMagic)
	binary.LittleEndian.PutUint16(b[0x04:0x06], h.Version)
	b[0x06] = byte(h.Compression)
	binary.LittleEndian.PutUint32(b[0x08:0x0c], h.SectorSize)
	binary.LittleEndian.PutUint32(b[0x0c:0x10], h.SectorCount)
	copy(b[0x10:0x20], h.ID[:])
	return b
}

func headerFromBytes(b []byte) (*Header, error) {
	if len(b) != headerSize {
		return nil, fmt.Errorf("header was %d bytes instead of expected %d", len(b), headerSize)
	}
	if !bytes.Equal(b[0x00:0x04], headerMagic) {
		return nil, fmt.Errorf("invalid image magic %x", b[0x00:0x04])
	}
	h := &Header{
		Version:     binary.LittleEndian.Uint16(b[0x04:0x06]),
		Compression: Compression(b[0x06]),
		SectorSize:  binary.LittleEndian.Uint32(b[0x08:0x0c]),
		SectorCount: binary.LittleEndian.Uint32(b[0x0c:0x10]),
	}
	if h.Version != currentVersion {
		return nil, fmt.Errorf("unsupported image version %d", h.Version)
	}
	id, err := uuid.FromBytes(b[0x10:0x20])
	if err != nil {
		return nil, fmt.Errorf("invalid image id: %w", err)
	}
	h.ID = id
	return h, nil
}

// ReadHeader reads and validates an image header from the start of r
func ReadHeader(r io.Reader) (*Header, error) {
	b := make([]byte, headerSize)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, fmt.Errorf("could not read image header: %w", err)
	}
	return headerFromBytes(b)
}
