package image

import (
	"fmt"
	"io"
	"strings"

	"github.com/pierrec/lz4"
	"github.com/ulikunitz/xz"
)

// Compression of the sector stream following the image header
type Compression uint8

const (
	CompressionNone Compression = 0
	CompressionLZ4  Compression = 1
	CompressionXZ   Compression = 2
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionXZ:
		return "xz"
	default:
		return fmt.Sprintf("compression(%d)", uint8(c))
	}
}

// ParseCompression converts "none", "lz4" or "xz" to a Compression
func ParseCompression(s string) (Compression, error) {
	switch strings.ToLower(s) {
	case "", "none", "raw":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "xz":
		return CompressionXZ, nil
	default:
		return CompressionNone, fmt.Errorf("unknown compression %q", s)
	}
}

// Compressor wraps the sector stream. Fulfilled by various implementations in this package
type Compressor interface {
	compress(w io.Writer) (io.WriteCloser, error)
	decompress(r io.Reader) (io.Reader, error)
	flavour() Compression
}

type CompressorNone struct{}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

func (c CompressorNone) compress(w io.Writer) (io.WriteCloser, error) {
	return nopWriteCloser{w}, nil
}
func (c CompressorNone) decompress(r io.Reader) (io.Reader, error) {
	return r, nil
}
func (c CompressorNone) flavour() Compression {
	return CompressionNone
}

type CompressorLZ4 struct{}

func (c CompressorLZ4) compress(w io.Writer) (io.WriteCloser, error) {
	return lz4.NewWriter(w), nil
}
func (c CompressorLZ4) decompress(r io.Reader) (io.Reader, error) {
	return lz4.NewReader(r), nil
}
func (c CompressorLZ4) flavour() Compression {
	return CompressionLZ4
}

type CompressorXZ struct{}

func (c CompressorXZ) compress(w io.Writer) (io.WriteCloser, error) {
	xw, err := xz.NewWriter(w)
	if err != nil {
		return nil, fmt.Errorf("error creating xz compressor: %w", err)
	}
	return xw, nil
}
func (c CompressorXZ) decompress(r io.Reader) (io.Reader, error) {
	xr, err := xz.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("error creating xz decompressor: %w", err)
	}
	return xr, nil
}
func (c CompressorXZ) flavour() Compression {
	return CompressionXZ
}

func newCompressor(flavour Compression) (Compressor, error) {
	var c Compressor
	switch flavour {
	case CompressionNone:
		c = CompressorNone{}
	case CompressionLZ4:
		c = CompressorLZ4{}
	case CompressionXZ:
		c = CompressorXZ{}
	default:
		return nil, fmt.Errorf("unknown compression type: %d", flavour)
	}
	return c, nil
}
