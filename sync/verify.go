package sync

import (
	"bytes"
	"context"
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/bits-and-blooms/bitset"
	"golang.org/x/sync/errgroup"

	"github.com/diskfs/go-blockdevice/backend"
)

var ErrMismatch = errors.New("device contents differ")

// sectorPair holds the same run of sectors read from both sides of a Diff
type sectorPair struct {
	start uint32
	a, b  []byte
}

// Diff compares two devices sector by sector and returns the set of sector numbers whose contents
// differ. Sectors present on only one of the devices count as different.
//
// All device calls are made from a single goroutine, one after the other, so a and b may share
// backing storage, e.g. two Sub windows of one disk or the same device twice. Comparison of a
// batch overlaps with reading the next one.
func Diff(ctx context.Context, a, b backend.Device) (*bitset.BitSet, error) {
	if err := compatible(a, b); err != nil {
		return nil, err
	}
	common, longest := a.SectorCount(), b.SectorCount()
	if common > longest {
		common, longest = longest, common
	}

	diff := bitset.New(uint(longest))
	for i := common; i < longest; i++ {
		diff.Set(uint(i))
	}

	ss := int(a.SectorSize())
	pairs := make(chan sectorPair, 2)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(pairs)
		for start := uint32(0); start < common; {
			if err := ctx.Err(); err != nil {
				return err
			}
			count := batch(start, common)
			p := sectorPair{
				start: start,
				a:     make([]byte, int(count)*ss),
				b:     make([]byte, int(count)*ss),
			}
			if err := a.ReadSectors(start, count, p.a); err != nil {
				return fmt.Errorf("diff read: %w", err)
			}
			if err := b.ReadSectors(start, count, p.b); err != nil {
				return fmt.Errorf("diff read: %w", err)
			}
			select {
			case pairs <- p:
			case <-ctx.Done():
				return ctx.Err()
			}
			start += count
		}
		return nil
	})
	g.Go(func() error {
		for p := range pairs {
			for i := 0; i*ss < len(p.a); i++ {
				if !bytes.Equal(p.a[i*ss:(i+1)*ss], p.b[i*ss:(i+1)*ss]) {
					diff.Set(uint(p.start) + uint(i))
				}
			}
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return diff, nil
}

// Verify returns ErrMismatch unless both devices have the same size and identical contents,
// compared by sha256 digest.
func Verify(ctx context.Context, a, b backend.Device) error {
	if err := compatible(a, b); err != nil {
		return err
	}
	if a.SectorCount() != b.SectorCount() {
		return fmt.Errorf("%w: %d and %d sectors", ErrMismatch, a.SectorCount(), b.SectorCount())
	}
	sumA, err := Checksum(ctx, a)
	if err != nil {
		return err
	}
	sumB, err := Checksum(ctx, b)
	if err != nil {
		return err
	}
	if !bytes.Equal(sumA, sumB) {
		return ErrMismatch
	}
	return nil
}

// Checksum returns the sha256 digest of every sector of d in order
func Checksum(ctx context.Context, d backend.Device) ([]byte, error) {
	hasher := sha256.New()
	total := d.SectorCount()
	buf := make([]byte, batchSectors*int(d.SectorSize()))
	for start := uint32(0); start < total; {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		count := batch(start, total)
		b := buf[:int(count)*int(d.SectorSize())]
		if err := d.ReadSectors(start, count, b); err != nil {
			return nil, fmt.Errorf("checksum read: %w", err)
		}
		_, _ = hasher.Write(b)
		start += count
	}
	return hasher.Sum(nil), nil
}
