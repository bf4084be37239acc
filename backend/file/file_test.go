package file_test

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/diskfs/go-blockdevice/backend"
	"github.com/diskfs/go-blockdevice/backend/file"
	"github.com/diskfs/go-blockdevice/testhelper"
)

func pattern(seed byte, sectors int) []byte {
	b := make([]byte, sectors*backend.SectorSize)
	for i := range b {
		b[i] = seed ^ byte(i*7)
	}
	return b
}

func TestOpenCreatesMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "disk.img")
	d, err := file.Open(path, 16)
	require.NoError(t, err)
	defer d.Close()

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, int64(0), info.Size(), "new backing file starts empty")
	require.Equal(t, uint32(16), d.SectorCount())
	require.Equal(t, uint32(512), d.SectorSize())
	require.Equal(t, path, d.Path())
}

func TestOpenKeepsExistingContents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "disk.img")
	contents := pattern(0x11, 2)
	require.NoError(t, os.WriteFile(path, contents, 0o600))

	d, err := file.Open(path, 2)
	require.NoError(t, err)
	defer d.Close()

	b := make([]byte, 1024)
	require.NoError(t, d.ReadSectors(0, 2, b))
	require.Equal(t, contents, b)
}

func TestOpenErrors(t *testing.T) {
	_, err := file.Open("", 1)
	require.ErrorIs(t, err, backend.ErrAllocation)

	_, err = file.Open(filepath.Join(t.TempDir(), "missing", "dir", "disk.img"), 1)
	require.ErrorIs(t, err, backend.ErrAllocation)
	require.ErrorIs(t, err, os.ErrNotExist)

	// a directory is neither a regular file nor a block device
	_, err = file.Open(t.TempDir(), 1)
	require.Error(t, err)
}

// a fresh 16 sector device written through one handle is read back through another
func TestPersistenceAcrossHandles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "disk.img")
	in := pattern(0x5a, 1)

	d, err := file.Open(path, 16)
	require.NoError(t, err)
	require.NoError(t, d.WriteSectors(0, 1, in))
	require.NoError(t, d.Close())

	d2, err := file.Open(path, 16)
	require.NoError(t, err)
	defer d2.Close()
	out := make([]byte, 512)
	require.NoError(t, d2.ReadSectors(0, 1, out))
	require.Equal(t, in, out)
}

func TestRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "disk.img")
	d, err := file.Open(path, 32)
	require.NoError(t, err)
	defer d.Close()

	tests := []struct {
		start, count uint32
	}{
		{0, 1},
		{5, 4},
		{31, 1},
		{0, 32},
	}
	for _, tt := range tests {
		in := pattern(byte(tt.start+tt.count), int(tt.count))
		require.NoError(t, d.WriteSectors(tt.start, tt.count, in))
		out := make([]byte, len(in))
		require.NoError(t, d.ReadSectors(tt.start, tt.count, out))
		require.Equal(t, in, out, "start %d count %d", tt.start, tt.count)
	}
}

func TestReadPastEndOfFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "disk.img")
	d, err := file.Open(path, 16)
	require.NoError(t, err)
	defer d.Close()

	require.NoError(t, d.WriteSectors(0, 2, pattern(1, 2)))

	// within capacity but past the file length
	err = d.ReadSectors(2, 1, make([]byte, 512))
	require.ErrorIs(t, err, backend.ErrShortTransfer)
	require.ErrorIs(t, err, io.EOF)

	// straddling the file length
	err = d.ReadSectors(1, 2, make([]byte, 1024))
	require.ErrorIs(t, err, backend.ErrShortTransfer)
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestBoundsCheck(t *testing.T) {
	path := filepath.Join(t.TempDir(), "disk.img")
	d, err := file.Open(path, 4)
	require.NoError(t, err)
	defer d.Close()

	err = d.WriteSectors(3, 2, pattern(2, 2))
	require.ErrorIs(t, err, backend.ErrOutOfRange)
	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, int64(0), info.Size(), "rejected write must not touch the file")

	require.ErrorIs(t, d.ReadSectors(4, 1, make([]byte, 512)), backend.ErrOutOfRange)
}

func TestAdvisoryCapacity(t *testing.T) {
	path := filepath.Join(t.TempDir(), "disk.img")
	d, err := file.Open(path, 4, file.WithAdvisoryCapacity())
	require.NoError(t, err)
	defer d.Close()

	in := pattern(3, 2)
	require.NoError(t, d.WriteSectors(3, 2, in))
	out := make([]byte, 1024)
	require.NoError(t, d.ReadSectors(3, 2, out))
	require.Equal(t, in, out)

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, int64(5*512), info.Size())
}

func TestZeroCount(t *testing.T) {
	seeks := 0
	f := &testhelper.FileImpl{
		Seeker: func(offset int64) (int64, error) {
			seeks++
			return offset, nil
		},
		Writer: func(b []byte, offset int64) (int, error) {
			t.Fatalf("unexpected write of %d bytes at %d", len(b), offset)
			return 0, nil
		},
	}
	d := file.New(f, 4)
	require.NoError(t, d.WriteSectors(1, 0, nil))
	require.NoError(t, d.ReadSectors(1, 0, nil))
	require.Equal(t, 0, seeks)
}

func TestSeekFailure(t *testing.T) {
	seekErr := errors.New("seek exploded")
	f := &testhelper.FileImpl{
		Seeker: func(offset int64) (int64, error) {
			return 0, seekErr
		},
	}
	d := file.New(f, 4)
	err := d.ReadSectors(1, 1, make([]byte, 512))
	require.ErrorIs(t, err, backend.ErrSeek)
	require.ErrorIs(t, err, seekErr)

	err = d.WriteSectors(1, 1, make([]byte, 512))
	require.ErrorIs(t, err, backend.ErrSeek)
}

func TestSeekLandsElsewhere(t *testing.T) {
	f := &testhelper.FileImpl{
		Seeker: func(offset int64) (int64, error) {
			return offset - 1, nil
		},
	}
	d := file.New(f, 4)
	require.ErrorIs(t, d.ReadSectors(2, 1, make([]byte, 512)), backend.ErrSeek)
}

func TestShortWrite(t *testing.T) {
	synced := false
	f := &testhelper.FileImpl{
		Writer: func(b []byte, offset int64) (int, error) {
			return len(b) - backend.SectorSize, nil
		},
		Syncer: func() error {
			synced = true
			return nil
		},
	}
	d := file.New(f, 4)
	err := d.WriteSectors(0, 2, make([]byte, 1024))
	require.ErrorIs(t, err, backend.ErrShortTransfer)
	require.Contains(t, err.Error(), "transferred 512 of 1024 bytes")
	require.False(t, synced)
}

func TestWriteOffsetAndFlush(t *testing.T) {
	var (
		gotOffset int64
		gotLen    int
		synced    int
	)
	f := &testhelper.FileImpl{
		Writer: func(b []byte, offset int64) (int, error) {
			gotOffset, gotLen = offset, len(b)
			return len(b), nil
		},
		Syncer: func() error {
			synced++
			return nil
		},
	}
	d := file.New(f, 16)
	// a buffer larger than needed only contributes count sectors
	require.NoError(t, d.WriteSectors(3, 2, make([]byte, 4096)))
	require.Equal(t, int64(3*512), gotOffset)
	require.Equal(t, 1024, gotLen)
	require.Equal(t, 1, synced)
}

func TestFlushFailure(t *testing.T) {
	syncErr := errors.New("disk on fire")
	f := &testhelper.FileImpl{
		Syncer: func() error { return syncErr },
	}
	d := file.New(f, 4)
	err := d.WriteSectors(0, 1, make([]byte, 512))
	require.ErrorIs(t, err, backend.ErrFlush)
	require.ErrorIs(t, err, syncErr)

	// a failed operation does not invalidate the device
	f.Syncer = nil
	require.NoError(t, d.WriteSectors(0, 1, make([]byte, 512)))
}

func TestClose(t *testing.T) {
	closed := 0
	f := &testhelper.FileImpl{
		Closer: func() error {
			closed++
			return nil
		},
	}
	d := file.New(f, 4)
	require.NoError(t, d.Close())
	require.Equal(t, 1, closed)
	require.ErrorIs(t, d.Close(), backend.ErrClosed)
	require.Equal(t, 1, closed)
	require.ErrorIs(t, d.ReadSectors(0, 1, make([]byte, 512)), backend.ErrClosed)
	require.ErrorIs(t, d.WriteSectors(0, 1, make([]byte, 512)), backend.ErrClosed)

	_, err := d.Sys()
	require.ErrorIs(t, err, backend.ErrNotSuitable)
}

func TestCloseFailure(t *testing.T) {
	closeErr := errors.New("delayed write error")
	f := &testhelper.FileImpl{
		Closer: func() error { return closeErr },
	}
	d := file.New(f, 4)
	err := d.Close()
	require.ErrorIs(t, err, backend.ErrCloseFailure)
	require.ErrorIs(t, err, closeErr)
	require.Equal(t, backend.CloseFailure, backend.KindOf(err))

	var devErr *backend.Error
	require.ErrorAs(t, err, &devErr)
	require.Equal(t, backend.OpClose, devErr.Op)

	// the handle is released even when closing failed
	require.ErrorIs(t, d.Close(), backend.ErrClosed)
}

func TestDataSync(t *testing.T) {
	path := filepath.Join(t.TempDir(), "disk.img")
	d, err := file.Open(path, 2, file.WithDataSync())
	require.NoError(t, err)
	defer d.Close()

	in := pattern(7, 1)
	require.NoError(t, d.WriteSectors(1, 1, in))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, in, b[512:])

	osFile, err := d.Sys()
	require.NoError(t, err)
	require.Equal(t, path, osFile.Name())
}

func TestLogger(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	path := filepath.Join(t.TempDir(), "disk.img")
	d, err := file.Open(path, 2, file.WithLogger(logger))
	require.NoError(t, err)
	require.NoError(t, d.Close())
	d, err = file.Open(path, 2, file.WithLogger(logger))
	require.NoError(t, err)
	require.NoError(t, d.Close())

	var messages []string
	for _, e := range hook.AllEntries() {
		messages = append(messages, e.Message)
	}
	require.Equal(t, []string{
		"created new backing file",
		"closed backing file",
		"opened existing backing file",
		"closed backing file",
	}, messages)
	require.Equal(t, path, hook.AllEntries()[0].Data["path"])
}

func TestCapacityAttr(t *testing.T) {
	path := filepath.Join(t.TempDir(), "disk.img")
	d, err := file.Open(path, 1234, file.WithCapacityAttr())
	require.NoError(t, err)
	require.NoError(t, d.Close())

	n, ok, err := file.CapacityAttr(path)
	if err != nil || !ok {
		t.Skipf("extended attributes unavailable on this filesystem: %v", err)
	}
	require.Equal(t, uint32(1234), n)
}

func TestCapacityAttrMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "disk.img")
	d, err := file.Open(path, 8)
	require.NoError(t, err)
	require.NoError(t, d.Close())

	n, ok, err := file.CapacityAttr(path)
	if err != nil {
		t.Skipf("extended attributes unavailable on this filesystem: %v", err)
	}
	require.False(t, ok)
	require.Equal(t, uint32(0), n)
}

func TestDetermineDeviceType(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "devtype")
	require.NoError(t, err)
	defer f.Close()

	dt, err := file.DetermineDeviceType(f)
	require.NoError(t, err)
	require.Equal(t, file.DeviceTypeFile, dt)

	dir, err := os.Open(t.TempDir())
	require.NoError(t, err)
	defer dir.Close()
	dt, err = file.DetermineDeviceType(dir)
	require.Error(t, err)
	require.Equal(t, file.DeviceTypeUnknown, dt)
}

func TestNewFromOSFile(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "disk")
	require.NoError(t, err)
	d := file.New(f, 2)
	require.Equal(t, f.Name(), d.Path())
	in := bytes.Repeat([]byte{0xc3}, 1024)
	require.NoError(t, d.WriteSectors(0, 2, in))
	require.NoError(t, d.Close())

	b, err := os.ReadFile(f.Name())
	require.NoError(t, err)
	require.Equal(t, in, b)
}
