package testhelper

import (
	"fmt"
	"io"
)

type reader func(b []byte, offset int64) (int, error)
type writer func(b []byte, offset int64) (int, error)
type seeker func(offset int64) (int64, error)

// FileImpl implement github.com/diskfs/go-blockdevice/backend.File
// used for testing to enable stubbing out files. Reads and writes go to the
// closures at the position of the last Seek; nil closures succeed doing nothing.
type FileImpl struct {
	Reader reader
	Writer writer
	Seeker seeker
	Syncer func() error
	Closer func() error

	pos int64
}

func (f *FileImpl) Read(b []byte) (int, error) {
	if f.Reader == nil {
		return 0, io.EOF
	}
	n, err := f.Reader(b, f.pos)
	f.pos += int64(n)
	return n, err
}

func (f *FileImpl) Write(b []byte) (int, error) {
	if f.Writer == nil {
		return len(b), nil
	}
	n, err := f.Writer(b, f.pos)
	f.pos += int64(n)
	return n, err
}

// Seek only supports io.SeekStart
func (f *FileImpl) Seek(offset int64, whence int) (int64, error) {
	if whence != io.SeekStart {
		return 0, fmt.Errorf("FileImpl only implements Seek() from io.SeekStart")
	}
	pos := offset
	if f.Seeker != nil {
		var err error
		pos, err = f.Seeker(offset)
		if err != nil {
			return 0, err
		}
	}
	f.pos = pos
	return pos, nil
}

func (f *FileImpl) Sync() error {
	if f.Syncer == nil {
		return nil
	}
	return f.Syncer()
}

func (f *FileImpl) Close() error {
	if f.Closer == nil {
		return nil
	}
	return f.Closer()
}
