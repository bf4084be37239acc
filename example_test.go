package blockdevice_test

import (
	"bytes"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	blockdevice "github.com/diskfs/go-blockdevice"
	"github.com/diskfs/go-blockdevice/backend"
)

func check(err error) {
	if err != nil {
		log.Fatal(err)
	}
}

// Write sector 2 of a 4 sector memory device, read it back, and try to read past the end.
func ExampleNewMemory() {
	dev, err := blockdevice.NewMemory(4)
	check(err)
	defer dev.Close()

	sector := bytes.Repeat([]byte{0xab}, blockdevice.SectorSize)
	check(dev.WriteSectors(2, 1, sector))

	b := make([]byte, blockdevice.SectorSize)
	check(dev.ReadSectors(2, 1, b))
	fmt.Println(bytes.Equal(sector, b))

	err = dev.ReadSectors(3, 2, make([]byte, 2*blockdevice.SectorSize))
	fmt.Println(errors.Is(err, backend.ErrOutOfRange))
	// Output:
	// true
	// true
}

// Sector 0 written through one handle survives into the next.
func ExampleOpenFile() {
	dir, err := os.MkdirTemp("", "blockdevice")
	check(err)
	defer os.RemoveAll(dir)
	diskImg := filepath.Join(dir, "disk.img")

	dev, err := blockdevice.OpenFile(diskImg, 16)
	check(err)
	check(dev.WriteSectors(0, 1, bytes.Repeat([]byte("FAT!"), blockdevice.SectorSize/4)))
	check(dev.Close())

	dev, err = blockdevice.OpenFile(diskImg, 16)
	check(err)
	defer dev.Close()
	b := make([]byte, blockdevice.SectorSize)
	check(dev.ReadSectors(0, 1, b))
	fmt.Println(string(b[:8]))
	// Output: FAT!FAT!
}
