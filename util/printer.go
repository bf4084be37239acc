package util

import (
	"fmt"
	"strings"
)

const bytesPerRow = 16

// DumpSectors formats sectors read from a device in hex and ASCII, like xxd.
//
// b holds whole sectors starting at sector firstSector. Each sector gets a heading line and each
// row is prefixed with its byte offset on the device. Rows that repeat the previous row are
// collapsed into a single "*" line within a sector.
func DumpSectors(b []byte, firstSector uint32, sectorSize int) string {
	var out strings.Builder
	if sectorSize <= 0 {
		return ""
	}
	for s := 0; s*sectorSize < len(b); s++ {
		sector := b[s*sectorSize:]
		if len(sector) > sectorSize {
			sector = sector[:sectorSize]
		}
		base := (int64(firstSector) + int64(s)) * int64(sectorSize)
		fmt.Fprintf(&out, "sector %d:\n", int64(firstSector)+int64(s))

		var prev []byte
		collapsed := false
		for off := 0; off < len(sector); off += bytesPerRow {
			end := off + bytesPerRow
			if end > len(sector) {
				end = len(sector)
			}
			row := sector[off:end]
			if prev != nil && string(prev) == string(row) && end != len(sector) {
				if !collapsed {
					out.WriteString("*\n")
					collapsed = true
				}
				continue
			}
			collapsed = false
			prev = row
			out.WriteString(dumpRow(base+int64(off), row))
		}
	}
	return out.String()
}

func dumpRow(pos int64, row []byte) string {
	var hex, ascii strings.Builder
	for j := 0; j < bytesPerRow; j++ {
		// every 8 bytes add extra spacing to make it easier to read
		if j%8 == 0 {
			hex.WriteByte(' ')
		}
		if j >= len(row) {
			hex.WriteString("   ")
			continue
		}
		fmt.Fprintf(&hex, " %02x", row[j])
		if row[j] >= 32 && row[j] <= 126 {
			ascii.WriteByte(row[j])
		} else {
			ascii.WriteByte('.')
		}
	}
	return fmt.Sprintf("%08x:%s  %s\n", pos, hex.String(), ascii.String())
}
