// relmap.go - Filenode map (pg_filenode.map) listing.
//
// The map is a fixed 512-byte file: magic, entry count, a bounded array
// of oid/filenode pairs, then a CRC-32C over everything before it.
package control

import (
	"fmt"
	"hash/crc32"
	"io"

	"github.com/df7cb/pg-filedump/format"
)

const (
	RelMapFileSize = 512
	RelMapMagic    = 0x592717
	MaxMappings    = 62

	relMapCRCOffset = 8 + 8*MaxMappings
)

// Mapping pairs a catalog oid with the filenode currently backing it.
type Mapping struct {
	OID      uint32
	Filenode uint32
}

// RelMapCRCOf computes the checksum a filenode map should carry.
func RelMapCRCOf(buf []byte) uint32 {
	return crc32.Checksum(buf[:relMapCRCOffset], castagnoli)
}

// FormatRelMap lists the filenode map. The magic and CRC are verified
// but never fatal; a short file is. Returns the process exit code.
func FormatRelMap(w io.Writer, buf []byte) int {
	if len(buf) != RelMapFileSize {
		fmt.Fprintf(w, "Read %d bytes, expected %d\n", len(buf), RelMapFileSize)
		return 1
	}

	magic, _ := format.Le32(buf, 0)
	fmt.Fprintf(w, "Magic Number: 0x%x", magic)
	if magic == RelMapMagic {
		fmt.Fprintf(w, " (CORRECT)\n")
	} else {
		fmt.Fprintf(w, " (INCORRECT)\n")
	}

	count, _ := format.Le32(buf, 4)
	numMappings := int(int32(count))
	fmt.Fprintf(w, "Num Mappings: %d\n", numMappings)
	fmt.Fprintf(w, "Detailed Mappings list:\n")

	loops := numMappings
	if numMappings > MaxMappings {
		loops = MaxMappings
		fmt.Fprintf(w, "  NOTE: listing has been limited to the first %d mappings\n", MaxMappings)
		fmt.Fprintf(w, "        (perhaps your file is not a valid pg_filenode.map file?)\n")
	}
	for i := 0; i < loops; i++ {
		oid, _ := format.Le32(buf, 8+8*i)
		node, _ := format.Le32(buf, 12+8*i)
		fmt.Fprintf(w, "OID: %d\tFilenode: %d\n", oid, node)
	}

	stored, _ := format.Le32(buf, relMapCRCOffset)
	if RelMapCRCOf(buf) == stored {
		fmt.Fprintf(w, "CRC: Correct\n")
	} else {
		fmt.Fprintf(w, "CRC: Not Correct\n")
	}
	return 0
}
