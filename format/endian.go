// endian.go - Little-endian byte reading utilities
package format

import (
	"encoding/binary"

	"github.com/cockroachdb/errors"
)

// ErrShortRead reports an access past the end of the available bytes.
var ErrShortRead = errors.New("short read")

func Le16(b []byte, off int) (uint16, error) {
	if off < 0 || off+2 > len(b) {
		return 0, errors.Wrapf(ErrShortRead, "Le16 at %d", off)
	}
	return binary.LittleEndian.Uint16(b[off : off+2]), nil
}
func Le32(b []byte, off int) (uint32, error) {
	if off < 0 || off+4 > len(b) {
		return 0, errors.Wrapf(ErrShortRead, "Le32 at %d", off)
	}
	return binary.LittleEndian.Uint32(b[off : off+4]), nil
}
func Le64(b []byte, off int) (uint64, error) {
	if off < 0 || off+8 > len(b) {
		return 0, errors.Wrapf(ErrShortRead, "Le64 at %d", off)
	}
	return binary.LittleEndian.Uint64(b[off : off+8]), nil
}
