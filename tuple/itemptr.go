// itemptr.go - Tuple identifiers
package tuple

import (
	"github.com/cockroachdb/errors"

	"github.com/df7cb/pg-filedump/format"
)

// ItemPointer locates one tuple: a 32-bit block number stored on disk as
// two 16-bit halves (high half first), plus a 1-based line pointer index.
type ItemPointer struct {
	Block uint32
	PosID uint16
}

func ParseItemPointer(p []byte, off int) (ItemPointer, error) {
	if off < 0 || off+format.SizeOfItemPointerData > len(p) {
		return ItemPointer{}, errors.Wrap(format.ErrShortRead, "item pointer")
	}
	hi, _ := format.Le16(p, off)
	lo, _ := format.Le16(p, off+2)
	pos, _ := format.Le16(p, off+4)
	return ItemPointer{Block: uint32(hi)<<16 | uint32(lo), PosID: pos}, nil
}
