// index.go - Index tuple interpretation
package tuple

import (
	"github.com/cockroachdb/errors"

	"github.com/df7cb/pg-filedump/format"
)

// IndexFloor is the minimum byte count for an index item: at least the
// tuple identifier must be present.
const IndexFloor = format.SizeOfItemPointerData

// IndexTuple is the fixed 8-byte index entry header: the heap tuple it
// points at, and a size word with null/varwidth bits.
type IndexTuple struct {
	TID  ItemPointer
	Info uint16
}

func ParseIndexTuple(p []byte, off int) (IndexTuple, error) {
	if off < 0 || off+format.SizeOfIndexTupleData > len(p) {
		return IndexTuple{}, errors.Wrap(format.ErrShortRead, "index tuple")
	}
	tid, _ := ParseItemPointer(p, off)
	info, _ := format.Le16(p, off+6)
	return IndexTuple{TID: tid, Info: info}, nil
}

// Size is the tuple's self-reported total length, cross-checked against
// the item length by the dump.
func (t IndexTuple) Size() int { return int(t.Info & format.IndexSizeMask) }

func (t IndexTuple) HasNulls() bool     { return t.Info&format.IndexNullMask != 0 }
func (t IndexTuple) HasVarwidths() bool { return t.Info&format.IndexVarMask != 0 }
