// item.go - Line pointer (item id) array entries
package page

import (
	"github.com/df7cb/pg-filedump/format"
)

// ItemID is one 4-byte entry of the line pointer array: a 15-bit byte
// offset, a 2-bit state, and a 15-bit length.
type ItemID struct {
	State  format.ItemState
	Offset int
	Length int
}

// ParseItemID decodes the item pointer at array index idx (0-based; the
// on-disk numbering the dump prints is 1-based).
func ParseItemID(p []byte, idx int) (ItemID, error) {
	raw, err := format.Le32(p, format.SizeOfPageHeaderData+idx*format.SizeOfItemID)
	if err != nil {
		return ItemID{}, err
	}
	return ItemID{
		State:  format.ItemState((raw >> 15) & 0x03),
		Offset: int(raw & 0x7FFF),
		Length: int((raw >> 17) & 0x7FFF),
	}, nil
}

// Bytes slices the item's payload out of the block, or nil if the item
// extends past the bytes actually read.
func (id ItemID) Bytes(block []byte) []byte {
	if id.Offset < 0 || id.Length < 0 || id.Offset+id.Length > len(block) {
		return nil
	}
	return block[id.Offset : id.Offset+id.Length]
}
