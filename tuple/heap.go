// heap.go - Heap tuple header interpretation
package tuple

import (
	"github.com/cockroachdb/errors"

	"github.com/df7cb/pg-filedump/format"
)

// HeapFloor is the smallest byte count an item must have before it can
// be read as a heap tuple at all.
const HeapFloor = 24 // MAXALIGN(fixed header)

// HeapHeader is the fixed 23-byte tuple header plus the null bitmap that
// may follow it. Xmin and Xmax are stored raw; frozen-xmin mapping is
// applied by GetXmin.
type HeapHeader struct {
	Xmin      uint32
	Xmax      uint32
	Field3    uint32 // command id or xvac, by infomask
	CTID      ItemPointer
	Infomask2 uint16
	Infomask  uint16
	Hoff      uint8
	Bits      []byte // null bitmap, nil unless HEAP_HASNULL
}

// ParseHeapHeader decodes the header at the start of item. The bitmap
// slice is bounded by the item's actual length, so a corrupt attribute
// count cannot walk off the item.
func ParseHeapHeader(item []byte) (HeapHeader, error) {
	if len(item) < format.SizeOfHeapTupleHeader {
		return HeapHeader{}, errors.Wrapf(format.ErrShortRead, "heap tuple header: %d bytes", len(item))
	}
	xmin, _ := format.Le32(item, 0)
	xmax, _ := format.Le32(item, 4)
	field3, _ := format.Le32(item, 8)
	ctid, _ := ParseItemPointer(item, 12)
	mask2, _ := format.Le16(item, 18)
	mask, _ := format.Le16(item, 20)
	h := HeapHeader{
		Xmin: xmin, Xmax: xmax, Field3: field3, CTID: ctid,
		Infomask2: mask2, Infomask: mask, Hoff: item[22],
	}
	if mask&format.HeapHasNull != 0 {
		end := format.SizeOfHeapTupleHeader + format.BitmapLength(h.Natts())
		if end > len(item) {
			end = len(item)
		}
		h.Bits = item[format.SizeOfHeapTupleHeader:end]
	}
	return h, nil
}

// Natts is the attribute count packed into infomask2.
func (h HeapHeader) Natts() int { return int(h.Infomask2 & format.HeapNattsMask) }

// GetXmin maps a frozen tuple's xmin to the frozen sentinel, matching
// how the server reports it.
func (h HeapHeader) GetXmin() uint32 {
	if h.Infomask&format.HeapXminFrozen == format.HeapXminFrozen {
		return format.FrozenXID
	}
	return h.Xmin
}

// ComputedHoff is the header length implied by the flags and attribute
// count; a well-formed tuple stores exactly this in t_hoff.
func (h HeapHeader) ComputedHoff() int {
	bitmap := 0
	if h.Infomask&format.HeapHasNull != 0 {
		bitmap = format.BitmapLength(h.Natts())
	}
	return format.MaxAlign(format.SizeOfHeapTupleHeader + bitmap)
}

// IsNull reports whether 0-based attribute att is null: a clear bitmap
// bit means null. Without a bitmap no attribute is null.
func (h HeapHeader) IsNull(att int) bool {
	if h.Infomask&format.HeapHasNull == 0 {
		return false
	}
	byteIdx := att >> 3
	if byteIdx >= len(h.Bits) {
		return true
	}
	return h.Bits[byteIdx]&(1<<(uint(att)&0x07)) == 0
}

// FlagNames renders the infomask and infomask2 bits in display order.
func (h HeapHeader) FlagNames() string {
	s := ""
	mask := []struct {
		bit  uint16
		name string
	}{
		{format.HeapHasNull, "HASNULL"},
		{format.HeapHasVarWidth, "HASVARWIDTH"},
		{format.HeapHasExternal, "HASEXTERNAL"},
		{format.HeapXmaxKeyshrLock, "XMAX_KEYSHR_LOCK"},
		{format.HeapComboCID, "COMBOCID"},
		{format.HeapXmaxExclLock, "XMAX_EXCL_LOCK"},
		{format.HeapXmaxLockOnly, "XMAX_LOCK_ONLY"},
		{format.HeapXminCommitted, "XMIN_COMMITTED"},
		{format.HeapXminInvalid, "XMIN_INVALID"},
		{format.HeapXmaxCommitted, "XMAX_COMMITTED"},
		{format.HeapXmaxInvalid, "XMAX_INVALID"},
		{format.HeapXmaxIsMulti, "XMAX_IS_MULTI"},
		{format.HeapUpdated, "UPDATED"},
		{format.HeapMovedOff, "MOVED_OFF"},
		{format.HeapMovedIn, "MOVED_IN"},
	}
	for _, m := range mask {
		if h.Infomask&m.bit != 0 {
			s += m.name + "|"
		}
	}
	mask2 := []struct {
		bit  uint16
		name string
	}{
		{format.HeapKeysUpdated, "KEYS_UPDATED"},
		{format.HeapHotUpdated, "HOT_UPDATED"},
		{format.HeapOnlyTuple, "HEAP_ONLY"},
	}
	for _, m := range mask2 {
		if h.Infomask2&m.bit != 0 {
			s += m.name + "|"
		}
	}
	if len(s) > 0 {
		s = s[:len(s)-1]
	}
	return s
}
