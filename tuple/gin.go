// gin.go - GIN posting data interpretation
//
// Items on a GIN posting-tree leaf are either a flat array of 6-byte
// tuple identifiers or, when the page is compressed, a run of segments:
// each segment carries a first identifier verbatim, then varbyte-encoded
// deltas that rebuild the rest by running sum.
package tuple

import (
	"github.com/cockroachdb/errors"

	"github.com/df7cb/pg-filedump/format"
)

// posting identifiers pack into 64 bits as block<<11 | offset
const postingOffsetBits = 11

// PostingSegmentHeaderSize is the fixed part of a compressed segment:
// first identifier plus the byte count of its delta stream.
const PostingSegmentHeaderSize = format.SizeOfItemPointerData + 2

// ParsePostingArray reads an uncompressed posting list: a flat array of
// item pointers filling the item. Trailing bytes that do not make up a
// whole pointer are left to the caller to report.
func ParsePostingArray(item []byte) []ItemPointer {
	n := len(item) / format.SizeOfItemPointerData
	out := make([]ItemPointer, 0, n)
	for i := 0; i < n; i++ {
		p, err := ParseItemPointer(item, i*format.SizeOfItemPointerData)
		if err != nil {
			break
		}
		out = append(out, p)
	}
	return out
}

// PostingSegment is one compressed posting-list segment with its decoded
// identifiers (the first entry included).
type PostingSegment struct {
	Off    int
	NBytes int
	TIDs   []ItemPointer
}

// ParsePostingSegments walks the compressed segments of an item front to
// back, strictly bounded by the item length. A segment whose declared
// delta stream would cross the end of the item stops the walk with an
// error naming the offset.
func ParsePostingSegments(item []byte) ([]PostingSegment, error) {
	var segs []PostingSegment
	off := 0
	for off+PostingSegmentHeaderSize <= len(item) {
		first, err := ParseItemPointer(item, off)
		if err != nil {
			return segs, err
		}
		nbytes16, _ := format.Le16(item, off+format.SizeOfItemPointerData)
		nbytes := int(nbytes16)
		end := off + PostingSegmentHeaderSize + nbytes
		if end > len(item) {
			return segs, errors.Newf("posting segment at %d runs past item end", off)
		}
		seg := PostingSegment{Off: off, NBytes: nbytes}
		val := packPosting(first)
		seg.TIDs = append(seg.TIDs, first)
		for p := off + PostingSegmentHeaderSize; p < end; {
			var delta uint64
			delta, p, err = decodeVarbyte(item, p, end)
			if err != nil {
				return append(segs, seg), err
			}
			val += delta
			seg.TIDs = append(seg.TIDs, unpackPosting(val))
		}
		segs = append(segs, seg)
		off += PostingSegmentHeaderSize + format.ShortAlign(nbytes)
	}
	return segs, nil
}

func packPosting(p ItemPointer) uint64 {
	return uint64(p.Block)<<postingOffsetBits | uint64(p.PosID)&(1<<postingOffsetBits-1)
}

func unpackPosting(val uint64) ItemPointer {
	return ItemPointer{
		Block: uint32(val >> postingOffsetBits),
		PosID: uint16(val & (1<<postingOffsetBits - 1)),
	}
}

// decodeVarbyte reads one delta: 7-bit groups, low group first, high bit
// set on every byte but the last.
func decodeVarbyte(p []byte, pos, end int) (uint64, int, error) {
	var val uint64
	shift := uint(0)
	for {
		if pos >= end {
			return 0, pos, errors.New("varbyte delta truncated")
		}
		b := p[pos]
		pos++
		val |= uint64(b&0x7F) << shift
		if b&0x80 == 0 {
			return val, pos, nil
		}
		shift += 7
		if shift > 63 {
			return 0, pos, errors.New("varbyte delta overlong")
		}
	}
}
