// pointer.go - Out-of-line value pointers.
package toast

import (
	"github.com/cockroachdb/errors"

	"github.com/df7cb/pg-filedump/format"
)

// CompressHeaderSize is the length of the raw-size word leading a
// compressed value once its chunks are reassembled.
const CompressHeaderSize = 4

// Pointer is the on-page stand-in for an attribute stored out of line:
// an 18-byte datum carrying a tag pair and the external descriptor.
type Pointer struct {
	Tag        uint8
	RawSize    int32  // size the datum would occupy in line, header included
	ExtInfo    uint32 // external size plus compression method bits
	ValueID    uint32
	ToastRelID uint32
}

// ParsePointer reads an out-of-line pointer datum. The descriptor body
// is unaligned on disk.
func ParsePointer(raw []byte) (Pointer, error) {
	if len(raw) < format.VarHdrSzExternal+format.SizeOfVarattExternal {
		return Pointer{}, errors.Wrapf(format.ErrShortRead, "toast pointer: %d bytes", len(raw))
	}
	if !format.VarattIs1BE(raw[0]) {
		return Pointer{}, errors.Newf("not a toast pointer, length byte 0x%02x", raw[0])
	}
	rawSize, _ := format.Le32(raw, 2)
	extInfo, _ := format.Le32(raw, 6)
	valueID, _ := format.Le32(raw, 10)
	relID, _ := format.Le32(raw, 14)
	return Pointer{
		Tag:        raw[1],
		RawSize:    int32(rawSize),
		ExtInfo:    extInfo,
		ValueID:    valueID,
		ToastRelID: relID,
	}, nil
}

// OnDisk reports whether the value lives in a side relation file.
// Indirect and expanded tags only ever exist in server memory.
func (p Pointer) OnDisk() bool { return p.Tag == format.VarTagOnDisk }

// ExtSize is the size of the value as stored externally, which is the
// compressed size when compression was applied.
func (p Pointer) ExtSize() uint32 { return p.ExtInfo & format.ExtSizeMask }

// IsCompressed reports whether the external bytes are compressed. An
// external size no smaller than the in-line payload size means
// compression was skipped or saved nothing.
func (p Pointer) IsCompressed() bool {
	return p.ExtSize() < uint32(p.RawSize)-format.VarHdrSz
}

// Method is the compression method recorded in the pointer, meaningful
// only when IsCompressed.
func (p Pointer) Method() uint32 { return p.ExtInfo >> format.ExtSizeBits }

// Chunks is the chunk count implied by the external size under the
// per-chunk payload limit of a default-size side relation.
func (p Pointer) Chunks() int32 {
	return (int32(p.ExtSize())-1)/int32(MaxChunkSize(format.DefaultBlockSize)) + 1
}
