// varatt.go - Varlena length-tag helpers
//
// A variable-length datum starts with a tag carried in its first byte
// (little-endian layout): odd values are 1-byte headers, 0x01 marks an
// out-of-line TOAST pointer, and even values are 4-byte headers whose low
// two bits distinguish plain from compressed payloads.
package format

// Header widths.
const (
	VarHdrSz           = 4
	VarHdrSzShort      = 1
	VarHdrSzCompressed = 8 // 4-byte length word + rawsize/method word
	VarHdrSzExternal   = 2 // 0x01 tag byte + vartag byte
)

// External datum tags (second byte after the 0x01 marker).
const (
	VarTagIndirect   = 1
	VarTagExpandedRO = 2
	VarTagExpandedRW = 3
	VarTagOnDisk     = 18
)

// SizeOfVarattExternal is the unaligned on-disk TOAST pointer body:
// rawsize, extinfo, value id, relation id.
const SizeOfVarattExternal = 16

// Compression accounting. extinfo and tcinfo keep the size in the low 30
// bits and the compression method in the top 2.
const (
	ExtSizeBits = 30
	ExtSizeMask = (1 << ExtSizeBits) - 1

	PGLZCompressionID = 0
	LZ4CompressionID  = 1
)

func VarattIs1B(b byte) bool  { return b&0x01 == 0x01 }
func VarattIs1BE(b byte) bool { return b == 0x01 }
func VarattIs4BU(b byte) bool { return b&0x03 == 0x00 }
func VarattIs4BC(b byte) bool { return b&0x03 == 0x02 }

// VarSize1B and VarSize4B return the total datum length including the
// header itself.
func VarSize1B(b byte) int      { return int((b >> 1) & 0x7F) }
func VarSize4B(word uint32) int { return int((word >> 2) & 0x3FFFFFFF) }
