// consts.go - On-disk layout constants for PostgreSQL relation files.
//
// Values are fixed by the page layout (version 4) on a little-endian,
// MAXALIGN-8 platform. Multi-byte fields are read little-endian throughout.
package format

// Block and segment geometry.
const (
	DefaultBlockSize   = 8192
	MinBlockSize       = 1024
	MaxBlockSize       = 65536
	DefaultSegmentSize = 1 << 30 // RELSEG_SIZE blocks of BLCKSZ bytes
)

// Page header layout. The item (line pointer) array starts immediately
// after the fixed header.
const (
	SizeOfPageHeaderData = 24
	SizeOfItemID         = 4

	PageLayoutVersion = 4

	// pd_pagesize_version packs the page size (high byte) and the layout
	// version (low byte).
	PageSizeMask    = 0xFF00
	PageVersionMask = 0x00FF
)

// pd_flags bits.
const (
	PDHasFreeLines = 0x0001
	PDPageFull     = 0x0002
	PDAllVisible   = 0x0004
)

// ItemState is the 2-bit lp_flags field of an item pointer.
type ItemState uint8

const (
	LPUnused ItemState = iota
	LPNormal
	LPRedirect
	LPDead
)

func (s ItemState) String() string {
	switch s {
	case LPUnused:
		return "UNUSED"
	case LPNormal:
		return "NORMAL"
	case LPRedirect:
		return "REDIRECT"
	case LPDead:
		return "DEAD"
	}
	return "UNKNOWN"
}

// Special-section discriminator values. Pages are not uniformly
// self-tagged: B-tree stores a cycle id where the others store a page id,
// so classification compares the trailing two bytes against these.
const (
	SequenceMagic = 0x1717 // first word of a sequence's special section

	MaxBTCycleID = 0xFF7F // trailing word at or below this may be B-tree
	HashPageID   = 0xFF80
	GistPageID   = 0xFF81
	SpgistPageID = 0xFF82
)

// B-tree metapage.
const (
	BTreeMagic           = 0x053162
	SizeOfBTMetaPageData = 24 // magic, version, root, level, fastroot, fastlevel
)

// Heap tuple header. The fixed part is 23 bytes; the data offset t_hoff
// is always MAXALIGNed past the optional null bitmap.
const (
	SizeOfHeapTupleHeader = 23
	SizeOfIndexTupleData  = 8
	SizeOfItemPointerData = 6
)

// t_infomask bits.
const (
	HeapHasNull        = 0x0001
	HeapHasVarWidth    = 0x0002
	HeapHasExternal    = 0x0004
	HeapXmaxKeyshrLock = 0x0010
	HeapComboCID       = 0x0020
	HeapXmaxExclLock   = 0x0040
	HeapXmaxLockOnly   = 0x0080
	HeapXminCommitted  = 0x0100
	HeapXminInvalid    = 0x0200
	HeapXmaxCommitted  = 0x0400
	HeapXmaxInvalid    = 0x0800
	HeapXmaxIsMulti    = 0x1000
	HeapUpdated        = 0x2000
	HeapMovedOff       = 0x4000
	HeapMovedIn        = 0x8000

	HeapXminFrozen = HeapXminCommitted | HeapXminInvalid
)

// t_infomask2 bits.
const (
	HeapNattsMask   = 0x07FF
	HeapKeysUpdated = 0x2000
	HeapHotUpdated  = 0x4000
	HeapOnlyTuple   = 0x8000
)

// Index tuple t_info bits.
const (
	IndexSizeMask = 0x1FFF
	IndexVarMask  = 0x4000
	IndexNullMask = 0x8000
)

// Transaction id sentinels.
const (
	InvalidXID   = 0
	BootstrapXID = 1
	FrozenXID    = 2
)

// Fixed-size field widths used by the type decoder.
const (
	NameDataLen = 64
)

// BitmapLength returns the byte length of a null bitmap covering natts
// attributes.
func BitmapLength(natts int) int { return (natts + 7) / 8 }
