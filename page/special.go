// special.go - Special-section classification and per-kind views
//
// The trailing region of a block is not uniformly self-describing: its
// kind has to be inferred from its size and, where sizes collide, from
// probe bytes at the very end of the page.
package page

import (
	"github.com/cockroachdb/errors"

	"github.com/df7cb/pg-filedump/format"
)

// Kind is the classified interpretation of a block's special section.
type Kind int

const (
	KindNone Kind = iota
	KindSequence
	KindBTree
	KindHash
	KindGist
	KindGin
	KindSpgist
	KindErrorUnknown
	KindErrorBoundary
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "<None>"
	case KindSequence:
		return "Sequence"
	case KindBTree:
		return "BTree"
	case KindHash:
		return "Hash"
	case KindGist:
		return "GIST"
	case KindGin:
		return "GIN"
	case KindSpgist:
		return "SPGIST"
	case KindErrorUnknown:
		return "Unknown"
	case KindErrorBoundary:
		return "Boundary"
	}
	return "Invalid"
}

// Opaque struct sizes after MAXALIGN padding.
const (
	SizeOfSequenceMagic = 8 // MAXALIGN(uint32)
	SizeOfSpgistOpaque  = 8
	SizeOfGinOpaque     = 8
	SizeOfBTreeOpaque   = 16
	SizeOfHashOpaque    = 16
	SizeOfGistOpaque    = 16
)

// Classify determines which sub-format occupies the block's trailing
// region. The probe order is load-bearing and must not be reshuffled:
// several kinds share a special size in some layout generations, and not
// every kind tags itself, so the sequence magic is tried before the
// SP-GiST and GIN ids, and the B-tree cycle-id ceiling before the hash
// and GiST tags. A special offset of zero, past the block, or past the
// bytes actually read is a boundary error; a probe whose bytes fall
// beyond a short read degrades the block to unknown instead.
func Classify(block []byte, h Header, blockSize int) Kind {
	if len(block) <= format.SizeOfPageHeaderData {
		return KindErrorUnknown
	}
	special := int(h.Special)
	if special == 0 || special > blockSize || special > len(block) {
		return KindErrorBoundary
	}
	size := blockSize - special
	full := len(block) == blockSize

	tailTag := func() uint16 {
		t, _ := format.Le16(block, blockSize-2)
		return t
	}

	switch {
	case size == 0:
		return KindNone
	case size == SizeOfSequenceMagic:
		if special+4 <= len(block) {
			if v, _ := format.Le32(block, special); v == format.SequenceMagic {
				return KindSequence
			}
		}
		if !full {
			return KindErrorUnknown
		}
		if size == SizeOfSpgistOpaque && tailTag() == format.SpgistPageID {
			return KindSpgist
		}
		if size == SizeOfGinOpaque {
			return KindGin
		}
		return KindErrorUnknown
	case size == SizeOfSpgistOpaque && full && tailTag() == format.SpgistPageID:
		return KindSpgist
	case size == SizeOfGinOpaque:
		return KindGin
	case size > 2 && full:
		switch tag := tailTag(); {
		case tag <= format.MaxBTCycleID && size == SizeOfBTreeOpaque:
			return KindBTree
		case tag == format.HashPageID && size == SizeOfHashOpaque:
			return KindHash
		case tag == format.GistPageID && size == SizeOfGistOpaque:
			return KindGist
		}
		return KindErrorUnknown
	}
	return KindErrorUnknown
}

// BTreeOpaque is the 16-byte B-tree special section. Level doubles as
// the next-xid field on deleted pages.
type BTreeOpaque struct {
	Prev    uint32
	Next    uint32
	Level   uint32
	Flags   uint16
	CycleID uint16
}

func ParseBTreeOpaque(block []byte, special int) (BTreeOpaque, error) {
	if special < 0 || special+SizeOfBTreeOpaque > len(block) {
		return BTreeOpaque{}, errors.Wrap(format.ErrShortRead, "btree special")
	}
	prev, _ := format.Le32(block, special)
	next, _ := format.Le32(block, special+4)
	level, _ := format.Le32(block, special+8)
	flags, _ := format.Le16(block, special+12)
	cycle, _ := format.Le16(block, special+14)
	return BTreeOpaque{Prev: prev, Next: next, Level: level, Flags: flags, CycleID: cycle}, nil
}

// B-tree special flags.
const (
	BTPLeaf            = 1 << 0
	BTPRoot            = 1 << 1
	BTPDeleted         = 1 << 2
	BTPMeta            = 1 << 3
	BTPHalfDead        = 1 << 4
	BTPSplitEnd        = 1 << 5
	BTPHasGarbage      = 1 << 6
	BTPIncompleteSplit = 1 << 7
)

func (o BTreeOpaque) FlagNames() string {
	return joinFlags([]flagName{
		{BTPLeaf, "LEAF"},
		{BTPRoot, "ROOT"},
		{BTPDeleted, "DELETED"},
		{BTPMeta, "META"},
		{BTPHalfDead, "HALFDEAD"},
		{BTPSplitEnd, "SPLITEND"},
		{BTPHasGarbage, "HASGARBAGE"},
		{BTPIncompleteSplit, "INCOMPLETESPLIT"},
	}, uint32(o.Flags))
}

// BTreeMeta is the metapage payload stored right after the page header
// on a B-tree's block 0.
type BTreeMeta struct {
	Magic     uint32
	Version   uint32
	Root      uint32
	Level     uint32
	FastRoot  uint32
	FastLevel uint32
}

// IsBTreeMeta reports whether a fully read block carries a B-tree
// metapage: B-tree-sized special, plausible cycle id, META flag set.
func IsBTreeMeta(block []byte, h Header, blockSize int) bool {
	if blockSize-int(h.Special) != SizeOfBTreeOpaque || len(block) != blockSize {
		return false
	}
	o, err := ParseBTreeOpaque(block, int(h.Special))
	if err != nil {
		return false
	}
	return o.CycleID <= format.MaxBTCycleID && o.Flags&BTPMeta != 0
}

func ParseBTreeMeta(block []byte) (BTreeMeta, error) {
	off := format.SizeOfPageHeaderData
	if off+format.SizeOfBTMetaPageData > len(block) {
		return BTreeMeta{}, errors.Wrap(format.ErrShortRead, "btree meta")
	}
	magic, _ := format.Le32(block, off)
	version, _ := format.Le32(block, off+4)
	root, _ := format.Le32(block, off+8)
	level, _ := format.Le32(block, off+12)
	fastRoot, _ := format.Le32(block, off+16)
	fastLevel, _ := format.Le32(block, off+20)
	return BTreeMeta{
		Magic: magic, Version: version, Root: root, Level: level,
		FastRoot: fastRoot, FastLevel: fastLevel,
	}, nil
}

// HashOpaque is the 16-byte hash special section.
type HashOpaque struct {
	PrevBlock uint32
	NextBlock uint32
	Bucket    uint32
	Flags     uint16
	PageID    uint16
}

func ParseHashOpaque(block []byte, special int) (HashOpaque, error) {
	if special < 0 || special+SizeOfHashOpaque > len(block) {
		return HashOpaque{}, errors.Wrap(format.ErrShortRead, "hash special")
	}
	prev, _ := format.Le32(block, special)
	next, _ := format.Le32(block, special+4)
	bucket, _ := format.Le32(block, special+8)
	flags, _ := format.Le16(block, special+12)
	pageID, _ := format.Le16(block, special+14)
	return HashOpaque{PrevBlock: prev, NextBlock: next, Bucket: bucket, Flags: flags, PageID: pageID}, nil
}

// Hash special flags.
const (
	LHOverflowPage = 1 << 0
	LHBucketPage   = 1 << 1
	LHBitmapPage   = 1 << 2
	LHMetaPage     = 1 << 3
)

func (o HashOpaque) FlagNames() string {
	return joinFlags([]flagName{
		{LHOverflowPage, "OVERFLOW"},
		{LHBucketPage, "BUCKET"},
		{LHBitmapPage, "BITMAP"},
		{LHMetaPage, "META"},
	}, uint32(o.Flags))
}

// GistOpaque is the 16-byte GiST special section.
type GistOpaque struct {
	NSNLogID  uint32
	NSNRecOff uint32
	RightLink uint32
	Flags     uint16
	PageID    uint16
}

func ParseGistOpaque(block []byte, special int) (GistOpaque, error) {
	if special < 0 || special+SizeOfGistOpaque > len(block) {
		return GistOpaque{}, errors.Wrap(format.ErrShortRead, "gist special")
	}
	logid, _ := format.Le32(block, special)
	recoff, _ := format.Le32(block, special+4)
	right, _ := format.Le32(block, special+8)
	flags, _ := format.Le16(block, special+12)
	pageID, _ := format.Le16(block, special+14)
	return GistOpaque{NSNLogID: logid, NSNRecOff: recoff, RightLink: right, Flags: flags, PageID: pageID}, nil
}

// GiST special flags.
const (
	FLeaf          = 1 << 0
	FDeleted       = 1 << 1
	FTuplesDeleted = 1 << 2
	FFollowRight   = 1 << 3
)

func (o GistOpaque) FlagNames() string {
	return joinFlags([]flagName{
		{FLeaf, "LEAF"},
		{FDeleted, "DELETED"},
		{FTuplesDeleted, "TUPLES_DELETED"},
		{FFollowRight, "FOLLOW_RIGHT"},
	}, uint32(o.Flags))
}

// GinOpaque is the 8-byte GIN special section.
type GinOpaque struct {
	RightLink uint32
	Maxoff    uint16
	Flags     uint16
}

func ParseGinOpaque(block []byte, special int) (GinOpaque, error) {
	if special < 0 || special+SizeOfGinOpaque > len(block) {
		return GinOpaque{}, errors.Wrap(format.ErrShortRead, "gin special")
	}
	right, _ := format.Le32(block, special)
	maxoff, _ := format.Le16(block, special+4)
	flags, _ := format.Le16(block, special+6)
	return GinOpaque{RightLink: right, Maxoff: maxoff, Flags: flags}, nil
}

// GIN special flags.
const (
	GinData            = 1 << 0
	GinLeaf            = 1 << 1
	GinDeleted         = 1 << 2
	GinMeta            = 1 << 3
	GinList            = 1 << 4
	GinListFullrow     = 1 << 5
	GinIncompleteSplit = 1 << 6
	GinCompressed      = 1 << 7
)

func (o GinOpaque) FlagNames() string {
	return joinFlags([]flagName{
		{GinData, "DATA"},
		{GinLeaf, "LEAF"},
		{GinDeleted, "DELETED"},
		{GinMeta, "META"},
		{GinList, "LIST"},
		{GinListFullrow, "FULLROW"},
		{GinIncompleteSplit, "INCOMPLETESPLIT"},
		{GinCompressed, "COMPRESSED"},
	}, uint32(o.Flags))
}

// IsPostingLeaf reports whether the page's items hold posting data
// rather than index entries.
func (o GinOpaque) IsPostingLeaf() bool {
	return o.Flags&GinData != 0 && o.Flags&GinLeaf != 0
}

// SpgistOpaque is the 8-byte SP-GiST special section.
type SpgistOpaque struct {
	Flags        uint16
	NRedirection uint16
	NPlaceholder uint16
	PageID       uint16
}

func ParseSpgistOpaque(block []byte, special int) (SpgistOpaque, error) {
	if special < 0 || special+SizeOfSpgistOpaque > len(block) {
		return SpgistOpaque{}, errors.Wrap(format.ErrShortRead, "spgist special")
	}
	flags, _ := format.Le16(block, special)
	nRedir, _ := format.Le16(block, special+2)
	nPlace, _ := format.Le16(block, special+4)
	pageID, _ := format.Le16(block, special+6)
	return SpgistOpaque{Flags: flags, NRedirection: nRedir, NPlaceholder: nPlace, PageID: pageID}, nil
}

// SP-GiST special flags.
const (
	SpgistMeta    = 1 << 0
	SpgistDeleted = 1 << 1
	SpgistLeaf    = 1 << 2
	SpgistNulls   = 1 << 3
)

func (o SpgistOpaque) FlagNames() string {
	return joinFlags([]flagName{
		{SpgistMeta, "META"},
		{SpgistDeleted, "DELETED"},
		{SpgistLeaf, "LEAF"},
		{SpgistNulls, "NULLS"},
	}, uint32(o.Flags))
}

type flagName struct {
	bit  uint32
	name string
}

func joinFlags(names []flagName, flags uint32) string {
	s := ""
	for _, fn := range names {
		if flags&fn.bit != 0 {
			s += fn.name + "|"
		}
	}
	if len(s) > 0 {
		s = s[:len(s)-1]
	}
	return s
}
