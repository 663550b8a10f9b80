// header.go - Page header parsing and sanity checks
package page

import (
	"github.com/cockroachdb/errors"

	"github.com/df7cb/pg-filedump/format"
)

// Header is the fixed 24-byte structure at the start of every block.
type Header struct {
	LSN             uint64
	Checksum        uint16
	Flags           uint16
	Lower           uint16
	Upper           uint16
	Special         uint16
	PageSizeVersion uint16
	PruneXID        uint32
}

// ParseHeader decodes the fixed header. It needs only the header bytes;
// whether the item array behind it was fully read is the caller's
// concern (see Header.ArrayExtent).
func ParseHeader(p []byte) (Header, error) {
	if len(p) < format.SizeOfPageHeaderData {
		return Header{}, errors.Wrapf(format.ErrShortRead, "page header: %d bytes", len(p))
	}
	logid, _ := format.Le32(p, 0)
	recoff, _ := format.Le32(p, 4)
	cksum, _ := format.Le16(p, 8)
	flags, _ := format.Le16(p, 10)
	lower, _ := format.Le16(p, 12)
	upper, _ := format.Le16(p, 14)
	special, _ := format.Le16(p, 16)
	sizeVersion, _ := format.Le16(p, 18)
	pruneXID, _ := format.Le32(p, 20)
	return Header{
		LSN: uint64(logid)<<32 | uint64(recoff), Checksum: cksum, Flags: flags,
		Lower: lower, Upper: upper, Special: special,
		PageSizeVersion: sizeVersion, PruneXID: pruneXID,
	}, nil
}

// PageSize is the size recorded in pd_pagesize_version.
func (h Header) PageSize() int { return int(h.PageSizeVersion & format.PageSizeMask) }

// LayoutVersion is the page layout generation tag.
func (h Header) LayoutVersion() int { return int(h.PageSizeVersion & format.PageVersionMask) }

// MaxOffset is the number of item pointers implied by pd_lower. A lower
// bound inside the fixed header means an empty item array, not an error.
func (h Header) MaxOffset() int {
	if h.Lower <= format.SizeOfPageHeaderData {
		return 0
	}
	return (int(h.Lower) - format.SizeOfPageHeaderData) / format.SizeOfItemID
}

// ArrayExtent is the byte length of the header plus its item array; a
// block read shorter than this cannot have its items walked.
func (h Header) ArrayExtent() int {
	return format.SizeOfPageHeaderData + h.MaxOffset()*format.SizeOfItemID
}

// FreeSpace is the gap between the item array and the tuple area.
// Unsigned arithmetic on purpose: a corrupt page with upper < lower
// shows up as an absurd value, matching the raw field report style.
func (h Header) FreeSpace() uint16 { return h.Upper - h.Lower }

// LSNLogID and LSNRecOff split the LSN for display.
func (h Header) LSNLogID() uint32  { return uint32(h.LSN >> 32) }
func (h Header) LSNRecOff() uint32 { return uint32(h.LSN) }

// FlagNames renders the pd_flags bits the way the dump prints them.
func (h Header) FlagNames() string {
	s := ""
	if h.Flags&format.PDHasFreeLines != 0 {
		s += "HAS_FREE_LINES|"
	}
	if h.Flags&format.PDPageFull != 0 {
		s += "PAGE_FULL|"
	}
	if h.Flags&format.PDAllVisible != 0 {
		s += "ALL_VISIBLE|"
	}
	if len(s) > 0 {
		s = s[:len(s)-1]
	}
	return s
}

// Valid runs the structural checks a well-formed header must pass.
// Failures are reported by the dump, never fatal.
func (h Header) Valid(blockSize int) bool {
	if h.MaxOffset() > blockSize {
		return false
	}
	if h.LayoutVersion() != format.PageLayoutVersion {
		return false
	}
	if int(h.Upper) > blockSize || h.Upper > h.Special {
		return false
	}
	if h.Lower < format.SizeOfPageHeaderData-format.SizeOfItemID || int(h.Lower) > blockSize {
		return false
	}
	if h.Upper < h.Lower {
		return false
	}
	if int(h.Special) > blockSize {
		return false
	}
	return true
}
