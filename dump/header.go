// header.go - Block header section.
package dump

import (
	"fmt"

	"github.com/df7cb/pg-filedump/format"
	"github.com/df7cb/pg-filedump/page"
)

// formatHeader prints the header section and runs the structural and
// checksum verifications. It reports true when the block was cut short
// inside the header or its item array, in which case the item and
// special sections cannot be walked.
func (d *Dumper) formatHeader(buf []byte, h page.Header, blkno uint32) bool {
	fmt.Fprintf(d.w, "<Header> -----\n")

	if len(buf) < format.SizeOfPageHeaderData {
		fmt.Fprintf(d.w, " Error: End of block encountered within the header."+
			" Bytes read: %4d.\n\n", len(buf))
		d.fail()
		if d.opts.HexDump {
			d.formatBinary(buf, len(buf), 0)
		}
		return true
	}

	eof := false
	maxOffset := h.MaxOffset()
	headerBytes := format.SizeOfPageHeaderData
	if maxOffset > 0 {
		if len(buf) < h.ArrayExtent() {
			headerBytes = len(buf)
			eof = true
		} else {
			headerBytes = h.ArrayExtent()
		}
	}

	fmt.Fprintf(d.w, " Block Offset: 0x%08x         Offsets: Lower    %4d (0x%04x)\n",
		d.pageOffset, h.Lower, h.Lower)
	fmt.Fprintf(d.w, " Block: Size %4d  Version %4d            Upper    %4d (0x%04x)\n",
		h.PageSize(), h.LayoutVersion(), h.Upper, h.Upper)
	fmt.Fprintf(d.w, " LSN:  logid %6d recoff 0x%08x      Special  %4d (0x%04x)\n",
		h.LSNLogID(), h.LSNRecOff(), h.Special, h.Special)
	fmt.Fprintf(d.w, " Items: %4d                      Free Space: %4d\n",
		maxOffset, h.FreeSpace())
	fmt.Fprintf(d.w, " Checksum: 0x%04x  Prune XID: 0x%08x  Flags: 0x%04x (%s)\n",
		h.Checksum, h.PruneXID, h.Flags, h.FlagNames())
	fmt.Fprintf(d.w, " Length (including item array): %d\n\n", headerBytes)

	if page.IsBTreeMeta(buf, h, d.blockSize) {
		if meta, err := page.ParseBTreeMeta(buf); err == nil {
			fmt.Fprintf(d.w, " BTree Meta Data:  Magic (0x%08x)   Version (%d)\n",
				meta.Magic, meta.Version)
			fmt.Fprintf(d.w, "                   Root:     Block (%d)  Level (%d)\n",
				meta.Root, meta.Level)
			fmt.Fprintf(d.w, "                   FastRoot: Block (%d)  Level (%d)\n\n",
				meta.FastRoot, meta.FastLevel)
			headerBytes += format.SizeOfBTMetaPageData
		}
	}

	if !h.Valid(d.blockSize) {
		fmt.Fprintf(d.w, " Error: Invalid header information.\n\n")
		d.fail()
	}

	if d.opts.Checksums && len(buf) == d.blockSize {
		delta := uint32(d.opts.segmentSize()/d.blockSize) * d.opts.SegmentNumber
		calc := page.Checksum(buf, delta+blkno)
		if calc != h.Checksum {
			fmt.Fprintf(d.w, " Error: checksum failure: calculated 0x%04x.\n\n", calc)
			d.fail()
		}
	}

	if eof {
		fmt.Fprintf(d.w, " Error: End of block encountered within the header."+
			" Bytes read: %4d.\n\n", len(buf))
		d.fail()
	}

	if d.opts.HexDump {
		d.formatBinary(buf, headerBytes, 0)
	}
	return eof
}
