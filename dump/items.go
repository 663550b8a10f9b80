// items.go - Item listing and per-item interpretation.
package dump

import (
	"fmt"

	"github.com/df7cb/pg-filedump/format"
	"github.com/df7cb/pg-filedump/page"
	"github.com/df7cb/pg-filedump/tuple"
)

// itemFormat is the per-block interpretation applied to item bodies.
type itemFormat int

const (
	itemFormatHeap itemFormat = iota
	itemFormatIndex
	itemFormatSpgInner
	itemFormatSpgLeaf
	itemFormatPostingArray
	itemFormatPostingSegments
)

// deriveItemFormat picks the interpretation for a block's items: a
// user override wins, otherwise the special-section kind decides, with
// the SP-GiST and GIN opaques consulted for their leaf and posting
// flags.
func (d *Dumper) deriveItemFormat(buf []byte, h page.Header) itemFormat {
	switch d.opts.FormatAs {
	case FormatIndex:
		return itemFormatIndex
	case FormatHeap:
		return itemFormatHeap
	}
	switch d.kind {
	case page.KindBTree, page.KindHash, page.KindGist:
		return itemFormatIndex
	case page.KindGin:
		if o, err := page.ParseGinOpaque(buf, int(h.Special)); err == nil && o.IsPostingLeaf() {
			if o.Flags&page.GinCompressed != 0 {
				return itemFormatPostingSegments
			}
			return itemFormatPostingArray
		}
		return itemFormatIndex
	case page.KindSpgist:
		if o, err := page.ParseSpgistOpaque(buf, int(h.Special)); err == nil && o.Flags&page.SpgistLeaf != 0 {
			return itemFormatSpgLeaf
		}
		return itemFormatSpgInner
	}
	return itemFormatHeap
}

// formatItemBlock walks the item array, printing each pointer and, per
// options, the interpreted or hex-dumped item body. B-tree metapages
// have no items where the array would be.
func (d *Dumper) formatItemBlock(buf []byte, h page.Header) {
	if page.IsBTreeMeta(buf, h, d.blockSize) {
		return
	}
	fmt.Fprintf(d.w, "<Data> -----\n")

	maxOffset := h.MaxOffset()
	switch {
	case maxOffset == 0:
		fmt.Fprintf(d.w, " Empty block - no items listed \n\n")
		return
	case maxOffset > d.blockSize:
		fmt.Fprintf(d.w, " Error: Item index corrupt on block. Offset: <%d>.\n\n", maxOffset)
		d.fail()
		return
	}

	style := d.deriveItemFormat(buf, h)
	for x := 1; x <= maxOffset; x++ {
		it, err := page.ParseItemID(buf, x-1)
		if err != nil {
			break
		}
		fmt.Fprintf(d.w, " Item %3d -- Length: %4d  Offset: %4d (0x%04x)  Flags: %s\n",
			x, it.Length, it.Offset, it.Offset, it.State)

		if it.Offset+it.Length > d.blockSize || it.Offset+it.Length > len(buf) {
			fmt.Fprintf(d.w, "  Error: Item contents extend beyond block.\n"+
				"         BlockSize<%d> Bytes Read<%d> Item Start<%d>.\n",
				d.blockSize, len(buf), it.Offset+it.Length)
			d.fail()
			continue
		}
		body := buf[it.Offset : it.Offset+it.Length]

		if d.opts.ItemDetail {
			d.formatItem(buf, it, style)
		}
		if d.opts.HexDump {
			d.formatBinary(buf, it.Length, it.Offset)
		}

		// items too short for visibility fields cannot be old tuples
		removed := false
		if d.opts.IgnoreOld && it.Length >= 8 {
			xmax, _ := format.Le32(body, 4)
			if xmax != 0 {
				fmt.Fprintf(d.w, "tuple was removed by transaction #%d\n", xmax)
				removed = true
			}
		}
		if !removed && d.opts.Decoder != nil && it.State == format.LPNormal {
			d.opts.Decoder.DecodeTuple(d.w, body)
		}

		if x == maxOffset {
			fmt.Fprintf(d.w, "\n")
		}
	}
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}

// formatItem interprets one item body per the block's item format.
// Items below the floor for their format report once and move on;
// zero-length items say nothing at all.
func (d *Dumper) formatItem(buf []byte, it page.ItemID, style itemFormat) {
	body := buf[it.Offset : it.Offset+it.Length]

	switch style {
	case itemFormatIndex:
		if len(body) < tuple.IndexFloor {
			if len(body) > 0 {
				fmt.Fprintf(d.w, "  Error: This item does not look like an index item.\n")
				d.fail()
			}
			return
		}
		tid, _ := tuple.ParseItemPointer(body, 0)
		info := uint16(0)
		if len(body) >= format.SizeOfIndexTupleData {
			info, _ = format.Le16(body, 6)
		}
		itup := tuple.IndexTuple{TID: tid, Info: info}
		fmt.Fprintf(d.w, "  Block Id: %d  linp Index: %d  Size: %d\n"+
			"  Has Nulls: %d  Has Varwidths: %d\n\n",
			itup.TID.Block, itup.TID.PosID, itup.Size(),
			b2i(itup.HasNulls()), b2i(itup.HasVarwidths()))
		if len(body) != itup.Size() {
			fmt.Fprintf(d.w, "  Error: Item size difference. Given <%d>, "+
				"Internal <%d>.\n", len(body), itup.Size())
			d.fail()
		}

	case itemFormatSpgInner:
		if len(body) < tuple.SpgistInnerHeaderSize {
			if len(body) > 0 {
				fmt.Fprintf(d.w, "  Error: This item does not look like an SPGiST item.\n")
				d.fail()
			}
			return
		}
		inner, _ := tuple.ParseSpgistInner(body)
		fmt.Fprintf(d.w, "  State: %s  allTheSame: %d nNodes: %d prefixSize: %d\n\n",
			inner.State, b2i(inner.AllTheSame), inner.NNodes, inner.PrefixSize)
		if len(body) != inner.Size {
			fmt.Fprintf(d.w, "  Error: Item size difference. Given <%d>, "+
				"Internal <%d>.\n", len(body), inner.Size)
			d.fail()
		} else if inner.PrefixSize == format.MaxAlign(inner.PrefixSize) {
			if d.opts.HexDump && tuple.SpgistInnerHeaderSize+inner.PrefixSize <= len(body) {
				d.formatBinary(buf, tuple.SpgistInnerHeaderSize+inner.PrefixSize, it.Offset)
			}
			for _, n := range inner.WalkNodes(body) {
				fmt.Fprintf(d.w, "  Node %2d:  Downlink: %d/%d  Size: %d  Null: %d\n",
					n.Index, n.Node.TID.Block, n.Node.TID.PosID,
					n.Node.Size(), b2i(n.Node.HasNulls()))
				if d.opts.HexDump && n.Off+n.Node.Size() <= len(body) {
					d.formatBinary(buf, n.Node.Size(), it.Offset+n.Off)
				}
			}
		}
		fmt.Fprintf(d.w, "\n")

	case itemFormatSpgLeaf:
		if len(body) < tuple.SpgistLeafHeaderSize {
			if len(body) > 0 {
				fmt.Fprintf(d.w, "  Error: This item does not look like an SPGiST item.\n")
				d.fail()
			}
			return
		}
		leaf, _ := tuple.ParseSpgistLeaf(body)
		fmt.Fprintf(d.w, "  State: %s  nextOffset: %d  Block Id: %d  linp Index: %d\n\n",
			leaf.State, leaf.NextOffset, leaf.HeapPtr.Block, leaf.HeapPtr.PosID)
		if len(body) != leaf.Size {
			fmt.Fprintf(d.w, "  Error: Item size difference. Given <%d>, "+
				"Internal <%d>.\n", len(body), leaf.Size)
			d.fail()
		}

	case itemFormatPostingArray:
		if len(body) == 0 {
			return
		}
		tids := tuple.ParsePostingArray(body)
		fmt.Fprintf(d.w, "  Posting Array: %d entries\n", len(tids))
		d.writeTIDList(tids)
		if len(tids)*format.SizeOfItemPointerData != len(body) {
			fmt.Fprintf(d.w, "  Error: Item size difference. Given <%d>, "+
				"Internal <%d>.\n", len(body), len(tids)*format.SizeOfItemPointerData)
			d.fail()
		}
		fmt.Fprintf(d.w, "\n")

	case itemFormatPostingSegments:
		if len(body) == 0 {
			return
		}
		segs, err := tuple.ParsePostingSegments(body)
		for _, seg := range segs {
			fmt.Fprintf(d.w, "  Posting Segment at %4d -- Bytes: %4d  Entries: %4d\n",
				seg.Off, seg.NBytes, len(seg.TIDs))
			d.writeTIDList(seg.TIDs)
		}
		if err != nil {
			fmt.Fprintf(d.w, "  Error: %v.\n", err)
			d.fail()
		}
		fmt.Fprintf(d.w, "\n")

	default:
		if len(body) < tuple.HeapFloor {
			if len(body) > 0 {
				fmt.Fprintf(d.w, "  Error: This item does not look like a heap item.\n")
				d.fail()
			}
			return
		}
		hdr, _ := tuple.ParseHeapHeader(body)
		fmt.Fprintf(d.w, "  XMIN: %d  XMAX: %d  CID|XVAC: %d",
			hdr.GetXmin(), hdr.Xmax, hdr.Field3)
		fmt.Fprintf(d.w, "\n"+
			"  Block Id: %d  linp Index: %d   Attributes: %d   Size: %d\n",
			hdr.CTID.Block, hdr.CTID.PosID, hdr.Natts(), hdr.Hoff)
		fmt.Fprintf(d.w, "  infomask: 0x%04x (%s) \n", hdr.Infomask, hdr.FlagNames())

		if hdr.ComputedHoff() != int(hdr.Hoff) {
			fmt.Fprintf(d.w, "  Error: Computed header length not equal to header size.\n"+
				"         Computed <%d>  Header: <%d>\n", hdr.ComputedHoff(), hdr.Hoff)
			d.fail()
		} else if len(hdr.Bits) > 0 {
			fmt.Fprintf(d.w, "  t_bits: ")
			for i, b := range hdr.Bits {
				fmt.Fprintf(d.w, "[%d]: 0x%02x ", i, b)
				if i&0x03 == 0x03 && i < len(hdr.Bits)-1 {
					fmt.Fprintf(d.w, "\n          ")
				}
			}
			fmt.Fprintf(d.w, "\n")
		}
		fmt.Fprintf(d.w, "\n")
	}
}

// writeTIDList prints decoded posting identifiers four per line.
func (d *Dumper) writeTIDList(tids []tuple.ItemPointer) {
	for i, tid := range tids {
		if i%4 == 0 {
			fmt.Fprintf(d.w, "  ")
		}
		fmt.Fprintf(d.w, " (%d,%d)", tid.Block, tid.PosID)
		if i%4 == 3 || i == len(tids)-1 {
			fmt.Fprintf(d.w, "\n")
		}
	}
}
