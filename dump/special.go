// special.go - Special-section formatting.
package dump

import (
	"fmt"

	"github.com/df7cb/pg-filedump/format"
	"github.com/df7cb/pg-filedump/page"
)

func (d *Dumper) invalidSpecial() {
	fmt.Fprintf(d.w, " Error: Invalid special section encountered.\n")
	d.fail()
}

// formatSpecial prints the index-specific view of the block's trailing
// region, then its hex dump when requested. Opaque structs that cannot
// be read back from a partial block degrade to the invalid-section
// error instead of fabricating fields.
func (d *Dumper) formatSpecial(buf []byte, h page.Header) {
	fmt.Fprintf(d.w, "<Special Section> -----\n")

	special := int(h.Special)
	specialSize := 0
	if d.blockSize >= special {
		specialSize = d.blockSize - special
	}

	switch d.kind {
	case page.KindErrorUnknown, page.KindErrorBoundary:
		d.invalidSpecial()

	case page.KindSequence:
		fmt.Fprintf(d.w, " Sequence: 0x%08x\n", format.SequenceMagic)

	case page.KindBTree:
		o, err := page.ParseBTreeOpaque(buf, special)
		if err != nil {
			d.invalidSpecial()
			break
		}
		levelName := "Level"
		if o.Flags&page.BTPDeleted != 0 {
			levelName = "Next XID"
		}
		fmt.Fprintf(d.w, " BTree Index Section:\n"+
			"  Flags: 0x%04x (%s)\n"+
			"  Blocks: Previous (%d)  Next (%d)  %s (%d)  CycleId (%d)\n\n",
			o.Flags, o.FlagNames(), o.Prev, o.Next,
			levelName, o.Level, o.CycleID)

	case page.KindHash:
		o, err := page.ParseHashOpaque(buf, special)
		if err != nil {
			d.invalidSpecial()
			break
		}
		fmt.Fprintf(d.w, " Hash Index Section:\n"+
			"  Flags: 0x%04x (%s)\n"+
			"  Bucket Number: 0x%04x\n"+
			"  Blocks: Previous (%d)  Next (%d)\n\n",
			o.Flags, o.FlagNames(), o.Bucket, o.PrevBlock, o.NextBlock)

	case page.KindGist:
		o, err := page.ParseGistOpaque(buf, special)
		if err != nil {
			d.invalidSpecial()
			break
		}
		fmt.Fprintf(d.w, " GIST Index Section:\n"+
			"  NSN: 0x%08x/0x%08x\n"+
			"  RightLink: %d\n"+
			"  Flags: 0x%08x (%s)\n\n",
			o.NSNLogID, o.NSNRecOff, o.RightLink, o.Flags, o.FlagNames())

	case page.KindGin:
		o, err := page.ParseGinOpaque(buf, special)
		if err != nil {
			d.invalidSpecial()
			break
		}
		fmt.Fprintf(d.w, " GIN Index Section:\n"+
			"  Flags: 0x%08x (%s)  Maxoff: %d\n"+
			"  Blocks: RightLink (%d)\n\n",
			o.Flags, o.FlagNames(), o.Maxoff, o.RightLink)

	case page.KindSpgist:
		o, err := page.ParseSpgistOpaque(buf, special)
		if err != nil {
			d.invalidSpecial()
			break
		}
		fmt.Fprintf(d.w, " SPGIST Index Section:\n"+
			"  Flags: 0x%08x (%s)\n"+
			"  nRedirection: %d\n"+
			"  nPlaceholder: %d\n\n",
			o.Flags, o.FlagNames(), o.NRedirection, o.NPlaceholder)
	}

	if d.opts.HexDump {
		if d.kind == page.KindErrorBoundary {
			fmt.Fprintf(d.w, " Error: Special section points off page."+
				" Unable to dump contents.\n")
			d.fail()
		} else {
			d.formatBinary(buf, specialSize, special)
		}
	}
}
