// controlfile.go - Control file and relation map dump entry points.
package dump

import (
	"fmt"
	"io"
	"os"

	"github.com/df7cb/pg-filedump/control"
)

// DumpControlFile interprets f as a cluster control file. One read of
// the control struct size (or the forced block size) covers the whole
// dump; the trailing filler of the on-disk file is never examined. A
// hex dump follows when requested, or is forced when the file is too
// short to interpret.
func (d *Dumper) DumpControlFile(f *os.File) int {
	size := control.SizeOfControlFileData
	if d.opts.BlockSize > 0 {
		size = d.opts.BlockSize
	}
	buf := make([]byte, size)
	n, _ := io.ReadFull(f, buf)
	if n == 0 {
		fmt.Fprintf(d.w, "Error: Premature end of file encountered.\n")
		d.fail()
		return d.exit
	}

	res := control.Format(d.w, buf[:n], d.opts.HexDump)
	if res.Failed {
		d.fail()
	}
	if res.HexDump {
		fmt.Fprintf(d.w, "<pg_control Formatted Dump> *****************"+
			"**********************\n\n")
		d.formatBinary(buf[:n], n, 0)
	}
	return d.exit
}

// DumpRelMapFile interprets f as a relation mapping file.
func (d *Dumper) DumpRelMapFile(f *os.File) int {
	buf := make([]byte, control.RelMapFileSize)
	n, _ := io.ReadFull(f, buf)
	if control.FormatRelMap(d.w, buf[:n]) != 0 {
		d.fail()
	}
	return d.exit
}
