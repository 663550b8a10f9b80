// dump.go - File-level dump orchestration.
//
// A run walks one relation file block by block, printing the framing
// banner, a header section, the item listing and the special section
// for each block read. Recoverable anomalies are reported inline and
// recorded in the exit status; only unusable input stops the walk.
package dump

import (
	"fmt"
	"io"
	"os"

	"github.com/cockroachdb/errors"

	"github.com/df7cb/pg-filedump/format"
	"github.com/df7cb/pg-filedump/page"
	"github.com/df7cb/pg-filedump/reader"
)

// Dumper formats one relation file onto a writer. It is single-use:
// the exit status accumulates across the run.
type Dumper struct {
	w    io.Writer
	opts Options

	blockSize int
	exit      int

	// state of the block being formatted
	pageOffset int64
	kind       page.Kind
}

func New(w io.Writer, opts Options) *Dumper {
	return &Dumper{w: w, opts: opts}
}

// fail records a reported anomaly in the exit status.
func (d *Dumper) fail() { d.exit = 1 }

// WriteBanner prints the dump header naming the file and the options
// in effect.
func WriteBanner(w io.Writer, fileName, optionsUsed string) {
	if optionsUsed == "" {
		optionsUsed = "None"
	}
	fmt.Fprintf(w,
		"\n*******************************************************************\n"+
			"* PostgreSQL File/Block Formatted Dump Utility\n"+
			"*\n"+
			"* File: %s\n"+
			"* Options used: %s\n"+
			"*******************************************************************\n",
		fileName, optionsUsed)
}

// probeBlockSize determines the block size from block 0, reporting the
// fallbacks the way the block-size probe always has.
func (d *Dumper) probeBlockSize(f *os.File) int {
	size, err := reader.DetectBlockSize(f)
	if err == nil {
		return size
	}
	if errors.Is(err, reader.ErrNoHeader) {
		st, statErr := f.Stat()
		n := int64(0)
		if statErr == nil {
			n = st.Size()
		}
		fmt.Fprintf(d.w, "Error: Unable to read full page header from block 0.\n"+
			"  ===> Read %d bytes\n", n)
		d.fail()
	}
	fmt.Fprintf(d.w, "Notice: Block size determined from reading block 0 is unusable, using default %d instead.\n",
		format.DefaultBlockSize)
	fmt.Fprintf(d.w, "Hint: Use -S <size> to specify the size manually.\n")
	return format.DefaultBlockSize
}

// DumpFile walks the file and returns the process exit code.
func (d *Dumper) DumpFile(f *os.File) int {
	d.blockSize = d.opts.BlockSize
	if d.blockSize <= 0 {
		d.blockSize = d.probeBlockSize(f)
	}

	rd := reader.New(f, d.blockSize)
	start := uint32(0)
	if d.opts.HasRange {
		start = d.opts.RangeStart
		if err := rd.Seek(start); err != nil {
			fmt.Fprintf(d.w, "Error: Seek error encountered before requested start block <%d>.\n", start)
			return 1
		}
	}

	current := start
	initial := true
	for {
		blk, err := rd.Next()
		if err == io.EOF {
			if initial {
				fmt.Fprintf(d.w, "Error: Premature end of file encountered.\n")
				d.fail()
			} else if !d.opts.Binary {
				fmt.Fprintf(d.w, "\n*** End of File Encountered. Last Block Read: %d ***\n", current-1)
			}
			break
		}
		if err != nil {
			fmt.Fprintf(d.w, "Error: Reading block %d: %v\n", current, err)
			return 1
		}

		if d.opts.Binary {
			d.w.Write(blk.Data)
		} else {
			d.formatBlock(blk.Data, current)
		}

		if d.opts.HasRange && current >= d.opts.RangeEnd {
			if !d.opts.Binary {
				fmt.Fprintf(d.w, "\n*** End of Requested Range Encountered. Last Block Read: %d ***\n", current)
			}
			break
		}
		current++
		initial = false
	}
	return d.exit
}

// formatBlock prints one block: framing line, header section, item
// listing and special section, or a plain hex dump when interpretation
// is off.
func (d *Dumper) formatBlock(buf []byte, blkno uint32) {
	d.pageOffset = int64(d.blockSize) * int64(blkno)

	marker := "***************"
	if len(buf) != d.blockSize {
		marker = " PARTIAL BLOCK "
	}
	fmt.Fprintf(d.w, "\nBlock %4d **%s***************************************\n",
		blkno, marker)

	if d.opts.NoInterpret {
		d.formatBinary(buf, len(buf), 0)
		return
	}

	h, err := page.ParseHeader(buf)
	if err != nil {
		h = page.Header{}
	}
	d.kind = page.Classify(buf, h, d.blockSize)

	if d.formatHeader(buf, h, blkno) {
		return // ran off the end inside the header
	}
	d.formatItemBlock(buf, h)
	if d.kind != page.KindNone {
		d.formatSpecial(buf, h)
	}
}
