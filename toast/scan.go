// scan.go - Side-relation scanning and value reassembly.
//
// Out-of-line values live in a sibling relation file named by its
// relation id, next to the main file. Reassembly scans that file's
// blocks in order, collecting the chunk tuples whose value id matches,
// and stops as soon as the expected external size has been gathered.
package toast

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/cockroachdb/errors"

	"github.com/df7cb/pg-filedump/format"
	"github.com/df7cb/pg-filedump/page"
	"github.com/df7cb/pg-filedump/reader"
)

// Resolver locates and reads side-relation files. Passing it down
// explicitly keeps the inner scan's options separate from the outer
// file's.
type Resolver struct {
	// Dir is the directory holding the relation files, normally the
	// directory of the file being dumped.
	Dir string
	// Verbose mirrors per-item progress of the inner scan, indented to
	// keep it apart from the outer dump.
	Verbose bool
}

// Restore reassembles the value behind ptr from its side relation and
// prints the pointer summary. The returned bytes are still in stored
// form: compressed when the pointer says so. Any failure to locate or
// fully gather the value is an error the caller degrades to a marker.
func (r *Resolver) Restore(w io.Writer, ptr Pointer) ([]byte, error) {
	fmt.Fprintf(w, "  TOAST value. Raw size: %8d, external size: %8d, "+
		"value id: %6d, toast relation id: %6d, chunks: %6d\n",
		ptr.RawSize, int32(ptr.ExtSize()), ptr.ValueID, ptr.ToastRelID, ptr.Chunks())

	path := filepath.Join(r.Dir, strconv.FormatUint(uint64(ptr.ToastRelID), 10))
	f, err := os.Open(path)
	if err != nil {
		fmt.Fprintf(w, "Cannot open TOAST relation %s\n", path)
		return nil, errors.Wrapf(err, "open toast relation")
	}
	defer f.Close()

	blockSize, err := reader.DetectBlockSize(f)
	if err != nil {
		fmt.Fprintf(w, "Error in TOAST file.\n")
		return nil, errors.Wrapf(err, "toast relation block size")
	}

	want := int(ptr.ExtSize())
	out := make([]byte, 0, want)
	rd := reader.New(f, blockSize)
	for len(out) < want {
		blk, err := rd.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			fmt.Fprintf(w, "Error in TOAST file.\n")
			return nil, err
		}
		out = r.appendChunks(w, blk, ptr, out, want)
	}
	if len(out) < want {
		fmt.Fprintf(w, "Error in TOAST file.\n")
		return nil, errors.Newf("gathered %d of %d external bytes for value %d",
			len(out), want, ptr.ValueID)
	}
	return out[:want], nil
}

// appendChunks collects matching chunk payloads from one block.
// Structural problems skip the item or block; missing data surfaces as
// a short result in Restore.
func (r *Resolver) appendChunks(w io.Writer, blk *reader.Block, ptr Pointer, out []byte, want int) []byte {
	h, err := page.ParseHeader(blk.Data)
	if err != nil {
		return out
	}
	maxOff := h.MaxOffset()
	if maxOff <= 0 || maxOff > len(blk.Data) {
		return out
	}
	for idx := 0; idx < maxOff && len(out) < want; idx++ {
		it, err := page.ParseItemID(blk.Data, idx)
		if err != nil {
			break
		}
		if r.Verbose {
			fmt.Fprintf(w, "\t Item %3d -- Length: %4d  Offset: %4d (0x%04x)  Flags: %s\n",
				idx+1, it.Length, it.Offset, it.Offset, it.State)
		}
		if it.State != format.LPNormal {
			continue
		}
		body := it.Bytes(blk.Data)
		if body == nil {
			if r.Verbose {
				fmt.Fprintf(w, "\t  Error: Item contents extend beyond block.\n")
			}
			continue
		}
		chunk, err := ParseChunk(body)
		if err != nil {
			if r.Verbose {
				fmt.Fprintf(w, "\t  Error: %v\n", err)
			}
			continue
		}
		if r.Verbose {
			fmt.Fprintf(w, "\t  Read TOAST chunk. TOAST Oid: %d, chunk id: %d, chunk data size: %d\n",
				chunk.ValueID, chunk.Seq, len(chunk.Data))
		}
		if chunk.ValueID != ptr.ValueID {
			continue
		}
		out = append(out, chunk.Data...)
	}
	return out
}
