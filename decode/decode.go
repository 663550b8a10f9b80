// decode.go - Tuple attribute decoding into COPY text lines.
//
// A Decoder is configured once from a comma-separated list of type
// tags and then applied to each data-row tuple in file order. The
// output mirrors what the server's COPY command would produce for the
// same rows; per-tuple structural problems are reported inline and
// the scan moves on to the next item.
package decode

import (
	"fmt"
	"io"

	"github.com/df7cb/pg-filedump/toast"
	"github.com/df7cb/pg-filedump/tuple"
)

// A fieldFunc consumes one attribute from the cursor and appends its
// text form to the current line.
type fieldFunc func(d *Decoder, w io.Writer, cur *Cursor) error

// Decoder renders data-row tuples as tab-separated COPY lines
// according to a fixed, ordered attribute type list.
type Decoder struct {
	fields []fieldFunc
	line   CopyLine
	toast  *toast.Resolver
}

// EnableToast makes the decoder chase out-of-line values through res
// instead of printing storage markers for them.
func (d *Decoder) EnableToast(res *toast.Resolver) { d.toast = res }

// DecodeTuple renders one tuple as a COPY line on w. Null attributes
// print the null marker and consume nothing. Running out of bytes,
// bytes left over after the last attribute, and attribute decode
// failures abandon the line with a report; the caller's scan goes on.
func (d *Decoder) DecodeTuple(w io.Writer, item []byte) {
	d.line.Reset()

	hdr, err := tuple.ParseHeapHeader(item)
	if err != nil {
		fmt.Fprintf(w, "Error: unable to decode a tuple, no more bytes left. Partial data: %s\n",
			d.line.Partial())
		return
	}
	hoff := int(hdr.Hoff)
	if hoff > len(item) {
		hoff = len(item)
	}

	cur := NewCursor(item[hoff:])
	for i, fn := range d.fields {
		if hdr.IsNull(i) {
			d.line.Append(`\N`)
			continue
		}
		if cur.Remaining() == 0 {
			fmt.Fprintf(w, "Error: unable to decode a tuple, no more bytes left. Partial data: %s\n",
				d.line.Partial())
			return
		}
		if err := fn(d, w, cur); err != nil {
			fmt.Fprintf(w, "Error: unable to decode a tuple, attribute #%d: %v. Partial data: %s\n",
				i+1, err, d.line.Partial())
			return
		}
	}
	if cur.Remaining() != 0 {
		fmt.Fprintf(w, "Error: unable to decode a tuple, %d bytes left, 0 expected. Partial data: %s\n",
			cur.Remaining(), d.line.Partial())
		return
	}
	d.line.Flush(w)
}
