// copy.go - Accumulator for one COPY line of decoded attribute text.
package decode

import (
	"bytes"
	"fmt"
	"io"
)

// CopyLine accumulates the tab-separated text of one decoded tuple.
// A single instance is reused across tuples, cleared before each one.
type CopyLine struct {
	buf    bytes.Buffer
	fields int
}

// Append adds one rendered field to the line.
func (l *CopyLine) Append(s string) {
	if l.fields > 0 {
		l.buf.WriteByte('\t')
	}
	l.buf.WriteString(s)
	l.fields++
}

// AppendEscaped adds one field, escaping the bytes that would break
// the line-per-tuple, tab-per-field framing. NUL is escaped too since
// the input may be corrupt.
func (l *CopyLine) AppendEscaped(raw []byte) {
	var esc bytes.Buffer
	esc.Grow(len(raw))
	for _, b := range raw {
		switch b {
		case 0:
			esc.WriteString(`\0`)
		case '\r':
			esc.WriteString(`\r`)
		case '\n':
			esc.WriteString(`\n`)
		case '\t':
			esc.WriteString(`\t`)
		case '\\':
			esc.WriteString(`\\`)
		default:
			esc.WriteByte(b)
		}
	}
	l.Append(esc.String())
}

// Partial returns the text accumulated so far, used in error reports
// for tuples that could not be decoded to the end.
func (l *CopyLine) Partial() string { return l.buf.String() }

// Reset discards the accumulated line.
func (l *CopyLine) Reset() {
	l.buf.Reset()
	l.fields = 0
}

// Flush writes the finished line to w and resets the accumulator.
func (l *CopyLine) Flush(w io.Writer) {
	fmt.Fprintf(w, "COPY: %s\n", l.buf.String())
	l.Reset()
}
