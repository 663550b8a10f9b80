// cursor.go - Byte cursor over the data area of one tuple.
package decode

import (
	"github.com/cockroachdb/errors"

	"github.com/df7cb/pg-filedump/format"
)

// ErrNoSpace reports that an attribute needs more bytes than the
// tuple has left.
var ErrNoSpace = errors.New("not enough bytes left in tuple")

// Cursor walks the attribute data of a single tuple. Alignment is
// relative to the start of the data area, which itself always sits on
// a MAXALIGN boundary within the block.
type Cursor struct {
	data []byte
	pos  int
}

// NewCursor starts a cursor at the first attribute byte.
func NewCursor(data []byte) *Cursor { return &Cursor{data: data} }

// Remaining reports how many bytes are left to consume.
func (c *Cursor) Remaining() int { return len(c.data) - c.pos }

// Align advances to the next multiple of quantum, failing when the
// padding alone would pass the end of the tuple.
func (c *Cursor) Align(quantum int) error {
	next := (c.pos + quantum - 1) &^ (quantum - 1)
	if next > len(c.data) {
		return errors.Wrapf(ErrNoSpace, "aligning to %d", quantum)
	}
	c.pos = next
	return nil
}

// Take consumes the next n bytes.
func (c *Cursor) Take(n int) ([]byte, error) {
	if n < 0 || c.Remaining() < n {
		return nil, errors.Wrapf(ErrNoSpace, "need %d bytes, have %d", n, c.Remaining())
	}
	b := c.data[c.pos : c.pos+n]
	c.pos += n
	return b, nil
}

// Rest consumes everything left.
func (c *Cursor) Rest() []byte {
	b := c.data[c.pos:]
	c.pos = len(c.data)
	return b
}

// PeekByte returns the next byte without consuming it. The caller must
// have checked Remaining.
func (c *Cursor) PeekByte() byte { return c.data[c.pos] }

// PeekLe32 returns the next little-endian word without consuming it.
// The caller must have checked Remaining.
func (c *Cursor) PeekLe32() uint32 {
	v, _ := format.Le32(c.data, c.pos)
	return v
}
