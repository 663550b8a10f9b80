// scalar.go - Decoders for fixed-width attribute types.
package decode

import (
	"bytes"
	"fmt"
	"io"
	"math"

	"github.com/df7cb/pg-filedump/format"
)

func decodeSmallint(d *Decoder, _ io.Writer, cur *Cursor) error {
	if err := cur.Align(format.ShortAlignOf); err != nil {
		return err
	}
	b, err := cur.Take(2)
	if err != nil {
		return err
	}
	v, _ := format.Le16(b, 0)
	d.line.Append(fmt.Sprintf("%d", int16(v)))
	return nil
}

func decodeInt(d *Decoder, _ io.Writer, cur *Cursor) error {
	if err := cur.Align(format.IntAlignOf); err != nil {
		return err
	}
	b, err := cur.Take(4)
	if err != nil {
		return err
	}
	v, _ := format.Le32(b, 0)
	d.line.Append(fmt.Sprintf("%d", int32(v)))
	return nil
}

func decodeUint(d *Decoder, _ io.Writer, cur *Cursor) error {
	if err := cur.Align(format.IntAlignOf); err != nil {
		return err
	}
	b, err := cur.Take(4)
	if err != nil {
		return err
	}
	v, _ := format.Le32(b, 0)
	d.line.Append(fmt.Sprintf("%d", v))
	return nil
}

func decodeBigint(d *Decoder, _ io.Writer, cur *Cursor) error {
	if err := cur.Align(format.DoubleAlignOf); err != nil {
		return err
	}
	b, err := cur.Take(8)
	if err != nil {
		return err
	}
	v, _ := format.Le64(b, 0)
	d.line.Append(fmt.Sprintf("%d", int64(v)))
	return nil
}

func decodeFloat4(d *Decoder, _ io.Writer, cur *Cursor) error {
	if err := cur.Align(format.IntAlignOf); err != nil {
		return err
	}
	b, err := cur.Take(4)
	if err != nil {
		return err
	}
	v, _ := format.Le32(b, 0)
	d.line.Append(fmt.Sprintf("%.12f", float64(math.Float32frombits(v))))
	return nil
}

func decodeFloat8(d *Decoder, _ io.Writer, cur *Cursor) error {
	if err := cur.Align(format.DoubleAlignOf); err != nil {
		return err
	}
	b, err := cur.Take(8)
	if err != nil {
		return err
	}
	v, _ := format.Le64(b, 0)
	d.line.Append(fmt.Sprintf("%.12f", math.Float64frombits(v)))
	return nil
}

func decodeBool(d *Decoder, _ io.Writer, cur *Cursor) error {
	b, err := cur.Take(1)
	if err != nil {
		return err
	}
	if b[0] != 0 {
		d.line.Append("t")
	} else {
		d.line.Append("f")
	}
	return nil
}

func decodeUUID(d *Decoder, _ io.Writer, cur *Cursor) error {
	b, err := cur.Take(16)
	if err != nil {
		return err
	}
	d.line.Append(fmt.Sprintf("%x-%x-%x-%x-%x", b[0:4], b[4:6], b[6:8], b[8:10], b[10:16]))
	return nil
}

func decodeMacaddr(d *Decoder, _ io.Writer, cur *Cursor) error {
	if err := cur.Align(format.IntAlignOf); err != nil {
		return err
	}
	b, err := cur.Take(6)
	if err != nil {
		return err
	}
	d.line.Append(fmt.Sprintf("%02x:%02x:%02x:%02x:%02x:%02x", b[0], b[1], b[2], b[3], b[4], b[5]))
	return nil
}

// decodeName handles the fixed-width identifier type used in catalog
// relations: a NUL-terminated string in a 64-byte field.
func decodeName(d *Decoder, _ io.Writer, cur *Cursor) error {
	b, err := cur.Take(format.NameDataLen)
	if err != nil {
		return err
	}
	if n := bytes.IndexByte(b, 0); n >= 0 {
		b = b[:n]
	}
	d.line.AppendEscaped(b)
	return nil
}

func decodeChar(d *Decoder, _ io.Writer, cur *Cursor) error {
	b, err := cur.Take(1)
	if err != nil {
		return err
	}
	d.line.AppendEscaped(b)
	return nil
}

// decodeIgnore is the wildcard: it discards all remaining tuple bytes
// and appends nothing.
func decodeIgnore(_ *Decoder, _ io.Writer, cur *Cursor) error {
	cur.Rest()
	return nil
}
