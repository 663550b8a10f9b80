// varlena.go - Variable-length attribute extraction.
//
// A varlena datum branches four ways on its length tag: a short
// unaligned form, an aligned plain form, an aligned compressed form,
// and an out-of-line pointer. All string-like types and numeric share
// this extraction and differ only in how the payload is rendered.
package decode

import (
	"fmt"
	"io"

	"github.com/cockroachdb/errors"

	"github.com/df7cb/pg-filedump/compress"
	"github.com/df7cb/pg-filedump/format"
	"github.com/df7cb/pg-filedump/toast"
)

// ErrBadLengthTag reports a length byte that matches no varlena form.
var ErrBadLengthTag = errors.New("unrecognized attribute length tag")

// renderFunc turns an extracted, fully decompressed payload into text
// on the current line.
type renderFunc func(d *Decoder, raw []byte) error

func renderText(d *Decoder, raw []byte) error {
	d.line.AppendEscaped(raw)
	return nil
}

func decodeString(d *Decoder, w io.Writer, cur *Cursor) error {
	return extractVarlena(d, w, cur, renderText)
}

func decodeNumeric(d *Decoder, w io.Writer, cur *Cursor) error {
	return extractVarlena(d, w, cur, renderNumeric)
}

func extractVarlena(d *Decoder, w io.Writer, cur *Cursor, render renderFunc) error {
	if cur.Remaining() == 0 {
		return errors.Wrap(ErrNoSpace, "length tag")
	}
	tag := cur.PeekByte()

	if format.VarattIs1BE(tag) {
		// out-of-line pointer, unaligned
		raw, err := cur.Take(format.VarHdrSzExternal + format.SizeOfVarattExternal)
		if err != nil {
			return err
		}
		return d.external(w, raw, render)
	}

	if format.VarattIs1B(tag) {
		// short form, unaligned, up to 126 bytes header included
		raw, err := cur.Take(format.VarSize1B(tag))
		if err != nil {
			return err
		}
		return render(d, raw[format.VarHdrSzShort:])
	}

	// the 4-byte forms sit on a word boundary
	if err := cur.Align(format.IntAlignOf); err != nil {
		return err
	}
	if cur.Remaining() < format.VarHdrSz {
		return errors.Wrap(ErrNoSpace, "length word")
	}
	word := cur.PeekLe32()

	switch {
	case format.VarattIs4BU(byte(word)):
		raw, err := cur.Take(format.VarSize4B(word))
		if err != nil {
			return err
		}
		return render(d, raw[format.VarHdrSz:])

	case format.VarattIs4BC(byte(word)):
		raw, err := cur.Take(format.VarSize4B(word))
		if err != nil {
			return err
		}
		return d.inlineCompressed(w, raw, render)
	}
	return ErrBadLengthTag
}

// inlineCompressed expands a datum stored compressed inside the tuple.
// A payload that does not expand cleanly degrades to a marker so the
// rest of the tuple still prints.
func (d *Decoder) inlineCompressed(w io.Writer, raw []byte, render renderFunc) error {
	var out []byte
	err := errors.Wrapf(format.ErrShortRead, "compressed datum: %d bytes", len(raw))
	if len(raw) >= format.VarHdrSzCompressed {
		info, _ := format.Le32(raw, format.VarHdrSz)
		rawSize := int(info & format.ExtSizeMask)
		src := raw[format.VarHdrSzCompressed:]
		switch info >> format.ExtSizeBits {
		case format.PGLZCompressionID:
			out, err = compress.PGLZDecompress(src, rawSize)
		case format.LZ4CompressionID:
			out, err = compress.LZ4Decompress(src, rawSize)
		default:
			err = errors.Newf("unknown compression method %d", info>>format.ExtSizeBits)
		}
	}
	if err != nil {
		fmt.Fprintf(w, "WARNING: Corrupted toast data, unable to decompress.\n")
		d.line.Append("(inline compressed, corrupted)")
		return nil
	}
	return render(d, out)
}

// external handles an out-of-line pointer datum. With a resolver
// configured the value is reassembled from its side relation; without
// one, or when reassembly fails, a marker describing the stored form
// is emitted instead.
func (d *Decoder) external(w io.Writer, raw []byte, render renderFunc) error {
	ptr, err := toast.ParsePointer(raw)
	if err != nil || !ptr.OnDisk() {
		d.line.Append("(TOASTED IN MEMORY)")
		return nil
	}

	if d.toast != nil {
		data, err := d.toast.Restore(w, ptr)
		if err == nil {
			if ptr.IsCompressed() {
				return d.toastCompressed(w, data, render)
			}
			return render(d, data)
		}
	}

	if !ptr.IsCompressed() {
		d.line.Append("(TOASTED,uncompressed)")
		return nil
	}
	switch ptr.Method() {
	case format.PGLZCompressionID:
		d.line.Append("(TOASTED,pglz)")
	case format.LZ4CompressionID:
		d.line.Append("(TOASTED,lz4)")
	default:
		d.line.Append("(TOASTED,unknown)")
	}
	return nil
}

// toastCompressed expands a reassembled out-of-line value. The leading
// word of the reassembled bytes carries the expected raw size and the
// method; a mismatch is reported and the field dropped.
func (d *Decoder) toastCompressed(w io.Writer, data []byte, render renderFunc) error {
	var out []byte
	err := errors.Wrapf(format.ErrShortRead, "reassembled value: %d bytes", len(data))
	if len(data) >= toast.CompressHeaderSize {
		info, _ := format.Le32(data, 0)
		rawSize := int(info & format.ExtSizeMask)
		src := data[toast.CompressHeaderSize:]
		switch info >> format.ExtSizeBits {
		case format.PGLZCompressionID:
			out, err = compress.PGLZDecompress(src, rawSize)
		case format.LZ4CompressionID:
			out, err = compress.LZ4Decompress(src, rawSize)
		default:
			err = errors.Newf("unknown compression method %d", info>>format.ExtSizeBits)
		}
	}
	if err != nil {
		fmt.Fprintf(w, "WARNING: Unable to decompress a string. Data is corrupted.\n")
		return nil
	}
	return render(d, out)
}
