// pglz.go - Decompressor for the native LZ scheme used by inline and
// out-of-line compressed datums.
//
// The stream is a sequence of control bytes, each governing up to eight
// entries: a clear bit is one literal byte, a set bit is a history match
// tag of two bytes (12-bit offset, 4-bit length biased by 3) with a
// third byte extending lengths past 18. Matches copy from the output
// produced so far, one byte at a time, so overlapping copies repeat.
package compress

import (
	"github.com/cockroachdb/errors"
)

// ErrCorrupt reports a stream that cannot expand to its declared size.
var ErrCorrupt = errors.New("compressed data is corrupt")

// PGLZDecompress expands src into exactly rawLen bytes. The source must
// be fully consumed and the output filled exactly; anything else is
// corruption, as is a match reaching behind the start of the output.
func PGLZDecompress(src []byte, rawLen int) ([]byte, error) {
	if rawLen < 0 {
		return nil, errors.Wrapf(ErrCorrupt, "negative raw size %d", rawLen)
	}
	dst := make([]byte, 0, rawLen)
	sp := 0
	for sp < len(src) && len(dst) < rawLen {
		ctrl := src[sp]
		sp++
		for ctrlc := 0; ctrlc < 8 && sp < len(src) && len(dst) < rawLen; ctrlc++ {
			if ctrl&1 != 0 {
				if sp+2 > len(src) {
					return nil, errors.Wrap(ErrCorrupt, "truncated match tag")
				}
				length := int(src[sp]&0x0F) + 3
				off := int(src[sp]&0xF0)<<4 | int(src[sp+1])
				sp += 2
				if length == 18 {
					if sp >= len(src) {
						return nil, errors.Wrap(ErrCorrupt, "truncated match extension")
					}
					length += int(src[sp])
					sp++
				}
				if off == 0 || off > len(dst) {
					return nil, errors.Wrapf(ErrCorrupt, "match offset %d outside history", off)
				}
				if remain := rawLen - len(dst); length > remain {
					length = remain
				}
				for ; length > 0; length-- {
					dst = append(dst, dst[len(dst)-off])
				}
			} else {
				dst = append(dst, src[sp])
				sp++
			}
			ctrl >>= 1
		}
	}
	if len(dst) != rawLen || sp != len(src) {
		return nil, errors.Wrapf(ErrCorrupt, "expanded %d of %d bytes, consumed %d of %d",
			len(dst), rawLen, sp, len(src))
	}
	return dst, nil
}
