// lz4.go - LZ4 block decompression for datums stored with the lz4
// toast compression method.
package compress

import (
	"github.com/cockroachdb/errors"
	"github.com/pierrec/lz4/v4"
)

// LZ4Decompress expands an LZ4 block into exactly rawLen bytes.
func LZ4Decompress(src []byte, rawLen int) ([]byte, error) {
	if rawLen < 0 {
		return nil, errors.Wrapf(ErrCorrupt, "negative raw size %d", rawLen)
	}
	dst := make([]byte, rawLen)
	n, err := lz4.UncompressBlock(src, dst)
	if err != nil {
		return nil, errors.Wrap(ErrCorrupt, err.Error())
	}
	if n != rawLen {
		return nil, errors.Wrapf(ErrCorrupt, "expanded %d of %d bytes", n, rawLen)
	}
	return dst, nil
}
