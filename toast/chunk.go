// chunk.go - Chunk tuple extraction.
package toast

import (
	"github.com/cockroachdb/errors"

	"github.com/df7cb/pg-filedump/format"
	"github.com/df7cb/pg-filedump/tuple"
)

// Chunk is one piece of an out-of-line value. A side relation stores
// each value as tuples of (value id, chunk sequence, payload bytes).
type Chunk struct {
	ValueID uint32
	Seq     int32
	Data    []byte
}

// ParseChunk decodes a chunk tuple from its raw item bytes. The data
// area starts with two aligned words, then the payload under a plain
// 4-byte length word; side relations never pack or compress it.
func ParseChunk(item []byte) (Chunk, error) {
	hdr, err := tuple.ParseHeapHeader(item)
	if err != nil {
		return Chunk{}, err
	}
	hoff := int(hdr.Hoff)
	if hoff < format.SizeOfHeapTupleHeader || hoff > len(item) {
		return Chunk{}, errors.Newf("chunk tuple header length %d outside item", hoff)
	}
	data := item[hoff:]
	if len(data) < 8+format.VarHdrSz {
		return Chunk{}, errors.Wrapf(format.ErrShortRead, "chunk tuple data: %d bytes", len(data))
	}
	valueID, _ := format.Le32(data, 0)
	seq, _ := format.Le32(data, 4)
	if !format.VarattIs4BU(data[8]) {
		return Chunk{}, errors.Newf("chunk payload is not a plain length word, tag 0x%02x", data[8])
	}
	word, _ := format.Le32(data, 8)
	size := format.VarSize4B(word)
	if size < format.VarHdrSz || 8+size > len(data) {
		return Chunk{}, errors.Newf("chunk payload length %d outside item", size)
	}
	return Chunk{
		ValueID: valueID,
		Seq:     int32(seq),
		Data:    data[8+format.VarHdrSz : 8+size],
	}, nil
}

// MaxChunkSize is the largest chunk payload a side relation built with
// the given block size stores per tuple: a quarter page, less the item
// pointer overhead, tuple header, the two id words and the length word.
func MaxChunkSize(blockSize int) int {
	perTuple := format.MaxAlignDown((blockSize - format.MaxAlign(format.SizeOfPageHeaderData+4*format.SizeOfItemID)) / 4)
	return perTuple - format.MaxAlign(format.SizeOfHeapTupleHeader) - 4 - 4 - format.VarHdrSz
}
