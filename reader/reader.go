// reader.go - Block-oriented reading of relation files
package reader

import (
	"io"
	"os"

	"github.com/cockroachdb/errors"

	"github.com/df7cb/pg-filedump/format"
)

// Errors reported by block-size detection. Callers fall back to
// format.DefaultBlockSize and keep going; neither is fatal by itself.
var (
	ErrNoHeader = errors.New("unable to read full page header from block 0")
	ErrOddSize  = errors.New("block size from block 0 is unusable")
)

// Block is one fixed-size span of the file. Data holds the bytes actually
// read: a full block everywhere except possibly the last one, where a
// short tail is delivered as-is so the caller can report truncation.
type Block struct {
	Index uint32
	Data  []byte
}

// Partial reports whether the block was cut short by end of file.
func (b *Block) Partial(blockSize int) bool { return len(b.Data) < blockSize }

// Reader produces the blocks of one relation file in ascending order.
// The sequence is forward-only; reposition with Seek before the first
// Next if a range start was requested.
type Reader struct {
	f         *os.File
	blockSize int
	next      uint32
}

func New(f *os.File, blockSize int) *Reader {
	return &Reader{f: f, blockSize: blockSize}
}

func (r *Reader) BlockSize() int { return r.blockSize }

// Seek positions the reader at the given block. Seeking past EOF is not
// an error here; the following Next reports it.
func (r *Reader) Seek(block uint32) error {
	off := int64(block) * int64(r.blockSize)
	if _, err := r.f.Seek(off, io.SeekStart); err != nil {
		return errors.Wrapf(err, "seek to block %d", block)
	}
	r.next = block
	return nil
}

// Next reads the next block. At end of file it returns (nil, io.EOF); a
// short final block is returned with err == nil and len(Data) between 1
// and blockSize-1. Any other error is fatal to the scan.
func (r *Reader) Next() (*Block, error) {
	buf := make([]byte, r.blockSize)
	n, err := io.ReadFull(r.f, buf)
	switch {
	case err == io.EOF:
		return nil, io.EOF
	case err == io.ErrUnexpectedEOF:
		// fall through with the partial tail
	case err != nil:
		return nil, errors.Wrapf(err, "read block %d", r.next)
	}
	b := &Block{Index: r.next, Data: buf[:n]}
	r.next++
	return b, nil
}

// DetectBlockSize probes block 0's header for the page size without
// disturbing the read position. ErrNoHeader means the file is shorter
// than one header; ErrOddSize means the stored size is not a power of
// two within the supported range.
func DetectBlockSize(f *os.File) (int, error) {
	hdr := make([]byte, format.SizeOfPageHeaderData)
	n, err := f.ReadAt(hdr, 0)
	if n < len(hdr) {
		if err == nil || err == io.EOF || err == io.ErrUnexpectedEOF {
			return 0, errors.Wrapf(ErrNoHeader, "read %d bytes", n)
		}
		return 0, err
	}
	sizeVersion, _ := format.Le16(hdr, 18)
	size := int(sizeVersion & format.PageSizeMask)
	if size < format.MinBlockSize || size > format.MaxBlockSize || size&(size-1) != 0 {
		return 0, errors.Wrapf(ErrOddSize, "got %d", size)
	}
	return size, nil
}
