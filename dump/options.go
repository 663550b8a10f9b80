// options.go - Dump run configuration.
package dump

import (
	"github.com/df7cb/pg-filedump/decode"
	"github.com/df7cb/pg-filedump/format"
)

// ForceKind overrides the special-section-driven choice of item
// interpretation.
type ForceKind int

const (
	// FormatAuto derives the item format from the special section.
	FormatAuto ForceKind = iota
	// FormatIndex treats every item as an index tuple.
	FormatIndex
	// FormatHeap treats every item as a heap tuple.
	FormatHeap
)

// Options select what a dump run prints and how items are interpreted.
// The zero value dumps interpreted headers and item listings for the
// whole file with an auto-detected block size.
type Options struct {
	// Absolute prints file-absolute addresses in hex dumps instead of
	// block-relative offsets.
	Absolute bool
	// Binary writes raw block images and suppresses all interpretation.
	Binary bool
	// NoInterpret hex dumps each block without interpreting it.
	NoInterpret bool
	// HexDump adds hex+ascii dumps alongside the interpreted views.
	HexDump bool
	// ItemDetail interprets each item's tuple header.
	ItemDetail bool
	// Checksums verifies the stored page checksum of every full block.
	Checksums bool
	// IgnoreOld skips tuples whose xmax marks them removed.
	IgnoreOld bool
	// Verbose mirrors the inner TOAST scan's per-item progress.
	Verbose bool

	// FormatAs forces heap or index interpretation of items.
	FormatAs ForceKind

	// HasRange restricts the dump to blocks RangeStart through RangeEnd
	// inclusive.
	HasRange   bool
	RangeStart uint32
	RangeEnd   uint32

	// BlockSize forces the block size; zero probes block 0.
	BlockSize int
	// SegmentSize and SegmentNumber locate the file inside a multi-file
	// relation for checksum purposes.
	SegmentSize   int
	SegmentNumber uint32

	// Decoder, when set, decodes every normal heap tuple into COPY
	// lines.
	Decoder *decode.Decoder
}

// segmentSize returns the configured segment size or the default.
func (o Options) segmentSize() int {
	if o.SegmentSize > 0 {
		return o.SegmentSize
	}
	return format.DefaultSegmentSize
}
