// exports.go - Re-exports for main package API
package pgfiledump

import (
	"io"
	"os"

	"github.com/df7cb/pg-filedump/decode"
	"github.com/df7cb/pg-filedump/dump"
	"github.com/df7cb/pg-filedump/format"
	"github.com/df7cb/pg-filedump/page"
	"github.com/df7cb/pg-filedump/reader"
	"github.com/df7cb/pg-filedump/tuple"
)

// Re-export types from format package
type (
	ItemState = format.ItemState
)

// Re-export constants from format package
const (
	DefaultBlockSize     = format.DefaultBlockSize
	DefaultSegmentSize   = format.DefaultSegmentSize
	PageLayoutVersion    = format.PageLayoutVersion
	SizeOfPageHeaderData = format.SizeOfPageHeaderData
	SizeOfItemID         = format.SizeOfItemID
	LPUnused             = format.LPUnused
	LPNormal             = format.LPNormal
	LPRedirect           = format.LPRedirect
	LPDead               = format.LPDead
)

// Re-export types from page package
type (
	Header       = page.Header
	ItemID       = page.ItemID
	Kind         = page.Kind
	BTreeOpaque  = page.BTreeOpaque
	BTreeMeta    = page.BTreeMeta
	HashOpaque   = page.HashOpaque
	GistOpaque   = page.GistOpaque
	GinOpaque    = page.GinOpaque
	SpgistOpaque = page.SpgistOpaque
)

// Re-export constants from page package
const (
	KindNone          = page.KindNone
	KindSequence      = page.KindSequence
	KindBTree         = page.KindBTree
	KindHash          = page.KindHash
	KindGist          = page.KindGist
	KindGin           = page.KindGin
	KindSpgist        = page.KindSpgist
	KindErrorUnknown  = page.KindErrorUnknown
	KindErrorBoundary = page.KindErrorBoundary
)

// Re-export functions from page package
var (
	ParseHeader    = page.ParseHeader
	ParseItemID    = page.ParseItemID
	Classify       = page.Classify
	PageChecksum   = page.Checksum
	IsBTreeMeta    = page.IsBTreeMeta
	ParseBTreeMeta = page.ParseBTreeMeta
)

// Re-export types from tuple package
type (
	HeapHeader  = tuple.HeapHeader
	IndexTuple  = tuple.IndexTuple
	ItemPointer = tuple.ItemPointer
)

// Re-export functions from tuple package
var (
	ParseHeapHeader  = tuple.ParseHeapHeader
	ParseIndexTuple  = tuple.ParseIndexTuple
	ParseItemPointer = tuple.ParseItemPointer
)

// Re-export types from reader package
type (
	Block  = reader.Block
	Reader = reader.Reader
)

// Re-export functions from reader package
var (
	NewReader       = reader.New
	DetectBlockSize = reader.DetectBlockSize
)

// Re-export types from dump and decode packages
type (
	Options = dump.Options
	Dumper  = dump.Dumper
	Decoder = decode.Decoder
)

var (
	NewDumper  = dump.New
	NewDecoder = decode.NewDecoder
)

// DumpFile is a convenience function that formats a whole relation file
// onto w and returns the process exit code.
func DumpFile(w io.Writer, f *os.File, opts Options) int {
	return dump.New(w, opts).DumpFile(f)
}
