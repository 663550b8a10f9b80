// spgist.go - SP-GiST inner and leaf tuple interpretation
package tuple

import (
	"github.com/cockroachdb/errors"

	"github.com/df7cb/pg-filedump/format"
)

// Tuple states shared by inner and leaf tuples.
type SpgistState uint8

const (
	SpgistLive SpgistState = iota
	SpgistRedirect
	SpgistDead
	SpgistPlaceholder
)

func (s SpgistState) String() string {
	switch s {
	case SpgistLive:
		return "LIVE"
	case SpgistRedirect:
		return "REDIRECT"
	case SpgistDead:
		return "DEAD"
	case SpgistPlaceholder:
		return "PLACEHOLDER"
	}
	return "UNKNOWN"
}

// Header sizes after MAXALIGN padding. A node header is an index tuple.
const (
	SpgistInnerHeaderSize = 8
	SpgistLeafHeaderSize  = 16
	SpgistNodeHeaderSize  = 8
)

// SpgistInner is an inner tuple: a packed word (state, allTheSame, node
// count, prefix size), a size word, then the prefix datum and the child
// node list.
type SpgistInner struct {
	State      SpgistState
	AllTheSame bool
	NNodes     int
	PrefixSize int
	Size       int
}

func ParseSpgistInner(item []byte) (SpgistInner, error) {
	if len(item) < SpgistInnerHeaderSize {
		return SpgistInner{}, errors.Wrapf(format.ErrShortRead, "spgist inner tuple: %d bytes", len(item))
	}
	packed, _ := format.Le32(item, 0)
	size, _ := format.Le16(item, 4)
	return SpgistInner{
		State:      SpgistState(packed & 0x03),
		AllTheSame: packed&0x04 != 0,
		NNodes:     int((packed >> 3) & 0x1FFF),
		PrefixSize: int(packed >> 16),
		Size:       int(size),
	}, nil
}

// SpgistNode is one downlink of an inner tuple, with its byte offset
// inside the item for display and hex dumping.
type SpgistNode struct {
	Index int
	Off   int
	Node  IndexTuple
}

// WalkNodes lists the child nodes, stopping the instant a node header
// would cross the end of the item and after any node whose size is not
// MAXALIGNed (the walk cannot advance past it safely). The node count
// bounds the walk even if a zero-sized node stalls the offset.
func (t SpgistInner) WalkNodes(item []byte) []SpgistNode {
	var nodes []SpgistNode
	off := SpgistInnerHeaderSize + t.PrefixSize
	for i := 0; i < t.NNodes; i++ {
		if off+SpgistNodeHeaderSize > len(item) {
			break
		}
		node, err := ParseIndexTuple(item, off)
		if err != nil {
			break
		}
		nodes = append(nodes, SpgistNode{Index: i, Off: off, Node: node})
		size := node.Size()
		if size != format.MaxAlign(size) {
			break
		}
		off += size
	}
	return nodes
}

// SpgistLeaf is a leaf tuple: packed state and size, the offset of the
// next tuple in its chain, and the heap tuple it represents.
type SpgistLeaf struct {
	State      SpgistState
	Size       int
	NextOffset uint16
	HeapPtr    ItemPointer
}

func ParseSpgistLeaf(item []byte) (SpgistLeaf, error) {
	if len(item) < SpgistLeafHeaderSize {
		return SpgistLeaf{}, errors.Wrapf(format.ErrShortRead, "spgist leaf tuple: %d bytes", len(item))
	}
	packed, _ := format.Le32(item, 0)
	next, _ := format.Le16(item, 4)
	heapPtr, _ := ParseItemPointer(item, 6)
	return SpgistLeaf{
		State:      SpgistState(packed & 0x03),
		Size:       int(packed >> 2),
		NextOffset: next,
		HeapPtr:    heapPtr,
	}, nil
}
