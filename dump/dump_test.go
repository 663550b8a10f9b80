package dump

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/df7cb/pg-filedump/control"
	"github.com/df7cb/pg-filedump/decode"
	"github.com/df7cb/pg-filedump/format"
	"github.com/df7cb/pg-filedump/page"
)

func le32(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}

// buildBlock lays out a page: items packed downward from the special
// section with MAXALIGN padding, all line pointers NORMAL.
func buildBlock(blockSize int, special []byte, items ...[]byte) []byte {
	buf := make([]byte, blockSize)
	specialOff := blockSize - len(special)
	copy(buf[specialOff:], special)

	lower := format.SizeOfPageHeaderData
	upper := specialOff
	for i, item := range items {
		upper -= format.MaxAlign(len(item))
		copy(buf[upper:], item)
		raw := uint32(upper) | uint32(format.LPNormal)<<15 | uint32(len(item))<<17
		binary.LittleEndian.PutUint32(buf[format.SizeOfPageHeaderData+i*format.SizeOfItemID:], raw)
		lower += format.SizeOfItemID
	}
	binary.LittleEndian.PutUint16(buf[12:], uint16(lower))
	binary.LittleEndian.PutUint16(buf[14:], uint16(upper))
	binary.LittleEndian.PutUint16(buf[16:], uint16(specialOff))
	binary.LittleEndian.PutUint16(buf[18:], uint16(blockSize)|format.PageLayoutVersion)
	return buf
}

func heapTuple(natts int, infomask uint16, data []byte) []byte {
	item := make([]byte, 24+len(data))
	binary.LittleEndian.PutUint32(item[0:], 200) // xmin
	binary.LittleEndian.PutUint16(item[18:], uint16(natts))
	binary.LittleEndian.PutUint16(item[20:], infomask)
	item[22] = 24
	copy(item[24:], data)
	return item
}

func indexTuple(block uint32, pos uint16, dataLen int) []byte {
	size := format.SizeOfIndexTupleData + dataLen
	item := make([]byte, size)
	binary.LittleEndian.PutUint16(item[0:], uint16(block>>16))
	binary.LittleEndian.PutUint16(item[2:], uint16(block))
	binary.LittleEndian.PutUint16(item[4:], pos)
	binary.LittleEndian.PutUint16(item[6:], uint16(size))
	return item
}

func btreeSpecial(prev, next, level uint32, flags, cycle uint16) []byte {
	sp := make([]byte, page.SizeOfBTreeOpaque)
	binary.LittleEndian.PutUint32(sp[0:], prev)
	binary.LittleEndian.PutUint32(sp[4:], next)
	binary.LittleEndian.PutUint32(sp[8:], level)
	binary.LittleEndian.PutUint16(sp[12:], flags)
	binary.LittleEndian.PutUint16(sp[14:], cycle)
	return sp
}

func openTemp(t *testing.T, data []byte) *os.File {
	t.Helper()
	path := filepath.Join(t.TempDir(), "16397")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	f, err := os.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

func runDump(t *testing.T, data []byte, opts Options) (string, int) {
	t.Helper()
	var out bytes.Buffer
	rc := New(&out, opts).DumpFile(openTemp(t, data))
	return out.String(), rc
}

func TestWriteBanner(t *testing.T) {
	var out bytes.Buffer
	WriteBanner(&out, "16384", "-i -f")
	text := out.String()
	require.Contains(t, text, "* PostgreSQL File/Block Formatted Dump Utility\n")
	require.Contains(t, text, "* File: 16384\n")
	require.Contains(t, text, "* Options used: -i -f\n")

	out.Reset()
	WriteBanner(&out, "16384", "")
	require.Contains(t, out.String(), "* Options used: None\n")
}

func TestDumpHeapFile(t *testing.T) {
	blockSize := format.DefaultBlockSize
	tup := heapTuple(1, format.HeapXmaxInvalid, le32(7))
	data := append(buildBlock(blockSize, nil, tup, tup), buildBlock(blockSize, nil)...)

	out, rc := runDump(t, data, Options{ItemDetail: true})
	require.Equal(t, 0, rc)

	require.Contains(t, out, "\nBlock    0 ***")
	require.Contains(t, out, "<Header> -----\n")
	require.Contains(t, out, "Offsets: Lower      32 (0x0020)")
	require.Contains(t, out, " Block: Size 8192  Version    4")
	require.Contains(t, out, " Items:    2                      Free Space: 8096\n")
	require.Contains(t, out, " Length (including item array): 32\n")

	require.Contains(t, out, " Item   1 -- Length:   28  Offset: 8160 (0x1fe0)  Flags: NORMAL\n")
	require.Contains(t, out, " Item   2 -- Length:   28  Offset: 8128 (0x1fc0)  Flags: NORMAL\n")
	require.Contains(t, out, "  XMIN: 200  XMAX: 0  CID|XVAC: 0\n")
	require.Contains(t, out, "  Block Id: 0  linp Index: 0   Attributes: 1   Size: 24\n")
	require.Contains(t, out, "  infomask: 0x0800 (XMAX_INVALID) \n")

	require.Contains(t, out, " Empty block - no items listed \n")
	require.NotContains(t, out, "<Special Section>")
	require.Contains(t, out, "\n*** End of File Encountered. Last Block Read: 1 ***\n")
}

func TestDumpRange(t *testing.T) {
	blockSize := format.DefaultBlockSize
	var data []byte
	for i := 0; i < 3; i++ {
		data = append(data, buildBlock(blockSize, nil)...)
	}

	out, rc := runDump(t, data, Options{HasRange: true, RangeStart: 1, RangeEnd: 1})
	require.Equal(t, 0, rc)
	require.NotContains(t, out, "Block    0 ")
	require.Contains(t, out, "Block    1 ")
	require.NotContains(t, out, "Block    2 ")
	require.Contains(t, out, "\n*** End of Requested Range Encountered. Last Block Read: 1 ***\n")
}

func TestDumpPartialBlock(t *testing.T) {
	blockSize := format.DefaultBlockSize
	data := append(buildBlock(blockSize, nil), buildBlock(blockSize, nil)[:100]...)

	out, rc := runDump(t, data, Options{})
	require.Equal(t, 0, rc)
	require.Contains(t, out, "Block    1 ** PARTIAL BLOCK ")
	require.Contains(t, out, "\n*** End of File Encountered. Last Block Read: 1 ***\n")
}

func TestDumpTruncatedHeader(t *testing.T) {
	blockSize := format.DefaultBlockSize
	full := buildBlock(blockSize, nil, heapTuple(1, 0, le32(7)))
	data := append(buildBlock(blockSize, nil), full[:26]...)

	out, rc := runDump(t, data, Options{})
	require.Equal(t, 1, rc)
	require.Contains(t, out,
		" Error: End of block encountered within the header. Bytes read:   26.\n")
}

func TestDumpEmptyFile(t *testing.T) {
	out, rc := runDump(t, nil, Options{BlockSize: format.DefaultBlockSize})
	require.Equal(t, 1, rc)
	require.Contains(t, out, "Error: Premature end of file encountered.\n")
}

func TestDumpChecksums(t *testing.T) {
	blockSize := format.DefaultBlockSize
	blk := buildBlock(blockSize, nil)
	binary.LittleEndian.PutUint16(blk[8:], page.Checksum(blk, 0))

	out, rc := runDump(t, blk, Options{Checksums: true})
	require.Equal(t, 0, rc)
	require.NotContains(t, out, "checksum failure")

	binary.LittleEndian.PutUint16(blk[8:], binary.LittleEndian.Uint16(blk[8:])^0x5555)
	out, rc = runDump(t, blk, Options{Checksums: true})
	require.Equal(t, 1, rc)
	require.Contains(t, out, " Error: checksum failure: calculated 0x")
}

func TestDumpBTreeLeaf(t *testing.T) {
	blockSize := format.DefaultBlockSize
	sp := btreeSpecial(1, 3, 0, page.BTPLeaf, 0)
	blk := buildBlock(blockSize, sp, indexTuple(9, 2, 8))

	out, rc := runDump(t, blk, Options{ItemDetail: true})
	require.Equal(t, 0, rc)
	require.Contains(t, out, "  Block Id: 9  linp Index: 2  Size: 16\n"+
		"  Has Nulls: 0  Has Varwidths: 0\n")
	require.Contains(t, out, " BTree Index Section:\n")
	require.Contains(t, out, "  Flags: 0x0001 (LEAF)\n")
	require.Contains(t, out, "  Blocks: Previous (1)  Next (3)  Level (0)  CycleId (0)\n")
}

func TestDumpBTreeMeta(t *testing.T) {
	blockSize := format.DefaultBlockSize
	blk := buildBlock(blockSize, btreeSpecial(0, 0, 0, page.BTPMeta, 0))
	binary.LittleEndian.PutUint32(blk[24:], format.BTreeMagic)
	binary.LittleEndian.PutUint32(blk[28:], 4)
	binary.LittleEndian.PutUint32(blk[32:], 3)
	binary.LittleEndian.PutUint32(blk[36:], 2)
	binary.LittleEndian.PutUint32(blk[40:], 3)
	binary.LittleEndian.PutUint32(blk[44:], 2)
	binary.LittleEndian.PutUint16(blk[12:], 48) // meta payload sits where items would

	out, rc := runDump(t, blk, Options{ItemDetail: true})
	require.Equal(t, 0, rc)
	require.Contains(t, out, " BTree Meta Data:  Magic (0x00053162)   Version (4)\n")
	require.Contains(t, out, "                   Root:     Block (3)  Level (2)\n")
	require.Contains(t, out, "                   FastRoot: Block (3)  Level (2)\n")
	require.NotContains(t, out, "<Data>")
	require.Contains(t, out, "  Flags: 0x0008 (META)\n")
}

func TestDumpGinPostingLeaf(t *testing.T) {
	blockSize := format.DefaultBlockSize
	sp := make([]byte, page.SizeOfGinOpaque)
	binary.LittleEndian.PutUint32(sp[0:], 7) // rightlink
	binary.LittleEndian.PutUint16(sp[6:], page.GinData|page.GinLeaf)

	tids := make([]byte, 12)
	binary.LittleEndian.PutUint16(tids[2:], 5)
	binary.LittleEndian.PutUint16(tids[4:], 1)
	binary.LittleEndian.PutUint16(tids[8:], 5)
	binary.LittleEndian.PutUint16(tids[10:], 2)
	blk := buildBlock(blockSize, sp, tids)

	out, rc := runDump(t, blk, Options{ItemDetail: true})
	require.Equal(t, 0, rc)
	require.Contains(t, out, "  Posting Array: 2 entries\n")
	require.Contains(t, out, " (5,1) (5,2)\n")
	require.Contains(t, out, " GIN Index Section:\n")
	require.Contains(t, out, "  Flags: 0x00000003 (DATA|LEAF)  Maxoff: 0\n")
	require.Contains(t, out, "  Blocks: RightLink (7)\n")
}

func TestDumpSpgistLeaf(t *testing.T) {
	blockSize := format.DefaultBlockSize
	sp := make([]byte, page.SizeOfSpgistOpaque)
	binary.LittleEndian.PutUint16(sp[0:], page.SpgistLeaf)
	binary.LittleEndian.PutUint16(sp[6:], format.SpgistPageID)

	leaf := make([]byte, 24)
	binary.LittleEndian.PutUint32(leaf[0:], 24<<2) // LIVE, size 24
	binary.LittleEndian.PutUint16(leaf[8:], 3)
	binary.LittleEndian.PutUint16(leaf[10:], 7)
	blk := buildBlock(blockSize, sp, leaf)

	out, rc := runDump(t, blk, Options{ItemDetail: true})
	require.Equal(t, 0, rc)
	require.Contains(t, out, "  State: LIVE  nextOffset: 0  Block Id: 3  linp Index: 7\n")
	require.Contains(t, out, " SPGIST Index Section:\n")
	require.Contains(t, out, "  Flags: 0x00000004 (LEAF)\n")
	require.Contains(t, out, "  nRedirection: 0\n")
	require.Contains(t, out, "  nPlaceholder: 0\n")
}

func TestDumpItemFitError(t *testing.T) {
	blockSize := format.DefaultBlockSize
	blk := buildBlock(blockSize, nil, heapTuple(1, 0, le32(7)))
	// corrupt item 1: length larger than the page can hold
	raw := uint32(8000) | uint32(format.LPNormal)<<15 | uint32(4000)<<17
	binary.LittleEndian.PutUint32(blk[format.SizeOfPageHeaderData:], raw)

	out, rc := runDump(t, blk, Options{})
	require.Equal(t, 1, rc)
	require.Contains(t, out, "  Error: Item contents extend beyond block.\n"+
		"         BlockSize<8192> Bytes Read<8192> Item Start<12000>.\n")
}

func TestDumpDecodeTuples(t *testing.T) {
	blockSize := format.DefaultBlockSize
	data := append(le32(1), append([]byte{0x0d}, []byte("hello")...)...)
	tup := heapTuple(2, format.HeapHasVarWidth, data)
	blk := buildBlock(blockSize, nil, tup)

	dec, err := decode.NewDecoder("int,text")
	require.NoError(t, err)

	out, rc := runDump(t, blk, Options{Decoder: dec})
	require.Equal(t, 0, rc)
	require.Contains(t, out, "COPY: 1\thello\n")
}

func TestDumpIgnoreOld(t *testing.T) {
	blockSize := format.DefaultBlockSize
	tup := heapTuple(1, 0, le32(7))
	binary.LittleEndian.PutUint32(tup[4:], 555) // xmax
	blk := buildBlock(blockSize, nil, tup)

	dec, err := decode.NewDecoder("int")
	require.NoError(t, err)

	out, rc := runDump(t, blk, Options{IgnoreOld: true, Decoder: dec})
	require.Equal(t, 0, rc)
	require.Contains(t, out, "tuple was removed by transaction #555\n")
	require.NotContains(t, out, "COPY:")
}

func TestDumpNoInterpret(t *testing.T) {
	blockSize := format.DefaultBlockSize
	blk := buildBlock(blockSize, nil)

	out, rc := runDump(t, blk, Options{NoInterpret: true})
	require.Equal(t, 0, rc)
	require.NotContains(t, out, "<Header>")
	require.Contains(t, out, "  0000: 00000000 00000000 00000000 18000020")
}

func TestDumpHexDump(t *testing.T) {
	blockSize := format.DefaultBlockSize
	blk := buildBlock(blockSize, nil)

	out, rc := runDump(t, blk, Options{HexDump: true})
	require.Equal(t, 0, rc)
	require.Contains(t, out, "<Header> -----\n")
	require.Contains(t, out, "  0000: 00000000 00000000 00000000 18000020")
	require.Contains(t, out, "  0010: 00200420 00000000")
}

func TestDumpAbsoluteAddresses(t *testing.T) {
	blockSize := format.DefaultBlockSize
	data := append(buildBlock(blockSize, nil), buildBlock(blockSize, nil)...)

	out, rc := runDump(t, data, Options{HexDump: true, Absolute: true})
	require.Equal(t, 0, rc)
	require.Contains(t, out, "  00000000: ")
	require.Contains(t, out, "  00002000: ") // block 1 starts at 0x2000
}

func TestDumpBinary(t *testing.T) {
	blockSize := format.DefaultBlockSize
	data := append(buildBlock(blockSize, nil), buildBlock(blockSize, nil)...)

	out, rc := runDump(t, data, Options{Binary: true})
	require.Equal(t, 0, rc)
	require.Equal(t, string(data), out)
}

func TestDumpControlFile(t *testing.T) {
	buf := make([]byte, control.SizeOfControlFileData)
	binary.LittleEndian.PutUint32(buf[8:], control.Version)
	binary.LittleEndian.PutUint32(buf[16:], uint32(control.DBInProduction))
	binary.LittleEndian.PutUint32(buf[216:], 8192)
	binary.LittleEndian.PutUint32(buf[288:], control.CRCOf(buf))

	var out bytes.Buffer
	rc := New(&out, Options{HexDump: true}).DumpControlFile(openTemp(t, buf))
	require.Equal(t, 0, rc)
	require.Contains(t, out.String(), "<pg_control Contents>")
	require.Contains(t, out.String(), "State: IN PRODUCTION\n")
	require.Contains(t, out.String(), "<pg_control Formatted Dump>")
	require.Contains(t, out.String(), "  0000: ")
}

func TestDumpControlFileTruncated(t *testing.T) {
	buf := make([]byte, 100)
	binary.LittleEndian.PutUint32(buf[8:], control.Version)

	var out bytes.Buffer
	rc := New(&out, Options{}).DumpControlFile(openTemp(t, buf))
	require.Equal(t, 1, rc)
	require.Contains(t, out.String(), "Size: Correct <296>  Received <100>")
	// too little data forces the hex dump even when not requested
	require.Contains(t, out.String(), "<pg_control Formatted Dump>")
}

func TestDumpRelMapFile(t *testing.T) {
	buf := make([]byte, control.RelMapFileSize)
	binary.LittleEndian.PutUint32(buf[0:], control.RelMapMagic)
	binary.LittleEndian.PutUint32(buf[4:], 1)
	binary.LittleEndian.PutUint32(buf[8:], 1259)
	binary.LittleEndian.PutUint32(buf[12:], 16384)
	binary.LittleEndian.PutUint32(buf[504:], control.RelMapCRCOf(buf))

	var out bytes.Buffer
	rc := New(&out, Options{}).DumpRelMapFile(openTemp(t, buf))
	require.Equal(t, 0, rc)
	require.Contains(t, out.String(), "Magic Number: 0x592717 (CORRECT)")
	require.Contains(t, out.String(), "Num Mappings: 1\n")
	require.Contains(t, out.String(), "OID: 1259\tFilenode: 16384\n")
	require.Contains(t, out.String(), "CRC: Correct\n")
}
