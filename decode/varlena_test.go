package decode

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/df7cb/pg-filedump/format"
	"github.com/df7cb/pg-filedump/toast"
)

func toastPointer(rawSize int32, extInfo, valueID, relID uint32) []byte {
	p := make([]byte, 18)
	p[0] = 0x01
	p[1] = format.VarTagOnDisk
	binary.LittleEndian.PutUint32(p[2:], uint32(rawSize))
	binary.LittleEndian.PutUint32(p[6:], extInfo)
	binary.LittleEndian.PutUint32(p[10:], valueID)
	binary.LittleEndian.PutUint32(p[14:], relID)
	return p
}

// buildToastPage lays out one side-relation block holding consecutive
// chunk tuples for a single value.
func buildToastPage(blockSize int, valueID uint32, chunks [][]byte) []byte {
	blk := make([]byte, blockSize)
	lower := format.SizeOfPageHeaderData
	upper := blockSize
	for i, c := range chunks {
		tupLen := 24 + 8 + format.VarHdrSz + len(c)
		upper -= format.MaxAlign(tupLen)
		tup := blk[upper:]
		binary.LittleEndian.PutUint32(tup[0:], 10) // xmin
		binary.LittleEndian.PutUint16(tup[18:], 3) // natts
		binary.LittleEndian.PutUint16(tup[20:], format.HeapHasVarWidth)
		tup[22] = 24
		binary.LittleEndian.PutUint32(tup[24:], valueID)
		binary.LittleEndian.PutUint32(tup[28:], uint32(i))
		binary.LittleEndian.PutUint32(tup[32:], uint32((format.VarHdrSz+len(c))<<2))
		copy(tup[36:], c)

		raw := uint32(upper) | 1<<15 | uint32(tupLen)<<17
		binary.LittleEndian.PutUint32(blk[lower:], raw)
		lower += format.SizeOfItemID
	}
	binary.LittleEndian.PutUint16(blk[12:], uint16(lower))
	binary.LittleEndian.PutUint16(blk[14:], uint16(upper))
	binary.LittleEndian.PutUint16(blk[16:], uint16(blockSize))
	binary.LittleEndian.PutUint16(blk[18:], uint16(blockSize)|format.PageLayoutVersion)
	return blk
}

func TestDecodeInlineCompressed(t *testing.T) {
	payload := []byte{0x00, 'h', 'e', 'l', 'l', 'o'}
	datum := make([]byte, 8+len(payload))
	binary.LittleEndian.PutUint32(datum[0:], uint32((8+len(payload))<<2|2))
	binary.LittleEndian.PutUint32(datum[4:], 5) // raw size 5, method pglz
	copy(datum[8:], payload)
	out := decodeOne(t, "text", mkTuple(1, nil, datum))
	require.Equal(t, "COPY: hello\n", out)
}

func TestDecodeInlineCorrupted(t *testing.T) {
	// control byte promises a match tag with no history
	payload := []byte{0x01, 0x0F, 0x01}
	datum := make([]byte, 8+len(payload))
	binary.LittleEndian.PutUint32(datum[0:], uint32((8+len(payload))<<2|2))
	binary.LittleEndian.PutUint32(datum[4:], 30)
	copy(datum[8:], payload)
	out := decodeOne(t, "text", mkTuple(1, nil, datum))
	require.Equal(t,
		"WARNING: Corrupted toast data, unable to decompress.\nCOPY: (inline compressed, corrupted)\n",
		out)
}

func TestDecodeToastMarkers(t *testing.T) {
	cases := []struct {
		extInfo uint32
		want    string
	}{
		{1000, "(TOASTED,pglz)"},
		{1000 | 1<<30, "(TOASTED,lz4)"},
		{2048, "(TOASTED,uncompressed)"},
	}
	for _, tc := range cases {
		out := decodeOne(t, "text", mkTuple(1, nil, toastPointer(2052, tc.extInfo, 1, 2)))
		require.Equal(t, "COPY: "+tc.want+"\n", out)
	}

	inMemory := toastPointer(2052, 1000, 1, 2)
	inMemory[1] = format.VarTagIndirect
	out := decodeOne(t, "text", mkTuple(1, nil, inMemory))
	require.Equal(t, "COPY: (TOASTED IN MEMORY)\n", out)
}

func TestDecodeToastRoundTrip(t *testing.T) {
	dir := t.TempDir()
	// external form: raw-size word, then a stream expanding to 64 a's
	ext := []byte{64, 0, 0, 0, 0x02, 'a', 0x0F, 0x01, 0x2D}
	blk := buildToastPage(1024, 7001, [][]byte{ext[:5], ext[5:]})
	require.NoError(t, os.WriteFile(filepath.Join(dir, "90210"), blk, 0o644))

	d, err := NewDecoder("text")
	require.NoError(t, err)
	d.EnableToast(&toast.Resolver{Dir: dir})

	var out bytes.Buffer
	d.DecodeTuple(&out, mkTuple(1, nil, toastPointer(68, uint32(len(ext)), 7001, 90210)))
	text := out.String()
	require.Contains(t, text, "TOAST value. Raw size:       68, external size:        9")
	require.True(t, strings.HasSuffix(text, "COPY: "+strings.Repeat("a", 64)+"\n"), text)
}

func TestDecodeToastMissingFileDegrades(t *testing.T) {
	d, err := NewDecoder("text")
	require.NoError(t, err)
	d.EnableToast(&toast.Resolver{Dir: t.TempDir()})

	var out bytes.Buffer
	d.DecodeTuple(&out, mkTuple(1, nil, toastPointer(2052, 1000, 1, 424242)))
	text := out.String()
	require.Contains(t, text, "Cannot open TOAST relation")
	require.True(t, strings.HasSuffix(text, "COPY: (TOASTED,pglz)\n"), text)
}
