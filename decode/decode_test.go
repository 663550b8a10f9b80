package decode

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/df7cb/pg-filedump/format"
)

// mkTuple assembles a heap tuple from attribute data bytes. nulls may
// be nil when no attribute is null.
func mkTuple(natts int, nulls []bool, data []byte) []byte {
	hasNull := false
	for _, n := range nulls {
		hasNull = hasNull || n
	}
	bitmapLen := 0
	if hasNull {
		bitmapLen = format.BitmapLength(natts)
	}
	hoff := format.MaxAlign(format.SizeOfHeapTupleHeader + bitmapLen)

	item := make([]byte, hoff+len(data))
	binary.LittleEndian.PutUint32(item[0:], 100) // xmin
	binary.LittleEndian.PutUint32(item[4:], 0)   // xmax
	mask := uint16(0)
	if hasNull {
		mask |= format.HeapHasNull
		for i := 0; i < natts; i++ {
			if !nulls[i] {
				item[format.SizeOfHeapTupleHeader+i/8] |= 1 << (uint(i) % 8)
			}
		}
	}
	binary.LittleEndian.PutUint16(item[18:], uint16(natts))
	binary.LittleEndian.PutUint16(item[20:], mask)
	item[22] = byte(hoff)
	copy(item[hoff:], data)
	return item
}

func decodeOne(t *testing.T, typeList string, item []byte) string {
	t.Helper()
	d, err := NewDecoder(typeList)
	require.NoError(t, err)
	var out bytes.Buffer
	d.DecodeTuple(&out, item)
	return out.String()
}

func TestDecodeIntAndText(t *testing.T) {
	// int 1 followed by short-form "one"
	data := []byte{0x01, 0x00, 0x00, 0x00, 0x09, 'o', 'n', 'e'}
	out := decodeOne(t, "int,text", mkTuple(2, nil, data))
	require.Equal(t, "COPY: 1\tone\n", out)
}

func TestDecodeNullAttribute(t *testing.T) {
	data := []byte{0x03, 0x00, 0x00, 0x00}
	out := decodeOne(t, "int,text", mkTuple(2, []bool{false, true}, data))
	require.Equal(t, "COPY: 3\t\\N\n", out)
}

func TestDecodeNullConsumesNothing(t *testing.T) {
	// the null attribute must not advance the cursor
	data := []byte{0x07, 0x00, 0x00, 0x00}
	out := decodeOne(t, "int,int", mkTuple(2, []bool{true, false}, data))
	require.Equal(t, "COPY: \\N\t7\n", out)
}

func TestDecodeNegativeInt(t *testing.T) {
	data := []byte{0xFF, 0xFF, 0xFF, 0xFF}
	out := decodeOne(t, "int", mkTuple(1, nil, data))
	require.Equal(t, "COPY: -1\n", out)
}

func TestDecodeRunsOutOfBytes(t *testing.T) {
	data := []byte{0x01, 0x00, 0x00, 0x00}
	out := decodeOne(t, "int,int", mkTuple(2, nil, data))
	require.Equal(t, "Error: unable to decode a tuple, no more bytes left. Partial data: 1\n", out)
}

func TestDecodeLeftoverBytes(t *testing.T) {
	data := []byte{0x05, 0x00, 0x00, 0x00, 0xAA, 0xBB, 0xCC, 0xDD}
	out := decodeOne(t, "int", mkTuple(1, nil, data))
	require.Equal(t, "Error: unable to decode a tuple, 4 bytes left, 0 expected. Partial data: 5\n", out)
}

func TestDecodeWildcardDiscardsRest(t *testing.T) {
	data := []byte{0x05, 0x00, 0x00, 0x00, 0xAA, 0xBB, 0xCC, 0xDD}
	out := decodeOne(t, "int,~", mkTuple(2, nil, data))
	require.Equal(t, "COPY: 5\n", out)
}

func TestDecodeSmallintAlignment(t *testing.T) {
	// bool at offset 0, then a smallint that must skip one pad byte
	data := []byte{0x01, 0x00, 0x2A, 0x00}
	out := decodeOne(t, "bool,smallint", mkTuple(2, nil, data))
	require.Equal(t, "COPY: t\t42\n", out)
}

func TestDecodeEscaping(t *testing.T) {
	// short varlena "a\tb\nc" needs both separators escaped
	data := []byte{0x0D, 'a', '\t', 'b', '\n', 'c'}
	out := decodeOne(t, "text", mkTuple(1, nil, data))
	require.Equal(t, `COPY: a\tb\nc`+"\n", out)
}

func TestNewDecoderUnknownTag(t *testing.T) {
	_, err := NewDecoder("int,bogus")
	require.Error(t, err)
	require.Contains(t, err.Error(), "bogus")
	require.Contains(t, err.Error(), "smallserial")
}

func TestNewDecoderSkipsEmptyEntries(t *testing.T) {
	d, err := NewDecoder("int,,INT,")
	require.NoError(t, err)
	require.Len(t, d.fields, 2)
}
