package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlignment(t *testing.T) {
	assert.Equal(t, 0, MaxAlign(0))
	assert.Equal(t, 8, MaxAlign(1))
	assert.Equal(t, 8, MaxAlign(8))
	assert.Equal(t, 16, MaxAlign(9))
	assert.Equal(t, 24, MaxAlign(23))
	assert.Equal(t, 2, ShortAlign(1))
	assert.Equal(t, 4, IntAlign(3))
	assert.Equal(t, 8, DoubleAlign(5))
	assert.Equal(t, 16, MaxAlignDown(23))
	assert.Equal(t, 8, MaxAlignDown(8))
}

func TestLittleEndianReads(t *testing.T) {
	b := []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08}

	v16, err := Le16(b, 0)
	require.NoError(t, err)
	assert.Equal(t, uint16(0x0201), v16)

	v32, err := Le32(b, 2)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x06050403), v32)

	v64, err := Le64(b, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x0807060504030201), v64)
}

func TestLittleEndianShortRead(t *testing.T) {
	b := []byte{0x01, 0x02}

	_, err := Le16(b, 1)
	assert.ErrorIs(t, err, ErrShortRead)
	_, err = Le32(b, 0)
	assert.ErrorIs(t, err, ErrShortRead)
	_, err = Le64(b, 0)
	assert.ErrorIs(t, err, ErrShortRead)
	_, err = Le16(b, -1)
	assert.ErrorIs(t, err, ErrShortRead)
}

func TestItemStateNames(t *testing.T) {
	assert.Equal(t, "UNUSED", LPUnused.String())
	assert.Equal(t, "NORMAL", LPNormal.String())
	assert.Equal(t, "REDIRECT", LPRedirect.String())
	assert.Equal(t, "DEAD", LPDead.String())
	assert.Equal(t, "UNKNOWN", ItemState(7).String())
}

func TestBitmapLength(t *testing.T) {
	assert.Equal(t, 0, BitmapLength(0))
	assert.Equal(t, 1, BitmapLength(1))
	assert.Equal(t, 1, BitmapLength(8))
	assert.Equal(t, 2, BitmapLength(9))
}

func TestVarlenaTags(t *testing.T) {
	// 1-byte header: odd tag byte, total length in the upper seven bits.
	short := byte(11<<1 | 1)
	assert.True(t, VarattIs1B(short))
	assert.False(t, VarattIs1BE(short))
	assert.Equal(t, 11, VarSize1B(short))

	// The bare 0x01 tag marks an out-of-line datum.
	assert.True(t, VarattIs1B(0x01))
	assert.True(t, VarattIs1BE(0x01))

	// 4-byte header: low bits 00 plain, 10 compressed.
	word := uint32(200) << 2
	assert.True(t, VarattIs4BU(byte(word)))
	assert.False(t, VarattIs4BC(byte(word)))
	assert.Equal(t, 200, VarSize4B(word))

	cword := uint32(200)<<2 | 0x02
	assert.True(t, VarattIs4BC(byte(cword)))
	assert.False(t, VarattIs4BU(byte(cword)))
	assert.Equal(t, 200, VarSize4B(cword))
}
