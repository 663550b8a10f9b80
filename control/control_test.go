package control

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func buildControlFile() []byte {
	buf := make([]byte, SizeOfControlFileData)
	binary.LittleEndian.PutUint64(buf[0:], 7156258115072838394)
	binary.LittleEndian.PutUint32(buf[8:], Version)
	binary.LittleEndian.PutUint32(buf[12:], 202107181)
	binary.LittleEndian.PutUint32(buf[16:], uint32(DBInProduction))
	binary.LittleEndian.PutUint64(buf[32:], 0x16B3A28000)
	binary.LittleEndian.PutUint64(buf[40:], 0x16B3A27F28)
	binary.LittleEndian.PutUint32(buf[48:], 1)
	binary.LittleEndian.PutUint64(buf[64:], 3<<32|726)
	binary.LittleEndian.PutUint32(buf[72:], 24576)
	binary.LittleEndian.PutUint32(buf[76:], 1)
	binary.LittleEndian.PutUint32(buf[84:], 726)
	binary.LittleEndian.PutUint32(buf[88:], 1)
	binary.LittleEndian.PutUint32(buf[204:], 8)
	binary.LittleEndian.PutUint64(buf[208:], math.Float64bits(1234567.0))
	binary.LittleEndian.PutUint32(buf[216:], 8192)
	binary.LittleEndian.PutUint32(buf[220:], 131072)
	binary.LittleEndian.PutUint32(buf[224:], 8192)
	binary.LittleEndian.PutUint32(buf[228:], 16777216)
	binary.LittleEndian.PutUint32(buf[232:], 64)
	binary.LittleEndian.PutUint32(buf[236:], 32)
	binary.LittleEndian.PutUint32(buf[240:], 1996)
	binary.LittleEndian.PutUint32(buf[244:], 2048)
	buf[248] = 1
	binary.LittleEndian.PutUint32(buf[288:], CRCOf(buf))
	return buf
}

func TestParseControl(t *testing.T) {
	d, err := Parse(buildControlFile())
	require.NoError(t, err)
	require.Equal(t, uint64(7156258115072838394), d.SystemIdentifier)
	require.Equal(t, uint32(Version), d.ControlVersion)
	require.Equal(t, DBInProduction, d.State)
	require.Equal(t, uint64(3<<32|726), d.CheckPointCopy.NextXid)
	require.Equal(t, uint32(24576), d.CheckPointCopy.NextOid)
	require.Equal(t, uint32(8192), d.BlockSize)
	require.Equal(t, uint32(1996), d.ToastMaxChunkSize)
	require.True(t, d.Float8ByVal)
	require.Equal(t, CRCOf(buildControlFile()), d.CRC)
}

func TestControlCRCDetectsCorruption(t *testing.T) {
	buf := buildControlFile()
	require.Equal(t, binary.LittleEndian.Uint32(buf[288:]), CRCOf(buf))
	buf[100] ^= 0xFF
	require.NotEqual(t, binary.LittleEndian.Uint32(buf[288:]), CRCOf(buf))
}

func TestFormatControl(t *testing.T) {
	var out bytes.Buffer
	res := Format(&out, buildControlFile(), false)
	require.Equal(t, Result{}, res)

	text := out.String()
	require.Contains(t, text, "<pg_control Contents>")
	require.Contains(t, text, "CRC: Correct\n")
	require.Contains(t, text, "pg_control Version: 1300\n")
	require.Contains(t, text, "State: IN PRODUCTION\n")
	require.Contains(t, text, "Next XID: 3/726\n")
	require.Contains(t, text, "Next OID: 24576\n")
	require.Contains(t, text, "Floating-Point Sample: 1234567\n")
	require.Contains(t, text, "Database Block Size: 8192\n")
	require.Contains(t, text, "TOAST Chunk Size: 1996\n")
	require.Contains(t, text, "Last Checkpoint Record: Log File (22) Offset (0xb3a28000)\n")
}

func TestFormatControlMarksWrongVersion(t *testing.T) {
	buf := buildControlFile()
	binary.LittleEndian.PutUint32(buf[8:], 1201)
	binary.LittleEndian.PutUint32(buf[288:], CRCOf(buf))

	var out bytes.Buffer
	Format(&out, buf, false)
	require.Contains(t, out.String(), "pg_control Version: 1201 (Not Correct!)\n")
}

func TestFormatControlMarksBadCRC(t *testing.T) {
	buf := buildControlFile()
	buf[60] ^= 0x01

	var out bytes.Buffer
	Format(&out, buf, false)
	require.Contains(t, out.String(), "CRC: Not Correct\n")
}

func TestFormatControlTruncated(t *testing.T) {
	buf := buildControlFile()[:100]

	var out bytes.Buffer
	res := Format(&out, buf, false)
	require.Equal(t, Result{HexDump: true, Failed: true}, res)
	require.Contains(t, out.String(), "pg_control file size incorrect")
	require.Contains(t, out.String(), "Size: Correct <296>  Received <100>")
}

func TestFormatControlUnsupportedVersion(t *testing.T) {
	buf := buildControlFile()
	binary.LittleEndian.PutUint32(buf[8:], 71)

	var out bytes.Buffer
	res := Format(&out, buf, true)
	require.Equal(t, Result{}, res)
	require.Contains(t, out.String(), "pg_control version 71 not supported.\n")
}
