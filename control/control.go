// control.go - Cluster control file (global/pg_control) interpretation.
//
// The control file is a single fixed struct, not a paged relation. Field
// offsets below are those of control file layout version 1300 on a
// little-endian, MAXALIGN-8 build. The trailing CRC-32C covers every
// byte before itself.
package control

import (
	"fmt"
	"hash/crc32"
	"io"
	"math"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/df7cb/pg-filedump/format"
)

const (
	// SizeOfControlFileData is the padded struct size, which is also the
	// read unit for control-file mode.
	SizeOfControlFileData = 296

	// Version is the control file layout this build interprets. Older
	// layouts back to version 72 still identify themselves readably.
	Version            = 1300
	minReadableVersion = 72

	crcOffset        = 288
	floatFormatValue = 1234567.0
)

// DBState is the database state recorded at the last shutdown or
// checkpoint.
type DBState int32

const (
	DBStartup DBState = iota
	DBShutdowned
	DBShutdownedInRecovery
	DBShutdowning
	DBInCrashRecovery
	DBInArchiveRecovery
	DBInProduction
)

func (s DBState) String() string {
	switch s {
	case DBStartup:
		return "STARTUP"
	case DBShutdowned:
		return "SHUTDOWNED"
	case DBShutdownedInRecovery:
		return "SHUTDOWNED_IN_RECOVERY"
	case DBShutdowning:
		return "SHUTDOWNING"
	case DBInCrashRecovery:
		return "IN CRASH RECOVERY"
	case DBInArchiveRecovery:
		return "IN ARCHIVE RECOVERY"
	case DBInProduction:
		return "IN PRODUCTION"
	}
	return "UNKNOWN"
}

// CheckPoint is the checkpoint record copy embedded in the control file.
type CheckPoint struct {
	Redo              uint64
	ThisTimeLineID    uint32
	PrevTimeLineID    uint32
	FullPageWrites    bool
	NextXid           uint64 // epoch in the high half
	NextOid           uint32
	NextMulti         uint32
	NextMultiOffset   uint32
	OldestXid         uint32
	OldestXidDB       uint32
	OldestMulti       uint32
	OldestMultiDB     uint32
	Time              int64
	OldestCommitTsXid uint32
	NewestCommitTsXid uint32
	OldestActiveXid   uint32
}

// FileData is the decoded control struct.
type FileData struct {
	SystemIdentifier    uint64
	ControlVersion      uint32
	CatalogVersion      uint32
	State               DBState
	Time                int64
	CheckPoint          uint64
	CheckPointCopy      CheckPoint
	UnloggedLSN         uint64
	MinRecoveryPoint    uint64
	MinRecoveryPointTLI uint32
	BackupStartPoint    uint64
	BackupEndPoint      uint64
	BackupEndRequired   bool
	MaxAlign            uint32
	FloatFormat         float64
	BlockSize           uint32
	RelSegSize          uint32
	XLogBlockSize       uint32
	XLogSegSize         uint32
	NameDataLen         uint32
	IndexMaxKeys        uint32
	ToastMaxChunkSize   uint32
	LargeObjectChunk    uint32
	Float8ByVal         bool
	DataChecksumVersion uint32
	CRC                 uint32
}

// PeekVersion reads the layout version field alone, which sits early
// enough to survive truncated files.
func PeekVersion(buf []byte) uint32 {
	if len(buf) < 12 {
		return 0
	}
	v, _ := format.Le32(buf, 8)
	return v
}

// Parse decodes a complete control struct.
func Parse(buf []byte) (FileData, error) {
	if len(buf) < SizeOfControlFileData {
		return FileData{}, errors.Wrapf(format.ErrShortRead, "control file: %d bytes", len(buf))
	}
	u32 := func(off int) uint32 { v, _ := format.Le32(buf, off); return v }
	u64 := func(off int) uint64 { v, _ := format.Le64(buf, off); return v }

	d := FileData{
		SystemIdentifier: u64(0),
		ControlVersion:   u32(8),
		CatalogVersion:   u32(12),
		State:            DBState(u32(16)),
		Time:             int64(u64(24)),
		CheckPoint:       u64(32),
		CheckPointCopy: CheckPoint{
			Redo:              u64(40),
			ThisTimeLineID:    u32(48),
			PrevTimeLineID:    u32(52),
			FullPageWrites:    buf[56] != 0,
			NextXid:           u64(64),
			NextOid:           u32(72),
			NextMulti:         u32(76),
			NextMultiOffset:   u32(80),
			OldestXid:         u32(84),
			OldestXidDB:       u32(88),
			OldestMulti:       u32(92),
			OldestMultiDB:     u32(96),
			Time:              int64(u64(104)),
			OldestCommitTsXid: u32(112),
			NewestCommitTsXid: u32(116),
			OldestActiveXid:   u32(120),
		},
		UnloggedLSN:         u64(128),
		MinRecoveryPoint:    u64(136),
		MinRecoveryPointTLI: u32(144),
		BackupStartPoint:    u64(152),
		BackupEndPoint:      u64(160),
		BackupEndRequired:   buf[168] != 0,
		MaxAlign:            u32(204),
		FloatFormat:         math.Float64frombits(u64(208)),
		BlockSize:           u32(216),
		RelSegSize:          u32(220),
		XLogBlockSize:       u32(224),
		XLogSegSize:         u32(228),
		NameDataLen:         u32(232),
		IndexMaxKeys:        u32(236),
		ToastMaxChunkSize:   u32(240),
		LargeObjectChunk:    u32(244),
		Float8ByVal:         buf[248] != 0,
		DataChecksumVersion: u32(252),
		CRC:                 u32(crcOffset),
	}
	return d, nil
}

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

// CRCOf computes the checksum the control file should carry.
func CRCOf(buf []byte) uint32 {
	return crc32.Checksum(buf[:crcOffset], castagnoli)
}

// ctime renders a unix timestamp the way the C library does, trailing
// newline included.
func ctime(sec int64) string {
	return time.Unix(sec, 0).Format("Mon Jan  2 15:04:05 2006") + "\n"
}

// Result tells the caller what must happen after the contents section.
type Result struct {
	// HexDump asks for a formatted dump of the raw bytes, either because
	// the caller requested one or because the struct was unreadable.
	HexDump bool
	// Failed marks the run as having found a hard problem.
	Failed bool
}

// Format prints the interpreted control file section. A version too old
// to interpret ends the section early; a truncated file reports its
// sizes and falls back to the hex dump.
func Format(w io.Writer, buf []byte, hexRequested bool) Result {
	fmt.Fprintf(w, "\n<pg_control Contents> *********************************************\n\n")

	version := PeekVersion(buf)
	if version < minReadableVersion {
		fmt.Fprintf(w, "pg_filedump: pg_control version %d not supported.\n", version)
		return Result{}
	}

	d, err := Parse(buf)
	if err != nil {
		fmt.Fprintf(w, " Error: pg_control file size incorrect.\n"+
			"        Size: Correct <%d>  Received <%d>.\n\n",
			SizeOfControlFileData, len(buf))
		return Result{HexDump: true, Failed: true}
	}

	crcState := "Not Correct"
	if CRCOf(buf) == d.CRC {
		crcState = "Correct"
	}
	versionNote := ""
	if d.ControlVersion != Version {
		versionNote = " (Not Correct!)"
	}
	floatNote := ""
	if d.FloatFormat != floatFormatValue {
		floatNote = " (Not Correct!)"
	}
	cp := d.CheckPointCopy

	fmt.Fprintf(w, "                          CRC: %s\n"+
		"           pg_control Version: %d%s\n"+
		"              Catalog Version: %d\n"+
		"            System Identifier: %d\n"+
		"                        State: %s\n"+
		"                Last Mod Time: %s"+
		"       Last Checkpoint Record: Log File (%d) Offset (0x%08x)\n"+
		"  Last Checkpoint Record Redo: Log File (%d) Offset (0x%08x)\n"+
		"             |-    TimeLineID: %d\n"+
		"             |-      Next XID: %d/%d\n"+
		"             |-      Next OID: %d\n"+
		"             |-    Next Multi: %d\n"+
		"             |- Next MultiOff: %d\n"+
		"             |-          Time: %s"+
		"       Minimum Recovery Point: Log File (%d) Offset (0x%08x)\n"+
		"       Maximum Data Alignment: %d\n"+
		"        Floating-Point Sample: %.7g%s\n"+
		"          Database Block Size: %d\n"+
		"           Blocks Per Segment: %d\n"+
		"              XLOG Block Size: %d\n"+
		"            XLOG Segment Size: %d\n"+
		"    Maximum Identifier Length: %d\n"+
		"           Maximum Index Keys: %d\n"+
		"             TOAST Chunk Size: %d\n\n",
		crcState,
		d.ControlVersion, versionNote,
		d.CatalogVersion,
		d.SystemIdentifier,
		d.State,
		ctime(d.Time),
		uint32(d.CheckPoint>>32), uint32(d.CheckPoint),
		uint32(cp.Redo>>32), uint32(cp.Redo),
		cp.ThisTimeLineID,
		uint32(cp.NextXid>>32), uint32(cp.NextXid),
		cp.NextOid,
		cp.NextMulti, cp.NextMultiOffset,
		ctime(cp.Time),
		uint32(d.MinRecoveryPoint>>32), uint32(d.MinRecoveryPoint),
		d.MaxAlign,
		d.FloatFormat, floatNote,
		d.BlockSize,
		d.RelSegSize,
		d.XLogBlockSize,
		d.XLogSegSize,
		d.NameDataLen,
		d.IndexMaxKeys,
		d.ToastMaxChunkSize)

	return Result{HexDump: hexRequested}
}
