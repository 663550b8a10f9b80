// datetime.go - Decoders for date and time types.
//
// Dates are day counts and timestamps microsecond counts from
// 2000-01-01; both use int minimum/maximum as the -infinity/infinity
// sentinels. Calendar conversion goes through Julian day numbers.
package decode

import (
	"fmt"
	"io"
	"math"

	"github.com/df7cb/pg-filedump/format"
)

const (
	// postgresEpochJDate is the Julian day number of 2000-01-01.
	postgresEpochJDate int32 = 2451545
	usecsPerDay        int64 = 86400000000

	dtNoBegin = math.MinInt64
	dtNoEnd   = math.MaxInt64
)

// j2date converts a Julian day number to year, month, day. Years
// before 1 AD come back zero or negative and are rendered with a BC
// suffix by the callers.
func j2date(jd int32) (year, month, day int) {
	julian := uint32(jd) + 32044
	quad := julian / 146097
	extra := (julian-quad*146097)*4 + 3
	julian += 60 + quad*3 + extra/146097
	quad = julian / 1461
	julian -= quad * 1461
	y := int32(julian * 4 / 1461)
	if y != 0 {
		julian = (julian + 305) % 365
	} else {
		julian = (julian + 306) % 366
	}
	julian += 123
	y += int32(quad * 4)
	year = int(y) - 4800
	quad = julian * 2141 / 65536
	day = int(julian) - int(7834*quad/256)
	month = int((quad+10)%12) + 1
	return year, month, day
}

func decodeDate(d *Decoder, _ io.Writer, cur *Cursor) error {
	if err := cur.Align(format.IntAlignOf); err != nil {
		return err
	}
	b, err := cur.Take(4)
	if err != nil {
		return err
	}
	raw, _ := format.Le32(b, 0)
	days := int32(raw)
	switch days {
	case math.MinInt32:
		d.line.Append("-infinity")
	case math.MaxInt32:
		d.line.Append("infinity")
	default:
		year, month, day := j2date(days + postgresEpochJDate)
		suffix := ""
		if year <= 0 {
			year = -year + 1
			suffix = " BC"
		}
		d.line.Append(fmt.Sprintf("%04d-%02d-%02d%s", year, month, day, suffix))
	}
	return nil
}

func decodeTime(d *Decoder, _ io.Writer, cur *Cursor) error {
	if err := cur.Align(format.DoubleAlignOf); err != nil {
		return err
	}
	b, err := cur.Take(8)
	if err != nil {
		return err
	}
	raw, _ := format.Le64(b, 0)
	ts := int64(raw)
	sec := ts / 1000000
	d.line.Append(fmt.Sprintf("%02d:%02d:%02d.%06d",
		uint64(sec/60/60), uint64(sec/60%60), uint64(sec%60), uint64(ts%1000000)))
	return nil
}

func decodeTimetz(d *Decoder, _ io.Writer, cur *Cursor) error {
	if err := cur.Align(format.DoubleAlignOf); err != nil {
		return err
	}
	b, err := cur.Take(12)
	if err != nil {
		return err
	}
	raw, _ := format.Le64(b, 0)
	zone, _ := format.Le32(b, 8)
	ts := int64(raw)
	sec := ts / 1000000
	// the stored zone is seconds west of UTC, displayed as an offset
	zoneMin := -(int32(zone) / 60)
	sign := '-'
	if zoneMin > 0 {
		sign = '+'
	}
	d.line.Append(fmt.Sprintf("%02d:%02d:%02d.%06d%c%02d:%02d",
		uint64(sec/60/60), uint64(sec/60%60), uint64(sec%60), uint64(ts%1000000),
		sign, iabs(zoneMin/60), iabs(zoneMin%60)))
	return nil
}

func decodeTimestamp(d *Decoder, _ io.Writer, cur *Cursor) error {
	return appendTimestamp(d, cur, false)
}

func decodeTimestamptz(d *Decoder, _ io.Writer, cur *Cursor) error {
	return appendTimestamp(d, cur, true)
}

func appendTimestamp(d *Decoder, cur *Cursor, withZone bool) error {
	if err := cur.Align(format.DoubleAlignOf); err != nil {
		return err
	}
	b, err := cur.Take(8)
	if err != nil {
		return err
	}
	raw, _ := format.Le64(b, 0)
	ts := int64(raw)
	switch ts {
	case dtNoBegin:
		d.line.Append("-infinity")
		return nil
	case dtNoEnd:
		d.line.Append("infinity")
		return nil
	}

	jd := int32(ts / usecsPerDay)
	if jd != 0 {
		ts -= int64(jd) * usecsPerDay
	}
	if ts < 0 {
		ts += usecsPerDay
		jd--
	}
	year, month, day := j2date(jd + postgresEpochJDate)
	sec := ts / 1000000

	zone := ""
	if withZone {
		zone = "+00"
	}
	suffix := ""
	if year <= 0 {
		year = -year + 1
		suffix = " BC"
	}
	d.line.Append(fmt.Sprintf("%04d-%02d-%02d %02d:%02d:%02d.%06d%s%s",
		year, month, day,
		uint64(sec/60/60), uint64(sec/60%60), uint64(sec%60), uint64(ts%1000000),
		zone, suffix))
	return nil
}

func iabs(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}
