// numeric.go - Arbitrary-precision numeric rendering.
package decode

import (
	"github.com/cockroachdb/errors"

	"github.com/df7cb/pg-filedump/format"
)

// The numeric header word picks one of three layouts by its top bits:
// 11 a special value, 10 a short form packing sign, scale and weight
// into the one word, otherwise a long form with a separate weight
// word. Digits follow in base 10000, one per int16.
const (
	numericSignMask uint16 = 0xC000
	numericNeg      uint16 = 0x4000
	numericShort    uint16 = 0x8000
	numericSpecial  uint16 = 0xC000

	numericNaN  uint16 = 0xC000
	numericPInf uint16 = 0xD000
	numericNInf uint16 = 0xF000

	numericShortSignMask       uint16 = 0x2000
	numericShortDscaleMask     uint16 = 0x1F80
	numericShortDscaleShift           = 7
	numericShortWeightSignMask uint16 = 0x0040
	numericShortWeightMask     uint16 = 0x003F

	numericDscaleMask uint16 = 0x3FFF

	decDigits = 4
)

// renderNumeric prints a numeric datum from its packed digit form.
// The buffer starts at the header word, after any varlena header has
// been stripped by the caller.
func renderNumeric(d *Decoder, b []byte) error {
	if len(b) < 2 {
		return errors.Wrap(ErrNoSpace, "numeric header")
	}
	header, _ := format.Le16(b, 0)

	if header&numericSignMask == numericSpecial {
		switch header {
		case numericNaN:
			d.line.Append("NaN")
		case numericPInf:
			d.line.Append("Infinity")
		case numericNInf:
			d.line.Append("-Infinity")
		default:
			return errors.Newf("unrecognized numeric special value 0x%04x", header)
		}
		return nil
	}

	var (
		negative bool
		weight   int
		dscale   int
		hdrSize  int
	)
	if header&numericShort != 0 {
		negative = header&numericShortSignMask != 0
		dscale = int(header&numericShortDscaleMask) >> numericShortDscaleShift
		weight = int(header & numericShortWeightMask)
		if header&numericShortWeightSignMask != 0 {
			weight |= ^int(numericShortWeightMask)
		}
		hdrSize = 2
	} else {
		negative = header&numericSignMask == numericNeg
		dscale = int(header & numericDscaleMask)
		if len(b) < 4 {
			return errors.Wrap(ErrNoSpace, "numeric weight")
		}
		w, _ := format.Le16(b, 2)
		weight = int(int16(w))
		hdrSize = 4
	}

	if len(b) == hdrSize {
		// no digits stored, the value is exactly zero
		d.line.Append("0")
		return nil
	}

	ndigits := (len(b) - hdrSize) / 2
	digit := func(i int) int16 {
		v, _ := format.Le16(b, hdrSize+2*i)
		return int16(v)
	}

	var out []byte
	if negative {
		out = append(out, '-')
	}

	// digits before the decimal point, leading zeroes suppressed in
	// the first base-10000 group only
	di := 0
	if weight < 0 {
		di = weight + 1
		out = append(out, '0')
	} else {
		for di = 0; di <= weight; di++ {
			var dig int16
			if di < ndigits {
				dig = digit(di)
			}
			putit := di > 0
			d1 := dig / 1000
			dig -= d1 * 1000
			putit = putit || d1 > 0
			if putit {
				out = append(out, byte('0'+d1))
			}
			d1 = dig / 100
			dig -= d1 * 100
			putit = putit || d1 > 0
			if putit {
				out = append(out, byte('0'+d1))
			}
			d1 = dig / 10
			dig -= d1 * 10
			putit = putit || d1 > 0
			if putit {
				out = append(out, byte('0'+d1))
			}
			out = append(out, byte('0'+dig))
		}
	}

	// fractional digits, emitted in whole groups then cut to dscale
	if dscale > 0 {
		out = append(out, '.')
		frac := len(out)
		for i := 0; i < dscale; di, i = di+1, i+decDigits {
			var dig int16
			if di >= 0 && di < ndigits {
				dig = digit(di)
			}
			d1 := dig / 1000
			dig -= d1 * 1000
			out = append(out, byte('0'+d1))
			d1 = dig / 100
			dig -= d1 * 100
			out = append(out, byte('0'+d1))
			d1 = dig / 10
			dig -= d1 * 10
			out = append(out, byte('0'+d1))
			out = append(out, byte('0'+dig))
		}
		out = out[:frac+dscale]
	}

	d.line.Append(string(out))
	return nil
}
