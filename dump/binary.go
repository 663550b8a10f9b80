// binary.go - Hex and ascii block formatting.
package dump

import "fmt"

const bytesPerLine = 16

// formatBinary prints buf[start:start+n] sixteen bytes per line, hex
// on the left in 4-byte groups, printable ascii on the right. Addresses
// are block offsets, or file offsets under absolute addressing.
func (d *Dumper) formatBinary(buf []byte, n, start int) {
	if n <= 0 {
		return
	}
	last := start + n
	if last > len(buf) {
		last = len(buf)
	}
	for index := start; index < last; index += bytesPerLine {
		stop := index + bytesPerLine

		if d.opts.Absolute {
			fmt.Fprintf(d.w, "  %08x: ", d.pageOffset+int64(index))
		} else {
			fmt.Fprintf(d.w, "  %04x: ", index)
		}

		for x := index; x < stop; x++ {
			if x < last {
				fmt.Fprintf(d.w, "%02x", buf[x])
			} else {
				fmt.Fprintf(d.w, "  ")
			}
			if x&0x03 == 0x03 {
				fmt.Fprintf(d.w, " ")
			}
		}
		fmt.Fprintf(d.w, " ")

		for x := index; x < stop; x++ {
			if x >= last {
				fmt.Fprintf(d.w, " ")
			} else if buf[x] >= 0x20 && buf[x] < 0x7F {
				fmt.Fprintf(d.w, "%c", buf[x])
			} else {
				fmt.Fprintf(d.w, ".")
			}
		}
		fmt.Fprintf(d.w, "\n")
	}
	fmt.Fprintf(d.w, "\n")
}
