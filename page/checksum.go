// checksum.go - Data page checksums
//
// The page checksum runs 32 FNV-derived lanes over the block in parallel,
// mixes in two rounds of zeroes, xor-folds the lanes, mixes the absolute
// block number, and reduces to 16 bits with a +1 offset so a stored
// checksum is never zero.
package page

import "encoding/binary"

const (
	nSums    = 32
	fnvPrime = 16777619
)

var checksumBaseOffsets = [nSums]uint32{
	0x5B1F36E9, 0xB8525960, 0x02AB50AA, 0x1DE66D2A,
	0x79FF467A, 0x9BB9F8A3, 0x217E7CD2, 0x83E13D2C,
	0xF8D4474F, 0xE39EB970, 0x42C6AE16, 0x993216FA,
	0x7B093B5D, 0x98DAFF3C, 0xF718902A, 0x0B1C9CDB,
	0xE58F764B, 0x187636BC, 0x5D7B3BB1, 0xE73DE7DE,
	0x92BEC979, 0xCCA6C0B2, 0x304A0979, 0x85AA43D4,
	0x783125BB, 0x6CA8EAA2, 0xE407EAC6, 0x4B5CFC3E,
	0x9FBF8C76, 0x15CA20BE, 0xF2CA9FD3, 0x959BD756,
}

func checksumComp(checksum, value uint32) uint32 {
	tmp := checksum ^ value
	return tmp*fnvPrime ^ (tmp >> 17)
}

// Checksum computes the page checksum of a fully read block. The stored
// pd_checksum field is treated as zero, and blkno must be the block's
// absolute number across segments.
func Checksum(block []byte, blkno uint32) uint16 {
	sums := checksumBaseOffsets
	rows := len(block) / (4 * nSums)
	for i := 0; i < rows; i++ {
		base := i * nSums * 4
		for j := 0; j < nSums; j++ {
			w := binary.LittleEndian.Uint32(block[base+j*4:])
			if i == 0 && j == 2 {
				// word 2 carries pd_checksum in its low half
				w &^= 0xFFFF
			}
			sums[j] = checksumComp(sums[j], w)
		}
	}
	for i := 0; i < 2; i++ {
		for j := 0; j < nSums; j++ {
			sums[j] = checksumComp(sums[j], 0)
		}
	}
	var result uint32
	for j := 0; j < nSums; j++ {
		result ^= sums[j]
	}
	result ^= blkno
	return uint16(result%65535) + 1
}
