// align.go - Alignment arithmetic for on-disk structures
package format

// Alignment quanta. MaxAlignOf matches the 8-byte maximum alignment of
// the targeted platform; tuple data offsets and item offsets are always
// multiples of it on well-formed pages.
const (
	ShortAlignOf  = 2
	IntAlignOf    = 4
	DoubleAlignOf = 8
	MaxAlignOf    = 8
)

func align(n, quantum int) int { return (n + quantum - 1) &^ (quantum - 1) }

func ShortAlign(n int) int  { return align(n, ShortAlignOf) }
func IntAlign(n int) int    { return align(n, IntAlignOf) }
func DoubleAlign(n int) int { return align(n, DoubleAlignOf) }
func MaxAlign(n int) int    { return align(n, MaxAlignOf) }

// MaxAlignDown rounds n down to the previous MAXALIGN boundary.
func MaxAlignDown(n int) int { return n &^ (MaxAlignOf - 1) }
