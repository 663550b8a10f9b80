// segment.go - Relation segment naming
package reader

// SegmentNumberFromPath derives the segment number from a relation file
// name: large relations are split into segments named <filenode>.1,
// <filenode>.2, and so on. A name without a trailing ".N" is segment 0.
func SegmentNumberFromPath(path string) uint32 {
	i := len(path) - 1
	if i < 0 {
		return 0
	}
	for i >= 0 && path[i] >= '0' && path[i] <= '9' {
		i--
	}
	if i < 0 || path[i] != '.' || i == len(path)-1 {
		return 0
	}
	var n uint32
	for _, c := range path[i+1:] {
		n = n*10 + uint32(c-'0')
	}
	return n
}
