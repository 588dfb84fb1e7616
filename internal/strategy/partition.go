package strategy

import (
	"slices"

	"github.com/backmassage/motionbench/internal/motion"
)

// Partition splits streams into exactly n contiguous groups of
// ceil(len/n) streams each; trailing groups may be short or empty. Each
// group is an independent copy. n below 1 is treated as 1.
func Partition(streams []motion.Stream, n int) [][]motion.Stream {
	n = max(n, 1)
	size := (len(streams) + n - 1) / n
	groups := make([][]motion.Stream, n)
	for i := range groups {
		lo := min(i*size, len(streams))
		hi := min(lo+size, len(streams))
		groups[i] = slices.Clone(streams[lo:hi])
	}
	return groups
}
