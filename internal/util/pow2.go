package util

import "math/bits"

// NextPow2 rounds n up to a power of two, the sizing rule for masked ring
// buffers. n <= 1 gives 1. Results are capped at the largest power of two an
// int can hold.
func NextPow2(n int) int {
	if n <= 1 {
		return 1
	}
	shift := bits.Len(uint(n - 1))
	if shift >= bits.UintSize-1 {
		return 1 << (bits.UintSize - 2)
	}
	return 1 << shift
}
