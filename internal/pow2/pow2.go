// Package pow2 rounds sizes up to the next power of two.
//
// The rounding is the classic bit-smearing trick: subtract one, OR every bit
// below the highest set bit into place, then add one. The smear runs on a
// fixed-width unsigned integer so the result is the same on every platform
// with the same word size. The last shift (half the word width) is only
// applied when the word is wide enough, so no shift ever equals the full
// width of the operand.
package pow2

import "math/bits"

// Width is the bit width of the native size type.
const Width = bits.UintSize

// RoundUp32 returns the smallest power of two >= x.
// RoundUp32(0) is 1. ok is false when the result does not fit in 32 bits.
func RoundUp32(x uint32) (uint32, bool) {
	if x == 0 {
		return 1, true
	}
	if x > 1<<31 {
		return 0, false
	}
	x--
	x |= x >> 1
	x |= x >> 2
	x |= x >> 4
	x |= x >> 8
	x |= x >> 16
	return x + 1, true
}

// RoundUp64 returns the smallest power of two >= x.
// RoundUp64(0) is 1. ok is false when the result does not fit in 64 bits.
func RoundUp64(x uint64) (uint64, bool) {
	if x == 0 {
		return 1, true
	}
	if x > 1<<63 {
		return 0, false
	}
	x--
	x |= x >> 1
	x |= x >> 2
	x |= x >> 4
	x |= x >> 8
	x |= x >> 16
	x |= x >> 32
	return x + 1, true
}

// RoundUp rounds x using the native word width.
func RoundUp(x uint) (uint, bool) {
	if x == 0 {
		return 1, true
	}
	if x > Max {
		return 0, false
	}
	x--
	x |= x >> 1
	x |= x >> 2
	x |= x >> 4
	x |= x >> 8
	x |= x >> 16
	// (Width/2)&32 is 32 on 64-bit and 0 on 32-bit. A zero shift is a no-op.
	x |= x >> ((Width / 2) & 32)
	return x + 1, true
}

// Max is the largest power of two representable in a uint.
const Max uint = 1 << (Width - 1)

// Is reports whether x is a power of two.
func Is(x uint) bool {
	return x != 0 && x&(x-1) == 0
}

// Log2 returns k for x == 1<<k. The result is meaningless unless Is(x).
func Log2(x uint) int {
	return bits.TrailingZeros(x)
}
