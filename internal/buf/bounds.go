// Package buf contains overflow-safe size arithmetic and bounds-checked slicing.
package buf

import (
	"fmt"
	"math"
)

// MaxInt is the largest length a Go slice can have on this platform.
const MaxInt = uint(math.MaxInt)

// AddOverflowSafe adds a and b, returning ok = false when the result would overflow uint.
func AddOverflowSafe(a, b uint) (uint, bool) {
	if a > math.MaxUint-b {
		return 0, false
	}
	return a + b, true
}

// FitsInt reports whether n can be used as a slice length.
func FitsInt(n uint) bool {
	return n <= MaxInt
}

// CheckRange validates that n bytes starting at off fit in a region of
// capacity bytes. Returns the end offset if valid.
//
//	end, err := buf.CheckRange(b.Cap(), off, uint(len(p)))
//	if err != nil {
//	    return fmt.Errorf("write: %w", err)
//	}
func CheckRange(capacity, off, n uint) (uint, error) {
	end, ok := AddOverflowSafe(off, n)
	if !ok {
		return 0, fmt.Errorf("overflow: off=%d + n=%d", off, n)
	}
	if end > capacity {
		return 0, fmt.Errorf("bounds: end=%d > cap=%d", end, capacity)
	}
	return end, nil
}

// Slice returns the sub-slice [off:off+n] if it fits within len(b).
func Slice(b []byte, off, n uint) ([]byte, bool) {
	end, err := CheckRange(uint(len(b)), off, n)
	if err != nil {
		return nil, false
	}
	return b[off:end], true
}
