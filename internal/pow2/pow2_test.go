package pow2

import (
	"math"
	"math/bits"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// reference computes the rounding with math/bits for comparison.
func reference(x uint64) uint64 {
	if x <= 1 {
		return 1
	}
	return 1 << bits.Len64(x-1)
}

func TestRoundUp_Table(t *testing.T) {
	tests := []struct {
		in   uint
		want uint
	}{
		{0, 1},
		{1, 1},
		{2, 2},
		{3, 4},
		{5, 8},
		{6, 8},
		{8, 8},
		{9, 16},
		{16, 16},
		{17, 32},
		{100, 128},
		{10001, 16384},
		{990001, 1048576},
	}

	for _, tt := range tests {
		got, ok := RoundUp(tt.in)
		require.True(t, ok, "RoundUp(%d)", tt.in)
		assert.Equal(t, tt.want, got, "RoundUp(%d)", tt.in)
	}
}

func TestRoundUp_MatchesReference(t *testing.T) {
	for x := uint(0); x <= 1<<16; x++ {
		got, ok := RoundUp(x)
		require.True(t, ok)
		require.Equal(t, uint(reference(uint64(x))), got, "x=%d", x)
		require.True(t, Is(got), "x=%d produced non power of two %d", x, got)
		require.GreaterOrEqual(t, got, x)
	}
}

func TestRoundUp32_Boundaries(t *testing.T) {
	got, ok := RoundUp32(1 << 31)
	require.True(t, ok)
	assert.Equal(t, uint32(1<<31), got)

	got, ok = RoundUp32(1<<30 + 1)
	require.True(t, ok)
	assert.Equal(t, uint32(1<<31), got)

	_, ok = RoundUp32(1<<31 + 1)
	assert.False(t, ok, "must not wrap to zero")

	_, ok = RoundUp32(math.MaxUint32)
	assert.False(t, ok)

	got, ok = RoundUp32(0)
	require.True(t, ok)
	assert.Equal(t, uint32(1), got)
}

func TestRoundUp64_Boundaries(t *testing.T) {
	got, ok := RoundUp64(1 << 63)
	require.True(t, ok)
	assert.Equal(t, uint64(1<<63), got)

	got, ok = RoundUp64(1<<32 + 1)
	require.True(t, ok)
	assert.Equal(t, uint64(1<<33), got, "upper half must be smeared")

	got, ok = RoundUp64(1<<40 - 3)
	require.True(t, ok)
	assert.Equal(t, uint64(1<<40), got)

	_, ok = RoundUp64(1<<63 + 1)
	assert.False(t, ok)

	_, ok = RoundUp64(math.MaxUint64)
	assert.False(t, ok)
}

func TestRoundUp_NativeBoundaries(t *testing.T) {
	got, ok := RoundUp(Max)
	require.True(t, ok)
	assert.Equal(t, Max, got)

	_, ok = RoundUp(Max + 1)
	assert.False(t, ok)

	_, ok = RoundUp(^uint(0))
	assert.False(t, ok)
}

func TestIsAndLog2(t *testing.T) {
	assert.False(t, Is(0))
	assert.True(t, Is(1))
	assert.True(t, Is(64))
	assert.False(t, Is(96))
	assert.True(t, Is(Max))

	assert.Equal(t, 0, Log2(1))
	assert.Equal(t, 10, Log2(1024))
	assert.Equal(t, Width-1, Log2(Max))
}

func FuzzRoundUp64(f *testing.F) {
	for _, seed := range []uint64{0, 1, 2, 3, 1000, 1 << 32, 1<<32 + 1, 1 << 63} {
		f.Add(seed)
	}
	f.Fuzz(func(t *testing.T, x uint64) {
		got, ok := RoundUp64(x)
		if x > 1<<63 {
			if ok {
				t.Fatalf("RoundUp64(%d) = %d, want overflow", x, got)
			}
			return
		}
		if !ok || got != reference(x) {
			t.Fatalf("RoundUp64(%d) = %d,%v want %d", x, got, ok, reference(x))
		}
	})
}

func BenchmarkRoundUp(b *testing.B) {
	b.ReportAllocs()
	var sink uint
	for i := range b.N {
		v, _ := RoundUp(uint(i))
		sink += v
	}
	_ = sink
}
