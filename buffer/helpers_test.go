package buffer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ericrobbins/emalloc/internal/pow2"
	"github.com/ericrobbins/emalloc/region"
)

// spySource counts calls into the wrapped source.
type spySource struct {
	region.Source
	allocs, resizes, frees int
}

func newSpy(src region.Source) *spySource {
	return &spySource{Source: src}
}

func (s *spySource) Alloc(n uint) ([]byte, error) {
	s.allocs++
	return s.Source.Alloc(n)
}

func (s *spySource) Resize(b []byte, n uint) ([]byte, error) {
	s.resizes++
	return s.Source.Resize(b, n)
}

func (s *spySource) Free(b []byte) error {
	s.frees++
	return s.Source.Free(b)
}

// mustEnsure calls Ensure and fails the test on error.
func mustEnsure(t testing.TB, b *Buffer, size uint, opts ...Option) *Buffer {
	t.Helper()
	nb, err := Ensure(b, size, opts...)
	require.NoError(t, err, "Ensure(%d)", size)
	return nb
}

// assertInvariants checks the capacity invariants of a live buffer.
func assertInvariants(t testing.TB, b *Buffer, requested uint) {
	t.Helper()
	require.True(t, b.Live())
	require.True(t, pow2.Is(b.Cap()), "capacity %d is not a power of two", b.Cap())
	require.GreaterOrEqual(t, b.Cap(), requested)
	require.Len(t, b.Region(), int(b.Cap()))
	require.LessOrEqual(t, b.Len(), b.Cap())
}

// regionAddr identifies the region's backing memory.
func regionAddr(b *Buffer) *byte {
	return &b.Region()[0]
}
