package region

import "github.com/ericrobbins/emalloc/internal/buf"

// Limited wraps a Source with a byte budget. Requests that would push the
// bytes in use past the budget fail with ErrOutOfMemory without touching
// the wrapped source.
type Limited struct {
	src  Source
	max  uint
	used uint
}

// Limit returns src restricted to max bytes in use.
func Limit(src Source, max uint) *Limited {
	return &Limited{src: src, max: max}
}

// Name implements Source.
func (l *Limited) Name() string { return "limit(" + l.src.Name() + ")" }

// InUse returns the bytes currently charged against the budget.
func (l *Limited) InUse() uint { return l.used }

// Max returns the budget.
func (l *Limited) Max() uint { return l.max }

// Alloc implements Source.
func (l *Limited) Alloc(n uint) ([]byte, error) {
	if !l.fits(n) {
		return nil, outOfMemory("limited alloc", n, nil)
	}
	b, err := l.src.Alloc(n)
	if err != nil {
		return nil, err
	}
	l.used += uint(len(b))
	return b, nil
}

// Resize implements Source.
func (l *Limited) Resize(b []byte, n uint) ([]byte, error) {
	old := uint(len(b))
	if n > old && !l.fits(n-old) {
		return nil, outOfMemory("limited resize", n, nil)
	}
	nb, err := l.src.Resize(b, n)
	if err != nil {
		return nil, err
	}
	l.used = l.used - old + uint(len(nb))
	return nb, nil
}

// Free implements Source.
func (l *Limited) Free(b []byte) error {
	if err := l.src.Free(b); err != nil {
		return err
	}
	l.used -= uint(len(b))
	return nil
}

func (l *Limited) fits(n uint) bool {
	total, ok := buf.AddOverflowSafe(l.used, n)
	return ok && total <= l.max
}
