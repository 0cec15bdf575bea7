package region

import (
	"fmt"
	"math/bits"

	"github.com/ericrobbins/emalloc/internal/buf"
)

// maxHeapAlloc mirrors the runtime's largest possible heap object: 1<<48 on
// 64-bit platforms, 1<<31 on 32-bit ones.
const maxHeapAlloc = uint(1) << (bits.UintSize/64*17 + 31)

type heapSource struct{}

// Heap returns a source backed by the Go heap. Free is a no-op; the region
// is reclaimed by the garbage collector once unreferenced.
func Heap() Source {
	return heapSource{}
}

func (heapSource) Name() string { return NameHeap }

func (heapSource) Alloc(n uint) ([]byte, error) {
	return heapAlloc(n)
}

func (heapSource) Resize(b []byte, n uint) ([]byte, error) {
	if n <= uint(cap(b)) {
		return b[:n], nil
	}
	nb, err := heapAlloc(n)
	if err != nil {
		return nil, err
	}
	copy(nb, b)
	return nb, nil
}

func (heapSource) Free([]byte) error { return nil }

func heapAlloc(n uint) (b []byte, err error) {
	if !buf.FitsInt(n) || n > maxHeapAlloc {
		return nil, outOfMemory("heap alloc", n, nil)
	}
	defer func() {
		// make panics with a runtime error for lengths it cannot satisfy.
		if r := recover(); r != nil {
			b, err = nil, outOfMemory("heap alloc", n, fmt.Errorf("%v", r))
		}
	}()
	return make([]byte, n), nil
}
