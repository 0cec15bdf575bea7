//go:build unix

package region

import (
	"golang.org/x/sys/unix"

	"github.com/ericrobbins/emalloc/internal/buf"
)

// mmapSource maps anonymous private memory for every region. Regions are
// page-granular underneath, but the returned slice is exactly n bytes long.
type mmapSource struct{}

// Mmap returns a source backed by anonymous memory mappings. On Linux,
// growth uses mremap and can extend a mapping without copying.
func Mmap() Source {
	return mmapSource{}
}

func (mmapSource) Name() string { return NameMmap }

func (mmapSource) Alloc(n uint) ([]byte, error) {
	return mapAnon(n)
}

func (mmapSource) Resize(b []byte, n uint) ([]byte, error) {
	if len(b) == 0 {
		return mapAnon(n)
	}
	if !buf.FitsInt(n) || n == 0 {
		return nil, outOfMemory("mremap", n, nil)
	}
	return remap(b, n)
}

func (mmapSource) Free(b []byte) error {
	if len(b) == 0 {
		return nil
	}
	return unix.Munmap(b)
}

func mapAnon(n uint) ([]byte, error) {
	if !buf.FitsInt(n) || n == 0 {
		return nil, outOfMemory("mmap", n, nil)
	}
	b, err := unix.Mmap(-1, 0, int(n), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, outOfMemory("mmap", n, err)
	}
	return b, nil
}
