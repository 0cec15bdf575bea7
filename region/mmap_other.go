//go:build !unix

package region

// Mmap falls back to the heap source where anonymous mappings are not
// available through golang.org/x/sys/unix.
func Mmap() Source {
	return Heap()
}
