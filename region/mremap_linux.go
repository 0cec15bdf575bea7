//go:build linux

package region

import "golang.org/x/sys/unix"

// remap grows b with mremap. The kernel keeps the old mapping intact when
// the call fails.
func remap(b []byte, n uint) ([]byte, error) {
	nb, err := unix.Mremap(b, int(n), unix.MREMAP_MAYMOVE)
	if err != nil {
		return nil, outOfMemory("mremap", n, err)
	}
	return nb, nil
}
