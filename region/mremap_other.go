//go:build unix && !linux

package region

import "golang.org/x/sys/unix"

// remap emulates mremap with map, copy, unmap.
func remap(b []byte, n uint) ([]byte, error) {
	nb, err := mapAnon(n)
	if err != nil {
		return nil, err
	}
	copy(nb, b)
	if err := unix.Munmap(b); err != nil {
		_ = unix.Munmap(nb)
		return nil, err
	}
	return nb, nil
}
