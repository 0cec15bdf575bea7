// Package region provides the memory sources that back tracked buffers.
//
// A Source hands out contiguous byte regions and resizes them with realloc
// semantics: growth may happen in place or move the data, and a failed
// resize leaves the old region untouched and still owned by the caller.
//
// Sources are not safe for concurrent use unless stated otherwise.
package region

import (
	"errors"
	"fmt"
	"strings"
)

// ErrOutOfMemory indicates the source could not satisfy a request.
var ErrOutOfMemory = errors.New("region: out of memory")

// Source is the allocation facility behind a buffer.
type Source interface {
	// Alloc returns a region of exactly n bytes.
	Alloc(n uint) ([]byte, error)

	// Resize returns a region of n bytes whose first min(len(b), n) bytes
	// match b. The result may alias b. On error b is unchanged and still valid.
	Resize(b []byte, n uint) ([]byte, error)

	// Free returns b to the source. b must have been returned by Alloc or
	// Resize on the same source and must not be used afterwards.
	Free(b []byte) error

	// Name identifies the source in logs and metrics.
	Name() string
}

// Source names accepted by ByName.
const (
	NameHeap = "heap"
	NameMmap = "mmap"
)

// ByName returns the source registered under name.
func ByName(name string) (Source, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case NameHeap, "":
		return Heap(), nil
	case NameMmap:
		return Mmap(), nil
	default:
		return nil, fmt.Errorf("region: unknown source %q (want %s or %s)", name, NameHeap, NameMmap)
	}
}

func outOfMemory(op string, n uint, cause error) error {
	if cause == nil {
		return fmt.Errorf("%w: %s %d bytes", ErrOutOfMemory, op, n)
	}
	return fmt.Errorf("%w: %s %d bytes: %v", ErrOutOfMemory, op, n, cause)
}
