// Package buffer provides growable byte buffers that track their own capacity.
//
// # Overview
//
// A Buffer pairs a byte region with the capacity it was allocated at. Every
// capacity is rounded up to the next power of two, so a buffer that is grown
// repeatedly in small steps, for example while building a string, only
// reallocates when a request crosses the next power of two.
//
// # Ensure and Release
//
// The whole lifecycle goes through two operations:
//
//   - Ensure(b, n): return a buffer with capacity >= n. A nil b creates one.
//   - b.Release(): free the region. The buffer is dead afterwards.
//
// Ensure on a buffer that is already large enough returns it unchanged, with
// no allocation and no copy. Growth may move the region; slices obtained from
// Region or Bytes before the call must not be used after it.
//
//	var b *buffer.Buffer
//	for _, part := range parts {
//	    var err error
//	    if b, err = buffer.Ensure(b, b.Len()+uint(len(part))); err != nil {
//	        return err
//	    }
//	    if _, err := b.Write(part); err != nil {
//	        return err
//	    }
//	}
//	defer b.Release()
//
// # Capacity Rounding
//
//	Ensure(nil, 0)  → capacity 1
//	Ensure(nil, 1)  → capacity 1
//	Ensure(nil, 9)  → capacity 16
//	Ensure(b, 16)   → unchanged
//	Ensure(b, 17)   → capacity 32
//
// Requests whose rounded capacity cannot be represented as a slice length
// fail with an error matching both ErrSizeOverflow and ErrOutOfMemory.
//
// # Failure
//
// Growth is all or nothing. When the source cannot provide the memory, Ensure
// returns ErrOutOfMemory and the buffer keeps its previous region, capacity
// and content.
//
// Operations on a released buffer, or on a zero-value Buffer that was never
// returned by Ensure, return ErrInvalidHandle.
//
// # Handles
//
// Table issues buffers by Handle: a slot index plus a generation. Releasing a
// handle advances its slot's generation, so stale or forged handles are
// detected rather than aliasing a newer buffer.
//
// # Sources
//
// Regions come from a region.Source, selected with WithSource. The default is
// the Go heap; region.Mmap() uses anonymous mappings and, on Linux, mremap.
//
// # Thread Safety
//
// Buffer and Table are not thread-safe. A buffer has exactly one owner;
// callers sharing one must synchronize access externally.
package buffer
