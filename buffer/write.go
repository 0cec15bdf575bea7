package buffer

import (
	"fmt"
	"io"

	"github.com/ericrobbins/emalloc/internal/buf"
)

var (
	_ io.Writer       = (*Buffer)(nil)
	_ io.StringWriter = (*Buffer)(nil)
	_ io.ByteWriter   = (*Buffer)(nil)
	_ io.WriterAt     = (*Buffer)(nil)
)

// Write appends p, growing the buffer as needed.
func (b *Buffer) Write(p []byte) (int, error) {
	if err := b.reserve(uint(len(p))); err != nil {
		return 0, err
	}
	n := copy(b.data[b.length:], p)
	b.length += uint(n)
	return n, nil
}

// WriteString appends s, growing the buffer as needed.
func (b *Buffer) WriteString(s string) (int, error) {
	if err := b.reserve(uint(len(s))); err != nil {
		return 0, err
	}
	n := copy(b.data[b.length:], s)
	b.length += uint(n)
	return n, nil
}

// WriteByte appends c, growing the buffer as needed.
func (b *Buffer) WriteByte(c byte) error {
	if err := b.reserve(1); err != nil {
		return err
	}
	b.data[b.length] = c
	b.length++
	return nil
}

// WriteAt writes p at off without growing the buffer. The length is
// extended when the write ends past it.
func (b *Buffer) WriteAt(p []byte, off int64) (int, error) {
	if !b.Live() {
		return 0, b.invalid("write at")
	}
	if off < 0 || uint64(off) > uint64(buf.MaxInt) {
		return 0, fmt.Errorf("buffer: write at offset %d: %w", off, ErrOutOfRange)
	}
	dst, ok := buf.Slice(b.data, uint(off), uint(len(p)))
	if !ok {
		return 0, fmt.Errorf("buffer: write %d bytes at %d, cap %d: %w", len(p), off, b.capacity, ErrOutOfRange)
	}
	n := copy(dst, p)
	if end := uint(off) + uint(n); end > b.length {
		b.length = end
	}
	return n, nil
}

// PutCString replaces the content with s followed by a NUL byte. Len()
// excludes the terminator, which stays in the region.
func (b *Buffer) PutCString(s string) error {
	if !b.Live() {
		return b.invalid("put string")
	}
	need, ok := buf.AddOverflowSafe(uint(len(s)), 1)
	if !ok {
		return fmt.Errorf("buffer: put string: %w", ErrSizeOverflow)
	}
	if err := b.ensure(need); err != nil {
		return err
	}
	n := copy(b.data, s)
	b.data[n] = 0
	b.length = uint(n)
	return nil
}

// reserve makes room for n more bytes after Len().
func (b *Buffer) reserve(n uint) error {
	if !b.Live() {
		return b.invalid("write")
	}
	need, ok := buf.AddOverflowSafe(b.length, n)
	if !ok {
		return fmt.Errorf("buffer: write %d bytes after %d: %w: %w", n, b.length, ErrOutOfMemory, ErrSizeOverflow)
	}
	return b.ensure(need)
}
