package buffer

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/ericrobbins/emalloc/internal/buf"
	"github.com/ericrobbins/emalloc/internal/pow2"
	"github.com/ericrobbins/emalloc/region"
)

// liveTag marks a block created by this package and not yet released.
// A released block carries tag 0; a zero-value Buffer has no block.
const liveTag uint32 = 0x656d616c

// block is the state every copy of a Buffer shares, so a release through
// one copy is seen by all of them.
type block struct {
	tag      uint32
	capacity uint
	length   uint
	data     []byte // len(data) == capacity
}

// Buffer is a byte region whose allocated capacity is tracked alongside it.
// Capacity is always a power of two and only grows.
//
// A Buffer is not safe for concurrent use. Copies of a Buffer value share
// one region: releasing any of them releases all.
type Buffer struct {
	*block

	src     region.Source
	log     *slog.Logger
	metrics Metrics
}

// Ensure returns a buffer with capacity of at least size bytes.
//
// When b is nil a new buffer is created, configured by opts. When b already
// has enough capacity it is returned as is: no allocation, no copy, and
// Region() keeps pointing at the same memory. Otherwise the capacity becomes
// the smallest power of two >= size and the region may move; the first Len()
// bytes are preserved.
//
// opts only apply when b is nil. On error the returned buffer is b, still
// valid and unmodified.
func Ensure(b *Buffer, size uint, opts ...Option) (*Buffer, error) {
	if b == nil {
		return create(size, newOptions(opts))
	}
	if err := b.ensure(size); err != nil {
		return b, err
	}
	return b, nil
}

func create(size uint, o options) (*Buffer, error) {
	capacity, err := roundCapacity(size)
	if err != nil {
		o.metrics.Failed(ReasonSizeOverflow)
		o.log.Warn("buffer create rejected", "requested", size, "error", err)
		return nil, fmt.Errorf("buffer: create %d bytes: %w", size, err)
	}

	data, err := o.source.Alloc(capacity)
	if err != nil {
		o.metrics.Failed(ReasonOutOfMemory)
		o.log.Warn("buffer create failed", "requested", size, "capacity", capacity,
			"source", o.source.Name(), "error", err)
		return nil, fmt.Errorf("buffer: create %d bytes: %w", size, asOutOfMemory(err))
	}

	b := &Buffer{
		block: &block{
			tag:      liveTag,
			capacity: capacity,
			data:     data[:capacity],
		},
		src:     o.source,
		log:     o.log,
		metrics: o.metrics,
	}
	b.metrics.Allocated(capacity)
	b.log.Debug("buffer created", "requested", size, "capacity", capacity, "source", o.source.Name())
	return b, nil
}

func (b *Buffer) ensure(size uint) error {
	if !b.Live() {
		return b.invalid("ensure")
	}
	if size <= b.capacity {
		b.metrics.Reused()
		return nil
	}
	return b.grow(size)
}

// grow moves b to the smallest power-of-two capacity >= size. It either
// fully succeeds or leaves b untouched.
func (b *Buffer) grow(size uint) error {
	capacity, err := roundCapacity(size)
	if err != nil {
		b.metrics.Failed(ReasonSizeOverflow)
		b.log.Warn("buffer grow rejected", "requested", size, "capacity", b.capacity, "error", err)
		return fmt.Errorf("buffer: grow %d to %d bytes: %w", b.capacity, size, err)
	}

	data, err := b.src.Resize(b.data, capacity)
	if err != nil {
		b.metrics.Failed(ReasonOutOfMemory)
		b.log.Warn("buffer grow failed", "requested", size, "capacity", b.capacity,
			"target", capacity, "source", b.src.Name(), "error", err)
		return fmt.Errorf("buffer: grow %d to %d bytes: %w", b.capacity, capacity, asOutOfMemory(err))
	}

	moved := &data[0] != &b.data[0]
	old := b.capacity
	b.data = data[:capacity]
	b.capacity = capacity
	b.metrics.Grew(old, capacity)
	b.log.Debug("buffer grew", "requested", size, "from", old, "to", capacity, "moved", moved)
	return nil
}

// Release frees the buffer's region. The buffer, and every copy of it, must
// not be used afterwards; releasing any of them again, or releasing a Buffer
// not obtained from Ensure, returns ErrInvalidHandle.
func (b *Buffer) Release() error {
	if !b.Live() {
		return b.invalid("release")
	}

	capacity, data := b.capacity, b.data
	b.tag = 0
	b.capacity, b.length, b.data = 0, 0, nil

	b.metrics.Released(capacity)
	if err := b.src.Free(data); err != nil {
		b.log.Warn("buffer release failed", "capacity", capacity, "source", b.src.Name(), "error", err)
		return fmt.Errorf("buffer: release %d bytes: %w", capacity, err)
	}
	b.log.Debug("buffer released", "capacity", capacity)
	return nil
}

// Live reports whether b was returned by Ensure and has not been released.
func (b *Buffer) Live() bool {
	return b != nil && b.block != nil && b.tag == liveTag
}

// Cap returns the tracked capacity, or 0 for a buffer that is not live.
func (b *Buffer) Cap() uint {
	if !b.Live() {
		return 0
	}
	return b.capacity
}

// Len returns the number of bytes written to the buffer.
func (b *Buffer) Len() uint {
	if !b.Live() {
		return 0
	}
	return b.length
}

// Bytes returns the first Len() bytes. The slice aliases the region and is
// invalidated by growth and release.
func (b *Buffer) Bytes() []byte {
	if !b.Live() {
		return nil
	}
	return b.data[:b.length]
}

// Region returns the whole region, Cap() bytes long. Writes through it are
// preserved by growth up to Len(); use SetLen to account for them.
func (b *Buffer) Region() []byte {
	if !b.Live() {
		return nil
	}
	return b.data
}

// SetLen sets the logical length. n must not exceed Cap().
func (b *Buffer) SetLen(n uint) error {
	if !b.Live() {
		return b.invalid("set length")
	}
	if n > b.capacity {
		return fmt.Errorf("buffer: set length %d > cap %d: %w", n, b.capacity, ErrOutOfRange)
	}
	b.length = n
	return nil
}

// Reset sets the length to zero and keeps the capacity.
func (b *Buffer) Reset() {
	if b.Live() {
		b.length = 0
	}
}

// String returns the first Len() bytes as a string.
func (b *Buffer) String() string {
	return string(b.Bytes())
}

// Source returns the name of the source backing b.
func (b *Buffer) Source() string {
	if b == nil || b.src == nil {
		return ""
	}
	return b.src.Name()
}

func (b *Buffer) invalid(op string) error {
	// A zero-value Buffer has no logger or metrics of its own.
	if b != nil && b.log != nil {
		b.metrics.Failed(ReasonInvalidHandle)
		b.log.Warn("buffer operation on invalid handle", "op", op)
	}
	return fmt.Errorf("buffer: %s: %w", op, ErrInvalidHandle)
}

// roundCapacity returns the power-of-two capacity for size. Zero-byte
// requests get a one-byte region so every live buffer has a non-empty,
// power-of-two capacity.
func roundCapacity(size uint) (uint, error) {
	capacity, ok := pow2.RoundUp(size)
	if !ok || !buf.FitsInt(capacity) {
		return 0, fmt.Errorf("%w: %d bytes: %w", ErrOutOfMemory, size, ErrSizeOverflow)
	}
	return capacity, nil
}

func asOutOfMemory(err error) error {
	if errors.Is(err, ErrOutOfMemory) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrOutOfMemory, err)
}
