package buffer

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
)

// Handle identifies a buffer owned by a Table. The low 32 bits hold the slot
// index, the high 32 bits the slot generation. The zero Handle is the null
// handle: passing it to EnsureCapacity creates a new buffer.
type Handle uint64

func makeHandle(index, gen uint32) Handle {
	return Handle(uint64(gen)<<32 | uint64(index))
}

// Index returns the slot index.
func (h Handle) Index() uint32 { return uint32(h) }

// Generation returns the slot generation the handle was issued for.
func (h Handle) Generation() uint32 { return uint32(h >> 32) }

// IsZero reports whether h is the null handle.
func (h Handle) IsZero() bool { return h == 0 }

func (h Handle) String() string {
	return fmt.Sprintf("%d#%d", h.Index(), h.Generation())
}

type slot struct {
	buf *Buffer
	gen uint32
}

// Table hands out buffers by Handle instead of by pointer. Every slot carries
// a generation that advances on release, so a released or forged handle is
// rejected with ErrInvalidHandle instead of reaching another buffer.
//
// A Table is not safe for concurrent use.
type Table struct {
	slots []slot
	free  []uint32

	opts     []Option
	log      *slog.Logger
	metrics  Metrics
	counters Counters
}

// NewTable returns an empty table. opts apply to every buffer it creates; the
// table also keeps its own counters, reported by Stats.
func NewTable(opts ...Option) *Table {
	t := &Table{}
	o := newOptions(opts)
	t.log = o.log
	t.metrics = Tee(o.metrics, &t.counters)
	t.opts = append(append([]Option(nil), opts...), WithMetrics(t.metrics))
	return t
}

// EnsureCapacity is Ensure addressed by handle. A zero h creates a buffer and
// returns its new handle; otherwise h itself is returned, whether or not the
// region moved. On error h (and its buffer) is unchanged.
func (t *Table) EnsureCapacity(h Handle, size uint) (Handle, error) {
	if h.IsZero() {
		return t.create(size)
	}
	b, err := t.lookup(h, "ensure")
	if err != nil {
		return h, err
	}
	if _, err := Ensure(b, size); err != nil {
		return h, err
	}
	return h, nil
}

func (t *Table) create(size uint) (Handle, error) {
	if len(t.free) == 0 && uint64(len(t.slots)) >= math.MaxUint32 {
		return 0, fmt.Errorf("buffer: table full: %w", ErrOutOfMemory)
	}
	b, err := Ensure(nil, size, t.opts...)
	if err != nil {
		return 0, err
	}

	var idx uint32
	if n := len(t.free); n > 0 {
		idx = t.free[n-1]
		t.free = t.free[:n-1]
	} else {
		idx = uint32(len(t.slots))
		t.slots = append(t.slots, slot{gen: 1})
	}
	t.slots[idx].buf = b
	return makeHandle(idx, t.slots[idx].gen), nil
}

// Release releases the buffer behind h and retires the handle.
func (t *Table) Release(h Handle) error {
	b, err := t.lookup(h, "release")
	if err != nil {
		return err
	}

	t.retire(h.Index())
	return b.Release()
}

// retire empties slot idx and advances its generation so the handles issued
// for it stop resolving.
func (t *Table) retire(idx uint32) {
	s := &t.slots[idx]
	s.buf = nil
	s.gen++
	if s.gen == 0 {
		s.gen = 1
	}
	t.free = append(t.free, idx)
}

// Buffer returns the buffer behind h. Releasing it directly retires h: later
// calls with h return ErrInvalidHandle.
func (t *Table) Buffer(h Handle) (*Buffer, error) {
	return t.lookup(h, "lookup")
}

// Capacity returns the tracked capacity of the buffer behind h.
func (t *Table) Capacity(h Handle) (uint, error) {
	b, err := t.lookup(h, "capacity")
	if err != nil {
		return 0, err
	}
	return b.Cap(), nil
}

// Bytes returns the whole region of the buffer behind h.
func (t *Table) Bytes(h Handle) ([]byte, error) {
	b, err := t.lookup(h, "bytes")
	if err != nil {
		return nil, err
	}
	return b.Region(), nil
}

// Len returns the number of live buffers the table holds. Buffers released
// directly through Buffer(h).Release() are not counted.
func (t *Table) Len() int {
	n := 0
	for _, s := range t.slots {
		if s.buf.Live() {
			n++
		}
	}
	return n
}

// Stats returns the table's lifecycle counters.
func (t *Table) Stats() Counters { return t.counters }

// Close releases every live buffer. Handles issued before Close are invalid
// afterwards.
func (t *Table) Close() error {
	var errs []error
	for i := range t.slots {
		switch b := t.slots[i].buf; {
		case b == nil:
			continue
		case !b.Live():
			// Released directly; nothing left to free.
			t.retire(uint32(i))
			continue
		}
		h := makeHandle(uint32(i), t.slots[i].gen)
		if err := t.Release(h); err != nil {
			errs = append(errs, fmt.Errorf("handle %s: %w", h, err))
		}
	}
	return errors.Join(errs...)
}

func (t *Table) lookup(h Handle, op string) (*Buffer, error) {
	idx := h.Index()
	if h.IsZero() || uint64(idx) >= uint64(len(t.slots)) {
		return nil, t.reject(h, op)
	}
	s := t.slots[idx]
	if s.buf == nil || s.gen != h.Generation() {
		return nil, t.reject(h, op)
	}
	if !s.buf.Live() {
		// The buffer was released without going through the table.
		t.retire(idx)
		return nil, t.reject(h, op)
	}
	return s.buf, nil
}

func (t *Table) reject(h Handle, op string) error {
	t.metrics.Failed(ReasonInvalidHandle)
	t.log.Warn("table operation on invalid handle", "op", op, "handle", h.String())
	return fmt.Errorf("buffer: %s %s: %w", op, h, ErrInvalidHandle)
}
