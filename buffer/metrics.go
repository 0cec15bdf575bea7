package buffer

// Failure reasons reported to Metrics.Failed.
const (
	ReasonOutOfMemory   = "out_of_memory"
	ReasonSizeOverflow  = "size_overflow"
	ReasonInvalidHandle = "invalid_handle"
)

// Metrics receives buffer lifecycle events.
type Metrics interface {
	// Allocated is called when a buffer is created with the given capacity.
	Allocated(capacity uint)
	// Reused is called when Ensure is satisfied by the current capacity.
	Reused()
	// Grew is called after a successful growth from one capacity to another.
	Grew(from, to uint)
	// Released is called when a buffer of the given capacity is released.
	Released(capacity uint)
	// Failed is called when an operation is rejected.
	Failed(reason string)
}

var (
	_ Metrics = nopMetrics{}
	_ Metrics = &Counters{}
	_ Metrics = tee{}
)

type nopMetrics struct{}

func (nopMetrics) Allocated(uint)  {}
func (nopMetrics) Reused()         {}
func (nopMetrics) Grew(uint, uint) {}
func (nopMetrics) Released(uint)   {}
func (nopMetrics) Failed(string)   {}

// Counters is an in-memory Metrics implementation.
type Counters struct {
	Allocs   uint64 `json:"allocs"`
	Reuses   uint64 `json:"reuses"`
	Grows    uint64 `json:"grows"`
	Releases uint64 `json:"releases"`
	Failures uint64 `json:"failures"`

	// Bytes is the total capacity held by live buffers.
	Bytes uint64 `json:"bytes"`
	// Peak is the highest value Bytes has reached.
	Peak uint64 `json:"peak"`
}

// Allocated implements Metrics.
func (c *Counters) Allocated(capacity uint) {
	c.Allocs++
	c.add(uint64(capacity))
}

// Reused implements Metrics.
func (c *Counters) Reused() { c.Reuses++ }

// Grew implements Metrics.
func (c *Counters) Grew(from, to uint) {
	c.Grows++
	c.Bytes -= uint64(from)
	c.add(uint64(to))
}

// Released implements Metrics.
func (c *Counters) Released(capacity uint) {
	c.Releases++
	c.Bytes -= uint64(capacity)
}

// Failed implements Metrics.
func (c *Counters) Failed(string) { c.Failures++ }

func (c *Counters) add(n uint64) {
	c.Bytes += n
	if c.Bytes > c.Peak {
		c.Peak = c.Bytes
	}
}

// Tee fans events out to every non-nil sink.
func Tee(sinks ...Metrics) Metrics {
	out := make(tee, 0, len(sinks))
	for _, m := range sinks {
		if m != nil {
			out = append(out, m)
		}
	}
	return out
}

type tee []Metrics

func (t tee) Allocated(capacity uint) {
	for _, m := range t {
		m.Allocated(capacity)
	}
}

func (t tee) Reused() {
	for _, m := range t {
		m.Reused()
	}
}

func (t tee) Grew(from, to uint) {
	for _, m := range t {
		m.Grew(from, to)
	}
}

func (t tee) Released(capacity uint) {
	for _, m := range t {
		m.Released(capacity)
	}
}

func (t tee) Failed(reason string) {
	for _, m := range t {
		m.Failed(reason)
	}
}
