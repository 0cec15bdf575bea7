package buffer

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericrobbins/emalloc/region"
)

func TestCounters_TrackLifecycle(t *testing.T) {
	var c Counters
	b := mustEnsure(t, nil, 3, WithMetrics(&c))
	b = mustEnsure(t, b, 4)
	b = mustEnsure(t, b, 5)
	require.NoError(t, b.Release())
	require.ErrorIs(t, b.Release(), ErrInvalidHandle)

	assert.Equal(t, Counters{
		Allocs:   1,
		Reuses:   1,
		Grows:    1,
		Releases: 1,
		Failures: 1,
		Bytes:    0,
		Peak:     8,
	}, c)
}

func TestCounters_FailureReasons(t *testing.T) {
	var reasons []string
	rec := &recorder{failed: func(r string) { reasons = append(reasons, r) }}

	b := mustEnsure(t, nil, 16, WithMetrics(rec), WithSource(region.Limit(region.Heap(), 16)))
	_, err := Ensure(b, 17)
	require.Error(t, err)
	_, err = Ensure(b, ^uint(0))
	require.Error(t, err)
	require.NoError(t, b.Release())
	_, err = Ensure(b, 1)
	require.Error(t, err)

	assert.Equal(t, []string{ReasonOutOfMemory, ReasonSizeOverflow, ReasonInvalidHandle}, reasons)
}

func TestTee_SkipsNil(t *testing.T) {
	var a, b Counters
	m := Tee(&a, nil, &b)
	m.Allocated(4)
	m.Reused()
	m.Grew(4, 8)
	m.Released(8)
	m.Failed(ReasonOutOfMemory)

	assert.Equal(t, a, b)
	assert.Equal(t, uint64(1), a.Grows)
	assert.Equal(t, uint64(8), a.Peak)
}

func TestWithLogger_RecordsLifecycle(t *testing.T) {
	var out bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&out, &slog.HandlerOptions{Level: slog.LevelDebug}))

	b := mustEnsure(t, nil, 9, WithLogger(log))
	b = mustEnsure(t, b, 10)
	b = mustEnsure(t, b, 17)
	require.NoError(t, b.Release())
	require.Error(t, b.Release())

	var msgs []string
	for _, line := range strings.Split(strings.TrimSpace(out.String()), "\n") {
		var rec map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &rec))
		msgs = append(msgs, rec["msg"].(string))
	}
	assert.Equal(t, []string{
		"buffer created",
		"buffer grew",
		"buffer released",
		"buffer operation on invalid handle",
	}, msgs, "reuse is not logged")
}

func TestNilOptionsKeepDefaults(t *testing.T) {
	b := mustEnsure(t, nil, 2, WithSource(nil), WithLogger(nil), WithMetrics(nil))
	assert.Equal(t, region.NameHeap, b.Source())
	require.NoError(t, b.Release())
}

// recorder is a Metrics stub with an optional failure callback.
type recorder struct {
	failed func(string)
}

func (r *recorder) Allocated(uint)  {}
func (r *recorder) Reused()         {}
func (r *recorder) Grew(uint, uint) {}
func (r *recorder) Released(uint)   {}
func (r *recorder) Failed(reason string) {
	if r.failed != nil {
		r.failed(reason)
	}
}
