// Package metrics exports buffer lifecycle events as Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ericrobbins/emalloc/buffer"
)

var _ buffer.Metrics = &Prometheus{}

// Prometheus implements buffer.Metrics with counters, a live-bytes gauge and
// a capacity histogram.
type Prometheus struct {
	allocs    prometheus.Counter
	reuses    prometheus.Counter
	grows     prometheus.Counter
	releases  prometheus.Counter
	failures  *prometheus.CounterVec
	liveBytes prometheus.Gauge
	capacity  prometheus.Histogram
}

// NewPrometheus creates the collectors under namespace and registers them
// with reg. A nil reg leaves them unregistered.
func NewPrometheus(reg prometheus.Registerer, namespace string) (*Prometheus, error) {
	p := &Prometheus{
		allocs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "buffer_allocs_total",
			Help:      "Total number of buffers created",
		}),
		reuses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "buffer_reuses_total",
			Help:      "Total number of growth requests satisfied by the current capacity",
		}),
		grows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "buffer_grows_total",
			Help:      "Total number of growth requests that resized the region",
		}),
		releases: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "buffer_releases_total",
			Help:      "Total number of buffers released",
		}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "buffer_failures_total",
			Help:      "Total number of rejected buffer operations by reason",
		}, []string{"reason"}),
		liveBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "buffer_live_bytes",
			Help:      "Capacity in bytes held by live buffers",
		}),
		capacity: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "buffer_capacity_bytes",
			Help:      "Capacity in bytes of buffers after creation or growth",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 16),
		}),
	}

	if reg != nil {
		for _, c := range p.collectors() {
			if err := reg.Register(c); err != nil {
				return nil, err
			}
		}
	}
	return p, nil
}

func (p *Prometheus) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		p.allocs, p.reuses, p.grows, p.releases, p.failures, p.liveBytes, p.capacity,
	}
}

// Allocated implements buffer.Metrics.
func (p *Prometheus) Allocated(capacity uint) {
	p.allocs.Inc()
	p.liveBytes.Add(float64(capacity))
	p.capacity.Observe(float64(capacity))
}

// Reused implements buffer.Metrics.
func (p *Prometheus) Reused() {
	p.reuses.Inc()
}

// Grew implements buffer.Metrics.
func (p *Prometheus) Grew(from, to uint) {
	p.grows.Inc()
	p.liveBytes.Add(float64(to) - float64(from))
	p.capacity.Observe(float64(to))
}

// Released implements buffer.Metrics.
func (p *Prometheus) Released(capacity uint) {
	p.releases.Inc()
	p.liveBytes.Sub(float64(capacity))
}

// Failed implements buffer.Metrics.
func (p *Prometheus) Failed(reason string) {
	p.failures.WithLabelValues(reason).Inc()
}
