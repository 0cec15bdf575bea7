package buffer

import (
	"log/slog"

	"github.com/ericrobbins/emalloc/internal/logger"
	"github.com/ericrobbins/emalloc/region"
)

// Option configures a buffer at creation time.
type Option func(*options)

type options struct {
	source  region.Source
	log     *slog.Logger
	metrics Metrics
}

func newOptions(opts []Option) options {
	o := options{
		source:  region.Heap(),
		log:     logger.Discard(),
		metrics: nopMetrics{},
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithSource selects the memory source. Default: region.Heap().
func WithSource(src region.Source) Option {
	return func(o *options) {
		if src != nil {
			o.source = src
		}
	}
}

// WithLogger sets the logger for lifecycle records. Creation, growth and
// release are logged at debug level; rejected operations at warn level.
// Default: discard.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// WithMetrics installs a metrics sink. Default: none.
func WithMetrics(m Metrics) Option {
	return func(o *options) {
		if m != nil {
			o.metrics = m
		}
	}
}
