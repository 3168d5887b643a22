package inventory

import (
	"log/slog"
	"time"

	"github.com/dukerupert/fridgly/internal/metrics"
)

type options struct {
	now      func() time.Time
	logger   *slog.Logger
	metrics  *metrics.Metrics
	selector GroupSelector
}

type Option func(*options)

// WithClock overrides the time source used for timestamps and expiry.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithGroupSelector sets how a returning user's active group is chosen.
func WithGroupSelector(sel GroupSelector) Option {
	return func(o *options) { o.selector = sel }
}

func buildOptions(opts []Option) options {
	o := options{
		now:      func() time.Time { return time.Now().UTC() },
		logger:   slog.Default(),
		selector: FirstGroup,
	}
	for _, opt := range opts {
		opt(&o)
	}
	o.logger = o.logger.With("component", "inventory")
	return o
}
