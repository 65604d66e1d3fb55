// Package core provides the runtime core tier of the countdown widget.
// Options for configuring Controller instances.
package core

import (
	"time"

	"github.com/rs/zerolog"
)

// WithScheduler configures the Controller with a custom periodic primitive.
func WithScheduler(s Scheduler) Option {
	return func(c *Controller) {
		c.scheduler = s
	}
}

// WithInterval configures the time between ticks.
func WithInterval(d time.Duration) Option {
	return func(c *Controller) {
		c.interval = d
	}
}

// WithLogger configures the Controller logger; the module field is added here.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Controller) {
		c.log = l.With().Str("module", "controller").Logger()
	}
}

// WithChart replaces the countdown chart. Actions and guards still operate on the
// controller's countdown state.
func WithChart(ch *Chart) Option {
	return func(c *Controller) {
		c.chart = ch
	}
}
