// Package core provides the runtime core tier of the countdown widget.
// This includes the Controller state machine, its chart, the periodic handle contract and
// the pluggable publisher/event-source interfaces used by the runtime.
// Dependencies: internal/primitives.
package core

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/comalice/countdown/internal/primitives"
)

// DefaultInterval is the nominal time between ticks.
const DefaultInterval = time.Second

// ErrClosed is returned by Send after the controller was torn down.
var ErrClosed = errors.New("controller closed")

// Pluggable component interfaces, wired by the runtime.

type EventSource interface {
	Events() <-chan primitives.Event
}

// Metadata accompanies a published step.
type Metadata struct {
	Session   string    `json:"session" yaml:"session"`
	Sequence  uint64    `json:"sequence" yaml:"sequence"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
}

type Publisher interface {
	Publish(ctx context.Context, step Step, metadata Metadata) error
	Close() error
}

// Step records the effect of one processed event.
type Step struct {
	Event   primitives.Event     `json:"event" yaml:"event"`
	From    primitives.StateID   `json:"from" yaml:"from"`
	To      primitives.StateID   `json:"to" yaml:"to"`
	Before  primitives.Countdown `json:"before" yaml:"before"`
	After   primitives.Countdown `json:"after" yaml:"after"`
	Handled bool                 `json:"handled" yaml:"handled"`
	// Expired is set when the event drove remaining time to zero.
	Expired bool `json:"expired" yaml:"expired"`
}

// Changed reports whether the step moved the chart or altered the countdown.
func (s Step) Changed() bool {
	return s.From != s.To || s.Before != s.After
}

// Transition renders "from -> to".
func (s Step) Transition() string {
	return fmt.Sprintf("%s -> %s", s.From, s.To)
}

// Option applies configuration to Controller via functional options pattern.
type Option func(*Controller)

// Controller is the countdown state machine. It owns the extended state and the single
// live periodic handle.
//
// Controller is not safe for concurrent use: every call, including the ones triggered by
// ticks, must come from one goroutine (see realtime.Runtime). Each Send runs to completion,
// eventless transitions included, before it returns.
type Controller struct {
	chart     *Chart
	current   primitives.StateID
	data      primitives.Countdown
	handle    Handle
	scheduler Scheduler
	interval  time.Duration
	log       zerolog.Logger
	closed    bool
	expired   bool
	acquired  uint64
}

// NewController creates a controller in the chart's initial state.
func NewController(opts ...Option) (*Controller, error) {
	c := &Controller{
		chart:     CountdownChart(),
		scheduler: TickerScheduler{},
		interval:  DefaultInterval,
		log:       zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(c)
	}

	if err := c.chart.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid chart")
	}
	if c.interval <= 0 {
		return nil, errors.Errorf("invalid tick interval %v", c.interval)
	}
	if c.scheduler == nil {
		return nil, errors.New("nil scheduler")
	}

	c.current = c.chart.Initial
	return c, nil
}

// Send processes one event to completion and reports what it did.
// Unhandled events (no enabled transition) leave state untouched.
func (c *Controller) Send(evt primitives.Event) (Step, error) {
	if c.closed {
		return Step{Event: evt, From: c.current, To: c.current, Before: c.data, After: c.data}, ErrClosed
	}

	step := Step{
		Event:  evt,
		From:   c.current,
		Before: c.data,
	}

	if evt.Type == primitives.EventTeardown {
		c.teardown()
		step.Handled = true
		step.To = c.current
		step.After = c.data
		return step, nil
	}

	c.expired = false

	t, ok := c.pickTransition(c.chart.States[c.current].On[evt.Type], evt)
	if ok {
		c.doTransition(t, evt)
		c.processMicrosteps(evt)
		step.Handled = true
	} else {
		c.log.Debug().Stringer("state", c.current).Stringer("event", evt.Type).Msg("event ignored")
	}

	step.To = c.current
	step.After = c.data
	step.Expired = c.expired

	if step.Expired {
		c.log.Info().Int("configured", c.data.Configured).Msg("countdown expired")
	}

	return step, nil
}

// SetDuration applies raw user input. Invalid input is a no-op.
func (c *Controller) SetDuration(input string) (Step, error) {
	return c.Send(primitives.SetEvent(input))
}

// Start starts an idle countdown or resumes a paused one.
func (c *Controller) Start() (Step, error) {
	return c.Send(primitives.NewEvent(primitives.EventStart, nil))
}

func (c *Controller) Pause() (Step, error) {
	return c.Send(primitives.NewEvent(primitives.EventPause, nil))
}

// Stop resets to idle with zero remaining; the configured duration is kept.
func (c *Controller) Stop() (Step, error) {
	return c.Send(primitives.NewEvent(primitives.EventStop, nil))
}

// Tick applies one firing of the live handle.
func (c *Controller) Tick() (Step, error) {
	return c.Send(primitives.NewEvent(primitives.EventTick, nil))
}

// Close releases the live handle. Further Sends fail with ErrClosed.
// Safe to call multiple times.
func (c *Controller) Close() error {
	if !c.closed {
		c.teardown()
	}
	return nil
}

func (c *Controller) teardown() {
	c.releaseHandle()
	c.closed = true
	c.log.Debug().Stringer("state", c.current).Msg("torn down")
}

// Snapshot returns a copy of the extended state.
func (c *Controller) Snapshot() primitives.Countdown {
	return c.data
}

// Current returns the active chart state.
func (c *Controller) Current() primitives.StateID {
	return c.current
}

// TickC returns the live handle's channel, or nil when no handle is live. A nil channel
// blocks forever in a select, which is how released handles stop ticking.
func (c *Controller) TickC() <-chan time.Time {
	if c.handle == nil {
		return nil
	}
	return c.handle.C()
}

// Live reports whether a periodic handle is currently held.
func (c *Controller) Live() bool {
	return c.handle != nil
}

// Acquired returns the number of handles acquired over the controller's life.
func (c *Controller) Acquired() uint64 {
	return c.acquired
}

func (c *Controller) Closed() bool {
	return c.closed
}

func (c *Controller) Chart() *Chart {
	return c.chart
}

func (c *Controller) Interval() time.Duration {
	return c.interval
}

func (c *Controller) acquireHandle() {
	if c.handle != nil {
		c.log.Warn().Msg("handle still live on acquire; releasing")
		c.releaseHandle()
	}

	c.handle = c.scheduler.Every(c.interval)
	c.acquired++
	c.log.Debug().Dur("interval", c.interval).Uint64("acquired", c.acquired).Msg("handle acquired")
}

func (c *Controller) releaseHandle() {
	if c.handle == nil {
		return
	}

	c.handle.Release()
	c.handle = nil
	c.log.Debug().Msg("handle released")
}
