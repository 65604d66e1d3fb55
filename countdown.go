// Package countdown is a single countdown timer: set a duration in seconds, start, pause,
// resume and reset it, and read the remaining time as MM:SS.
//
// A Timer owns one controller and the goroutine that drives it. All methods are safe for
// concurrent use. At most one periodic tick source is live at any time, and none once the
// timer is paused, reset, expired or closed.
//
//	t, _ := countdown.New(ctx)
//	defer t.Close()
//	t.SetDuration(ctx, "90")
//	t.Start(ctx)
//	fmt.Println(t.Display()) // "01:30"
package countdown

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/comalice/countdown/internal/core"
	"github.com/comalice/countdown/internal/primitives"
	"github.com/comalice/countdown/internal/production"
	"github.com/comalice/countdown/realtime"
)

type (
	// Snapshot is the observable state of a timer.
	Snapshot = primitives.Countdown
	// StateID names the chart state: idle, running or paused.
	StateID = primitives.StateID
	// Step records what one command or tick did.
	Step = core.Step
	// Metadata accompanies every published step.
	Metadata = core.Metadata
	// Publisher receives every step that changed the timer.
	Publisher = core.Publisher
	// Scheduler hands out the periodic tick source.
	Scheduler = core.Scheduler
	// Handle is one periodic tick source.
	Handle = core.Handle
	// ChannelPublisher delivers steps on a channel, dropping the oldest pending step
	// when the reader falls behind.
	ChannelPublisher = production.ChannelPublisher
	// PublishedEvent is one step as received from a ChannelPublisher.
	PublishedEvent = production.PublishedEvent
)

const (
	Idle    = primitives.Idle
	Running = primitives.Running
	Paused  = primitives.Paused
)

// ErrClosed is returned by commands sent after Close or after the context passed to New
// was cancelled.
var ErrClosed = errors.New("timer closed")

type options struct {
	interval   time.Duration
	scheduler  Scheduler
	logger     zerolog.Logger
	publishers []Publisher
	queueSize  int
}

// Option configures a Timer.
type Option func(*options)

// WithInterval sets the time between ticks (default one second).
func WithInterval(d time.Duration) Option {
	return func(o *options) { o.interval = d }
}

// WithScheduler replaces the time.Ticker based tick source.
func WithScheduler(s Scheduler) Option {
	return func(o *options) { o.scheduler = s }
}

func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// NewChannelPublisher returns a publisher whose channel buffers up to size steps. The
// channel is closed when the timer stops.
func NewChannelPublisher(size int) *ChannelPublisher {
	return production.NewChannelPublisher(size)
}

// WithPublisher adds a publisher, either one from NewChannelPublisher or any type that
// implements Publisher. Publishers are closed when the timer stops.
func WithPublisher(p Publisher) Option {
	return func(o *options) { o.publishers = append(o.publishers, p) }
}

func WithQueueSize(n int) Option {
	return func(o *options) { o.queueSize = n }
}

// Timer is a running countdown.
type Timer struct {
	rt *realtime.Runtime
}

// New creates a timer and starts driving it. The timer stops when ctx is cancelled or
// Close is called.
func New(ctx context.Context, opts ...Option) (*Timer, error) {
	o := options{
		interval:  core.DefaultInterval,
		scheduler: core.TickerScheduler{},
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	ctrl, err := core.NewController(
		core.WithInterval(o.interval),
		core.WithScheduler(o.scheduler),
		core.WithLogger(o.logger),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create controller")
	}

	rt := realtime.NewRuntime(ctrl, realtime.Config{
		QueueSize:  o.queueSize,
		Publishers: o.publishers,
		Logger:     o.logger,
	})
	if err := rt.Start(ctx); err != nil {
		return nil, errors.Wrap(err, "start runtime")
	}

	return &Timer{rt: rt}, nil
}

// SetDuration applies raw user input. Input that is not a number of seconds in range
// leaves the timer unchanged; setting while running or paused returns to idle.
func (t *Timer) SetDuration(ctx context.Context, input string) (Snapshot, error) {
	return t.dispatch(ctx, primitives.SetEvent(input))
}

// Start starts an idle countdown from the configured duration, or resumes a paused one.
func (t *Timer) Start(ctx context.Context) (Snapshot, error) {
	return t.dispatch(ctx, primitives.NewEvent(primitives.EventStart, nil))
}

func (t *Timer) Pause(ctx context.Context) (Snapshot, error) {
	return t.dispatch(ctx, primitives.NewEvent(primitives.EventPause, nil))
}

// Stop resets to idle with no time remaining. The configured duration is kept.
func (t *Timer) Stop(ctx context.Context) (Snapshot, error) {
	return t.dispatch(ctx, primitives.NewEvent(primitives.EventStop, nil))
}

func (t *Timer) dispatch(ctx context.Context, evt primitives.Event) (Snapshot, error) {
	step, err := t.rt.Dispatch(ctx, evt)
	if errors.Is(err, realtime.ErrNotRunning) {
		return t.rt.Snapshot(), ErrClosed
	}
	if err != nil {
		return t.rt.Snapshot(), err
	}
	return step.After, nil
}

// Snapshot returns the timer state after the last processed command or tick.
func (t *Timer) Snapshot() Snapshot {
	return t.rt.Snapshot()
}

// State returns the chart state after the last processed command or tick.
func (t *Timer) State() StateID {
	return t.rt.State()
}

// Display renders the remaining time as MM:SS.
func (t *Timer) Display() string {
	return t.rt.Snapshot().Display()
}

// Done is closed once the timer has stopped for good.
func (t *Timer) Done() <-chan struct{} {
	return t.rt.Done()
}

// Close tears the timer down, releasing its tick source. Safe to call multiple times.
func (t *Timer) Close() error {
	_ = t.rt.Send(primitives.NewEvent(primitives.EventTeardown, nil))
	return t.rt.Stop()
}

// FormatTime renders seconds as MM:SS with negative values shown as 00:00.
func FormatTime(seconds int) string {
	return primitives.FormatTime(seconds)
}
