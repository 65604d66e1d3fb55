package realtime

import (
	"context"
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/comalice/countdown/internal/core"
	"github.com/comalice/countdown/internal/primitives"
)

// DefaultQueueSize is the command queue capacity used when Config.QueueSize is zero.
const DefaultQueueSize = 64

var (
	ErrQueueFull      = errors.New("command queue full")
	ErrNotRunning     = errors.New("runtime not running")
	ErrAlreadyStarted = errors.New("runtime already started")
)

// Runtime drives a Controller from a single goroutine.
type Runtime struct {
	ctrl       *core.Controller
	queue      chan request
	publishers []core.Publisher
	sources    []core.EventSource
	log        zerolog.Logger
	session    string

	// loop-owned
	sequenceNum uint64

	mu       sync.RWMutex
	snapshot primitives.Countdown
	state    primitives.StateID
	tickNum  uint64

	startMu sync.Mutex
	started bool
	cancel  context.CancelFunc
	done    chan struct{}
	wg      sync.WaitGroup
}

// Config configures the runtime
type Config struct {
	QueueSize  int                // Command queue capacity (default: 64)
	Publishers []core.Publisher   // Receive every step that changed something; closed on exit
	Sources    []core.EventSource // Forwarded into the command queue until the loop exits
	Logger     zerolog.Logger
	Session    string // Published in step metadata (default: new ULID)
}

// NewRuntime creates a runtime for ctrl. The runtime takes ownership of the controller:
// after Start, nothing else may call it.
func NewRuntime(ctrl *core.Controller, cfg Config) *Runtime {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultQueueSize
	}
	if cfg.Session == "" {
		cfg.Session = NewSession()
	}

	return &Runtime{
		ctrl:       ctrl,
		queue:      make(chan request, cfg.QueueSize),
		publishers: cfg.Publishers,
		sources:    cfg.Sources,
		log:        cfg.Logger.With().Str("module", "runtime").Str("session", cfg.Session).Logger(),
		session:    cfg.Session,
		snapshot:   ctrl.Snapshot(),
		state:      ctrl.Current(),
		done:       make(chan struct{}),
	}
}

// NewSession returns a fresh monotonic ULID string.
func NewSession() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), ulid.Monotonic(rand.Reader, 0)).String()
}

// Start launches the event loop and one forwarder per event source.
func (rt *Runtime) Start(ctx context.Context) error {
	rt.startMu.Lock()
	defer rt.startMu.Unlock()

	if rt.started {
		return ErrAlreadyStarted
	}
	rt.started = true

	loopCtx, cancel := context.WithCancel(ctx)
	rt.cancel = cancel

	for _, src := range rt.sources {
		rt.wg.Add(1)
		go rt.forward(loopCtx, src)
	}

	go rt.loop(loopCtx)

	rt.log.Debug().Int("sources", len(rt.sources)).Int("publishers", len(rt.publishers)).Msg("runtime started")

	return nil
}

// Stop ends the loop and waits for it and every forwarder to exit.
// Safe to call multiple times, and before Start.
func (rt *Runtime) Stop() error {
	rt.startMu.Lock()
	started := rt.started
	cancel := rt.cancel
	rt.startMu.Unlock()

	if !started {
		return nil
	}

	cancel()
	<-rt.done
	rt.wg.Wait()

	return nil
}

// Done is closed once the loop has exited and the controller is closed.
func (rt *Runtime) Done() <-chan struct{} {
	return rt.done
}

// Send queues an event without waiting for it to be processed (thread-safe).
func (rt *Runtime) Send(evt primitives.Event) error {
	if !rt.running() {
		return ErrNotRunning
	}

	select {
	case rt.queue <- request{event: evt}:
		return nil
	default:
		return ErrQueueFull
	}
}

// Dispatch queues an event and waits until the loop has processed it.
func (rt *Runtime) Dispatch(ctx context.Context, evt primitives.Event) (core.Step, error) {
	if !rt.running() {
		return core.Step{}, ErrNotRunning
	}

	reply := make(chan result, 1)

	select {
	case rt.queue <- request{event: evt, reply: reply}:
	case <-ctx.Done():
		return core.Step{}, ctx.Err()
	case <-rt.done:
		return core.Step{}, ErrNotRunning
	}

	select {
	case r := <-reply:
		return r.step, r.err
	case <-ctx.Done():
		return core.Step{}, ctx.Err()
	case <-rt.done:
		// the loop may have answered just before exiting
		select {
		case r := <-reply:
			return r.step, r.err
		default:
			return core.Step{}, ErrNotRunning
		}
	}
}

// Snapshot returns the extended state as of the last processed event.
func (rt *Runtime) Snapshot() primitives.Countdown {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	return rt.snapshot
}

// State returns the chart state as of the last processed event.
func (rt *Runtime) State() primitives.StateID {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	return rt.state
}

// Ticks returns the number of handle firings processed so far.
func (rt *Runtime) Ticks() uint64 {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	return rt.tickNum
}

func (rt *Runtime) Session() string {
	return rt.session
}

func (rt *Runtime) running() bool {
	rt.startMu.Lock()
	started := rt.started
	rt.startMu.Unlock()

	if !started {
		return false
	}

	select {
	case <-rt.done:
		return false
	default:
		return true
	}
}

// forward copies one source into the queue. It blocks rather than dropping when the
// queue is full, so source order is preserved.
func (rt *Runtime) forward(ctx context.Context, src core.EventSource) {
	defer rt.wg.Done()

	events := src.Events()
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-events:
			if !ok {
				return
			}

			select {
			case rt.queue <- request{event: evt}:
			case <-ctx.Done():
				return
			}
		}
	}
}
