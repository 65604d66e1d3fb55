// Package production provides the host-facing integrations of the runtime: step publishers
// and chart visualization.
package production

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/comalice/countdown/internal/core"
	"github.com/comalice/countdown/internal/primitives"
)

var (
	_ core.Publisher = (*ChannelPublisher)(nil)
	_ core.Publisher = (*LogPublisher)(nil)
	_ core.Publisher = (*JSONLinePublisher)(nil)
)

// PublishedEvent bundles a step with its runtime metadata for publishing.
type PublishedEvent struct {
	Step     core.Step
	Metadata core.Metadata
}

// ChannelPublisher forwards steps to a Go channel. Publish never blocks: when the buffer
// is full the oldest pending step is dropped, so a slow reader always ends up with the
// latest state.
type ChannelPublisher struct {
	mu      sync.Mutex
	ch      chan PublishedEvent
	closed  bool
	dropped uint64
}

// NewChannelPublisher creates a ChannelPublisher with the given buffer size (minimum 1).
func NewChannelPublisher(size int) *ChannelPublisher {
	if size < 1 {
		size = 1
	}
	return &ChannelPublisher{ch: make(chan PublishedEvent, size)}
}

// C is closed after Close.
func (p *ChannelPublisher) C() <-chan PublishedEvent {
	return p.ch
}

func (p *ChannelPublisher) Publish(ctx context.Context, step core.Step, metadata core.Metadata) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return errors.New("publisher closed")
	}

	ev := PublishedEvent{Step: step, Metadata: metadata}
	for {
		select {
		case p.ch <- ev:
			return nil
		default:
		}

		select {
		case <-p.ch:
			atomic.AddUint64(&p.dropped, 1)
		default:
		}
	}
}

// Dropped returns how many steps were discarded on backpressure.
func (p *ChannelPublisher) Dropped() uint64 {
	return atomic.LoadUint64(&p.dropped)
}

func (p *ChannelPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.closed {
		p.closed = true
		close(p.ch)
	}
	return nil
}

// LogPublisher writes every step to a zerolog logger. Ticks log at debug, everything else
// at info.
type LogPublisher struct {
	log zerolog.Logger
}

func NewLogPublisher(log zerolog.Logger) *LogPublisher {
	return &LogPublisher{log: log.With().Str("module", "publisher").Logger()}
}

func (p *LogPublisher) Publish(_ context.Context, step core.Step, metadata core.Metadata) error {
	e := p.log.Info()
	if step.Event.Type == primitives.EventTick && !step.Expired {
		e = p.log.Debug()
	}

	e.Uint64("sequence", metadata.Sequence).
		Stringer("event", step.Event.Type).
		Str("transition", step.Transition()).
		Int("remaining", step.After.Remaining).
		Str("display", step.After.Display()).
		Bool("expired", step.Expired).
		Msg("step")

	return nil
}

func (p *LogPublisher) Close() error {
	return nil
}

// StepRecord is the flat JSON form of a published step.
type StepRecord struct {
	Session    string    `json:"session"`
	Sequence   uint64    `json:"sequence"`
	Timestamp  time.Time `json:"timestamp"`
	Event      string    `json:"event"`
	From       string    `json:"from"`
	To         string    `json:"to"`
	Configured int       `json:"configured"`
	Remaining  int       `json:"remaining"`
	Active     bool      `json:"active"`
	Paused     bool      `json:"paused"`
	Display    string    `json:"display"`
	Expired    bool      `json:"expired,omitempty"`
}

// NewStepRecord flattens a step and its metadata.
func NewStepRecord(step core.Step, md core.Metadata) StepRecord {
	return StepRecord{
		Session:    md.Session,
		Sequence:   md.Sequence,
		Timestamp:  md.Timestamp,
		Event:      step.Event.Type.String(),
		From:       step.From.String(),
		To:         step.To.String(),
		Configured: step.After.Configured,
		Remaining:  step.After.Remaining,
		Active:     step.After.Active,
		Paused:     step.After.Paused,
		Display:    step.After.Display(),
		Expired:    step.Expired,
	}
}

var jsonLine = jsoniter.Config{
	EscapeHTML: false,
}.Froze()

// JSONLinePublisher writes one JSON object per step to w.
type JSONLinePublisher struct {
	mu  sync.Mutex
	enc *jsoniter.Encoder
}

func NewJSONLinePublisher(w io.Writer) *JSONLinePublisher {
	return &JSONLinePublisher{enc: jsonLine.NewEncoder(w)}
}

func (p *JSONLinePublisher) Publish(_ context.Context, step core.Step, metadata core.Metadata) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	return errors.Wrap(p.enc.Encode(NewStepRecord(step, metadata)), "encode step")
}

func (p *JSONLinePublisher) Close() error {
	return nil
}
