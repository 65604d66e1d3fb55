package realtime

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/comalice/countdown/internal/core"
	"github.com/comalice/countdown/internal/primitives"
)

// loop is the only goroutine that touches the controller.
func (rt *Runtime) loop(ctx context.Context) {
	defer close(rt.done)
	defer rt.shutdown()
	defer rt.cancel()

	for {
		select {
		case <-ctx.Done():
			return
		case req := <-rt.queue:
			step, err := rt.process(ctx, req.event)
			if req.reply != nil {
				req.reply <- result{step: step, err: err}
			}
		case <-rt.ctrl.TickC():
			// TickC is re-read every iteration: after a release it is nil and never fires.
			if _, err := rt.process(ctx, primitives.NewEvent(primitives.EventTick, nil)); err == nil {
				rt.mu.Lock()
				rt.tickNum++
				rt.mu.Unlock()
			}
		}

		if rt.ctrl.Closed() {
			rt.log.Debug().Msg("controller torn down; leaving loop")
			return
		}
	}
}

// process runs one event to completion, refreshes the snapshot and publishes the step.
func (rt *Runtime) process(ctx context.Context, evt primitives.Event) (step core.Step, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("panic processing %s: %v", evt.Type, r)
			rt.log.Error().Err(err).Stringer("event", evt.Type).Msg("recovered")
		}
	}()

	step, err = rt.ctrl.Send(evt)
	if err != nil {
		return step, err
	}

	meta := EventWithMeta{Event: evt, SequenceNum: rt.sequenceNum}
	rt.sequenceNum++

	rt.mu.Lock()
	rt.snapshot = step.After
	rt.state = step.To
	rt.mu.Unlock()

	if step.Changed() || step.Expired || evt.Type == primitives.EventTeardown {
		rt.publish(ctx, step, meta)
	}

	return step, nil
}

func (rt *Runtime) publish(ctx context.Context, step core.Step, meta EventWithMeta) {
	md := core.Metadata{
		Session:   rt.session,
		Sequence:  meta.SequenceNum,
		Timestamp: time.Now(),
	}

	for i, p := range rt.publishers {
		if err := p.Publish(ctx, step, md); err != nil {
			rt.log.Warn().Err(err).Int("publisher", i).Uint64("sequence", md.Sequence).Msg("publish failed")
		}
	}
}

// shutdown closes the controller, which releases any live handle, then the publishers.
func (rt *Runtime) shutdown() {
	if err := rt.ctrl.Close(); err != nil {
		rt.log.Error().Err(err).Msg("failed to close controller")
	}

	rt.mu.Lock()
	rt.snapshot = rt.ctrl.Snapshot()
	rt.state = rt.ctrl.Current()
	rt.mu.Unlock()

	for i, p := range rt.publishers {
		if err := p.Close(); err != nil {
			rt.log.Warn().Err(err).Int("publisher", i).Msg("failed to close publisher")
		}
	}

	rt.log.Debug().Stringer("state", rt.ctrl.Current()).Uint64("ticks", rt.Ticks()).Msg("runtime stopped")
}
