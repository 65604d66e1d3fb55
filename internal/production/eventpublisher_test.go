// Tests for the step publishers.
package production

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comalice/countdown/internal/core"
	"github.com/comalice/countdown/internal/primitives"
)

func tickStep(remaining int) core.Step {
	return core.Step{
		Event:   primitives.NewEvent(primitives.EventTick, nil),
		From:    primitives.Running,
		To:      primitives.Running,
		Before:  primitives.Countdown{Configured: 10, HasConfigured: true, Remaining: remaining + 1, Active: true},
		After:   primitives.Countdown{Configured: 10, HasConfigured: true, Remaining: remaining, Active: true},
		Handled: true,
	}
}

func TestChannelPublisher_Delivery(t *testing.T) {
	p := NewChannelPublisher(10)
	meta := core.Metadata{Session: "s", Sequence: 7, Timestamp: time.Now()}

	require.NoError(t, p.Publish(context.Background(), tickStep(9), meta))

	select {
	case got := <-p.C():
		assert.Equal(t, primitives.EventTick, got.Step.Event.Type)
		assert.Equal(t, 9, got.Step.After.Remaining)
		assert.Equal(t, meta, got.Metadata)
	case <-time.After(100 * time.Millisecond):
		t.Fatal("no step delivered")
	}
}

func TestChannelPublisher_BackpressureKeepsLatest(t *testing.T) {
	p := NewChannelPublisher(2)

	for i := 5; i > 0; i-- {
		require.NoError(t, p.Publish(context.Background(), tickStep(i), core.Metadata{Sequence: uint64(5 - i)}))
	}

	assert.EqualValues(t, 3, p.Dropped())

	first := <-p.C()
	second := <-p.C()
	assert.Equal(t, 2, first.Step.After.Remaining)
	assert.Equal(t, 1, second.Step.After.Remaining)
}

func TestChannelPublisher_Close(t *testing.T) {
	p := NewChannelPublisher(1)
	require.NoError(t, p.Close())
	require.NoError(t, p.Close())

	_, ok := <-p.C()
	assert.False(t, ok, "channel should be closed")
	assert.Error(t, p.Publish(context.Background(), tickStep(1), core.Metadata{}))
}

func TestChannelPublisher_CancelledContext(t *testing.T) {
	p := NewChannelPublisher(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, p.Publish(ctx, tickStep(1), core.Metadata{}), context.Canceled)
}

func TestLogPublisher(t *testing.T) {
	var buf bytes.Buffer
	p := NewLogPublisher(zerolog.New(&buf).Level(zerolog.InfoLevel))

	require.NoError(t, p.Publish(context.Background(), tickStep(4), core.Metadata{Sequence: 1}))
	assert.Empty(t, buf.String(), "plain ticks log at debug")

	expired := tickStep(0)
	expired.To = primitives.Idle
	expired.After.Active = false
	expired.Expired = true
	require.NoError(t, p.Publish(context.Background(), expired, core.Metadata{Sequence: 2}))

	out := buf.String()
	assert.Contains(t, out, `"module":"publisher"`)
	assert.Contains(t, out, `"transition":"running -> idle"`)
	assert.Contains(t, out, `"display":"00:00"`)
	assert.Contains(t, out, `"expired":true`)
	require.NoError(t, p.Close())
}

func TestJSONLinePublisher(t *testing.T) {
	var buf bytes.Buffer
	p := NewJSONLinePublisher(&buf)
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	require.NoError(t, p.Publish(context.Background(), tickStep(65), core.Metadata{Session: "abc", Sequence: 3, Timestamp: ts}))
	require.NoError(t, p.Publish(context.Background(), tickStep(64), core.Metadata{Session: "abc", Sequence: 4, Timestamp: ts}))
	require.NoError(t, p.Close())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var rec StepRecord
	require.NoError(t, jsoniter.Unmarshal([]byte(lines[0]), &rec))
	assert.Equal(t, "abc", rec.Session)
	assert.EqualValues(t, 3, rec.Sequence)
	assert.True(t, rec.Timestamp.Equal(ts))
	assert.Equal(t, "tick", rec.Event)
	assert.Equal(t, "running", rec.To)
	assert.Equal(t, 65, rec.Remaining)
	assert.Equal(t, "01:05", rec.Display)
	assert.False(t, rec.Expired)
	assert.NotContains(t, lines[0], "expired")
}
