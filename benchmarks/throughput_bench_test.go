// Package benchmarks provides performance benchmarks for command and tick throughput of
// the runtime loop.
package benchmarks

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/comalice/countdown/internal/core"
	"github.com/comalice/countdown/internal/primitives"
	"github.com/comalice/countdown/internal/production"
	"github.com/comalice/countdown/realtime"
	"github.com/comalice/countdown/testutil"
)

func startRuntime(b *testing.B, publishers ...core.Publisher) (*realtime.Runtime, *testutil.ManualScheduler) {
	b.Helper()

	sched := testutil.NewManualScheduler()
	ctrl, err := core.NewController(core.WithScheduler(sched))
	if err != nil {
		b.Fatal(err)
	}

	rt := realtime.NewRuntime(ctrl, realtime.Config{QueueSize: 10000, Publishers: publishers})
	if err := rt.Start(context.Background()); err != nil {
		b.Fatal(err)
	}
	b.Cleanup(func() { _ = rt.Stop() })

	return rt, sched
}

// BenchmarkDispatch measures the synchronous round trip of one command through the loop.
func BenchmarkDispatch(b *testing.B) {
	rt, _ := startRuntime(b)
	ctx := context.Background()
	set := primitives.SetEvent("60")

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := rt.Dispatch(ctx, set); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkSendThroughput floods the queue from several goroutines and waits until every
// accepted command was processed.
func BenchmarkSendThroughput(b *testing.B) {
	var processed int64
	counter := &countingPublisher{n: &processed}
	rt, _ := startRuntime(b, counter)

	// alternate between two durations so every command changes state and is published
	events := []primitives.Event{primitives.SetEvent("60"), primitives.SetEvent("61")}

	numWorkers := 8
	eventsPerWorker := b.N / numWorkers
	if eventsPerWorker == 0 {
		eventsPerWorker = 1
	}

	var wg sync.WaitGroup
	var successfulSends int64
	var failedSends int64

	b.ResetTimer()
	b.ReportAllocs()
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < eventsPerWorker; i++ {
				if err := rt.Send(events[i%2]); err != nil {
					atomic.AddInt64(&failedSends, 1)
					return // Stop this worker on backpressure
				}
				atomic.AddInt64(&successfulSends, 1)
			}
		}()
	}
	wg.Wait()

	totalFailed := atomic.LoadInt64(&failedSends)
	totalSuccessful := atomic.LoadInt64(&successfulSends)
	if totalFailed > 0 {
		b.Logf("Hit backpressure: %d successful, %d failed", totalSuccessful, totalFailed)
	}

	// a barrier: the queue is FIFO, so once this returns everything before it was processed
	if _, err := rt.Dispatch(context.Background(), primitives.NewEvent(primitives.EventPause, nil)); err != nil {
		b.Fatal(err)
	}
	b.ReportMetric(float64(totalSuccessful)/b.Elapsed().Seconds(), "events/sec")
}

// BenchmarkTicks measures tick processing including publishing as JSON lines.
func BenchmarkTicks(b *testing.B) {
	rt, sched := startRuntime(b, production.NewJSONLinePublisher(io.Discard))
	ctx := context.Background()

	if _, err := rt.Dispatch(ctx, primitives.SetEvent("2147483647")); err != nil {
		b.Fatal(err)
	}
	if _, err := rt.Dispatch(ctx, primitives.NewEvent(primitives.EventStart, nil)); err != nil {
		b.Fatal(err)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		before := rt.Ticks()
		sched.Fire()
		for rt.Ticks() == before {
			time.Sleep(time.Microsecond)
		}
	}
}

type countingPublisher struct {
	n *int64
}

func (p *countingPublisher) Publish(context.Context, core.Step, core.Metadata) error {
	atomic.AddInt64(p.n, 1)
	return nil
}

func (p *countingPublisher) Close() error {
	return nil
}
