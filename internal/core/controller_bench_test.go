package core_test

import (
	"testing"

	"github.com/comalice/countdown/internal/core"
	"github.com/comalice/countdown/testutil"
)

// BenchmarkController_Tick measures one decrement including the eventless expiry check.
func BenchmarkController_Tick(b *testing.B) {
	c, err := core.NewController(core.WithScheduler(testutil.NewManualScheduler()))
	if err != nil {
		b.Fatal(err)
	}
	c.SetDuration("2147483647")
	c.Start()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Tick()
	}
}

// BenchmarkController_PauseResume measures a release/acquire cycle of the handle.
func BenchmarkController_PauseResume(b *testing.B) {
	c, err := core.NewController(core.WithScheduler(testutil.NewManualScheduler()))
	if err != nil {
		b.Fatal(err)
	}
	c.SetDuration("60")
	c.Start()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Pause()
		c.Start()
	}
}
