package core

import (
	"sync"
	"time"
)

// Handle is one live periodic callback. Ticks are delivered on C until Release; after
// Release no further value is ever read from it by the controller's owner.
type Handle interface {
	C() <-chan time.Time
	Release()
}

// Scheduler is the host's schedule-repeating primitive.
type Scheduler interface {
	Every(interval time.Duration) Handle
}

// TickerScheduler backs handles with time.Ticker. It spawns no goroutines of its own.
type TickerScheduler struct{}

func (TickerScheduler) Every(interval time.Duration) Handle {
	return &tickerHandle{t: time.NewTicker(interval)}
}

type tickerHandle struct {
	t    *time.Ticker
	once sync.Once
}

func (h *tickerHandle) C() <-chan time.Time {
	return h.t.C
}

func (h *tickerHandle) Release() {
	h.once.Do(h.t.Stop)
}
