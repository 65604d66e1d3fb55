package realtime

import (
	"github.com/comalice/countdown/internal/core"
	"github.com/comalice/countdown/internal/primitives"
)

// EventWithMeta adds sequencing metadata for deterministic ordering.
// SequenceNum is the event's position in processing order, ticks included.
type EventWithMeta struct {
	Event       primitives.Event
	SequenceNum uint64
}

// request is one queued command; reply is nil for fire-and-forget sends.
type request struct {
	event primitives.Event
	reply chan<- result
}

type result struct {
	step core.Step
	err  error
}
