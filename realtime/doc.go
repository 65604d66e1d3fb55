// Package realtime provides the event loop that drives a countdown Controller.
//
// The controller itself is single-threaded. The Runtime gives it the cooperative,
// run-to-completion model it expects:
//   - One goroutine owns the controller; nothing else touches it
//   - User commands arrive on a buffered queue, ticks on the live handle's channel
//   - Each command or tick is fully processed (eventless expiry included) before the
//     next one is received
//   - The loop only ever receives from the currently live handle, so a released
//     handle can never deliver another tick
//
// # Example Usage
//
//	ctrl, _ := core.NewController()
//	rt := realtime.NewRuntime(ctrl, realtime.Config{})
//	rt.Start(ctx)
//	rt.Send(primitives.SetEvent("90"))
//	rt.Send(primitives.NewEvent(primitives.EventStart, nil))
//
// # Ordering Guarantees
//
// Commands are processed in submission order (FIFO queue, sequence numbers in the
// published metadata). Ticks interleave with commands in arrival order and are never
// re-entrant. Published steps are delivered in processing order.
//
// # Shutdown
//
// Stop, a cancelled context, or a teardown event end the loop. On every one of those
// paths the controller is closed, which releases the live handle.
package realtime
