// Package primitives provides the foundational data structures for the countdown
// controller: events, state identifiers, the extended countdown state and the pure
// display helpers derived from it.
//
// This package uses ONLY the Go standard library so every other tier (core, runtime,
// hosts) can share it without pulling dependencies.
//
// Core invariants:
//   - Immutability where possible (Event, Countdown are value types)
//   - Paused implies Active
//   - Remaining never below zero once stored
package primitives
