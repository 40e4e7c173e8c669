// Package holdrepeat turns press and release signals on surface nodes into
// press-and-hold auto-repeat gestures.
//
// A press that is released before the initial delay is a tap and is
// forwarded as a synthetic activate. A longer press emits hold-start, then
// hold-repeat at a cadence that may accelerate, optionally hold-repeat-halt
// when a cap is reached, and finally hold-stop on release. All events are
// dispatched on the pressed node and bubble.
//
// Engines never start goroutines. Timer callbacks run wherever the Clock
// delivers them, which must be the same loop that dispatches input signals.
package holdrepeat
