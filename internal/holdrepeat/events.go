package holdrepeat

import "time"

// Lifecycle event types dispatched on the gesture target. They bubble, so
// handlers may be registered on the target or on any ancestor.
const (
	EventHoldStart      = "hold-start"
	EventHoldRepeat     = "hold-repeat"
	EventHoldRepeatHalt = "hold-repeat-halt"
	EventHoldStop       = "hold-stop"
)

// HaltReason says which cap stopped the repeats.
type HaltReason string

const (
	HaltIterationLimit HaltReason = "iteration limit"
	HaltTimeLimit      HaltReason = "time limit"
)

// HoldStart is the Detail of a hold-start event.
type HoldStart struct {
	StartTime time.Time
}

// HoldRepeat is the Detail of a hold-repeat event.
type HoldRepeat struct {
	Iteration       int
	StartTime       time.Time
	CurrentInterval time.Duration
	HoldTime        time.Duration
	Accelerating    bool
}

// HoldRepeatHalt is the Detail of a hold-repeat-halt event.
type HoldRepeatHalt struct {
	Reason    HaltReason
	HaltTime  time.Time
	StartTime time.Time
	Iteration int
}

// HoldStop is the Detail of a hold-stop event.
type HoldStop struct {
	StartTime  time.Time
	Duration   time.Duration
	Iterations int
}
