package holdrepeat

import (
	"log"
	"time"

	"github.com/bilo1967/sight-translation/internal/surface"
	"github.com/bilo1967/sight-translation/internal/timerq"
)

// Clock and Timer are the scheduling primitives the engine runs on.
type (
	Clock = timerq.Clock
	Timer = timerq.Timer
)

// Engine runs hold-repeat gestures. It is not safe for concurrent use: every
// signal and every timer callback must arrive on the same loop.
type Engine struct {
	clock    Clock
	logger   *log.Logger
	defaults Options

	states   *stateStore
	bindings map[*surface.Node]*binding
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets a logger for gesture transitions. Nil disables logging.
func WithLogger(logger *log.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithDefaults sets options that every binding inherits unless it sets its own.
func WithDefaults(opts Options) Option {
	return func(e *Engine) {
		e.defaults = opts
	}
}

// NewEngine returns an engine scheduling on clock.
func NewEngine(clock Clock, opts ...Option) *Engine {
	e := &Engine{
		clock:    clock,
		states:   newStateStore(),
		bindings: map[*surface.Node]*binding{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Configure normalises opts on top of the engine defaults.
func (e *Engine) Configure(opts Options) Config {
	return e.defaults.Merge(opts).Normalize()
}

// Press starts a gesture on target. It reports false when the target is
// disabled or already pressed.
func (e *Engine) Press(target *surface.Node, cfg Config) bool {
	st := e.states.begin(target, cfg, e.clock.Now())
	if st == nil {
		return false
	}
	st.guard = installTapGuard(target, e.clock)
	st.timer = e.clock.AfterFunc(cfg.InitialDelay, func() { e.onInitialDelay(st) })
	e.logf("press %s", target)
	return true
}

// Release ends the gesture on target in response to signal. A press that
// never reached its initial delay is a tap: a pointerup or touchend forwards
// a synthetic activate, any other signal forwards nothing. A longer press
// ends with hold-stop. Release reports whether target had a gesture.
func (e *Engine) Release(target *surface.Node, signal string) bool {
	st := e.states.lookup(target)
	if st == nil {
		return false
	}
	now := e.clock.Now()
	// Elapsed time decides, not the phase: on a host loop the initial delay
	// may have expired with its callback still queued.
	tap := now.Sub(st.StartTime) < st.Config.InitialDelay
	st.stopTimer()
	e.states.end(target)
	defer st.guard.release()

	if tap {
		e.logf("tap %s (%s)", target, signal)
		if signal == surface.EventPointerUp || signal == surface.EventTouchEnd {
			surface.Dispatch(&surface.Event{
				Type:      surface.EventActivate,
				Target:    target,
				Synthetic: true,
				Time:      now,
			})
		}
		return true
	}

	e.logf("stop %s after %s, %d repeats", target, now.Sub(st.StartTime), st.repeats)
	e.emit(target, EventHoldStop, HoldStop{
		StartTime:  st.StartTime,
		Duration:   now.Sub(st.StartTime),
		Iterations: st.repeats,
	})
	return true
}

// Phase returns the scheduler phase of target.
func (e *Engine) Phase(target *surface.Node) Phase {
	if st := e.states.lookup(target); st != nil {
		return st.phase
	}
	return PhaseIdle
}

// Lookup returns the gesture in progress on target, or nil.
func (e *Engine) Lookup(target *surface.Node) *State {
	return e.states.lookup(target)
}

// Active returns the number of gestures in progress.
func (e *Engine) Active() int {
	return e.states.size()
}

// Reset silently aborts every gesture in progress.
func (e *Engine) Reset() {
	for target := range e.states.live() {
		e.abandon(target)
	}
}

// abandon ends a gesture without emitting anything.
func (e *Engine) abandon(target *surface.Node) {
	st := e.states.end(target)
	if st == nil {
		return
	}
	st.stopTimer()
	st.guard.releaseNow()
	e.logf("abandon %s", target)
}

func (e *Engine) onInitialDelay(st *State) {
	st.timer = nil
	target := e.resolve(st)
	if target == nil || st.phase != PhasePending {
		return
	}
	st.phase = PhaseRepeating
	e.logf("hold %s", target)
	e.emit(target, EventHoldStart, HoldStart{StartTime: st.StartTime})
	if st.phase != PhaseRepeating {
		return
	}
	e.repeat(target, st, false)
}

func (e *Engine) onTick(st *State) {
	st.timer = nil
	target := e.resolve(st)
	if target == nil || st.phase != PhaseRepeating {
		return
	}
	st.Iteration++
	cfg := st.Config
	if cfg.MaxIterations > 0 && st.Iteration >= cfg.MaxIterations {
		e.halt(target, st, HaltIterationLimit)
		return
	}
	if cfg.MaxDuration > 0 && e.clock.Now().Sub(st.StartTime) >= cfg.MaxDuration {
		e.halt(target, st, HaltTimeLimit)
		return
	}

	accelerating := cfg.Accelerate && st.Iteration >= cfg.AccelerateAfter
	if accelerating {
		next := time.Duration(float64(st.CurrentInterval) * cfg.Acceleration)
		st.CurrentInterval = max(next, cfg.MinRepeatInterval)
	}
	e.repeat(target, st, accelerating)
}

// repeat emits the current iteration and schedules the next one. When the
// next iteration would reach the cap, the gesture halts right away instead
// of waiting a full interval to find out.
func (e *Engine) repeat(target *surface.Node, st *State, accelerating bool) {
	now := e.clock.Now()
	st.repeats++
	e.emit(target, EventHoldRepeat, HoldRepeat{
		Iteration:       st.Iteration,
		StartTime:       st.StartTime,
		CurrentInterval: st.CurrentInterval,
		HoldTime:        now.Sub(st.StartTime),
		Accelerating:    accelerating,
	})
	// A handler may have released the press.
	if st.phase != PhaseRepeating {
		return
	}
	if limit := st.Config.MaxIterations; limit > 0 && st.Iteration+1 >= limit {
		st.Iteration++
		e.halt(target, st, HaltIterationLimit)
		return
	}
	st.timer = e.clock.AfterFunc(st.CurrentInterval, func() { e.onTick(st) })
}

// halt stops scheduling. The state stays until the press is released.
func (e *Engine) halt(target *surface.Node, st *State, reason HaltReason) {
	st.stopTimer()
	st.phase = PhaseHalted
	e.logf("halt %s: %s at iteration %d", target, reason, st.Iteration)
	e.emit(target, EventHoldRepeatHalt, HoldRepeatHalt{
		Reason:    reason,
		HaltTime:  e.clock.Now(),
		StartTime: st.StartTime,
		Iteration: st.Iteration,
	})
}

// resolve returns the target of st, cleaning up when the node has been
// collected while the gesture was in flight.
func (e *Engine) resolve(st *State) *surface.Node {
	target := st.target.Value()
	if target == nil {
		st.stopTimer()
		e.states.drop(st.target)
		st.phase = PhaseIdle
		st.guard.releaseNow()
	}
	return target
}

func (e *Engine) emit(target *surface.Node, typ string, detail any) {
	surface.Dispatch(&surface.Event{
		Type:      typ,
		Target:    target,
		Synthetic: true,
		Time:      e.clock.Now(),
		Detail:    detail,
	})
}

func (e *Engine) logf(format string, args ...any) {
	if e.logger != nil {
		e.logger.Printf("holdrepeat: "+format, args...)
	}
}
