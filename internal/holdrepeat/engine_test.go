package holdrepeat

import (
	"fmt"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/bilo1967/sight-translation/internal/surface"
	"github.com/bilo1967/sight-translation/internal/timerq"
)

var epoch = time.Unix(0, 0)

type recorded struct {
	at     time.Duration
	typ    string
	target string
	detail any
}

func (r recorded) String() string {
	switch d := r.detail.(type) {
	case HoldRepeat:
		return fmt.Sprintf("%s@%d:%s(%d)", r.target, r.at.Milliseconds(), r.typ, d.Iteration)
	case HoldRepeatHalt:
		return fmt.Sprintf("%s@%d:%s(%s)", r.target, r.at.Milliseconds(), r.typ, d.Reason)
	case HoldStop:
		return fmt.Sprintf("%s@%d:%s(%d)", r.target, r.at.Milliseconds(), r.typ, d.Iterations)
	default:
		return fmt.Sprintf("%s@%d:%s", r.target, r.at.Milliseconds(), r.typ)
	}
}

type recorder struct {
	q      *timerq.Queue
	events []recorded
}

// watch records every gesture event bubbling through root.
func (r *recorder) watch(root *surface.Node) {
	for _, typ := range []string{EventHoldStart, EventHoldRepeat, EventHoldRepeatHalt, EventHoldStop, surface.EventActivate} {
		root.On(typ, func(ev *surface.Event) {
			r.events = append(r.events, recorded{
				at:     r.q.Now().Sub(epoch),
				typ:    ev.Type,
				target: ev.Target.ID,
				detail: ev.Detail,
			})
		})
	}
}

func (r *recorder) trace() string {
	parts := make([]string, 0, len(r.events))
	for _, ev := range r.events {
		parts = append(parts, ev.String())
	}
	return strings.Join(parts, " ")
}

func (r *recorder) count(typ string) int {
	n := 0
	for _, ev := range r.events {
		if ev.typ == typ {
			n++
		}
	}
	return n
}

func setup(t *testing.T) (*Engine, *timerq.Queue, *recorder, *surface.Node, *surface.Node, *surface.Node) {
	t.Helper()
	q := timerq.NewQueue(epoch)
	root := surface.NewNode("toolbar", "bar")
	dec := surface.NewNode("button", "dec", "speed")
	inc := surface.NewNode("button", "inc", "speed")
	root.Append(dec, inc)
	rec := &recorder{q: q}
	rec.watch(root)
	return NewEngine(q), q, rec, root, dec, inc
}

func signal(target *surface.Node, typ string) {
	surface.Dispatch(&surface.Event{Type: typ, Target: target})
}

func TestIterationLimitTrace(t *testing.T) {
	e, q, rec, root, _, inc := setup(t)
	opts := Options{
		InitialDelay:   Ptr(400 * time.Millisecond),
		RepeatInterval: Ptr(200 * time.Millisecond),
		MaxIterations:  Ptr(3),
	}
	if err := e.Bind(root, "#inc", opts); err != nil {
		t.Fatalf("bind: %v", err)
	}

	signal(inc, surface.EventPointerDown)
	q.Advance(1000 * time.Millisecond)
	if got := e.Phase(inc); got != PhaseHalted {
		t.Fatalf("expected halted while still pressed, got %s", got)
	}
	signal(inc, surface.EventPointerUp)

	want := "inc@400:hold-start inc@400:hold-repeat(0) inc@600:hold-repeat(1) inc@800:hold-repeat(2) " +
		"inc@800:hold-repeat-halt(iteration limit) inc@1000:hold-stop(3)"
	if got := rec.trace(); got != want {
		t.Fatalf("unexpected trace\n got: %s\nwant: %s", got, want)
	}
	stop := rec.events[len(rec.events)-1].detail.(HoldStop)
	if stop.Duration != time.Second {
		t.Fatalf("expected 1s hold, got %s", stop.Duration)
	}
	if q.Len() != 1 {
		// Only the guard release is left.
		t.Fatalf("expected 1 pending timer, got %d", q.Len())
	}
	q.Advance(0)
	if q.Len() != 0 || e.Active() != 0 {
		t.Fatalf("gesture left timers or state behind")
	}
}

func TestTapForwardsActivate(t *testing.T) {
	e, q, rec, root, dec, _ := setup(t)
	if err := e.Bind(root, ".speed", Options{}); err != nil {
		t.Fatalf("bind: %v", err)
	}

	signal(dec, surface.EventPointerDown)
	q.Advance(150 * time.Millisecond)
	signal(dec, surface.EventPointerUp)
	// The native activate of the same press is swallowed.
	if surface.Dispatch(&surface.Event{Type: surface.EventActivate, Target: dec}) {
		t.Fatalf("expected the native activate to be prevented")
	}

	if got := rec.trace(); got != "dec@150:activate" {
		t.Fatalf("unexpected trace %q", got)
	}
	if rec.events[0].detail != nil {
		t.Fatalf("activate should carry no detail")
	}
	q.Advance(time.Second)
	if rec.count(EventHoldStart) != 0 || rec.count(EventHoldStop) != 0 {
		t.Fatalf("tap produced hold events: %s", rec.trace())
	}

	// Once the guard is gone, later activations reach the handlers again.
	surface.Dispatch(&surface.Event{Type: surface.EventActivate, Target: dec})
	if got := rec.count(surface.EventActivate); got != 2 {
		t.Fatalf("expected 2 activations, got %d", got)
	}
}

func TestLeaveDuringTapForwardsNothing(t *testing.T) {
	e, q, rec, root, dec, _ := setup(t)
	if err := e.Bind(root, ".speed", Options{}); err != nil {
		t.Fatalf("bind: %v", err)
	}
	signal(dec, surface.EventPointerDown)
	q.Advance(100 * time.Millisecond)
	signal(dec, surface.EventPointerLeave)
	q.Advance(time.Second)
	if len(rec.events) != 0 {
		t.Fatalf("expected no events, got %s", rec.trace())
	}
	if e.Active() != 0 {
		t.Fatalf("expected state to be destroyed")
	}
}

func TestHoldWithoutCaps(t *testing.T) {
	e, q, rec, root, dec, _ := setup(t)
	if err := e.Bind(root, "#dec", Options{}); err != nil {
		t.Fatalf("bind: %v", err)
	}
	signal(dec, surface.EventTouchStart)
	q.Advance(1300 * time.Millisecond)
	signal(dec, surface.EventTouchCancel)

	want := "dec@400:hold-start dec@400:hold-repeat(0) dec@600:hold-repeat(1) dec@800:hold-repeat(2) " +
		"dec@1000:hold-repeat(3) dec@1200:hold-repeat(4) dec@1300:hold-stop(5)"
	if got := rec.trace(); got != want {
		t.Fatalf("unexpected trace\n got: %s\nwant: %s", got, want)
	}
	for i, ev := range rec.events[1 : len(rec.events)-1] {
		rep := ev.detail.(HoldRepeat)
		if rep.Iteration != i {
			t.Fatalf("repeat %d carried iteration %d", i, rep.Iteration)
		}
		if rep.HoldTime != ev.at {
			t.Fatalf("hold time %s, want %s", rep.HoldTime, ev.at)
		}
	}
}

func TestTimeLimitHalts(t *testing.T) {
	e, q, rec, root, _, inc := setup(t)
	opts := Options{
		InitialDelay:   Ptr(100 * time.Millisecond),
		RepeatInterval: Ptr(100 * time.Millisecond),
		MaxDuration:    Ptr(350 * time.Millisecond),
	}
	if err := e.Bind(root, "#inc", opts); err != nil {
		t.Fatalf("bind: %v", err)
	}
	signal(inc, surface.EventPointerDown)
	q.Advance(2 * time.Second)

	want := "inc@100:hold-start inc@100:hold-repeat(0) inc@200:hold-repeat(1) inc@300:hold-repeat(2) " +
		"inc@400:hold-repeat-halt(time limit)"
	if got := rec.trace(); got != want {
		t.Fatalf("unexpected trace\n got: %s\nwant: %s", got, want)
	}
	halt := rec.events[len(rec.events)-1].detail.(HoldRepeatHalt)
	if halt.Iteration != 3 || halt.HaltTime.Sub(epoch) != 400*time.Millisecond {
		t.Fatalf("unexpected halt detail %+v", halt)
	}
	if rec.count(EventHoldRepeatHalt) != 1 {
		t.Fatalf("expected a single halt")
	}
}

func TestAccelerationStaysWithinBounds(t *testing.T) {
	e, q, rec, root, _, inc := setup(t)
	opts := Options{
		InitialDelay:      Ptr(time.Duration(0)),
		RepeatInterval:    Ptr(200 * time.Millisecond),
		Acceleration:      Ptr(0.5),
		AccelerateAfter:   Ptr(2),
		MinRepeatInterval: Ptr(60 * time.Millisecond),
	}
	if err := e.Bind(root, "#inc", opts); err != nil {
		t.Fatalf("bind: %v", err)
	}
	signal(inc, surface.EventPointerDown)
	q.Advance(3 * time.Second)
	signal(inc, surface.EventPointerUp)

	prev := 200 * time.Millisecond
	sawFloor := false
	for _, ev := range rec.events {
		rep, ok := ev.detail.(HoldRepeat)
		if !ok {
			continue
		}
		if rep.CurrentInterval < 60*time.Millisecond || rep.CurrentInterval > 200*time.Millisecond {
			t.Fatalf("interval %s out of bounds", rep.CurrentInterval)
		}
		if rep.CurrentInterval > prev {
			t.Fatalf("interval grew from %s to %s", prev, rep.CurrentInterval)
		}
		if rep.Accelerating != (rep.Iteration >= 2) {
			t.Fatalf("iteration %d accelerating=%v", rep.Iteration, rep.Accelerating)
		}
		if rep.CurrentInterval == 60*time.Millisecond {
			sawFloor = true
		}
		prev = rep.CurrentInterval
	}
	if !sawFloor {
		t.Fatalf("cadence never reached the floor: %s", rec.trace())
	}
}

func TestTargetsAreIsolated(t *testing.T) {
	e, q, rec, root, dec, inc := setup(t)
	if err := e.Bind(root, "#dec", Options{MaxIterations: Ptr(2)}); err != nil {
		t.Fatalf("bind: %v", err)
	}
	if err := e.Bind(root, "#inc", Options{}); err != nil {
		t.Fatalf("bind: %v", err)
	}

	signal(dec, surface.EventPointerDown)
	q.Advance(100 * time.Millisecond)
	signal(inc, surface.EventPointerDown)
	q.Advance(900 * time.Millisecond)
	if e.Phase(dec) != PhaseHalted || e.Phase(inc) != PhaseRepeating {
		t.Fatalf("unexpected phases dec=%s inc=%s", e.Phase(dec), e.Phase(inc))
	}
	signal(dec, surface.EventPointerUp)
	q.Advance(400 * time.Millisecond)
	signal(inc, surface.EventPointerUp)

	var incIters []int
	for _, ev := range rec.events {
		if ev.target == "inc" && ev.typ == EventHoldRepeat {
			incIters = append(incIters, ev.detail.(HoldRepeat).Iteration)
		}
	}
	// inc pressed at 100: repeats at 500, 700, 900, 1100, 1300.
	if len(incIters) != 5 {
		t.Fatalf("expected 5 repeats on inc, got %v\n%s", incIters, rec.trace())
	}
	for i, it := range incIters {
		if it != i {
			t.Fatalf("inc iterations not sequential: %v", incIters)
		}
	}
}

func TestDisabledAndDuplicatePressesIgnored(t *testing.T) {
	e, q, rec, root, dec, inc := setup(t)
	if err := e.Bind(root, ".speed", Options{}); err != nil {
		t.Fatalf("bind: %v", err)
	}
	dec.SetDisabled(true)
	signal(dec, surface.EventPointerDown)
	if e.Phase(dec) != PhaseIdle {
		t.Fatalf("disabled target started a gesture")
	}

	signal(inc, surface.EventPointerDown)
	start := e.Lookup(inc).StartTime
	q.Advance(300 * time.Millisecond)
	signal(inc, surface.EventPointerDown)
	if e.Lookup(inc).StartTime != start {
		t.Fatalf("duplicate press restarted the gesture")
	}
	q.Advance(200 * time.Millisecond)
	if rec.count(EventHoldStart) != 1 {
		t.Fatalf("expected one hold-start, got %s", rec.trace())
	}
}

func TestDelegationResolvesNearestMatch(t *testing.T) {
	e, q, rec, root, _, inc := setup(t)
	icon := surface.NewNode("span", "icon")
	inc.Append(icon)
	late := surface.NewNode("button", "late", "speed")

	if err := e.Bind(root, ".speed", Options{}); err != nil {
		t.Fatalf("bind: %v", err)
	}
	// Inserted after binding.
	root.Append(late)

	signal(icon, surface.EventPointerDown)
	signal(late, surface.EventPointerDown)
	if e.Phase(inc) != PhasePending || e.Phase(late) != PhasePending {
		t.Fatalf("expected inc and late to be pending")
	}
	if e.Phase(icon) != PhaseIdle {
		t.Fatalf("icon should not own a gesture")
	}
	q.Advance(500 * time.Millisecond)
	// Releasing over the icon ends the gesture of its button.
	signal(icon, surface.EventPointerUp)
	if e.Phase(inc) != PhaseIdle {
		t.Fatalf("release through a descendant did not end the gesture")
	}
	if rec.count(EventHoldStop) != 1 {
		t.Fatalf("expected one hold-stop, got %s", rec.trace())
	}

	// A press outside any selector is ignored without a direct binding.
	signal(root, surface.EventPointerDown)
	if e.Phase(root) != PhaseIdle {
		t.Fatalf("unmatched press started a gesture")
	}
}

func TestDirectBinding(t *testing.T) {
	e, q, rec, _, dec, _ := setup(t)
	if err := e.Bind(dec, "", Options{InitialDelay: Ptr(50 * time.Millisecond)}); err != nil {
		t.Fatalf("bind: %v", err)
	}
	signal(dec, surface.EventPointerDown)
	q.Advance(60 * time.Millisecond)
	signal(dec, surface.EventPointerUp)
	if rec.count(EventHoldStart) != 1 || rec.count(EventHoldStop) != 1 {
		t.Fatalf("unexpected trace %s", rec.trace())
	}
}

func TestBindIsIdempotent(t *testing.T) {
	e, _, _, root, _, _ := setup(t)
	for i := 0; i < 2; i++ {
		if err := e.Bind(root, "#inc", Options{}); err != nil {
			t.Fatalf("bind: %v", err)
		}
	}
	if got := root.ListenerCount(surface.EventPointerDown); got != 1 {
		t.Fatalf("expected 1 press listener, got %d", got)
	}
	if got := len(e.bindings[root].selectors); got != 1 {
		t.Fatalf("expected 1 selector, got %d", got)
	}

	e.Unbind(root, ".missing")
	if !e.Bound(root) {
		t.Fatalf("unbinding an unknown selector removed the binding")
	}
	e.Unbind(root, "#inc")
	if e.Bound(root) || root.ListenerCount(surface.EventPointerDown) != 0 {
		t.Fatalf("expected listeners to be revoked")
	}
	e.Unbind(root, "#inc")

	if err := e.Bind(root, "div > span", Options{}); err == nil {
		t.Fatalf("expected an error for an unsupported selector")
	}
}

func TestUnbindAbortsRunningGestures(t *testing.T) {
	e, q, rec, root, _, inc := setup(t)
	if err := e.Bind(root, "#inc", Options{}); err != nil {
		t.Fatalf("bind: %v", err)
	}
	signal(inc, surface.EventPointerDown)
	q.Advance(500 * time.Millisecond)
	before := len(rec.events)
	e.Unbind(root, "#inc")
	q.Advance(time.Second)
	if len(rec.events) != before {
		t.Fatalf("events after unbind: %s", rec.trace())
	}
	if e.Active() != 0 || q.Len() != 0 {
		t.Fatalf("unbind left state or timers behind")
	}
}

func TestHandlerReleaseStopsScheduling(t *testing.T) {
	e, q, rec, root, _, inc := setup(t)
	if err := e.Bind(root, "#inc", Options{}); err != nil {
		t.Fatalf("bind: %v", err)
	}
	root.On(EventHoldRepeat, func(ev *surface.Event) {
		if ev.Detail.(HoldRepeat).Iteration == 1 {
			signal(ev.Target, surface.EventPointerUp)
		}
	})
	signal(inc, surface.EventPointerDown)
	q.Advance(2 * time.Second)
	if got := rec.count(EventHoldRepeat); got != 2 {
		t.Fatalf("expected 2 repeats, got %s", rec.trace())
	}
	if rec.count(EventHoldStop) != 1 || q.Len() != 0 {
		t.Fatalf("expected a clean stop, got %s", rec.trace())
	}
}

func TestCollectedTargetIsReclaimed(t *testing.T) {
	q := timerq.NewQueue(epoch)
	e := NewEngine(q)
	root := surface.NewNode("toolbar", "bar")
	if err := e.Bind(root, ".speed", Options{}); err != nil {
		t.Fatalf("bind: %v", err)
	}
	func() {
		btn := surface.NewNode("button", "gone", "speed")
		root.Append(btn)
		signal(btn, surface.EventPointerDown)
		root.Remove(btn)
	}()
	if e.Active() != 1 {
		t.Fatalf("expected one gesture")
	}

	deadline := time.Now().Add(5 * time.Second)
	for e.Active() != 0 && time.Now().Before(deadline) {
		runtime.GC()
		time.Sleep(10 * time.Millisecond)
	}
	if e.Active() != 0 {
		t.Fatalf("state of a discarded target was not reclaimed")
	}
	// The pending timer notices and does nothing.
	q.Advance(time.Second)
	if q.Len() != 0 {
		t.Fatalf("expected no rescheduling for a collected target")
	}
}

// stalledClock reports time but never runs callbacks, like a host loop
// whose queue has not been drained yet.
type stalledClock struct {
	now time.Time
}

func (c *stalledClock) Now() time.Time { return c.now }

func (c *stalledClock) AfterFunc(time.Duration, func()) Timer { return stalledTimer{} }

type stalledTimer struct{}

func (stalledTimer) Stop() bool { return true }

func TestLateReleaseWithQueuedDelayIsHold(t *testing.T) {
	clock := &stalledClock{now: epoch}
	e := NewEngine(clock)
	root := surface.NewNode("toolbar", "bar")
	inc := surface.NewNode("button", "inc", "speed")
	root.Append(inc)
	if err := e.Bind(root, "#inc", Options{}); err != nil {
		t.Fatalf("bind: %v", err)
	}
	var got []string
	for _, typ := range []string{EventHoldStop, surface.EventActivate} {
		root.On(typ, func(ev *surface.Event) { got = append(got, ev.Type) })
	}

	signal(inc, surface.EventPointerDown)
	clock.now = epoch.Add(450 * time.Millisecond)
	if e.Phase(inc) != PhasePending {
		t.Fatalf("expected the delay callback to be still queued")
	}
	signal(inc, surface.EventPointerUp)
	if len(got) != 1 || got[0] != EventHoldStop {
		t.Fatalf("expected hold-stop only, got %v", got)
	}
}

func TestGuardListenerIsRemoved(t *testing.T) {
	e, q, _, root, dec, _ := setup(t)
	if err := e.Bind(root, ".speed", Options{}); err != nil {
		t.Fatalf("bind: %v", err)
	}
	for i := 0; i < 3; i++ {
		signal(dec, surface.EventPointerDown)
		q.Advance(100 * time.Millisecond)
		signal(dec, surface.EventPointerLeave)
		q.Advance(0)
	}
	signal(dec, surface.EventPointerDown)
	q.Advance(time.Second)
	signal(dec, surface.EventPointerCancel)
	q.Advance(0)
	if n := dec.ListenerCount(surface.EventActivate); n != 0 {
		t.Fatalf("expected every guard listener to be unregistered, got %d", n)
	}
}
