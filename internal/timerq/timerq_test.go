package timerq

import (
	"strings"
	"testing"
	"time"
)

func TestQueueRunsInDueOrder(t *testing.T) {
	q := NewQueue(time.Unix(0, 0))
	var trace []string
	q.AfterFunc(300*time.Millisecond, func() { trace = append(trace, "c") })
	q.AfterFunc(100*time.Millisecond, func() { trace = append(trace, "a") })
	q.AfterFunc(100*time.Millisecond, func() { trace = append(trace, "b") })

	if fired := q.Advance(200 * time.Millisecond); fired != 2 {
		t.Fatalf("expected 2 callbacks, got %d", fired)
	}
	if got := strings.Join(trace, ""); got != "ab" {
		t.Fatalf("unexpected order %q", got)
	}
	if got := q.Now().Sub(time.Unix(0, 0)); got != 200*time.Millisecond {
		t.Fatalf("expected clock at 200ms, got %s", got)
	}
	q.Advance(time.Second)
	if got := strings.Join(trace, ""); got != "abc" {
		t.Fatalf("unexpected order %q", got)
	}
}

func TestQueueCallbackSeesDueTime(t *testing.T) {
	start := time.Unix(0, 0)
	q := NewQueue(start)
	var seen []time.Duration
	var tick func()
	tick = func() {
		seen = append(seen, q.Now().Sub(start))
		if len(seen) < 3 {
			q.AfterFunc(50*time.Millisecond, tick)
		}
	}
	q.AfterFunc(100*time.Millisecond, tick)
	q.Advance(time.Second)
	want := []time.Duration{100 * time.Millisecond, 150 * time.Millisecond, 200 * time.Millisecond}
	if len(seen) != len(want) {
		t.Fatalf("expected %d ticks, got %v", len(want), seen)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("tick %d at %s, want %s", i, seen[i], want[i])
		}
	}
}

func TestQueueStop(t *testing.T) {
	q := NewQueue(time.Unix(0, 0))
	ran := false
	timer := q.AfterFunc(time.Second, func() { ran = true })
	if !timer.Stop() {
		t.Fatalf("expected first stop to report true")
	}
	if timer.Stop() {
		t.Fatalf("expected second stop to report false")
	}
	q.Advance(2 * time.Second)
	if ran || q.Len() != 0 {
		t.Fatalf("stopped timer ran or stayed queued")
	}

	fired := q.AfterFunc(0, func() {})
	q.Step()
	if fired.Stop() {
		t.Fatalf("stop after fire should report false")
	}
}

func TestLoopSuppressesStoppedCallback(t *testing.T) {
	ch := make(chan func(), 4)
	loop := NewLoop(Chan(ch))

	ran := false
	timer := loop.AfterFunc(time.Millisecond, func() { ran = true })
	var posted func()
	select {
	case posted = <-ch:
	case <-time.After(2 * time.Second):
		t.Fatalf("timer never posted")
	}
	// Stop lands between expiry and the loop running the callback.
	if !timer.Stop() {
		t.Fatalf("expected stop to win before the loop ran")
	}
	posted()
	if ran {
		t.Fatalf("callback ran after stop")
	}
}

func TestLoopDeliversCallback(t *testing.T) {
	ch := make(chan func(), 4)
	loop := NewLoop(Chan(ch))
	ran := false
	timer := loop.AfterFunc(time.Millisecond, func() { ran = true })
	select {
	case f := <-ch:
		f()
	case <-time.After(2 * time.Second):
		t.Fatalf("timer never posted")
	}
	if !ran {
		t.Fatalf("callback did not run")
	}
	if timer.Stop() {
		t.Fatalf("stop after delivery should report false")
	}
}
