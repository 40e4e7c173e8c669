// Package timerq provides the clocks that drive timed gestures: a virtual
// timer queue for deterministic runs and a wall-clock variant that hands
// callbacks to a single-threaded loop.
package timerq

import (
	"container/heap"
	"time"
)

// Timer is a cancellable scheduled callback.
type Timer interface {
	// Stop cancels the callback. It reports whether the call prevented it
	// from running.
	Stop() bool
}

// Clock schedules callbacks.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// Queue is a virtual clock. Time only moves when Advance, AdvanceTo or Step
// is called, and due callbacks run synchronously on the caller's goroutine
// in due-time order (ties in scheduling order).
type Queue struct {
	now   time.Time
	seq   uint64
	items timerHeap
}

// NewQueue returns a queue whose clock starts at start.
func NewQueue(start time.Time) *Queue {
	return &Queue{now: start}
}

// Now returns the virtual time.
func (q *Queue) Now() time.Time {
	return q.now
}

// AfterFunc schedules f to run d after the current virtual time. A
// negative d is treated as zero.
func (q *Queue) AfterFunc(d time.Duration, f func()) Timer {
	if d < 0 {
		d = 0
	}
	q.seq++
	t := &queueTimer{q: q, due: q.now.Add(d), seq: q.seq, fn: f, index: -1}
	heap.Push(&q.items, t)
	return t
}

// Len returns the number of pending timers.
func (q *Queue) Len() int {
	return len(q.items)
}

// Next returns the due time of the earliest pending timer.
func (q *Queue) Next() (time.Time, bool) {
	if len(q.items) == 0 {
		return time.Time{}, false
	}
	return q.items[0].due, true
}

// Advance moves the clock forward by d, running every callback that falls
// due on the way. It returns the number of callbacks run.
func (q *Queue) Advance(d time.Duration) int {
	return q.AdvanceTo(q.now.Add(d))
}

// AdvanceTo moves the clock to t (never backwards), running due callbacks.
func (q *Queue) AdvanceTo(t time.Time) int {
	fired := 0
	for len(q.items) > 0 && !q.items[0].due.After(t) {
		q.fireNext()
		fired++
	}
	if t.After(q.now) {
		q.now = t
	}
	return fired
}

// Step runs the earliest pending callback, moving the clock to its due
// time. It reports whether a callback ran.
func (q *Queue) Step() bool {
	if len(q.items) == 0 {
		return false
	}
	q.fireNext()
	return true
}

func (q *Queue) fireNext() {
	t := heap.Pop(&q.items).(*queueTimer)
	if t.due.After(q.now) {
		q.now = t.due
	}
	t.fired = true
	t.fn()
}

type queueTimer struct {
	q     *Queue
	due   time.Time
	seq   uint64
	fn    func()
	index int
	fired bool
}

func (t *queueTimer) Stop() bool {
	if t.fired || t.index < 0 {
		return false
	}
	heap.Remove(&t.q.items, t.index)
	return true
}

type timerHeap []*queueTimer

func (h timerHeap) Len() int { return len(h) }

func (h timerHeap) Less(i, j int) bool {
	if h[i].due.Equal(h[j].due) {
		return h[i].seq < h[j].seq
	}
	return h[i].due.Before(h[j].due)
}

func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *timerHeap) Push(x any) {
	t := x.(*queueTimer)
	t.index = len(*h)
	*h = append(*h, t)
}

func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*h = old[:n-1]
	return t
}
