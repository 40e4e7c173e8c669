package timerq

import (
	"sync"
	"time"
)

// Loop is a wall-clock Clock whose callbacks run on a host event loop.
// When a timer expires, its callback is handed to post, and post must queue
// it for the loop goroutine. Stopping a timer before the loop runs the
// callback suppresses it, so nothing fires after Stop returns true.
type Loop struct {
	post func(func())
	now  func() time.Time
}

// NewLoop returns a Loop that delivers callbacks through post.
func NewLoop(post func(func())) *Loop {
	return &Loop{post: post, now: time.Now}
}

// Now returns the wall-clock time.
func (l *Loop) Now() time.Time {
	return l.now()
}

// AfterFunc schedules f on the loop after d.
func (l *Loop) AfterFunc(d time.Duration, f func()) Timer {
	t := &loopTimer{}
	timer := time.AfterFunc(d, func() {
		l.post(func() {
			if t.claim() {
				f()
			}
		})
	})
	t.mu.Lock()
	t.timer = timer
	t.mu.Unlock()
	return t
}

type loopTimer struct {
	mu      sync.Mutex
	timer   *time.Timer
	stopped bool
	fired   bool
}

func (t *loopTimer) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	if t.timer != nil {
		t.timer.Stop()
	}
	return true
}

// claim marks the timer as fired unless it was stopped first.
func (t *loopTimer) claim() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return false
	}
	t.fired = true
	return true
}

// Chan adapts a channel into a post function. Hosts drain the channel on
// their loop goroutine and call each received function.
func Chan(ch chan<- func()) func(func()) {
	return func(f func()) {
		ch <- f
	}
}
