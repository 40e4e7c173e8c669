package holdrepeat

import (
	"runtime"
	"sync"
	"time"
	"weak"

	"github.com/bilo1967/sight-translation/internal/surface"
)

// Phase is the scheduler state of a target.
type Phase uint8

const (
	PhaseIdle Phase = iota
	PhasePending
	PhaseRepeating
	PhaseHalted
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhasePending:
		return "pending"
	case PhaseRepeating:
		return "repeating"
	case PhaseHalted:
		return "halted"
	default:
		return "unknown"
	}
}

// State is the gesture in progress on one pressed target. It only holds a
// weak reference to the target, so an abandoned node can still be collected.
type State struct {
	StartTime time.Time
	// Iteration is the index of the last repeat emitted. After a halt it is
	// the index that was refused.
	Iteration       int
	CurrentInterval time.Duration
	Config          Config

	target  weak.Pointer[surface.Node]
	phase   Phase
	repeats int
	timer   Timer
	guard   *tapGuard
	cleanup runtime.Cleanup
}

// Phase returns the current scheduler phase.
func (s *State) Phase() Phase {
	return s.phase
}

// Repeats returns the number of hold-repeat events emitted so far.
func (s *State) Repeats() int {
	return s.repeats
}

func (s *State) stopTimer() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// stateStore maps targets to their active gesture. Entries are dropped by
// end, or by the runtime once the target node has been collected. The
// collection hook runs on its own goroutine, hence the lock.
type stateStore struct {
	mu      sync.Mutex
	entries map[weak.Pointer[surface.Node]]*State
}

func newStateStore() *stateStore {
	return &stateStore{entries: map[weak.Pointer[surface.Node]]*State{}}
}

// begin registers a new gesture for target. It returns nil when the target
// is disabled or already has one.
func (s *stateStore) begin(target *surface.Node, cfg Config, now time.Time) *State {
	if target == nil || target.Disabled() {
		return nil
	}
	key := weak.Make(target)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[key]; ok {
		return nil
	}
	st := &State{
		StartTime:       now,
		CurrentInterval: cfg.RepeatInterval,
		Config:          cfg,
		target:          key,
		phase:           PhasePending,
	}
	st.cleanup = runtime.AddCleanup(target, s.collect, key)
	s.entries[key] = st
	return st
}

func (s *stateStore) lookup(target *surface.Node) *State {
	if target == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries[weak.Make(target)]
}

// end removes the gesture for target, if any, and returns it.
func (s *stateStore) end(target *surface.Node) *State {
	if target == nil {
		return nil
	}
	return s.drop(weak.Make(target))
}

func (s *stateStore) drop(key weak.Pointer[surface.Node]) *State {
	s.mu.Lock()
	st, ok := s.entries[key]
	if ok {
		delete(s.entries, key)
	}
	s.mu.Unlock()
	if !ok {
		return nil
	}
	st.cleanup.Stop()
	st.phase = PhaseIdle
	return st
}

func (s *stateStore) collect(key weak.Pointer[surface.Node]) {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
}

func (s *stateStore) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// live returns the gestures whose targets are still reachable.
func (s *stateStore) live() map[*surface.Node]*State {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[*surface.Node]*State, len(s.entries))
	for key, st := range s.entries {
		if n := key.Value(); n != nil {
			out[n] = st
		}
	}
	return out
}
