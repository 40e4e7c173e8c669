package surface

import (
	"context"
	"slices"
	"time"
)

// Input signal and activation event types.
const (
	EventPointerDown   = "pointerdown"
	EventPointerUp     = "pointerup"
	EventPointerLeave  = "pointerleave"
	EventPointerCancel = "pointercancel"
	EventTouchStart    = "touchstart"
	EventTouchEnd      = "touchend"
	EventTouchCancel   = "touchcancel"
	EventActivate      = "activate"
)

// Phase is the dispatch phase an event is in.
type Phase uint8

const (
	PhaseNone Phase = iota
	PhaseCapture
	PhaseTarget
	PhaseBubble
)

// Event travels from the root to Target (capture) and back (bubble).
type Event struct {
	Type   string
	Target *Node
	// CurrentTarget is the node whose listener is running. For delegated
	// listeners it is the matched descendant and DelegateTarget is the node
	// the listener was registered on.
	CurrentTarget  *Node
	DelegateTarget *Node
	Phase          Phase

	// Synthetic marks events raised by code rather than by an input device.
	Synthetic bool
	Time      time.Time
	X, Y      int
	Detail    any

	stopped          bool
	stoppedImmediate bool
	defaultPrevented bool
}

// StopPropagation prevents the event from reaching further nodes.
func (e *Event) StopPropagation() {
	e.stopped = true
}

// StopImmediatePropagation also skips the remaining listeners on the current node.
func (e *Event) StopImmediatePropagation() {
	e.stopped = true
	e.stoppedImmediate = true
}

// PreventDefault marks the default action as cancelled.
func (e *Event) PreventDefault() {
	e.defaultPrevented = true
}

// DefaultPrevented reports whether PreventDefault was called.
func (e *Event) DefaultPrevented() bool {
	return e.defaultPrevented
}

// PropagationStopped reports whether propagation was stopped.
func (e *Event) PropagationStopped() bool {
	return e.stopped
}

// Handler receives dispatched events.
type Handler func(*Event)

type listenerConfig struct {
	capture  bool
	once     bool
	ctx      context.Context
	selector *Selector
}

// ListenerOption configures a listener.
type ListenerOption func(*listenerConfig)

// WithCapture registers the listener for the capture phase.
func WithCapture() ListenerOption {
	return func(c *listenerConfig) {
		c.capture = true
	}
}

// WithOnce removes the listener after its first invocation.
func WithOnce() ListenerOption {
	return func(c *listenerConfig) {
		c.once = true
	}
}

// WithContext revokes the listener once ctx is done.
func WithContext(ctx context.Context) ListenerOption {
	return func(c *listenerConfig) {
		c.ctx = ctx
	}
}

// WithSelector makes the listener delegated: it only runs when the event
// originates inside a descendant matching sel, which becomes CurrentTarget.
// An invalid selector makes the listener inert.
func WithSelector(sel string) ListenerOption {
	return func(c *listenerConfig) {
		parsed, err := ParseSelector(sel)
		if err != nil {
			parsed = Selector{raw: sel}
		}
		c.selector = &parsed
	}
}

// Listener is a registered handler.
type Listener struct {
	node    *Node
	typ     string
	handler Handler
	config  listenerConfig
	removed bool
}

// Remove unregisters the listener. It is safe to call more than once.
func (l *Listener) Remove() {
	if l == nil || l.removed {
		return
	}
	l.removed = true
	list := l.node.listeners[l.typ]
	for i, other := range list {
		if other == l {
			l.node.listeners[l.typ] = slices.Delete(list, i, i+1)
			break
		}
	}
	if len(l.node.listeners[l.typ]) == 0 {
		delete(l.node.listeners, l.typ)
	}
}

// Active reports whether the listener is still registered and not revoked.
func (l *Listener) Active() bool {
	if l == nil || l.removed {
		return false
	}
	if l.config.ctx != nil && l.config.ctx.Err() != nil {
		return false
	}
	return true
}

// On registers handler for events of type typ on n.
func (n *Node) On(typ string, handler Handler, opts ...ListenerOption) *Listener {
	l := &Listener{node: n, typ: typ, handler: handler}
	for _, opt := range opts {
		opt(&l.config)
	}
	if handler == nil || (l.config.ctx != nil && l.config.ctx.Err() != nil) {
		l.removed = true
		return l
	}
	if n.listeners == nil {
		n.listeners = map[string][]*Listener{}
	}
	n.listeners[typ] = append(n.listeners[typ], l)
	return l
}

// ListenerCount returns the number of listeners registered for typ on n.
// A listener revoked through its context still counts until it is removed
// or pruned by the next dispatch of typ.
func (n *Node) ListenerCount(typ string) int {
	return len(n.listeners[typ])
}

// Dispatch delivers ev along the path from the root to ev.Target. It returns
// false when a listener called PreventDefault.
func Dispatch(ev *Event) bool {
	if ev == nil || ev.Target == nil {
		return true
	}
	var path []*Node
	for cur := ev.Target; cur != nil; cur = cur.parent {
		path = append(path, cur)
	}

	for i := len(path) - 1; i >= 0 && !ev.stopped; i-- {
		ev.Phase = PhaseCapture
		if i == 0 {
			ev.Phase = PhaseTarget
		}
		path[i].invoke(ev, true)
	}
	for i := 0; i < len(path) && !ev.stopped; i++ {
		ev.Phase = PhaseBubble
		if i == 0 {
			ev.Phase = PhaseTarget
		}
		path[i].invoke(ev, false)
	}

	ev.Phase = PhaseNone
	ev.CurrentTarget = nil
	ev.DelegateTarget = nil
	return !ev.defaultPrevented
}

func (n *Node) invoke(ev *Event, capture bool) {
	list := n.listeners[ev.Type]
	if len(list) == 0 {
		return
	}
	snapshot := make([]*Listener, len(list))
	copy(snapshot, list)
	for _, l := range snapshot {
		if !l.Active() {
			l.Remove()
			continue
		}
		if l.config.capture != capture {
			continue
		}
		current, ok := l.currentTarget(ev)
		if !ok {
			continue
		}
		ev.CurrentTarget = current
		ev.DelegateTarget = n
		if l.config.once {
			l.Remove()
		}
		l.handler(ev)
		if ev.stoppedImmediate {
			return
		}
	}
}

func (l *Listener) currentTarget(ev *Event) (*Node, bool) {
	if l.config.selector == nil {
		return l.node, true
	}
	for cur := ev.Target; cur != nil && cur != l.node; cur = cur.parent {
		if l.config.selector.Match(cur) {
			return cur, true
		}
	}
	return nil, false
}
