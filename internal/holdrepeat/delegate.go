package holdrepeat

import (
	"context"
	"fmt"
	"slices"

	"github.com/bilo1967/sight-translation/internal/surface"
)

var (
	pressSignals   = []string{surface.EventPointerDown, surface.EventTouchStart}
	releaseSignals = []string{
		surface.EventPointerUp,
		surface.EventPointerLeave,
		surface.EventPointerCancel,
		surface.EventTouchEnd,
		surface.EventTouchCancel,
	}
)

type boundSelector struct {
	raw    string
	sel    surface.Selector
	config Config
}

// binding is the registration state of one container.
type binding struct {
	selectors []boundSelector
	direct    *Config
	cancel    context.CancelFunc
	listeners []*surface.Listener
}

func (b *binding) empty() bool {
	return len(b.selectors) == 0 && b.direct == nil
}

// resolve finds the target of a press that started at origin: the nearest
// descendant matching a registered selector, or the container itself when
// it is bound directly.
func (b *binding) resolve(container, origin *surface.Node) (*surface.Node, Config, bool) {
	for cur := origin; cur != nil && cur != container; cur = cur.Parent() {
		for _, s := range b.selectors {
			if s.sel.Match(cur) {
				return cur, s.config, true
			}
		}
	}
	if b.direct != nil {
		return container, *b.direct, true
	}
	return nil, Config{}, false
}

// Bind registers hold-repeat handling on container for descendants matching
// selector. An empty selector binds the container itself. Binding a selector
// that is already registered has no effect.
func (e *Engine) Bind(container *surface.Node, selector string, opts Options) error {
	if container == nil {
		return fmt.Errorf("failed to bind %q: nil container", selector)
	}
	var parsed surface.Selector
	if selector != "" {
		var err error
		if parsed, err = surface.ParseSelector(selector); err != nil {
			return fmt.Errorf("failed to bind %q: %w", selector, err)
		}
	}

	b := e.bindings[container]
	if b == nil {
		b = &binding{}
		e.listen(container, b)
		e.bindings[container] = b
	}

	cfg := e.Configure(opts)
	if selector == "" {
		if b.direct == nil {
			b.direct = &cfg
		}
		return nil
	}
	for _, s := range b.selectors {
		if s.raw == selector {
			return nil
		}
	}
	b.selectors = append(b.selectors, boundSelector{raw: selector, sel: parsed, config: cfg})
	e.logf("bind %s %q", container, selector)
	return nil
}

// Unbind removes a registration made by Bind. Removing the last one detaches
// the container listeners and silently aborts gestures running inside it.
func (e *Engine) Unbind(container *surface.Node, selector string) {
	b := e.bindings[container]
	if b == nil {
		return
	}
	if selector == "" {
		b.direct = nil
	} else {
		for i, s := range b.selectors {
			if s.raw == selector {
				b.selectors = slices.Delete(b.selectors, i, i+1)
				break
			}
		}
	}
	if !b.empty() {
		return
	}

	b.cancel()
	for _, l := range b.listeners {
		l.Remove()
	}
	delete(e.bindings, container)
	for target := range e.states.live() {
		if container.Contains(target) {
			e.abandon(target)
		}
	}
	e.logf("unbind %s", container)
}

// Bound reports whether container has any registration.
func (e *Engine) Bound(container *surface.Node) bool {
	_, ok := e.bindings[container]
	return ok
}

func (e *Engine) listen(container *surface.Node, b *binding) {
	ctx, cancel := context.WithCancel(context.Background())
	b.cancel = cancel

	for _, typ := range pressSignals {
		l := container.On(typ, func(ev *surface.Event) {
			target, cfg, ok := b.resolve(container, ev.Target)
			if !ok {
				return
			}
			e.Press(target, cfg)
		}, surface.WithContext(ctx))
		b.listeners = append(b.listeners, l)
	}
	for _, typ := range releaseSignals {
		l := container.On(typ, func(ev *surface.Event) {
			for cur := ev.Target; cur != nil; cur = cur.Parent() {
				if e.Release(cur, ev.Type) {
					return
				}
				if cur == container {
					return
				}
			}
		}, surface.WithContext(ctx))
		b.listeners = append(b.listeners, l)
	}
}
