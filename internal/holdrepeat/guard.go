package holdrepeat

import (
	"context"
	"weak"

	"github.com/bilo1967/sight-translation/internal/surface"
)

// tapGuard swallows the native activate a press would produce once it is
// released. Synthetic activations pass through. The listener is only held
// weakly: it points back at the target, and the guard lives in the state
// store, which must not keep targets alive.
type tapGuard struct {
	clock    Clock
	cancel   context.CancelFunc
	listener weak.Pointer[surface.Listener]
	released bool
}

func installTapGuard(target *surface.Node, clock Clock) *tapGuard {
	ctx, cancel := context.WithCancel(context.Background())
	l := target.On(surface.EventActivate, func(ev *surface.Event) {
		if ev.Synthetic {
			return
		}
		ev.StopImmediatePropagation()
		ev.PreventDefault()
	}, surface.WithCapture(), surface.WithContext(ctx))
	return &tapGuard{clock: clock, cancel: cancel, listener: weak.Make(l)}
}

// release removes the interceptor on the next loop tick, after the native
// activate of the same release has been dispatched. Repeated calls are no-ops.
func (g *tapGuard) release() {
	if g == nil || g.released {
		return
	}
	g.released = true
	g.clock.AfterFunc(0, g.remove)
}

// releaseNow removes the interceptor immediately.
func (g *tapGuard) releaseNow() {
	if g == nil {
		return
	}
	g.released = true
	g.remove()
}

func (g *tapGuard) remove() {
	g.cancel()
	if l := g.listener.Value(); l != nil {
		l.Remove()
	}
}
