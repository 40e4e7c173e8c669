package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/bilo1967/sight-translation/internal/surface"
)

// Toolbar button ids.
const (
	btnBack       = "back"
	btnPlay       = "play"
	btnStop       = "stop"
	btnRewind     = "rewind"
	btnDecSpeed   = "dec-speed"
	btnIncSpeed   = "inc-speed"
	btnDecSpacing = "dec-spacing"
	btnIncSpacing = "inc-spacing"
	btnLang       = "lang"
)

var toolbarOrder = []string{
	btnBack, btnPlay, btnStop, btnRewind,
	btnDecSpeed, btnIncSpeed,
	btnDecSpacing, btnIncSpacing,
	btnLang,
}

var (
	buttonStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Background(lipgloss.Color("#3A3A3A")).
			Padding(0, 1)
	pressedButtonStyle = buttonStyle.Copy().
				Background(lipgloss.Color("#C89A3A")).
				Foreground(lipgloss.Color("#1A1A1A"))
	disabledButtonStyle = buttonStyle.Copy().
				Foreground(lipgloss.Color("#6E6E6E"))
)

// toolbar is the clickable control row. Buttons are surface nodes so the
// hold engine and activate handlers can be attached by selector.
type toolbar struct {
	root    *surface.Node
	buttons map[string]*surface.Node
	labels  map[string]string
	pressed *surface.Node
}

func newToolbar() *toolbar {
	tb := &toolbar{
		root:    surface.NewNode("toolbar", "toolbar"),
		buttons: map[string]*surface.Node{},
		labels:  map[string]string{},
	}
	for _, id := range toolbarOrder {
		class := "control"
		switch id {
		case btnDecSpeed, btnIncSpeed:
			class = "speed"
		case btnDecSpacing, btnIncSpacing:
			class = "spacing"
		}
		btn := surface.NewNode("button", id, class)
		tb.buttons[id] = btn
		tb.root.Append(btn)
	}
	return tb
}

func (tb *toolbar) setLabel(id, label string) {
	tb.labels[id] = label
}

func (tb *toolbar) button(id string) *surface.Node {
	return tb.buttons[id]
}

// layout places the buttons on row y from column x and returns the width used.
func (tb *toolbar) layout(x, y int) int {
	start := x
	for i, id := range toolbarOrder {
		if i > 0 {
			x++
		}
		w := lipgloss.Width(buttonStyle.Render(tb.labels[id]))
		tb.buttons[id].Rect = surface.Rect{X: x, Y: y, W: w, H: 1}
		x += w
	}
	tb.root.Rect = surface.Rect{X: start, Y: y, W: x - start, H: 1}
	return x - start
}

func (tb *toolbar) width() int {
	w := len(toolbarOrder) - 1
	for _, id := range toolbarOrder {
		w += lipgloss.Width(buttonStyle.Render(tb.labels[id]))
	}
	return w
}

func (tb *toolbar) view() string {
	parts := make([]string, 0, len(toolbarOrder))
	for _, id := range toolbarOrder {
		btn := tb.buttons[id]
		style := buttonStyle
		switch {
		case btn.Disabled():
			style = disabledButtonStyle
		case btn == tb.pressed:
			style = pressedButtonStyle
		}
		parts = append(parts, style.Render(tb.labels[id]))
	}
	return strings.Join(parts, " ")
}

// handleMouse turns terminal mouse reports into pointer signals. A release
// over the pressed button is also a native activate, like a click.
func (tb *toolbar) handleMouse(msg tea.MouseMsg) {
	hit := tb.root.HitTest(msg.X, msg.Y)
	if hit == tb.root {
		hit = nil
	}
	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft {
			return
		}
		tb.leave()
		if hit == nil {
			return
		}
		tb.pressed = hit
		tb.dispatch(surface.EventPointerDown, hit, msg)
	case tea.MouseActionMotion:
		if tb.pressed != nil && hit != tb.pressed {
			tb.leave()
		}
	case tea.MouseActionRelease:
		// Releasing away from the pressed button ends its gesture first.
		// Terminals do not always report the motion that left it.
		if hit != tb.pressed {
			tb.leave()
		}
		pressed := tb.pressed
		tb.pressed = nil
		if hit == nil {
			return
		}
		tb.dispatch(surface.EventPointerUp, hit, msg)
		if hit == pressed {
			tb.dispatch(surface.EventActivate, hit, msg)
		}
	}
}

func (tb *toolbar) leave() {
	if tb.pressed == nil {
		return
	}
	pressed := tb.pressed
	tb.pressed = nil
	surface.Dispatch(&surface.Event{Type: surface.EventPointerLeave, Target: pressed})
}

func (tb *toolbar) dispatch(typ string, target *surface.Node, msg tea.MouseMsg) {
	surface.Dispatch(&surface.Event{Type: typ, Target: target, X: msg.X, Y: msg.Y})
}
