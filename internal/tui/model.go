// Package tui provides the Bubble Tea teleprompter player.
package tui

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/bilo1967/sight-translation/internal/holdrepeat"
	"github.com/bilo1967/sight-translation/internal/i18n"
	"github.com/bilo1967/sight-translation/internal/model"
	"github.com/bilo1967/sight-translation/internal/script"
	"github.com/bilo1967/sight-translation/internal/scroller"
	statsPkg "github.com/bilo1967/sight-translation/internal/stats"
	"github.com/bilo1967/sight-translation/internal/store"
	"github.com/bilo1967/sight-translation/internal/surface"
	"github.com/bilo1967/sight-translation/internal/timerq"
)

const (
	frameInterval = 33 * time.Millisecond
	toastDuration = 2 * time.Second
	// chrome is the number of rows around the viewport: header, toolbar,
	// footer and hint.
	chrome = 4
)

// SpeedHold is the hold behaviour of the speed buttons: repeats as fast as
// the interval floor allows, capped at the number of steps across the
// whole speed range.
var SpeedHold = holdrepeat.Options{
	RepeatInterval: holdrepeat.Ptr(20 * time.Millisecond),
	MaxIterations:  holdrepeat.Ptr(scroller.SpeedSteps),
}

var (
	titleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	textStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	footerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	stateStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	toastStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#1A1A1A")).Background(lipgloss.Color("#C89A3A")).Padding(0, 1)
)

// Options configures a player Model.
type Options struct {
	// Clock drives hold gestures. Nil uses the wall clock, with timer
	// callbacks delivered through the program loop.
	Clock timerq.Clock
	// Hold overrides SpeedHold, typically from the [hold] config table.
	Hold   holdrepeat.Options
	Bundle *i18n.Bundle
	Logger *log.Logger
}

type frameMsg time.Time

type timerMsg func()

// session counts what happened between starting playback and stopping it.
type session struct {
	startedAt    time.Time
	changes      []model.SpeedChange
	holdGestures int
	holdRepeats  int
	taps         int
}

// Model implements the Bubble Tea player UI.
type Model struct {
	config model.Config
	store  *store.Store
	script *script.Script
	bundle *i18n.Bundle
	logger *log.Logger

	lang    language.Tag
	printer *message.Printer

	player   *scroller.Player
	viewport viewport.Model
	keys     keyMap
	bar      *toolbar
	engine   *holdrepeat.Engine
	clock    timerq.Clock
	timers   chan func()

	width  int
	height int
	lines  []string

	lastFrame  time.Time
	hint       string
	toast      string
	toastUntil time.Time
	quitting   bool

	sess *session
}

// NewModel constructs a player for scr.
func NewModel(cfg model.Config, st *store.Store, scr *script.Script, opts Options) *Model {
	m := &Model{
		config: cfg,
		store:  st,
		script: scr,
		bundle: opts.Bundle,
		logger: opts.Logger,
		player: scroller.New(scr.Words),
		keys:   defaultKeyMap(),
		bar:    newToolbar(),
		clock:  opts.Clock,
	}
	if m.bundle == nil {
		m.bundle = i18n.Default()
	}
	if m.config.RewindSeconds <= 0 {
		m.config.RewindSeconds = int(scroller.DefaultRewind / time.Second)
	}
	if m.clock == nil {
		m.timers = make(chan func(), 16)
		m.clock = timerq.NewLoop(timerq.Chan(m.timers))
	}
	m.player.SetSpeed(cfg.Speed)
	m.player.StepSpacing(cfg.Spacing - m.player.Spacing())
	m.setLang(m.bundle.Resolve(cfg.Lang))
	m.viewport = viewport.New(0, 0)
	m.viewport.Style = textStyle

	engineOpts := []holdrepeat.Option{}
	if m.logger != nil {
		engineOpts = append(engineOpts, holdrepeat.WithLogger(m.logger))
	}
	m.engine = holdrepeat.NewEngine(m.clock, engineOpts...)
	m.wire(SpeedHold.Merge(opts.Hold))
	m.refreshControls()
	return m
}

// wire attaches the toolbar handlers and binds the speed buttons to the
// hold engine.
func (m *Model) wire(hold holdrepeat.Options) {
	root := m.bar.root
	for _, id := range []string{btnDecSpeed, btnIncSpeed} {
		if err := m.engine.Bind(root, "#"+id, hold); err != nil {
			m.logf("failed to bind %s: %v", id, err)
		}
	}

	root.On(surface.EventPointerDown, func(ev *surface.Event) {
		m.hint = m.describe(ev.Target.ID)
	})
	root.On(surface.EventActivate, func(ev *surface.Event) {
		if ev.Target.Disabled() {
			return
		}
		m.activate(ev.Target.ID)
	})

	speedButtons := surface.WithSelector("#dec-speed, #inc-speed")
	root.On(holdrepeat.EventHoldStart, func(*surface.Event) {
		if m.sess != nil {
			m.sess.holdGestures++
		}
	}, speedButtons)
	root.On(holdrepeat.EventHoldRepeat, func(ev *surface.Event) {
		if m.sess != nil {
			m.sess.holdRepeats++
		}
		m.changeSpeed(speedDirection(ev.CurrentTarget.ID), model.SourceHold)
	}, speedButtons)
	root.On(holdrepeat.EventHoldStop, func(*surface.Event) {
		m.saveSpeed()
	}, speedButtons)
}

func speedDirection(id string) int {
	if id == btnDecSpeed {
		return -1
	}
	return 1
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(frameTick(), m.waitTimer())
}

func frameTick() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

// waitTimer delivers one expired hold timer into Update.
func (m *Model) waitTimer() tea.Cmd {
	if m.timers == nil {
		return nil
	}
	ch := m.timers
	return func() tea.Msg {
		return timerMsg(<-ch)
	}
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		return m, nil
	case frameMsg:
		m.frame(time.Time(msg))
		return m, frameTick()
	case timerMsg:
		msg()
		m.refreshControls()
		return m, m.waitTimer()
	case tea.MouseMsg:
		m.bar.handleMouse(msg)
		m.refreshControls()
	case tea.KeyMsg:
		m.handleKey(msg)
		m.refreshControls()
	}
	if m.quitting {
		m.shutdown()
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
	case key.Matches(msg, m.keys.Toggle):
		m.togglePlayback()
	case key.Matches(msg, m.keys.Stop):
		m.stop()
	case key.Matches(msg, m.keys.Rewind):
		m.player.Rewind(time.Duration(m.config.RewindSeconds) * time.Second)
	case key.Matches(msg, m.keys.Faster):
		m.changeSpeed(1, model.SourceKey)
		m.saveSpeed()
	case key.Matches(msg, m.keys.Slower):
		m.changeSpeed(-1, model.SourceKey)
		m.saveSpeed()
	case key.Matches(msg, m.keys.MoreSpacing):
		m.changeSpacing(1)
	case key.Matches(msg, m.keys.LessSpacing):
		m.changeSpacing(-1)
	case key.Matches(msg, m.keys.Lang):
		m.cycleLang()
	}
}

// activate runs the action of a toolbar button. The speed buttons only
// get here on a tap, since the hold engine swallows the click of a hold.
func (m *Model) activate(id string) {
	switch id {
	case btnBack:
		m.quitting = true
	case btnPlay:
		m.togglePlayback()
	case btnStop:
		m.stop()
	case btnRewind:
		m.player.Rewind(time.Duration(m.config.RewindSeconds) * time.Second)
	case btnDecSpeed, btnIncSpeed:
		if m.sess != nil {
			m.sess.taps++
		}
		m.changeSpeed(speedDirection(id), model.SourceTap)
		m.saveSpeed()
	case btnDecSpacing:
		m.changeSpacing(-1)
	case btnIncSpacing:
		m.changeSpacing(1)
	case btnLang:
		m.cycleLang()
	}
}

func (m *Model) frame(now time.Time) {
	if !m.lastFrame.IsZero() && m.player.Advance(now.Sub(m.lastFrame)) {
		m.finishSession(true)
	}
	m.lastFrame = now
	if m.toast != "" && now.After(m.toastUntil) {
		m.toast = ""
	}
	m.syncViewport()
	m.refreshControls()
}

func (m *Model) togglePlayback() {
	if m.player.State() == scroller.Stopped {
		m.sess = &session{startedAt: time.Now()}
	}
	m.player.Toggle()
}

func (m *Model) stop() {
	if m.player.State() != scroller.Stopped {
		m.finishSession(false)
	}
	m.player.Stop()
	m.syncViewport()
}

func (m *Model) changeSpeed(steps int, source string) {
	before := m.player.Speed()
	after := m.player.StepSpeed(steps)
	if after == before || m.sess == nil {
		return
	}
	m.sess.changes = append(m.sess.changes, model.SpeedChange{
		AtMs:   m.player.Elapsed().Milliseconds(),
		WPM:    after,
		Source: source,
	})
}

func (m *Model) changeSpacing(n int) {
	m.player.StepSpacing(n)
	m.layout()
}

func (m *Model) cycleLang() {
	m.setLang(m.bundle.Next(m.lang))
	m.toast = m.printer.Sprintf("toast.langchanged")
	m.toastUntil = time.Now().Add(toastDuration)
	m.savePreference(store.PrefLanguage, m.lang.String())
}

func (m *Model) setLang(tag language.Tag) {
	m.lang = tag
	m.printer = m.bundle.Printer(tag)
	m.config.Lang = tag.String()
}

func (m *Model) saveSpeed() {
	m.savePreference(store.PrefTextSpeed, strconv.Itoa(m.player.Speed()))
}

func (m *Model) savePreference(key, value string) {
	if m.store == nil {
		return
	}
	if err := m.store.SetPreference(context.Background(), key, value); err != nil {
		m.logf("failed to save preference %s: %v", key, err)
	}
}

// finishSession persists the running session, if it covered any playback.
func (m *Model) finishSession(completed bool) {
	s := m.sess
	m.sess = nil
	if s == nil || m.store == nil || m.player.Elapsed() <= 0 {
		return
	}
	stats := model.SessionStats{
		StartedAt:    s.startedAt,
		EndedAt:      time.Now(),
		Lang:         m.config.Lang,
		ScriptPath:   m.script.Path,
		Words:        m.script.Words,
		FinalWPM:     m.player.Speed(),
		ElapsedMs:    m.player.Elapsed().Milliseconds(),
		Completed:    completed,
		HoldGestures: s.holdGestures,
		HoldRepeats:  s.holdRepeats,
		Taps:         s.taps,
	}
	if _, err := m.store.InsertSession(context.Background(), stats, s.changes); err != nil {
		m.logf("failed to save session: %v", err)
	}
}

func (m *Model) shutdown() {
	m.engine.Reset()
	m.finishSession(m.player.Finished())
}

// layout rewraps the script for the current size and spacing.
func (m *Model) layout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	textWidth := int(float64(m.width) * 0.70)
	if m.config.Width > 0 {
		textWidth = min(m.config.Width, m.width)
	}
	textWidth = max(textWidth, 1)
	vpHeight := max(m.height-chrome, 1)

	m.lines = m.script.Layout(textWidth, m.player.Spacing())
	m.player.SetLayout(len(m.lines), vpHeight)

	m.viewport.Width = m.width
	m.viewport.Height = vpHeight
	m.viewport.Style = textStyle.PaddingLeft((m.width - textWidth) / 2)
	// Blank space on both sides lets the text enter from the bottom edge
	// and leave through the top.
	pad := make([]string, vpHeight)
	content := make([]string, 0, len(m.lines)+2*vpHeight)
	content = append(content, pad...)
	content = append(content, m.lines...)
	content = append(content, pad...)
	m.viewport.SetContent(strings.Join(content, "\n"))
	m.syncViewport()
	m.refreshControls()
}

func (m *Model) syncViewport() {
	m.viewport.SetYOffset(int(m.player.Position()))
}

// refreshControls updates labels and enabled states, then places the
// toolbar centred on its row.
func (m *Model) refreshControls() {
	play := "▶"
	if m.player.State() == scroller.Playing {
		play = "❚❚"
	}
	m.bar.setLabel(btnBack, "✕")
	m.bar.setLabel(btnPlay, play)
	m.bar.setLabel(btnStop, "■")
	m.bar.setLabel(btnRewind, fmt.Sprintf("↺ %ds", m.config.RewindSeconds))
	m.bar.setLabel(btnDecSpeed, "−")
	m.bar.setLabel(btnIncSpeed, "+")
	m.bar.setLabel(btnDecSpacing, "↕−")
	m.bar.setLabel(btnIncSpacing, "↕+")
	base, _ := m.lang.Base()
	m.bar.setLabel(btnLang, strings.ToUpper(base.String()))

	speed := m.player.Speed()
	m.bar.button(btnDecSpeed).SetDisabled(speed <= scroller.MinSpeed)
	m.bar.button(btnIncSpeed).SetDisabled(speed >= scroller.MaxSpeed)
	m.bar.button(btnDecSpacing).SetDisabled(m.player.Spacing() <= scroller.MinSpacing)
	m.bar.button(btnIncSpacing).SetDisabled(m.player.Spacing() >= scroller.MaxSpacing)

	x := max((m.width-m.bar.width())/2, 0)
	m.bar.layout(x, m.toolbarRow())
}

func (m *Model) toolbarRow() int {
	return max(m.height-3, 0)
}

func (m *Model) describe(id string) string {
	switch id {
	case btnBack:
		return m.printer.Sprintf("descr.back")
	case btnPlay:
		return m.printer.Sprintf("descr.play")
	case btnStop:
		return m.printer.Sprintf("descr.stop")
	case btnRewind:
		return m.printer.Sprintf("descr.rewind", m.config.RewindSeconds)
	case btnDecSpeed:
		return m.printer.Sprintf("descr.decspeed")
	case btnIncSpeed:
		return m.printer.Sprintf("descr.incspeed")
	case btnDecSpacing:
		return m.printer.Sprintf("descr.decspacing")
	case btnIncSpacing:
		return m.printer.Sprintf("descr.incspacing")
	case btnLang:
		return m.printer.Sprintf("descr.lang")
	default:
		return ""
	}
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	header := lipgloss.PlaceHorizontal(m.width, lipgloss.Center, m.renderHeader())
	bar := strings.Repeat(" ", m.bar.root.Rect.X) + m.bar.view()
	footer := lipgloss.PlaceHorizontal(m.width, lipgloss.Center, lipgloss.NewStyle().MaxWidth(m.width).Render(m.renderFooter()))
	hint := lipgloss.PlaceHorizontal(m.width, lipgloss.Center, m.renderHint())
	return strings.Join([]string{header, m.viewport.View(), bar, footer, hint}, "\n")
}

func (m *Model) renderHeader() string {
	title := m.printer.Sprintf("player.title")
	if m.script.Title != "" {
		title += " · " + m.script.Title
	}
	return titleStyle.Render(title) + footerStyle.Render(fmt.Sprintf("  %d %s", m.script.Words, m.printer.Sprintf("player.words")))
}

func (m *Model) renderFooter() string {
	p := m.printer
	snap := m.player.Snapshot()
	segments := []string{}
	switch {
	case m.player.Finished():
		segments = append(segments, stateStyle.Render(p.Sprintf("player.finished")))
	case snap.State == scroller.Paused:
		segments = append(segments, stateStyle.Render(p.Sprintf("player.paused")))
	case snap.State == scroller.Stopped:
		segments = append(segments, stateStyle.Render(p.Sprintf("player.stopped")))
	}
	segments = append(segments,
		footerStyle.Render(fmt.Sprintf("%s %d %s (%.1f %s)",
			p.Sprintf("player.scrollrate"), snap.WPM, p.Sprintf("player.wpm"),
			snap.LinesPerSecond, p.Sprintf("player.lps"))),
		footerStyle.Render(fmt.Sprintf("%s %d", p.Sprintf("player.lineheight"), m.player.Spacing())),
		footerStyle.Render(fmt.Sprintf("%s %s · %s %s · %s %s",
			p.Sprintf("player.totaltime"), statsPkg.FormatClock(snap.Estimated.Milliseconds()),
			p.Sprintf("player.elapsedtime"), statsPkg.FormatClock(snap.Elapsed.Milliseconds()),
			p.Sprintf("player.remainingtime"), statsPkg.FormatClock(snap.Remaining.Milliseconds()))),
		footerStyle.Render(fmt.Sprintf("%d%%", int(snap.Progress*100))),
	)
	return strings.Join(segments, "  ")
}

func (m *Model) renderHint() string {
	switch {
	case m.toast != "":
		return toastStyle.Render(m.toast)
	case m.hint != "":
		return footerStyle.Render(m.hint)
	default:
		return footerStyle.Render(m.printer.Sprintf("player.help"))
	}
}

func (m *Model) logf(format string, args ...any) {
	if m.logger != nil {
		m.logger.Printf(format, args...)
		return
	}
	logErrf(format+"\n", args...)
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
