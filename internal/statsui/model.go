// Package statsui is the interactive browser behind the stats command.
package statsui

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/bilo1967/sight-translation/internal/model"
	"github.com/bilo1967/sight-translation/internal/stats"
	"github.com/bilo1967/sight-translation/internal/store"
)

const (
	tabOverview = iota
	tabSessions
	tabAdjustments
)

var tabNames = [...]string{"Overview", "Sessions", "Adjustments"}

const (
	plotHeight    = 10
	curveStep     = 5
	wideLayoutMin = 80
)

var (
	accent = lipgloss.Color("#C89A3A")
	muted  = lipgloss.Color("#6E6E6E")
	frame  = lipgloss.Color("#4A4A4A")

	tabStyle = lipgloss.NewStyle().
			Padding(0, 2).
			Foreground(lipgloss.Color("#B0B0B0")).
			Border(lipgloss.NormalBorder(), false, false, true, false).
			BorderForeground(frame)
	activeTabStyle = tabStyle.Copy().
			Bold(true).
			Foreground(accent).
			BorderForeground(accent)
	summaryStyle = lipgloss.NewStyle().Foreground(muted).Italic(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	cardStyle    = lipgloss.NewStyle().
			Width(18).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(frame)
	cardLabelStyle = lipgloss.NewStyle().Foreground(muted)
	cardValueStyle = lipgloss.NewStyle().Foreground(accent).Bold(true)
)

// Model is a tea.Model browsing the stored reading sessions.
type Model struct {
	store *store.Store
	cfg   model.StatsConfig

	report  stats.Report
	loadErr error

	activeTab int
	pages     [len(tabNames)]viewport.Model
	sessions  table.Model

	filtering bool
	form      filterForm

	keys     browseKeys
	formKeys filterKeys
	help     help.Model
	width    int
	height   int
}

// NewModel loads the sessions matching cfg.
func NewModel(st *store.Store, cfg model.StatsConfig) *Model {
	m := &Model{
		store:    st,
		cfg:      cfg,
		form:     newFilterForm(),
		keys:     defaultBrowseKeys(),
		formKeys: defaultFilterKeys(),
		help:     help.New(),
	}
	for i := range m.pages {
		m.pages[i] = viewport.New(0, 0)
	}
	m.sessions = sessionTable(nil, 0, 1)
	m.reload()
	return m
}

func (m *Model) Init() tea.Cmd { return nil }

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.resize()
		m.fillPages()
		return m, nil
	case tea.KeyMsg:
		if key.Matches(msg, forceQuit) {
			return m, tea.Quit
		}
		if m.filtering {
			return m, m.updateForm(msg)
		}
		return m.browse(msg)
	}
	return m, nil
}

func (m *Model) browse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.NextTab):
		m.switchTab(1)
		return m, tea.ClearScreen
	case key.Matches(msg, m.keys.PrevTab):
		m.switchTab(-1)
		return m, tea.ClearScreen
	case key.Matches(msg, m.keys.Wider):
		m.cfg.CurveWindow = nextCurveWindow(m.cfg.CurveWindow)
		m.reload()
		return m, nil
	case key.Matches(msg, m.keys.Narrower):
		m.cfg.CurveWindow = prevCurveWindow(m.cfg.CurveWindow)
		m.reload()
		return m, nil
	case key.Matches(msg, m.keys.Filter):
		m.filtering = true
		m.form.load(m.cfg)
		return m, m.form.setFocus(0)
	case key.Matches(msg, m.keys.Top):
		if m.activeTab == tabSessions {
			m.sessions.GotoTop()
		} else {
			m.pages[m.activeTab].GotoTop()
		}
		return m, nil
	case key.Matches(msg, m.keys.Bottom):
		if m.activeTab == tabSessions {
			m.sessions.GotoBottom()
		} else {
			m.pages[m.activeTab].GotoBottom()
		}
		return m, nil
	}

	var cmd tea.Cmd
	if m.activeTab == tabSessions {
		m.sessions, cmd = m.sessions.Update(msg)
	} else {
		m.pages[m.activeTab], cmd = m.pages[m.activeTab].Update(msg)
	}
	return m, cmd
}

func (m *Model) updateForm(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.formKeys.Cancel):
		m.filtering = false
		return nil
	case key.Matches(msg, m.formKeys.Apply):
		cfg, err := m.form.result()
		if err != nil {
			m.form.err = err.Error()
			return nil
		}
		m.cfg = cfg
		m.filtering = false
		m.reload()
		m.resize()
		return nil
	case key.Matches(msg, m.formKeys.Next):
		return m.form.setFocus(m.form.focus + 1)
	case key.Matches(msg, m.formKeys.Prev):
		return m.form.setFocus(m.form.focus - 1)
	}
	return m.form.update(msg)
}

func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	top, body, bottom := m.heights()
	var content string
	switch {
	case m.filtering:
		content = m.form.view()
	case m.activeTab == tabSessions && len(m.report.Sessions) == 0:
		content = "No sessions yet."
	case m.activeTab == tabSessions:
		content = m.sessions.View()
	default:
		content = m.pages[m.activeTab].View()
	}
	return strings.Join([]string{
		fitLines(m.header(), m.width, top),
		fitLines(content, m.width, body),
		fitLines(m.footer(), m.width, bottom),
	}, "\n")
}

func (m *Model) heights() (top, body, bottom int) {
	top = lipgloss.Height(tabStyle.Render("x")) + 1
	bottom = 1
	if !m.filtering && m.loadErr != nil {
		bottom = 2
	}
	return top, max(m.height-top-bottom, 1), bottom
}

func (m *Model) resize() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, body, _ := m.heights()
	for i := range m.pages {
		m.pages[i].Width = m.width
		m.pages[i].Height = body
	}
	m.sessions.SetWidth(m.width)
	m.sessions.SetHeight(max(body-1, 1))
	m.form.setWidth(m.width)
}

func (m *Model) switchTab(delta int) {
	m.activeTab = (m.activeTab + delta + len(tabNames)) % len(tabNames)
	if m.activeTab == tabSessions {
		m.sessions.Focus()
		return
	}
	m.sessions.Blur()
}

func (m *Model) header() string {
	tabs := make([]string, len(tabNames))
	for i, name := range tabNames {
		style := tabStyle
		if i == m.activeTab {
			style = activeTabStyle
		}
		tabs[i] = style.Render(name)
	}
	return lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...) + "\n" +
		summaryStyle.Render(truncateLine(describeFilter(m.cfg), m.width))
}

func describeFilter(cfg model.StatsConfig) string {
	parts := []string{"all languages", "any date", "all sessions"}
	if cfg.Lang != "" {
		parts[0] = "lang " + cfg.Lang
	}
	if cfg.Since != nil {
		parts[1] = "since " + cfg.Since.Format(dateLayout)
	}
	if cfg.Last > 0 {
		parts[2] = "last " + strconv.Itoa(cfg.Last)
	}
	return fmt.Sprintf("%s · curve window %d", strings.Join(parts, " · "), cfg.CurveWindow)
}

func (m *Model) footer() string {
	if m.filtering {
		return m.help.View(m.formKeys)
	}
	view := m.help.View(m.keys)
	if m.loadErr != nil {
		view += "\n" + errorStyle.Render(m.loadErr.Error())
	}
	return view
}

// reload queries the store again with the current filter.
func (m *Model) reload() {
	report, err := stats.BuildReport(context.Background(), m.store, m.cfg)
	if err != nil {
		m.loadErr = err
		for i := range m.pages {
			m.pages[i].SetContent("Could not load sessions.")
		}
		return
	}
	m.loadErr = nil
	m.report = report
	_, body, _ := m.heights()
	m.sessions = sessionTable(report.Sessions, m.width, body)
	if m.activeTab == tabSessions {
		m.sessions.Focus()
	}
	m.fillPages()
}

func (m *Model) fillPages() {
	if m.loadErr != nil {
		return
	}
	width := m.width
	if width <= 0 {
		width = wideLayoutMin
	}
	m.pages[tabOverview].SetContent(overviewPage(m.report, m.cfg.CurveWindow, width))
	m.pages[tabAdjustments].SetContent(adjustmentsPage(m.report.SpeedChanges))
}

func overviewPage(report stats.Report, window, width int) string {
	if len(report.Sessions) == 0 {
		return "No sessions yet."
	}
	var plot bytes.Buffer
	if err := stats.RenderCurves(&plot, report.Sessions, window, width, plotHeight); err != nil {
		return "Could not draw the speed curve: " + err.Error()
	}
	return summaryCards(report.Totals, width) + "\n\n" + strings.TrimRight(plot.String(), "\n")
}

func summaryCards(t stats.Totals, width int) string {
	cards := []string{
		card("Sessions", strconv.Itoa(t.Sessions)),
		card("Completed", strconv.Itoa(t.Completed)),
		card("Reading time", stats.FormatClock(t.ReadingMs)),
		card("Avg WPM", fmt.Sprintf("%.1f", t.AvgWPM)),
		card("Best WPM", fmt.Sprintf("%.1f", t.BestWPM)),
	}
	if width < wideLayoutMin {
		return lipgloss.JoinVertical(lipgloss.Left, cards...)
	}
	perRow := max(width/lipgloss.Width(cards[0]), 1)
	var rows []string
	for len(cards) > 0 {
		n := min(perRow, len(cards))
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cards[:n]...))
		cards = cards[n:]
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func card(label, value string) string {
	return cardStyle.Render(cardLabelStyle.Render(label) + "\n" + cardValueStyle.Render(value))
}

func adjustmentsPage(changes map[int64][]model.SpeedChange) string {
	var buf bytes.Buffer
	if err := stats.RenderAdjustments(&buf, changes); err != nil {
		return "Could not list speed adjustments: " + err.Error()
	}
	if buf.Len() == 0 {
		return "No speed adjustments in these sessions."
	}
	return strings.TrimRight(buf.String(), "\n")
}

// sessionTable lists sessions most recent first.
func sessionTable(sessions []model.SessionAggregate, width, height int) table.Model {
	rows := make([]table.Row, 0, len(sessions))
	for i := len(sessions) - 1; i >= 0; i-- {
		s := sessions[i]
		done := ""
		if s.Completed {
			done = "✓"
		}
		rows = append(rows, table.Row{
			strconv.FormatInt(s.SessionID, 10),
			s.EndedAt.Local().Format("2006-01-02 15:04"),
			s.Lang,
			stats.FormatClock(s.ElapsedMs),
			strconv.Itoa(s.Words),
			fmt.Sprintf("%.0f", stats.EffectiveWPM(s)),
			done,
			strconv.Itoa(s.HoldRepeats),
		})
	}
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "#", Width: 5},
			{Title: "Ended", Width: 16},
			{Title: "Lang", Width: 4},
			{Title: "Time", Width: 8},
			{Title: "Words", Width: 6},
			{Title: "WPM", Width: 5},
			{Title: "Done", Width: 4},
			{Title: "Repeats", Width: 7},
		}),
		table.WithRows(rows),
		table.WithHeight(max(1, height-1)),
	)
	if width > 0 {
		t.SetWidth(width)
	}
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Foreground(accent).
		BorderForeground(frame).
		BorderBottom(true).
		Bold(true)
	styles.Selected = styles.Selected.
		Foreground(lipgloss.Color("#1A1A1A")).
		Background(accent)
	t.SetStyles(styles)
	return t
}

func nextCurveWindow(n int) int {
	if n < curveStep {
		return curveStep
	}
	return (n/curveStep + 1) * curveStep
}

func prevCurveWindow(n int) int {
	switch {
	case n <= curveStep:
		return 1
	case n%curveStep == 0:
		return n - curveStep
	default:
		return n / curveStep * curveStep
	}
}

// fitLines pads or cuts s to exactly height lines of width cells.
func fitLines(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, "")
	}
	for i, line := range lines {
		if gap := width - lipgloss.Width(line); gap > 0 {
			lines[i] = line + strings.Repeat(" ", gap)
		}
	}
	return strings.Join(lines, "\n")
}

func truncateLine(s string, width int) string {
	if width <= 0 {
		return s
	}
	return runewidth.Truncate(s, width, "…")
}
