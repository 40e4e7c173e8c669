package statsui

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/bilo1967/sight-translation/internal/model"
	"github.com/bilo1967/sight-translation/internal/store"
)

func TestCurveWindowSteps(t *testing.T) {
	cases := []struct {
		in, next, prev int
	}{
		{1, 5, 1},
		{5, 10, 1},
		{7, 10, 5},
		{20, 25, 15},
	}
	for _, tc := range cases {
		if got := nextCurveWindow(tc.in); got != tc.next {
			t.Fatalf("next(%d) = %d, want %d", tc.in, got, tc.next)
		}
		if got := prevCurveWindow(tc.in); got != tc.prev {
			t.Fatalf("prev(%d) = %d, want %d", tc.in, got, tc.prev)
		}
	}
}

func TestModelShowsSessions(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "stats.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			t.Fatalf("close store: %v", err)
		}
	}()
	ended := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		_, err := st.InsertSession(context.Background(), model.SessionStats{
			StartedAt: ended.Add(-time.Minute),
			EndedAt:   ended.Add(time.Duration(i) * time.Hour),
			Lang:      "en",
			Words:     120,
			FinalWPM:  100 + i*10,
			ElapsedMs: 60000,
			Completed: true,
		}, []model.SpeedChange{{AtMs: 1000, WPM: 105, Source: model.SourceHold}})
		if err != nil {
			t.Fatalf("insert session: %v", err)
		}
	}

	m := NewModel(st, model.StatsConfig{CurveWindow: 20})
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	if len(m.report.Sessions) != 3 {
		t.Fatalf("expected 3 sessions, got %d", len(m.report.Sessions))
	}
	if !strings.Contains(m.View(), "Best WPM") {
		t.Fatalf("expected the summary cards in the overview")
	}
	if rows := m.sessions.Rows(); len(rows) != 3 || rows[0][0] != "3" {
		t.Fatalf("expected most recent session first, got %v", rows)
	}
	m.Update(tea.KeyMsg{Type: tea.KeyRight})
	m.Update(tea.KeyMsg{Type: tea.KeyRight})
	if m.activeTab != tabAdjustments {
		t.Fatalf("expected adjustments tab, got %d", m.activeTab)
	}
	if !strings.Contains(m.View(), "hold") {
		t.Fatalf("expected hold adjustments in view:\n%s", m.View())
	}
}

func TestFilterFormResult(t *testing.T) {
	form := newFilterForm()
	form.load(model.StatsConfig{CurveWindow: 20})
	if got := form.fields[3].input.Value(); got != "20" {
		t.Fatalf("expected the window to be loaded, got %q", got)
	}
	form.fields[0].input.SetValue(" it ")
	form.fields[1].input.SetValue("2026-01-02")
	form.fields[2].input.SetValue("7")
	form.fields[3].input.SetValue("3")
	cfg, err := form.result()
	if err != nil {
		t.Fatalf("parse filter: %v", err)
	}
	if cfg.Lang != "it" || cfg.Since == nil || cfg.Last != 7 || cfg.CurveWindow != 3 {
		t.Fatalf("unexpected config %+v", cfg)
	}

	form.fields[3].input.SetValue("0")
	if _, err := form.result(); err == nil {
		t.Fatalf("expected an error for a zero window")
	}
	form.fields[3].input.SetValue("3")
	form.fields[1].input.SetValue("yesterday")
	if _, err := form.result(); err == nil {
		t.Fatalf("expected an error for a bad date")
	}
}

func TestFilterFlow(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "stats.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			t.Fatalf("close store: %v", err)
		}
	}()

	m := NewModel(st, model.StatsConfig{CurveWindow: 20})
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("/")})
	if !m.filtering {
		t.Fatalf("expected the filter form")
	}
	if !strings.Contains(m.View(), "Curve window: ") {
		t.Fatalf("expected the form in view:\n%s", m.View())
	}
	m.form.fields[0].input.SetValue("fr")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.filtering || m.cfg.Lang != "fr" || m.cfg.CurveWindow != 20 {
		t.Fatalf("expected the filter applied, got filtering=%v cfg=%+v", m.filtering, m.cfg)
	}
	if !strings.Contains(m.View(), "lang fr") {
		t.Fatalf("expected the filter summary in the header")
	}

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("/")})
	m.form.fields[2].input.SetValue("-4")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if !m.filtering || m.form.err == "" {
		t.Fatalf("expected the form to stay open with an error")
	}
	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if m.filtering || m.cfg.Lang != "fr" {
		t.Fatalf("cancel must keep the previous filter, got %+v", m.cfg)
	}
}
