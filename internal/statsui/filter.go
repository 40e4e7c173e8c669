package statsui

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/bilo1967/sight-translation/internal/model"
)

const dateLayout = "2006-01-02"

// filterField is one line of the filter form. show renders the current
// value of cfg, parse writes the edited value back.
type filterField struct {
	input textinput.Model
	show  func(cfg model.StatsConfig) string
	parse func(value string, cfg *model.StatsConfig) error
}

type filterForm struct {
	fields []filterField
	focus  int
	err    string
}

func newFilterForm() filterForm {
	return filterForm{fields: []filterField{
		{
			input: newFilterInput("Lang: "),
			show:  func(cfg model.StatsConfig) string { return cfg.Lang },
			parse: func(v string, cfg *model.StatsConfig) error {
				cfg.Lang = v
				return nil
			},
		},
		{
			input: newFilterInput("Since (YYYY-MM-DD): "),
			show: func(cfg model.StatsConfig) string {
				if cfg.Since == nil {
					return ""
				}
				return cfg.Since.Format(dateLayout)
			},
			parse: func(v string, cfg *model.StatsConfig) error {
				if v == "" {
					return nil
				}
				since, err := time.ParseInLocation(dateLayout, v, time.Local)
				if err != nil {
					return errors.New("since must be a date like 2026-01-31")
				}
				cfg.Since = &since
				return nil
			},
		},
		{
			input: newFilterInput("Last sessions: "),
			show: func(cfg model.StatsConfig) string {
				if cfg.Last <= 0 {
					return ""
				}
				return strconv.Itoa(cfg.Last)
			},
			parse: func(v string, cfg *model.StatsConfig) error {
				if v == "" {
					return nil
				}
				n, err := strconv.Atoi(v)
				if err != nil || n < 0 {
					return errors.New("last must be 0 or a positive number")
				}
				cfg.Last = n
				return nil
			},
		},
		{
			input: newFilterInput("Curve window: "),
			show:  func(cfg model.StatsConfig) string { return strconv.Itoa(cfg.CurveWindow) },
			parse: func(v string, cfg *model.StatsConfig) error {
				if v == "" {
					return nil
				}
				n, err := strconv.Atoi(v)
				if err != nil || n < 1 {
					return errors.New("curve window must be at least 1")
				}
				cfg.CurveWindow = n
				return nil
			},
		},
	}}
}

func newFilterInput(prompt string) textinput.Model {
	in := textinput.New()
	in.Prompt = prompt
	in.Cursor.SetMode(cursor.CursorBlink)
	return in
}

func (f *filterForm) load(cfg model.StatsConfig) {
	f.err = ""
	for i := range f.fields {
		f.fields[i].input.SetValue(f.fields[i].show(cfg))
	}
}

// result parses every field into a fresh config. The first invalid field
// wins.
func (f *filterForm) result() (model.StatsConfig, error) {
	var cfg model.StatsConfig
	for _, field := range f.fields {
		if err := field.parse(strings.TrimSpace(field.input.Value()), &cfg); err != nil {
			return model.StatsConfig{}, err
		}
	}
	return cfg, nil
}

func (f *filterForm) setFocus(idx int) tea.Cmd {
	n := len(f.fields)
	f.focus = (idx%n + n) % n
	var cmd tea.Cmd
	for i := range f.fields {
		if i == f.focus {
			cmd = f.fields[i].input.Focus()
			continue
		}
		f.fields[i].input.Blur()
	}
	return cmd
}

func (f *filterForm) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	f.fields[f.focus].input, cmd = f.fields[f.focus].input.Update(msg)
	return cmd
}

func (f *filterForm) setWidth(width int) {
	for i := range f.fields {
		in := &f.fields[i].input
		in.Width = max(10, width-len(in.Prompt)-2)
	}
}

func (f *filterForm) view() string {
	lines := make([]string, 0, len(f.fields)+2)
	lines = append(lines, "Filter sessions")
	for _, field := range f.fields {
		lines = append(lines, field.input.View())
	}
	if f.err != "" {
		lines = append(lines, errorStyle.Render(f.err))
	}
	return strings.Join(lines, "\n")
}
