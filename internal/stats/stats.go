// Package stats contains reading statistics calculations and reporting.
package stats

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/bilo1967/sight-translation/internal/model"
)

var sparkRunes = []rune("▁▂▃▄▅▆▇█")

// FormatClock renders a millisecond count as HH:MM:SS. Negative values
// render as zero.
func FormatClock(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	total := ms / 1000
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total/60)%60, total%60)
}

// EffectiveWPM returns the words per minute actually achieved over a
// session. Unfinished sessions fall back to the speed they ended at, since
// the share of the script read is unknown.
func EffectiveWPM(s model.SessionAggregate) float64 {
	if !s.Completed || s.ElapsedMs <= 0 {
		return float64(s.FinalWPM)
	}
	minutes := float64(s.ElapsedMs) / 60000.0
	return float64(s.Words) / minutes
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	if window <= 1 {
		copy(out, values)
		return out
	}
	var sum float64
	for i, v := range values {
		sum += v
		den := i + 1
		if i >= window {
			sum -= values[i-window]
			den = window
		}
		out[i] = sum / float64(den)
	}
	return out
}

// Sparkline renders values as a single line of block characters.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal, maxVal := minMax(values)
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkRunes[len(sparkRunes)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkRunes)-1)))
		idx = max(0, min(idx, len(sparkRunes)-1))
		b.WriteRune(sparkRunes[idx])
	}
	return b.String()
}

func minMax(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}

// RenderSummary prints totals over sessions.
func RenderSummary(w io.Writer, sessions []model.SessionAggregate) error {
	if len(sessions) == 0 {
		_, err := fmt.Fprintln(w, "No sessions found.")
		return err
	}
	t := Summarize(sessions)
	lines := []string{
		"Summary",
		fmt.Sprintf("Sessions: %d (%d completed)", t.Sessions, t.Completed),
		fmt.Sprintf("Reading time: %s", FormatClock(t.ReadingMs)),
		fmt.Sprintf("Avg WPM: %.1f", t.AvgWPM),
		fmt.Sprintf("Best WPM: %.1f", t.BestWPM),
		fmt.Sprintf("Hold repeats: %d", t.HoldRepeats),
		"",
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// RenderSessionTable prints one row per session.
func RenderSessionTable(w io.Writer, sessions []model.SessionAggregate) error {
	if len(sessions) == 0 {
		return nil
	}
	headers := []string{"#", "Ended", "Time", "Words", "WPM", "Done", "Repeats"}
	rows := make([][]string, 0, len(sessions))
	for _, s := range sessions {
		done := ""
		if s.Completed {
			done = "✓"
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", s.SessionID),
			s.EndedAt.Local().Format("2006-01-02 15:04"),
			FormatClock(s.ElapsedMs),
			fmt.Sprintf("%d", s.Words),
			fmt.Sprintf("%.0f", EffectiveWPM(s)),
			done,
			fmt.Sprintf("%d", s.HoldRepeats),
		})
	}
	rightAlign := map[int]bool{0: true, 3: true, 4: true, 6: true}
	for _, line := range formatTable(headers, rows, rightAlign) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// RenderCurves prints the WPM trend, smoothed over window sessions and
// sized to totalWidth (0 follows the terminal).
func RenderCurves(w io.Writer, sessions []model.SessionAggregate, window, totalWidth, height int) error {
	if len(sessions) == 0 {
		return nil
	}
	wpms := make([]float64, len(sessions))
	for i, s := range sessions {
		wpms[i] = EffectiveWPM(s)
	}
	if _, err := fmt.Fprintf(w, "Trend %s\n", Sparkline(MovingAverage(wpms, window))); err != nil {
		return err
	}
	width := 0
	if totalWidth > 0 {
		width = PlotWidthFor(totalWidth)
	}
	return PlotBars(w, "Reading speed (WPM)", MovingAverage(wpms, window), width, height)
}

// RenderAdjustments prints how speed changes were made across sessions.
func RenderAdjustments(w io.Writer, changes map[int64][]model.SpeedChange) error {
	counts := map[string]int{}
	total := 0
	for _, list := range changes {
		for _, ch := range list {
			counts[ch.Source]++
			total++
		}
	}
	if total == 0 {
		return nil
	}
	if _, err := fmt.Fprintln(w, "Speed adjustments"); err != nil {
		return err
	}
	headers := []string{"Source", "Count", "Share"}
	var rows [][]string
	for _, src := range []string{model.SourceTap, model.SourceHold, model.SourceKey} {
		n := counts[src]
		rows = append(rows, []string{src, fmt.Sprintf("%d", n), fmt.Sprintf("%.1f%%", float64(n)/float64(total)*100)})
	}
	for _, line := range formatTable(headers, rows, map[int]bool{1: true, 2: true}) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}
