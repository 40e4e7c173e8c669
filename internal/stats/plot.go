package stats

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
	"golang.org/x/term"
)

const (
	defaultPlotHeight   = 8
	minPlotWidth        = 10
	axisSeparator       = " ┤"
	terminalWidthBackup = 80
)

// eighths fill a cell from the bottom, one eighth at a time.
var eighths = []rune(" ▁▂▃▄▅▆▇█")

// PlotBars renders values as a column chart. Values are resampled to width
// columns; a width of zero follows the terminal.
func PlotBars(w io.Writer, title string, values []float64, width, height int) error {
	if len(values) == 0 {
		return nil
	}
	if height <= 0 {
		height = defaultPlotHeight
	}
	lo, hi := minMax(values)
	labelWidth := max(runewidth.StringWidth(axisLabel(lo)), runewidth.StringWidth(axisLabel(hi)))
	if width <= 0 {
		width = PlotWidthFor(terminalWidth()) - labelWidth
	}
	width = max(width, minPlotWidth)

	cols := resample(values, width)
	// Leave a visible stub for the minimum.
	base := lo - (hi-lo)*0.1
	if hi-base < 1e-9 {
		base = hi - 1
	}

	if title != "" {
		if _, err := fmt.Fprintln(w, title); err != nil {
			return err
		}
	}
	levels := height * (len(eighths) - 1)
	for row := height - 1; row >= 0; row-- {
		label := ""
		switch row {
		case height - 1:
			label = axisLabel(hi)
		case 0:
			label = axisLabel(lo)
		}
		var b strings.Builder
		b.WriteString(runewidth.FillLeft(label, labelWidth))
		b.WriteString(axisSeparator)
		for _, v := range cols {
			filled := int(math.Round((v - base) / (hi - base) * float64(levels)))
			cell := filled - row*(len(eighths)-1)
			cell = max(0, min(cell, len(eighths)-1))
			b.WriteRune(eighths[cell])
		}
		if _, err := fmt.Fprintln(w, strings.TrimRight(b.String(), " ")); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

func axisLabel(v float64) string {
	return fmt.Sprintf("%.0f", v)
}

// PlotWidthFor computes a plot width that fits within the total available width.
func PlotWidthFor(totalWidth int) int {
	if totalWidth <= 0 {
		return minPlotWidth
	}
	return max(totalWidth-utf8.RuneCountInString(axisSeparator), minPlotWidth)
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return terminalWidthBackup
	}
	return width
}

// resample stretches or averages values into exactly width points.
func resample(values []float64, width int) []float64 {
	out := make([]float64, width)
	n := len(values)
	for i := range out {
		start := i * n / width
		end := max((i+1)*n/width, start+1)
		end = min(end, n)
		var sum float64
		for _, v := range values[start:end] {
			sum += v
		}
		out[i] = sum / float64(end-start)
	}
	return out
}
