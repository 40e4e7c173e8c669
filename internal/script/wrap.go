package script

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

type cell struct {
	r       rune
	width   int
	isSpace bool
}

// Layout wraps every paragraph to width display cells and joins them with
// an empty line. Each wrapped line is followed by spacing blank lines.
func (s *Script) Layout(width, spacing int) []string {
	var out []string
	for i, p := range s.Paragraphs {
		if i > 0 {
			out = append(out, "")
		}
		for _, line := range Wrap(p, width) {
			out = append(out, line)
			for j := 0; j < spacing; j++ {
				out = append(out, "")
			}
		}
	}
	return out
}

// Wrap breaks text into lines no wider than width cells, breaking at spaces
// where possible. Words wider than a line are split. A non-positive width
// returns the text as a single line.
func Wrap(text string, width int) []string {
	if width <= 0 {
		return []string{text}
	}
	cells := make([]cell, 0, len(text))
	for _, r := range text {
		cells = append(cells, cell{r: r, width: runewidth.RuneWidth(r), isSpace: r == ' '})
	}

	var lines []string
	line := make([]cell, 0, width)
	lineWidth := 0
	lastSpace := -1
	for i := 0; i < len(cells); {
		c := cells[i]
		if lineWidth+c.width > width && len(line) > 0 {
			if lastSpace >= 0 {
				lines = append(lines, render(line[:lastSpace]))
				line = append([]cell{}, line[lastSpace+1:]...)
			} else {
				lines = append(lines, render(line))
				line = line[:0]
			}
			lineWidth = widthOf(line)
			lastSpace = lastSpaceIndex(line)
			continue
		}
		if c.isSpace && len(line) == 0 {
			// Drop the space a break landed on.
			i++
			continue
		}
		line = append(line, c)
		lineWidth += c.width
		if c.isSpace {
			lastSpace = len(line) - 1
		}
		i++
	}
	if len(line) > 0 || len(lines) == 0 {
		lines = append(lines, render(line))
	}
	return lines
}

func render(line []cell) string {
	var b strings.Builder
	for _, c := range line {
		b.WriteRune(c.r)
	}
	return strings.TrimRight(b.String(), " ")
}

func widthOf(line []cell) int {
	total := 0
	for _, c := range line {
		total += c.width
	}
	return total
}

func lastSpaceIndex(line []cell) int {
	for i := len(line) - 1; i >= 0; i-- {
		if line[i].isSpace {
			return i
		}
	}
	return -1
}
