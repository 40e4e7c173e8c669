// Package scroller models teleprompter playback: a script scrolling through
// a viewport at a words-per-minute rate.
package scroller

import (
	"time"
)

// Speed limits in words per minute.
const (
	MinSpeed     = 5
	MaxSpeed     = 320
	DefaultSpeed = 100
	SpeedStep    = 5
)

// Spacing limits, in blank lines between wrapped lines.
const (
	MinSpacing     = 0
	MaxSpacing     = 3
	DefaultSpacing = 0
)

// DefaultRewind is how far the rewind control goes back.
const DefaultRewind = 5 * time.Second

// SpeedSteps is the number of steps between the slowest and fastest speed,
// which bounds a held speed button.
const SpeedSteps = (MaxSpeed - MinSpeed) / SpeedStep

// State is the playback state.
type State uint8

const (
	Stopped State = iota
	Playing
	Paused
)

func (s State) String() string {
	switch s {
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	default:
		return "stopped"
	}
}

// ClampSpeed limits wpm to the supported range and snaps it to the step grid.
func ClampSpeed(wpm int) int {
	wpm = max(MinSpeed, min(wpm, MaxSpeed))
	return MinSpeed + (wpm-MinSpeed+SpeedStep/2)/SpeedStep*SpeedStep
}

// Stats is a snapshot of the playback figures shown in the footer.
type Stats struct {
	State State
	WPM   int
	// LinesPerSecond is the scroll rate, rounded to one decimal.
	LinesPerSecond float64
	Estimated      time.Duration
	Elapsed        time.Duration
	Remaining      time.Duration
	Progress       float64
}

// Player scrolls a script through a viewport. The script enters from the
// bottom edge and playback ends once it has left through the top, so the
// distance covered is the content height plus the viewport height.
type Player struct {
	words         int
	contentLines  int
	viewportLines int

	speed    int
	spacing  int
	state    State
	position float64
	elapsed  time.Duration
	finished bool
}

// New returns a stopped player for a script of words words.
func New(words int) *Player {
	return &Player{words: words, speed: DefaultSpeed, spacing: DefaultSpacing}
}

// SetLayout updates the measured heights. The position is rescaled so the
// same part of the script stays in view.
func (p *Player) SetLayout(contentLines, viewportLines int) {
	oldTotal := p.totalSpace()
	p.contentLines = max(contentLines, 0)
	p.viewportLines = max(viewportLines, 0)
	if newTotal := p.totalSpace(); oldTotal > 0 && newTotal > 0 {
		p.position = p.position * newTotal / oldTotal
	}
	p.position = min(p.position, p.totalSpace())
}

func (p *Player) totalSpace() float64 {
	return float64(p.contentLines + p.viewportLines)
}

// Words returns the script word count.
func (p *Player) Words() int {
	return p.words
}

// Speed returns the current rate in words per minute.
func (p *Player) Speed() int {
	return p.speed
}

// SetSpeed sets the rate, clamped, and returns the value applied.
func (p *Player) SetSpeed(wpm int) int {
	p.speed = ClampSpeed(wpm)
	return p.speed
}

// StepSpeed moves the rate by n steps.
func (p *Player) StepSpeed(n int) int {
	return p.SetSpeed(p.speed + n*SpeedStep)
}

// Spacing returns the line spacing.
func (p *Player) Spacing() int {
	return p.spacing
}

// StepSpacing moves the spacing by n within its limits.
func (p *Player) StepSpacing(n int) int {
	p.spacing = max(MinSpacing, min(p.spacing+n, MaxSpacing))
	return p.spacing
}

// State returns the playback state.
func (p *Player) State() State {
	return p.state
}

// Finished reports whether the last playback reached the end of the script.
func (p *Player) Finished() bool {
	return p.finished
}

// Play starts or resumes playback. A finished script starts over.
func (p *Player) Play() {
	if p.finished {
		p.reset()
	}
	p.state = Playing
}

// Pause suspends playback in place.
func (p *Player) Pause() {
	if p.state == Playing {
		p.state = Paused
	}
}

// Toggle switches between playing and paused.
func (p *Player) Toggle() {
	if p.state == Playing {
		p.Pause()
		return
	}
	p.Play()
}

// Stop ends playback, rewinds to the top and clears the elapsed time.
func (p *Player) Stop() {
	p.state = Stopped
	p.reset()
}

func (p *Player) reset() {
	p.position = 0
	p.elapsed = 0
	p.finished = false
}

// LinesPerSecond converts the current speed into a scroll rate, so that the
// whole distance takes as long as reading every word at that speed.
func (p *Player) LinesPerSecond() float64 {
	if p.words <= 0 || p.speed <= 0 {
		return 0
	}
	seconds := 60 * float64(p.words) / float64(p.speed)
	return p.totalSpace() / seconds
}

// Advance moves playback forward by dt. It reports true when this call
// reached the end, which stops playback.
func (p *Player) Advance(dt time.Duration) bool {
	if p.state != Playing || dt <= 0 {
		return false
	}
	p.elapsed += dt
	p.position += p.LinesPerSecond() * dt.Seconds()
	if p.position < p.totalSpace() {
		return false
	}
	p.position = p.totalSpace()
	p.state = Stopped
	p.finished = true
	return true
}

// Rewind moves back by d worth of scrolling at the current speed, never past
// the start. It does nothing while stopped.
func (p *Player) Rewind(d time.Duration) {
	if p.state == Stopped || d <= 0 {
		return
	}
	p.position = max(0, p.position-p.LinesPerSecond()*d.Seconds())
}

// Position returns the distance scrolled, in lines.
func (p *Player) Position() float64 {
	return p.position
}

// Offset returns the first content line at the top of the viewport. It is
// negative while the script is still entering from below.
func (p *Player) Offset() int {
	return int(p.position) - p.viewportLines
}

// Elapsed returns the time spent playing.
func (p *Player) Elapsed() time.Duration {
	return p.elapsed
}

// Snapshot returns the current figures.
func (p *Player) Snapshot() Stats {
	lps := p.LinesPerSecond()
	st := Stats{
		State:          p.state,
		WPM:            p.speed,
		LinesPerSecond: float64(int(lps*10+0.5)) / 10,
		Elapsed:        p.elapsed,
	}
	if lps > 0 {
		st.Estimated = seconds(p.totalSpace() / lps)
		st.Remaining = seconds((p.totalSpace() - p.position) / lps)
	}
	if total := p.totalSpace(); total > 0 {
		st.Progress = p.position / total
	}
	return st
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
