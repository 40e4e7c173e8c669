// Package model defines shared data structures.
package model

import "time"

// Config defines player settings after flags and config file are merged.
type Config struct {
	Speed         int
	Lang          string
	Spacing       int
	Width         int
	RewindSeconds int
	ScriptPath    string
}

// StatsConfig defines filters and options for stats output.
type StatsConfig struct {
	Lang        string
	Since       *time.Time
	Last        int
	CurveWindow int
}

// SessionStats captures a finished reading session.
type SessionStats struct {
	StartedAt  time.Time
	EndedAt    time.Time
	Lang       string
	ScriptPath string
	Words      int
	// FinalWPM is the speed the session ended at.
	FinalWPM  int
	ElapsedMs int64
	// Completed is set when the script scrolled to its end.
	Completed    bool
	HoldGestures int
	HoldRepeats  int
	Taps         int
}

// SpeedChange records one speed adjustment during a session.
type SpeedChange struct {
	AtMs   int64
	WPM    int
	Source string
}

// Speed change sources.
const (
	SourceTap  = "tap"
	SourceHold = "hold"
	SourceKey  = "key"
)

// SessionAggregate summarizes a session for reporting.
type SessionAggregate struct {
	SessionID   int64
	EndedAt     time.Time
	Lang        string
	Words       int
	FinalWPM    int
	ElapsedMs   int64
	Completed   bool
	HoldRepeats int
}
