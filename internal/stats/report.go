package stats

import (
	"context"

	"github.com/bilo1967/sight-translation/internal/model"
	"github.com/bilo1967/sight-translation/internal/store"
)

// Report contains precomputed data for stats rendering.
type Report struct {
	Sessions         []model.SessionAggregate
	WindowSessionIDs []int64
	// SpeedChanges covers the sessions in the window.
	SpeedChanges map[int64][]model.SpeedChange
	Totals       Totals
}

// Totals aggregates a list of sessions.
type Totals struct {
	Sessions    int
	Completed   int
	ReadingMs   int64
	AvgWPM      float64
	BestWPM     float64
	HoldRepeats int
}

// Summarize folds sessions into Totals. AvgWPM is the mean of the
// per-session effective speeds, not total words over total time.
func Summarize(sessions []model.SessionAggregate) Totals {
	var t Totals
	var sum float64
	for _, s := range sessions {
		wpm := EffectiveWPM(s)
		sum += wpm
		t.BestWPM = max(t.BestWPM, wpm)
		t.ReadingMs += s.ElapsedMs
		t.HoldRepeats += s.HoldRepeats
		if s.Completed {
			t.Completed++
		}
	}
	t.Sessions = len(sessions)
	if t.Sessions > 0 {
		t.AvgWPM = sum / float64(t.Sessions)
	}
	return t
}

// BuildReport loads and prepares data for stats rendering.
func BuildReport(ctx context.Context, st *store.Store, cfg model.StatsConfig) (Report, error) {
	sessions, err := st.ListSessions(ctx, cfg)
	if err != nil {
		return Report{}, err
	}
	if cfg.Last > 0 && len(sessions) > cfg.Last {
		sessions = sessions[len(sessions)-cfg.Last:]
	}

	windowIDs := lastSessionIDs(sessions, cfg.CurveWindow)
	changes, err := st.ListSpeedChanges(ctx, windowIDs)
	if err != nil {
		return Report{}, err
	}

	return Report{
		Sessions:         sessions,
		WindowSessionIDs: windowIDs,
		SpeedChanges:     changes,
		Totals:           Summarize(sessions),
	}, nil
}

func sessionIDs(sessions []model.SessionAggregate) []int64 {
	ids := make([]int64, len(sessions))
	for i, s := range sessions {
		ids[i] = s.SessionID
	}
	return ids
}

func lastSessionIDs(sessions []model.SessionAggregate, window int) []int64 {
	if window <= 0 || len(sessions) <= window {
		return sessionIDs(sessions)
	}
	return sessionIDs(sessions[len(sessions)-window:])
}
