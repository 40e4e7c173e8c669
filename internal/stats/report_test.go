package stats

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bilo1967/sight-translation/internal/model"
	"github.com/bilo1967/sight-translation/internal/store"
)

func TestBuildReport(t *testing.T) {
	dir := t.TempDir()
	st, err := store.Open(filepath.Join(dir, "sight-translation.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})

	ctx := context.Background()
	var ids []int64
	for i := 0; i < 3; i++ {
		start := time.Unix(0, 0).Add(time.Duration(i) * time.Minute)
		stats := model.SessionStats{
			StartedAt:  start,
			EndedAt:    start.Add(30 * time.Second),
			Lang:       "en",
			ScriptPath: "dummy.txt",
			Words:      50,
			FinalWPM:   100,
			ElapsedMs:  30000,
			Completed:  true,
		}
		changes := []model.SpeedChange{{AtMs: 10, WPM: 105, Source: model.SourceHold}}
		id, err := st.InsertSession(ctx, stats, changes)
		if err != nil {
			t.Fatalf("insert session: %v", err)
		}
		ids = append(ids, id)
	}

	report, err := BuildReport(ctx, st, model.StatsConfig{Lang: "en", Last: 2, CurveWindow: 1})
	if err != nil {
		t.Fatalf("build report: %v", err)
	}
	if len(report.Sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(report.Sessions))
	}
	if report.Sessions[0].SessionID != ids[1] || report.Sessions[1].SessionID != ids[2] {
		t.Fatalf("unexpected session ids: %+v", report.Sessions)
	}
	if len(report.WindowSessionIDs) != 1 || report.WindowSessionIDs[0] != ids[2] {
		t.Fatalf("unexpected window %v", report.WindowSessionIDs)
	}
	if len(report.SpeedChanges) != 1 {
		t.Fatalf("expected changes for the window only, got %v", report.SpeedChanges)
	}

	var buf bytes.Buffer
	if err := RenderSummary(&buf, report.Sessions); err != nil {
		t.Fatalf("render summary: %v", err)
	}
	// 50 words in 30 seconds.
	if !strings.Contains(buf.String(), "Avg WPM: 100.0") || !strings.Contains(buf.String(), "Reading time: 00:01:00") {
		t.Fatalf("unexpected summary:\n%s", buf.String())
	}
}

func TestSummarize(t *testing.T) {
	if got := Summarize(nil); got != (Totals{}) {
		t.Fatalf("expected zero totals, got %+v", got)
	}
	sessions := []model.SessionAggregate{
		{Words: 100, ElapsedMs: 60000, Completed: true, HoldRepeats: 4},
		{Words: 100, ElapsedMs: 30000, HoldRepeats: 1, Completed: true},
		{FinalWPM: 80, ElapsedMs: 10000},
	}
	got := Summarize(sessions)
	// 100, 200 and the unfinished session's final 80.
	want := Totals{Sessions: 3, Completed: 2, ReadingMs: 100000, AvgWPM: 380.0 / 3, BestWPM: 200, HoldRepeats: 5}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}
